package triage

import (
	"strings"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

const systemPrompt = "You triage customer support tickets for a software company. Answer with JSON only."

func joinPriorities() string {
	parts := make([]string, len(domain.Priorities))
	for i, p := range domain.Priorities {
		parts[i] = string(p)
	}
	return strings.Join(parts, ", ")
}

func joinCategories() string {
	parts := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

// BuildClassificationPrompt renders the classifier prompt for a ticket.
func BuildClassificationPrompt(subject, description string) string {
	return strings.Join([]string{
		"Classify the support ticket.",
		"",
		"Priority must be one of: " + joinPriorities(),
		"Category must be one of: " + joinCategories(),
		"",
		"Return ONLY valid JSON that matches this schema:",
		`{ "priority": "...", "category": "..." }`,
		"",
		"Ticket:",
		"Subject: " + subject,
		"Description: " + description,
	}, "\n")
}

// BuildCustomerReplyPrompt renders the drafter prompt. A blank subject is omitted.
func BuildCustomerReplyPrompt(priority domain.TicketPriority, category domain.TicketCategory, subject string) string {
	lines := []string{
		"Draft a short customer-facing acknowledgement message for a support ticket.",
		"",
		"Constraints:",
		`- Do NOT include any timelines or promises (no SLAs, no "within X hours/days").`,
		"- Do NOT claim that an investigation is complete or that you confirmed facts you cannot know.",
		"- Do NOT mention policies, internal processes, or that you are an AI.",
		"- Be concise, professional, and helpful.",
		"",
		"Use the provided classification to adjust tone:",
		"- Critical: urgent, reassure immediate attention and escalation (without timelines).",
		"- High: serious, emphasize investigation and security/impact awareness (without timelines).",
		"- Medium: clear next steps and request needed info (without timelines).",
		"- Low: friendly, informative, and lightweight.",
		"",
		"Return ONLY valid JSON that matches this schema:",
		`{ "customerMessage": "..." }`,
		"",
		"Classification:",
		"Priority: " + string(priority),
		"Category: " + string(category),
	}
	if s := strings.TrimSpace(subject); s != "" {
		lines = append(lines, "", "Context:", "Subject: "+s)
	}
	return strings.Join(lines, "\n")
}
