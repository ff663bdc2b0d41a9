package domain

import (
	"fmt"
	"time"
)

// TicketPriority is the urgency assigned by triage.
type TicketPriority string

const (
	TicketPriorityCritical TicketPriority = "Critical"
	TicketPriorityHigh     TicketPriority = "High"
	TicketPriorityMedium   TicketPriority = "Medium"
	TicketPriorityLow      TicketPriority = "Low"
)

// Priorities lists every priority, most urgent first.
var Priorities = []TicketPriority{
	TicketPriorityCritical,
	TicketPriorityHigh,
	TicketPriorityMedium,
	TicketPriorityLow,
}

// TicketCategory is the area a ticket belongs to.
type TicketCategory string

const (
	TicketCategoryBilling   TicketCategory = "Billing"
	TicketCategoryTechnical TicketCategory = "Technical"
	TicketCategoryAccount   TicketCategory = "Account"
	TicketCategoryGeneral   TicketCategory = "General"
)

// Categories lists every category.
var Categories = []TicketCategory{
	TicketCategoryBilling,
	TicketCategoryTechnical,
	TicketCategoryAccount,
	TicketCategoryGeneral,
}

// TriageStatus records whether both triage steps succeeded.
type TriageStatus string

const (
	TriageStatusSucceeded TriageStatus = "succeeded"
	TriageStatusFailed    TriageStatus = "failed"
)

// Triage error codes persisted on the ticket.
const (
	TriageErrorClassification            = "LLM_CLASSIFICATION_FAILED"
	TriageErrorResponse                  = "LLM_RESPONSE_FAILED"
	TriageErrorClassificationAndResponse = "LLM_CLASSIFICATION_AND_RESPONSE_FAILED"
)

// Values used when the classifier or drafter cannot produce one.
const (
	DefaultPriority = TicketPriorityLow
	DefaultCategory = TicketCategoryGeneral

	FallbackSuggestedResponse = "Thanks for reaching out. We've received your request and our team will review it. If you can share any additional details, we'll be able to help faster."
)

// Ticket is a customer support request together with its triage outcome.
type Ticket struct {
	ID                string
	CreatedAt         time.Time
	CustomerName      string
	Email             string
	Subject           string
	Description       string
	Priority          TicketPriority
	Category          TicketCategory
	SuggestedResponse string
	TriageStatus      TriageStatus
	TriageError       *string
}

// TriageFailed reports whether the last triage run failed.
func (t *Ticket) TriageFailed() bool {
	return t.TriageStatus == TriageStatusFailed
}

// ParsePriority validates a raw priority value.
func ParsePriority(raw string) (TicketPriority, error) {
	for _, p := range Priorities {
		if string(p) == raw {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown priority %q", raw)
}

// ParseCategory validates a raw category value.
func ParseCategory(raw string) (TicketCategory, error) {
	for _, c := range Categories {
		if string(c) == raw {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", raw)
}
