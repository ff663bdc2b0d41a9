package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/llm"
)

// Classification is the classifier's answer.
type Classification struct {
	Priority domain.TicketPriority
	Category domain.TicketCategory
}

// Classifier assigns a priority and category to a ticket.
type Classifier interface {
	Classify(ctx context.Context, subject, description string) (Classification, error)
}

// Drafter writes the suggested customer-facing reply.
type Drafter interface {
	DraftReply(ctx context.Context, c Classification, subject string) (string, error)
}

type classificationSchema struct {
	Priority string `json:"priority" jsonschema:"enum=Critical,enum=High,enum=Medium,enum=Low"`
	Category string `json:"category" jsonschema:"enum=Billing,enum=Technical,enum=Account,enum=General"`
}

type customerReplySchema struct {
	CustomerMessage string `json:"customerMessage" jsonschema:"minLength=1"`
}

// LLMTriager implements Classifier and Drafter on top of an llm.Client.
type LLMTriager struct {
	client              llm.Client
	classifyTemperature float64
	draftTemperature    float64
	classifySchema      any
	replySchema         any
}

// NewLLMTriager builds a triager with the given sampling temperatures.
func NewLLMTriager(client llm.Client, classifyTemperature, draftTemperature float64) *LLMTriager {
	return &LLMTriager{
		client:              client,
		classifyTemperature: classifyTemperature,
		draftTemperature:    draftTemperature,
		classifySchema:      llm.GenerateSchema[classificationSchema](),
		replySchema:         llm.GenerateSchema[customerReplySchema](),
	}
}

// Classify asks the model for a priority and category and rejects values outside the enums.
func (t *LLMTriager) Classify(ctx context.Context, subject, description string) (Classification, error) {
	var out classificationSchema
	_, err := t.client.Generate(ctx, llm.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   BuildClassificationPrompt(subject, description),
		SchemaName:   "ticket_classification",
		Schema:       t.classifySchema,
		Temperature:  llm.Temp(t.classifyTemperature),
	}, &out)
	if err != nil {
		return Classification{}, err
	}

	priority, err := domain.ParsePriority(strings.TrimSpace(out.Priority))
	if err != nil {
		return Classification{}, fmt.Errorf("classifier answer: %w", err)
	}
	category, err := domain.ParseCategory(strings.TrimSpace(out.Category))
	if err != nil {
		return Classification{}, fmt.Errorf("classifier answer: %w", err)
	}
	return Classification{Priority: priority, Category: category}, nil
}

// DraftReply asks the model for a customer message. An empty message is an error.
func (t *LLMTriager) DraftReply(ctx context.Context, c Classification, subject string) (string, error) {
	var out customerReplySchema
	_, err := t.client.Generate(ctx, llm.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   BuildCustomerReplyPrompt(c.Priority, c.Category, subject),
		SchemaName:   "customer_reply",
		Schema:       t.replySchema,
		Temperature:  llm.Temp(t.draftTemperature),
	}, &out)
	if err != nil {
		return "", err
	}
	msg := strings.TrimSpace(out.CustomerMessage)
	if msg == "" {
		return "", errors.New("drafter answer: empty customerMessage")
	}
	return msg, nil
}
