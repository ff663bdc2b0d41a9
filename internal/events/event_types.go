package events

import (
	"time"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketTriageRetried EventType = "ticket_triage_retried"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketTriagedPayload describes the triage outcome carried by ticket events.
type TicketTriagedPayload struct {
	Trigger      domain.TriageTrigger  `json:"trigger"`
	Subject      string                `json:"subject"`
	Priority     domain.TicketPriority `json:"priority"`
	Category     domain.TicketCategory `json:"category"`
	TriageStatus domain.TriageStatus   `json:"triage_status"`
	TriageError  *string               `json:"triage_error,omitempty"`
}
