package domain

import "time"

// TriageTrigger identifies what started a triage run.
type TriageTrigger string

const (
	TriageTriggerCreate TriageTrigger = "create"
	TriageTriggerRetry  TriageTrigger = "retry"
)

// TriageAttempt is an append-only record of one triage run for a ticket.
type TriageAttempt struct {
	ID           string
	TicketID     string
	Trigger      TriageTrigger
	TriageStatus TriageStatus
	TriageError  *string
	Priority     TicketPriority
	Category     TicketCategory
	DurationMS   int64
	CreatedAt    time.Time
}
