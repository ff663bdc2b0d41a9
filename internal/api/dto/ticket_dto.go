package dto

import (
	"time"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CustomerName string `json:"customerName"`
	Email        string `json:"email"`
	Subject      string `json:"subject"`
	Description  string `json:"description"`
}

// TicketResponse is the wire shape of a ticket.
type TicketResponse struct {
	ID                string                `json:"id"`
	CreatedAt         time.Time             `json:"createdAt"`
	CustomerName      string                `json:"customerName"`
	Email             string                `json:"email"`
	Subject           string                `json:"subject"`
	Description       string                `json:"description"`
	Priority          domain.TicketPriority `json:"priority"`
	Category          domain.TicketCategory `json:"category"`
	SuggestedResponse string                `json:"suggestedResponse"`
	TriageStatus      domain.TriageStatus   `json:"triageStatus"`
	TriageError       *string               `json:"triageError"`
}

// TriageAttemptResponse is one entry of a ticket's triage history.
type TriageAttemptResponse struct {
	ID           string                `json:"id"`
	Trigger      domain.TriageTrigger  `json:"trigger"`
	TriageStatus domain.TriageStatus   `json:"triageStatus"`
	TriageError  *string               `json:"triageError"`
	Priority     domain.TicketPriority `json:"priority"`
	Category     domain.TicketCategory `json:"category"`
	DurationMS   int64                 `json:"durationMs"`
	CreatedAt    time.Time             `json:"createdAt"`
}

// TicketListResponse wraps GET /api/tickets.
type TicketListResponse struct {
	Tickets []TicketResponse `json:"tickets"`
}

// TicketEnvelope wraps single-ticket responses.
type TicketEnvelope struct {
	Ticket TicketResponse `json:"ticket"`
}

// TicketDetailResponse wraps GET /api/tickets/:id.
type TicketDetailResponse struct {
	Ticket         TicketResponse          `json:"ticket"`
	TriageAttempts []TriageAttemptResponse `json:"triageAttempts"`
}

// NewTicketResponse maps a domain ticket to its wire shape.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:                t.ID,
		CreatedAt:         t.CreatedAt,
		CustomerName:      t.CustomerName,
		Email:             t.Email,
		Subject:           t.Subject,
		Description:       t.Description,
		Priority:          t.Priority,
		Category:          t.Category,
		SuggestedResponse: t.SuggestedResponse,
		TriageStatus:      t.TriageStatus,
		TriageError:       t.TriageError,
	}
}

// NewTicketListResponse maps tickets, keeping order. Never renders null.
func NewTicketListResponse(tickets []domain.Ticket) TicketListResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketResponse(&tickets[i]))
	}
	return TicketListResponse{Tickets: items}
}

// NewTriageAttemptResponses maps attempts, keeping order.
func NewTriageAttemptResponses(attempts []domain.TriageAttempt) []TriageAttemptResponse {
	resp := make([]TriageAttemptResponse, 0, len(attempts))
	for _, a := range attempts {
		resp = append(resp, TriageAttemptResponse{
			ID:           a.ID,
			Trigger:      a.Trigger,
			TriageStatus: a.TriageStatus,
			TriageError:  a.TriageError,
			Priority:     a.Priority,
			Category:     a.Category,
			DurationMS:   a.DurationMS,
			CreatedAt:    a.CreatedAt,
		})
	}
	return resp
}
