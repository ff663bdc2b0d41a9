package service_test

import (
	"context"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/repository"
	"github.com/spec-kit/ticket-triage/internal/triage"
)

type mockTicketRepo struct {
	listFn         func(ctx context.Context) ([]domain.Ticket, error)
	createFn       func(ctx context.Context, ticket *domain.Ticket) error
	getByIDFn      func(ctx context.Context, id string) (*domain.Ticket, error)
	updateTriageFn func(ctx context.Context, id string, update repository.TriageUpdate) (*domain.Ticket, error)
}

func (m *mockTicketRepo) List(ctx context.Context) ([]domain.Ticket, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []domain.Ticket{}, nil
}

func (m *mockTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	if m.createFn != nil {
		return m.createFn(ctx, ticket)
	}
	ticket.ID = "00000000-0000-0000-0000-000000000001"
	return nil
}

func (m *mockTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockTicketRepo) UpdateTriage(ctx context.Context, id string, update repository.TriageUpdate) (*domain.Ticket, error) {
	if m.updateTriageFn != nil {
		return m.updateTriageFn(ctx, id, update)
	}
	return nil, nil
}

type mockAttemptRepo struct {
	createFn       func(ctx context.Context, attempt *domain.TriageAttempt) error
	listByTicketFn func(ctx context.Context, ticketID string) ([]domain.TriageAttempt, error)
}

func (m *mockAttemptRepo) Create(ctx context.Context, attempt *domain.TriageAttempt) error {
	if m.createFn != nil {
		return m.createFn(ctx, attempt)
	}
	return nil
}

func (m *mockAttemptRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.TriageAttempt, error) {
	if m.listByTicketFn != nil {
		return m.listByTicketFn(ctx, ticketID)
	}
	return []domain.TriageAttempt{}, nil
}

type mockTriager struct {
	runFn func(ctx context.Context, in triage.Input) triage.Outcome
}

func (m *mockTriager) Run(ctx context.Context, in triage.Input) triage.Outcome {
	if m.runFn != nil {
		return m.runFn(ctx, in)
	}
	return triage.Outcome{
		Priority:          domain.TicketPriorityHigh,
		Category:          domain.TicketCategoryBilling,
		SuggestedResponse: "We are on it.",
		Status:            domain.TriageStatusSucceeded,
	}
}
