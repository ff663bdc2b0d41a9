package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/events"
	"github.com/spec-kit/ticket-triage/internal/observability"
	"github.com/spec-kit/ticket-triage/internal/repository"
	"github.com/spec-kit/ticket-triage/internal/triage"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

// Error codes returned by TicketService.
const (
	CodeTicketsListFailed  = "TICKETS_LIST_FAILED"
	CodeTicketCreateFailed = "TICKET_CREATE_FAILED"
	CodeTicketFetchFailed  = "TICKET_FETCH_FAILED"
	CodeTicketNotFound     = "TICKET_NOT_FOUND"
	CodeTicketUpdateFailed = "TICKET_UPDATE_FAILED"
)

// Triager runs ticket triage. *triage.Pipeline implements it.
type Triager interface {
	Run(ctx context.Context, in triage.Input) triage.Outcome
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	attempts   repository.TriageAttemptRepository
	triager    Triager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	AttemptRepo repository.TriageAttemptRepository
	Triager     Triager
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// TicketDetail is a ticket with its triage history, newest first.
type TicketDetail struct {
	Ticket   *domain.Ticket
	Attempts []domain.TriageAttempt
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		attempts:   deps.AttemptRepo,
		triager:    deps.Triager,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
		now:        time.Now,
	}
}

// ListTickets returns all tickets, newest first.
func (s *TicketService) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx)
	if err != nil {
		s.logger.Error("ticket list failed", zap.Error(err))
		return nil, apperrors.Wrap(CodeTicketsListFailed, "Failed to fetch tickets.", http.StatusInternalServerError, err)
	}
	return tickets, nil
}

// CreateTicket validates the input, triages it and stores the ticket.
// Triage failures are recorded on the ticket, never returned.
func (s *TicketService) CreateTicket(ctx context.Context, input NewTicketInput) (*domain.Ticket, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	in := input.Normalize()

	outcome := s.triager.Run(ctx, triage.Input{Subject: in.Subject, Description: in.Description})

	ticket := &domain.Ticket{
		CustomerName:      in.CustomerName,
		Email:             in.Email,
		Subject:           in.Subject,
		Description:       in.Description,
		Priority:          outcome.Priority,
		Category:          outcome.Category,
		SuggestedResponse: strings.TrimSpace(outcome.SuggestedResponse),
		TriageStatus:      outcome.Status,
		TriageError:       outcome.Error,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		s.logger.Error("ticket create failed", zap.Error(err))
		return nil, apperrors.Wrap(CodeTicketCreateFailed, "Failed to create ticket.", http.StatusInternalServerError, err)
	}

	s.afterTriage(ctx, ticket, domain.TriageTriggerCreate, outcome)
	return ticket, nil
}

// RetryTriage re-runs triage for a stored ticket, keeping its current values
// wherever a step fails, and updates it in place.
func (s *TicketService) RetryTriage(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	existing, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	outcome := s.triager.Run(ctx, triage.Input{
		Subject:     existing.Subject,
		Description: existing.Description,
		Defaults: &triage.Defaults{
			Priority:          existing.Priority,
			Category:          existing.Category,
			SuggestedResponse: existing.SuggestedResponse,
		},
	})

	updated, err := s.tickets.UpdateTriage(ctx, existing.ID, repository.TriageUpdate{
		Priority:          outcome.Priority,
		Category:          outcome.Category,
		SuggestedResponse: strings.TrimSpace(outcome.SuggestedResponse),
		TriageStatus:      outcome.Status,
		TriageError:       outcome.Error,
	})
	if err != nil {
		s.logger.Error("ticket triage update failed", zap.String("ticket_id", existing.ID), zap.Error(err))
		return nil, apperrors.Wrap(CodeTicketUpdateFailed, "Failed to update ticket triage.", http.StatusInternalServerError, err)
	}

	s.afterTriage(ctx, updated, domain.TriageTriggerRetry, outcome)
	return updated, nil
}

// GetTicket returns a ticket and its triage attempts.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*TicketDetail, error) {
	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	detail := &TicketDetail{Ticket: ticket, Attempts: []domain.TriageAttempt{}}
	if s.attempts == nil {
		return detail, nil
	}
	attempts, err := s.attempts.ListByTicket(ctx, ticket.ID)
	if err != nil {
		s.logger.Error("triage attempts fetch failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return nil, apperrors.Wrap(CodeTicketFetchFailed, "Failed to fetch ticket.", http.StatusInternalServerError, err)
	}
	detail.Attempts = attempts
	return detail, nil
}

func (s *TicketService) fetch(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return nil, apperrors.NewValidationError("Ticket ID is required.", nil)
	}
	if _, err := uuid.Parse(ticketID); err != nil {
		return nil, notFound()
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound()
	}
	if err != nil {
		s.logger.Error("ticket fetch failed", zap.String("ticket_id", ticketID), zap.Error(err))
		return nil, apperrors.Wrap(CodeTicketFetchFailed, "Failed to fetch ticket.", http.StatusInternalServerError, err)
	}
	return ticket, nil
}

// afterTriage records metrics, the audit row and the domain event. None of it can fail the request.
func (s *TicketService) afterTriage(ctx context.Context, ticket *domain.Ticket, trigger domain.TriageTrigger, outcome triage.Outcome) {
	errCode := ""
	if outcome.Error != nil {
		errCode = *outcome.Error
	}
	s.metrics.RecordTriage(string(trigger), string(outcome.Status), errCode, outcome.Duration)

	if s.attempts != nil {
		attempt := &domain.TriageAttempt{
			TicketID:     ticket.ID,
			Trigger:      trigger,
			TriageStatus: outcome.Status,
			TriageError:  outcome.Error,
			Priority:     outcome.Priority,
			Category:     outcome.Category,
			DurationMS:   outcome.Duration.Milliseconds(),
		}
		if err := s.attempts.Create(ctx, attempt); err != nil {
			s.logger.Warn("triage attempt not recorded", zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}

	eventType := events.EventTicketCreated
	if trigger == domain.TriageTriggerRetry {
		eventType = events.EventTicketTriageRetried
	}
	s.publishEvent(ctx, events.Event{
		Type:     eventType,
		TicketID: ticket.ID,
		Payload: events.TicketTriagedPayload{
			Trigger:      trigger,
			Subject:      ticket.Subject,
			Priority:     ticket.Priority,
			Category:     ticket.Category,
			TriageStatus: ticket.TriageStatus,
			TriageError:  ticket.TriageError,
		},
	})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now().UTC()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func notFound() error {
	return apperrors.NewDomainError(CodeTicketNotFound, "Ticket not found.", http.StatusNotFound, nil)
}
