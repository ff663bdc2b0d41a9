package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// TriageUpdate carries the fields a triage retry may change.
type TriageUpdate struct {
	Priority          domain.TicketPriority
	Category          domain.TicketCategory
	SuggestedResponse string
	TriageStatus      domain.TriageStatus
	TriageError       *string
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	List(ctx context.Context) ([]domain.Ticket, error)
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	UpdateTriage(ctx context.Context, id string, update TriageUpdate) (*domain.Ticket, error)
}

const ticketColumns = `id::text, created_at, customer_name, email, subject, description,
               priority, category, suggested_response, triage_status, triage_error`

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) List(ctx context.Context) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (customer_name, email, subject, description, priority, category,
                             suggested_response, triage_status, triage_error)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id::text, created_at`
	return r.pool.QueryRow(ctx, query,
		ticket.CustomerName,
		ticket.Email,
		ticket.Subject,
		ticket.Description,
		string(ticket.Priority),
		string(ticket.Category),
		ticket.SuggestedResponse,
		string(ticket.TriageStatus),
		ticket.TriageError,
	).Scan(&ticket.ID, &ticket.CreatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1::uuid`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) UpdateTriage(ctx context.Context, id string, update TriageUpdate) (*domain.Ticket, error) {
	query := `
        UPDATE tickets SET priority=$1, category=$2, suggested_response=$3, triage_status=$4, triage_error=$5
        WHERE id=$6::uuid
        RETURNING ` + ticketColumns
	return scanTicket(r.pool.QueryRow(ctx, query,
		string(update.Priority),
		string(update.Category),
		update.SuggestedResponse,
		string(update.TriageStatus),
		update.TriageError,
		id,
	))
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(ticketScanTargets(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(ticketScanTargets(&ticket)...); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func ticketScanTargets(ticket *domain.Ticket) []any {
	return []any{
		&ticket.ID,
		&ticket.CreatedAt,
		&ticket.CustomerName,
		&ticket.Email,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Category,
		&ticket.SuggestedResponse,
		&ticket.TriageStatus,
		&ticket.TriageError,
	}
}
