package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// TriageAttemptRepository stores the triage audit trail.
type TriageAttemptRepository interface {
	Create(ctx context.Context, attempt *domain.TriageAttempt) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TriageAttempt, error)
}

type triageAttemptRepository struct {
	pool *pgxpool.Pool
}

// NewTriageAttemptRepository builds repository.
func NewTriageAttemptRepository(pool *pgxpool.Pool) TriageAttemptRepository {
	return &triageAttemptRepository{pool: pool}
}

func (r *triageAttemptRepository) Create(ctx context.Context, attempt *domain.TriageAttempt) error {
	const query = `
        INSERT INTO ticket_triage_attempts (ticket_id, trigger, triage_status, triage_error, priority, category, duration_ms)
        VALUES ($1::uuid,$2,$3,$4,$5,$6,$7)
        RETURNING id::text, created_at`
	return r.pool.QueryRow(ctx, query,
		attempt.TicketID,
		string(attempt.Trigger),
		string(attempt.TriageStatus),
		attempt.TriageError,
		string(attempt.Priority),
		string(attempt.Category),
		attempt.DurationMS,
	).Scan(&attempt.ID, &attempt.CreatedAt)
}

func (r *triageAttemptRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TriageAttempt, error) {
	const query = `
        SELECT id::text, ticket_id::text, trigger, triage_status, triage_error, priority, category, duration_ms, created_at
        FROM ticket_triage_attempts WHERE ticket_id=$1::uuid ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.TriageAttempt{}
	for rows.Next() {
		var attempt domain.TriageAttempt
		if err := rows.Scan(
			&attempt.ID,
			&attempt.TicketID,
			&attempt.Trigger,
			&attempt.TriageStatus,
			&attempt.TriageError,
			&attempt.Priority,
			&attempt.Category,
			&attempt.DurationMS,
			&attempt.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, attempt)
	}
	return result, rows.Err()
}
