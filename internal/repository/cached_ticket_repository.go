package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

const (
	ticketListGenerationKey = "tickets:list:gen"
	ticketListKeyPrefix     = "tickets:list:"
)

// ticketListKey names the cached list for a generation. Writes bump the
// generation, so a list read before a write lands under a key nobody reads.
func ticketListKey(gen int64) string {
	return ticketListKeyPrefix + strconv.FormatInt(gen, 10)
}

type cachedTicketRepository struct {
	TicketRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedTicketRepository caches List in Redis for ttl and drops the cached
// list whenever a ticket is written. Redis failures fall through to next.
func NewCachedTicketRepository(next TicketRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) TicketRepository {
	if client == nil || ttl <= 0 {
		return next
	}
	return &cachedTicketRepository{TicketRepository: next, client: client, ttl: ttl, logger: logger}
}

func (r *cachedTicketRepository) List(ctx context.Context) ([]domain.Ticket, error) {
	gen, err := r.client.Get(ctx, ticketListGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		r.logger.Warn("ticket list cache generation read failed", zap.Error(err))
		return r.TicketRepository.List(ctx)
	}
	key := ticketListKey(gen)

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []domain.Ticket
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return cached, nil
		}
		r.logger.Warn("discarding undecodable ticket list cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("ticket list cache read failed", zap.Error(err))
	}

	tickets, err := r.TicketRepository.List(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(tickets); err == nil {
		if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
			r.logger.Warn("ticket list cache write failed", zap.Error(err))
		}
	}
	return tickets, nil
}

func (r *cachedTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if err := r.TicketRepository.Create(ctx, ticket); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *cachedTicketRepository) UpdateTriage(ctx context.Context, id string, update TriageUpdate) (*domain.Ticket, error) {
	ticket, err := r.TicketRepository.UpdateTriage(ctx, id, update)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return ticket, nil
}

func (r *cachedTicketRepository) invalidate(ctx context.Context) {
	if err := r.client.Incr(ctx, ticketListGenerationKey).Err(); err != nil {
		r.logger.Warn("ticket list cache invalidation failed", zap.Error(err))
	}
}
