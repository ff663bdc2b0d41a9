package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/config"
	"github.com/spec-kit/ticket-triage/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketTriaged)
	n.dispatcher.Subscribe(events.EventTicketTriageRetried, n.handleTicketTriaged)
}

func (n *NotificationService) handleTicketTriaged(ctx context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
	}
	if payload, ok := event.Payload.(events.TicketTriagedPayload); ok {
		fields = append(fields,
			zap.String("priority", string(payload.Priority)),
			zap.String("category", string(payload.Category)),
			zap.String("triage_status", string(payload.TriageStatus)))
		if payload.TriageError != nil {
			n.logger.Warn("ticket triage needs attention", append(fields, zap.String("triage_error", *payload.TriageError))...)
		}
	}
	n.logger.Info("ticket event", fields...)
	return n.sendWebhook(ctx, event)
}

func (n *NotificationService) sendWebhook(_ context.Context, event events.Event) error {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return nil
	}

	agent := fiber.Post(n.cfg.WebhookURL)
	if n.cfg.WebhookTimeoutSeconds > 0 {
		agent.Timeout(time.Duration(n.cfg.WebhookTimeoutSeconds) * time.Second)
	}
	agent.JSON(event)
	if err := agent.Parse(); err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}

	code, _, errs := agent.Bytes()
	if len(errs) > 0 {
		err := errors.Join(errs...)
		n.logger.Warn("webhook delivery failed", zap.String("ticket_id", event.TicketID), zap.Error(err))
		return fmt.Errorf("webhook delivery: %w", err)
	}
	if code >= 300 {
		n.logger.Warn("webhook rejected event", zap.String("ticket_id", event.TicketID), zap.Int("status", code))
		return fmt.Errorf("webhook delivery: status %d", code)
	}
	n.logger.Debug("webhook delivered", zap.String("ticket_id", event.TicketID), zap.Int("status", code))
	return nil
}
