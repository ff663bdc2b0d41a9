package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-triage/internal/api/dto"
	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/service"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

// TicketService is the part of *service.TicketService the HTTP layer uses.
type TicketService interface {
	ListTickets(ctx context.Context) ([]domain.Ticket, error)
	CreateTicket(ctx context.Context, input service.NewTicketInput) (*domain.Ticket, error)
	RetryTriage(ctx context.Context, ticketID string) (*domain.Ticket, error)
	GetTicket(ctx context.Context, ticketID string) (*service.TicketDetail, error)
}

// TicketsHandler serves the JSON ticket API.
type TicketsHandler struct {
	service TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.service.ListTickets(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketListResponse(tickets))
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	req, err := parseCreateTicketRequest(c.Body())
	if err != nil {
		return err
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), service.NewTicketInput{
		CustomerName: req.CustomerName,
		Email:        req.Email,
		Subject:      req.Subject,
		Description:  req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.TicketEnvelope{Ticket: dto.NewTicketResponse(ticket)})
}

// RetryTriage POST /api/tickets/:id/retry-triage.
func (h *TicketsHandler) RetryTriage(c *fiber.Ctx) error {
	ticket, err := h.service.RetryTriage(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketEnvelope{Ticket: dto.NewTicketResponse(ticket)})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	detail, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketDetailResponse{
		Ticket:         dto.NewTicketResponse(detail.Ticket),
		TriageAttempts: dto.NewTriageAttemptResponses(detail.Attempts),
	})
}

// parseCreateTicketRequest decodes the body loosely: fields that are absent
// or not strings read as empty and are reported by validation.
func parseCreateTicketRequest(body []byte) (dto.CreateTicketRequest, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return dto.CreateTicketRequest{}, apperrors.NewInvalidJSON()
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return dto.CreateTicketRequest{}, apperrors.NewValidationError("Request body must be an object.", nil)
	}
	return dto.CreateTicketRequest{
		CustomerName: stringField(obj, "customerName"),
		Email:        stringField(obj, "email"),
		Subject:      stringField(obj, "subject"),
		Description:  stringField(obj, "description"),
	}, nil
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}
