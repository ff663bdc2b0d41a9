package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/service"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.New("pages").Funcs(template.FuncMap{
	"displayPriority": displayPriority,
}).ParseFS(templateFS, "templates/*.html"))

// Critical tickets are shown to the customer as High and flagged as escalated.
func displayPriority(p domain.TicketPriority) domain.TicketPriority {
	if p == domain.TicketPriorityCritical {
		return domain.TicketPriorityHigh
	}
	return p
}

type submitForm struct {
	CustomerName string
	Email        string
	Subject      string
	Description  string
}

type submitPage struct {
	Title          string
	RefreshSeconds int
	Form           submitForm
	Created        *domain.Ticket
	Error          string
}

type dashboardPage struct {
	Title          string
	RefreshSeconds int
	Tickets        []domain.Ticket
	Total          int
	Failed         int
	Flash          string
	FlashFailed    bool
	Error          string
}

// PagesHandler serves the server-rendered submission form and dashboard.
type PagesHandler struct {
	service     TicketService
	logger      *zap.Logger
	pollSeconds int
}

// NewPagesHandler constructs handler. pollSeconds controls dashboard auto-refresh.
func NewPagesHandler(ticketService TicketService, logger *zap.Logger, pollSeconds int) *PagesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PagesHandler{service: ticketService, logger: logger, pollSeconds: pollSeconds}
}

// SubmitForm GET /.
func (h *PagesHandler) SubmitForm(c *fiber.Ctx) error {
	return h.render(c, http.StatusOK, "submit.html", submitPage{Title: "New support ticket"})
}

// Submit POST /.
func (h *PagesHandler) Submit(c *fiber.Ctx) error {
	form := submitForm{
		CustomerName: c.FormValue("customerName"),
		Email:        c.FormValue("email"),
		Subject:      c.FormValue("subject"),
		Description:  c.FormValue("description"),
	}
	page := submitPage{Title: "New support ticket"}

	ticket, err := h.service.CreateTicket(c.UserContext(), service.NewTicketInput(form))
	if err != nil {
		domainErr := apperrors.ToDomainError(err)
		page.Form = form
		page.Error = domainErr.Message
		return h.render(c, domainErr.HTTPStatus, "submit.html", page)
	}

	page.Created = ticket
	return h.render(c, http.StatusOK, "submit.html", page)
}

// Dashboard GET /dashboard.
func (h *PagesHandler) Dashboard(c *fiber.Ctx) error {
	page := dashboardPage{
		Title:          "Tickets dashboard",
		RefreshSeconds: h.pollSeconds,
		Flash:          c.Query("flash"),
		FlashFailed:    c.Query("flashStatus") == "error",
	}

	tickets, err := h.service.ListTickets(c.UserContext())
	if err != nil {
		domainErr := apperrors.ToDomainError(err)
		page.Error = domainErr.Message
		return h.render(c, domainErr.HTTPStatus, "dashboard.html", page)
	}

	page.Tickets = tickets
	page.Total = len(tickets)
	for i := range tickets {
		if tickets[i].TriageFailed() {
			page.Failed++
		}
	}
	return h.render(c, http.StatusOK, "dashboard.html", page)
}

// RetryTriage POST /dashboard/tickets/:id/retry. Always redirects back to the dashboard.
func (h *PagesHandler) RetryTriage(c *fiber.Ctx) error {
	query := url.Values{}
	ticket, err := h.service.RetryTriage(c.UserContext(), c.Params("id"))
	switch {
	case err != nil:
		query.Set("flash", apperrors.ToDomainError(err).Message)
		query.Set("flashStatus", "error")
	case ticket.TriageFailed():
		query.Set("flash", "Triage retried but failed again ("+derefString(ticket.TriageError)+").")
		query.Set("flashStatus", "error")
	default:
		query.Set("flash", "Triage succeeded: "+string(ticket.Priority)+" / "+string(ticket.Category)+".")
	}
	return c.Redirect("/dashboard?"+query.Encode(), http.StatusSeeOther)
}

func (h *PagesHandler) render(c *fiber.Ctx, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("template render failed", zap.String("template", name), zap.Error(err))
		return apperrors.NewInternalError(err)
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
