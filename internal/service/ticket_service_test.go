package service_test

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/events"
	"github.com/spec-kit/ticket-triage/internal/observability"
	"github.com/spec-kit/ticket-triage/internal/repository"
	"github.com/spec-kit/ticket-triage/internal/service"
	"github.com/spec-kit/ticket-triage/internal/triage"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

const ticketID = "7b0c5a3e-2f1d-4c8b-9e6a-1d2c3b4a5f60"

func expectDomainError(err error, code string, status int) *apperrors.DomainError {
	var domainErr *apperrors.DomainError
	ExpectWithOffset(1, errors.As(err, &domainErr)).To(BeTrue(), "expected DomainError, got %v", err)
	ExpectWithOffset(1, domainErr.Code).To(Equal(code))
	ExpectWithOffset(1, domainErr.HTTPStatus).To(Equal(status))
	return domainErr
}

func strPtr(s string) *string { return &s }

var _ = Describe("TicketService", func() {
	var (
		ctx        context.Context
		tickets    *mockTicketRepo
		attempts   *mockAttemptRepo
		triager    *mockTriager
		dispatcher events.Dispatcher
		published  []events.Event
		metrics    *observability.Metrics
		svc        *service.TicketService
		validInput service.NewTicketInput
	)

	BeforeEach(func() {
		ctx = context.Background()
		tickets = &mockTicketRepo{}
		attempts = &mockAttemptRepo{}
		triager = &mockTriager{}
		published = nil
		dispatcher = events.NewInMemoryDispatcher()
		record := func(_ context.Context, e events.Event) error {
			published = append(published, e)
			return nil
		}
		dispatcher.Subscribe(events.EventTicketCreated, record)
		dispatcher.Subscribe(events.EventTicketTriageRetried, record)
		metrics = observability.NewMetrics(prometheus.NewRegistry())

		svc = service.NewTicketService(service.TicketDependencies{
			TicketRepo:  tickets,
			AttemptRepo: attempts,
			Triager:     triager,
			Dispatcher:  dispatcher,
			Logger:      zap.NewNop(),
			Metrics:     metrics,
		})

		validInput = service.NewTicketInput{
			CustomerName: "  Ada Lovelace ",
			Email:        " ada@example.com ",
			Subject:      " Double charge ",
			Description:  " I was charged twice this month. ",
		}
	})

	Describe("ListTickets", func() {
		It("returns the repository rows", func() {
			tickets.listFn = func(context.Context) ([]domain.Ticket, error) {
				return []domain.Ticket{{ID: "a"}, {ID: "b"}}, nil
			}

			got, err := svc.ListTickets(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(2))
		})

		It("maps repository failures to TICKETS_LIST_FAILED", func() {
			tickets.listFn = func(context.Context) ([]domain.Ticket, error) {
				return nil, errors.New("connection refused")
			}

			_, err := svc.ListTickets(ctx)

			domainErr := expectDomainError(err, service.CodeTicketsListFailed, http.StatusInternalServerError)
			Expect(domainErr.Message).To(Equal("Failed to fetch tickets."))
		})
	})

	Describe("CreateTicket", func() {
		DescribeTable("rejects invalid input before triage",
			func(mutate func(*service.NewTicketInput), message string) {
				triager.runFn = func(context.Context, triage.Input) triage.Outcome {
					Fail("triage must not run for invalid input")
					return triage.Outcome{}
				}
				in := validInput
				mutate(&in)

				_, err := svc.CreateTicket(ctx, in)

				domainErr := expectDomainError(err, apperrors.CodeValidation, http.StatusBadRequest)
				Expect(domainErr.Message).To(Equal(message))
			},
			Entry("blank name", func(in *service.NewTicketInput) { in.CustomerName = "   " }, "Customer name is required."),
			Entry("blank email", func(in *service.NewTicketInput) { in.Email = "" }, "Email is required."),
			Entry("blank subject", func(in *service.NewTicketInput) { in.Subject = "\t" }, "Subject is required."),
			Entry("blank description", func(in *service.NewTicketInput) { in.Description = "" }, "Description is required."),
			Entry("malformed email", func(in *service.NewTicketInput) { in.Email = "ada@example" }, "Email must be a valid email address."),
			Entry("name checked before email", func(in *service.NewTicketInput) {
				in.CustomerName = ""
				in.Email = "not-an-email"
			}, "Customer name is required."),
		)

		It("trims fields, stores the triage outcome and records an attempt", func() {
			var stored *domain.Ticket
			tickets.createFn = func(_ context.Context, t *domain.Ticket) error {
				t.ID = ticketID
				stored = t
				return nil
			}
			var recorded *domain.TriageAttempt
			attempts.createFn = func(_ context.Context, a *domain.TriageAttempt) error {
				recorded = a
				return nil
			}
			var seen triage.Input
			triager.runFn = func(_ context.Context, in triage.Input) triage.Outcome {
				seen = in
				return triage.Outcome{
					Priority:          domain.TicketPriorityHigh,
					Category:          domain.TicketCategoryBilling,
					SuggestedResponse: "  We are looking into the charge.\n",
					Status:            domain.TriageStatusSucceeded,
				}
			}

			ticket, err := svc.CreateTicket(ctx, validInput)

			Expect(err).NotTo(HaveOccurred())
			Expect(seen.Subject).To(Equal("Double charge"))
			Expect(seen.Description).To(Equal("I was charged twice this month."))
			Expect(seen.Defaults).To(BeNil())

			Expect(stored).To(BeIdenticalTo(ticket))
			Expect(ticket.CustomerName).To(Equal("Ada Lovelace"))
			Expect(ticket.Email).To(Equal("ada@example.com"))
			Expect(ticket.Priority).To(Equal(domain.TicketPriorityHigh))
			Expect(ticket.Category).To(Equal(domain.TicketCategoryBilling))
			Expect(ticket.SuggestedResponse).To(Equal("We are looking into the charge."))
			Expect(ticket.TriageStatus).To(Equal(domain.TriageStatusSucceeded))
			Expect(ticket.TriageError).To(BeNil())

			Expect(recorded).NotTo(BeNil())
			Expect(recorded.TicketID).To(Equal(ticketID))
			Expect(recorded.Trigger).To(Equal(domain.TriageTriggerCreate))

			Expect(published).To(HaveLen(1))
			Expect(published[0].Type).To(Equal(events.EventTicketCreated))
			Expect(published[0].TicketID).To(Equal(ticketID))
			Expect(published[0].ID).NotTo(BeEmpty())

			Expect(testutil.ToFloat64(metrics.TriagesTotal.WithLabelValues("create", "succeeded", "none"))).To(Equal(1.0))
		})

		It("persists a failed triage instead of returning an error", func() {
			triager.runFn = func(context.Context, triage.Input) triage.Outcome {
				return triage.Outcome{
					Priority:          domain.DefaultPriority,
					Category:          domain.DefaultCategory,
					SuggestedResponse: domain.FallbackSuggestedResponse,
					Status:            domain.TriageStatusFailed,
					Error:             strPtr(domain.TriageErrorClassificationAndResponse),
				}
			}

			ticket, err := svc.CreateTicket(ctx, validInput)

			Expect(err).NotTo(HaveOccurred())
			Expect(ticket.TriageFailed()).To(BeTrue())
			Expect(*ticket.TriageError).To(Equal(domain.TriageErrorClassificationAndResponse))
			Expect(ticket.SuggestedResponse).To(Equal(domain.FallbackSuggestedResponse))
			Expect(testutil.ToFloat64(metrics.TriagesTotal.WithLabelValues(
				"create", "failed", domain.TriageErrorClassificationAndResponse))).To(Equal(1.0))
		})

		It("maps insert failures to TICKET_CREATE_FAILED", func() {
			tickets.createFn = func(context.Context, *domain.Ticket) error {
				return errors.New("insert failed")
			}

			_, err := svc.CreateTicket(ctx, validInput)

			expectDomainError(err, service.CodeTicketCreateFailed, http.StatusInternalServerError)
			Expect(published).To(BeEmpty())
		})

		It("ignores attempt recording and subscriber failures", func() {
			attempts.createFn = func(context.Context, *domain.TriageAttempt) error {
				return errors.New("audit table missing")
			}
			dispatcher.Subscribe(events.EventTicketCreated, func(context.Context, events.Event) error {
				return errors.New("webhook down")
			})

			ticket, err := svc.CreateTicket(ctx, validInput)

			Expect(err).NotTo(HaveOccurred())
			Expect(ticket).NotTo(BeNil())
		})
	})

	Describe("RetryTriage", func() {
		var existing *domain.Ticket

		BeforeEach(func() {
			existing = &domain.Ticket{
				ID:                ticketID,
				Subject:           "Locked out",
				Description:       "Cannot log in",
				Priority:          domain.TicketPriorityMedium,
				Category:          domain.TicketCategoryAccount,
				SuggestedResponse: "Old reply",
				TriageStatus:      domain.TriageStatusFailed,
				TriageError:       strPtr(domain.TriageErrorClassification),
			}
			tickets.getByIDFn = func(_ context.Context, id string) (*domain.Ticket, error) {
				Expect(id).To(Equal(ticketID))
				return existing, nil
			}
		})

		It("re-runs triage with the current values as defaults and updates in place", func() {
			var seen triage.Input
			triager.runFn = func(_ context.Context, in triage.Input) triage.Outcome {
				seen = in
				return triage.Outcome{
					Priority:          domain.TicketPriorityHigh,
					Category:          domain.TicketCategoryAccount,
					SuggestedResponse: "New reply ",
					Status:            domain.TriageStatusSucceeded,
				}
			}
			var update repository.TriageUpdate
			tickets.updateTriageFn = func(_ context.Context, id string, u repository.TriageUpdate) (*domain.Ticket, error) {
				update = u
				updated := *existing
				updated.Priority = u.Priority
				updated.SuggestedResponse = u.SuggestedResponse
				updated.TriageStatus = u.TriageStatus
				updated.TriageError = u.TriageError
				return &updated, nil
			}

			ticket, err := svc.RetryTriage(ctx, " "+ticketID+" ")

			Expect(err).NotTo(HaveOccurred())
			Expect(seen.Subject).To(Equal("Locked out"))
			Expect(seen.Defaults).To(Equal(&triage.Defaults{
				Priority:          domain.TicketPriorityMedium,
				Category:          domain.TicketCategoryAccount,
				SuggestedResponse: "Old reply",
			}))
			Expect(update.SuggestedResponse).To(Equal("New reply"))
			Expect(update.TriageError).To(BeNil())
			Expect(ticket.TriageStatus).To(Equal(domain.TriageStatusSucceeded))
			Expect(ticket.Priority).To(Equal(domain.TicketPriorityHigh))

			Expect(published).To(HaveLen(1))
			Expect(published[0].Type).To(Equal(events.EventTicketTriageRetried))
			payload, ok := published[0].Payload.(events.TicketTriagedPayload)
			Expect(ok).To(BeTrue())
			Expect(payload.Trigger).To(Equal(domain.TriageTriggerRetry))
		})

		It("reports a missing ticket as TICKET_NOT_FOUND", func() {
			tickets.getByIDFn = func(context.Context, string) (*domain.Ticket, error) {
				return nil, pgx.ErrNoRows
			}

			_, err := svc.RetryTriage(ctx, ticketID)

			domainErr := expectDomainError(err, service.CodeTicketNotFound, http.StatusNotFound)
			Expect(domainErr.Message).To(Equal("Ticket not found."))
		})

		It("reports a non-UUID id as TICKET_NOT_FOUND without querying", func() {
			tickets.getByIDFn = func(context.Context, string) (*domain.Ticket, error) {
				Fail("repository must not be queried")
				return nil, nil
			}

			_, err := svc.RetryTriage(ctx, "not-a-uuid")

			expectDomainError(err, service.CodeTicketNotFound, http.StatusNotFound)
		})

		It("rejects a blank id", func() {
			_, err := svc.RetryTriage(ctx, "  ")

			expectDomainError(err, apperrors.CodeValidation, http.StatusBadRequest)
		})

		It("maps lookup failures to TICKET_FETCH_FAILED", func() {
			tickets.getByIDFn = func(context.Context, string) (*domain.Ticket, error) {
				return nil, errors.New("timeout")
			}

			_, err := svc.RetryTriage(ctx, ticketID)

			expectDomainError(err, service.CodeTicketFetchFailed, http.StatusInternalServerError)
		})

		It("maps update failures to TICKET_UPDATE_FAILED", func() {
			tickets.updateTriageFn = func(context.Context, string, repository.TriageUpdate) (*domain.Ticket, error) {
				return nil, errors.New("deadlock")
			}

			_, err := svc.RetryTriage(ctx, ticketID)

			domainErr := expectDomainError(err, service.CodeTicketUpdateFailed, http.StatusInternalServerError)
			Expect(strings.Contains(domainErr.Error(), "deadlock")).To(BeTrue())
		})
	})

	Describe("GetTicket", func() {
		It("returns the ticket with its attempts", func() {
			tickets.getByIDFn = func(context.Context, string) (*domain.Ticket, error) {
				return &domain.Ticket{ID: ticketID}, nil
			}
			attempts.listByTicketFn = func(_ context.Context, id string) ([]domain.TriageAttempt, error) {
				return []domain.TriageAttempt{{TicketID: id, Trigger: domain.TriageTriggerRetry}, {TicketID: id}}, nil
			}

			detail, err := svc.GetTicket(ctx, ticketID)

			Expect(err).NotTo(HaveOccurred())
			Expect(detail.Ticket.ID).To(Equal(ticketID))
			Expect(detail.Attempts).To(HaveLen(2))
		})

		It("maps attempt lookup failures to TICKET_FETCH_FAILED", func() {
			tickets.getByIDFn = func(context.Context, string) (*domain.Ticket, error) {
				return &domain.Ticket{ID: ticketID}, nil
			}
			attempts.listByTicketFn = func(context.Context, string) ([]domain.TriageAttempt, error) {
				return nil, errors.New("boom")
			}

			_, err := svc.GetTicket(ctx, ticketID)

			expectDomainError(err, service.CodeTicketFetchFailed, http.StatusInternalServerError)
		})
	})
})

var _ = Describe("IsValidEmail", func() {
	DescribeTable("matches the loose address shape",
		func(value string, want bool) {
			Expect(service.IsValidEmail(value)).To(Equal(want))
		},
		Entry("plain", "ada@example.com", true),
		Entry("subdomain", "ops@mail.example.co.uk", true),
		Entry("no tld", "ada@example", false),
		Entry("no local part", "@example.com", false),
		Entry("whitespace", "ada lovelace@example.com", false),
		Entry("two ats", "ada@@example.com", false),
		Entry("too long", strings.Repeat("a", 310)+"@example.com", false),
		Entry("non-breaking space", "ada\u00a0lovelace@example.com", false),
		Entry("ideographic space in domain", "ada@example\u3000.com", false),
		Entry("byte order mark", "\ufeffada@example.com", false),
		Entry("at the length limit", strings.Repeat("a", 308)+"@example.com", true),
		Entry("limit counts utf-16 units", strings.Repeat("a", 304)+"😀😀😀😀@example.com", false),
	)
})
