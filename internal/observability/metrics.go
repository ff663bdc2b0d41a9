package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors for HTTP traffic and ticket triage.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ErrorsTotal     *prometheus.CounterVec
	TriagesTotal    *prometheus.CounterVec
	TriageDuration  *prometheus.HistogramVec
	LLMCallsTotal   *prometheus.CounterVec
	LLMCallDuration *prometheus.HistogramVec
}

// NewMetrics registers and returns service metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tickets_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tickets_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms .. ~41s
		}, []string{"route", "method"}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tickets_http_errors_total",
			Help: "Error responses by route, method and error code.",
		}, []string{"route", "method", "code"}),
		TriagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tickets_triages_total",
			Help: "Triage runs by trigger, status and error code.",
		}, []string{"trigger", "status", "error"}),
		TriageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tickets_triage_duration_seconds",
			Help:    "Duration of a full triage run (classify + draft).",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms .. ~51s
		}, []string{"status"}),
		LLMCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tickets_llm_calls_total",
			Help: "LLM calls by triage step and result.",
		}, []string{"step", "result"}),
		LLMCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tickets_llm_call_duration_seconds",
			Help:    "Latency of a single LLM call by triage step.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"step"}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.ErrorsTotal,
		m.TriagesTotal,
		m.TriageDuration,
		m.LLMCallsTotal,
		m.LLMCallDuration,
	)

	return m
}

// RecordRequest observes a completed HTTP request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError counts an error response.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(route, method, code).Inc()
}

// RecordTriage counts a finished triage run. errCode is empty on success.
func (m *Metrics) RecordTriage(trigger, status, errCode string, duration time.Duration) {
	if m == nil {
		return
	}
	if errCode == "" {
		errCode = "none"
	}
	m.TriagesTotal.WithLabelValues(trigger, status, errCode).Inc()
	m.TriageDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordLLMCall observes one classifier or drafter call.
func (m *Metrics) RecordLLMCall(step string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.LLMCallsTotal.WithLabelValues(step, result).Inc()
	m.LLMCallDuration.WithLabelValues(step).Observe(duration.Seconds())
}
