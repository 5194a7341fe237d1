package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// статусы попытки провайдера
const (
	StatusSuccess       = "success"
	StatusNotConfigured = "not_configured"
	StatusRateLimited   = "rate_limited"
	StatusError         = "error"
)

type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  prometheus.Histogram
	RequestsInFlight prometheus.Gauge

	ProviderAttemptsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec
	ResultsFilteredTotal    *prometheus.CounterVec

	HTTPRequestsTotal *prometheus.CounterVec

	TelegramMessagesTotal      *prometheus.CounterVec
	TelegramRateLimitHitsTotal prometheus.Counter
}

// New регистрирует коллекторы в глобальном registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry - для тестов, чтобы не ловить duplicate registration.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "websearch_requests_total",
				Help: "Total number of web search invocations by outcome",
			},
			[]string{"status"},
		),
		RequestDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "websearch_request_duration_seconds",
				Help:    "Web search invocation duration in seconds, fallback chain included",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "websearch_requests_in_flight",
				Help: "Number of web search invocations currently being processed",
			},
		),

		ProviderAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "websearch_provider_attempts_total",
				Help: "Provider candidates considered, by provider and outcome",
			},
			[]string{"provider", "status"},
		),
		ProviderRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "websearch_provider_request_duration_seconds",
				Help:    "Backend call duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"provider"},
		),
		ResultsFilteredTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "websearch_results_filtered_total",
				Help: "Results dropped by the URL safety filter",
			},
			[]string{"provider"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "websearch_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),

		TelegramMessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "websearch_telegram_messages_total",
				Help: "Telegram updates processed by type and status",
			},
			[]string{"type", "status"},
		),
		TelegramRateLimitHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "websearch_telegram_rate_limit_hits_total",
				Help: "Telegram messages rejected by the per-user limiter",
			},
		),
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor отдаёт метрики конкретного registry.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordRequest(status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(status).Inc()
	m.RequestDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordProviderAttempt(provider, status string) {
	m.ProviderAttemptsTotal.WithLabelValues(provider, status).Inc()
}

func (m *Metrics) RecordProviderRequest(provider string, duration time.Duration) {
	m.ProviderRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (m *Metrics) RecordFiltered(provider string, dropped int) {
	if dropped <= 0 {
		return
	}
	m.ResultsFilteredTotal.WithLabelValues(provider).Add(float64(dropped))
}

func (m *Metrics) RecordHTTPRequest(route string, code int) {
	m.HTTPRequestsTotal.WithLabelValues(route, statusCode(code)).Inc()
}

func (m *Metrics) RecordTelegramMessage(msgType, status string) {
	m.TelegramMessagesTotal.WithLabelValues(msgType, status).Inc()
}

func (m *Metrics) RecordRateLimitHit() {
	m.TelegramRateLimitHitsTotal.Inc()
}

func (m *Metrics) IncRequestsInFlight() {
	m.RequestsInFlight.Inc()
}

func (m *Metrics) DecRequestsInFlight() {
	m.RequestsInFlight.Dec()
}

func statusCode(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
