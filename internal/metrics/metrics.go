// metrics — Prometheus-метрики релея: HTTP-запросы, выпуск credential,
// обработка вебхуков и длительность обращений к бэкенду.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "token_relay"

// Исходы операций для лейбла outcome.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeIgnored = "ignored"
)

// Collector хранит коллекторы, зарегистрированные в одном Registerer.
type Collector struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	credentials   *prometheus.CounterVec
	webhookEvents *prometheus.CounterVec
	upstreamCalls *prometheus.HistogramVec
}

// New регистрирует метрики в reg. nil — prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	f := promauto.With(reg)

	return &Collector{
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),

		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		credentials: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credentials_issued_total",
			Help:      "Credential issue attempts by outcome.",
		}, []string{"outcome"}),

		webhookEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Webhook events by type and outcome.",
		}, []string{"type", "outcome"}),

		upstreamCalls: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_call_duration_seconds",
			Help:      "Latency of backend calls by call and outcome.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"call", "outcome"}),
	}
}

// ObserveHTTP учитывает завершённый HTTP-запрос. route — шаблон маршрута chi,
// а не сырой путь, чтобы не раздувать кардинальность.
func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}

	if route == "" {
		route = "unmatched"
	}

	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) CredentialIssued(outcome string) {
	if c == nil {
		return
	}

	c.credentials.WithLabelValues(outcome).Inc()
}

func (c *Collector) WebhookEvent(eventType, outcome string) {
	if c == nil {
		return
	}

	if eventType == "" {
		eventType = "unknown"
	}

	c.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// UpstreamCall учитывает одно обращение к бэкенду хранения.
func (c *Collector) UpstreamCall(call string, err error, d time.Duration) {
	if c == nil {
		return
	}

	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}

	c.upstreamCalls.WithLabelValues(call, outcome).Observe(d.Seconds())
}
