package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "gcmpush"

// Push outcome labels.
const (
	OutcomeOK              = "ok"
	OutcomeValidationError = "validation_error"
	OutcomeOperationError  = "operation_error"
)

// Metrics stores Prometheus collectors used by the API and the push service.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	pushRequestsTotal   *prometheus.CounterVec
	pushRecipientsTotal *prometheus.CounterVec
	pushSendDuration    *prometheus.HistogramVec
	pushInflight        prometheus.Gauge
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		pushRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "push_requests_total",
				Help:      "Total number of multicast requests grouped by outcome.",
			},
			[]string{"outcome"},
		),
		pushRecipientsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "push_recipients_total",
				Help:      "Recipients reported by the gateway as succeeded or failed.",
			},
			[]string{"result"},
		),
		pushSendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "push_send_duration_seconds",
				Help:      "Gateway call duration in seconds grouped by outcome.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
			},
			[]string{"outcome"},
		),
		pushInflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "push_inflight",
				Help:      "Current number of in-flight multicast requests.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.pushRequestsTotal,
		m.pushRecipientsTotal,
		m.pushSendDuration,
		m.pushInflight,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncPushRequest(outcome string) {
	if m == nil {
		return
	}
	m.pushRequestsTotal.WithLabelValues(normalizeOutcome(outcome)).Inc()
}

// AddRecipients records the gateway's per-recipient success and failure counts.
func (m *Metrics) AddRecipients(success int, failure int) {
	if m == nil {
		return
	}
	if success > 0 {
		m.pushRecipientsTotal.WithLabelValues("success").Add(float64(success))
	}
	if failure > 0 {
		m.pushRecipientsTotal.WithLabelValues("failure").Add(float64(failure))
	}
}

func (m *Metrics) ObservePushSendDuration(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.pushSendDuration.WithLabelValues(normalizeOutcome(outcome)).Observe(seconds)
}

func (m *Metrics) IncPushInFlight() {
	if m == nil {
		return
	}
	m.pushInflight.Inc()
}

func (m *Metrics) DecPushInFlight() {
	if m == nil {
		return
	}
	m.pushInflight.Dec()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeOutcome(outcome string) string {
	normalized := strings.ToLower(strings.TrimSpace(outcome))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
