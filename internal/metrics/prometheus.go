package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the service's collectors. A nil *Manager records nothing,
// so services may be constructed without metrics.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	actionsTotal        *prometheus.CounterVec
	purchasesTotal      *prometheus.CounterVec
	paymentsTotal       *prometheus.CounterVec
	storeConflictsTotal prometheus.Counter
	cooldownsSwept      prometheus.Counter
	sseClients          prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpPanicsTotal     *prometheus.CounterVec
}

// NewManager creates a Manager with its own registry unless one is supplied
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rpgdash",
		histogramBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.actionsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "actions_total",
		Help:      "Timed actions attempted, by kind and outcome.",
	}, []string{"kind", "outcome"})

	m.purchasesTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "purchases_total",
		Help:      "Shop purchases attempted, by outcome.",
	}, []string{"outcome"})

	m.paymentsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "payments_total",
		Help:      "Payment notifications handled, by reconciliation outcome.",
	}, []string{"outcome"})

	m.storeConflictsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_conflicts_total",
		Help:      "Conditional record writes rejected because the version moved.",
	})

	m.cooldownsSwept = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cooldowns_swept_total",
		Help:      "Expired cooldown entries removed by the background sweep.",
	})

	m.sseClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sse_clients",
		Help:      "Connected live-update subscribers.",
	})

	m.httpRequestsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests served, by method, route and status.",
	}, []string{"method", "route", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency, by method and route.",
		Buckets:   m.histogramBuckets,
	}, []string{"method", "route"})

	m.httpPanicsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_panics_total",
		Help:      "Handler panics recovered, by route.",
	}, []string{"route"})
}

// Registry returns the registry the collectors live in
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordAction counts an action attempt
func (m *Manager) RecordAction(kind, outcome string) {
	if m == nil {
		return
	}
	m.actionsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordPurchase counts a purchase attempt
func (m *Manager) RecordPurchase(outcome string) {
	if m == nil {
		return
	}
	m.purchasesTotal.WithLabelValues(outcome).Inc()
}

// RecordPayment counts a reconciled payment notification
func (m *Manager) RecordPayment(outcome string) {
	if m == nil {
		return
	}
	m.paymentsTotal.WithLabelValues(outcome).Inc()
}

// RecordStoreConflict counts a version conflict on a conditional write
func (m *Manager) RecordStoreConflict() {
	if m == nil {
		return
	}
	m.storeConflictsTotal.Inc()
}

// RecordCooldownsSwept adds to the swept cooldown counter
func (m *Manager) RecordCooldownsSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cooldownsSwept.Add(float64(n))
}

// SSEClientConnected tracks a live subscriber joining (+1) or leaving (-1)
func (m *Manager) SSEClientConnected(delta int) {
	if m == nil {
		return
	}
	m.sseClients.Add(float64(delta))
}

// RecordHTTPRequest counts a request and observes its latency
func (m *Manager) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordPanic counts a recovered handler panic
func (m *Manager) RecordPanic(route string) {
	if m == nil {
		return
	}
	m.httpPanicsTotal.WithLabelValues(route).Inc()
}
