package rpc

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

const metricsNamespace = "escrowd"

// Metrics collects RPC server metrics on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	connections prometheus.Gauge
	subscribers *prometheus.GaugeVec
}

// NewMetrics creates the collectors. When services has a chain, its head
// number and pending state are exported as gauges.
func NewMetrics(services *rpc_types.ServiceContainer) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "JSON-RPC requests by method and result code.",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "JSON-RPC handler latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"method"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "ws",
			Name:      "connections",
			Help:      "Open websocket connections.",
		}),
		subscribers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "ws",
			Name:      "subscriptions",
			Help:      "Active subscriptions by kind.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(m.requests, m.duration, m.connections, m.subscribers)

	if services != nil && services.Chain != nil {
		svc := services.Chain
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "chain",
			Name:      "head_block",
			Help:      "Number of the latest sealed block.",
		}, func() float64 { return float64(svc.BlockNumber()) }))
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "chain",
			Name:      "contracts",
			Help:      "Deployed contracts.",
		}, func() float64 { return float64(len(svc.Contracts())) }))
	}
	return m
}

// observe records one handled request.
func (m *Metrics) observe(method string, err *rpc_types.RpcError, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := "ok"
	if err != nil {
		code = strconv.Itoa(err.Code)
	}
	m.requests.WithLabelValues(method, code).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, for tests and embedding.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
