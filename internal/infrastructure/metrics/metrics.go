package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quick-orders/internal/domain"
)

const namespace = "quick_orders"

// Metrics owns a private registry so tests and multiple instances never collide
// on the global default registerer.
type Metrics struct {
	registry *prometheus.Registry

	passcodeIssued        *prometheus.CounterVec
	passcodeVerifications *prometheus.CounterVec
	upstreamRequests      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.passcodeIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passcode_issued_total",
			Help:      "Verification codes issued, by purpose.",
		},
		[]string{"purpose"},
	)
	m.passcodeVerifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passcode_verifications_total",
			Help:      "Verification attempts, by purpose and result.",
		},
		[]string{"purpose", "result"},
	)
	m.upstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shop_requests_total",
			Help:      "Requests sent to the shop API, by method and status code.",
		},
		[]string{"method", "status"},
	)

	m.registry.MustRegister(
		m.passcodeIssued,
		m.passcodeVerifications,
		m.upstreamRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) CodeIssued(purpose domain.Purpose) {
	m.passcodeIssued.WithLabelValues(string(purpose)).Inc()
}

func (m *Metrics) CodeVerified(purpose domain.Purpose, result string) {
	if result == "" {
		result = "error"
	}
	m.passcodeVerifications.WithLabelValues(string(purpose), result).Inc()
}

// ShopRequest records one round trip to the shop API. status 0 means the
// request never got a response.
func (m *Metrics) ShopRequest(method string, status int) {
	m.upstreamRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
