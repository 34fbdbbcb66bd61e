package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "checkout"

type Metrics struct {
	BackendRequests  *prometheus.CounterVec
	BackendLatencyMS *prometheus.HistogramVec
	HTTPRequests     *prometheus.CounterVec
	Orders           *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Outbound requests to shipping, payment and order backends.",
		}, []string{"endpoint", "status"}),
		BackendLatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_ms",
			Help:      "Outbound request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"endpoint"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Checkout API requests.",
		}, []string{"route", "status"}),
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Order submissions by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.BackendRequests, m.BackendLatencyMS, m.HTTPRequests, m.Orders)
	return m
}

// ObserveBackend records one outbound call. status is the HTTP code, or "error" when no response arrived.
func (m *Metrics) ObserveBackend(endpoint, status string, elapsed time.Duration) {
	m.BackendRequests.WithLabelValues(endpoint, status).Inc()
	m.BackendLatencyMS.WithLabelValues(endpoint).Observe(float64(elapsed.Milliseconds()))
}

func (m *Metrics) ObserveHTTP(route string, status int) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func (m *Metrics) OrderPlaced() {
	m.Orders.WithLabelValues("placed").Inc()
}

func (m *Metrics) OrderFailed() {
	m.Orders.WithLabelValues("failed").Inc()
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
