package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "shopverse"

// Outcome labels shared by the messaging metrics.
const (
	OutcomeSuccess      = "success"
	OutcomeFailure      = "failure"
	OutcomeMalformed    = "malformed"
	OutcomeHandlerError = "handler_error"
	OutcomeSkipped      = "skipped"
)

// Metrics holds the Prometheus collectors of one process. Every process owns
// its own registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	EventsPublished   *prometheus.CounterVec
	PublishDuration   *prometheus.HistogramVec
	EventsConsumed    *prometheus.CounterVec
	DeadLetters       *prometheus.CounterVec
	Reservations      *prometheus.CounterVec
	StockLevel        *prometheus.GaugeVec
	OrdersPlaced      prometheus.Counter
	PaymentsInitiated prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_published_total",
			Help:      "Integration events handed to the broker, by topic, event type and outcome.",
		}, []string{"topic", "event_type", "outcome"}),
		PublishDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "publish_duration_seconds",
			Help:      "Time spent waiting for broker acknowledgement.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"topic"}),
		EventsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_consumed_total",
			Help:      "Messages taken off a topic, by consumer group and outcome.",
		}, []string{"topic", "group", "outcome"}),
		DeadLetters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dead_letters_total",
			Help:      "Messages routed to a dead-letter destination.",
		}, []string{"topic"}),
		Reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "stock_reservations_total",
			Help:      "Stock reservation outcomes per order.",
		}, []string{"outcome"}),
		StockLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "stock_available",
			Help:      "Available quantity per product in this process.",
		}, []string{"product_id"}),
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "orders_placed_total",
			Help:      "Orders accepted and announced with OrderCreated.",
		}),
		PaymentsInitiated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "payments_initiated_total",
			Help:      "OrderCreated events for which payment was initiated.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.EventsPublished,
		m.PublishDuration,
		m.EventsConsumed,
		m.DeadLetters,
		m.Reservations,
		m.StockLevel,
		m.OrdersPlaced,
		m.PaymentsInitiated,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
