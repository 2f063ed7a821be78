package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	queriesTotal   *prometheus.CounterVec
	queryLatency   *prometheus.HistogramVec
	delegations    *prometheus.CounterVec
	catalogRecords prometheus.Gauge
	catalogReloads *prometheus.CounterVec
}

// NewMetrics registers the engine collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Labels: intent, outcome
		queriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inventory_engine",
			Name:      "queries_total",
			Help:      "Total resolved queries by intent and outcome",
		}, []string{"intent", "outcome"}),

		queryLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "inventory_engine",
			Name:      "query_latency_seconds",
			Help:      "End-to-end query resolution latency",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30},
		}, []string{"outcome"}),

		// Labels: status (ok, error, skipped)
		delegations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inventory_engine",
			Name:      "delegations_total",
			Help:      "External language-model delegations by status",
		}, []string{"status"}),

		catalogRecords: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "inventory_engine",
			Name:      "catalog_records",
			Help:      "Number of records in the live catalog snapshot",
		}),

		// Labels: status (ok, error)
		catalogReloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inventory_engine",
			Name:      "catalog_reloads_total",
			Help:      "Catalog load attempts by status",
		}, []string{"status"}),
	}
}

// ObserveQuery records one resolved query.
func (m *Metrics) ObserveQuery(intent, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if intent == "" {
		intent = "none"
	}
	m.queriesTotal.WithLabelValues(intent, outcome).Inc()
	m.queryLatency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveDelegation records one delegation attempt.
func (m *Metrics) ObserveDelegation(status string) {
	if m == nil {
		return
	}
	m.delegations.WithLabelValues(status).Inc()
}

// ObserveCatalogLoad records a catalog load or reload.
func (m *Metrics) ObserveCatalogLoad(records int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.catalogReloads.WithLabelValues("error").Inc()
		return
	}
	m.catalogReloads.WithLabelValues("ok").Inc()
	m.catalogRecords.Set(float64(records))
}
