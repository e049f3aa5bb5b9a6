// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Tick metrics
	TicksProcessed        *prometheus.CounterVec
	TickProcessingLatency prometheus.Histogram
	LastTickTimestamp     prometheus.Gauge

	// Decision metrics
	EntryDecisions *prometheus.CounterVec
	FlatMarkets    prometheus.Counter

	// Position metrics
	PositionsOpened      prometheus.Counter
	PositionsClosed      *prometheus.CounterVec
	MilestonesHit        prometheus.Counter
	OpenPositions        prometheus.Gauge
	RealizedProfitPoints prometheus.Gauge

	// Collaborator metrics
	ExecutorErrors  *prometheus.CounterVec
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	WatchdogResets prometheus.Counter
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg uses the default Prometheus registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "option_scalper"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Tick metrics
		TicksProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ticks",
			Name:      "processed_total",
			Help:      "Total number of ticks processed by instrument",
		}, []string{"instrument"}),
		TickProcessingLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ticks",
			Name:      "processing_latency_seconds",
			Help:      "Tick processing latency in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		LastTickTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ticks",
			Name:      "last_tick_timestamp",
			Help:      "Unix timestamp of the last processed tick",
		}),

		// Decision metrics
		EntryDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decisions",
			Name:      "entry_total",
			Help:      "Total number of entry evaluations by direction and outcome",
		}, []string{"direction", "outcome"}),
		FlatMarkets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decisions",
			Name:      "flat_market_total",
			Help:      "Total number of evaluations that found a flat market",
		}),

		// Position metrics
		PositionsOpened: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "positions",
			Name:      "opened_total",
			Help:      "Total number of positions opened",
		}),
		PositionsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "positions",
			Name:      "closed_total",
			Help:      "Total number of positions closed by exit reason",
		}, []string{"reason"}),
		MilestonesHit: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "positions",
			Name:      "milestones_hit_total",
			Help:      "Total number of non-final milestones hit",
		}),
		OpenPositions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "positions",
			Name:      "open",
			Help:      "Number of currently open positions",
		}),
		RealizedProfitPoints: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "positions",
			Name:      "realized_profit_points",
			Help:      "Sum of profit points of closed positions",
		}),

		// Collaborator metrics
		ExecutorErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "errors_total",
			Help:      "Total number of order executor errors by operation",
		}, []string{"operation"}),
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"operation"}),

		// Health metrics
		WatchdogResets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "watchdog_resets_total",
			Help:      "Total number of watchdog state resets",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// RecordTick records one processed tick.
func (m *Metrics) RecordTick(instrument string, at time.Time, elapsed time.Duration) {
	m.TicksProcessed.WithLabelValues(instrument).Inc()
	m.TickProcessingLatency.Observe(elapsed.Seconds())
	m.LastTickTimestamp.Set(float64(at.Unix()))
}

// RecordDecision records an entry evaluation outcome.
func (m *Metrics) RecordDecision(direction string, shouldEnter, flat bool) {
	outcome := "skip"
	if shouldEnter {
		outcome = "enter"
	}
	if direction == "" {
		direction = "NONE"
	}
	m.EntryDecisions.WithLabelValues(direction, outcome).Inc()
	if flat {
		m.FlatMarkets.Inc()
	}
}

// RecordPositionOpened records a newly opened position.
func (m *Metrics) RecordPositionOpened() {
	m.PositionsOpened.Inc()
	m.OpenPositions.Inc()
}

// RecordPositionClosed records a closed position and its profit.
func (m *Metrics) RecordPositionClosed(reason string, profit float64) {
	m.PositionsClosed.WithLabelValues(reason).Inc()
	m.OpenPositions.Dec()
	m.RealizedProfitPoints.Add(profit)
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(operation).Inc()
	}
}
