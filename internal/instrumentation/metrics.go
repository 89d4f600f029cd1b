package instrumentation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the monitor service.
type Metrics struct {
	StreamLagMs    prometheus.Histogram
	EventsTotal    *prometheus.CounterVec
	ApplyLatencyMs prometheus.Histogram
	AnomaliesTotal *prometheus.CounterVec
	AlertsTotal    *prometheus.CounterVec
	ErrorsTotal    *prometheus.CounterVec
	ActiveSymbols  prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		// Time between the event's feed timestamp and processing
		StreamLagMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fxmonitor_stream_lag_ms",
			Help:    "Time between event timestamp and processing time in milliseconds",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2000, 5000},
		}),

		EventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fxmonitor_events_processed_total",
			Help: "Total number of market events processed by event type",
		}, []string{"event_type"}),

		ApplyLatencyMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fxmonitor_apply_latency_ms",
			Help:    "Time to apply one event across all calculators in milliseconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 25, 50, 100},
		}),

		AnomaliesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fxmonitor_anomalies_total",
			Help: "Total number of anomalies detected by symbol and type",
		}, []string{"symbol", "anomaly_type"}),

		AlertsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fxmonitor_alerts_total",
			Help: "Total number of alerts emitted by type and severity",
		}, []string{"alert_type", "severity"}),

		ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fxmonitor_errors_total",
			Help: "Total number of errors by component and type",
		}, []string{"component", "error_type"}),

		ActiveSymbols: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fxmonitor_active_symbols",
			Help: "Number of symbols with live monitor state",
		}),
	}
}

// RecordStreamLag records the lag between event timestamp and processing time.
func (m *Metrics) RecordStreamLag(lagMs float64) {
	m.StreamLagMs.Observe(lagMs)
}

// RecordEventProcessed increments the event counter for an event type.
func (m *Metrics) RecordEventProcessed(eventType string) {
	m.EventsTotal.WithLabelValues(eventType).Inc()
}

// RecordApplyLatency records the time spent applying one event.
func (m *Metrics) RecordApplyLatency(latencyMs float64) {
	m.ApplyLatencyMs.Observe(latencyMs)
}

// RecordAnomaly increments the anomaly counter for a symbol and type.
func (m *Metrics) RecordAnomaly(symbol, anomalyType string) {
	m.AnomaliesTotal.WithLabelValues(symbol, anomalyType).Inc()
}

// RecordAlert increments the alert counter.
func (m *Metrics) RecordAlert(alertType, severity string) {
	m.AlertsTotal.WithLabelValues(alertType, severity).Inc()
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(component, errorType string) {
	m.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// SetActiveSymbols records the number of live per-symbol monitors.
func (m *Metrics) SetActiveSymbols(n int) {
	m.ActiveSymbols.Set(float64(n))
}
