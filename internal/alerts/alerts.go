// Package alerts turns detector outcomes into deduplicated alert
// records and fans them out to configured sinks.
package alerts

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/instrumentation"
)

// Severity grades an alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert types emitted by the monitor.
const (
	TypeQuoteStuffing  = "quote_stuffing"
	TypeWashTrading    = "wash_trading"
	TypeSpoofing       = "spoofing"
	TypeZScoreAnomaly  = "zscore_anomaly"
	TypeOracleAnomaly  = "oracle_anomaly"
	TypeMarketStress   = "market_stress"
	TypeQualityDegrade = "quality_degrade"
)

// Alert is a single emitted alert record.
type Alert struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Symbol    string         `json:"symbol"`
	Type      string         `json:"type"`
	Severity  Severity       `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

// Sink delivers alerts to a destination.
type Sink interface {
	Deliver(ctx context.Context, alert Alert) error
}

// ManagerConfig configures the alert manager.
type ManagerConfig struct {
	// Cooldown suppresses repeat alerts for the same (symbol, type)
	// pair within the interval.
	Cooldown time.Duration
	// HistorySize bounds the in-memory alert history.
	HistorySize int
}

// DefaultManagerConfig returns the default configuration.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Cooldown:    time.Minute,
		HistorySize: 1000,
	}
}

// Manager deduplicates and fans out alerts. Emit is safe for
// concurrent use.
type Manager struct {
	mu       sync.Mutex
	config   ManagerConfig
	sinks    []Sink
	lastSent map[string]time.Time
	history  []Alert
	logger   *zap.Logger
	metrics  *instrumentation.Metrics
}

// NewManager creates an alert manager.
func NewManager(config ManagerConfig, logger *zap.Logger, metrics *instrumentation.Metrics, sinks ...Sink) *Manager {
	if config.HistorySize <= 0 {
		config.HistorySize = DefaultManagerConfig().HistorySize
	}
	return &Manager{
		config:   config,
		sinks:    sinks,
		lastSent: make(map[string]time.Time),
		logger:   logger.With(zap.String("component", "alerts")),
		metrics:  metrics,
	}
}

// Emit builds an alert and delivers it to every sink unless the same
// (symbol, type) pair fired within the cooldown. It returns the alert
// and whether it was delivered.
func (m *Manager) Emit(ctx context.Context, symbol, alertType string, severity Severity, message string, details map[string]any) (Alert, bool) {
	now := time.Now()

	m.mu.Lock()
	key := symbol + "|" + alertType
	if last, ok := m.lastSent[key]; ok && now.Sub(last) < m.config.Cooldown {
		m.mu.Unlock()
		return Alert{}, false
	}
	m.lastSent[key] = now

	alert := Alert{
		ID:        uuid.NewString(),
		Timestamp: now,
		Symbol:    symbol,
		Type:      alertType,
		Severity:  severity,
		Message:   message,
		Details:   details,
	}
	m.history = append(m.history, alert)
	if len(m.history) > m.config.HistorySize {
		m.history = m.history[len(m.history)-m.config.HistorySize:]
	}
	sinks := m.sinks
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordAlert(alertType, string(severity))
	}

	for _, sink := range sinks {
		if err := sink.Deliver(ctx, alert); err != nil {
			m.logger.Error("alert_delivery_failed",
				zap.String("alert_id", alert.ID),
				zap.String("alert_type", alertType),
				zap.Error(err))
			if m.metrics != nil {
				m.metrics.RecordError("alerts", "delivery_failed")
			}
		}
	}
	return alert, true
}

// History returns a copy of the recent alert history, newest last. A
// non-empty symbol filters to that symbol.
func (m *Manager) History(symbol string) []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Alert, 0, len(m.history))
	for _, a := range m.history {
		if symbol == "" || a.Symbol == symbol {
			out = append(out, a)
		}
	}
	return out
}
