// Package aggregator wires the per-symbol calculators and detectors into
// a single engine that consumes market events and serves metric
// snapshots, stress reports, and quality scores.
package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/anomaly"
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/instrumentation"
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/models"
)

// MetricsPublisher publishes metric snapshots (typically to Redis).
type MetricsPublisher interface {
	Publish(ctx context.Context, symbol string, record *models.MarketMetrics) error
}

// OracleFactory builds a fresh ensemble scorer for a newly seen symbol.
// Nil disables oracle scoring.
type OracleFactory func(symbol string) *anomaly.EnsembleScorer

// Aggregator maintains one SymbolMonitor per symbol and routes events to
// them. Monitors are created lazily on first event; a detector failure
// for one symbol never affects another.
type Aggregator struct {
	mu       sync.RWMutex
	monitors map[string]*SymbolMonitor

	config        MonitorConfig
	publisher     MetricsPublisher
	oracleFactory OracleFactory
	logger        *zap.Logger
	metrics       *instrumentation.Metrics
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithPublisher attaches a metrics publisher.
func WithPublisher(p MetricsPublisher) Option {
	return func(a *Aggregator) { a.publisher = p }
}

// WithOracleFactory attaches an oracle factory for new symbols.
func WithOracleFactory(f OracleFactory) Option {
	return func(a *Aggregator) { a.oracleFactory = f }
}

// WithInstrumentation attaches Prometheus metrics.
func WithInstrumentation(m *instrumentation.Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// New creates an aggregator.
func New(config MonitorConfig, logger *zap.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		monitors: make(map[string]*SymbolMonitor),
		config:   config,
		logger:   logger.With(zap.String("component", "aggregator")),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Monitor returns the monitor for a symbol, creating it on first use.
func (a *Aggregator) Monitor(symbol string) (*SymbolMonitor, error) {
	a.mu.RLock()
	monitor, ok := a.monitors[symbol]
	a.mu.RUnlock()
	if ok {
		return monitor, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if monitor, ok = a.monitors[symbol]; ok {
		return monitor, nil
	}

	monitor, err := NewSymbolMonitor(symbol, a.config)
	if err != nil {
		return nil, fmt.Errorf("create monitor for %s: %w", symbol, err)
	}
	if a.oracleFactory != nil {
		monitor.SetOracle(a.oracleFactory(symbol))
	}
	a.monitors[symbol] = monitor
	if a.metrics != nil {
		a.metrics.SetActiveSymbols(len(a.monitors))
	}
	a.logger.Info("monitor_created", zap.String("symbol", symbol))
	return monitor, nil
}

// lookup returns the monitor for a symbol without creating one.
func (a *Aggregator) lookup(symbol string) (*SymbolMonitor, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	monitor, ok := a.monitors[symbol]
	return monitor, ok
}

// Symbols returns the sorted list of symbols with live monitors.
func (a *Aggregator) Symbols() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	symbols := make([]string, 0, len(a.monitors))
	for s := range a.monitors {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// ProcessEvent decodes a market event envelope and applies it to the
// symbol's monitor. Unknown event types are logged and skipped; decode
// failures are reported as errors so the consumer can count them.
func (a *Aggregator) ProcessEvent(ctx context.Context, envelope *models.MarketEventEnvelope) error {
	start := time.Now()
	if a.metrics != nil {
		a.metrics.RecordEventProcessed(envelope.Type)
		a.metrics.RecordStreamLag(float64(start.Sub(envelope.TsEvent).Milliseconds()))
	}

	monitor, err := a.Monitor(envelope.Symbol)
	if err != nil {
		return err
	}

	switch envelope.Type {
	case models.EventTypeTick:
		var tick models.Tick
		if err := decodePayload(envelope.Payload, &tick); err != nil {
			return fmt.Errorf("decode tick for %s: %w", envelope.Symbol, err)
		}
		a.checkQuality(envelope.Symbol, models.ValidateTick(tick))
		result := monitor.ApplyTick(tick)
		a.reportTickAnomalies(envelope.Symbol, result)

	case models.EventTypeTrade:
		var trade models.Trade
		if err := decodePayload(envelope.Payload, &trade); err != nil {
			return fmt.Errorf("decode trade for %s: %w", envelope.Symbol, err)
		}
		a.checkQuality(envelope.Symbol, models.ValidateTrade(trade))
		result := monitor.ApplyTrade(trade)
		a.reportTradeAnomalies(envelope.Symbol, result)

	case models.EventTypeOrderBook:
		var book models.OrderBook
		if err := decodePayload(envelope.Payload, &book); err != nil {
			return fmt.Errorf("decode order book for %s: %w", envelope.Symbol, err)
		}
		a.checkQuality(envelope.Symbol, models.ValidateOrderBook(book))
		result := monitor.ApplyOrderBook(book)
		a.reportBookAnomalies(envelope.Symbol, result)

	default:
		a.logger.Warn("unknown_event_type",
			zap.String("type", envelope.Type),
			zap.String("symbol", envelope.Symbol))
		return nil
	}

	if a.metrics != nil {
		a.metrics.RecordApplyLatency(float64(time.Since(start).Microseconds()) / 1000)
	}

	if a.publisher != nil {
		if record, ok := monitor.CurrentMetrics(); ok {
			if err := a.publisher.Publish(ctx, envelope.Symbol, &record); err != nil {
				if a.metrics != nil {
					a.metrics.RecordError("aggregator", "publish_failed")
				}
				return fmt.Errorf("publish metrics for %s: %w", envelope.Symbol, err)
			}
		}
	}
	return nil
}

// checkQuality reports a structurally suspect event (crossed quote,
// unsorted book, bad trade side). The event is still applied: data
// quality is a condition to surface, not a reason to drop market state.
func (a *Aggregator) checkQuality(symbol string, err error) {
	if err == nil {
		return
	}
	if a.metrics != nil {
		a.metrics.RecordError("models", "data_quality")
	}
	a.logger.Warn("data_quality",
		zap.String("symbol", symbol),
		zap.Error(err))
}

func (a *Aggregator) reportTickAnomalies(symbol string, result TickResult) {
	if result.ZScore.IsAnomaly {
		for _, t := range result.ZScore.AnomalyTypes {
			a.recordAnomaly(symbol, "zscore_"+t)
		}
	}
	if result.Stuffing.IsStuffing() {
		a.recordAnomaly(symbol, "quote_stuffing")
	}
	if result.Ensemble != nil && result.Ensemble.IsAnomaly {
		a.recordAnomaly(symbol, result.Ensemble.AnomalyType)
	}
}

func (a *Aggregator) reportTradeAnomalies(symbol string, result TradeResult) {
	if result.Wash.IsWashTrading {
		a.recordAnomaly(symbol, "wash_trading")
	}
	if result.VolumeWash.IsWashTrading {
		a.recordAnomaly(symbol, "volume_wash")
	}
}

func (a *Aggregator) reportBookAnomalies(symbol string, result BookResult) {
	if result.Spoofing.IsSpoofing {
		a.recordAnomaly(symbol, "spoofing")
	}
	if result.Stuffing.IsStuffing() {
		a.recordAnomaly(symbol, "quote_stuffing")
	}
}

func (a *Aggregator) recordAnomaly(symbol, anomalyType string) {
	if a.metrics != nil {
		a.metrics.RecordAnomaly(symbol, anomalyType)
	}
	a.logger.Warn("anomaly_detected",
		zap.String("symbol", symbol),
		zap.String("anomaly_type", anomalyType))
}

// CurrentMetrics returns the aggregated metrics for a symbol. The second
// return is false when the symbol is unknown or has no metrics yet.
func (a *Aggregator) CurrentMetrics(symbol string) (models.MarketMetrics, bool) {
	monitor, ok := a.lookup(symbol)
	if !ok {
		return models.MarketMetrics{}, false
	}
	return monitor.CurrentMetrics()
}

// DetailedMetrics returns the full metric breakdown for a symbol.
func (a *Aggregator) DetailedMetrics(symbol string) (DetailedMetrics, bool) {
	monitor, ok := a.lookup(symbol)
	if !ok {
		return DetailedMetrics{}, false
	}
	return monitor.DetailedMetrics(), true
}

// StressReport returns the stress indicators for a symbol.
func (a *Aggregator) StressReport(symbol string) (models.StressReport, bool) {
	monitor, ok := a.lookup(symbol)
	if !ok {
		return models.StressReport{}, false
	}
	return monitor.StressReport(), true
}

// QualityScore returns the 0-100 quality score for a symbol.
func (a *Aggregator) QualityScore(symbol string) (float64, bool) {
	monitor, ok := a.lookup(symbol)
	if !ok {
		return 0, false
	}
	return monitor.QualityScore(), true
}

// decodePayload converts an envelope payload into a typed event. JSON
// consumers hand us json.RawMessage or a decoded map; in-process
// callers may pass the typed value directly.
func decodePayload(payload any, out any) error {
	switch p := payload.(type) {
	case json.RawMessage:
		return json.Unmarshal(p, out)
	case []byte:
		return json.Unmarshal(p, out)
	default:
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, out)
	}
}
