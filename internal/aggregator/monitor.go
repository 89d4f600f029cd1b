package aggregator

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/anomaly"
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/metrics"
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/models"
)

// MonitorConfig bundles the calculator and detector configurations used
// to build a per-symbol monitor.
type MonitorConfig struct {
	Spread        metrics.SpreadConfig
	Depth         metrics.DepthConfig
	Flow          metrics.FlowConfig
	Volatility    metrics.VolatilityConfig
	Advanced      metrics.AdvancedConfig
	QuoteStuffing anomaly.QuoteStuffingConfig
	WashTrading   anomaly.WashTradingConfig
	Spoofing      anomaly.SpoofingConfig
	Ensemble      anomaly.EnsembleConfig

	ZScoreWindow    int
	ZScoreThreshold float64

	// LiquidityScoreBonus is the liquidity score above which the quality
	// score earns its bonus.
	LiquidityScoreBonus float64
}

// DefaultMonitorConfig returns the default configuration.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Spread:              metrics.DefaultSpreadConfig(),
		Depth:               metrics.DefaultDepthConfig(),
		Flow:                metrics.DefaultFlowConfig(),
		Volatility:          metrics.DefaultVolatilityConfig(),
		Advanced:            metrics.DefaultAdvancedConfig(),
		QuoteStuffing:       anomaly.DefaultQuoteStuffingConfig(),
		WashTrading:         anomaly.DefaultWashTradingConfig(),
		Spoofing:            anomaly.DefaultSpoofingConfig(),
		Ensemble:            anomaly.DefaultEnsembleConfig(),
		ZScoreWindow:        100,
		ZScoreThreshold:     3.0,
		LiquidityScoreBonus: 1000,
	}
}

// TickResult carries the detector outcomes relevant to a tick event.
type TickResult struct {
	Stuffing QuoteStuffingOutcome       `json:"quote_stuffing"`
	ZScore   anomaly.MultivariateResult `json:"zscore"`
	Ensemble *anomaly.EnsembleResult    `json:"ensemble,omitempty"`
}

// QuoteStuffingOutcome pairs the fixed and adaptive detector results.
type QuoteStuffingOutcome struct {
	Fixed    anomaly.QuoteStuffingResult `json:"fixed"`
	Adaptive anomaly.QuoteStuffingResult `json:"adaptive"`
}

// IsStuffing reports whether either detector flagged the update rate.
func (o QuoteStuffingOutcome) IsStuffing() bool {
	return o.Fixed.IsStuffing || o.Adaptive.IsStuffing
}

// TradeResult carries the detector outcomes relevant to a trade event.
type TradeResult struct {
	Wash           anomaly.WashTradingResult   `json:"wash_trading"`
	VolumeWash     anomaly.VolumeWashResult    `json:"volume_wash"`
	Classification metrics.TradeClassification `json:"classification"`
	BulkVolume     *metrics.BVCClassification  `json:"bulk_volume,omitempty"`
}

// BookResult carries the detector outcomes relevant to an order book event.
type BookResult struct {
	Spoofing anomaly.SpoofingResult `json:"spoofing"`
	Stuffing QuoteStuffingOutcome   `json:"quote_stuffing"`
}

// DetailedMetrics is the full per-symbol metric breakdown.
type DetailedMetrics struct {
	Symbol     string                    `json:"symbol"`
	Timestamp  time.Time                 `json:"timestamp"`
	Spread     *metrics.SpreadMetrics    `json:"spread,omitempty"`
	Depth      *metrics.DepthMetrics     `json:"depth,omitempty"`
	Flow       metrics.FlowMetrics       `json:"flow"`
	Volatility metrics.VolatilityMetrics `json:"volatility"`
	Advanced   metrics.AdvancedMetrics   `json:"advanced"`
	Quality    float64                   `json:"quality_score"`
	Stress     models.StressReport       `json:"stress"`
}

// SymbolMonitor owns every calculator and detector for a single symbol.
// All methods take the monitor mutex: a monitor is safe for concurrent
// use, though the expected deployment feeds each symbol from one
// consumer goroutine.
type SymbolMonitor struct {
	mu     sync.Mutex
	symbol string
	config MonitorConfig

	spread     *metrics.SpreadCalculator
	depth      *metrics.DepthAnalyzer
	flow       *metrics.FlowImbalanceCalculator
	volatility *metrics.VolatilityAnalyzer
	advanced   *metrics.AdvancedCalculator
	classifier *metrics.LeeReadyClassifier
	bulkVolume *metrics.BulkVolumeClassifier

	zscore           *anomaly.MultivariateZScoreDetector
	stuffing         *anomaly.QuoteStuffingDetector
	adaptiveStuffing *anomaly.AdaptiveQuoteStuffingDetector
	washTrading      *anomaly.WashTradingDetector
	volumeWash       *anomaly.VolumeWashDetector
	spoofing         *anomaly.SpoofingDetector
	ensemble         *anomaly.EnsembleScorer

	lastTick      *models.Tick
	lastAnomaly   anomaly.MultivariateResult
	lastEventTime time.Time
	tickCount     int
	tradeCount    int
	bookCount     int
}

// NewSymbolMonitor builds a monitor with all calculators wired, or fails
// on the first invalid configuration.
func NewSymbolMonitor(symbol string, config MonitorConfig) (*SymbolMonitor, error) {
	spread, err := metrics.NewSpreadCalculator(config.Spread)
	if err != nil {
		return nil, fmt.Errorf("spread calculator: %w", err)
	}
	depth, err := metrics.NewDepthAnalyzer(config.Depth)
	if err != nil {
		return nil, fmt.Errorf("depth analyzer: %w", err)
	}
	flow, err := metrics.NewFlowImbalanceCalculator(config.Flow)
	if err != nil {
		return nil, fmt.Errorf("flow calculator: %w", err)
	}
	volatility, err := metrics.NewVolatilityAnalyzer(config.Volatility)
	if err != nil {
		return nil, fmt.Errorf("volatility analyzer: %w", err)
	}
	advanced, err := metrics.NewAdvancedCalculator(config.Advanced)
	if err != nil {
		return nil, fmt.Errorf("advanced calculator: %w", err)
	}
	zscore, err := anomaly.NewMultivariateZScoreDetector(config.ZScoreWindow, config.ZScoreThreshold)
	if err != nil {
		return nil, fmt.Errorf("zscore detector: %w", err)
	}
	stuffing, err := anomaly.NewQuoteStuffingDetector(config.QuoteStuffing)
	if err != nil {
		return nil, fmt.Errorf("quote stuffing detector: %w", err)
	}
	adaptiveStuffing, err := anomaly.NewAdaptiveQuoteStuffingDetector(config.QuoteStuffing)
	if err != nil {
		return nil, fmt.Errorf("adaptive stuffing detector: %w", err)
	}
	washTrading, err := anomaly.NewWashTradingDetector(config.WashTrading)
	if err != nil {
		return nil, fmt.Errorf("wash trading detector: %w", err)
	}
	volumeWash, err := anomaly.NewVolumeWashDetector(config.WashTrading)
	if err != nil {
		return nil, fmt.Errorf("volume wash detector: %w", err)
	}
	spoofing, err := anomaly.NewSpoofingDetector(config.Spoofing)
	if err != nil {
		return nil, fmt.Errorf("spoofing detector: %w", err)
	}

	return &SymbolMonitor{
		symbol:           symbol,
		config:           config,
		spread:           spread,
		depth:            depth,
		flow:             flow,
		volatility:       volatility,
		advanced:         advanced,
		classifier:       metrics.NewLeeReadyClassifier(),
		bulkVolume:       metrics.NewBulkVolumeClassifier(),
		zscore:           zscore,
		stuffing:         stuffing,
		adaptiveStuffing: adaptiveStuffing,
		washTrading:      washTrading,
		volumeWash:       volumeWash,
		spoofing:         spoofing,
	}, nil
}

// SetOracle attaches an ensemble scorer. Pass nil to detach.
func (m *SymbolMonitor) SetOracle(ensemble *anomaly.EnsembleScorer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensemble = ensemble
}

// Symbol returns the monitored symbol.
func (m *SymbolMonitor) Symbol() string {
	return m.symbol
}

// ApplyTick routes a quote update through every tick-sensitive
// calculator and detector and returns the tick-relevant outcomes.
func (m *SymbolMonitor) ApplyTick(tick models.Tick) TickResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.spread.AddTick(tick)
	m.volatility.AddTick(tick)
	m.advanced.AddTick(tick)
	m.stuffing.AddTick(tick)
	m.adaptiveStuffing.AddTick(tick)

	var volatility *float64
	if v, ok := m.volatility.RealizedVolatility(false); ok {
		volatility = &v
	}

	result := TickResult{
		Stuffing: QuoteStuffingOutcome{
			Fixed:    m.stuffing.Detect(),
			Adaptive: m.adaptiveStuffing.Detect(),
		},
		ZScore: m.zscore.DetectTick(tick, volatility),
	}
	m.lastAnomaly = result.ZScore

	if m.ensemble != nil {
		er := m.ensemble.ScoreTick(tick)
		result.Ensemble = &er
	}

	tickCopy := tick
	m.lastTick = &tickCopy
	m.lastEventTime = tick.Timestamp
	m.tickCount++
	return result
}

// ApplyTrade routes a trade through the trade-sensitive calculators and
// detectors. Classification uses the latest quote; without one the
// trade is classified by tick test alone.
func (m *SymbolMonitor) ApplyTrade(trade models.Trade) TradeResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.flow.AddTrade(trade)
	m.advanced.AddTrade(trade)
	m.washTrading.AddTrade(trade)
	m.volumeWash.AddTrade(trade)

	result := TradeResult{
		Wash:       m.washTrading.Detect(),
		VolumeWash: m.volumeWash.Detect(),
	}

	if m.lastTick != nil {
		result.Classification = m.classifier.Classify(trade, *m.lastTick)
		bvc := m.bulkVolume.Classify(trade, *m.lastTick)
		result.BulkVolume = &bvc
	} else {
		result.Classification = m.classifier.Classify(trade, models.Tick{
			Timestamp: trade.Timestamp,
			Symbol:    trade.Symbol,
			Bid:       trade.Price,
			Ask:       trade.Price,
		})
	}

	m.lastEventTime = trade.Timestamp
	m.tradeCount++
	return result
}

// ApplyOrderBook routes a snapshot through the book-sensitive
// calculators and detectors.
func (m *SymbolMonitor) ApplyOrderBook(book models.OrderBook) BookResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.depth.AddOrderBook(book)
	m.flow.AddOrderBook(book)
	m.stuffing.AddOrderBook(book)

	result := BookResult{
		Spoofing: m.spoofing.AddOrderBook(book),
		Stuffing: QuoteStuffingOutcome{
			Fixed:    m.stuffing.Detect(),
			Adaptive: m.adaptiveStuffing.Detect(),
		},
	}

	m.lastEventTime = book.Timestamp
	m.bookCount++
	return result
}

// CurrentMetrics snapshots the aggregated metric record. It reads the
// calculators without mutating any state, so repeated calls between
// events return identical results. The record is absent until at least
// one tick has arrived.
func (m *SymbolMonitor) CurrentMetrics() (models.MarketMetrics, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentMetricsLocked()
}

func (m *SymbolMonitor) currentMetricsLocked() (models.MarketMetrics, bool) {
	spread, ok := m.spread.CurrentSpread()
	if !ok {
		return models.MarketMetrics{}, false
	}
	spreadBps, _ := m.spread.CurrentSpreadBps()

	record := models.MarketMetrics{
		Timestamp: m.lastEventTime,
		Symbol:    m.symbol,
		Spread:    spread,
		SpreadBps: spreadBps,
	}

	if bid, ask, total, ok := m.depth.CurrentDepth(); ok {
		record.BidDepth = bid
		record.AskDepth = ask
		record.TotalDepth = total
	}

	if imbalance, ok := m.flow.TradeFlowImbalance(); ok {
		record.FlowImbalance = imbalance
	}

	if vol, ok := m.volatility.RealizedVolatility(false); ok {
		record.Volatility = &vol
	}

	if z := m.lastAnomaly; len(z.Metrics) > 0 {
		score := z.MaxAbsZ()
		record.AnomalyScore = &score
		record.IsAnomaly = z.IsAnomaly
		record.AnomalyType = strings.Join(z.AnomalyTypes, ",")
	}

	return record, true
}

// DetailedMetrics snapshots the full metric breakdown across every
// calculator.
func (m *SymbolMonitor) DetailedMetrics() DetailedMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	detail := DetailedMetrics{
		Symbol:     m.symbol,
		Timestamp:  m.lastEventTime,
		Flow:       m.flow.Metrics(),
		Volatility: m.volatility.Metrics(),
		Advanced:   m.advanced.Metrics(),
		Quality:    m.qualityScoreLocked(),
		Stress:     m.stressReportLocked(),
	}
	if sm, ok := m.spread.Metrics(); ok {
		detail.Spread = &sm
	}
	if dm, ok := m.depth.Metrics(); ok {
		detail.Depth = &dm
	}
	return detail
}

// StressReport snapshots the boolean stress indicators.
func (m *SymbolMonitor) StressReport() models.StressReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stressReportLocked()
}

func (m *SymbolMonitor) stressReportLocked() models.StressReport {
	return models.StressReport{
		SpreadWidening:       m.spread.IsSpreadWidening(),
		DepthDepletion:       m.depth.IsDepthDepleted(),
		AggressiveBuying:     m.flow.IsAggressiveBuying(),
		AggressiveSelling:    m.flow.IsAggressiveSelling(),
		VolatilityClustering: m.volatility.IsClustering(),
		HighVolatilityRegime: m.volatility.Regime() == metrics.RegimeHigh,
	}
}

// QualityScore condenses market condition into a 0-100 score. Stress
// indicators subtract, a calm regime and deep liquid book add, and the
// result is clamped to [0, 100].
func (m *SymbolMonitor) QualityScore() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.qualityScoreLocked()
}

func (m *SymbolMonitor) qualityScoreLocked() float64 {
	score := 100.0

	if m.spread.IsSpreadWidening() {
		score -= 20
	}
	if m.depth.IsDepthDepleted() {
		score -= 20
	}
	switch m.volatility.Regime() {
	case metrics.RegimeHigh:
		score -= 15
	case metrics.RegimeLow:
		score += 5
	}
	if m.volatility.IsClustering() {
		score -= 10
	}
	if liq, ok := m.depth.LiquidityScore(m.config.Depth.TopLevels); ok && liq > m.config.LiquidityScoreBonus {
		score += 10
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// EventCounts returns how many events of each kind the monitor has seen.
func (m *SymbolMonitor) EventCounts() (ticks, trades, books int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tickCount, m.tradeCount, m.bookCount
}
