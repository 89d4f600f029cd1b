package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/anomaly"
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/models"
)

func newTestMonitor(t *testing.T) *SymbolMonitor {
	t.Helper()
	m, err := NewSymbolMonitor("EUR/USD", DefaultMonitorConfig())
	require.NoError(t, err)
	return m
}

func monitorTick(ts time.Time, bid, ask float64) models.Tick {
	return models.Tick{
		Timestamp: ts,
		Symbol:    "EUR/USD",
		Bid:       bid,
		Ask:       ask,
		BidSize:   1_000_000,
		AskSize:   1_000_000,
	}
}

func TestMonitorMetricsAbsentBeforeTicks(t *testing.T) {
	m := newTestMonitor(t)

	_, ok := m.CurrentMetrics()
	assert.False(t, ok)
}

func TestMonitorMetricsAfterTick(t *testing.T) {
	m := newTestMonitor(t)
	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	m.ApplyTick(monitorTick(base, 1.0850, 1.0852))

	record, ok := m.CurrentMetrics()
	require.True(t, ok)
	assert.Equal(t, "EUR/USD", record.Symbol)
	assert.Equal(t, base, record.Timestamp)
	assert.InDelta(t, 0.0002, record.Spread, 1e-9)
	assert.InDelta(t, 1.8432, record.SpreadBps, 1e-3)
}

func TestMonitorCurrentMetricsIdempotent(t *testing.T) {
	m := newTestMonitor(t)
	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		m.ApplyTick(monitorTick(base.Add(time.Duration(i)*time.Second), 1.0850, 1.0852))
	}

	first, ok := m.CurrentMetrics()
	require.True(t, ok)
	second, ok := m.CurrentMetrics()
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestMonitorTradeClassificationWithQuote(t *testing.T) {
	m := newTestMonitor(t)
	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	m.ApplyTick(monitorTick(base, 1.0850, 1.0852))

	result := m.ApplyTrade(models.Trade{
		Timestamp: base.Add(time.Second),
		Symbol:    "EUR/USD",
		Price:     1.0852, // at the ask
		Size:      1_000_000,
		Side:      models.SideBuy,
	})

	assert.Equal(t, models.SideBuy, result.Classification.Side)
	require.NotNil(t, result.BulkVolume)
	assert.Equal(t, 1.0, result.BulkVolume.BuyProportion)
}

func TestMonitorTradeBeforeAnyQuote(t *testing.T) {
	m := newTestMonitor(t)
	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	// No quote yet: tick-test fallback, no bulk volume view.
	result := m.ApplyTrade(models.Trade{
		Timestamp: base,
		Symbol:    "EUR/USD",
		Price:     1.0851,
		Size:      1_000_000,
		Side:      models.SideBuy,
	})
	assert.Nil(t, result.BulkVolume)
}

func TestMonitorOrderBookFeedsDepth(t *testing.T) {
	m := newTestMonitor(t)
	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	m.ApplyTick(monitorTick(base, 1.0850, 1.0852))

	m.ApplyOrderBook(models.OrderBook{
		Timestamp: base.Add(time.Second),
		Symbol:    "EUR/USD",
		Bids:      []models.OrderBookLevel{{Price: 1.0850, Size: 2_000_000}},
		Asks:      []models.OrderBookLevel{{Price: 1.0852, Size: 1_000_000}},
	})

	record, ok := m.CurrentMetrics()
	require.True(t, ok)
	assert.Equal(t, 2_000_000.0, record.BidDepth)
	assert.Equal(t, 1_000_000.0, record.AskDepth)
	assert.Equal(t, 3_000_000.0, record.TotalDepth)
}

func TestMonitorQualityScoreRange(t *testing.T) {
	m := newTestMonitor(t)
	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	score := m.QualityScore()
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)

	for i := 0; i < 50; i++ {
		m.ApplyTick(monitorTick(base.Add(time.Duration(i)*time.Second), 1.0850, 1.0852))
	}
	score = m.QualityScore()
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
}

func TestMonitorStressReportQuietMarket(t *testing.T) {
	m := newTestMonitor(t)
	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		m.ApplyTick(monitorTick(base.Add(time.Duration(i)*time.Second), 1.0850, 1.0852))
	}

	report := m.StressReport()
	assert.False(t, report.SpreadWidening)
	assert.False(t, report.DepthDepletion)
	assert.False(t, report.VolatilityClustering)
	assert.False(t, report.Any())
}

func TestMonitorEventCounts(t *testing.T) {
	m := newTestMonitor(t)
	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	m.ApplyTick(monitorTick(base, 1.0850, 1.0852))
	m.ApplyTick(monitorTick(base.Add(time.Second), 1.0850, 1.0852))
	m.ApplyTrade(models.Trade{Timestamp: base.Add(2 * time.Second), Symbol: "EUR/USD", Price: 1.0851, Size: 1, Side: models.SideBuy})
	m.ApplyOrderBook(models.OrderBook{Timestamp: base.Add(3 * time.Second), Symbol: "EUR/USD"})

	ticks, trades, books := m.EventCounts()
	assert.Equal(t, 2, ticks)
	assert.Equal(t, 1, trades)
	assert.Equal(t, 1, books)
}

func TestMonitorVolatilityFeedsZScoreDetector(t *testing.T) {
	m := newTestMonitor(t)
	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	// Realized volatility needs two returns, so the volatility metric
	// joins the multivariate scan from the third tick on.
	result := m.ApplyTick(monitorTick(base, 1.0850, 1.0852))
	_, present := result.ZScore.Metrics[anomaly.MetricVolatility]
	assert.False(t, present)

	m.ApplyTick(monitorTick(base.Add(time.Second), 1.0850, 1.0852))
	result = m.ApplyTick(monitorTick(base.Add(2*time.Second), 1.0850, 1.0852))
	_, present = result.ZScore.Metrics[anomaly.MetricVolatility]
	assert.True(t, present)
}

func TestMonitorEnsembleAttached(t *testing.T) {
	m := newTestMonitor(t)
	m.SetOracle(anomaly.NewEnsembleScorer(
		anomaly.DefaultEnsembleConfig(),
		anomaly.NewZScoreOracle(100, 3.0),
		anomaly.NewZScoreOracle(100, 3.0),
		anomaly.NewZScoreOracle(100, 3.0),
	))

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	result := m.ApplyTick(monitorTick(base, 1.0850, 1.0852))
	require.NotNil(t, result.Ensemble)
	assert.False(t, result.Ensemble.IsAnomaly)
}
