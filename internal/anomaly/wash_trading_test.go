package anomaly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/models"
)

func washTrade(ts time.Time, side models.Side, price, size float64) models.Trade {
	return models.Trade{
		Timestamp: ts,
		Symbol:    "EUR/USD",
		Price:     price,
		Size:      size,
		Side:      side,
	}
}

func TestWashTradingMatchesOffsettingPair(t *testing.T) {
	d, err := NewWashTradingDetector(DefaultWashTradingConfig())
	require.NoError(t, err)

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	d.AddTrade(washTrade(base, models.SideBuy, 1.0850, 1_000_000))
	d.AddTrade(washTrade(base.Add(2*time.Second), models.SideSell, 1.0850, 1_000_000))

	result := d.Detect()
	assert.True(t, result.IsWashTrading)
	assert.Equal(t, 1, result.MatchedPairs)
	assert.Equal(t, 2, result.TotalTrades)
	require.Len(t, result.SuspiciousPairs, 1)

	pair := result.SuspiciousPairs[0]
	assert.Equal(t, models.SideBuy, pair.Buy.Side)
	assert.Equal(t, models.SideSell, pair.Sell.Side)
	assert.Zero(t, pair.PriceDiff)
	assert.Zero(t, pair.SizeDiff)
	assert.InDelta(t, 2.0, pair.TimeDiff, 1e-9)
}

func TestWashTradingPriceBeyondTolerance(t *testing.T) {
	d, err := NewWashTradingDetector(DefaultWashTradingConfig())
	require.NoError(t, err)

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	d.AddTrade(washTrade(base, models.SideBuy, 1.0850, 1_000_000))
	// 0.0005 apart, well beyond the 0.0001 price tolerance.
	d.AddTrade(washTrade(base.Add(time.Second), models.SideSell, 1.0855, 1_000_000))

	result := d.Detect()
	assert.False(t, result.IsWashTrading)
	assert.Zero(t, result.MatchedPairs)
}

func TestWashTradingSizeBeyondTolerance(t *testing.T) {
	d, err := NewWashTradingDetector(DefaultWashTradingConfig())
	require.NoError(t, err)

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	d.AddTrade(washTrade(base, models.SideBuy, 1.0850, 1_000_000))
	// Size differs by 50% of the average, far over the 10% tolerance.
	d.AddTrade(washTrade(base.Add(time.Second), models.SideSell, 1.0850, 600_000))

	result := d.Detect()
	assert.False(t, result.IsWashTrading)
}

func TestWashTradingSameSideNeverMatches(t *testing.T) {
	d, err := NewWashTradingDetector(DefaultWashTradingConfig())
	require.NoError(t, err)

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	d.AddTrade(washTrade(base, models.SideBuy, 1.0850, 1_000_000))
	d.AddTrade(washTrade(base.Add(time.Second), models.SideBuy, 1.0850, 1_000_000))

	result := d.Detect()
	assert.False(t, result.IsWashTrading)
	assert.Zero(t, result.MatchedPairs)
}

func TestWashTradingReportedPairsCapped(t *testing.T) {
	d, err := NewWashTradingDetector(DefaultWashTradingConfig())
	require.NoError(t, err)

	// 4 identical buys x 4 identical sells = 16 cross-matched pairs,
	// but only MaxReportedPairs are carried in the result.
	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		d.AddTrade(washTrade(base.Add(time.Duration(i)*time.Second), models.SideBuy, 1.0850, 1_000_000))
		d.AddTrade(washTrade(base.Add(time.Duration(i)*time.Second+500*time.Millisecond), models.SideSell, 1.0850, 1_000_000))
	}

	result := d.Detect()
	assert.True(t, result.IsWashTrading)
	assert.Equal(t, 16, result.MatchedPairs)
	assert.Len(t, result.SuspiciousPairs, 5)
	assert.Equal(t, 16, d.WashTradeCount())
}

func TestWashTradingWindowEviction(t *testing.T) {
	d, err := NewWashTradingDetector(DefaultWashTradingConfig())
	require.NoError(t, err)

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	d.AddTrade(washTrade(base, models.SideBuy, 1.0850, 1_000_000))
	// The matching sell arrives after the buy has aged out of the window.
	d.AddTrade(washTrade(base.Add(90*time.Second), models.SideSell, 1.0850, 1_000_000))

	result := d.Detect()
	assert.False(t, result.IsWashTrading)
	assert.Equal(t, 1, result.TotalTrades)
}

func TestVolumeWashBalancedFlowFlags(t *testing.T) {
	d, err := NewVolumeWashDetector(DefaultWashTradingConfig())
	require.NoError(t, err)

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		side := models.SideBuy
		if i%2 == 1 {
			side = models.SideSell
		}
		d.AddTrade(washTrade(base.Add(time.Duration(i)*time.Second), side, 1.0850, 1_000_000))
	}

	result := d.Detect()
	assert.True(t, result.IsWashTrading)
	assert.Zero(t, result.VolumeImbalance)
	assert.Equal(t, 12, result.TradeCount)
	assert.Equal(t, 1, result.TotalWashEvents)
}

func TestVolumeWashNeedsMinimumTrades(t *testing.T) {
	d, err := NewVolumeWashDetector(DefaultWashTradingConfig())
	require.NoError(t, err)

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		side := models.SideBuy
		if i%2 == 1 {
			side = models.SideSell
		}
		d.AddTrade(washTrade(base.Add(time.Duration(i)*time.Second), side, 1.0850, 1_000_000))
	}

	result := d.Detect()
	assert.False(t, result.IsWashTrading)
	assert.Equal(t, 3, result.TradeCount)
}

func TestVolumeWashOneSidedFlowNotFlagged(t *testing.T) {
	d, err := NewVolumeWashDetector(DefaultWashTradingConfig())
	require.NoError(t, err)

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		d.AddTrade(washTrade(base.Add(time.Duration(i)*time.Second), models.SideBuy, 1.0850, 1_000_000))
	}

	result := d.Detect()
	assert.False(t, result.IsWashTrading)
	assert.Equal(t, 1.0, result.VolumeImbalance)
}
