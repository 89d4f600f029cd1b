package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/models"
)

func midTick(mid float64) models.Tick {
	half := 0.0001
	return models.Tick{
		Timestamp: time.Now(),
		Symbol:    "EUR/USD",
		Bid:       mid - half,
		Ask:       mid + half,
		BidSize:   1_000_000,
		AskSize:   1_000_000,
	}
}

func TestRealizedVolatilityNeedsTwoReturns(t *testing.T) {
	va, err := NewVolatilityAnalyzer(DefaultVolatilityConfig())
	require.NoError(t, err)

	va.AddTick(midTick(1.0851))
	va.AddTick(midTick(1.0852))
	// One return so far.
	_, ok := va.RealizedVolatility(false)
	assert.False(t, ok)

	va.AddTick(midTick(1.0853))
	vol, ok := va.RealizedVolatility(false)
	require.True(t, ok)
	assert.Greater(t, vol, 0.0)
}

func TestRealizedVolatilityConstantPriceIsZero(t *testing.T) {
	va, err := NewVolatilityAnalyzer(DefaultVolatilityConfig())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		va.AddTick(midTick(1.0851))
	}
	vol, ok := va.RealizedVolatility(false)
	require.True(t, ok)
	assert.Zero(t, vol)
}

func TestRealizedVolatilityAnnualization(t *testing.T) {
	cfg := DefaultVolatilityConfig()
	cfg.PeriodsPerYear = 252
	va, err := NewVolatilityAnalyzer(cfg)
	require.NoError(t, err)

	va.AddTick(midTick(1.0000))
	va.AddTick(midTick(1.0100))
	va.AddTick(midTick(1.0000))

	plain, ok := va.RealizedVolatility(false)
	require.True(t, ok)
	annualized, ok := va.RealizedVolatility(true)
	require.True(t, ok)
	assert.InDelta(t, plain*math.Sqrt(252), annualized, 1e-12)
}

func TestNonPositiveMidIsSkipped(t *testing.T) {
	va, err := NewVolatilityAnalyzer(DefaultVolatilityConfig())
	require.NoError(t, err)

	va.AddTick(midTick(1.0851))
	va.AddTick(models.Tick{Timestamp: time.Now(), Symbol: "EUR/USD"}) // zero mid
	va.AddTick(midTick(1.0852))
	va.AddTick(midTick(1.0853))

	// The zero-mid tick contributes no return; the 1.0851->1.0852 and
	// 1.0852->1.0853 returns survive.
	vol, ok := va.RealizedVolatility(false)
	require.True(t, ok)
	assert.GreaterOrEqual(t, vol, 0.0)
	assert.Equal(t, 2, va.Metrics().ReturnCount)
}

func TestEWMAVolatility(t *testing.T) {
	va, err := NewVolatilityAnalyzer(DefaultVolatilityConfig())
	require.NoError(t, err)

	va.AddTick(midTick(1.0000))
	va.AddTick(midTick(1.0100))
	va.AddTick(midTick(1.0200))

	ewma, ok := va.EWMAVolatility()
	require.True(t, ok)
	assert.Greater(t, ewma, 0.0)
}

func TestParkinsonVolatility(t *testing.T) {
	va, err := NewVolatilityAnalyzer(DefaultVolatilityConfig())
	require.NoError(t, err)

	va.AddTick(midTick(1.0851))
	va.AddTick(midTick(1.0851))

	pv, ok := va.ParkinsonVolatility()
	require.True(t, ok)

	r := math.Log((1.0851 + 0.0001) / (1.0851 - 0.0001))
	want := math.Sqrt(r * r / (4 * math.Ln2))
	assert.InDelta(t, want, pv, 1e-12)
}

func TestRegimeClassification(t *testing.T) {
	va, err := NewVolatilityAnalyzer(DefaultVolatilityConfig())
	require.NoError(t, err)

	assert.Empty(t, va.Regime())

	// Calm alternation, then a burst of large moves for the last 10
	// returns.
	price := 1.0000
	for i := 0; i < 15; i++ {
		price += 0.0001
		va.AddTick(midTick(price))
		price -= 0.0001
		va.AddTick(midTick(price))
	}
	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			price += 0.01
		} else {
			price -= 0.01
		}
		va.AddTick(midTick(price))
	}

	assert.Equal(t, RegimeHigh, va.Regime())
	assert.True(t, va.IsClustering())
}

func TestVolatilityPercentileHighAfterBurst(t *testing.T) {
	va, err := NewVolatilityAnalyzer(DefaultVolatilityConfig())
	require.NoError(t, err)

	_, ok := va.VolatilityPercentile()
	assert.False(t, ok)

	price := 1.0000
	for i := 0; i < 30; i++ {
		price += 0.0001
		va.AddTick(midTick(price))
	}
	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			price += 0.01
		} else {
			price -= 0.01
		}
		va.AddTick(midTick(price))
	}

	pct, ok := va.VolatilityPercentile()
	require.True(t, ok)
	assert.Greater(t, pct, 90.0)
}
