package anomaly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/models"
)

func TestZScoreUndefinedBelowTwoSamples(t *testing.T) {
	d, err := NewZScoreDetector(100, 3.0)
	require.NoError(t, err)

	_, ok := d.Score(10.0)
	assert.False(t, ok)

	d.Add(10.0)
	_, ok = d.Score(10.0)
	assert.False(t, ok)

	d.Add(11.0)
	_, ok = d.Score(10.0)
	assert.True(t, ok)
}

func TestZScoreZeroVarianceConvention(t *testing.T) {
	d, err := NewZScoreDetector(100, 3.0)
	require.NoError(t, err)

	// Twenty identical samples, then an extreme value: zero stddev
	// yields z = 0 rather than a blowup, so no anomaly.
	for i := 0; i < 20; i++ {
		d.Add(10.0)
	}

	z, ok := d.Score(50.0)
	require.True(t, ok)
	assert.Zero(t, z)
	assert.False(t, d.IsAnomaly(z, ok))
}

func TestZScoreFlagsOutlier(t *testing.T) {
	d, err := NewZScoreDetector(100, 3.0)
	require.NoError(t, err)

	// Alternating values with nonzero variance.
	for i := 0; i < 50; i++ {
		if i%2 == 0 {
			d.Add(10.0)
		} else {
			d.Add(11.0)
		}
	}

	z, ok := d.Score(30.0)
	require.True(t, ok)
	assert.Greater(t, z, 3.0)
	assert.True(t, d.IsAnomaly(z, ok))
	assert.Equal(t, 1, d.AnomalyCount())
}

func TestDetectAndUpdateScoresBeforeAdding(t *testing.T) {
	d, err := NewZScoreDetector(100, 3.0)
	require.NoError(t, err)

	d.Add(10.0)
	d.Add(10.0)
	d.Add(10.0)

	// The outlier is scored against the history that excludes it.
	result := d.DetectAndUpdate(30.0)
	require.NotNil(t, result.ZScore)
	assert.Zero(t, *result.ZScore) // zero-variance history
	assert.False(t, result.IsAnomaly)

	// It is now part of the window, so variance is nonzero.
	result = d.DetectAndUpdate(10.0)
	require.NotNil(t, result.ZScore)
	assert.NotZero(t, *result.ZScore)
}

func TestZScoreRejectsBadThreshold(t *testing.T) {
	_, err := NewZScoreDetector(100, 0)
	require.Error(t, err)
	_, err = NewZScoreDetector(100, -1)
	require.Error(t, err)
}

func TestMultivariateDetectTick(t *testing.T) {
	m, err := NewMultivariateZScoreDetector(100, 3.0)
	require.NoError(t, err)

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		bid := 1.0850
		if i%2 == 0 {
			bid = 1.0849
		}
		m.DetectTick(models.Tick{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Symbol:    "EUR/USD",
			Bid:       bid,
			Ask:       1.0852,
			BidSize:   1_000_000,
			AskSize:   1_000_000,
		}, nil)
	}

	// A blown-out spread against a calm history.
	result := m.DetectTick(models.Tick{
		Timestamp: base.Add(31 * time.Second),
		Symbol:    "EUR/USD",
		Bid:       1.0750,
		Ask:       1.0952,
		BidSize:   1_000_000,
		AskSize:   1_000_000,
	}, nil)

	assert.True(t, result.IsAnomaly)
	assert.Contains(t, result.AnomalyTypes, MetricSpread)
	assert.Greater(t, result.MaxAbsZ(), 3.0)
}

func TestMultivariateVolatilityShockFlags(t *testing.T) {
	m, err := NewMultivariateZScoreDetector(100, 3.0)
	require.NoError(t, err)

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	calm := models.Tick{
		Symbol:  "EUR/USD",
		Bid:     1.0850,
		Ask:     1.0852,
		BidSize: 1_000_000,
		AskSize: 1_000_000,
	}

	// Calm history with mildly varying realized volatility.
	for i := 0; i < 30; i++ {
		tick := calm
		tick.Timestamp = base.Add(time.Duration(i) * time.Second)
		vol := 0.0001
		if i%2 == 0 {
			vol = 0.00012
		}
		m.DetectTick(tick, &vol)
	}

	shock := 0.05
	tick := calm
	tick.Timestamp = base.Add(31 * time.Second)
	result := m.DetectTick(tick, &shock)

	assert.True(t, result.IsAnomaly)
	assert.Contains(t, result.AnomalyTypes, MetricVolatility)
}

func TestMultivariateVolatilityAbsentWithoutSamples(t *testing.T) {
	m, err := NewMultivariateZScoreDetector(100, 3.0)
	require.NoError(t, err)

	result := m.DetectTick(models.Tick{
		Timestamp: time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
		Symbol:    "EUR/USD",
		Bid:       1.0850,
		Ask:       1.0852,
	}, nil)

	_, present := result.Metrics[MetricVolatility]
	assert.False(t, present)
}

func TestMultivariateAnomalyCounts(t *testing.T) {
	m, err := NewMultivariateZScoreDetector(100, 3.0)
	require.NoError(t, err)

	counts := m.AnomalyCounts()
	assert.Zero(t, counts[MetricSpread])
	assert.Zero(t, counts[MetricDepth])
	assert.Zero(t, counts[MetricImbalance])
	assert.Zero(t, counts[MetricVolatility])
}
