package metrics

import (
	"math"

	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/models"
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/window"
)

// Volatility regime labels.
const (
	RegimeLow    = "low"
	RegimeNormal = "normal"
	RegimeHigh   = "high"
)

// VolatilityConfig configures the volatility analyzer.
type VolatilityConfig struct {
	WindowSize          int     // Returns kept for rolling calculations
	EWMALambda          float64 // Decay parameter for EWMA variance
	ClusteringThreshold float64 // Z threshold for the clustering flag
	PeriodsPerYear      float64 // Annualization factor; 0 disables annualization
}

// DefaultVolatilityConfig returns the default configuration.
func DefaultVolatilityConfig() VolatilityConfig {
	return VolatilityConfig{
		WindowSize:          100,
		EWMALambda:          0.94,
		ClusteringThreshold: 1.5,
		PeriodsPerYear:      0,
	}
}

// VolatilityMetrics is the rolling volatility view for one symbol.
type VolatilityMetrics struct {
	RealizedVolatility   *float64 `json:"realized_volatility,omitempty"`
	AnnualizedVolatility *float64 `json:"annualized_volatility,omitempty"`
	EWMAVolatility       *float64 `json:"ewma_volatility,omitempty"`
	ParkinsonVolatility  *float64 `json:"parkinson_volatility,omitempty"`
	IsClustering         bool     `json:"is_clustering"`
	Regime               string   `json:"volatility_regime,omitempty"`
	VolatilityPercentile *float64 `json:"volatility_percentile,omitempty"`
	ReturnCount          int      `json:"num_returns"`
}

// VolatilityAnalyzer maintains rolling log returns computed from
// consecutive mid prices and derives volatility estimates from them.
type VolatilityAnalyzer struct {
	config  VolatilityConfig
	ticks   *window.CountWindow[models.Tick]
	returns *window.CountWindow[float64]
	lastMid float64
}

// NewVolatilityAnalyzer creates a volatility analyzer or fails on an
// invalid configuration.
func NewVolatilityAnalyzer(config VolatilityConfig) (*VolatilityAnalyzer, error) {
	ticks, err := window.NewCountWindow[models.Tick](config.WindowSize)
	if err != nil {
		return nil, err
	}
	returns, err := window.NewCountWindow[float64](config.WindowSize)
	if err != nil {
		return nil, err
	}
	return &VolatilityAnalyzer{config: config, ticks: ticks, returns: returns}, nil
}

// AddTick records a tick and, when both the previous and current mid are
// positive, the log return between them. Non-positive prices are skipped.
func (va *VolatilityAnalyzer) AddTick(tick models.Tick) {
	mid := tick.Mid()
	if va.lastMid > 0 && mid > 0 {
		va.returns.Push(math.Log(mid / va.lastMid))
	}
	va.ticks.Push(tick)
	if mid > 0 {
		va.lastMid = mid
	}
}

// RealizedVolatility returns the population standard deviation of the
// windowed log returns. With annualize set and PeriodsPerYear configured,
// the result is scaled by sqrt(PeriodsPerYear). Undefined below two
// returns.
func (va *VolatilityAnalyzer) RealizedVolatility(annualize bool) (float64, bool) {
	if va.returns.Len() < 2 {
		return 0, false
	}
	vol := stdDev(va.returns.Values())
	if annualize && va.config.PeriodsPerYear > 0 {
		vol *= math.Sqrt(va.config.PeriodsPerYear)
	}
	return vol, true
}

// EWMAVolatility computes the exponentially weighted volatility:
// var_0 = r_0², var_t = λ·var_{t−1} + (1−λ)·r_t². Undefined below two
// returns.
func (va *VolatilityAnalyzer) EWMAVolatility() (float64, bool) {
	returns := va.returns.Values()
	if len(returns) < 2 {
		return 0, false
	}
	ewmaVar := returns[0] * returns[0]
	for _, r := range returns[1:] {
		ewmaVar = va.config.EWMALambda*ewmaVar + (1-va.config.EWMALambda)*r*r
	}
	return math.Sqrt(ewmaVar), true
}

// ParkinsonVolatility estimates volatility from the bid/ask range:
// sqrt(mean(ln(ask/bid)²) / (4·ln 2)). Undefined below two ticks.
func (va *VolatilityAnalyzer) ParkinsonVolatility() (float64, bool) {
	ticks := va.ticks.Values()
	if len(ticks) < 2 {
		return 0, false
	}

	var ratios []float64
	for _, t := range ticks {
		if t.Ask > 0 && t.Bid > 0 {
			r := math.Log(t.Ask / t.Bid)
			ratios = append(ratios, r*r)
		}
	}
	if len(ratios) == 0 {
		return 0, false
	}
	return math.Sqrt(mean(ratios) / (4 * math.Ln2)), true
}

// IsClustering detects volatility clustering: the mean squared return of
// the last 10 observations is z-scored against the remainder; a z above
// the configured threshold flags clustering. Requires at least 20 returns.
func (va *VolatilityAnalyzer) IsClustering() bool {
	returns := va.returns.Values()
	if len(returns) < 20 {
		return false
	}

	squared := make([]float64, len(returns))
	for i, r := range returns {
		squared[i] = r * r
	}

	recent := mean(squared[len(squared)-10:])
	baseline := squared[:len(squared)-10]
	avg := mean(baseline)
	sd := stdDev(baseline)
	if sd == 0 {
		return false
	}
	return (recent-avg)/sd > va.config.ClusteringThreshold
}

// Regime classifies current volatility as low, normal, or high by
// comparing the stddev of the last 10 returns against the prior returns
// at ±30% bands. Empty below 20 returns.
func (va *VolatilityAnalyzer) Regime() string {
	returns := va.returns.Values()
	if len(returns) < 20 {
		return ""
	}

	current := stdDev(returns[len(returns)-10:])
	historical := stdDev(returns[:len(returns)-10])

	switch {
	case current < 0.7*historical:
		return RegimeLow
	case current > 1.3*historical:
		return RegimeHigh
	default:
		return RegimeNormal
	}
}

// VolatilityPercentile ranks the latest 10-return rolling volatility
// against all rolling volatilities in the window, as a 0-100 percentile.
// Undefined below 20 returns.
func (va *VolatilityAnalyzer) VolatilityPercentile() (float64, bool) {
	returns := va.returns.Values()
	if len(returns) < 20 {
		return 0, false
	}

	const subWindow = 10
	rolling := make([]float64, 0, len(returns)-subWindow+1)
	for i := 0; i+subWindow <= len(returns); i++ {
		rolling = append(rolling, stdDev(returns[i:i+subWindow]))
	}

	current := rolling[len(rolling)-1]
	var below, equal int
	for _, v := range rolling {
		if v < current {
			below++
		} else if v == current {
			equal++
		}
	}
	// percentileofscore with the default "mean" interpretation.
	return (float64(below) + float64(equal)/2) / float64(len(rolling)) * 100, true
}

// Metrics assembles the full volatility view.
func (va *VolatilityAnalyzer) Metrics() VolatilityMetrics {
	m := VolatilityMetrics{
		IsClustering: va.IsClustering(),
		Regime:       va.Regime(),
		ReturnCount:  va.returns.Len(),
	}
	if v, ok := va.RealizedVolatility(false); ok {
		m.RealizedVolatility = &v
	}
	if va.config.PeriodsPerYear > 0 {
		if v, ok := va.RealizedVolatility(true); ok {
			m.AnnualizedVolatility = &v
		}
	}
	if v, ok := va.EWMAVolatility(); ok {
		m.EWMAVolatility = &v
	}
	if v, ok := va.ParkinsonVolatility(); ok {
		m.ParkinsonVolatility = &v
	}
	if v, ok := va.VolatilityPercentile(); ok {
		m.VolatilityPercentile = &v
	}
	return m
}
