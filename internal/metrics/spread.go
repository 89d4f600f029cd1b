package metrics

import (
	"math"

	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/models"
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/window"
)

// SpreadConfig configures the spread calculator.
type SpreadConfig struct {
	WindowSize          int     // Number of ticks for rolling calculations
	WideningMultiplier  float64 // Stddevs above mean to flag widening
	ReportingPercentile float64 // Percentile reported in SpreadMetrics
}

// DefaultSpreadConfig returns the default configuration.
func DefaultSpreadConfig() SpreadConfig {
	return SpreadConfig{
		WindowSize:          100,
		WideningMultiplier:  2.0,
		ReportingPercentile: 95,
	}
}

// SpreadMetrics is the rolling spread view for one symbol.
type SpreadMetrics struct {
	CurrentSpread    float64 `json:"current_spread"`
	CurrentSpreadBps float64 `json:"current_spread_bps"`
	AverageSpread    float64 `json:"average_spread"`
	AverageSpreadBps float64 `json:"average_spread_bps"`
	SpreadVolatility float64 `json:"spread_volatility"`
	RelativeSpread   float64 `json:"relative_spread"`
	SpreadPercentile float64 `json:"spread_percentile"`
	IsSpreadWidening bool    `json:"is_spread_widening"`
	WindowSize       int     `json:"window_size"`
}

// SpreadCalculator maintains a rolling window of ticks and derives spread
// statistics from it.
type SpreadCalculator struct {
	config SpreadConfig
	ticks  *window.CountWindow[models.Tick]
}

// NewSpreadCalculator creates a spread calculator or fails on an invalid
// configuration.
func NewSpreadCalculator(config SpreadConfig) (*SpreadCalculator, error) {
	w, err := window.NewCountWindow[models.Tick](config.WindowSize)
	if err != nil {
		return nil, err
	}
	return &SpreadCalculator{config: config, ticks: w}, nil
}

// AddTick pushes a new tick into the rolling window.
func (sc *SpreadCalculator) AddTick(tick models.Tick) {
	sc.ticks.Push(tick)
}

// CurrentSpread returns the spread of the latest tick.
func (sc *SpreadCalculator) CurrentSpread() (float64, bool) {
	last, ok := sc.ticks.Last()
	if !ok {
		return 0, false
	}
	return last.Spread(), true
}

// CurrentSpreadBps returns the latest spread in basis points.
func (sc *SpreadCalculator) CurrentSpreadBps() (float64, bool) {
	last, ok := sc.ticks.Last()
	if !ok {
		return 0, false
	}
	return last.SpreadBps(), true
}

// AverageSpread returns the mean spread over the window.
func (sc *SpreadCalculator) AverageSpread() (float64, bool) {
	if sc.ticks.Len() == 0 {
		return 0, false
	}
	return mean(sc.spreads()), true
}

// SpreadVolatility returns the population standard deviation of spreads
// over the window. Undefined below two samples.
func (sc *SpreadCalculator) SpreadVolatility() (float64, bool) {
	if sc.ticks.Len() < 2 {
		return 0, false
	}
	return stdDev(sc.spreads()), true
}

// RelativeSpread returns spread / mid of the latest tick.
func (sc *SpreadCalculator) RelativeSpread() (float64, bool) {
	last, ok := sc.ticks.Last()
	if !ok {
		return 0, false
	}
	mid := last.Mid()
	if mid == 0 {
		return 0, false
	}
	return last.Spread() / mid, true
}

// EffectiveSpread returns 2·|trade price − latest mid|.
func (sc *SpreadCalculator) EffectiveSpread(tradePrice float64) (float64, bool) {
	last, ok := sc.ticks.Last()
	if !ok {
		return 0, false
	}
	return 2 * math.Abs(tradePrice-last.Mid()), true
}

// RealizedSpread returns 2·direction·(trade price − future mid), with
// direction +1 for buys and −1 for sells.
func (sc *SpreadCalculator) RealizedSpread(tradePrice float64, side models.Side, futureMid float64) float64 {
	direction := 1.0
	if side == models.SideSell {
		direction = -1.0
	}
	return 2 * direction * (tradePrice - futureMid)
}

// SpreadPercentile returns the p-th percentile of windowed spreads using
// linear interpolation between closest ranks.
func (sc *SpreadCalculator) SpreadPercentile(p float64) (float64, bool) {
	if sc.ticks.Len() == 0 {
		return 0, false
	}
	return percentile(sc.spreads(), p), true
}

// IsSpreadWidening reports whether the current spread exceeds
// mean + multiplier·stddev over the window. Requires at least 10 samples.
func (sc *SpreadCalculator) IsSpreadWidening() bool {
	if sc.ticks.Len() < 10 {
		return false
	}
	spreads := sc.spreads()
	current := spreads[len(spreads)-1]
	threshold := mean(spreads) + sc.config.WideningMultiplier*stdDev(spreads)
	return current > threshold
}

// Metrics assembles the full spread view, or reports absence while the
// window is empty.
func (sc *SpreadCalculator) Metrics() (SpreadMetrics, bool) {
	last, ok := sc.ticks.Last()
	if !ok {
		return SpreadMetrics{}, false
	}

	avg, _ := sc.AverageSpread()
	vol, _ := sc.SpreadVolatility()
	rel, _ := sc.RelativeSpread()
	pct, _ := sc.SpreadPercentile(sc.config.ReportingPercentile)

	ticks := sc.ticks.Values()
	bps := make([]float64, len(ticks))
	for i, t := range ticks {
		bps[i] = t.SpreadBps()
	}
	avgBps := mean(bps)

	return SpreadMetrics{
		CurrentSpread:    last.Spread(),
		CurrentSpreadBps: last.SpreadBps(),
		AverageSpread:    avg,
		AverageSpreadBps: avgBps,
		SpreadVolatility: vol,
		RelativeSpread:   rel,
		SpreadPercentile: pct,
		IsSpreadWidening: sc.IsSpreadWidening(),
		WindowSize:       sc.ticks.Len(),
	}, true
}

func (sc *SpreadCalculator) spreads() []float64 {
	ticks := sc.ticks.Values()
	out := make([]float64, len(ticks))
	for i, t := range ticks {
		out[i] = t.Spread()
	}
	return out
}
