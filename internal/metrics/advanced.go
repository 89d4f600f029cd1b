package metrics

import (
	"math"
	"time"

	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/models"
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/window"
)

// AdvancedConfig configures the advanced liquidity calculators.
type AdvancedConfig struct {
	LambdaWindowSize int           // Trades kept for Kyle's Lambda
	AmihudWindow     time.Duration // Time window for Amihud illiquidity
}

// DefaultAdvancedConfig returns the default configuration.
func DefaultAdvancedConfig() AdvancedConfig {
	return AdvancedConfig{
		LambdaWindowSize: 100,
		AmihudWindow:     60 * time.Minute,
	}
}

// AdvancedMetrics is the price-impact and illiquidity view for one symbol.
type AdvancedMetrics struct {
	KylesLambda       *float64 `json:"kyles_lambda,omitempty"`
	AmihudIlliquidity *float64 `json:"amihud_illiquidity,omitempty"`
	LiquidityScore    *float64 `json:"advanced_liquidity_score,omitempty"`
	TradeCount        int      `json:"num_trades"`
}

type lambdaObservation struct {
	priceChange  float64
	signedVolume float64
}

type amihudPoint struct {
	timestamp time.Time
	price     float64
	volume    float64
}

// AdvancedCalculator computes Kyle's Lambda from trades and the Amihud
// illiquidity ratio from tick mid prices and quoted sizes.
type AdvancedCalculator struct {
	config    AdvancedConfig
	lambdaObs *window.CountWindow[lambdaObservation]
	amihud    *window.TimeWindow[amihudPoint]
	prevPrice float64
	havePrev  bool
}

// NewAdvancedCalculator creates the calculator or fails on an invalid
// configuration.
func NewAdvancedCalculator(config AdvancedConfig) (*AdvancedCalculator, error) {
	lambdaObs, err := window.NewCountWindow[lambdaObservation](config.LambdaWindowSize)
	if err != nil {
		return nil, err
	}
	amihud, err := window.NewTimeWindow[amihudPoint](config.AmihudWindow, func(p amihudPoint) time.Time {
		return p.timestamp
	})
	if err != nil {
		return nil, err
	}
	return &AdvancedCalculator{config: config, lambdaObs: lambdaObs, amihud: amihud}, nil
}

// AddTrade records a trade for Kyle's Lambda. The first trade only seeds
// the previous price.
func (ac *AdvancedCalculator) AddTrade(trade models.Trade) {
	if ac.havePrev {
		ac.lambdaObs.Push(lambdaObservation{
			priceChange:  trade.Price - ac.prevPrice,
			signedVolume: trade.SignedSize(),
		})
	}
	ac.prevPrice = trade.Price
	ac.havePrev = true
}

// AddTick records a tick for the Amihud ratio, using the mid price and the
// combined quoted size as the volume proxy.
func (ac *AdvancedCalculator) AddTick(tick models.Tick) {
	ac.amihud.Push(amihudPoint{
		timestamp: tick.Timestamp,
		price:     tick.Mid(),
		volume:    tick.BidSize + tick.AskSize,
	})
}

// KylesLambda returns Cov(ΔP, Q)/Var(Q) over the trade window, where Q is
// signed volume. Absent below 10 observations or with zero variance.
func (ac *AdvancedCalculator) KylesLambda() (float64, bool) {
	obs := ac.lambdaObs.Values()
	if len(obs) < 10 {
		return 0, false
	}

	changes := make([]float64, len(obs))
	volumes := make([]float64, len(obs))
	for i, o := range obs {
		changes[i] = o.priceChange
		volumes[i] = o.signedVolume
	}

	varQ := variance(volumes)
	if varQ == 0 {
		return 0, false
	}
	return covariance(changes, volumes) / varQ, true
}

// AmihudIlliquidity returns the mean |return| per unit dollar volume over
// the time window, skipping intervals with zero price or zero dollar
// volume. Absent below two points or with no usable intervals.
func (ac *AdvancedCalculator) AmihudIlliquidity() (float64, bool) {
	points := ac.amihud.Values()
	if len(points) < 2 {
		return 0, false
	}

	var values []float64
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		if prev.price == 0 {
			continue
		}
		ret := math.Abs((cur.price - prev.price) / prev.price)
		dollarVolume := cur.volume * cur.price
		if dollarVolume == 0 {
			continue
		}
		values = append(values, ret/dollarVolume)
	}
	if len(values) == 0 {
		return 0, false
	}
	return mean(values), true
}

// LiquidityScore combines lambda and illiquidity into a 0-100 score, with
// higher meaning better liquidity. Band boundaries follow the reference
// calibration for major FX pairs. Absent when both inputs are absent.
func (ac *AdvancedCalculator) LiquidityScore() (float64, bool) {
	lambda, haveLambda := ac.KylesLambda()
	illiq, haveIlliq := ac.AmihudIlliquidity()
	if !haveLambda && !haveIlliq {
		return 0, false
	}

	score := 50.0
	if haveLambda {
		switch {
		case lambda < 0.0001:
			score += 25
		case lambda < 0.001:
			score += 15
		case lambda > 0.01:
			score -= 25
		}
	}
	if haveIlliq {
		switch {
		case illiq < 0.00001:
			score += 25
		case illiq < 0.0001:
			score += 15
		case illiq > 0.001:
			score -= 25
		}
	}
	return math.Max(0, math.Min(100, score)), true
}

// Metrics assembles the advanced metrics view.
func (ac *AdvancedCalculator) Metrics() AdvancedMetrics {
	m := AdvancedMetrics{TradeCount: ac.lambdaObs.Len()}
	if v, ok := ac.KylesLambda(); ok {
		m.KylesLambda = &v
	}
	if v, ok := ac.AmihudIlliquidity(); ok {
		m.AmihudIlliquidity = &v
	}
	if v, ok := ac.LiquidityScore(); ok {
		m.LiquidityScore = &v
	}
	return m
}
