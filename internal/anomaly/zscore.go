// Package anomaly contains the statistical and rule-based detectors that
// consume the rolling metric streams: z-score outlier detection, quote
// stuffing, wash trading, spoofing, and the pluggable scoring oracle.
package anomaly

import (
	"fmt"

	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/models"
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/window"
)

// ZScoreResult is the outcome of scoring one value.
type ZScoreResult struct {
	Value     float64  `json:"value"`
	ZScore    *float64 `json:"zscore,omitempty"` // nil below two samples
	IsAnomaly bool     `json:"is_anomaly"`
	Threshold float64  `json:"threshold"`
}

// ZScoreDetector flags values whose z-score against a rolling window
// exceeds a threshold.
//
// Conventions: below two samples the score is undefined and the value is
// never an anomaly ("no opinion yet"); a zero-variance window yields z=0
// rather than a division error.
type ZScoreDetector struct {
	threshold    float64
	values       *window.CountWindow[float64]
	anomalyCount int
}

// NewZScoreDetector creates a detector or fails on an invalid
// configuration.
func NewZScoreDetector(windowSize int, threshold float64) (*ZScoreDetector, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("zscore threshold must be positive, got %f", threshold)
	}
	w, err := window.NewCountWindow[float64](windowSize)
	if err != nil {
		return nil, err
	}
	return &ZScoreDetector{threshold: threshold, values: w}, nil
}

// MustZScoreDetector is NewZScoreDetector for callers with known-good
// parameters; it panics on error.
func MustZScoreDetector(windowSize int, threshold float64) *ZScoreDetector {
	d, err := NewZScoreDetector(windowSize, threshold)
	if err != nil {
		panic(err)
	}
	return d
}

// Add pushes a value into the rolling window without scoring it.
func (d *ZScoreDetector) Add(value float64) {
	d.values.Push(value)
}

// Score returns the z-score of value against the current window, without
// updating it. ok is false below two samples.
func (d *ZScoreDetector) Score(value float64) (z float64, ok bool) {
	vals := d.values.Values()
	if len(vals) < 2 {
		return 0, false
	}
	sd := stdDevOf(vals)
	if sd == 0 {
		return 0, true
	}
	return (value - meanOf(vals)) / sd, true
}

// IsAnomaly reports whether |z| exceeds the threshold and counts it.
func (d *ZScoreDetector) IsAnomaly(z float64, ok bool) bool {
	if !ok {
		return false
	}
	if z < -d.threshold || z > d.threshold {
		d.anomalyCount++
		return true
	}
	return false
}

// DetectAndUpdate scores a value against the window, then adds it.
func (d *ZScoreDetector) DetectAndUpdate(value float64) ZScoreResult {
	z, ok := d.Score(value)
	isAnom := d.IsAnomaly(z, ok)
	d.Add(value)

	result := ZScoreResult{
		Value:     value,
		IsAnomaly: isAnom,
		Threshold: d.threshold,
	}
	if ok {
		result.ZScore = &z
	}
	return result
}

// AnomalyCount returns the number of anomalies flagged so far.
func (d *ZScoreDetector) AnomalyCount() int {
	return d.anomalyCount
}

// Monitored metric names for the multivariate detector.
const (
	MetricSpread     = "spread"
	MetricDepth      = "depth"
	MetricImbalance  = "imbalance"
	MetricVolatility = "volatility"
)

// MultivariateResult is the union of per-metric z-score detections.
type MultivariateResult struct {
	IsAnomaly    bool                    `json:"is_anomaly"`
	AnomalyTypes []string                `json:"anomaly_types"`
	Metrics      map[string]ZScoreResult `json:"metrics"`
}

// MaxAbsZ returns the largest |z| across metrics, 0 when none is defined.
func (r MultivariateResult) MaxAbsZ() float64 {
	var maxAbs float64
	for _, m := range r.Metrics {
		if m.ZScore == nil {
			continue
		}
		z := *m.ZScore
		if z < 0 {
			z = -z
		}
		if z > maxAbs {
			maxAbs = z
		}
	}
	return maxAbs
}

// MultivariateZScoreDetector runs one independent z-score detector per
// monitored metric and reports the union of their flags. Metrics are not
// covariance-modeled; each is scored on its own.
type MultivariateZScoreDetector struct {
	spread     *ZScoreDetector
	depth      *ZScoreDetector
	imbalance  *ZScoreDetector
	volatility *ZScoreDetector
}

// NewMultivariateZScoreDetector creates the per-metric detectors.
func NewMultivariateZScoreDetector(windowSize int, threshold float64) (*MultivariateZScoreDetector, error) {
	spread, err := NewZScoreDetector(windowSize, threshold)
	if err != nil {
		return nil, err
	}
	depth, err := NewZScoreDetector(windowSize, threshold)
	if err != nil {
		return nil, err
	}
	imbalance, err := NewZScoreDetector(windowSize, threshold)
	if err != nil {
		return nil, err
	}
	volatility, err := NewZScoreDetector(windowSize, threshold)
	if err != nil {
		return nil, err
	}
	return &MultivariateZScoreDetector{
		spread:     spread,
		depth:      depth,
		imbalance:  imbalance,
		volatility: volatility,
	}, nil
}

// DetectTick scores a tick's spread, total quoted size, and size
// imbalance, plus the current realized volatility when the caller has
// one. Volatility comes from the owning monitor's analyzer; it is nil
// until enough returns have accumulated.
func (m *MultivariateZScoreDetector) DetectTick(tick models.Tick, volatility *float64) MultivariateResult {
	totalSize := tick.BidSize + tick.AskSize
	sizeImbalance := 0.0
	if totalSize > 0 {
		sizeImbalance = (tick.BidSize - tick.AskSize) / totalSize
	}

	results := map[string]ZScoreResult{
		MetricSpread:    m.spread.DetectAndUpdate(tick.SpreadBps()),
		MetricDepth:     m.depth.DetectAndUpdate(totalSize),
		MetricImbalance: m.imbalance.DetectAndUpdate(sizeImbalance),
	}
	if volatility != nil {
		results[MetricVolatility] = m.volatility.DetectAndUpdate(*volatility)
	}
	return combine(results)
}

// AnomalyCounts returns the per-metric anomaly counters.
func (m *MultivariateZScoreDetector) AnomalyCounts() map[string]int {
	return map[string]int{
		MetricSpread:     m.spread.AnomalyCount(),
		MetricDepth:      m.depth.AnomalyCount(),
		MetricImbalance:  m.imbalance.AnomalyCount(),
		MetricVolatility: m.volatility.AnomalyCount(),
	}
}

func combine(results map[string]ZScoreResult) MultivariateResult {
	out := MultivariateResult{
		AnomalyTypes: []string{},
		Metrics:      results,
	}
	// Fixed iteration order keeps AnomalyTypes deterministic.
	for _, name := range []string{MetricSpread, MetricDepth, MetricImbalance, MetricVolatility} {
		r, present := results[name]
		if !present {
			continue
		}
		if r.IsAnomaly {
			out.IsAnomaly = true
			out.AnomalyTypes = append(out.AnomalyTypes, name)
		}
	}
	return out
}
