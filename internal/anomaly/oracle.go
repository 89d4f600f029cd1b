package anomaly

import (
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/models"
)

// ScoringOracle scores a feature vector and learns from observed
// vectors. Implementations may be stateless heuristics or online
// learners; callers treat the score as a [0, 1] anomaly likelihood.
type ScoringOracle interface {
	Score(features map[string]float64) float64
	Learn(features map[string]float64)
}

// Anomaly type labels emitted by the ensemble.
const (
	AnomalyTypePrice       = "price_anomaly"
	AnomalyTypeVolume      = "volume_anomaly"
	AnomalyTypePriceVolume = "price_volume_anomaly"
)

// EnsembleResult is the outcome of scoring one tick against all views.
type EnsembleResult struct {
	IsAnomaly   bool    `json:"is_anomaly"`
	Score       float64 `json:"score"`
	AnomalyType string  `json:"anomaly_type,omitempty"`
	PriceScore  float64 `json:"price_score"`
	VolumeScore float64 `json:"volume_score"`
	JointScore  float64 `json:"joint_score"`
}

// EnsembleConfig configures the ensemble scorer.
type EnsembleConfig struct {
	ScoreThreshold float64 // Score above which a view flags an anomaly
}

// DefaultEnsembleConfig returns the default configuration.
func DefaultEnsembleConfig() EnsembleConfig {
	return EnsembleConfig{ScoreThreshold: 0.7}
}

// EnsembleScorer runs three oracles over different feature views of
// the same tick: price-shaped features, volume-shaped features, and
// their union. Which views fire determines the anomaly type; the
// reported score is the max across views.
type EnsembleScorer struct {
	config EnsembleConfig
	price  ScoringOracle
	volume ScoringOracle
	joint  ScoringOracle
}

// NewEnsembleScorer wires one oracle per feature view.
func NewEnsembleScorer(config EnsembleConfig, price, volume, joint ScoringOracle) *EnsembleScorer {
	return &EnsembleScorer{config: config, price: price, volume: volume, joint: joint}
}

// priceFeatures extracts the price-shaped view of a tick.
func priceFeatures(tick models.Tick) map[string]float64 {
	return map[string]float64{
		"mid_price":  tick.Mid(),
		"spread":     tick.Spread(),
		"spread_bps": tick.SpreadBps(),
	}
}

// volumeFeatures extracts the volume-shaped view of a tick.
func volumeFeatures(tick models.Tick) map[string]float64 {
	total := tick.BidSize + tick.AskSize
	var imbalance float64
	if total > 0 {
		imbalance = (tick.BidSize - tick.AskSize) / total
	}
	return map[string]float64{
		"bid_size":       tick.BidSize,
		"ask_size":       tick.AskSize,
		"total_size":     total,
		"size_imbalance": imbalance,
	}
}

// jointFeatures is the union of both views.
func jointFeatures(tick models.Tick) map[string]float64 {
	features := priceFeatures(tick)
	for k, v := range volumeFeatures(tick) {
		features[k] = v
	}
	return features
}

// ScoreTick scores the tick against all three views and learns from it
// afterwards.
func (e *EnsembleScorer) ScoreTick(tick models.Tick) EnsembleResult {
	pf := priceFeatures(tick)
	vf := volumeFeatures(tick)
	jf := jointFeatures(tick)

	priceScore := e.price.Score(pf)
	volumeScore := e.volume.Score(vf)
	jointScore := e.joint.Score(jf)

	e.price.Learn(pf)
	e.volume.Learn(vf)
	e.joint.Learn(jf)

	priceHit := priceScore > e.config.ScoreThreshold
	volumeHit := volumeScore > e.config.ScoreThreshold
	jointHit := jointScore > e.config.ScoreThreshold

	result := EnsembleResult{
		PriceScore:  priceScore,
		VolumeScore: volumeScore,
		JointScore:  jointScore,
		Score:       max3(priceScore, volumeScore, jointScore),
	}

	switch {
	case jointHit || (priceHit && volumeHit):
		result.IsAnomaly = true
		result.AnomalyType = AnomalyTypePriceVolume
	case priceHit:
		result.IsAnomaly = true
		result.AnomalyType = AnomalyTypePrice
	case volumeHit:
		result.IsAnomaly = true
		result.AnomalyType = AnomalyTypeVolume
	}
	return result
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

// ZScoreOracle adapts the multivariate z-score machinery to the
// ScoringOracle interface: the score is the max |z| across features
// squashed into [0, 1] via z/(z+threshold).
type ZScoreOracle struct {
	detectors map[string]*ZScoreDetector
	window    int
	threshold float64
}

// NewZScoreOracle builds an oracle with one rolling z-score detector
// per feature, created lazily as features appear.
func NewZScoreOracle(windowSize int, threshold float64) *ZScoreOracle {
	return &ZScoreOracle{
		detectors: make(map[string]*ZScoreDetector),
		window:    windowSize,
		threshold: threshold,
	}
}

func (o *ZScoreOracle) detector(name string) *ZScoreDetector {
	d, ok := o.detectors[name]
	if !ok {
		d = MustZScoreDetector(o.window, o.threshold)
		o.detectors[name] = d
	}
	return d
}

// Score returns the squashed max |z| over the feature vector. Features
// without enough history contribute nothing.
func (o *ZScoreOracle) Score(features map[string]float64) float64 {
	var maxAbs float64
	for name, value := range features {
		z, ok := o.detector(name).Score(value)
		if !ok {
			continue
		}
		if abs := absFloat(z); abs > maxAbs {
			maxAbs = abs
		}
	}
	if maxAbs == 0 {
		return 0
	}
	return maxAbs / (maxAbs + o.threshold)
}

// Learn pushes the feature vector into the per-feature histories.
func (o *ZScoreOracle) Learn(features map[string]float64) {
	for name, value := range features {
		o.detector(name).Add(value)
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
