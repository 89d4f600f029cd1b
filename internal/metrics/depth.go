package metrics

import (
	"math"

	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/models"
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/window"
)

// DepthConfig configures the depth analyzer.
type DepthConfig struct {
	HistorySize         int     // Order book snapshots kept for depletion stats
	TopLevels           int     // Levels used for cumulative metrics
	DepletionPercentile float64 // Percentile threshold for depth depletion
}

// DefaultDepthConfig returns the default configuration.
func DefaultDepthConfig() DepthConfig {
	return DepthConfig{
		HistorySize:         100,
		TopLevels:           5,
		DepletionPercentile: 25,
	}
}

// DepthMetrics is the rolling order book depth view for one symbol.
type DepthMetrics struct {
	BidDepth         float64  `json:"bid_depth"`
	AskDepth         float64  `json:"ask_depth"`
	TotalDepth       float64  `json:"total_depth"`
	DepthImbalance   float64  `json:"depth_imbalance"`
	WeightedMidPrice *float64 `json:"weighted_mid_price,omitempty"`
	LiquidityScore   *float64 `json:"liquidity_score,omitempty"`
	IsDepthDepleted  bool     `json:"is_depth_depleted"`
}

// DepthAnalyzer maintains a rolling window of order book snapshots and
// derives depth and liquidity statistics from the latest one.
type DepthAnalyzer struct {
	config DepthConfig
	books  *window.CountWindow[models.OrderBook]
}

// NewDepthAnalyzer creates a depth analyzer or fails on an invalid
// configuration.
func NewDepthAnalyzer(config DepthConfig) (*DepthAnalyzer, error) {
	w, err := window.NewCountWindow[models.OrderBook](config.HistorySize)
	if err != nil {
		return nil, err
	}
	return &DepthAnalyzer{config: config, books: w}, nil
}

// AddOrderBook pushes a new snapshot into the rolling window.
func (da *DepthAnalyzer) AddOrderBook(ob models.OrderBook) {
	da.books.Push(ob)
}

// CurrentDepth returns (bid, ask, total) depth of the latest snapshot.
func (da *DepthAnalyzer) CurrentDepth() (bid, ask, total float64, ok bool) {
	book, ok := da.books.Last()
	if !ok {
		return 0, 0, 0, false
	}
	return book.BidDepth(), book.AskDepth(), book.TotalDepth(), true
}

// CumulativeDepth sums level sizes over the top numLevels on each side.
func (da *DepthAnalyzer) CumulativeDepth(numLevels int) (bid, ask float64, ok bool) {
	book, ok := da.books.Last()
	if !ok {
		return 0, 0, false
	}
	for i, level := range book.Bids {
		if i >= numLevels {
			break
		}
		bid += level.Size
	}
	for i, level := range book.Asks {
		if i >= numLevels {
			break
		}
		ask += level.Size
	}
	return bid, ask, true
}

// DepthImbalance returns (bid − ask) / (bid + ask) over the top numLevels,
// 0 when both are empty.
func (da *DepthAnalyzer) DepthImbalance(numLevels int) (float64, bool) {
	bid, ask, ok := da.CumulativeDepth(numLevels)
	if !ok {
		return 0, false
	}
	total := bid + ask
	if total == 0 {
		return 0, true
	}
	return (bid - ask) / total, true
}

// WeightedMidPrice returns the volume-weighted price over the top numLevels
// of both sides, absent when either side is empty or total volume is zero.
func (da *DepthAnalyzer) WeightedMidPrice(numLevels int) (float64, bool) {
	book, ok := da.books.Last()
	if !ok || len(book.Bids) == 0 || len(book.Asks) == 0 {
		return 0, false
	}

	var value, volume float64
	for i, level := range book.Bids {
		if i >= numLevels {
			break
		}
		value += level.Price * level.Size
		volume += level.Size
	}
	for i, level := range book.Asks {
		if i >= numLevels {
			break
		}
		value += level.Price * level.Size
		volume += level.Size
	}
	if volume == 0 {
		return 0, false
	}
	return value / volume, true
}

// PriceImpact estimates the impact of a hypothetical market order of the
// given size: it walks the opposite side of the book consuming size level
// by level and returns |avg fill price − mid|. Absent when the book cannot
// absorb the full size.
func (da *DepthAnalyzer) PriceImpact(size float64, side models.Side) (float64, bool) {
	book, ok := da.books.Last()
	if !ok || size <= 0 {
		return 0, false
	}

	levels := book.Asks
	if side == models.SideSell {
		levels = book.Bids
	}
	if len(levels) == 0 || len(book.Bids) == 0 || len(book.Asks) == 0 {
		return 0, false
	}

	remaining := size
	var cost float64
	for _, level := range levels {
		if remaining <= 0 {
			break
		}
		fill := math.Min(remaining, level.Size)
		cost += fill * level.Price
		remaining -= fill
	}
	if remaining > 0 {
		// Insufficient liquidity for the requested size.
		return 0, false
	}

	avgPrice := cost / size
	mid := (book.Bids[0].Price + book.Asks[0].Price) / 2
	return math.Abs(avgPrice - mid), true
}

// LiquidityScore returns total_depth·mid/spread over the top levels,
// absent when the spread is zero. Higher means better liquidity.
func (da *DepthAnalyzer) LiquidityScore(numLevels int) (float64, bool) {
	book, ok := da.books.Last()
	if !ok || len(book.Bids) == 0 || len(book.Asks) == 0 {
		return 0, false
	}

	bid, ask, _ := da.CumulativeDepth(numLevels)
	total := bid + ask

	spread := book.Asks[0].Price - book.Bids[0].Price
	if spread == 0 {
		return 0, false
	}
	mid := (book.Bids[0].Price + book.Asks[0].Price) / 2
	return total * mid / spread, true
}

// IsDepthDepleted reports whether current total depth is below the
// configured percentile of prior snapshots. Requires at least 10
// snapshots; the current one is excluded from the baseline.
func (da *DepthAnalyzer) IsDepthDepleted() bool {
	if da.books.Len() < 10 {
		return false
	}

	books := da.books.Values()
	current := books[len(books)-1].TotalDepth()

	historical := make([]float64, 0, len(books)-1)
	for _, b := range books[:len(books)-1] {
		historical = append(historical, b.TotalDepth())
	}
	threshold := percentile(historical, da.config.DepletionPercentile)
	return current < threshold
}

// Metrics assembles the full depth view, or reports absence while the
// window is empty.
func (da *DepthAnalyzer) Metrics() (DepthMetrics, bool) {
	bid, ask, total, ok := da.CurrentDepth()
	if !ok {
		return DepthMetrics{}, false
	}

	m := DepthMetrics{
		BidDepth:        bid,
		AskDepth:        ask,
		TotalDepth:      total,
		IsDepthDepleted: da.IsDepthDepleted(),
	}
	if imb, ok := da.DepthImbalance(da.config.TopLevels); ok {
		m.DepthImbalance = imb
	}
	if wmp, ok := da.WeightedMidPrice(da.config.TopLevels); ok {
		m.WeightedMidPrice = &wmp
	}
	if ls, ok := da.LiquidityScore(da.config.TopLevels); ok {
		m.LiquidityScore = &ls
	}
	return m, true
}
