package metrics

import (
	"math"
	"time"

	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/models"
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/window"
)

// FlowConfig configures the flow imbalance calculator.
type FlowConfig struct {
	TradeWindow         time.Duration // Time window for trade flow metrics
	BookHistorySize     int           // Order book snapshots kept
	TopLevels           int           // Levels for volume-weighted imbalance
	VPINBuckets         int           // Volume buckets for VPIN
	AggressionThreshold float64       // |imbalance| threshold for aggression flags
}

// DefaultFlowConfig returns the default configuration.
func DefaultFlowConfig() FlowConfig {
	return FlowConfig{
		TradeWindow:         60 * time.Second,
		BookHistorySize:     100,
		TopLevels:           5,
		VPINBuckets:         50,
		AggressionThreshold: 0.3,
	}
}

// FlowMetrics is the rolling order flow view for one symbol.
type FlowMetrics struct {
	TradeFlowImbalance      float64  `json:"trade_flow_imbalance"`
	OrderBookImbalance      float64  `json:"orderbook_imbalance"`
	VolumeWeightedImbalance *float64 `json:"volume_weighted_imbalance,omitempty"`
	TradeIntensity          float64  `json:"trade_intensity"`
	VolumeIntensity         float64  `json:"volume_intensity"`
	BuySellRatio            *float64 `json:"buy_sell_ratio,omitempty"`
	VPIN                    *float64 `json:"vpin,omitempty"`
	IsAggressiveBuying      bool     `json:"is_aggressive_buying"`
	IsAggressiveSelling     bool     `json:"is_aggressive_selling"`
	TradeCount              int      `json:"num_trades"`
}

// FlowImbalanceCalculator tracks trades in a time window and order book
// snapshots in a count window, deriving order flow metrics.
type FlowImbalanceCalculator struct {
	config FlowConfig
	trades *window.TimeWindow[models.Trade]
	books  *window.CountWindow[models.OrderBook]
}

// NewFlowImbalanceCalculator creates a flow calculator or fails on an
// invalid configuration.
func NewFlowImbalanceCalculator(config FlowConfig) (*FlowImbalanceCalculator, error) {
	trades, err := window.NewTimeWindow[models.Trade](config.TradeWindow, func(t models.Trade) time.Time {
		return t.Timestamp
	})
	if err != nil {
		return nil, err
	}
	books, err := window.NewCountWindow[models.OrderBook](config.BookHistorySize)
	if err != nil {
		return nil, err
	}
	return &FlowImbalanceCalculator{config: config, trades: trades, books: books}, nil
}

// AddTrade pushes a trade into the rolling time window.
func (fc *FlowImbalanceCalculator) AddTrade(trade models.Trade) {
	fc.trades.Push(trade)
}

// AddOrderBook pushes a snapshot into the rolling book window.
func (fc *FlowImbalanceCalculator) AddOrderBook(ob models.OrderBook) {
	fc.books.Push(ob)
}

func (fc *FlowImbalanceCalculator) volumes() (buy, sell float64) {
	for _, t := range fc.trades.Values() {
		if t.Side == models.SideBuy {
			buy += t.Size
		} else {
			sell += t.Size
		}
	}
	return buy, sell
}

// TradeFlowImbalance returns (buy − sell) / (buy + sell) volume over the
// window, 0 when there is no volume. Absent with no trades.
func (fc *FlowImbalanceCalculator) TradeFlowImbalance() (float64, bool) {
	if fc.trades.Len() == 0 {
		return 0, false
	}
	buy, sell := fc.volumes()
	total := buy + sell
	if total == 0 {
		return 0, true
	}
	return (buy - sell) / total, true
}

// OrderBookImbalance returns the imbalance of the latest snapshot.
func (fc *FlowImbalanceCalculator) OrderBookImbalance() (float64, bool) {
	book, ok := fc.books.Last()
	if !ok {
		return 0, false
	}
	return book.Imbalance(), true
}

// VolumeWeightedImbalance returns the imbalance over the top numLevels of
// the latest snapshot, absent when either side is empty.
func (fc *FlowImbalanceCalculator) VolumeWeightedImbalance(numLevels int) (float64, bool) {
	book, ok := fc.books.Last()
	if !ok || len(book.Bids) == 0 || len(book.Asks) == 0 {
		return 0, false
	}

	var bid, ask float64
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
	total := bid + ask
	if total == 0 {
		return 0, true
	}
	return (bid - ask) / total, true
}

// TradeIntensity returns trades per second over the window.
func (fc *FlowImbalanceCalculator) TradeIntensity() (float64, bool) {
	if fc.trades.Len() == 0 {
		return 0, false
	}
	return float64(fc.trades.Len()) / fc.config.TradeWindow.Seconds(), true
}

// VolumeIntensity returns traded volume per second over the window.
func (fc *FlowImbalanceCalculator) VolumeIntensity() (float64, bool) {
	if fc.trades.Len() == 0 {
		return 0, false
	}
	buy, sell := fc.volumes()
	return (buy + sell) / fc.config.TradeWindow.Seconds(), true
}

// BuySellRatio returns buy volume / sell volume, absent when sell volume
// is zero.
func (fc *FlowImbalanceCalculator) BuySellRatio() (float64, bool) {
	if fc.trades.Len() == 0 {
		return 0, false
	}
	buy, sell := fc.volumes()
	if sell == 0 {
		return 0, false
	}
	return buy / sell, true
}

// VPIN computes the Volume-Synchronized Probability of Informed Trading:
// trades are partitioned into equal-volume buckets, the absolute
// buy−sell volume imbalance of each full bucket is averaged and
// normalized by the bucket volume. Absent with fewer trades than buckets
// or zero total volume.
func (fc *FlowImbalanceCalculator) VPIN() (float64, bool) {
	trades := fc.trades.Values()
	if len(trades) < fc.config.VPINBuckets {
		return 0, false
	}

	var totalVolume float64
	for _, t := range trades {
		totalVolume += t.Size
	}
	if totalVolume == 0 {
		return 0, false
	}
	bucketVolume := totalVolume / float64(fc.config.VPINBuckets)

	var imbalances []float64
	var curVolume, curBuy, curSell float64
	for _, t := range trades {
		if t.Side == models.SideBuy {
			curBuy += t.Size
		} else {
			curSell += t.Size
		}
		curVolume += t.Size

		if curVolume >= bucketVolume {
			imbalances = append(imbalances, math.Abs(curBuy-curSell))
			curVolume, curBuy, curSell = 0, 0, 0
		}
	}
	if len(imbalances) == 0 {
		return 0, false
	}
	return mean(imbalances) / bucketVolume, true
}

// IsAggressiveBuying reports trade flow imbalance above the aggression
// threshold.
func (fc *FlowImbalanceCalculator) IsAggressiveBuying() bool {
	imb, ok := fc.TradeFlowImbalance()
	return ok && imb > fc.config.AggressionThreshold
}

// IsAggressiveSelling reports trade flow imbalance below the negative
// aggression threshold.
func (fc *FlowImbalanceCalculator) IsAggressiveSelling() bool {
	imb, ok := fc.TradeFlowImbalance()
	return ok && imb < -fc.config.AggressionThreshold
}

// Metrics assembles the full flow view. Unlike spread and depth it is
// always present: an empty trade window legitimately reads as zero flow.
func (fc *FlowImbalanceCalculator) Metrics() FlowMetrics {
	m := FlowMetrics{
		IsAggressiveBuying:  fc.IsAggressiveBuying(),
		IsAggressiveSelling: fc.IsAggressiveSelling(),
		TradeCount:          fc.trades.Len(),
	}
	if v, ok := fc.TradeFlowImbalance(); ok {
		m.TradeFlowImbalance = v
	}
	if v, ok := fc.OrderBookImbalance(); ok {
		m.OrderBookImbalance = v
	}
	if v, ok := fc.VolumeWeightedImbalance(fc.config.TopLevels); ok {
		m.VolumeWeightedImbalance = &v
	}
	if v, ok := fc.TradeIntensity(); ok {
		m.TradeIntensity = v
	}
	if v, ok := fc.VolumeIntensity(); ok {
		m.VolumeIntensity = v
	}
	if v, ok := fc.BuySellRatio(); ok {
		m.BuySellRatio = &v
	}
	if v, ok := fc.VPIN(); ok {
		m.VPIN = &v
	}
	return m
}
