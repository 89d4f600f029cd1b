package models

import "time"

// Side identifies the aggressor side of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// MarketEventEnvelope is the standardized wrapper for all inbound market events.
type MarketEventEnvelope struct {
	Type    string    `json:"type"`     // tick, trade, order_book
	Symbol  string    `json:"symbol"`   // e.g., EUR/USD
	TsEvent time.Time `json:"ts_event"` // UTC timestamp from the feed
	Payload any       `json:"payload"`  // Type-specific event data
}

// Envelope event types.
const (
	EventTypeTick      = "tick"
	EventTypeTrade     = "trade"
	EventTypeOrderBook = "order_book"
)

// Tick is a single top-of-book quote update.
type Tick struct {
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	BidSize   float64   `json:"bid_size"`
	AskSize   float64   `json:"ask_size"`
}

// Mid returns the mid price (bid + ask) / 2.
func (t Tick) Mid() float64 {
	return (t.Bid + t.Ask) / 2
}

// Spread returns the bid-ask spread.
func (t Tick) Spread() float64 {
	return t.Ask - t.Bid
}

// SpreadBps returns the spread in basis points of the mid price.
func (t Tick) SpreadBps() float64 {
	mid := t.Mid()
	if mid == 0 {
		return 0
	}
	return t.Spread() / mid * 10000
}

// OrderBookLevel is a single price level on one side of the book.
type OrderBookLevel struct {
	Price  float64 `json:"price"`
	Size   float64 `json:"size"`
	Orders int     `json:"orders"`
}

// OrderBook is a full order book snapshot. Bids are sorted descending by
// price, asks ascending; callers provide the ordering.
type OrderBook struct {
	Timestamp time.Time        `json:"timestamp"`
	Symbol    string           `json:"symbol"`
	Bids      []OrderBookLevel `json:"bids"`
	Asks      []OrderBookLevel `json:"asks"`
}

// BidDepth returns the total resting size on the bid side.
func (ob OrderBook) BidDepth() float64 {
	var total float64
	for _, level := range ob.Bids {
		total += level.Size
	}
	return total
}

// AskDepth returns the total resting size on the ask side.
func (ob OrderBook) AskDepth() float64 {
	var total float64
	for _, level := range ob.Asks {
		total += level.Size
	}
	return total
}

// TotalDepth returns the resting size on both sides combined.
func (ob OrderBook) TotalDepth() float64 {
	return ob.BidDepth() + ob.AskDepth()
}

// Imbalance returns (bid_depth − ask_depth) / (bid_depth + ask_depth) in
// [-1, 1], or 0 when both sides are empty.
func (ob OrderBook) Imbalance() float64 {
	bid := ob.BidDepth()
	ask := ob.AskDepth()
	total := bid + ask
	if total == 0 {
		return 0
	}
	return (bid - ask) / total
}

// Trade is a single executed trade.
type Trade struct {
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Size      float64   `json:"size"`
	Side      Side      `json:"side"`
	TradeID   string    `json:"trade_id,omitempty"`
}

// SignedSize returns the trade size signed by aggressor side, positive for
// buys and negative for sells.
func (t Trade) SignedSize() float64 {
	if t.Side == SideSell {
		return -t.Size
	}
	return t.Size
}

// MarketMetrics is the aggregated per-symbol output record.
type MarketMetrics struct {
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`

	Spread    float64 `json:"spread"`
	SpreadBps float64 `json:"spread_bps"`

	BidDepth   float64 `json:"bid_depth"`
	AskDepth   float64 `json:"ask_depth"`
	TotalDepth float64 `json:"total_depth"`

	FlowImbalance float64 `json:"flow_imbalance"`

	Volatility *float64 `json:"volatility,omitempty"`

	IsAnomaly    bool     `json:"is_anomaly"`
	AnomalyType  string   `json:"anomaly_type,omitempty"`
	AnomalyScore *float64 `json:"anomaly_score,omitempty"`
}

// StressReport is the set of boolean market stress indicators for a symbol.
type StressReport struct {
	SpreadWidening       bool `json:"spread_widening"`
	DepthDepletion       bool `json:"depth_depletion"`
	AggressiveBuying     bool `json:"aggressive_buying"`
	AggressiveSelling    bool `json:"aggressive_selling"`
	VolatilityClustering bool `json:"volatility_clustering"`
	HighVolatilityRegime bool `json:"high_volatility_regime"`
}

// Any reports whether any stress indicator is set.
func (s StressReport) Any() bool {
	return s.SpreadWidening || s.DepthDepletion || s.AggressiveBuying ||
		s.AggressiveSelling || s.VolatilityClustering || s.HighVolatilityRegime
}
