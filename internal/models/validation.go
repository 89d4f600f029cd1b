package models

import (
	"fmt"
)

// ValidateTick checks a tick for structural problems. A crossed quote
// (ask < bid) is reported as an error so the caller can flag it as a
// data-quality condition; the engine still accepts the tick.
func ValidateTick(t Tick) error {
	if t.Symbol == "" {
		return fmt.Errorf("tick missing symbol")
	}
	if t.Timestamp.IsZero() {
		return fmt.Errorf("tick missing timestamp")
	}
	if t.Bid <= 0 || t.Ask <= 0 {
		return fmt.Errorf("non-positive quote: bid=%f ask=%f", t.Bid, t.Ask)
	}
	if t.Ask < t.Bid {
		return fmt.Errorf("crossed quote: bid=%f > ask=%f", t.Bid, t.Ask)
	}
	return nil
}

// ValidateOrderBook checks snapshot ordering: bids descending, asks ascending.
func ValidateOrderBook(ob OrderBook) error {
	if ob.Symbol == "" {
		return fmt.Errorf("order book missing symbol")
	}
	for i := 1; i < len(ob.Bids); i++ {
		if ob.Bids[i].Price > ob.Bids[i-1].Price {
			return fmt.Errorf("bids not sorted descending at level %d", i)
		}
	}
	for i := 1; i < len(ob.Asks); i++ {
		if ob.Asks[i].Price < ob.Asks[i-1].Price {
			return fmt.Errorf("asks not sorted ascending at level %d", i)
		}
	}
	if len(ob.Bids) > 0 && len(ob.Asks) > 0 && ob.Bids[0].Price >= ob.Asks[0].Price {
		return fmt.Errorf("crossed book: best_bid=%f >= best_ask=%f", ob.Bids[0].Price, ob.Asks[0].Price)
	}
	return nil
}

// ValidateTrade checks a trade record.
func ValidateTrade(t Trade) error {
	if t.Symbol == "" {
		return fmt.Errorf("trade missing symbol")
	}
	if t.Price <= 0 {
		return fmt.Errorf("non-positive trade price: %f", t.Price)
	}
	if t.Size <= 0 {
		return fmt.Errorf("non-positive trade size: %f", t.Size)
	}
	if t.Side != SideBuy && t.Side != SideSell {
		return fmt.Errorf("invalid trade side: %q", t.Side)
	}
	return nil
}

// ValidateMetrics validates an assembled metrics record against its
// documented ranges.
func ValidateMetrics(m *MarketMetrics) error {
	if m.Symbol == "" {
		return fmt.Errorf("metrics missing symbol")
	}
	if m.SpreadBps < 0 {
		return fmt.Errorf("spread_bps must be non-negative, got %f", m.SpreadBps)
	}
	if m.FlowImbalance < -1.0 || m.FlowImbalance > 1.0 {
		return fmt.Errorf("flow_imbalance must be in [-1, 1], got %f", m.FlowImbalance)
	}
	if m.TotalDepth < 0 {
		return fmt.Errorf("total_depth must be non-negative, got %f", m.TotalDepth)
	}
	return nil
}
