package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validTick() Tick {
	return Tick{
		Timestamp: time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
		Symbol:    "EUR/USD",
		Bid:       1.0850,
		Ask:       1.0852,
		BidSize:   1_000_000,
		AskSize:   1_000_000,
	}
}

func TestValidateTick(t *testing.T) {
	assert.NoError(t, ValidateTick(validTick()))

	missing := validTick()
	missing.Symbol = ""
	assert.Error(t, ValidateTick(missing))

	noTime := validTick()
	noTime.Timestamp = time.Time{}
	assert.Error(t, ValidateTick(noTime))

	negative := validTick()
	negative.Bid = -1
	assert.Error(t, ValidateTick(negative))

	crossed := validTick()
	crossed.Bid = 1.0860
	assert.Error(t, ValidateTick(crossed))

	// A locked market (bid == ask) is unusual but structurally valid.
	locked := validTick()
	locked.Ask = locked.Bid
	assert.NoError(t, ValidateTick(locked))
}

func TestValidateOrderBook(t *testing.T) {
	ob := OrderBook{
		Timestamp: time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
		Symbol:    "EUR/USD",
		Bids: []OrderBookLevel{
			{Price: 1.0850, Size: 1_000_000},
			{Price: 1.0849, Size: 2_000_000},
		},
		Asks: []OrderBookLevel{
			{Price: 1.0852, Size: 1_000_000},
			{Price: 1.0853, Size: 2_000_000},
		},
	}
	assert.NoError(t, ValidateOrderBook(ob))

	unsortedBids := ob
	unsortedBids.Bids = []OrderBookLevel{
		{Price: 1.0849, Size: 1_000_000},
		{Price: 1.0850, Size: 1_000_000},
	}
	assert.Error(t, ValidateOrderBook(unsortedBids))

	unsortedAsks := ob
	unsortedAsks.Asks = []OrderBookLevel{
		{Price: 1.0853, Size: 1_000_000},
		{Price: 1.0852, Size: 1_000_000},
	}
	assert.Error(t, ValidateOrderBook(unsortedAsks))

	crossed := ob
	crossed.Bids = []OrderBookLevel{{Price: 1.0852, Size: 1_000_000}}
	assert.Error(t, ValidateOrderBook(crossed))

	empty := OrderBook{Symbol: "EUR/USD"}
	assert.NoError(t, ValidateOrderBook(empty))
}

func TestValidateTrade(t *testing.T) {
	trade := Trade{
		Timestamp: time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
		Symbol:    "EUR/USD",
		Price:     1.0851,
		Size:      1_000_000,
		Side:      SideBuy,
	}
	assert.NoError(t, ValidateTrade(trade))

	bad := trade
	bad.Price = 0
	assert.Error(t, ValidateTrade(bad))

	bad = trade
	bad.Size = -5
	assert.Error(t, ValidateTrade(bad))

	bad = trade
	bad.Side = "hold"
	assert.Error(t, ValidateTrade(bad))
}

func TestValidateMetrics(t *testing.T) {
	m := &MarketMetrics{
		Symbol:        "EUR/USD",
		Spread:        0.0002,
		SpreadBps:     1.84,
		TotalDepth:    3_000_000,
		FlowImbalance: 0.25,
	}
	assert.NoError(t, ValidateMetrics(m))

	bad := *m
	bad.SpreadBps = -1
	assert.Error(t, ValidateMetrics(&bad))

	bad = *m
	bad.FlowImbalance = 1.5
	assert.Error(t, ValidateMetrics(&bad))

	bad = *m
	bad.TotalDepth = -1
	assert.Error(t, ValidateMetrics(&bad))
}

func TestTickDerivedQuotes(t *testing.T) {
	tick := Tick{Bid: 1.0, Ask: 2.0}
	assert.Equal(t, 1.5, tick.Mid())
	assert.Equal(t, 1.0, tick.Spread())
	assert.InDelta(t, 1.0/1.5*10000, tick.SpreadBps(), 1e-9)
}
