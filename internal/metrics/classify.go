package metrics

import (
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/models"
)

// Classification methods reported by the Lee-Ready classifier.
const (
	MethodQuoteRule = "quote_rule"
	MethodTickTest  = "tick_test"
)

// TradeClassification is the outcome of classifying one trade.
type TradeClassification struct {
	TradeID         string      `json:"trade_id,omitempty"`
	Side            models.Side `json:"classification"`
	Method          string      `json:"method"`
	TradePrice      float64     `json:"trade_price"`
	MidQuote        float64     `json:"mid_quote"`
	DistanceFromMid float64     `json:"distance_from_mid"`
}

// LeeReadyClassifier infers the aggressor side of trades: the quote rule
// compares the trade price to the mid quote, and trades at the mid fall
// back to the tick test against the previous trade price. Unresolved ties
// classify as buys.
type LeeReadyClassifier struct {
	prevPrice float64
	havePrev  bool
	buyCount  int
	sellCount int
}

// NewLeeReadyClassifier creates a classifier with no trade history.
func NewLeeReadyClassifier() *LeeReadyClassifier {
	return &LeeReadyClassifier{}
}

// Classify infers the side of a trade given the prevailing quote.
func (lr *LeeReadyClassifier) Classify(trade models.Trade, quote models.Tick) TradeClassification {
	mid := quote.Mid()
	method := MethodQuoteRule

	var side models.Side
	switch {
	case trade.Price > mid:
		side = models.SideBuy
	case trade.Price < mid:
		side = models.SideSell
	default:
		method = MethodTickTest
		side = lr.tickTest(trade.Price)
	}

	if side == models.SideBuy {
		lr.buyCount++
	} else {
		lr.sellCount++
	}
	lr.prevPrice = trade.Price
	lr.havePrev = true

	return TradeClassification{
		TradeID:         trade.TradeID,
		Side:            side,
		Method:          method,
		TradePrice:      trade.Price,
		MidQuote:        mid,
		DistanceFromMid: trade.Price - mid,
	}
}

func (lr *LeeReadyClassifier) tickTest(price float64) models.Side {
	if !lr.havePrev {
		return models.SideBuy
	}
	switch {
	case price > lr.prevPrice:
		return models.SideBuy
	case price < lr.prevPrice:
		return models.SideSell
	default:
		// Zero tick with no resolving history defaults to buy.
		return models.SideBuy
	}
}

// FlowImbalance returns (buys − sells) / total classified, 0 with no
// history.
func (lr *LeeReadyClassifier) FlowImbalance() float64 {
	total := lr.buyCount + lr.sellCount
	if total == 0 {
		return 0
	}
	return float64(lr.buyCount-lr.sellCount) / float64(total)
}

// Counts returns the number of buy- and sell-classified trades.
func (lr *LeeReadyClassifier) Counts() (buys, sells int) {
	return lr.buyCount, lr.sellCount
}

// BVCClassification is the outcome of bulk volume classification for one
// trade.
type BVCClassification struct {
	TradeID       string      `json:"trade_id,omitempty"`
	Side          models.Side `json:"classification"`
	BuyProportion float64     `json:"buy_proportion"`
	BuyVolume     float64     `json:"buy_volume"`
	SellVolume    float64     `json:"sell_volume"`
}

// BulkVolumeClassifier allocates each trade's volume proportionally
// between buy and sell initiation based on the trade price's distance
// from the mid toward the best bid or ask. A trade at the mid splits
// 50/50.
type BulkVolumeClassifier struct {
	buyVolume  float64
	sellVolume float64
}

// NewBulkVolumeClassifier creates a classifier with zero accumulated
// volume.
func NewBulkVolumeClassifier() *BulkVolumeClassifier {
	return &BulkVolumeClassifier{}
}

// Classify allocates a trade's volume given the prevailing quote.
func (bvc *BulkVolumeClassifier) Classify(trade models.Trade, quote models.Tick) BVCClassification {
	mid := quote.Mid()
	distance := trade.Price - mid

	// Linear allocation: 0 at the bid, 0.5 at the mid, 1 at the ask,
	// clamped outside the quotes.
	var buyProportion float64
	switch {
	case distance > 0:
		halfSpread := quote.Ask - mid
		if halfSpread <= 0 {
			buyProportion = 1.0
		} else {
			buyProportion = 0.5 + 0.5*distance/halfSpread
			if buyProportion > 1 {
				buyProportion = 1
			}
		}
	case distance < 0:
		halfSpread := mid - quote.Bid
		if halfSpread <= 0 {
			buyProportion = 0.0
		} else {
			buyProportion = 0.5 + 0.5*distance/halfSpread
			if buyProportion < 0 {
				buyProportion = 0
			}
		}
	default:
		buyProportion = 0.5
	}

	buyVol := trade.Size * buyProportion
	sellVol := trade.Size - buyVol
	bvc.buyVolume += buyVol
	bvc.sellVolume += sellVol

	side := models.SideSell
	if buyProportion > 0.5 {
		side = models.SideBuy
	}

	return BVCClassification{
		TradeID:       trade.TradeID,
		Side:          side,
		BuyProportion: buyProportion,
		BuyVolume:     buyVol,
		SellVolume:    sellVol,
	}
}

// VolumeImbalance returns (buy − sell) / total allocated volume, 0 with
// no volume.
func (bvc *BulkVolumeClassifier) VolumeImbalance() float64 {
	total := bvc.buyVolume + bvc.sellVolume
	if total == 0 {
		return 0
	}
	return (bvc.buyVolume - bvc.sellVolume) / total
}

// Volumes returns the accumulated buy and sell volume.
func (bvc *BulkVolumeClassifier) Volumes() (buy, sell float64) {
	return bvc.buyVolume, bvc.sellVolume
}
