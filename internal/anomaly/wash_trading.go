package anomaly

import (
	"math"
	"time"

	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/models"
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/window"
)

// WashTradingConfig configures the wash trading detectors.
type WashTradingConfig struct {
	Window           time.Duration // Time window for matching trades
	PriceTolerance   float64       // Max |price diff| for a matched pair
	SizeTolerance    float64       // Max |size diff| / avg size for a match
	BalanceThreshold float64       // Volume imbalance below which flow looks balanced
	MinTrades        int           // Trade count for the volume-based variant
	MaxReportedPairs int           // Matched pairs returned per detection call
}

// DefaultWashTradingConfig returns the default configuration.
func DefaultWashTradingConfig() WashTradingConfig {
	return WashTradingConfig{
		Window:           60 * time.Second,
		PriceTolerance:   0.0001,
		SizeTolerance:    0.1,
		BalanceThreshold: 0.1,
		MinTrades:        10,
		MaxReportedPairs: 5,
	}
}

// MatchedPair describes one suspected wash trade pair.
type MatchedPair struct {
	Buy       models.Trade `json:"buy_trade"`
	Sell      models.Trade `json:"sell_trade"`
	PriceDiff float64      `json:"price_diff"`
	SizeDiff  float64      `json:"size_diff"`
	TimeDiff  float64      `json:"time_diff_seconds"`
}

// WashTradingResult is the outcome of one pair-matching detection call.
type WashTradingResult struct {
	IsWashTrading   bool          `json:"is_wash_trading"`
	MatchedPairs    int           `json:"matched_pairs"`
	TotalTrades     int           `json:"total_trades"`
	TotalWashTrades int           `json:"total_wash_trades"`
	SuspiciousPairs []MatchedPair `json:"suspicious_pairs,omitempty"`
}

// WashTradingDetector finds offsetting buy/sell pairs in a rolling trade
// window: a pair matches when price, size, and time all fall within
// tolerance. Each detection call recomputes pairs from the window
// contents (O(buys·sells) per symbol).
type WashTradingDetector struct {
	config         WashTradingConfig
	trades         *window.TimeWindow[models.Trade]
	washTradeCount int
}

// NewWashTradingDetector creates a detector or fails on an invalid
// configuration.
func NewWashTradingDetector(config WashTradingConfig) (*WashTradingDetector, error) {
	trades, err := window.NewTimeWindow[models.Trade](config.Window, func(t models.Trade) time.Time {
		return t.Timestamp
	})
	if err != nil {
		return nil, err
	}
	return &WashTradingDetector{config: config, trades: trades}, nil
}

// AddTrade pushes a trade into the rolling window.
func (d *WashTradingDetector) AddTrade(trade models.Trade) {
	d.trades.Push(trade)
}

// Detect recomputes matched pairs from the current window.
func (d *WashTradingDetector) Detect() WashTradingResult {
	trades := d.trades.Values()
	if len(trades) < 2 {
		return WashTradingResult{TotalTrades: len(trades), TotalWashTrades: d.washTradeCount}
	}

	bySymbol := make(map[string][]models.Trade)
	for _, t := range trades {
		bySymbol[t.Symbol] = append(bySymbol[t.Symbol], t)
	}

	var matched int
	var pairs []MatchedPair
	for _, symbolTrades := range bySymbol {
		var buys, sells []models.Trade
		for _, t := range symbolTrades {
			if t.Side == models.SideBuy {
				buys = append(buys, t)
			} else {
				sells = append(sells, t)
			}
		}

		for _, buy := range buys {
			for _, sell := range sells {
				if !d.isMatchingPair(buy, sell) {
					continue
				}
				matched++
				if len(pairs) < d.config.MaxReportedPairs {
					pairs = append(pairs, MatchedPair{
						Buy:       buy,
						Sell:      sell,
						PriceDiff: math.Abs(buy.Price - sell.Price),
						SizeDiff:  math.Abs(buy.Size - sell.Size),
						TimeDiff:  math.Abs(buy.Timestamp.Sub(sell.Timestamp).Seconds()),
					})
				}
			}
		}
	}

	isWash := matched > 0
	if isWash {
		d.washTradeCount += matched
	}

	return WashTradingResult{
		IsWashTrading:   isWash,
		MatchedPairs:    matched,
		TotalTrades:     len(trades),
		TotalWashTrades: d.washTradeCount,
		SuspiciousPairs: pairs,
	}
}

func (d *WashTradingDetector) isMatchingPair(buy, sell models.Trade) bool {
	if math.Abs(buy.Price-sell.Price) > d.config.PriceTolerance {
		return false
	}

	avgSize := (buy.Size + sell.Size) / 2
	if avgSize > 0 && math.Abs(buy.Size-sell.Size)/avgSize > d.config.SizeTolerance {
		return false
	}

	timeDiff := math.Abs(buy.Timestamp.Sub(sell.Timestamp).Seconds())
	return timeDiff <= d.config.Window.Seconds()
}

// WashTradeCount returns the running matched-pair counter.
func (d *WashTradingDetector) WashTradeCount() int {
	return d.washTradeCount
}

// VolumeWashResult is the outcome of one volume-balance detection call.
type VolumeWashResult struct {
	IsWashTrading   bool    `json:"is_wash_trading"`
	VolumeImbalance float64 `json:"volume_imbalance"`
	BuyVolume       float64 `json:"buy_volume"`
	SellVolume      float64 `json:"sell_volume"`
	TradeCount      int     `json:"trade_count"`
	TotalWashEvents int     `json:"total_wash_events"`
}

// VolumeWashDetector is the cheaper heuristic for high-volume symbols:
// near-balanced buy and sell volume combined with high trade activity
// suggests volume inflation without net position change.
type VolumeWashDetector struct {
	config     WashTradingConfig
	trades     *window.TimeWindow[models.Trade]
	washEvents int
}

// NewVolumeWashDetector creates a detector or fails on an invalid
// configuration.
func NewVolumeWashDetector(config WashTradingConfig) (*VolumeWashDetector, error) {
	trades, err := window.NewTimeWindow[models.Trade](config.Window, func(t models.Trade) time.Time {
		return t.Timestamp
	})
	if err != nil {
		return nil, err
	}
	return &VolumeWashDetector{config: config, trades: trades}, nil
}

// AddTrade pushes a trade into the rolling window.
func (d *VolumeWashDetector) AddTrade(trade models.Trade) {
	d.trades.Push(trade)
}

// Detect flags balanced two-sided volume with sufficient activity.
func (d *VolumeWashDetector) Detect() VolumeWashResult {
	trades := d.trades.Values()
	if len(trades) < 4 {
		return VolumeWashResult{TradeCount: len(trades), TotalWashEvents: d.washEvents}
	}

	var buyVolume, sellVolume float64
	for _, t := range trades {
		if t.Side == models.SideBuy {
			buyVolume += t.Size
		} else {
			sellVolume += t.Size
		}
	}

	total := buyVolume + sellVolume
	if total == 0 {
		return VolumeWashResult{TradeCount: len(trades), TotalWashEvents: d.washEvents}
	}

	imbalance := math.Abs(buyVolume-sellVolume) / total
	isWash := imbalance < d.config.BalanceThreshold && len(trades) > d.config.MinTrades
	if isWash {
		d.washEvents++
	}

	return VolumeWashResult{
		IsWashTrading:   isWash,
		VolumeImbalance: imbalance,
		BuyVolume:       buyVolume,
		SellVolume:      sellVolume,
		TradeCount:      len(trades),
		TotalWashEvents: d.washEvents,
	}
}
