package anomaly

import (
	"math"
	"time"

	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/models"
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/window"
)

// SpoofingConfig configures the spoofing detector.
type SpoofingConfig struct {
	BookHistorySize    int           // Order book snapshots retained
	SizeMultiplier     float64       // Large order = size > multiplier * avg level size
	CancellationWindow time.Duration // Large orders must persist this long
	MinLevels          int           // Levels required before size screening
	TopLevels          int           // Levels used for imbalance
	ImbalanceThreshold float64       // |top-level imbalance| that looks spoofy
	MaxLargeOrders     int           // More pending large orders than this is a flag
	PriceTolerance     float64       // Level identity tolerance on price
	SizeTolerance      float64       // Level identity: |size-orig|/orig must stay under this
}

// DefaultSpoofingConfig returns the default configuration.
func DefaultSpoofingConfig() SpoofingConfig {
	return SpoofingConfig{
		BookHistorySize:    100,
		SizeMultiplier:     3.0,
		CancellationWindow: 10 * time.Second,
		MinLevels:          5,
		TopLevels:          3,
		ImbalanceThreshold: 0.7,
		MaxLargeOrders:     3,
		PriceTolerance:     1e-5,
		SizeTolerance:      0.2,
	}
}

// largeOrderEvent records an outsized level observed in a snapshot so a
// later snapshot can confirm whether it survived or vanished.
type largeOrderEvent struct {
	observedAt time.Time
	price      float64
	size       float64
	side       models.Side
}

// SpoofingResult is the outcome of one detection call.
type SpoofingResult struct {
	IsSpoofing         bool    `json:"is_spoofing"`
	LargeOrders        int     `json:"large_orders"`
	RapidCancellations int     `json:"rapid_cancellations"`
	TopLevelImbalance  float64 `json:"top_level_imbalance"`
	TotalSpoofEvents   int     `json:"total_spoof_events"`
}

// SpoofingDetector tracks outsized resting orders across order book
// snapshots. A large order that disappears within the cancellation
// window without the price trading through it looks like spoofing, as
// does a heavily one-sided top of book.
type SpoofingDetector struct {
	config      SpoofingConfig
	books       *window.CountWindow[models.OrderBook]
	largeOrders *window.TimeWindow[largeOrderEvent]
	spoofEvents int
}

// NewSpoofingDetector creates a detector or fails on an invalid
// configuration.
func NewSpoofingDetector(config SpoofingConfig) (*SpoofingDetector, error) {
	books, err := window.NewCountWindow[models.OrderBook](config.BookHistorySize)
	if err != nil {
		return nil, err
	}
	largeOrders, err := window.NewTimeWindow[largeOrderEvent](config.CancellationWindow, func(e largeOrderEvent) time.Time {
		return e.observedAt
	})
	if err != nil {
		return nil, err
	}
	return &SpoofingDetector{config: config, books: books, largeOrders: largeOrders}, nil
}

// AddOrderBook ingests a snapshot and runs detection against it.
func (d *SpoofingDetector) AddOrderBook(book models.OrderBook) SpoofingResult {
	d.books.Push(book)
	d.recordLargeOrders(book)
	// Orders older than the cancellation window are no longer suspicious.
	d.largeOrders.Prune(book.Timestamp)

	cancellations := d.countRapidCancellations(book)
	imbalance := d.topLevelImbalance(book)
	pending := d.largeOrders.Len()

	isSpoofing := cancellations > 0 ||
		math.Abs(imbalance) > d.config.ImbalanceThreshold ||
		pending > d.config.MaxLargeOrders

	if isSpoofing {
		d.spoofEvents++
	}

	return SpoofingResult{
		IsSpoofing:         isSpoofing,
		LargeOrders:        pending,
		RapidCancellations: cancellations,
		TopLevelImbalance:  imbalance,
		TotalSpoofEvents:   d.spoofEvents,
	}
}

// recordLargeOrders screens each side for levels whose size dwarfs the
// side average. Sides with too few levels are skipped so a thin book
// does not trip the multiplier.
func (d *SpoofingDetector) recordLargeOrders(book models.OrderBook) {
	d.recordSide(book.Timestamp, book.Bids, models.SideBuy)
	d.recordSide(book.Timestamp, book.Asks, models.SideSell)
}

func (d *SpoofingDetector) recordSide(ts time.Time, levels []models.OrderBookLevel, side models.Side) {
	if len(levels) < d.config.MinLevels {
		return
	}
	var total float64
	for _, lvl := range levels {
		total += lvl.Size
	}
	avg := total / float64(len(levels))
	if avg == 0 {
		return
	}
	for _, lvl := range levels {
		if lvl.Size > d.config.SizeMultiplier*avg {
			d.largeOrders.Push(largeOrderEvent{observedAt: ts, price: lvl.Price, size: lvl.Size, side: side})
		}
	}
}

// countRapidCancellations checks each pending large order against the
// current snapshot. An order recorded from this same snapshot is not a
// cancellation candidate yet.
func (d *SpoofingDetector) countRapidCancellations(book models.OrderBook) int {
	var cancellations int
	for _, order := range d.largeOrders.Values() {
		if order.observedAt.Equal(book.Timestamp) {
			continue
		}
		levels := book.Bids
		if order.side == models.SideSell {
			levels = book.Asks
		}
		if !d.levelStillPresent(order, levels) {
			cancellations++
		}
	}
	return cancellations
}

// levelStillPresent requires both price identity and size within the
// relative tolerance of the recorded order. A level cut or grown past
// the tolerance is treated as the original order being pulled.
func (d *SpoofingDetector) levelStillPresent(order largeOrderEvent, levels []models.OrderBookLevel) bool {
	for _, lvl := range levels {
		if math.Abs(lvl.Price-order.price) <= d.config.PriceTolerance &&
			math.Abs(lvl.Size-order.size)/order.size < d.config.SizeTolerance {
			return true
		}
	}
	return false
}

// topLevelImbalance measures (bid-ask)/(bid+ask) volume over the top
// configured levels.
func (d *SpoofingDetector) topLevelImbalance(book models.OrderBook) float64 {
	var bidVol, askVol float64
	for i, lvl := range book.Bids {
		if i >= d.config.TopLevels {
			break
		}
		bidVol += lvl.Size
	}
	for i, lvl := range book.Asks {
		if i >= d.config.TopLevels {
			break
		}
		askVol += lvl.Size
	}
	total := bidVol + askVol
	if total == 0 {
		return 0
	}
	return (bidVol - askVol) / total
}

// SpoofEventCount returns the running flagged-snapshot counter.
func (d *SpoofingDetector) SpoofEventCount() int {
	return d.spoofEvents
}
