package anomaly

import (
	"time"

	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/models"
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/window"
)

// QuoteStuffingConfig configures the quote stuffing detectors.
type QuoteStuffingConfig struct {
	Window            time.Duration // Detection window
	Threshold         float64       // Updates per window that trigger the flag
	AdaptationSamples int           // Rate history kept by the adaptive variant
	AdaptationMinimum int           // Samples required before adapting
}

// DefaultQuoteStuffingConfig returns the default configuration.
func DefaultQuoteStuffingConfig() QuoteStuffingConfig {
	return QuoteStuffingConfig{
		Window:            time.Second,
		Threshold:         100,
		AdaptationSamples: 300,
		AdaptationMinimum: 30,
	}
}

// QuoteStuffingResult is the outcome of one stuffing detection call.
type QuoteStuffingResult struct {
	IsStuffing          bool    `json:"is_stuffing"`
	QuoteRate           int     `json:"quote_rate"`
	OrderBookUpdateRate int     `json:"orderbook_update_rate"`
	Threshold           float64 `json:"threshold"`
	WindowSeconds       float64 `json:"window_seconds"`
	TotalStuffingEvents int     `json:"total_stuffing_events"`
}

// QuoteStuffingDetector flags abnormally high quote and order book update
// rates inside a short time window, using a fixed threshold.
type QuoteStuffingDetector struct {
	config         QuoteStuffingConfig
	quoteTimes     *window.TimeWindow[time.Time]
	bookTimes      *window.TimeWindow[time.Time]
	stuffingEvents int
}

// NewQuoteStuffingDetector creates a detector or fails on an invalid
// configuration.
func NewQuoteStuffingDetector(config QuoteStuffingConfig) (*QuoteStuffingDetector, error) {
	identity := func(t time.Time) time.Time { return t }
	quotes, err := window.NewTimeWindow[time.Time](config.Window, identity)
	if err != nil {
		return nil, err
	}
	books, err := window.NewTimeWindow[time.Time](config.Window, identity)
	if err != nil {
		return nil, err
	}
	return &QuoteStuffingDetector{config: config, quoteTimes: quotes, bookTimes: books}, nil
}

// AddTick records a quote update.
func (d *QuoteStuffingDetector) AddTick(tick models.Tick) {
	d.quoteTimes.Push(tick.Timestamp)
}

// AddOrderBook records an order book update.
func (d *QuoteStuffingDetector) AddOrderBook(ob models.OrderBook) {
	d.bookTimes.Push(ob.Timestamp)
}

// QuoteRate returns the quote update count in the current window.
func (d *QuoteStuffingDetector) QuoteRate() int {
	return d.quoteTimes.Len()
}

// OrderBookUpdateRate returns the book update count in the current window.
func (d *QuoteStuffingDetector) OrderBookUpdateRate() int {
	return d.bookTimes.Len()
}

// Detect flags stuffing when either update rate exceeds the threshold.
func (d *QuoteStuffingDetector) Detect() QuoteStuffingResult {
	quoteRate := d.QuoteRate()
	bookRate := d.OrderBookUpdateRate()

	isStuffing := float64(quoteRate) > d.config.Threshold || float64(bookRate) > d.config.Threshold
	if isStuffing {
		d.stuffingEvents++
	}

	return QuoteStuffingResult{
		IsStuffing:          isStuffing,
		QuoteRate:           quoteRate,
		OrderBookUpdateRate: bookRate,
		Threshold:           d.config.Threshold,
		WindowSeconds:       d.config.Window.Seconds(),
		TotalStuffingEvents: d.stuffingEvents,
	}
}

// AdaptiveQuoteStuffingDetector recalibrates its threshold from a rolling
// history of observed rates: threshold = mean + 3·stddev once enough
// samples exist, otherwise the configured initial threshold.
type AdaptiveQuoteStuffingDetector struct {
	config          QuoteStuffingConfig
	threshold       float64
	quoteTimes      *window.TimeWindow[time.Time]
	historicalRates *window.CountWindow[float64]
	stuffingEvents  int
}

// NewAdaptiveQuoteStuffingDetector creates an adaptive detector or fails
// on an invalid configuration.
func NewAdaptiveQuoteStuffingDetector(config QuoteStuffingConfig) (*AdaptiveQuoteStuffingDetector, error) {
	quotes, err := window.NewTimeWindow[time.Time](config.Window, func(t time.Time) time.Time { return t })
	if err != nil {
		return nil, err
	}
	rates, err := window.NewCountWindow[float64](config.AdaptationSamples)
	if err != nil {
		return nil, err
	}
	return &AdaptiveQuoteStuffingDetector{
		config:          config,
		threshold:       config.Threshold,
		quoteTimes:      quotes,
		historicalRates: rates,
	}, nil
}

// AddTick records a quote update and recalibrates the threshold.
func (d *AdaptiveQuoteStuffingDetector) AddTick(tick models.Tick) {
	d.quoteTimes.Push(tick.Timestamp)

	rate := float64(d.quoteTimes.Len())
	d.historicalRates.Push(rate)

	if d.historicalRates.Len() >= d.config.AdaptationMinimum {
		rates := d.historicalRates.Values()
		d.threshold = meanOf(rates) + 3*stdDevOf(rates)
	}
}

// Threshold returns the current (possibly adapted) threshold.
func (d *AdaptiveQuoteStuffingDetector) Threshold() float64 {
	return d.threshold
}

// Detect flags stuffing against the adaptive threshold.
func (d *AdaptiveQuoteStuffingDetector) Detect() QuoteStuffingResult {
	quoteRate := d.quoteTimes.Len()
	isStuffing := float64(quoteRate) > d.threshold
	if isStuffing {
		d.stuffingEvents++
	}

	return QuoteStuffingResult{
		IsStuffing:          isStuffing,
		QuoteRate:           quoteRate,
		Threshold:           d.threshold,
		WindowSeconds:       d.config.Window.Seconds(),
		TotalStuffingEvents: d.stuffingEvents,
	}
}
