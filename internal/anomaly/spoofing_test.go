package anomaly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/models"
)

// balancedBook builds a five-level book with uniform sizes on both sides.
func balancedBook(ts time.Time, levelSize float64) models.OrderBook {
	book := models.OrderBook{Timestamp: ts, Symbol: "EUR/USD"}
	for i := 0; i < 5; i++ {
		book.Bids = append(book.Bids, models.OrderBookLevel{
			Price: 1.0850 - float64(i)*0.0001,
			Size:  levelSize,
		})
		book.Asks = append(book.Asks, models.OrderBookLevel{
			Price: 1.0852 + float64(i)*0.0001,
			Size:  levelSize,
		})
	}
	return book
}

func TestSpoofingQuietBookNotFlagged(t *testing.T) {
	d, err := NewSpoofingDetector(DefaultSpoofingConfig())
	require.NoError(t, err)

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		result := d.AddOrderBook(balancedBook(base.Add(time.Duration(i)*time.Second), 1_000_000))
		assert.False(t, result.IsSpoofing)
		assert.Zero(t, result.LargeOrders)
	}
}

func TestSpoofingRecordsLargeOrder(t *testing.T) {
	d, err := NewSpoofingDetector(DefaultSpoofingConfig())
	require.NoError(t, err)

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	book := balancedBook(base, 1_000_000)
	// Avg bid size becomes 2.8M; 10M exceeds 3x that.
	book.Bids[2].Size = 10_000_000

	result := d.AddOrderBook(book)
	assert.Equal(t, 1, result.LargeOrders)
	// Orders from this same snapshot are not cancellation candidates.
	assert.Zero(t, result.RapidCancellations)
}

func TestSpoofingRapidCancellationFlags(t *testing.T) {
	d, err := NewSpoofingDetector(DefaultSpoofingConfig())
	require.NoError(t, err)

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	withLarge := balancedBook(base, 1_000_000)
	withLarge.Bids[2].Size = 10_000_000
	d.AddOrderBook(withLarge)

	// Two seconds later the outsized bid is gone entirely.
	result := d.AddOrderBook(balancedBook(base.Add(2*time.Second), 1_000_000))
	assert.True(t, result.IsSpoofing)
	assert.Equal(t, 1, result.RapidCancellations)
	assert.Equal(t, 1, d.SpoofEventCount())
}

func TestSpoofingSurvivingOrderNotCancellation(t *testing.T) {
	d, err := NewSpoofingDetector(DefaultSpoofingConfig())
	require.NoError(t, err)

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	withLarge := balancedBook(base, 1_000_000)
	withLarge.Bids[2].Size = 10_000_000
	d.AddOrderBook(withLarge)

	// The level persists at the same price with most of its size intact.
	next := balancedBook(base.Add(2*time.Second), 1_000_000)
	next.Bids[2].Size = 9_000_000
	result := d.AddOrderBook(next)
	assert.Zero(t, result.RapidCancellations)
	assert.False(t, result.IsSpoofing)
}

func TestSpoofingShrunkenLevelCountsAsCancellation(t *testing.T) {
	d, err := NewSpoofingDetector(DefaultSpoofingConfig())
	require.NoError(t, err)

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	withLarge := balancedBook(base, 1_000_000)
	withLarge.Bids[2].Size = 10_000_000
	d.AddOrderBook(withLarge)

	// The level survives but at a tenth of its size, far outside the
	// identity tolerance, so it is treated as pulled.
	next := balancedBook(base.Add(2*time.Second), 1_000_000)
	next.Bids[2].Size = 1_000_000
	result := d.AddOrderBook(next)
	assert.Equal(t, 1, result.RapidCancellations)
	assert.True(t, result.IsSpoofing)
}

func TestSpoofingHalfPulledLevelCountsAsCancellation(t *testing.T) {
	d, err := NewSpoofingDetector(DefaultSpoofingConfig())
	require.NoError(t, err)

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	withLarge := balancedBook(base, 1_000_000)
	withLarge.Bids[2].Size = 10_000_000
	d.AddOrderBook(withLarge)

	// Half the order pulled: 50% off the recorded size, past the 20%
	// identity tolerance.
	next := balancedBook(base.Add(2*time.Second), 1_000_000)
	next.Bids[2].Size = 5_000_000
	result := d.AddOrderBook(next)
	assert.Equal(t, 1, result.RapidCancellations)
	assert.True(t, result.IsSpoofing)
}

func TestSpoofingGrownLevelCountsAsCancellation(t *testing.T) {
	d, err := NewSpoofingDetector(DefaultSpoofingConfig())
	require.NoError(t, err)

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	withLarge := balancedBook(base, 1_000_000)
	withLarge.Bids[2].Size = 10_000_000
	d.AddOrderBook(withLarge)

	// The level ballooned to 130% of the recorded size; it is no longer
	// the same resting order.
	next := balancedBook(base.Add(2*time.Second), 1_000_000)
	next.Bids[2].Size = 13_000_000
	result := d.AddOrderBook(next)
	assert.Equal(t, 1, result.RapidCancellations)
}

func TestSpoofingTopLevelImbalanceFlags(t *testing.T) {
	d, err := NewSpoofingDetector(DefaultSpoofingConfig())
	require.NoError(t, err)

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	book := balancedBook(base, 1_000_000)
	// Starve the ask side at the top three levels: imbalance well over 0.7.
	for i := 0; i < 3; i++ {
		book.Asks[i].Size = 50_000
	}

	result := d.AddOrderBook(book)
	assert.True(t, result.IsSpoofing)
	assert.Greater(t, result.TopLevelImbalance, 0.7)
}

func TestSpoofingLargeOrdersAgeOut(t *testing.T) {
	d, err := NewSpoofingDetector(DefaultSpoofingConfig())
	require.NoError(t, err)

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	withLarge := balancedBook(base, 1_000_000)
	withLarge.Bids[2].Size = 10_000_000
	d.AddOrderBook(withLarge)

	// Beyond the cancellation window the pending order is evicted, so its
	// disappearance no longer counts against the book.
	result := d.AddOrderBook(balancedBook(base.Add(15*time.Second), 1_000_000))
	assert.Zero(t, result.RapidCancellations)
	assert.Zero(t, result.LargeOrders)
	assert.False(t, result.IsSpoofing)
}
