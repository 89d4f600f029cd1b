package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountWindowRejectsNonPositiveSize(t *testing.T) {
	_, err := NewCountWindow[int](0)
	require.Error(t, err)

	_, err = NewCountWindow[int](-1)
	require.Error(t, err)
}

func TestCountWindowEvictsOldest(t *testing.T) {
	w := MustCountWindow[int](3)

	for i := 1; i <= 5; i++ {
		w.Push(i)
	}

	assert.Equal(t, 3, w.Len())
	assert.Equal(t, []int{3, 4, 5}, w.Values())

	last, ok := w.Last()
	require.True(t, ok)
	assert.Equal(t, 5, last)
}

func TestCountWindowValuesIsACopy(t *testing.T) {
	w := MustCountWindow[int](3)
	w.Push(1)
	w.Push(2)

	values := w.Values()
	values[0] = 99

	assert.Equal(t, []int{1, 2}, w.Values())
}

func TestCountWindowEmptyLast(t *testing.T) {
	w := MustCountWindow[string](2)
	_, ok := w.Last()
	assert.False(t, ok)
	assert.Empty(t, w.Values())
}

type stamped struct {
	ts time.Time
	v  int
}

func TestTimeWindowEvictsByTimestamp(t *testing.T) {
	w := MustTimeWindow[stamped](10*time.Second, func(s stamped) time.Time { return s.ts })

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	w.Push(stamped{ts: base, v: 1})
	w.Push(stamped{ts: base.Add(5 * time.Second), v: 2})
	w.Push(stamped{ts: base.Add(9 * time.Second), v: 3})
	assert.Equal(t, 3, w.Len())

	// Entry at base falls outside [t-10s, t] once t = base+11s.
	w.Push(stamped{ts: base.Add(11 * time.Second), v: 4})
	assert.Equal(t, 3, w.Len())

	values := w.Values()
	assert.Equal(t, 2, values[0].v)
	assert.Equal(t, 4, values[2].v)
}

func TestTimeWindowBoundaryIsInclusive(t *testing.T) {
	w := MustTimeWindow[stamped](10*time.Second, func(s stamped) time.Time { return s.ts })

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	w.Push(stamped{ts: base, v: 1})
	w.Push(stamped{ts: base.Add(10 * time.Second), v: 2})

	// Exactly span old is kept.
	assert.Equal(t, 2, w.Len())
}

func TestTimeWindowPruneWithoutPush(t *testing.T) {
	w := MustTimeWindow[stamped](10*time.Second, func(s stamped) time.Time { return s.ts })

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	w.Push(stamped{ts: base, v: 1})
	w.Push(stamped{ts: base.Add(8 * time.Second), v: 2})

	w.Prune(base.Add(15 * time.Second))
	assert.Equal(t, 1, w.Len())

	last, ok := w.Last()
	require.True(t, ok)
	assert.Equal(t, 2, last.v)
}

func TestTimeWindowRejectsBadConfig(t *testing.T) {
	_, err := NewTimeWindow[stamped](0, func(s stamped) time.Time { return s.ts })
	require.Error(t, err)

	_, err = NewTimeWindow[stamped](time.Second, nil)
	require.Error(t, err)
}
