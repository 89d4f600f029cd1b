// Package window provides the bounded rolling buffers that back every
// calculator and detector. Entries are expected to arrive in
// timestamp-non-decreasing order per stream; the windows never reorder.
package window

import (
	"fmt"
	"time"
)

// CountWindow keeps the last N pushed values in push order.
type CountWindow[T any] struct {
	buf []T
	max int
}

// NewCountWindow returns a window holding at most size entries.
func NewCountWindow[T any](size int) (*CountWindow[T], error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}
	return &CountWindow[T]{
		buf: make([]T, 0, size),
		max: size,
	}, nil
}

// MustCountWindow is NewCountWindow for compile-time-constant sizes.
func MustCountWindow[T any](size int) *CountWindow[T] {
	w, err := NewCountWindow[T](size)
	if err != nil {
		panic(err)
	}
	return w
}

// Push appends v, evicting the oldest entry once the window is full.
func (w *CountWindow[T]) Push(v T) {
	w.buf = append(w.buf, v)
	if len(w.buf) > w.max {
		w.buf = w.buf[len(w.buf)-w.max:]
	}
}

// Values returns the current contents oldest-first. The slice is a copy,
// not a live view.
func (w *CountWindow[T]) Values() []T {
	out := make([]T, len(w.buf))
	copy(out, w.buf)
	return out
}

// Len returns the number of entries currently held.
func (w *CountWindow[T]) Len() int {
	return len(w.buf)
}

// Last returns the most recently pushed entry.
func (w *CountWindow[T]) Last() (T, bool) {
	var zero T
	if len(w.buf) == 0 {
		return zero, false
	}
	return w.buf[len(w.buf)-1], true
}

// TimeWindow keeps entries whose timestamp is within span of the most
// recently pushed entry. The eviction origin is always the timestamp of the
// just-pushed entry, so an out-of-order push can evict valid recent
// entries; callers guarantee per-stream ordering.
type TimeWindow[T any] struct {
	buf     []T
	span    time.Duration
	stamper func(T) time.Time
}

// NewTimeWindow returns a window spanning the given duration. stamper
// extracts the timestamp from an entry.
func NewTimeWindow[T any](span time.Duration, stamper func(T) time.Time) (*TimeWindow[T], error) {
	if span <= 0 {
		return nil, fmt.Errorf("window span must be positive, got %s", span)
	}
	if stamper == nil {
		return nil, fmt.Errorf("window stamper must not be nil")
	}
	return &TimeWindow[T]{
		buf:     make([]T, 0, 256),
		span:    span,
		stamper: stamper,
	}, nil
}

// MustTimeWindow is NewTimeWindow for compile-time-constant spans.
func MustTimeWindow[T any](span time.Duration, stamper func(T) time.Time) *TimeWindow[T] {
	w, err := NewTimeWindow[T](span, stamper)
	if err != nil {
		panic(err)
	}
	return w
}

// Push appends v and evicts entries older than v's timestamp minus the span.
// Pushing into an empty window never evicts.
func (w *TimeWindow[T]) Push(v T) {
	w.buf = append(w.buf, v)
	w.prune(w.stamper(v))
}

// Prune evicts entries older than now minus the span without pushing.
// Useful when time advances on a stream the window does not ingest.
func (w *TimeWindow[T]) Prune(now time.Time) {
	w.prune(now)
}

func (w *TimeWindow[T]) prune(now time.Time) {
	cutoff := now.Add(-w.span)
	keep := 0
	for keep < len(w.buf) && w.stamper(w.buf[keep]).Before(cutoff) {
		keep++
	}
	if keep > 0 {
		w.buf = w.buf[keep:]
	}
}

// Values returns the current contents oldest-first, as a copy.
func (w *TimeWindow[T]) Values() []T {
	out := make([]T, len(w.buf))
	copy(out, w.buf)
	return out
}

// Len returns the number of entries currently held.
func (w *TimeWindow[T]) Len() int {
	return len(w.buf)
}

// Last returns the most recently pushed entry.
func (w *TimeWindow[T]) Last() (T, bool) {
	var zero T
	if len(w.buf) == 0 {
		return zero, false
	}
	return w.buf[len(w.buf)-1], true
}

// Span returns the configured window duration.
func (w *TimeWindow[T]) Span() time.Duration {
	return w.span
}
