// Package storage persists metric snapshots in batches.
package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/models"
)

// RowInserter writes a batch of metric records to a backing store.
type RowInserter interface {
	InsertRows(ctx context.Context, rows []models.MarketMetrics) error
}

// BatchWriterConfig configures the batch writer.
type BatchWriterConfig struct {
	BatchSize     int           // Flush when this many rows are buffered
	FlushInterval time.Duration // Flush at least this often
}

// DefaultBatchWriterConfig returns the default configuration.
func DefaultBatchWriterConfig() BatchWriterConfig {
	return BatchWriterConfig{
		BatchSize:     100,
		FlushInterval: 5 * time.Second,
	}
}

// BatchWriter buffers metric records and flushes them to an inserter
// when the batch fills or the flush interval elapses. Add is safe for
// concurrent use; Run owns the timer loop.
type BatchWriter struct {
	mu     sync.Mutex
	buffer []models.MarketMetrics

	config   BatchWriterConfig
	inserter RowInserter
	logger   *zap.Logger
}

// NewBatchWriter creates a batch writer.
func NewBatchWriter(config BatchWriterConfig, inserter RowInserter, logger *zap.Logger) (*BatchWriter, error) {
	if config.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", config.BatchSize)
	}
	if config.FlushInterval <= 0 {
		return nil, fmt.Errorf("flush interval must be positive, got %s", config.FlushInterval)
	}
	return &BatchWriter{
		buffer:   make([]models.MarketMetrics, 0, config.BatchSize),
		config:   config,
		inserter: inserter,
		logger:   logger.With(zap.String("component", "batch_writer")),
	}, nil
}

// Add buffers a record and flushes if the batch is full.
func (w *BatchWriter) Add(ctx context.Context, record models.MarketMetrics) error {
	w.mu.Lock()
	w.buffer = append(w.buffer, record)
	full := len(w.buffer) >= w.config.BatchSize
	w.mu.Unlock()

	if full {
		return w.Flush(ctx)
	}
	return nil
}

// Flush writes any buffered rows to the inserter. On insert failure the
// rows are dropped; metric snapshots are replaceable and blocking the
// hot path on a slow store is worse than a gap.
func (w *BatchWriter) Flush(ctx context.Context) error {
	w.mu.Lock()
	if len(w.buffer) == 0 {
		w.mu.Unlock()
		return nil
	}
	rows := w.buffer
	w.buffer = make([]models.MarketMetrics, 0, w.config.BatchSize)
	w.mu.Unlock()

	if err := w.inserter.InsertRows(ctx, rows); err != nil {
		w.logger.Error("batch_insert_failed",
			zap.Int("rows", len(rows)),
			zap.Error(err))
		return fmt.Errorf("insert %d rows: %w", len(rows), err)
	}

	w.logger.Debug("batch_flushed", zap.Int("rows", len(rows)))
	return nil
}

// Run flushes on the configured interval until the context is
// cancelled, then performs a final flush.
func (w *BatchWriter) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := w.Flush(flushCtx); err != nil {
				w.logger.Error("final_flush_failed", zap.Error(err))
			}
			return ctx.Err()
		case <-ticker.C:
			if err := w.Flush(ctx); err != nil {
				w.logger.Error("interval_flush_failed", zap.Error(err))
			}
		}
	}
}

// Buffered returns the number of rows currently buffered.
func (w *BatchWriter) Buffered() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buffer)
}
