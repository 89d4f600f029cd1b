// Package consumer reads market event envelopes from Kafka and hands
// them to a processing handler.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/models"
)

// EventHandler processes deserialized market events.
type EventHandler func(ctx context.Context, envelope *models.MarketEventEnvelope) error

// Config holds consumer configuration.
type Config struct {
	Brokers  []string
	Topic    string
	GroupID  string
	MinBytes int
	MaxBytes int
}

// Consumer reads market events from a Kafka topic using a consumer
// group. Messages that fail to decode or process are logged and
// skipped; offsets are committed after the handler returns so a crash
// replays at-least-once.
type Consumer struct {
	reader  *kafka.Reader
	handler EventHandler
	logger  *zap.Logger
}

// New creates a Kafka consumer.
func New(cfg Config, handler EventHandler, logger *zap.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if cfg.MinBytes <= 0 {
		cfg.MinBytes = 1
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10 << 20
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})

	return &Consumer{
		reader:  reader,
		handler: handler,
		logger: logger.With(
			zap.String("component", "consumer"),
			zap.String("topic", cfg.Topic),
			zap.String("group_id", cfg.GroupID),
		),
	}, nil
}

// Start consumes messages until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer_starting")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				c.logger.Info("consumer_stopping")
				return ctx.Err()
			}
			c.logger.Error("fetch_failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		if err := c.processMessage(ctx, msg); err != nil {
			c.logger.Error("message_processing_failed",
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			// Commit anyway: a poison message must not wedge the partition.
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("commit_failed",
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
		}
	}
}

// processMessage deserializes and processes a single message.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	start := time.Now()

	var envelope models.MarketEventEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		return fmt.Errorf("json unmarshal failed: %w", err)
	}

	lagMs := time.Since(envelope.TsEvent).Milliseconds()
	c.logger.Debug("event_received",
		zap.String("symbol", envelope.Symbol),
		zap.String("type", envelope.Type),
		zap.Int64("lag_ms", lagMs))

	if err := c.handler(ctx, &envelope); err != nil {
		return fmt.Errorf("handler failed: %w", err)
	}

	c.logger.Debug("event_processed",
		zap.String("symbol", envelope.Symbol),
		zap.String("type", envelope.Type),
		zap.Int64("lag_ms", lagMs),
		zap.Int64("processing_us", time.Since(start).Microseconds()))
	return nil
}

// Close closes the Kafka reader.
func (c *Consumer) Close() error {
	c.logger.Info("consumer_closing")
	return c.reader.Close()
}
