package alerts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LogSink writes alerts to the structured log.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a log sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.With(zap.String("component", "alert_log_sink"))}
}

// Deliver logs the alert at a level matching its severity.
func (s *LogSink) Deliver(_ context.Context, alert Alert) error {
	fields := []zap.Field{
		zap.String("alert_id", alert.ID),
		zap.String("symbol", alert.Symbol),
		zap.String("alert_type", alert.Type),
		zap.String("severity", string(alert.Severity)),
		zap.String("message", alert.Message),
	}
	switch alert.Severity {
	case SeverityCritical:
		s.logger.Error("alert", fields...)
	case SeverityWarning:
		s.logger.Warn("alert", fields...)
	default:
		s.logger.Info("alert", fields...)
	}
	return nil
}

// RedisSink publishes alerts as JSON on a Redis pub/sub channel.
type RedisSink struct {
	client  *redis.Client
	channel string
}

// NewRedisSink creates a pub/sub sink on an existing client.
func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

// Deliver publishes the alert on the channel.
func (s *RedisSink) Deliver(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}
