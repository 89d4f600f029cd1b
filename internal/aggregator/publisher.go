package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/models"
)

// RedisPublisher caches the latest metric snapshot per symbol in Redis
// under metrics:{symbol} with a TTL, so downstream consumers always read
// a fresh record or nothing.
type RedisPublisher struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisPublisher connects to Redis and verifies the connection.
func NewRedisPublisher(redisURL, redisPassword string, ttl time.Duration, logger *zap.Logger) (*RedisPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if redisPassword != "" {
		opt.Password = redisPassword
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisPublisher{
		client: client,
		ttl:    ttl,
		logger: logger.With(zap.String("component", "redis_publisher")),
	}, nil
}

// Publish stores the metric snapshot with TTL.
func (p *RedisPublisher) Publish(ctx context.Context, symbol string, record *models.MarketMetrics) error {
	jsonBytes, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("json marshal failed: %w", err)
	}

	cacheKey := fmt.Sprintf("metrics:%s", symbol)
	if err := p.client.Set(ctx, cacheKey, jsonBytes, p.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}

	p.logger.Debug("metrics_cached",
		zap.String("symbol", symbol),
		zap.String("cache_key", cacheKey),
		zap.Int("size_bytes", len(jsonBytes)))
	return nil
}

// Close closes the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
