package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/models"
)

// RedisStreamInserter appends metric rows to a Redis Stream, one entry
// per row with a JSON data field. The stream is capped approximately
// to bound memory.
type RedisStreamInserter struct {
	client    *redis.Client
	streamKey string
	maxLen    int64
}

// NewRedisStreamInserter creates an inserter on an existing client.
func NewRedisStreamInserter(client *redis.Client, streamKey string, maxLen int64) *RedisStreamInserter {
	return &RedisStreamInserter{client: client, streamKey: streamKey, maxLen: maxLen}
}

// InsertRows appends the rows via a pipeline.
func (r *RedisStreamInserter) InsertRows(ctx context.Context, rows []models.MarketMetrics) error {
	pipe := r.client.Pipeline()
	for _, row := range rows {
		payload, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshal row for %s: %w", row.Symbol, err)
		}
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: r.streamKey,
			MaxLen: r.maxLen,
			Approx: true,
			Values: map[string]any{"data": payload},
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("xadd pipeline: %w", err)
	}
	return nil
}
