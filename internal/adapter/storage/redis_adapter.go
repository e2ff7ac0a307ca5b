package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/cardapio/internal/core/domain"
)

const (
	idempotencyKeyPrefix = "order:req:"
	metricsKeyPrefix     = "metrics:"
)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, idempotencyKeyPrefix+key, 1, ttl).Result()
	if err != nil {
		return false, cacheError(err)
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return cacheError(r.client.Del(ctx, idempotencyKeyPrefix+key).Err())
}

func (r *RedisAdapter) GetMetrics(ctx context.Context, key string) (*domain.MetricsSummary, error) {
	raw, err := r.client.Get(ctx, metricsKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, cacheError(err)
	}

	var summary domain.MetricsSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		// a stale or foreign payload is treated as a miss
		return nil, nil
	}
	return &summary, nil
}

func (r *RedisAdapter) SetMetrics(ctx context.Context, key string, summary domain.MetricsSummary, ttl time.Duration) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	return cacheError(r.client.Set(ctx, metricsKeyPrefix+key, raw, ttl).Err())
}

func cacheError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("cache: %w", domain.ErrTimeout)
	}
	return fmt.Errorf("cache: %w: %v", domain.ErrUnavailable, err)
}
