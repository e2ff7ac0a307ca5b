package port

import (
	"context"
	"time"

	"github.com/rl1809/cardapio/internal/core/domain"
)

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// ReleaseIdempotency frees a key so a failed request can be retried
	ReleaseIdempotency(ctx context.Context, key string) error

	// GetMetrics returns a cached summary, or nil on a miss
	GetMetrics(ctx context.Context, key string) (*domain.MetricsSummary, error)

	SetMetrics(ctx context.Context, key string, summary domain.MetricsSummary, ttl time.Duration) error
}
