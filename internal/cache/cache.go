package cache

import (
	"context"
	"time"

	"SkytechIndex/internal/model"
)

// BarCache stores price bars by key.
type BarCache interface {
	// GetBars returns the cached bars and whether the key was present.
	GetBars(ctx context.Context, key string) ([]model.OHLCV, bool, error)
	SetBars(ctx context.Context, key string, bars []model.OHLCV, ttl time.Duration) error
	Close() error
}

// NoopCache never stores anything.
type NoopCache struct{}

func NewNoopCache() *NoopCache { return &NoopCache{} }

func (NoopCache) GetBars(_ context.Context, _ string) ([]model.OHLCV, bool, error) {
	return nil, false, nil
}

func (NoopCache) SetBars(_ context.Context, _ string, _ []model.OHLCV, _ time.Duration) error {
	return nil
}

func (NoopCache) Close() error { return nil }
