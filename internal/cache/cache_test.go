package cache

import (
	"context"
	"testing"
	"time"

	"SkytechIndex/internal/model"
)

func TestNoopCache(t *testing.T) {
	c := NewNoopCache()
	ctx := context.Background()
	if err := c.SetBars(ctx, "daily:6232.T:20240102", []model.OHLCV{{Close: 1}}, time.Hour); err != nil {
		t.Fatalf("SetBars: %v", err)
	}
	bars, ok, err := c.GetBars(ctx, "daily:6232.T:20240102")
	if err != nil || ok || bars != nil {
		t.Errorf("GetBars = %v, %v, %v; want miss", bars, ok, err)
	}
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewRedisCache(ctx, "127.0.0.1:1", "", 0); err == nil {
		t.Fatal("expected connection error")
	}
}
