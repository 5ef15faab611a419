package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"SkytechIndex/internal/cache"
	"SkytechIndex/internal/model"
)

// CachedFetcher serves completed daily bars from a BarCache and only asks
// the wrapped Fetcher for days after the last cached bar. Intraday bars
// are always fetched fresh.
type CachedFetcher struct {
	Fetcher  Fetcher
	Cache    cache.BarCache
	TTL      time.Duration
	Location *time.Location
	Now      func() time.Time
}

// NewCachedFetcher wraps f with c.
func NewCachedFetcher(f Fetcher, c cache.BarCache, ttl time.Duration, loc *time.Location) *CachedFetcher {
	return &CachedFetcher{Fetcher: f, Cache: c, TTL: ttl, Location: loc, Now: time.Now}
}

func (f *CachedFetcher) Name() string { return f.Fetcher.Name() + "+cache" }

func (f *CachedFetcher) FetchIntraday(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	return f.Fetcher.FetchIntraday(ctx, symbol, days)
}

func (f *CachedFetcher) FetchDaily(ctx context.Context, symbol string, from time.Time) ([]model.OHLCV, error) {
	key := fmt.Sprintf("daily:%s:%s", symbol, from.Format("20060102"))
	cached, ok, err := f.Cache.GetBars(ctx, key)
	if err != nil {
		log.Printf("[WARN] bar cache read %s: %v", key, err)
		ok = false
	}

	start := from
	if ok && len(cached) > 0 {
		start = f.day(cached[len(cached)-1].Time).AddDate(0, 0, 1)
	} else {
		cached = nil
	}

	fresh, err := f.Fetcher.FetchDaily(ctx, symbol, start)
	var unavailable *DataUnavailableError
	switch {
	case err == nil:
	case errors.As(err, &unavailable) && len(cached) > 0:
		// nothing new since the cached bars
	default:
		return nil, err
	}

	bars := append([]model.OHLCV(nil), cached...)
	for _, b := range fresh {
		if len(cached) == 0 || b.Time.After(cached[len(cached)-1].Time) {
			bars = append(bars, b)
		}
	}

	// Only bars from completed days are stable enough to cache.
	today := f.day(f.Now())
	var completed []model.OHLCV
	for _, b := range bars {
		if f.day(b.Time).Before(today) {
			completed = append(completed, b)
		}
	}
	if len(completed) > len(cached) {
		if err := f.Cache.SetBars(ctx, key, completed, f.TTL); err != nil {
			log.Printf("[WARN] bar cache write %s: %v", key, err)
		}
	}
	return bars, nil
}

func (f *CachedFetcher) day(t time.Time) time.Time {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
