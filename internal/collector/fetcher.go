package collector

import (
	"context"
	"fmt"
	"time"

	"SkytechIndex/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchIntraday returns 5-minute bars covering the last days sessions.
	FetchIntraday(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	// FetchDaily returns daily bars from the given date up to now.
	FetchDaily(ctx context.Context, symbol string, from time.Time) ([]model.OHLCV, error)
	Name() string
}

// DataUnavailableError is returned when a feed has no bars for a request,
// e.g. on holidays or before the market opens.
type DataUnavailableError struct {
	Symbol string
	Reason string
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("no data for %s: %s", e.Symbol, e.Reason)
}
