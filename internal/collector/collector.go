package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"SkytechIndex/internal/index"
	"SkytechIndex/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	mu        sync.Mutex
	Intraday  map[string][]model.OHLCV
	Daily     map[string][]model.OHLCV
	Err       error
	FailTimes int // fail this many calls with Err before serving data
	Calls     int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) next() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil && m.Calls <= m.FailTimes {
		return m.Err
	}
	return nil
}

func (m *MockFetcher) FetchIntraday(_ context.Context, symbol string, _ int) ([]model.OHLCV, error) {
	if err := m.next(); err != nil {
		return nil, err
	}
	bars, ok := m.Intraday[symbol]
	if !ok || len(bars) == 0 {
		return nil, &DataUnavailableError{Symbol: symbol, Reason: "mock has no intraday bars"}
	}
	return bars, nil
}

func (m *MockFetcher) FetchDaily(_ context.Context, symbol string, from time.Time) ([]model.OHLCV, error) {
	if err := m.next(); err != nil {
		return nil, err
	}
	var out []model.OHLCV
	for _, b := range m.Daily[symbol] {
		if !b.Time.Before(from) {
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		return nil, &DataUnavailableError{Symbol: symbol, Reason: "mock has no daily bars"}
	}
	return out, nil
}

// Collector orchestrates data fetching and index computation.
type Collector struct {
	Fetcher      Fetcher
	Computer     *index.Computer
	IntradayDays int
	Attempts     int
	Backoff      time.Duration
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, computer *index.Computer, intradayDays, attempts int, backoff time.Duration) *Collector {
	return &Collector{
		Fetcher:      fetcher,
		Computer:     computer,
		IntradayDays: intradayDays,
		Attempts:     attempts,
		Backoff:      backoff,
	}
}

// Collect fetches prices for every constituent and computes the snapshot.
// Nothing is returned unless the level series is complete.
func (c *Collector) Collect(ctx context.Context) (*model.Snapshot, error) {
	def := c.Computer.Definition()

	var daily, intraday []model.PriceObservation
	for _, con := range def.Constituents {
		var dBars, iBars []model.OHLCV
		err := withRetry(ctx, c.Attempts, c.Backoff, "daily "+con.Symbol, func() error {
			var err error
			dBars, err = c.Fetcher.FetchDaily(ctx, con.Symbol, def.Base.Date)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("fetch daily bars %s: %w", con.Code, err)
		}
		err = withRetry(ctx, c.Attempts, c.Backoff, "intraday "+con.Symbol, func() error {
			var err error
			iBars, err = c.Fetcher.FetchIntraday(ctx, con.Symbol, c.IntradayDays)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("fetch intraday bars %s: %w", con.Code, err)
		}
		daily = append(daily, model.Observations(con.Code, dBars)...)
		intraday = append(intraday, model.Observations(con.Code, iBars)...)
	}

	// Daily history rebased to the base date
	base := c.Computer.BasePrices(daily)
	dailyRet, err := c.Computer.ComputeReturns(daily, base)
	if err != nil {
		return nil, fmt.Errorf("daily returns: %w", err)
	}
	history := c.Computer.ComputeEqualWeightIndex(dailyRet)

	// Latest session, rebased the same way
	sessionDate, session := c.Computer.LatestSession(intraday)
	if len(session) == 0 {
		return nil, errors.New("no intraday observations")
	}
	sessRet, err := c.Computer.ComputeReturns(session, base)
	if err != nil {
		return nil, fmt.Errorf("intraday returns: %w", err)
	}
	levels := c.Computer.ComputeEqualWeightIndex(sessRet)
	if len(levels) == 0 {
		return nil, fmt.Errorf("no common timestamps on %s", sessionDate.Format("2006-01-02"))
	}

	// Change vs session open
	openRet, err := c.Computer.ComputeReturns(session, index.SessionOpenPrices(session))
	if err != nil {
		return nil, fmt.Errorf("session open returns: %w", err)
	}
	pct := c.Computer.EqualWeightChange(openRet)

	summary, err := c.Computer.Summarize(levels)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	log.Printf("[INFO] collected %s session %s: %d levels, level=%.2f",
		def.Key, sessionDate.Format("2006-01-02"), len(levels), summary.Level)

	return &model.Snapshot{
		Definition:  def,
		SessionDate: sessionDate,
		Intraday:    levels,
		IntradayPct: pct,
		History:     c.Computer.MergeHistory(history, levels),
		Summary:     summary,
	}, nil
}
