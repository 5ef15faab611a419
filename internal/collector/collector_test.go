package collector

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"SkytechIndex/internal/index"
	"SkytechIndex/internal/model"
)

var jst = time.FixedZone("JST", 9*3600)

func testDefinition() model.Definition {
	return model.Definition{
		Key: "SKYTECH-3",
		Constituents: []model.Constituent{
			{Code: "6232", Symbol: "6232.T", Name: "ACSL"},
			{Code: "218A", Symbol: "218A.T", Name: "Liberaware"},
			{Code: "278A", Symbol: "278A.T", Name: "Terra Drone"},
		},
		Base:     model.BaseReference{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, jst), Level: 1000},
		Location: jst,
	}
}

func bar(t time.Time, close float64) model.OHLCV {
	return model.OHLCV{Time: t, Open: close, High: close, Low: close, Close: close}
}

func session(h, m int) time.Time {
	return time.Date(2025, 3, 14, h, m, 0, 0, jst)
}

func newMockFetcher() *MockFetcher {
	baseDay := time.Date(2024, 1, 2, 9, 0, 0, 0, jst)
	prevDay := time.Date(2025, 3, 13, 9, 0, 0, 0, jst)
	return &MockFetcher{
		Daily: map[string][]model.OHLCV{
			"6232.T": {bar(baseDay, 100), bar(prevDay, 105), bar(session(9, 0), 111)},
			"218A.T": {bar(baseDay, 200), bar(prevDay, 210), bar(session(9, 0), 222)},
			"278A.T": {bar(baseDay, 400), bar(prevDay, 420), bar(session(9, 0), 444)},
		},
		Intraday: map[string][]model.OHLCV{
			"6232.T": {bar(prevDay.Add(6*time.Hour), 104), bar(session(9, 0), 110), bar(session(9, 5), 100), bar(session(9, 10), 120), bar(session(9, 15), 121)},
			"218A.T": {bar(session(9, 0), 220), bar(session(9, 5), 200), bar(session(9, 10), 200), bar(session(9, 15), 201)},
			"278A.T": {bar(session(9, 0), 440), bar(session(9, 5), 400), bar(session(9, 10), 400)},
		},
	}
}

func newTestCollector(t *testing.T, f Fetcher) *Collector {
	t.Helper()
	comp, err := index.NewComputer(testDefinition())
	if err != nil {
		t.Fatalf("NewComputer: %v", err)
	}
	return NewCollector(f, comp, 5, 3, time.Millisecond)
}

func TestCollect_BuildsSnapshot(t *testing.T) {
	col := newTestCollector(t, newMockFetcher())
	snap, err := col.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if !snap.SessionDate.Equal(time.Date(2025, 3, 14, 0, 0, 0, 0, jst)) {
		t.Errorf("SessionDate = %v", snap.SessionDate)
	}

	wantLevels := []float64{1100, 1000, 1000 * (1 + 20.0/3/100)}
	if len(snap.Intraday) != len(wantLevels) {
		t.Fatalf("expected %d intraday levels, got %d", len(wantLevels), len(snap.Intraday))
	}
	for i, w := range wantLevels {
		if math.Abs(snap.Intraday[i].Level-w) > 1e-6 {
			t.Errorf("level[%d] = %.6f, want %.6f", i, snap.Intraday[i].Level, w)
		}
	}

	if len(snap.IntradayPct) != 3 || snap.IntradayPct[0].Pct != 0 {
		t.Fatalf("unexpected pct series %+v", snap.IntradayPct)
	}
	wantLast := (120.0/110 - 1 + 200.0/220 - 1 + 400.0/440 - 1) / 3 * 100
	if math.Abs(snap.LastPct()-wantLast) > 1e-9 {
		t.Errorf("last pct = %v, want %v", snap.LastPct(), wantLast)
	}

	// base day, previous day, then the three intraday levels
	if len(snap.History) != 5 {
		t.Fatalf("expected 5 history levels, got %d", len(snap.History))
	}
	if snap.History[0].Level != 1000 {
		t.Errorf("base date level = %v, want 1000", snap.History[0].Level)
	}
	if math.Abs(snap.History[1].Level-1050) > 1e-9 {
		t.Errorf("previous day level = %v, want 1050", snap.History[1].Level)
	}

	if math.Abs(snap.Summary.Level-wantLevels[2]) > 1e-6 {
		t.Errorf("summary level = %v", snap.Summary.Level)
	}
	if math.Abs(snap.Summary.PctVsOpen-(wantLevels[2]/1100-1)*100) > 1e-9 {
		t.Errorf("summary pct vs open = %v", snap.Summary.PctVsOpen)
	}
}

func TestCollect_RetriesTransientErrors(t *testing.T) {
	f := newMockFetcher()
	f.Err = errors.New("connection reset")
	f.FailTimes = 2
	col := newTestCollector(t, f)
	if _, err := col.Collect(context.Background()); err != nil {
		t.Fatalf("Collect should succeed after retries: %v", err)
	}
	// two failures plus daily+intraday for three constituents
	if f.Calls != 8 {
		t.Errorf("expected 8 fetch calls, got %d", f.Calls)
	}
}

func TestCollect_GivesUpAfterAttempts(t *testing.T) {
	f := newMockFetcher()
	f.Err = errors.New("connection reset")
	f.FailTimes = 100
	col := newTestCollector(t, f)
	if _, err := col.Collect(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if f.Calls != 3 {
		t.Errorf("expected 3 attempts, got %d", f.Calls)
	}
}

func TestCollect_MissingBaseDate(t *testing.T) {
	f := newMockFetcher()
	f.Daily["278A.T"] = f.Daily["278A.T"][1:]
	col := newTestCollector(t, f)
	_, err := col.Collect(context.Background())
	var missing *index.MissingBasePriceError
	if !errors.As(err, &missing) || missing.Ticker != "278A" {
		t.Fatalf("expected MissingBasePriceError for 278A, got %v", err)
	}
}

func TestCollect_ConstituentUnavailable(t *testing.T) {
	f := newMockFetcher()
	delete(f.Intraday, "218A.T")
	col := newTestCollector(t, f)
	_, err := col.Collect(context.Background())
	var unavailable *DataUnavailableError
	if !errors.As(err, &unavailable) || unavailable.Symbol != "218A.T" {
		t.Fatalf("expected DataUnavailableError for 218A.T, got %v", err)
	}
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := withRetry(ctx, 3, time.Hour, "test", func() error { return errors.New("boom") })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
