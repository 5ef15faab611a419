package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const chartJSON = `{"chart":{"result":[{
  "timestamp":[1741910400,1741910700,1741911000],
  "indicators":{"quote":[{
    "open":[100.0,null,102.0],
    "high":[101.0,null,103.0],
    "low":[99.0,null,101.0],
    "close":[100.5,null,102.5],
    "volume":[1000,null,1200]
  }]}
}],"error":null}}`

func newTestYahoo(t *testing.T, handler http.HandlerFunc) *YahooFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &YahooFetcher{BaseURL: srv.URL, Client: srv.Client()}
}

func TestYahooFetcher_FetchIntraday(t *testing.T) {
	var gotPath, gotInterval, gotRange string
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInterval = r.URL.Query().Get("interval")
		gotRange = r.URL.Query().Get("range")
		w.Write([]byte(chartJSON))
	})

	bars, err := f.FetchIntraday(context.Background(), "6232.T", 5)
	if err != nil {
		t.Fatalf("FetchIntraday: %v", err)
	}
	if gotPath != "/v8/finance/chart/6232.T" {
		t.Errorf("path = %q", gotPath)
	}
	if gotInterval != "5m" || gotRange != "5d" {
		t.Errorf("interval=%q range=%q", gotInterval, gotRange)
	}
	if len(bars) != 2 {
		t.Fatalf("expected null bar to be skipped, got %d bars", len(bars))
	}
	if bars[0].Close != 100.5 || bars[1].Close != 102.5 {
		t.Errorf("unexpected closes %v, %v", bars[0].Close, bars[1].Close)
	}
	if !bars[0].Time.Equal(time.Unix(1741910400, 0)) {
		t.Errorf("unexpected time %v", bars[0].Time)
	}
}

func TestYahooFetcher_FetchDaily(t *testing.T) {
	var period1 string
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		period1 = r.URL.Query().Get("period1")
		if r.URL.Query().Get("interval") != "1d" {
			t.Errorf("interval = %q", r.URL.Query().Get("interval"))
		}
		w.Write([]byte(chartJSON))
	})
	from := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if _, err := f.FetchDaily(context.Background(), "218A.T", from); err != nil {
		t.Fatalf("FetchDaily: %v", err)
	}
	if period1 != "1704153600" {
		t.Errorf("period1 = %q", period1)
	}
}

func TestYahooFetcher_NoData(t *testing.T) {
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"timestamp":[],"indicators":{"quote":[{}]}}],"error":null}}`))
	})
	_, err := f.FetchIntraday(context.Background(), "278A.T", 1)
	var unavailable *DataUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected DataUnavailableError, got %v", err)
	}
}

func TestYahooFetcher_APIError(t *testing.T) {
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	})
	_, err := f.FetchIntraday(context.Background(), "XXXX.T", 1)
	if err == nil || !strings.Contains(err.Error(), "delisted") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestYahooFetcher_BadStatus(t *testing.T) {
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	})
	_, err := f.FetchIntraday(context.Background(), "6232.T", 1)
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestRESTFetcher_FetchDaily(t *testing.T) {
	var auth, from string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		from = r.URL.Query().Get("from")
		w.Write([]byte(`[{"timestamp":1704153600,"close":10},{"timestamp":1704067200,"close":9}]`))
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "")
	bars, err := f.FetchDaily(context.Background(), "6232.T", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("FetchDaily: %v", err)
	}
	if auth != "Bearer secret" || from != "2024-01-01" {
		t.Errorf("auth=%q from=%q", auth, from)
	}
	if len(bars) != 2 || bars[0].Close != 9 {
		t.Errorf("bars not sorted: %+v", bars)
	}
}
