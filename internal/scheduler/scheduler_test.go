package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"SkytechIndex/internal/collector"
	"SkytechIndex/internal/index"
	"SkytechIndex/internal/model"
	"SkytechIndex/internal/output"
	"SkytechIndex/internal/recorder"
)

var jst = time.FixedZone("JST", 9*3600)

type fakeNotifier struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return f.err
}

type memRecorder struct {
	recorder.NoopRecorder
	runs   []*recorder.RunRecord
	levels int
}

func (m *memRecorder) RecordRun(run *recorder.RunRecord) error {
	m.runs = append(m.runs, run)
	return nil
}

func (m *memRecorder) RecordLevels(levels []model.IndexLevel) error {
	m.levels += len(levels)
	return nil
}

func bar(t time.Time, close float64) model.OHLCV {
	return model.OHLCV{Time: t, Open: close, High: close, Low: close, Close: close}
}

func newTestScheduler(t *testing.T, f *collector.MockFetcher) (*Scheduler, *fakeNotifier, *memRecorder) {
	t.Helper()
	def := model.Definition{
		Key:   "SKYTECH-3",
		Title: "スカイテック指数",
		Constituents: []model.Constituent{
			{Code: "6232", Symbol: "6232.T"},
			{Code: "218A", Symbol: "218A.T"},
		},
		Base:     model.BaseReference{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, jst), Level: 1000},
		Location: jst,
	}
	comp, err := index.NewComputer(def)
	if err != nil {
		t.Fatalf("NewComputer: %v", err)
	}
	col := collector.NewCollector(f, comp, 5, 1, time.Millisecond)
	n := &fakeNotifier{}
	rec := &memRecorder{}
	s := NewScheduler(context.Background(), col, output.NewWriter(t.TempDir()), n, rec, jst)
	return s, n, rec
}

func testFetcher() *collector.MockFetcher {
	baseDay := time.Date(2024, 1, 2, 9, 0, 0, 0, jst)
	t0 := time.Date(2025, 3, 14, 9, 0, 0, 0, jst)
	return &collector.MockFetcher{
		Daily: map[string][]model.OHLCV{
			"6232.T": {bar(baseDay, 100)},
			"218A.T": {bar(baseDay, 200)},
		},
		Intraday: map[string][]model.OHLCV{
			"6232.T": {bar(t0, 110), bar(t0.Add(5*time.Minute), 121)},
			"218A.T": {bar(t0, 220), bar(t0.Add(5*time.Minute), 220)},
		},
	}
}

func TestRunNow_Success(t *testing.T) {
	s, n, rec := newTestScheduler(t, testFetcher())

	if err := s.RunNow(); err != nil {
		t.Fatalf("RunNow: %v", err)
	}

	snap := s.Last()
	if snap == nil || snap.Summary == nil {
		t.Fatal("expected a snapshot")
	}
	// (21% + 10%) / 2 above base
	if got := snap.Summary.Level; got < 1154.99 || got > 1155.01 {
		t.Errorf("level = %v, want 1155", got)
	}
	if len(rec.runs) != 1 || rec.runs[0].Status != recorder.StatusOK || rec.runs[0].RunID == "" {
		t.Fatalf("unexpected runs %+v", rec.runs)
	}
	if rec.runs[0].SessionDate != "2025-03-14" || rec.runs[0].Source != "mock" || rec.levels != 2 {
		t.Errorf("unexpected run %+v, levels %d", rec.runs[0], rec.levels)
	}
	if len(n.texts) != 1 || !strings.HasPrefix(n.texts[0], "【SKYTECH-3｜スカイテック指数】") {
		t.Errorf("unexpected notifications %q", n.texts)
	}
	if _, err := os.Stat(filepath.Join(s.Writer.Dir, "skytech_3_stats.json")); err != nil {
		t.Errorf("stats not written: %v", err)
	}
}

func TestRunNow_FailureWritesNothing(t *testing.T) {
	f := testFetcher()
	f.Err = errors.New("feed down")
	f.FailTimes = 100
	s, n, rec := newTestScheduler(t, f)

	if err := s.RunNow(); err == nil {
		t.Fatal("expected error")
	}
	if s.Last() != nil {
		t.Error("failed run must not replace the snapshot")
	}
	if len(rec.runs) != 1 || rec.runs[0].Status != recorder.StatusFailed || !strings.Contains(rec.runs[0].Error, "feed down") {
		t.Errorf("unexpected runs %+v", rec.runs)
	}
	if len(n.texts) != 0 {
		t.Errorf("expected no notification, got %q", n.texts)
	}
	entries, _ := os.ReadDir(s.Writer.Dir)
	if len(entries) != 0 {
		t.Errorf("expected no outputs, found %d", len(entries))
	}
}

func TestRunNow_NotifierFailureIsNotFatal(t *testing.T) {
	s, n, _ := newTestScheduler(t, testFetcher())
	n.err = errors.New("telegram down")
	if err := s.RunNow(); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
}

func TestRunNow_RejectsOverlap(t *testing.T) {
	s, _, _ := newTestScheduler(t, testFetcher())
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if err := s.RunNow(); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("err = %v, want ErrRunInProgress", err)
	}
}

func TestHandleCommand(t *testing.T) {
	s, _, _ := newTestScheduler(t, testFetcher())

	if got := s.HandleCommand("/index"); !strings.Contains(got, "まだ") {
		t.Errorf("/index before run = %q", got)
	}
	if got := s.HandleCommand("/status"); !strings.Contains(got, "実行履歴はありません") {
		t.Errorf("/status before run = %q", got)
	}
	if err := s.RunNow(); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if got := s.HandleCommand("/index"); !strings.Contains(got, "指数: 1155.00") {
		t.Errorf("/index = %q", got)
	}
	if got := s.HandleCommand("/post"); got != output.PostText(s.Last()) {
		t.Errorf("/post = %q", got)
	}
	if got := s.HandleCommand("/status"); !strings.Contains(got, "✅") {
		t.Errorf("/status = %q", got)
	}
	if got := s.HandleCommand("hello"); !strings.Contains(got, "/run") {
		t.Errorf("help = %q", got)
	}
}

func TestRegister_InvalidCron(t *testing.T) {
	s, _, _ := newTestScheduler(t, testFetcher())
	if err := s.Register("not a cron"); err == nil {
		t.Error("expected error")
	}
	if err := s.Register("0 */5 9-15 * * 1-5"); err != nil {
		t.Errorf("Register: %v", err)
	}
}
