package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"SkytechIndex/internal/collector"
	"SkytechIndex/internal/model"
	"SkytechIndex/internal/notifier"
	"SkytechIndex/internal/output"
	"SkytechIndex/internal/recorder"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// ErrRunInProgress is returned by RunNow while another run is active.
var ErrRunInProgress = errors.New("a run is already in progress")

// Notifier delivers the post text.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages the intraday cron task and the command interface.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Writer    *output.Writer
	Notifier  Notifier
	Recorder  recorder.Recorder
	Ctx       context.Context
	Now       func() time.Time

	runMu sync.Mutex

	mu      sync.RWMutex
	last    *model.Snapshot
	lastRun *recorder.RunRecord
}

// NewScheduler creates a new Scheduler running its cron in loc.
func NewScheduler(ctx context.Context, col *collector.Collector, w *output.Writer, n Notifier, rec recorder.Recorder, loc *time.Location) *Scheduler {
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		Collector: col,
		Writer:    w,
		Notifier:  n,
		Recorder:  rec,
		Ctx:       ctx,
		Now:       time.Now,
	}
}

// Register adds the intraday update task.
func (s *Scheduler) Register(intradayCron string) error {
	if _, err := s.Cron.AddFunc(intradayCron, s.intradayTask); err != nil {
		return fmt.Errorf("register intraday task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running task.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

func (s *Scheduler) intradayTask() {
	if err := s.RunNow(); err != nil {
		log.Printf("[ERROR] intraday task: %v", err)
	}
}

// RunNow executes one collect, write and notify pipeline.
func (s *Scheduler) RunNow() error {
	if !s.runMu.TryLock() {
		return ErrRunInProgress
	}
	defer s.runMu.Unlock()

	run := &recorder.RunRecord{
		RunID:     uuid.NewString(),
		StartedAt: s.Now(),
		Source:    s.Collector.Fetcher.Name(),
	}
	log.Printf("[INFO] run %s started", run.RunID)

	snap, err := s.pipeline()
	run.FinishedAt = s.Now()
	if err != nil {
		run.Status = recorder.StatusFailed
		run.Error = err.Error()
		s.finish(run)
		return err
	}

	run.Status = recorder.StatusOK
	run.SessionDate = snap.SessionDate.Format("2006-01-02")
	run.Level = snap.Summary.Level
	run.PctIntraday = snap.LastPct()
	run.PctVsPrev = snap.Summary.PctVsPrev
	run.Points = snap.Summary.Points

	s.mu.Lock()
	s.last = snap
	s.mu.Unlock()

	if err := s.Recorder.RecordLevels(snap.Intraday); err != nil {
		log.Printf("[ERROR] record levels: %v", err)
	}
	s.finish(run)
	s.trySend(output.PostText(snap))
	return nil
}

func (s *Scheduler) pipeline() (*model.Snapshot, error) {
	snap, err := s.Collector.Collect(s.Ctx)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	if err := s.Writer.WriteAll(snap); err != nil {
		return nil, fmt.Errorf("write outputs: %w", err)
	}
	return snap, nil
}

func (s *Scheduler) finish(run *recorder.RunRecord) {
	s.mu.Lock()
	s.lastRun = run
	s.mu.Unlock()
	if err := s.Recorder.RecordRun(run); err != nil {
		log.Printf("[ERROR] record run: %v", err)
	}
	log.Printf("[INFO] run %s finished: %s in %v", run.RunID, run.Status, run.FinishedAt.Sub(run.StartedAt))
}

// Last returns the most recent successful snapshot, or nil.
func (s *Scheduler) Last() *model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *Scheduler) lastRunRecord() *recorder.RunRecord {
	s.mu.RLock()
	run := s.lastRun
	s.mu.RUnlock()
	if run != nil {
		return run
	}
	run, err := s.Recorder.LastRun()
	if err != nil {
		log.Printf("[ERROR] load last run: %v", err)
		return nil
	}
	return run
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/index":
		return notifier.FormatSummary(s.Last())
	case "/post":
		snap := s.Last()
		if snap == nil {
			return notifier.FormatSummary(nil)
		}
		return output.PostText(snap)
	case "/status":
		return notifier.FormatRunStatus(s.lastRunRecord())
	case "/run":
		go func() {
			if err := s.RunNow(); err != nil {
				log.Printf("[ERROR] manual run: %v", err)
				s.trySend(fmt.Sprintf("❌ 更新に失敗しました: %v", err))
			}
		}()
		return "🔄 更新を開始しました"
	default:
		return notifier.HelpText()
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
