package recorder

import (
	"time"

	"SkytechIndex/internal/model"
)

// Run status values.
const (
	StatusOK     = "OK"
	StatusFailed = "FAILED"
)

// RunRecord describes one tracker run.
type RunRecord struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Source      string
	SessionDate string
	Level       float64
	PctIntraday float64
	PctVsPrev   float64
	Points      int
	Status      string // StatusOK or StatusFailed
	Error       string
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordRun(run *RunRecord) error
	RecordLevels(levels []model.IndexLevel) error
	// LastRun returns the most recent run, or nil if none is recorded.
	LastRun() (*RunRecord, error)
	Close() error
}
