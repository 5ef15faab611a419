package model

import "time"

// Constituent is one security tracked by the index.
type Constituent struct {
	Code   string `yaml:"code"`   // display code, also the ticker used in observations
	Symbol string `yaml:"symbol"` // price feed symbol
	Name   string `yaml:"name"`
}

// BaseReference fixes the date at which the index equals Level.
type BaseReference struct {
	Date  time.Time
	Level float64
}

// Definition describes an equal-weight index.
type Definition struct {
	Key          string
	Title        string
	Constituents []Constituent
	Base         BaseReference
	Location     *time.Location
}

// Codes returns the constituent codes in definition order.
func (d Definition) Codes() []string {
	codes := make([]string, len(d.Constituents))
	for i, c := range d.Constituents {
		codes[i] = c.Code
	}
	return codes
}

// Loc returns the market time zone, UTC if unset.
func (d Definition) Loc() *time.Location {
	if d.Location == nil {
		return time.UTC
	}
	return d.Location
}

// IndexLevel is the index value at one timestamp.
type IndexLevel struct {
	Time  time.Time
	Level float64
}

// PctPoint is an equal-weight percentage change at one timestamp.
type PctPoint struct {
	Time time.Time
	Pct  float64
}

// Summary holds the headline statistics of a level series.
type Summary struct {
	Level       float64
	LevelTime   time.Time
	PctVsPrev   float64
	PctVsOpen   float64
	OpenLevel   float64
	SessionHigh float64
	SessionLow  float64
	Points      int // levels in the latest session
	ComputedAt  time.Time
}
