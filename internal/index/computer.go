package index

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"SkytechIndex/internal/model"
)

// Returns maps a UTC timestamp to each constituent's percentage return.
type Returns map[time.Time]map[string]float64

// Computer builds the equal-weight level series for one index definition.
type Computer struct {
	def   model.Definition
	known map[string]bool
	now   func() time.Time
}

// NewComputer validates def and returns a Computer for it.
func NewComputer(def model.Definition) (*Computer, error) {
	if len(def.Constituents) == 0 {
		return nil, errors.New("index has no constituents")
	}
	if def.Base.Level <= 0 {
		return nil, fmt.Errorf("base level must be positive, got %v", def.Base.Level)
	}
	known := make(map[string]bool, len(def.Constituents))
	for _, c := range def.Constituents {
		if c.Code == "" {
			return nil, errors.New("constituent code is empty")
		}
		if known[c.Code] {
			return nil, fmt.Errorf("duplicate constituent %s", c.Code)
		}
		known[c.Code] = true
	}
	return &Computer{def: def, known: known, now: time.Now}, nil
}

// WithClock replaces the clock used for Summary.ComputedAt.
func (c *Computer) WithClock(now func() time.Time) *Computer {
	c.now = now
	return c
}

// Definition returns the index definition.
func (c *Computer) Definition() model.Definition { return c.def }

// ComputeReturns converts observations into percentage returns against basePrice.
func (c *Computer) ComputeReturns(obs []model.PriceObservation, basePrice map[string]float64) (Returns, error) {
	for _, code := range c.def.Codes() {
		if p, ok := basePrice[code]; !ok || p <= 0 {
			return nil, &MissingBasePriceError{Ticker: code}
		}
	}

	out := make(Returns)
	for _, o := range obs {
		if !c.known[o.Ticker] {
			return nil, &UnknownTickerError{Ticker: o.Ticker}
		}
		ts := o.Timestamp.UTC().Round(0)
		row, ok := out[ts]
		if !ok {
			row = make(map[string]float64, len(c.known))
			out[ts] = row
		}
		row[o.Ticker] = (o.Price/basePrice[o.Ticker] - 1) * 100
	}
	return out, nil
}

// EqualWeightChange returns the mean return at every timestamp where all
// constituents are present, in ascending time order.
func (c *Computer) EqualWeightChange(r Returns) []model.PctPoint {
	points := make([]model.PctPoint, 0, len(r))
	vals := make([]float64, 0, len(c.known))
	for ts, row := range r {
		if len(row) != len(c.known) {
			continue
		}
		vals = vals[:0]
		for _, v := range row {
			vals = append(vals, v)
		}
		// summing in value order keeps the mean independent of ticker order
		sort.Float64s(vals)
		sum := 0.0
		for _, v := range vals {
			sum += v
		}
		points = append(points, model.PctPoint{Time: ts, Pct: sum / float64(len(vals))})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return points
}

// ComputeEqualWeightIndex rebases the equal-weight change onto the base level.
// Timestamps missing any constituent are excluded. An empty result is not an error.
func (c *Computer) ComputeEqualWeightIndex(r Returns) []model.IndexLevel {
	points := c.EqualWeightChange(r)
	levels := make([]model.IndexLevel, len(points))
	for i, p := range points {
		levels[i] = model.IndexLevel{
			Time:  p.Time,
			Level: c.def.Base.Level * (1 + p.Pct/100),
		}
	}
	return levels
}

// Summarize computes the headline statistics of an ordered level series.
func (c *Computer) Summarize(levels []model.IndexLevel) (*model.Summary, error) {
	if len(levels) == 0 {
		return nil, ErrEmptySeries
	}
	loc := c.def.Loc()
	last := levels[len(levels)-1]
	prev := last
	if len(levels) > 1 {
		prev = levels[len(levels)-2]
	}

	sessionDay := dayOf(last.Time, loc)
	open := last
	high, low := last.Level, last.Level
	points := 0
	for i := len(levels) - 1; i >= 0; i-- {
		l := levels[i]
		if !dayOf(l.Time, loc).Equal(sessionDay) {
			break
		}
		open = l
		points++
		if l.Level > high {
			high = l.Level
		}
		if l.Level < low {
			low = l.Level
		}
	}

	return &model.Summary{
		Level:       last.Level,
		LevelTime:   last.Time,
		PctVsPrev:   pctChange(last.Level, prev.Level),
		PctVsOpen:   pctChange(last.Level, open.Level),
		OpenLevel:   open.Level,
		SessionHigh: high,
		SessionLow:  low,
		Points:      points,
		ComputedAt:  c.now(),
	}, nil
}

func pctChange(cur, ref float64) float64 {
	if ref == 0 {
		return 0
	}
	return (cur/ref - 1) * 100
}
