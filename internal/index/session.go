package index

import (
	"time"

	"SkytechIndex/internal/model"
)

// dayOf returns local midnight of t in loc.
func dayOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// LatestSession returns the market-local date of the newest observation
// and the observations that fall on that date. Today is used when it has
// data, otherwise the most recent trading day.
func (c *Computer) LatestSession(obs []model.PriceObservation) (time.Time, []model.PriceObservation) {
	if len(obs) == 0 {
		return time.Time{}, nil
	}
	loc := c.def.Loc()
	latest := obs[0].Timestamp
	for _, o := range obs[1:] {
		if o.Timestamp.After(latest) {
			latest = o.Timestamp
		}
	}
	day := dayOf(latest, loc)
	session := make([]model.PriceObservation, 0, len(obs))
	for _, o := range obs {
		if dayOf(o.Timestamp, loc).Equal(day) {
			session = append(session, o)
		}
	}
	return day, session
}

// SessionOpenPrices returns each ticker's earliest price in obs.
func SessionOpenPrices(obs []model.PriceObservation) map[string]float64 {
	first := make(map[string]model.PriceObservation)
	for _, o := range obs {
		if f, ok := first[o.Ticker]; !ok || o.Timestamp.Before(f.Timestamp) {
			first[o.Ticker] = o
		}
	}
	prices := make(map[string]float64, len(first))
	for t, o := range first {
		prices[t] = o.Price
	}
	return prices
}

// BasePrices picks each ticker's last price on the base date.
// Tickers without an observation on that date are absent from the result.
func (c *Computer) BasePrices(obs []model.PriceObservation) map[string]float64 {
	loc := c.def.Loc()
	base := dayOf(c.def.Base.Date, loc)
	last := make(map[string]model.PriceObservation)
	for _, o := range obs {
		if !dayOf(o.Timestamp, loc).Equal(base) {
			continue
		}
		if l, ok := last[o.Ticker]; !ok || o.Timestamp.After(l.Timestamp) {
			last[o.Ticker] = o
		}
	}
	prices := make(map[string]float64, len(last))
	for t, o := range last {
		prices[t] = o.Price
	}
	return prices
}

// MergeHistory joins daily levels dated before the first intraday level's
// session with the intraday levels.
func (c *Computer) MergeHistory(daily, intraday []model.IndexLevel) []model.IndexLevel {
	if len(intraday) == 0 {
		return append([]model.IndexLevel(nil), daily...)
	}
	loc := c.def.Loc()
	session := dayOf(intraday[0].Time, loc)
	out := make([]model.IndexLevel, 0, len(daily)+len(intraday))
	for _, l := range daily {
		if dayOf(l.Time, loc).Before(session) {
			out = append(out, l)
		}
	}
	return append(out, intraday...)
}

// Trailing returns the levels no older than window before the last level.
func Trailing(levels []model.IndexLevel, window time.Duration) []model.IndexLevel {
	if len(levels) == 0 {
		return nil
	}
	cutoff := levels[len(levels)-1].Time.Add(-window)
	i := 0
	for i < len(levels) && levels[i].Time.Before(cutoff) {
		i++
	}
	return levels[i:]
}
