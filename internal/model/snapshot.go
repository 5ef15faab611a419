package model

import "time"

// Snapshot is everything a single tracker run produces.
type Snapshot struct {
	Definition  Definition
	SessionDate time.Time    // market-local midnight of the session
	Intraday    []IndexLevel // rebased levels for the session
	IntradayPct []PctPoint   // equal-weight change vs session open
	History     []IndexLevel // daily levels before the session, then Intraday
	Summary     *Summary
}

// LastPct returns the most recent change vs session open, 0 if none.
func (s *Snapshot) LastPct() float64 {
	if len(s.IntradayPct) == 0 {
		return 0
	}
	return s.IntradayPct[len(s.IntradayPct)-1].Pct
}
