package index

import (
	"errors"
	"fmt"
)

// ErrEmptySeries is returned when a summary is requested for no levels.
var ErrEmptySeries = errors.New("empty index series")

// MissingBasePriceError reports a constituent without a usable base price.
type MissingBasePriceError struct {
	Ticker string
}

func (e *MissingBasePriceError) Error() string {
	return fmt.Sprintf("missing base price for %s", e.Ticker)
}

// UnknownTickerError reports an observation for a ticker outside the index.
type UnknownTickerError struct {
	Ticker string
}

func (e *UnknownTickerError) Error() string {
	return fmt.Sprintf("unknown ticker %q", e.Ticker)
}
