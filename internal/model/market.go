package model

import "time"

// OHLCV represents a single candlestick bar as returned by a price feed.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceObservation is one recorded price for a constituent.
type PriceObservation struct {
	Ticker    string
	Timestamp time.Time
	Price     float64
}

// Observations converts bars into observations for ticker, using the close.
// Bars without a positive close are dropped.
func Observations(ticker string, bars []OHLCV) []PriceObservation {
	obs := make([]PriceObservation, 0, len(bars))
	for _, b := range bars {
		if b.Close <= 0 {
			continue
		}
		obs = append(obs, PriceObservation{Ticker: ticker, Timestamp: b.Time, Price: b.Close})
	}
	return obs
}
