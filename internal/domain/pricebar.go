package domain

import "time"

// PriceBar represents a single daily candlestick used for trade charts.
type PriceBar struct {
	Ticker string    // Symbol the bar belongs to
	Time   time.Time // Start of the interval
	Open   float64   // Opening price
	High   float64   // Highest price
	Low    float64   // Lowest price
	Close  float64   // Closing price
	Volume float64   // Traded volume
}
