package model

import (
	"sort"
	"time"
)

// TimestampLayout is the intraday bar timestamp format. Lexicographic order
// equals chronological order, which the backtest timeline relies on.
const TimestampLayout = "2006-01-02 15:04:05"

// PriceTick represents a single intraday OHLCV bar.
type PriceTick struct {
	Timestamp string  `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Time parses the tick timestamp.
func (t PriceTick) Time() (time.Time, error) {
	return time.Parse(TimestampLayout, t.Timestamp)
}

// TimeSeries holds one symbol's bars keyed by timestamp. Immutable once fetched.
type TimeSeries map[string]PriceTick

// SortedTimestamps returns the series' timestamps in chronological order.
func (s TimeSeries) SortedTimestamps() []string {
	out := make([]string, 0, len(s))
	for ts := range s {
		out = append(out, ts)
	}
	sort.Strings(out)
	return out
}
