package calculator

import (
	"errors"
	"math"

	"StockSentinel/internal/model"
)

// Closes extracts closing prices from chronologically sorted ticks.
func Closes(ticks []model.PriceTick) []float64 {
	closes := make([]float64, len(ticks))
	for i, t := range ticks {
		closes[i] = t.Close
	}
	return closes
}

// ValidateFinite returns an error if any price is NaN or infinite.
func ValidateFinite(closes []float64) error {
	for _, c := range closes {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return errors.New("series contains a non-finite price")
		}
	}
	return nil
}

// WindowGain computes the price change over a trailing window: the close
// endOffset bars before the latest, minus the close span bars before that.
// WindowGain(closes, 0, 15) is the most recent 15-bar gain;
// WindowGain(closes, 15, 15) is the 15-bar gain before it.
func WindowGain(closes []float64, endOffset, span int) (float64, error) {
	if span <= 0 {
		return 0, errors.New("span must be positive")
	}
	if endOffset < 0 {
		return 0, errors.New("endOffset must not be negative")
	}
	n := len(closes)
	end := n - 1 - endOffset
	start := end - span
	if start < 0 {
		return 0, errors.New("not enough data for window gain")
	}
	return closes[end] - closes[start], nil
}
