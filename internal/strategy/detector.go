package strategy

import (
	"MarketScanner/internal/calculator"
	"MarketScanner/internal/model"
)

// Detector classifies rolling price windows.
//
// Rising needs a full window of WindowSize prices that rise on every tick and
// a total gain of at least MinRiseGain percent. Falling needs at least
// FallPrefix prices whose first FallPrefix ticks fall strictly; the reported
// drop spans the whole window. Rising is checked first.
type Detector struct {
	WindowSize  int
	FallPrefix  int
	MinRiseGain float64
}

// DefaultDetector returns a detector for a 7-price window with a 5-price fall prefix.
func DefaultDetector() Detector {
	return Detector{WindowSize: 7, FallPrefix: 5, MinRiseGain: 100}
}

// Detect returns the trend found in the window, or model.NoTrend.
func (d Detector) Detect(w model.WindowSnapshot) model.TrendResult {
	prices := w.Prices
	if len(prices) < d.FallPrefix {
		return model.NoTrend
	}
	first, last := prices[0], w.Latest()
	if first == 0 {
		return model.NoTrend
	}

	if len(prices) == d.WindowSize && calculator.StrictlyIncreasing(prices) {
		gain, err := calculator.PercentChange(first, last)
		if err == nil && gain >= d.MinRiseGain {
			return model.TrendResult{Kind: model.TrendRising, Percent: gain, First: first, Last: last, Points: len(prices)}
		}
		return model.NoTrend
	}

	if calculator.StrictlyDecreasing(prices[:d.FallPrefix]) {
		drop, err := calculator.PercentDrop(first, last)
		if err != nil {
			return model.NoTrend
		}
		return model.TrendResult{Kind: model.TrendFalling, Percent: drop, First: first, Last: last, Points: len(prices)}
	}

	return model.NoTrend
}
