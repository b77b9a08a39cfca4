package calculator

import "errors"

// ErrZeroBase is returned when a percentage is requested against a zero base.
var ErrZeroBase = errors.New("base price is zero")

// PercentChange returns (to - from) / from * 100.
func PercentChange(from, to float64) (float64, error) {
	if from == 0 {
		return 0, ErrZeroBase
	}
	return (to - from) / from * 100, nil
}

// PercentDrop returns (from - to) / from * 100.
func PercentDrop(from, to float64) (float64, error) {
	if from == 0 {
		return 0, ErrZeroBase
	}
	return (from - to) / from * 100, nil
}
