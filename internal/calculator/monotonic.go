package calculator

// StrictlyIncreasing reports whether every price is greater than the one before it.
// Equal neighbours break the run. Slices shorter than two are trivially increasing.
func StrictlyIncreasing(prices []float64) bool {
	for i := 1; i < len(prices); i++ {
		if prices[i] <= prices[i-1] {
			return false
		}
	}
	return true
}

// StrictlyDecreasing reports whether every price is lower than the one before it.
func StrictlyDecreasing(prices []float64) bool {
	for i := 1; i < len(prices); i++ {
		if prices[i] >= prices[i-1] {
			return false
		}
	}
	return true
}
