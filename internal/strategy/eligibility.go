package strategy

import "MarketScanner/internal/model"

// Criteria holds the thresholds a symbol must clear to be tracked in a cycle.
type Criteria struct {
	MinPrice         float64 `yaml:"min_price"`
	MaxPrice         float64 `yaml:"max_price"` // exclusive
	MinAvgVolume     float64 `yaml:"min_avg_volume"`
	MinMarketCap     float64 `yaml:"min_market_cap"`
	MinChangePercent float64 `yaml:"min_change_percent"`
}

// DefaultCriteria returns the low-priced intraday-mover thresholds.
func DefaultCriteria() Criteria {
	return Criteria{
		MinPrice:         0.30,
		MaxPrice:         10.00,
		MinAvgVolume:     500_000,
		MinMarketCap:     50_000_000,
		MinChangePercent: 10,
	}
}

// Check classifies a quote. It returns ReasonMissingData when the quote lacks
// a price or reference price, so callers can tell a data gap apart from a
// symbol that is correctly ineligible.
func (c Criteria) Check(q *model.Quote) model.Reason {
	if q == nil || q.Last == 0 || q.Open == 0 {
		return model.ReasonMissingData
	}
	switch {
	case q.Last < c.MinPrice:
		return model.ReasonBelowMinPrice
	case q.Last >= c.MaxPrice:
		return model.ReasonAboveMaxPrice
	case q.AvgVolume < c.MinAvgVolume:
		return model.ReasonLowVolume
	case q.MarketCap < c.MinMarketCap:
		return model.ReasonLowMarketCap
	case q.ChangePercent() < c.MinChangePercent:
		return model.ReasonWeakChange
	}
	return model.ReasonEligible
}

// Eligible reports whether the quote passes every threshold.
func (c Criteria) Eligible(q *model.Quote) bool {
	return c.Check(q) == model.ReasonEligible
}
