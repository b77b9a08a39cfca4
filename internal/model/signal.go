package model

import "time"

// TrendKind classifies a window.
type TrendKind string

const (
	TrendNone    TrendKind = "NONE"
	TrendRising  TrendKind = "RISING"
	TrendFalling TrendKind = "FALLING"
)

// TrendResult is the detector's verdict for one window snapshot.
type TrendResult struct {
	Kind    TrendKind
	Percent float64 // gain for RISING, drop for FALLING
	First   float64
	Last    float64
	Points  int // window length the verdict was computed over
}

// Fired reports whether the result should trigger an alert.
func (r TrendResult) Fired() bool { return r.Kind == TrendRising || r.Kind == TrendFalling }

// NoTrend is the zero verdict.
var NoTrend = TrendResult{Kind: TrendNone}

// Reason explains an eligibility verdict.
type Reason string

const (
	ReasonEligible      Reason = "eligible"
	ReasonMissingData   Reason = "missing_data"
	ReasonBelowMinPrice Reason = "below_min_price"
	ReasonAboveMaxPrice Reason = "above_max_price"
	ReasonLowVolume     Reason = "low_volume"
	ReasonLowMarketCap  Reason = "low_market_cap"
	ReasonWeakChange    Reason = "weak_change"
)

// Alert is a fired trend together with its delivery outcome.
type Alert struct {
	CycleID     string
	Symbol      string
	Trend       TrendResult
	WindowLen   int
	FirstSeen   time.Time
	FiredAt     time.Time
	Message     string
	DeliveryErr error
}

// Delivered reports whether the notification reached the messaging API.
func (a Alert) Delivered() bool { return a.DeliveryErr == nil }

// CycleReport summarizes one scan cycle.
type CycleReport struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Universe   int
	Quoted     int
	DataGaps   int
	Eligible   int
	Ineligible int
	Tracked    int
	Alerts     []Alert
	FetchErr   error
}

// Duration returns how long the cycle took.
func (r *CycleReport) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// DailyStats accumulates cycle outcomes between two daily summaries.
type DailyStats struct {
	Since          time.Time
	Cycles         int
	FailedCycles   int
	Rising         int
	Falling        int
	FailedDelivery int
	Pruned         int
}

// Add folds one cycle report into the stats.
func (s *DailyStats) Add(r *CycleReport) {
	s.Cycles++
	if r.FetchErr != nil {
		s.FailedCycles++
	}
	for _, a := range r.Alerts {
		switch a.Trend.Kind {
		case TrendRising:
			s.Rising++
		case TrendFalling:
			s.Falling++
		}
		if !a.Delivered() {
			s.FailedDelivery++
		}
	}
}
