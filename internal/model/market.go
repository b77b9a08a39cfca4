package model

import "time"

// Asset is one entry of the broker's tradable universe.
type Asset struct {
	Symbol   string
	Exchange string
	Tradable bool
	Status   string
}

// Quote is the per-cycle market snapshot for one symbol.
type Quote struct {
	Symbol    string
	Last      float64 // most recent trade price
	Open      float64 // reference price for the intraday change
	AvgVolume float64
	MarketCap float64
	Source    string
	FetchedAt time.Time
}

// ChangePercent returns the intraday change of Last against Open, or 0 if Open is unset.
func (q Quote) ChangePercent() float64 {
	if q.Open == 0 {
		return 0
	}
	return (q.Last - q.Open) / q.Open * 100
}

// WindowSnapshot is an immutable copy of one symbol's rolling price window.
type WindowSnapshot struct {
	Symbol    string
	Prices    []float64 // oldest first
	FirstSeen time.Time
}

// Len returns the number of prices in the window.
func (w WindowSnapshot) Len() int { return len(w.Prices) }

// Latest returns the newest price, or 0 for an empty window.
func (w WindowSnapshot) Latest() float64 {
	if len(w.Prices) == 0 {
		return 0
	}
	return w.Prices[len(w.Prices)-1]
}
