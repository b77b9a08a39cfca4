package tracker

import (
	"sort"
	"sync"
	"time"

	"MarketScanner/internal/model"
)

// entry is one symbol's tracking episode.
type entry struct {
	prices    []float64
	firstSeen time.Time
}

// Store owns the rolling price windows of every tracked symbol.
// A symbol lives in the store from its first eligible cycle until it fires
// (or is pruned); nothing else mutates the windows.
type Store struct {
	mu      sync.Mutex
	size    int
	entries map[string]*entry
}

// NewStore creates an empty store holding at most size prices per symbol.
func NewStore(size int) *Store {
	if size < 1 {
		size = 1
	}
	return &Store{size: size, entries: make(map[string]*entry)}
}

// Size returns the window capacity.
func (s *Store) Size() int { return s.size }

// Update appends price to the symbol's window, starting a new episode at now
// if the symbol is not tracked, and returns a copy of the resulting window.
func (s *Store) Update(symbol string, price float64, now time.Time) model.WindowSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[symbol]
	if !ok {
		e = &entry{prices: make([]float64, 0, s.size), firstSeen: now}
		s.entries[symbol] = e
	}
	e.prices = append(e.prices, price)
	if len(e.prices) > s.size {
		// evict from the front, reusing the backing array
		copy(e.prices, e.prices[len(e.prices)-s.size:])
		e.prices = e.prices[:s.size]
	}
	return snapshot(symbol, e)
}

// Get returns a copy of the symbol's window.
func (s *Store) Get(symbol string) (model.WindowSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[symbol]
	if !ok {
		return model.WindowSnapshot{}, false
	}
	return snapshot(symbol, e), true
}

// Remove ends the symbol's tracking episode.
func (s *Store) Remove(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, symbol)
}

// Len returns the number of tracked symbols.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Snapshots returns copies of every tracked window, sorted by symbol.
func (s *Store) Snapshots() []model.WindowSnapshot {
	s.mu.Lock()
	out := make([]model.WindowSnapshot, 0, len(s.entries))
	for sym, e := range s.entries {
		out = append(out, snapshot(sym, e))
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Prune removes every episode that started more than maxAge before now and
// returns the removed symbols. A non-positive maxAge removes nothing.
func (s *Store) Prune(now time.Time, maxAge time.Duration) []string {
	if maxAge <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for sym, e := range s.entries {
		if now.Sub(e.firstSeen) > maxAge {
			delete(s.entries, sym)
			removed = append(removed, sym)
		}
	}
	sort.Strings(removed)
	return removed
}

func snapshot(symbol string, e *entry) model.WindowSnapshot {
	prices := make([]float64, len(e.prices))
	copy(prices, e.prices)
	return model.WindowSnapshot{Symbol: symbol, Prices: prices, FirstSeen: e.firstSeen}
}
