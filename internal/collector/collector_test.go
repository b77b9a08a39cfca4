package collector

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"MarketScanner/internal/model"
)

func TestChunk(t *testing.T) {
	symbols := make([]string, 250)
	for i := range symbols {
		symbols[i] = fmt.Sprintf("S%03d", i)
	}
	batches := Chunk(symbols, 100)
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	total := 0
	for _, b := range batches {
		if len(b) > 100 {
			t.Errorf("batch of %d exceeds limit", len(b))
		}
		total += len(b)
	}
	if total != 250 || batches[2][49] != "S249" {
		t.Errorf("batches lost or reordered symbols")
	}
	if got := Chunk(nil, 100); got != nil {
		t.Errorf("expected no batches for empty input, got %v", got)
	}
}

func TestUniverse_FiltersExchangeAndTradable(t *testing.T) {
	m := &MockFetcher{Assets: []model.Asset{
		{Symbol: "AAA", Exchange: "NASDAQ", Tradable: true, Status: "active"},
		{Symbol: "BBB", Exchange: "NYSE", Tradable: true, Status: "active"},
		{Symbol: "CCC", Exchange: "ARCA", Tradable: true, Status: "active"},
		{Symbol: "DDD", Exchange: "NYSE", Tradable: false, Status: "active"},
		{Symbol: "EEE", Exchange: "NYSE", Tradable: true, Status: "inactive"},
		{Symbol: "AAA", Exchange: "NASDAQ", Tradable: true, Status: "active"},
	}}
	c := NewCollector(m, []string{"NYSE", "nasdaq"}, 100, m)
	got, err := c.Universe(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"AAA", "BBB"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestUniverse_Error(t *testing.T) {
	m := &MockFetcher{AssetErr: errors.New("boom")}
	c := NewCollector(m, nil, 100, m)
	if _, err := c.Universe(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestQuotes_BatchesRespectLimit(t *testing.T) {
	m := &MockFetcher{Data: map[string]model.Quote{}}
	c := NewCollector(m, nil, 500, m)
	if c.BatchSize != MaxBatchSize {
		t.Fatalf("batch size must be capped at %d, got %d", MaxBatchSize, c.BatchSize)
	}
	symbols := make([]string, 205)
	for i := range symbols {
		symbols[i] = fmt.Sprintf("S%03d", i)
	}
	c.Quotes(context.Background(), symbols)
	if len(m.Batches) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(m.Batches))
	}
	for _, b := range m.Batches {
		if len(b) > MaxBatchSize {
			t.Errorf("request with %d symbols exceeds limit", len(b))
		}
	}
}

func TestQuotes_MergesSources(t *testing.T) {
	prices := &MockFetcher{Label: "prices", Data: map[string]model.Quote{
		"AAA": {Last: 2.2, Open: 2.0},
		"BBB": {Last: 0, Open: 3.0},
	}}
	fundamentals := &MockFetcher{Label: "fundamentals", Data: map[string]model.Quote{
		"AAA": {Last: 2.1, Open: 1.9, AvgVolume: 900_000, MarketCap: 80_000_000},
		"BBB": {Last: 3.5, AvgVolume: 600_000, MarketCap: 60_000_000},
		"CCC": {Last: 1.0, Open: 1.0},
	}}
	c := NewCollector(prices, nil, 100, prices, fundamentals)
	got := c.Quotes(context.Background(), []string{"AAA", "BBB", "CCC", "DDD"})

	a := got["AAA"]
	if a == nil || a.Last != 2.2 || a.Open != 2.0 || a.AvgVolume != 900_000 || a.MarketCap != 80_000_000 {
		t.Errorf("AAA: unexpected merge %+v", a)
	}
	if a.Source != "prices+fundamentals" {
		t.Errorf("AAA: unexpected source %q", a.Source)
	}
	b := got["BBB"]
	if b == nil || b.Last != 3.5 || b.Open != 3.0 {
		t.Errorf("BBB: expected gaps filled from second source, got %+v", b)
	}
	if got["CCC"] == nil {
		t.Error("CCC: expected quote from second source only")
	}
	if _, ok := got["DDD"]; ok {
		t.Error("DDD: expected no quote")
	}
}

func TestQuotes_FailedBatchIsSkipped(t *testing.T) {
	broken := &MockFetcher{Label: "broken", QuoteErr: errors.New("timeout")}
	ok := &MockFetcher{Label: "ok", Data: map[string]model.Quote{"AAA": {Last: 1, Open: 1}}}
	c := NewCollector(broken, nil, 100, broken, ok)
	got := c.Quotes(context.Background(), []string{"AAA", "BBB"})
	if got["AAA"] == nil || got["AAA"].Source != "ok" {
		t.Errorf("expected AAA from the working source, got %+v", got["AAA"])
	}
	if len(broken.Batches) != 1 {
		t.Errorf("expected one attempt on the broken source, got %d", len(broken.Batches))
	}
}
