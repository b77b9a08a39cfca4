package collector

import (
	"context"
	"fmt"
	"log"
	"strings"

	"MarketScanner/internal/model"
)

// MaxBatchSize caps the number of symbols in one quote request.
const MaxBatchSize = 100

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Assets   []model.Asset
	Data     map[string]model.Quote
	AssetErr error
	QuoteErr error
	Label    string

	Batches [][]string // every batch passed to FetchQuotes
}

func (m *MockFetcher) Name() string {
	if m.Label != "" {
		return m.Label
	}
	return "mock"
}

func (m *MockFetcher) ListAssets(_ context.Context) ([]model.Asset, error) {
	if m.AssetErr != nil {
		return nil, m.AssetErr
	}
	return m.Assets, nil
}

func (m *MockFetcher) FetchQuotes(_ context.Context, symbols []string) (map[string]model.Quote, error) {
	m.Batches = append(m.Batches, append([]string(nil), symbols...))
	if m.QuoteErr != nil {
		return nil, m.QuoteErr
	}
	out := make(map[string]model.Quote, len(symbols))
	for _, s := range symbols {
		if q, ok := m.Data[s]; ok {
			q.Symbol = s
			q.Source = m.Name()
			out[s] = q
		}
	}
	return out, nil
}

// Chunk splits symbols into consecutive batches of at most size elements.
func Chunk(symbols []string, size int) [][]string {
	if size <= 0 {
		size = MaxBatchSize
	}
	var out [][]string
	for i := 0; i < len(symbols); i += size {
		end := i + size
		if end > len(symbols) {
			end = len(symbols)
		}
		out = append(out, symbols[i:end])
	}
	return out
}

// Collector fetches the tradable universe and the per-cycle quotes.
type Collector struct {
	Assets    AssetLister
	Sources   []QuoteFetcher // earlier sources win when several supply a field
	Exchanges []string
	BatchSize int
}

// NewCollector creates a new Collector.
func NewCollector(assets AssetLister, exchanges []string, batchSize int, sources ...QuoteFetcher) *Collector {
	if batchSize <= 0 || batchSize > MaxBatchSize {
		batchSize = MaxBatchSize
	}
	return &Collector{Assets: assets, Sources: sources, Exchanges: exchanges, BatchSize: batchSize}
}

// Universe returns the tradable, active symbols listed on the target exchanges.
func (c *Collector) Universe(ctx context.Context) ([]string, error) {
	assets, err := c.Assets.ListAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch universe: %w", err)
	}
	allowed := make(map[string]bool, len(c.Exchanges))
	for _, ex := range c.Exchanges {
		allowed[strings.ToUpper(ex)] = true
	}
	seen := make(map[string]bool, len(assets))
	symbols := make([]string, 0, len(assets))
	for _, a := range assets {
		if !a.Tradable || a.Symbol == "" || seen[a.Symbol] {
			continue
		}
		if a.Status != "" && a.Status != "active" {
			continue
		}
		if len(allowed) > 0 && !allowed[strings.ToUpper(a.Exchange)] {
			continue
		}
		seen[a.Symbol] = true
		symbols = append(symbols, a.Symbol)
	}
	return symbols, nil
}

// Quotes fetches quotes for symbols from every source in batches and merges
// them field by field. A failed batch is logged and skipped; its symbols end
// up with whatever the other sources supplied, or no quote at all.
func (c *Collector) Quotes(ctx context.Context, symbols []string) map[string]*model.Quote {
	merged := make(map[string]*model.Quote, len(symbols))
	for _, src := range c.Sources {
		for _, batch := range Chunk(symbols, c.BatchSize) {
			if ctx.Err() != nil {
				return merged
			}
			quotes, err := src.FetchQuotes(ctx, batch)
			if err != nil {
				log.Printf("[WARN] %s quotes for %d symbols (%s..%s) failed: %v",
					src.Name(), len(batch), batch[0], batch[len(batch)-1], err)
				continue
			}
			for sym, q := range quotes {
				mergeQuote(merged, sym, q)
			}
		}
	}
	return merged
}

func mergeQuote(dst map[string]*model.Quote, sym string, q model.Quote) {
	cur, ok := dst[sym]
	if !ok {
		q.Symbol = sym
		dst[sym] = &q
		return
	}
	if cur.Last == 0 {
		cur.Last = q.Last
	}
	if cur.Open == 0 {
		cur.Open = q.Open
	}
	if cur.AvgVolume == 0 {
		cur.AvgVolume = q.AvgVolume
	}
	if cur.MarketCap == 0 {
		cur.MarketCap = q.MarketCap
	}
	if cur.FetchedAt.IsZero() {
		cur.FetchedAt = q.FetchedAt
	}
	cur.Source += "+" + q.Source
}
