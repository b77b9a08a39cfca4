package collector

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"MarketScanner/internal/model"
)

// ErrNoData is returned when an API answers without usable data.
var ErrNoData = errors.New("no data returned")

// AssetLister supplies the broker's tradable universe.
type AssetLister interface {
	ListAssets(ctx context.Context) ([]model.Asset, error)
}

// QuoteFetcher returns quotes for one batch of symbols. Symbols the source
// knows nothing about are simply absent from the result.
type QuoteFetcher interface {
	FetchQuotes(ctx context.Context, symbols []string) (map[string]model.Quote, error)
	Name() string
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
