package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"MarketScanner/internal/model"
)

const (
	DefaultAlpacaTradingURL = "https://paper-api.alpaca.markets"
	DefaultAlpacaDataURL    = "https://data.alpaca.markets"
)

// AlpacaClient lists assets from the Alpaca trading API and reads snapshots
// (latest trade, daily open) from the Alpaca market-data API.
type AlpacaClient struct {
	TradingURL string
	DataURL    string
	KeyID      string
	SecretKey  string
	Feed       string // "iex" or "sip"
	Client     *http.Client
}

// NewAlpacaClient creates a client with optional proxy support.
func NewAlpacaClient(tradingURL, dataURL, keyID, secretKey, feed, proxyURL string) *AlpacaClient {
	if tradingURL == "" {
		tradingURL = DefaultAlpacaTradingURL
	}
	if dataURL == "" {
		dataURL = DefaultAlpacaDataURL
	}
	return &AlpacaClient{
		TradingURL: strings.TrimRight(tradingURL, "/"),
		DataURL:    strings.TrimRight(dataURL, "/"),
		KeyID:      keyID,
		SecretKey:  secretKey,
		Feed:       feed,
		Client:     newHTTPClient(proxyURL),
	}
}

func (a *AlpacaClient) Name() string { return "alpaca" }

type alpacaAsset struct {
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
	Tradable bool   `json:"tradable"`
	Status   string `json:"status"`
}

type alpacaSnapshot struct {
	LatestTrade *struct {
		Price float64   `json:"p"`
		Time  time.Time `json:"t"`
	} `json:"latestTrade"`
	DailyBar *struct {
		Open   float64 `json:"o"`
		Close  float64 `json:"c"`
		Volume float64 `json:"v"`
	} `json:"dailyBar"`
}

// ListAssets returns every active US equity.
func (a *AlpacaClient) ListAssets(ctx context.Context) ([]model.Asset, error) {
	endpoint := a.TradingURL + "/v2/assets?status=active&asset_class=us_equity"
	var raw []alpacaAsset
	if err := a.get(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	assets := make([]model.Asset, len(raw))
	for i, r := range raw {
		assets[i] = model.Asset{Symbol: r.Symbol, Exchange: r.Exchange, Tradable: r.Tradable, Status: r.Status}
	}
	return assets, nil
}

// FetchQuotes reads snapshots for one batch. Alpaca supplies no average
// volume or market cap, so those fields stay zero.
func (a *AlpacaClient) FetchQuotes(ctx context.Context, symbols []string) (map[string]model.Quote, error) {
	if len(symbols) == 0 {
		return map[string]model.Quote{}, nil
	}
	q := url.Values{}
	q.Set("symbols", strings.Join(symbols, ","))
	if a.Feed != "" {
		q.Set("feed", a.Feed)
	}
	endpoint := a.DataURL + "/v2/stocks/snapshots?" + q.Encode()

	var raw map[string]*alpacaSnapshot
	if err := a.get(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("fetch snapshots: %w", err)
	}

	now := time.Now()
	quotes := make(map[string]model.Quote, len(raw))
	for sym, snap := range raw {
		if snap == nil {
			continue
		}
		quote := model.Quote{Symbol: sym, Source: a.Name(), FetchedAt: now}
		if snap.LatestTrade != nil {
			quote.Last = snap.LatestTrade.Price
		}
		if snap.DailyBar != nil {
			quote.Open = snap.DailyBar.Open
			if quote.Last == 0 {
				quote.Last = snap.DailyBar.Close
			}
		}
		quotes[sym] = quote
	}
	return quotes, nil
}

func (a *AlpacaClient) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("APCA-API-KEY-ID", a.KeyID)
	req.Header.Set("APCA-API-SECRET-KEY", a.SecretKey)

	resp, err := a.Client.Do(req)
	if err != nil {
		return fmt.Errorf("alpaca request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("alpaca: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("alpaca decode: %w", err)
	}
	return nil
}
