package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"MarketScanner/internal/model"
)

const (
	DefaultYahooURL       = "https://query1.finance.yahoo.com"
	DefaultYahooCookieURL = "https://fc.yahoo.com"
)

// YahooFetcher implements QuoteFetcher using the Yahoo Finance batch quote API.
// It is the source for average volume and market capitalization.
//
// The quote endpoint needs a session cookie and a matching crumb. Both are
// fetched lazily, cached, and refreshed once when Yahoo answers 401.
type YahooFetcher struct {
	BaseURL   string
	CookieURL string
	Client    *http.Client
	SymbolMap map[string]string // maps broker symbol to Yahoo ticker

	mu    sync.Mutex
	crumb string
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(baseURL, proxyURL string) *YahooFetcher {
	if baseURL == "" {
		baseURL = DefaultYahooURL
	}
	client := newHTTPClient(proxyURL)
	client.Jar, _ = cookiejar.New(nil)
	return &YahooFetcher{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		CookieURL: DefaultYahooCookieURL,
		Client:    client,
		// class shares use a dash on Yahoo and a dot at the broker
		SymbolMap: map[string]string{
			"BRK.A": "BRK-A",
			"BRK.B": "BRK-B",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooQuoteResponse is the response structure from the Yahoo Finance quote API.
type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                   string  `json:"symbol"`
			RegularMarketPrice       float64 `json:"regularMarketPrice"`
			RegularMarketOpen        float64 `json:"regularMarketOpen"`
			AverageDailyVolume3Month float64 `json:"averageDailyVolume3Month"`
			MarketCap                float64 `json:"marketCap"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

// FetchQuotes reads quotes for one batch of symbols.
func (f *YahooFetcher) FetchQuotes(ctx context.Context, symbols []string) (map[string]model.Quote, error) {
	if len(symbols) == 0 {
		return map[string]model.Quote{}, nil
	}
	reverse := make(map[string]string, len(symbols))
	tickers := make([]string, len(symbols))
	for i, s := range symbols {
		tickers[i] = f.yahooSymbol(s)
		reverse[tickers[i]] = s
	}

	query := url.QueryEscape(strings.Join(tickers, ","))
	status, body, err := f.quote(ctx, query, false)
	if err == nil && status == http.StatusUnauthorized {
		status, body, err = f.quote(ctx, query, true)
	}
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", status, string(body))
	}

	var parsed yahooQuoteResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if parsed.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", parsed.QuoteResponse.Error.Description)
	}
	if len(parsed.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("yahoo: %w", ErrNoData)
	}

	now := time.Now()
	quotes := make(map[string]model.Quote, len(parsed.QuoteResponse.Result))
	for _, r := range parsed.QuoteResponse.Result {
		sym, ok := reverse[r.Symbol]
		if !ok {
			sym = r.Symbol
		}
		quotes[sym] = model.Quote{
			Symbol:    sym,
			Last:      r.RegularMarketPrice,
			Open:      r.RegularMarketOpen,
			AvgVolume: r.AverageDailyVolume3Month,
			MarketCap: r.MarketCap,
			Source:    f.Name(),
			FetchedAt: now,
		}
	}
	return quotes, nil
}

// quote performs one quote request with the cached crumb, renewing the
// session first when refresh is set.
func (f *YahooFetcher) quote(ctx context.Context, query string, refresh bool) (int, []byte, error) {
	crumb, err := f.sessionCrumb(ctx, refresh)
	if err != nil {
		return 0, nil, err
	}
	u := fmt.Sprintf("%s/v7/finance/quote?symbols=%s&crumb=%s", f.BaseURL, query, url.QueryEscape(crumb))
	return f.get(ctx, u)
}

// sessionCrumb returns the cached crumb, or obtains a session cookie and a
// new crumb when none is cached or refresh is set.
func (f *YahooFetcher) sessionCrumb(ctx context.Context, refresh bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.crumb != "" && !refresh {
		return f.crumb, nil
	}

	// The cookie endpoint answers 404 but still sets the session cookie.
	if _, _, err := f.get(ctx, f.CookieURL); err != nil {
		return "", fmt.Errorf("yahoo session: %w", err)
	}
	status, body, err := f.get(ctx, f.BaseURL+"/v1/test/getcrumb")
	if err != nil {
		return "", fmt.Errorf("yahoo crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(body))
	if status != http.StatusOK || crumb == "" {
		return "", fmt.Errorf("yahoo crumb: status %d, body: %s", status, crumb)
	}
	f.crumb = crumb
	return crumb, nil
}

func (f *YahooFetcher) get(ctx context.Context, u string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("yahoo read body: %w", err)
	}
	return resp.StatusCode, body, nil
}
