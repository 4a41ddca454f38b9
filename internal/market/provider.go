package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mohammad-safakhou/advisor/config"
)

// Quote is a point-in-time snapshot for one symbol.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Currency      string  `json:"currency"`
	AsOf          string  `json:"as_of"`
}

// Provider serves market data lookups.
type Provider interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
	Headlines(ctx context.Context, topic string, limit int) ([]Headline, error)
}

// Headline is one news item about a market topic.
type Headline struct {
	Title     string `json:"title"`
	Source    string `json:"source"`
	URL       string `json:"url"`
	Published string `json:"published"`
}

// HTTPProvider talks to an external market-data API.
type HTTPProvider struct {
	endpoint   string
	apiKey     string
	maxResults int
	httpClient *http.Client
}

func NewHTTPProvider(cfg config.MarketConfig) *HTTPProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	return &HTTPProvider{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		maxResults: maxResults,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if p.endpoint == "" {
		return fmt.Errorf("market data endpoint not configured")
	}
	params.Set("apikey", p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("building market request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("market data call: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("market data returned status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading market response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding market response: %w", err)
	}
	return nil
}

func (p *HTTPProvider) Quote(ctx context.Context, symbol string) (Quote, error) {
	var q Quote
	params := url.Values{"symbol": {strings.ToUpper(symbol)}}
	if err := p.get(ctx, "/quote", params, &q); err != nil {
		return Quote{}, err
	}
	return q, nil
}

func (p *HTTPProvider) Headlines(ctx context.Context, topic string, limit int) ([]Headline, error) {
	if limit <= 0 || limit > p.maxResults {
		limit = p.maxResults
	}
	var out []Headline
	params := url.Values{"topic": {topic}, "limit": {fmt.Sprint(limit)}}
	if err := p.get(ctx, "/news", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StaticProvider serves fixed data for tests and offline runs.
type StaticProvider struct {
	Quotes map[string]Quote
	News   []Headline
	Err    error
}

func (s *StaticProvider) Quote(_ context.Context, symbol string) (Quote, error) {
	if s.Err != nil {
		return Quote{}, s.Err
	}
	q, ok := s.Quotes[strings.ToUpper(symbol)]
	if !ok {
		return Quote{}, fmt.Errorf("no quote for %s", symbol)
	}
	return q, nil
}

func (s *StaticProvider) Headlines(_ context.Context, _ string, limit int) ([]Headline, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if limit > 0 && limit < len(s.News) {
		return s.News[:limit], nil
	}
	return s.News, nil
}
