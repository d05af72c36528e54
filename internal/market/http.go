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

	"golang.org/x/time/rate"

	"github.com/ppiankov/finfact/internal/model"
	"github.com/ppiankov/finfact/internal/util"
)

// HTTPSource fetches snapshots from a JSON quote service
type HTTPSource struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// HTTPConfig configures the HTTP market-data client
type HTTPConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	HTTPProxy         string
	HTTPSProxy        string
	NoProxy           string
}

// quotePayload is the wire format of the quote service
type quotePayload struct {
	Ticker    string  `json:"ticker"`
	Price     float64 `json:"price"`
	MarketCap float64 `json:"market_cap"`
	Currency  string  `json:"currency"`
	AsOf      string  `json:"as_of"`
}

// NewHTTPSource creates an HTTP market-data source
func NewHTTPSource(cfg HTTPConfig) (*HTTPSource, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("market data base URL is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	proxyFunc := util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)

	return &HTTPSource{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: proxyFunc,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}, nil
}

// Name returns the feed name
func (s *HTTPSource) Name() string {
	return "market-api"
}

// GetSnapshot fetches the current snapshot for a ticker
func (s *HTTPSource) GetSnapshot(ctx context.Context, ticker string) (*model.MarketSnapshot, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/quote/%s", s.baseURL, url.PathEscape(ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("no market data for %s", ticker)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote service returned %d: %s", resp.StatusCode, string(body))
	}

	var payload quotePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal quote: %w", err)
	}

	snapshot := &model.MarketSnapshot{
		Ticker:    payload.Ticker,
		Price:     payload.Price,
		MarketCap: payload.MarketCap,
		Currency:  payload.Currency,
		AsOf:      time.Now().UTC(),
	}
	if payload.AsOf != "" {
		if ts, err := time.Parse(time.RFC3339, payload.AsOf); err == nil {
			snapshot.AsOf = ts
		}
	}
	if snapshot.Ticker == "" {
		snapshot.Ticker = ticker
	}
	if snapshot.Currency == "" {
		snapshot.Currency = "USD"
	}

	return snapshot, nil
}
