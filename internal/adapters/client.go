// Package adapters holds the typed REST client for the backend's companion
// HTTP surface. Every call is an opaque typed fetch: failures return errors
// to the caller and never feed back into the stream session.
package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/luminaquant/lumina-go/internal/observ"
	"github.com/luminaquant/lumina-go/internal/portfolio"
)

// Config holds REST client settings.
type Config struct {
	BaseURL         string // e.g. http://localhost:8000/api
	Timeout         time.Duration
	RateLimitPerSec float64
	Burst           int
}

// Client is the typed HTTP client for the portfolio and market endpoints.
// Requests pass a shared rate limiter so page pollers cannot stampede the
// backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

func New(cfg Config, log zerolog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimitPerSec == 0 {
		cfg.RateLimitPerSec = 10
	}
	if cfg.Burst == 0 {
		cfg.Burst = 5
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.Burst),
		log:        log.With().Str("component", "api_client").Logger(),
	}
}

// PortfolioStatus fetches the current portfolio snapshot.
func (c *Client) PortfolioStatus(ctx context.Context) (*portfolio.Portfolio, error) {
	var out portfolio.Portfolio
	if err := c.get(ctx, "/portfolio/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Orders fetches trade history, newest first, capped at limit.
func (c *Client) Orders(ctx context.Context, limit int) ([]Order, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []Order
	if err := c.get(ctx, "/portfolio/orders", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PnLHistory fetches the account value curve for the last n days.
func (c *Client) PnLHistory(ctx context.Context, days int) ([]portfolio.PnLRecord, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	var out []portfolio.PnLRecord
	if err := c.get(ctx, "/portfolio/pnl", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TriggerAnalysis asks the backend to run a strategy analysis pass now.
// The REST twin of the stream's trigger_analysis command.
func (c *Client) TriggerAnalysis(ctx context.Context) error {
	return c.post(ctx, "/portfolio/analyze", nil)
}

// ResetPortfolio wipes the backend portfolio back to its initial capital.
func (c *Client) ResetPortfolio(ctx context.Context) error {
	return c.post(ctx, "/portfolio/reset", nil)
}

// Quote fetches one realtime quote.
func (c *Client) Quote(ctx context.Context, symbol string) (*portfolio.Quote, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}
	var out portfolio.Quote
	if err := c.get(ctx, "/market/quote/"+url.PathEscape(symbol), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Quotes fetches a batch of realtime quotes.
func (c *Client) Quotes(ctx context.Context, symbols []string) ([]portfolio.Quote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	q := url.Values{}
	q.Set("symbols", strings.Join(symbols, ","))
	var out []portfolio.Quote
	if err := c.get(ctx, "/market/quotes", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// History fetches daily bars for a symbol. Dates are YYYY-MM-DD and either
// may be empty for the backend default window.
func (c *Client) History(ctx context.Context, symbol, startDate, endDate string) ([]Candle, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}
	q := url.Values{}
	if startDate != "" {
		q.Set("start_date", startDate)
	}
	if endDate != "" {
		q.Set("end_date", endDate)
	}
	var out []Candle
	if err := c.get(ctx, "/market/history/"+url.PathEscape(symbol), q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Search looks symbols up by code or name fragment.
func (c *Client) Search(ctx context.Context, keyword string) ([]SearchResult, error) {
	q := url.Values{}
	q.Set("keyword", keyword)
	var out []SearchResult
	if err := c.get(ctx, "/market/search", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HotStocks fetches the most active symbols.
func (c *Client) HotStocks(ctx context.Context, limit int) ([]portfolio.Quote, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []portfolio.Quote
	if err := c.get(ctx, "/market/hot", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, out)
}

func (c *Client) post(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observ.IncCounter("api_requests_total", map[string]string{"path": path, "status": "error"})
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	observ.IncCounter("api_requests_total", map[string]string{"path": path, "status": strconv.Itoa(resp.StatusCode)})

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: backend returned %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
