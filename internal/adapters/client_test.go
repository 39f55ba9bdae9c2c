package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return New(Config{
		BaseURL:         ts.URL + "/api",
		Timeout:         2 * time.Second,
		RateLimitPerSec: 1000,
		Burst:           1000,
	}, zerolog.Nop())
}

func TestClientPortfolioStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/portfolio/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"portfolio_id":1,"name":"默认组合","cash":38550,"market_value":61450,"total_value":100000}`))
	}))

	pf, err := c.PortfolioStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100000.0, pf.TotalValue)
	assert.Equal(t, pf.TotalValue, pf.Cash+pf.MarketValue)
}

func TestClientOrdersPassesLimit(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/portfolio/orders", r.URL.Path)
		require.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Write([]byte(`[{"id":2,"symbol":"600519","action":"sell","status":"filled"},{"id":1,"symbol":"600519","action":"buy","status":"filled"}]`))
	}))

	orders, err := c.Orders(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "sell", orders[0].Action, "orders come newest first")
}

func TestClientQuotesBatch(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/market/quotes", r.URL.Path)
		require.Equal(t, "600519,000858", r.URL.Query().Get("symbols"))
		w.Write([]byte(`[{"symbol":"600519","price":1700},{"symbol":"000858","price":140}]`))
	}))

	quotes, err := c.Quotes(context.Background(), []string{"600519", "000858"})
	require.NoError(t, err)
	assert.Len(t, quotes, 2)

	// empty batch never hits the wire
	quotes, err = c.Quotes(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, quotes)
}

func TestClientTriggerAnalysisPosts(t *testing.T) {
	var method atomic.Value
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method.Store(r.Method)
		require.Equal(t, "/api/portfolio/analyze", r.URL.Path)
		w.Write([]byte(`{"message":"ok"}`))
	}))

	require.NoError(t, c.TriggerAnalysis(context.Background()))
	assert.Equal(t, http.MethodPost, method.Load())
}

func TestClientNon200IsError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"股票不存在"}`, http.StatusNotFound)
	}))

	_, err := c.Quote(context.Background(), "999999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestClientRejectsEmptySymbol(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the backend")
	}))

	_, err := c.Quote(context.Background(), "  ")
	require.Error(t, err)
	_, err = c.History(context.Background(), "", "", "")
	require.Error(t, err)
}

func TestClientHistoryWindow(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/market/history/600519", r.URL.Path)
		require.Equal(t, "2025-01-01", r.URL.Query().Get("start_date"))
		require.Equal(t, "2025-01-31", r.URL.Query().Get("end_date"))
		w.Write([]byte(`[{"date":"2025-01-02","open":1690,"close":1700,"high":1710,"low":1685,"volume":31000}]`))
	}))

	bars, err := c.History(context.Background(), "600519", "2025-01-01", "2025-01-31")
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 1700.0, bars[0].Close)
}

func TestPollRunsImmediatelyAndStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int64
	done := make(chan struct{})

	go func() {
		Poll(ctx, 10*time.Millisecond, func(context.Context) { calls.Add(1) })
		close(done)
	}()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poll loop did not stop on cancel")
	}
}
