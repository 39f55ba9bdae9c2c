package stubs

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminaquant/lumina-go/internal/adapters"
	"github.com/luminaquant/lumina-go/internal/portfolio"
	"github.com/luminaquant/lumina-go/internal/transport"
)

func newTestStub(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	srv := NewServer(cfg, zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func newStubAPIClient(ts *httptest.Server) *adapters.Client {
	return adapters.New(adapters.Config{
		BaseURL:         ts.URL + "/api",
		Timeout:         2 * time.Second,
		RateLimitPerSec: 1000,
		Burst:           1000,
	}, zerolog.Nop())
}

func TestStubRESTSurface(t *testing.T) {
	_, ts := newTestStub(t, Config{})
	api := newStubAPIClient(ts)
	ctx := context.Background()

	pf, err := api.PortfolioStatus(ctx)
	require.NoError(t, err)
	assert.InDelta(t, pf.Cash+pf.MarketValue, pf.TotalValue, 0.01, "total must equal cash plus market value")
	assert.Len(t, pf.Positions, 3)

	orders, err := api.Orders(ctx, 2)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, 3, orders[0].ID, "orders come newest first")

	history, err := api.PnLHistory(ctx, 30)
	require.NoError(t, err)
	assert.Len(t, history, 30)

	hits, err := api.Search(ctx, "茅台")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "600519", hits[0].Symbol)

	_, err = api.Quote(ctx, "999999")
	require.Error(t, err, "unknown symbol must 404")

	bars, err := api.History(ctx, "600519", "", "")
	require.NoError(t, err)
	assert.Len(t, bars, 30)

	hot, err := api.HotStocks(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, hot, 2)

	require.NoError(t, api.ResetPortfolio(ctx))
}

func TestStubStreamEndToEnd(t *testing.T) {
	srv, ts := newTestStub(t, Config{
		BroadcastInterval: 50 * time.Millisecond,
		Heartbeat:         time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)

	store := portfolio.NewStore()
	quotes := portfolio.NewQuoteBoard()
	session := transport.NewSession(transport.SessionConfig{
		URL:              "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws",
		ReconnectDelay:   50 * time.Millisecond,
		PingInterval:     time.Hour,
		SubscribeSymbols: []string{"600519"},
	}, &transport.WSDialer{}, store, quotes, zerolog.Nop())

	session.Start()
	defer session.Close()

	// initial_state lands first: snapshot plus the full 30-day curve
	require.Eventually(t, func() bool {
		_, ok := store.Snapshot()
		return ok && len(store.History()) == 30
	}, 5*time.Second, 10*time.Millisecond, "initial_state never applied")

	// subscribe_quotes sent on open must produce a quotes_update
	require.Eventually(t, func() bool {
		_, ok := quotes.Get("600519")
		return ok
	}, 5*time.Second, 10*time.Millisecond, "quotes_update never applied")

	// broadcast drift keeps replacing the snapshot without touching history
	require.Eventually(t, func() bool {
		select {
		case <-store.Updates():
			return true
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
	assert.Len(t, store.History(), 30)

	session.TriggerAnalysis()

	// the backend going away flips connectivity off
	ts.Close()
	require.Eventually(t, func() bool {
		return !session.Connected()
	}, 5*time.Second, 10*time.Millisecond, "connectivity must drop with the backend")
}
