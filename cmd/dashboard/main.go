// Command dashboard is the reference consumer of the Lumina data layer: it
// keeps a live session on the portfolio channel, polls the REST surface the
// way the dashboard pages do, and logs a snapshot summary on every change.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/luminaquant/lumina-go/internal/adapters"
	"github.com/luminaquant/lumina-go/internal/config"
	"github.com/luminaquant/lumina-go/internal/observ"
	"github.com/luminaquant/lumina-go/internal/portfolio"
	"github.com/luminaquant/lumina-go/internal/transport"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to yaml config (optional)")
		streamURL   = flag.String("ws", "", "websocket url, overrides config")
		apiBase     = flag.String("api", "", "rest base url, overrides config")
		symbols     = flag.String("symbols", "", "comma-separated quote subscription, overrides config")
		metricsAddr = flag.String("metrics-addr", "", "serve the metrics dump on this address (optional)")
		logLevel    = flag.String("log-level", "", "debug|info|warn|error, overrides config")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalLog := observ.NewLogger("error", false)
		fatalLog.Fatal().Err(err).Str("path", *configPath).Msg("load config")
	}
	if *streamURL != "" {
		cfg.Stream.URL = *streamURL
	}
	if *apiBase != "" {
		cfg.API.BaseURL = *apiBase
	}
	if *symbols != "" {
		cfg.Stream.SubscribeSymbols = strings.Split(*symbols, ",")
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	log := observ.NewLogger(cfg.LogLevel, cfg.LogPretty)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := portfolio.NewStore()
	quotes := portfolio.NewQuoteBoard()

	session := transport.NewSession(transport.SessionConfig{
		URL:              cfg.Stream.URL,
		ReconnectDelay:   time.Duration(cfg.Stream.ReconnectDelayMs) * time.Millisecond,
		PingInterval:     time.Duration(cfg.Stream.PingIntervalMs) * time.Millisecond,
		SubscribeSymbols: cfg.Stream.SubscribeSymbols,
	}, &transport.WSDialer{
		DialTimeout:  time.Duration(cfg.Stream.DialTimeoutMs) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Stream.WriteTimeoutMs) * time.Millisecond,
	}, store, quotes, log)

	session.Start()
	defer session.Close()

	api := adapters.New(adapters.Config{
		BaseURL:         cfg.API.BaseURL,
		Timeout:         time.Duration(cfg.API.TimeoutMs) * time.Millisecond,
		RateLimitPerSec: cfg.API.RateLimitPerSec,
		Burst:           cfg.API.Burst,
	}, log)

	go adapters.Poll(ctx, time.Duration(cfg.Poll.OrdersMs)*time.Millisecond, func(ctx context.Context) {
		orders, err := api.Orders(ctx, 50)
		if err != nil {
			log.Warn().Err(err).Msg("orders refresh failed")
			return
		}
		log.Debug().Int("count", len(orders)).Msg("orders refreshed")
	})

	if len(cfg.Stream.SubscribeSymbols) > 0 {
		go adapters.Poll(ctx, time.Duration(cfg.Poll.QuotesMs)*time.Millisecond, func(ctx context.Context) {
			batch, err := api.Quotes(ctx, cfg.Stream.SubscribeSymbols)
			if err != nil {
				log.Warn().Err(err).Msg("quotes refresh failed")
				return
			}
			quotes.Update(batch)
		})
	}

	if *metricsAddr != "" {
		go func() {
			log.Info().Str("addr", *metricsAddr).Msg("metrics dump listening")
			if err := http.ListenAndServe(*metricsAddr, observ.Handler()); err != nil {
				log.Warn().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	watchStore(ctx, store, session, log)

	log.Info().Msg("shutting down")
}

// watchStore logs a one-line summary whenever the snapshot changes, plus a
// periodic connectivity line, until ctx is cancelled.
func watchStore(ctx context.Context, store *portfolio.Store, session *transport.Session, log zerolog.Logger) {
	status := time.NewTicker(30 * time.Second)
	defer status.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-store.Updates():
			pf, ok := store.Snapshot()
			if !ok {
				continue
			}
			log.Info().
				Float64("total_value", pf.TotalValue).
				Float64("cash", pf.Cash).
				Float64("daily_pnl", pf.DailyPnL).
				Int("positions", len(pf.Positions)).
				Int("pnl_points", len(store.History())).
				Msg("portfolio updated")

		case <-status.C:
			log.Info().
				Bool("connected", session.Connected()).
				Stringer("state", session.State()).
				Msg("session status")
		}
	}
}
