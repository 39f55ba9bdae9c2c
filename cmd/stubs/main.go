// Command stubs runs the local backend stub: the portfolio WebSocket channel
// and the REST surface on one address, with drifting fixture data. Point the
// dashboard at it when no real backend is reachable.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/luminaquant/lumina-go/internal/config"
	"github.com/luminaquant/lumina-go/internal/observ"
	"github.com/luminaquant/lumina-go/internal/stubs"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to yaml config (optional)")
		addr       = flag.String("addr", "", "listen address, overrides config")
		logLevel   = flag.String("log-level", "", "debug|info|warn|error, overrides config")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalLog := observ.NewLogger("error", false)
		fatalLog.Fatal().Err(err).Str("path", *configPath).Msg("load config")
	}
	if *addr != "" {
		cfg.Stub.Addr = *addr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	log := observ.NewLogger(cfg.LogLevel, cfg.LogPretty)

	server := stubs.NewServer(stubs.Config{
		BroadcastInterval: time.Duration(cfg.Stub.BroadcastMs) * time.Millisecond,
		Heartbeat:         time.Duration(cfg.Stub.HeartbeatMs) * time.Millisecond,
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go server.Run(ctx)

	httpServer := &http.Server{Addr: cfg.Stub.Addr, Handler: server.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.Stub.Addr).Msg("stub backend listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("stub backend failed")
	}
}
