package stubs

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/luminaquant/lumina-go/internal/protocol"
)

// Config holds stub server settings.
type Config struct {
	// BroadcastInterval is the cadence of the portfolio_update push.
	BroadcastInterval time.Duration
	// Heartbeat is the idle keepalive cadence on each client socket.
	Heartbeat time.Duration
}

// Server is the in-process backend stub: the WebSocket channel plus the REST
// surface, over one shared fixture state.
type Server struct {
	cfg      Config
	state    *state
	hub      *hub
	log      zerolog.Logger
	upgrader websocket.Upgrader
	router   chi.Router
}

func NewServer(cfg Config, log zerolog.Logger) *Server {
	if cfg.BroadcastInterval == 0 {
		cfg.BroadcastInterval = 5 * time.Second
	}
	if cfg.Heartbeat == 0 {
		cfg.Heartbeat = 30 * time.Second
	}

	s := &Server{
		cfg:   cfg,
		state: newState(),
		hub:   newHub(log),
		log:   log.With().Str("component", "stub_server").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/ws", s.handleWS)
	r.Route("/api", func(r chi.Router) {
		r.Route("/portfolio", func(r chi.Router) {
			r.Get("/status", s.handleStatus)
			r.Get("/orders", s.handleOrders)
			r.Get("/pnl", s.handlePnL)
			r.Post("/analyze", s.handleAnalyze)
			r.Post("/reset", s.handleReset)
		})
		r.Route("/market", func(r chi.Router) {
			r.Get("/quote/{symbol}", s.handleQuote)
			r.Get("/quotes", s.handleQuotes)
			r.Get("/history/{symbol}", s.handleHistory)
			r.Get("/search", s.handleSearch)
			r.Get("/hot", s.handleHot)
		})
	})
	s.router = r

	return s
}

// Handler exposes the full stub surface, for http.Server and httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run drives the periodic portfolio_update broadcast until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.BroadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pf := s.state.drift()
			s.hub.broadcast(outMsg{
				Type:      "portfolio_update",
				Data:      pf,
				Timestamp: time.Now().Format(time.RFC3339),
			})
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := s.hub.add(conn)

	// Full state on connect, before anything else.
	s.hub.sendTo(c, outMsg{
		Type: "initial_state",
		Data: map[string]any{
			"portfolio":   s.state.snapshot(),
			"pnl_history": s.state.pnlHistory(30),
		},
	})

	go c.writePump(s.hub, s.cfg.Heartbeat)
	go c.readPump(s)
}

func (s *Server) handleCommand(c *client, cmd protocol.Command) {
	switch cmd.Type {
	case protocol.CmdPing:
		s.hub.sendTo(c, outMsg{Type: "pong"})

	case protocol.CmdSubscribeQuotes:
		s.hub.sendTo(c, outMsg{
			Type: "quotes_update",
			Data: s.state.quoteList(cmd.Symbols),
		})

	case protocol.CmdTriggerAnalysis:
		s.hub.sendTo(c, outMsg{Type: "analysis_triggered", Message: "分析已触发"})
		// analysis moves the portfolio, push the result right away
		s.hub.broadcast(outMsg{
			Type:      "portfolio_update",
			Data:      s.state.drift(),
			Timestamp: time.Now().Format(time.RFC3339),
		})

	default:
		s.log.Debug().Str("type", cmd.Type).Msg("ignoring unknown client command")
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.state.snapshot())
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 50)
	writeJSON(w, s.state.orderList(limit))
}

func (s *Server) handlePnL(w http.ResponseWriter, r *http.Request) {
	days := intQuery(r, "days", 30)
	writeJSON(w, s.state.pnlHistory(days))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	pf := s.state.drift()
	s.hub.broadcast(outMsg{
		Type:      "portfolio_update",
		Data:      pf,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	writeJSON(w, map[string]any{"status": "success", "message": "分析已触发", "portfolio": pf})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.state.reset()
	writeJSON(w, map[string]string{"status": "success", "message": "投资组合已重置"})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	quotes := s.state.quoteList([]string{symbol})
	if len(quotes) == 0 {
		http.Error(w, "symbol not found", http.StatusNotFound)
		return
	}
	writeJSON(w, quotes[0])
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	var symbols []string
	if raw := r.URL.Query().Get("symbols"); raw != "" {
		for _, sym := range strings.Split(raw, ",") {
			if sym = strings.TrimSpace(sym); sym != "" {
				symbols = append(symbols, sym)
			}
		}
	}
	writeJSON(w, s.state.quoteList(symbols))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	quotes := s.state.quoteList([]string{symbol})
	if len(quotes) == 0 {
		http.Error(w, "symbol not found", http.StatusNotFound)
		return
	}
	writeJSON(w, s.state.syntheticHistory(quotes[0], 30))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	writeJSON(w, s.state.search(keyword))
}

func (s *Server) handleHot(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 20)
	quotes := s.state.quoteList(nil)
	if limit > 0 && limit < len(quotes) {
		quotes = quotes[:limit]
	}
	writeJSON(w, quotes)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func intQuery(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
