package transport

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/luminaquant/lumina-go/internal/observ"
	"github.com/luminaquant/lumina-go/internal/portfolio"
	"github.com/luminaquant/lumina-go/internal/protocol"
)

const (
	defaultReconnectDelay = 5 * time.Second
	defaultPingInterval   = 25 * time.Second
)

// SessionConfig holds the per-session channel settings.
type SessionConfig struct {
	URL            string
	ReconnectDelay time.Duration // fixed delay between reconnect attempts
	PingInterval   time.Duration // liveness probe cadence

	// SubscribeSymbols, when set, is sent as a subscribe_quotes command on
	// every successful connect.
	SubscribeSymbols []string
}

// Session owns one logical connection to the backend and everything derived
// from it: the state machine, the reconnect timer, the liveness ticker and
// the write path for outbound commands. Inbound frames are decoded and
// applied to the snapshot store strictly in arrival order on a single
// goroutine.
//
// A session reconnects forever on a fixed delay. There is no backoff growth
// and no retry cap; a clean close and an error close reconnect identically.
// Teardown via Close is the only way out.
type Session struct {
	cfg    SessionConfig
	dialer Dialer
	store  *portfolio.Store
	quotes *portfolio.QuoteBoard
	log    zerolog.Logger

	mu    sync.RWMutex
	state ConnState
	conn  Conn

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once

	// pingTick overrides the liveness ticker in tests.
	pingTick <-chan time.Time
}

// NewSession builds a session. quotes may be nil when the caller does not
// track market quotes. The session does nothing until Start.
func NewSession(cfg SessionConfig, dialer Dialer, store *portfolio.Store, quotes *portfolio.QuoteBoard, log zerolog.Logger) *Session {
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	if cfg.PingInterval == 0 {
		cfg.PingInterval = defaultPingInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		cfg:    cfg,
		dialer: dialer,
		store:  store,
		quotes: quotes,
		log:    log.With().Str("component", "stream_session").Logger(),
		state:  StateConnecting,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the connect/read loop and the liveness driver.
func (s *Session) Start() {
	s.wg.Add(2)
	go s.run()
	go s.liveness()
}

// Close tears the session down: cancels both timers, closes any open
// transport and waits for the loops to exit. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.mu.Lock()
		if s.conn != nil {
			_ = s.conn.Close()
		}
		s.mu.Unlock()
	})
	s.wg.Wait()
}

// State returns the state machine's current state.
func (s *Session) State() ConnState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Connected is the boolean connectivity signal the UI observes.
func (s *Session) Connected() bool {
	return s.State() == StateOpen
}

// Send serializes a command and transmits it on the current transport.
// While the session is not Open the command is silently dropped: commands
// are fire-and-forget and safe to lose, so no error is surfaced and nothing
// is queued for retry. Drops are counted for diagnostics.
func (s *Session) Send(cmd protocol.Command) {
	data, err := cmd.Encode()
	if err != nil {
		s.log.Error().Err(err).Str("type", cmd.Type).Msg("unencodable command")
		return
	}

	s.mu.RLock()
	conn, state := s.conn, s.state
	s.mu.RUnlock()

	if state != StateOpen || conn == nil {
		observ.IncCounter("stream_commands_dropped_total", map[string]string{"type": cmd.Type})
		s.log.Debug().Str("type", cmd.Type).Stringer("state", state).Msg("command dropped, channel not open")
		return
	}

	if err := conn.WriteMessage(data); err != nil {
		s.log.Warn().Err(err).Str("type", cmd.Type).Msg("command write failed")
		return
	}
	observ.IncCounter("stream_commands_sent_total", map[string]string{"type": cmd.Type})
}

// TriggerAnalysis asks the backend to run an analysis pass now.
func (s *Session) TriggerAnalysis() {
	s.Send(protocol.TriggerAnalysis())
}

// run is the connect/read loop: Connecting -> Open -> Closed, then the
// reconnect timer re-enters Connecting. Exits only on teardown.
func (s *Session) run() {
	defer s.wg.Done()

	for {
		if s.ctx.Err() != nil {
			return
		}

		s.setState(StateConnecting)
		conn, err := s.dialer.Dial(s.ctx, s.cfg.URL)
		if err != nil {
			s.onError(err)
		} else if s.onOpen(conn) {
			s.readLoop(conn)
		}

		if s.ctx.Err() != nil {
			return
		}

		observ.IncCounter("stream_reconnects_total", nil)
		timer := time.NewTimer(s.cfg.ReconnectDelay)
		select {
		case <-timer.C:
		case <-s.ctx.Done():
			timer.Stop()
			return
		}
	}
}

func (s *Session) readLoop(conn Conn) {
	for {
		frame, err := conn.ReadMessage()
		if err != nil {
			s.onClose(err)
			return
		}
		s.onMessage(frame)
	}
}

// liveness sends a ping on a fixed cadence for the session's whole lifetime,
// independent of connection state; Send no-ops while not Open. Pong replies
// are accepted and ignored, so a dead connection is detected only by the
// transport, never by missed pongs.
func (s *Session) liveness() {
	defer s.wg.Done()

	tick := s.pingTick
	if tick == nil {
		ticker := time.NewTicker(s.cfg.PingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-tick:
			s.Send(protocol.Ping())
		}
	}
}

// onOpen: Connecting -> Open. Connectivity flips true. Returns false when
// teardown won the race while the dial was in flight: Close cancels before it
// sweeps the installed conn, so a cancelled context observed under s.mu means
// the sweep already ran and this conn must be closed here, never installed.
func (s *Session) onOpen(conn Conn) bool {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		_ = conn.Close()
		return false
	}
	s.conn = conn
	s.state = StateOpen
	s.mu.Unlock()

	observ.SetGauge("stream_connected", 1, nil)
	s.log.Info().Str("url", s.cfg.URL).Msg("channel open")

	if len(s.cfg.SubscribeSymbols) > 0 {
		s.Send(protocol.SubscribeQuotes(s.cfg.SubscribeSymbols))
	}
	return true
}

// onClose: Open -> Closed, on transport close or error from either side.
// Connectivity flips false immediately; run arms the reconnect timer.
func (s *Session) onClose(err error) {
	s.mu.Lock()
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.state = StateClosed
	s.mu.Unlock()

	observ.SetGauge("stream_connected", 0, nil)
	if s.ctx.Err() == nil {
		s.log.Warn().Err(err).Msg("channel closed")
	}
}

// onError: Connecting -> Closed, dial failed.
func (s *Session) onError(err error) {
	s.setState(StateClosed)
	observ.SetGauge("stream_connected", 0, nil)
	if s.ctx.Err() == nil {
		s.log.Warn().Err(err).Msg("connect failed")
	}
}

// onMessage decodes one inbound frame and applies it. A frame that cannot be
// decoded is discarded and counted; the channel stays open. Frames whose
// payload is wholly absent are no-ops, counted separately from malformed
// frames so upstream schema drift stays observable.
func (s *Session) onMessage(frame []byte) {
	msg, err := protocol.Decode(frame)
	if err != nil {
		observ.IncCounter("stream_decode_failures_total", map[string]string{"reason": "malformed"})
		s.log.Warn().Err(err).Msg("discarding undecodable frame")
		return
	}

	observ.IncCounter("stream_frames_total", map[string]string{"kind": string(msg.Kind)})

	if msg.PayloadAbsent() {
		observ.IncCounter("stream_empty_payloads_total", map[string]string{"kind": string(msg.Kind)})
	}

	switch msg.Kind {
	case protocol.KindInitialState:
		s.store.ApplyInitialState(msg.Portfolio, msg.PnLHistory)
	case protocol.KindPortfolioUpdate:
		s.store.ApplyPortfolioUpdate(msg.Portfolio)
	case protocol.KindQuotesUpdate:
		if s.quotes != nil {
			s.quotes.Update(msg.Quotes)
		}
	case protocol.KindAnalysisTriggered:
		s.log.Info().Str("message", msg.Note).Msg("analysis triggered")
	case protocol.KindPong, protocol.KindHeartbeat:
		// liveness acks carry no payload and drive no state
	case protocol.KindUnknown:
		s.log.Debug().Str("type", msg.RawType).Msg("ignoring unknown message kind")
	}
}

func (s *Session) setState(st ConnState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}
