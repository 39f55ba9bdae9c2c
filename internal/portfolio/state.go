package portfolio

import (
	"sync"
)

// Store holds the latest portfolio snapshot and the P&L history for one
// session. It is the single read model every display surface observes; only
// the session's inbound message handlers write to it.
//
// Writes are last-write-wins: initial_state replaces the snapshot and/or the
// history wholesale, portfolio_update replaces the snapshot only. There is no
// field-level merge and no validation of backend-computed totals.
type Store struct {
	mu        sync.RWMutex
	portfolio *Portfolio
	history   []PnLRecord

	// updates carries a coalesced change signal: capacity 1, non-blocking
	// send, so a slow reader sees at most one pending notification.
	updates chan struct{}
}

func NewStore() *Store {
	return &Store{
		updates: make(chan struct{}, 1),
	}
}

// ApplyInitialState installs the state carried by an initial_state frame.
// Either part may be nil independently; a nil part leaves the stored value
// untouched rather than clearing it.
func (s *Store) ApplyInitialState(p *Portfolio, history []PnLRecord) {
	if p == nil && history == nil {
		return
	}

	s.mu.Lock()
	if p != nil {
		s.portfolio = clonePortfolio(p)
	}
	if history != nil {
		s.history = make([]PnLRecord, len(history))
		copy(s.history, history)
	}
	s.mu.Unlock()

	s.notify()
}

// ApplyPortfolioUpdate replaces the snapshot. History is never touched by an
// update frame. A nil portfolio is a no-op.
func (s *Store) ApplyPortfolioUpdate(p *Portfolio) {
	if p == nil {
		return
	}

	s.mu.Lock()
	s.portfolio = clonePortfolio(p)
	s.mu.Unlock()

	s.notify()
}

// Snapshot returns a copy of the current portfolio. ok is false until the
// first snapshot-carrying frame has been applied.
func (s *Store) Snapshot() (Portfolio, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.portfolio == nil {
		return Portfolio{}, false
	}
	return *clonePortfolio(s.portfolio), true
}

// History returns a copy of the stored P&L curve, in server order.
func (s *Store) History() []PnLRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.history == nil {
		return nil
	}
	out := make([]PnLRecord, len(s.history))
	copy(out, s.history)
	return out
}

// Updates signals after each applied write. Reads never block writers.
func (s *Store) Updates() <-chan struct{} {
	return s.updates
}

func (s *Store) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
