package portfolio

import (
	"sync"
	"time"
)

// QuoteBoard maintains the latest quote per symbol, fed by quotes_update
// frames and by REST quote polls. Quotes never touch the portfolio store.
type QuoteBoard struct {
	mu      sync.RWMutex
	quotes  map[string]Quote
	touched time.Time
}

func NewQuoteBoard() *QuoteBoard {
	return &QuoteBoard{quotes: make(map[string]Quote)}
}

// Update merges a batch of quotes, keyed by symbol. Last write wins per
// symbol; quotes for symbols not in the batch are kept.
func (b *QuoteBoard) Update(quotes []Quote) {
	if len(quotes) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, q := range quotes {
		if q.Symbol == "" {
			continue
		}
		b.quotes[q.Symbol] = q
	}
	b.touched = time.Now()
}

func (b *QuoteBoard) Get(symbol string) (Quote, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	q, ok := b.quotes[symbol]
	return q, ok
}

// Symbols returns all tracked symbols.
func (b *QuoteBoard) Symbols() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.quotes))
	for sym := range b.quotes {
		out = append(out, sym)
	}
	return out
}

// LastUpdate reports when the board last changed, zero before the first batch.
func (b *QuoteBoard) LastUpdate() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.touched
}
