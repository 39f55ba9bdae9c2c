// Package stubs is an in-process stand-in for the backend: the same
// WebSocket channel and REST surface, served from mutable fixture state with
// a random-walk price drift. Used by cmd/stubs for local development and by
// the integration tests.
package stubs

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/luminaquant/lumina-go/internal/adapters"
	"github.com/luminaquant/lumina-go/internal/portfolio"
)

type state struct {
	mu      sync.Mutex
	pf      portfolio.Portfolio
	history []portfolio.PnLRecord
	orders  []adapters.Order
	quotes  map[string]portfolio.Quote
	rng     *rand.Rand
}

func newState() *state {
	s := &state{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.reset()
	return s
}

func (s *state) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pf = portfolio.Portfolio{
		PortfolioID:    1,
		Name:           "默认组合",
		InitialCapital: 100000,
		Cash:           38550,
		Positions: []portfolio.Position{
			{Symbol: "600519", Name: "贵州茅台", Quantity: 20, AvgCost: 1680.00, CurrentPrice: 1705.50, Sellable: true},
			{Symbol: "000858", Name: "五粮液", Quantity: 100, AvgCost: 142.30, CurrentPrice: 139.80, Sellable: true},
			{Symbol: "300750", Name: "宁德时代", Quantity: 50, AvgCost: 188.60, CurrentPrice: 195.20, Sellable: false},
		},
	}
	s.recompute()

	s.history = nil
	now := time.Now()
	for i := 29; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		s.history = append(s.history, portfolio.PnLRecord{
			Timestamp:     day.Format(time.RFC3339),
			TotalValue:    s.pf.TotalValue,
			Cash:          s.pf.Cash,
			MarketValue:   s.pf.MarketValue,
			DailyPnL:      s.pf.DailyPnL,
			TotalPnL:      s.pf.TotalPnL,
			TotalPnLRatio: s.pf.TotalPnLRatio,
		})
	}

	s.orders = []adapters.Order{
		{ID: 1, Symbol: "600519", Name: "贵州茅台", Action: "buy", Quantity: 20, Price: 1680.00, FilledPrice: 1680.00, FilledQuantity: 20, Status: "filled", Reason: "趋势突破", CreatedAt: now.AddDate(0, 0, -7).Format(time.RFC3339)},
		{ID: 2, Symbol: "000858", Name: "五粮液", Action: "buy", Quantity: 100, Price: 142.30, FilledPrice: 142.30, FilledQuantity: 100, Status: "filled", Reason: "估值回归", CreatedAt: now.AddDate(0, 0, -3).Format(time.RFC3339)},
		{ID: 3, Symbol: "300750", Name: "宁德时代", Action: "buy", Quantity: 50, Price: 188.60, FilledPrice: 188.60, FilledQuantity: 50, Status: "filled", Reason: "行业景气", CreatedAt: now.Format(time.RFC3339)},
	}

	s.quotes = map[string]portfolio.Quote{}
	for _, p := range s.pf.Positions {
		s.quotes[p.Symbol] = portfolio.Quote{
			Symbol:    p.Symbol,
			Name:      p.Name,
			Price:     p.CurrentPrice,
			PrevClose: p.CurrentPrice,
			Open:      p.CurrentPrice,
			High:      p.CurrentPrice,
			Low:       p.CurrentPrice,
			Volume:    float64(s.rng.Intn(2_000_000) + 500_000),
		}
	}
}

// recompute re-derives the backend-contract invariants:
// market_value = sum(position market values), total_value = cash + market_value.
// Caller holds s.mu.
func (s *state) recompute() {
	mv := 0.0
	for i := range s.pf.Positions {
		p := &s.pf.Positions[i]
		p.MarketValue = float64(p.Quantity) * p.CurrentPrice
		p.UnrealizedPnL = float64(p.Quantity) * (p.CurrentPrice - p.AvgCost)
		if p.AvgCost > 0 {
			p.UnrealizedPnLRatio = (p.CurrentPrice - p.AvgCost) / p.AvgCost
		}
		mv += p.MarketValue
	}
	s.pf.MarketValue = mv
	s.pf.TotalValue = s.pf.Cash + mv
	s.pf.TotalPnL = s.pf.TotalValue - s.pf.InitialCapital
	if s.pf.InitialCapital > 0 {
		s.pf.TotalPnLRatio = s.pf.TotalPnL / s.pf.InitialCapital
	}
}

// drift applies a small random walk to every position price and returns the
// resulting snapshot. Feeds the periodic portfolio_update broadcast.
func (s *state) drift() portfolio.Portfolio {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevTotal := s.pf.TotalValue
	for i := range s.pf.Positions {
		p := &s.pf.Positions[i]
		step := 1 + (s.rng.Float64()-0.5)*0.004 // ±0.2% per tick
		p.CurrentPrice = round2(p.CurrentPrice * step)
		q := s.quotes[p.Symbol]
		q.Price = p.CurrentPrice
		q.Change = round2(q.Price - q.PrevClose)
		if q.PrevClose > 0 {
			q.ChangePct = round2(q.Change / q.PrevClose * 100)
		}
		if q.Price > q.High {
			q.High = q.Price
		}
		if q.Price < q.Low {
			q.Low = q.Price
		}
		s.quotes[p.Symbol] = q
	}
	s.recompute()
	s.pf.DailyPnL = round2(s.pf.DailyPnL + (s.pf.TotalValue - prevTotal))

	return s.pf
}

func (s *state) snapshot() portfolio.Portfolio {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pf
}

func (s *state) pnlHistory(days int) []portfolio.PnLRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.history
	if days > 0 && days < len(h) {
		h = h[len(h)-days:]
	}
	out := make([]portfolio.PnLRecord, len(h))
	copy(out, h)
	return out
}

func (s *state) orderList(limit int) []adapters.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]adapters.Order, len(s.orders))
	copy(out, s.orders)
	// newest first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

func (s *state) quoteList(symbols []string) []portfolio.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []portfolio.Quote
	if len(symbols) == 0 {
		for _, q := range s.quotes {
			out = append(out, q)
		}
		return out
	}
	for _, sym := range symbols {
		if q, ok := s.quotes[sym]; ok {
			out = append(out, q)
		}
	}
	return out
}

// syntheticHistory walks prices backwards from the current quote to fake a
// daily bar series. Good enough for charts against the stub.
func (s *state) syntheticHistory(q portfolio.Quote, days int) []adapters.Candle {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]adapters.Candle, days)
	price := q.Price
	now := time.Now()
	for i := days - 1; i >= 0; i-- {
		open := round2(price * (1 + (s.rng.Float64()-0.5)*0.01))
		high := math.Max(open, price) * 1.005
		low := math.Min(open, price) * 0.995
		out[i] = adapters.Candle{
			Date:   now.AddDate(0, 0, i-days+1).Format("2006-01-02"),
			Open:   open,
			High:   round2(high),
			Low:    round2(low),
			Close:  round2(price),
			Volume: float64(s.rng.Intn(2_000_000) + 500_000),
		}
		price = open
	}
	return out
}

func (s *state) search(keyword string) []adapters.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []adapters.SearchResult{}
	if keyword == "" {
		return out
	}
	for sym, q := range s.quotes {
		if strings.Contains(sym, keyword) || strings.Contains(q.Name, keyword) {
			out = append(out, adapters.SearchResult{Symbol: sym, Name: q.Name})
		}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
