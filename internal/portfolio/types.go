package portfolio

// Position is one holding inside a portfolio snapshot.
type Position struct {
	Symbol             string  `json:"symbol"`
	Name               string  `json:"name"`
	Quantity           int     `json:"quantity"`
	AvgCost            float64 `json:"avg_cost"`
	CurrentPrice       float64 `json:"current_price"`
	MarketValue        float64 `json:"market_value"`
	UnrealizedPnL      float64 `json:"unrealized_pnl"`
	UnrealizedPnLRatio float64 `json:"unrealized_pnl_ratio"`
	// Sellable is false for shares bought in the current settlement cycle
	// (T+1 lock-up). Computed by the backend, only displayed here.
	Sellable bool `json:"sellable"`
}

// Portfolio is the full account snapshot pushed by the backend. Snapshots are
// replaced wholesale; fields are never merged individually. The backend
// guarantees total_value = cash + market_value and market_value equal to the
// sum of position market values; the client does not re-derive either.
type Portfolio struct {
	PortfolioID    int        `json:"portfolio_id"`
	Name           string     `json:"name"`
	InitialCapital float64    `json:"initial_capital"`
	Cash           float64    `json:"cash"`
	MarketValue    float64    `json:"market_value"`
	TotalValue     float64    `json:"total_value"`
	TotalPnL       float64    `json:"total_pnl"`
	TotalPnLRatio  float64    `json:"total_pnl_ratio"`
	DailyPnL       float64    `json:"daily_pnl"`
	Positions      []Position `json:"positions"`
}

// PnLRecord is one point of the account value curve, ordered by timestamp
// ascending as served. The client never reorders server-supplied history.
type PnLRecord struct {
	Timestamp     string  `json:"timestamp"`
	TotalValue    float64 `json:"total_value"`
	Cash          float64 `json:"cash"`
	MarketValue   float64 `json:"market_value"`
	DailyPnL      float64 `json:"daily_pnl"`
	TotalPnL      float64 `json:"total_pnl"`
	TotalPnLRatio float64 `json:"total_pnl_ratio"`
}

// Quote is a realtime market quote for a single symbol, shown alongside the
// portfolio on the market pages.
type Quote struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	ChangePct    float64 `json:"change_pct"`
	Change       float64 `json:"change"`
	Volume       float64 `json:"volume"`
	Amount       float64 `json:"amount"`
	Open         float64 `json:"open"`
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	PrevClose    float64 `json:"prev_close"`
	TurnoverRate float64 `json:"turnover_rate,omitempty"`
	PERatio      float64 `json:"pe_ratio,omitempty"`
	PBRatio      float64 `json:"pb_ratio,omitempty"`
	MarketCap    float64 `json:"market_cap,omitempty"`
}

func clonePortfolio(p *Portfolio) *Portfolio {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Positions != nil {
		cp.Positions = make([]Position, len(p.Positions))
		copy(cp.Positions, p.Positions)
	}
	return &cp
}
