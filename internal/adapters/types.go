package adapters

// Order is one row of the trade history page.
type Order struct {
	ID             int     `json:"id"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Action         string  `json:"action"` // "buy" | "sell"
	Quantity       int     `json:"quantity"`
	Price          float64 `json:"price"`
	FilledPrice    float64 `json:"filled_price"`
	FilledQuantity int     `json:"filled_quantity"`
	Status         string  `json:"status"` // "pending" | "filled" | "cancelled" | "failed"
	Reason         string  `json:"reason"`
	CreatedAt      string  `json:"created_at"`
}

// Candle is one bar of daily history, with the backend-computed indicators
// the charts overlay.
type Candle struct {
	Date      string  `json:"date"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Amount    float64 `json:"amount,omitempty"`
	ChangePct float64 `json:"change_pct,omitempty"`
	MA5       float64 `json:"ma5,omitempty"`
	MA10      float64 `json:"ma10,omitempty"`
	MA20      float64 `json:"ma20,omitempty"`
	RSI       float64 `json:"rsi,omitempty"`
	MACD      float64 `json:"macd,omitempty"`
}

// SearchResult is one hit of the symbol search box.
type SearchResult struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}
