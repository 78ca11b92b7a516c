package dto

// HoldingOutput is one open position marked at the live price
type HoldingOutput struct {
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	Side          string   `json:"side"`
	Amount        int64    `json:"amount"`
	AvgPrice      float64  `json:"avg_price"`
	Price         float64  `json:"price"`
	Value         float64  `json:"value"`
	PercentChange float64  `json:"percent_change"`
	StopLoss      *float64 `json:"stop_loss,omitempty"`
	StopProfit    *float64 `json:"stop_profit,omitempty"`
}

// PortfolioOutput is the account overview: cash, marked holdings, and the
// day/inception performance numbers.
type PortfolioOutput struct {
	Balance          float64         `json:"balance"`
	Holdings         []HoldingOutput `json:"holdings"`
	TotalValue       float64         `json:"total_value"`
	PercentChange    float64         `json:"percent_change"`
	DayPercentChange float64         `json:"day_percent_change"`
}

// HistoryOutput is the day-by-day value timeline plus the transaction log,
// newest first.
type HistoryOutput struct {
	Days         []TimelineDayOutput `json:"days"`
	Transactions []TransactionOutput `json:"transactions"`
}

// TimelineDayOutput is one day of the value timeline
type TimelineDayOutput struct {
	Day    string  `json:"day"`
	Value  float64 `json:"value"`
	Change float64 `json:"change"`
}
