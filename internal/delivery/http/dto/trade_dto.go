package dto

// OrderRequest represents a buy or short order. Stop levels are optional;
// the ones supplied here replace whatever the position carried before.
type OrderRequest struct {
	Amount     int64    `json:"amount" validate:"required,min=1"`
	StopLoss   *float64 `json:"stop_loss,omitempty"`
	StopProfit *float64 `json:"stop_profit,omitempty"`
}

// CloseRequest represents a sell/cover order
type CloseRequest struct {
	Amount int64 `json:"amount" validate:"required,min=1"`
}

// TransactionOutput represents one executed transaction
type TransactionOutput struct {
	ID         string  `json:"id"`
	ExecutedAt string  `json:"executed_at"`
	Action     string  `json:"action"`
	Symbol     string  `json:"symbol"`
	Amount     int64   `json:"amount"`
	Price      float64 `json:"price"`
	Commission float64 `json:"commission"`
}
