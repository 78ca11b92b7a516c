package domain

import (
	"context"
	"time"
)

// PricePoint is one sample of a symbol's price history.
type PricePoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// MarketDataService supplies prices for tradable symbols. Calls may be slow
// and are not transactionally consistent across symbols; callers must not
// hold an account lock across them.
type MarketDataService interface {
	// CurrentPrice returns the live price for a symbol.
	CurrentPrice(ctx context.Context, symbol string) (float64, error)

	// HistoricalClose returns the last known close at or before the given
	// instant. An error means no price is obtainable; callers decide whether
	// that is fatal (orders) or a skip (monitoring, valuation fallback).
	HistoricalClose(ctx context.Context, symbol string, at time.Time) (float64, error)

	// PriceHistory returns chart samples for a named period (1d, 7d, 1m,
	// 3m, 6m, 1y).
	PriceHistory(ctx context.Context, symbol, period string) ([]PricePoint, error)
}
