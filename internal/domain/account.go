package domain

import (
	"time"

	"github.com/google/uuid"
)

// Side identifies which way a position bets.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Action is the kind of entry recorded in the transaction log.
type Action string

const (
	ActionBuy        Action = "buy"
	ActionShort      Action = "short"
	ActionSellCover  Action = "sell_cover"
	ActionStopLoss   Action = "stop_loss"
	ActionStopProfit Action = "stop_profit"
)

// IsExit reports whether the action closes (part of) a position.
// Stop-triggered closes replay exactly like a manual sell/cover.
func (a Action) IsExit() bool {
	return a == ActionSellCover || a == ActionStopLoss || a == ActionStopProfit
}

// Position is an open weighted-average lot. At most one exists per
// (side, symbol); a position whose amount reaches zero is deleted.
type Position struct {
	Side       Side     `json:"side"`
	Symbol     string   `json:"symbol"`
	Amount     int64    `json:"amount"`
	AvgPrice   float64  `json:"avg_price"`
	StopLoss   *float64 `json:"stop_loss,omitempty"`
	StopProfit *float64 `json:"stop_profit,omitempty"`
}

// MarkValue values the position at the given price. A short mirrors the
// price around its entry: amount * (2*avg - price).
func (p *Position) MarkValue(price float64) float64 {
	if p.Side == SideShort {
		return float64(p.Amount) * (2*p.AvgPrice - price)
	}
	return float64(p.Amount) * price
}

// PercentChange is the move of the position versus its average entry price,
// signed from the holder's point of view.
func (p *Position) PercentChange(price float64) float64 {
	if p.AvgPrice <= 0 {
		return 0
	}
	change := (price - p.AvgPrice) / p.AvgPrice * 100
	if p.Side == SideShort {
		return -change
	}
	return change
}

// HasStops reports whether the position carries a stop-loss or stop-profit
// level and therefore needs monitoring.
func (p *Position) HasStops() bool {
	return p.StopLoss != nil || p.StopProfit != nil
}

// Triggered evaluates the stop predicate at the given price. Stop-loss is
// checked first and wins when both levels are breached at once.
func (p *Position) Triggered(price float64) (Action, bool) {
	if p.Side == SideLong {
		if p.StopLoss != nil && price <= *p.StopLoss {
			return ActionStopLoss, true
		}
		if p.StopProfit != nil && price >= *p.StopProfit {
			return ActionStopProfit, true
		}
	} else {
		if p.StopLoss != nil && price >= *p.StopLoss {
			return ActionStopLoss, true
		}
		if p.StopProfit != nil && price <= *p.StopProfit {
			return ActionStopProfit, true
		}
	}
	return "", false
}

// Transaction is one immutable row of the append-only log. The log is the
// single source of truth: balance and open positions are derivable from it.
type Transaction struct {
	ID         uuid.UUID `json:"id"`
	ExecutedAt time.Time `json:"executed_at"`
	Action     Action    `json:"action"`
	Symbol     string    `json:"symbol"`
	Amount     int64     `json:"amount"`
	Price      float64   `json:"price"`
	Commission float64   `json:"commission"`
}

// Account is one user's ledger: credentials, the cached Book, and the
// transaction log the Book is derived from.
type Account struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	PasswordHash   string    `json:"-"`
	InitialBalance float64   `json:"initial_balance"`
	CommissionRate float64   `json:"commission_rate"`
	CreatedAt      time.Time `json:"created_at"`

	Book
	Transactions []Transaction `json:"transactions"`
}

// Commission is the flat fee for trading amount units at price.
// It is charged on notional (amount * price) for entries and exits alike.
func (a *Account) Commission(amount int64, price float64) float64 {
	return float64(amount) * price * a.CommissionRate
}

// Record appends an immutable transaction to the log and returns it.
func (a *Account) Record(action Action, symbol string, amount int64, price, commission float64, at time.Time) Transaction {
	tx := Transaction{
		ID:         uuid.New(),
		ExecutedAt: at,
		Action:     action,
		Symbol:     symbol,
		Amount:     amount,
		Price:      price,
		Commission: commission,
	}
	a.Transactions = append(a.Transactions, tx)
	return tx
}
