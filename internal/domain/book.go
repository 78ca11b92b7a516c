package domain

import "sort"

// Book is the mutable accounting state of an account: cash balance plus the
// open positions keyed by (side, symbol). The live Book on an Account is a
// cache; valuation rebuilds a fresh Book by replaying the transaction log
// through Apply, so every balance rule lives here and nowhere else.
type Book struct {
	Balance   float64                      `json:"balance"`
	Positions map[Side]map[string]*Position `json:"positions"`
}

// NewBook returns an empty book holding only the given cash balance.
func NewBook(balance float64) Book {
	return Book{
		Balance: balance,
		Positions: map[Side]map[string]*Position{
			SideLong:  {},
			SideShort: {},
		},
	}
}

// Position looks up the open position for (side, symbol).
func (b *Book) Position(side Side, symbol string) (*Position, bool) {
	p, ok := b.Positions[side][symbol]
	return p, ok
}

// OpenPositions returns every open position, longs before shorts, symbols
// in lexical order. The order is deterministic so sweeps and views are
// reproducible.
func (b *Book) OpenPositions() []*Position {
	var out []*Position
	for _, side := range []Side{SideLong, SideShort} {
		symbols := make([]string, 0, len(b.Positions[side]))
		for sym := range b.Positions[side] {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)
		for _, sym := range symbols {
			out = append(out, b.Positions[side][sym])
		}
	}
	return out
}

// Enter opens or grows a position on the given side. The average price is
// the weighted cost basis of the old lot and the new units; this is the only
// place the average ever changes. Stop levels are overwritten with the ones
// supplied on this order, so the last order's stops win for the whole
// position. The total cost (notional plus commission) is debited from cash.
func (b *Book) Enter(side Side, symbol string, amount int64, price, commission float64, stopLoss, stopProfit *float64) {
	b.Balance -= float64(amount)*price + commission

	pos, ok := b.Positions[side][symbol]
	if !ok {
		pos = &Position{Side: side, Symbol: symbol, Amount: amount, AvgPrice: price}
		b.Positions[side][symbol] = pos
	} else {
		newAmount := pos.Amount + amount
		pos.AvgPrice = (float64(pos.Amount)*pos.AvgPrice + float64(amount)*price) / float64(newAmount)
		pos.Amount = newAmount
	}
	pos.StopLoss = stopLoss
	pos.StopProfit = stopProfit
}

// Exit closes amount units of the position holding symbol. A long position
// is resolved before a short one: when both sides hold the symbol, a single
// exit targets the long (stated policy, not an accident). Revenue is
// amount*price for a long and amount*(2*avg - price) for a short; revenue
// minus commission is credited to cash. Closing at least the held amount
// deletes the position rather than leaving a zero row. Returns the side that
// was closed, or false when neither side holds the symbol.
func (b *Book) Exit(symbol string, amount int64, price, commission float64) (Side, bool) {
	for _, side := range []Side{SideLong, SideShort} {
		pos, ok := b.Positions[side][symbol]
		if !ok {
			continue
		}
		revenue := float64(amount) * price
		if side == SideShort {
			revenue = float64(amount) * (2*pos.AvgPrice - price)
		}
		if amount >= pos.Amount {
			delete(b.Positions[side], symbol)
		} else {
			pos.Amount -= amount
		}
		b.Balance += revenue - commission
		return side, true
	}
	return "", false
}

// Close fully closes the position on one specific side, crediting revenue
// minus commission. Unlike Exit it never falls through to the other side:
// a triggered stop belongs to exactly one position. Returns the closed
// amount, or false when the position no longer exists.
func (b *Book) Close(side Side, symbol string, price, commission float64) (int64, bool) {
	pos, ok := b.Positions[side][symbol]
	if !ok {
		return 0, false
	}
	revenue := float64(pos.Amount) * price
	if side == SideShort {
		revenue = float64(pos.Amount) * (2*pos.AvgPrice - price)
	}
	amount := pos.Amount
	delete(b.Positions[side], symbol)
	b.Balance += revenue - commission
	return amount, true
}

// Apply replays one transaction onto the book. Exits that find no position
// are no-ops, which keeps replay total over any log prefix.
func (b *Book) Apply(tx Transaction) {
	switch {
	case tx.Action == ActionBuy:
		b.Enter(SideLong, tx.Symbol, tx.Amount, tx.Price, tx.Commission, nil, nil)
	case tx.Action == ActionShort:
		b.Enter(SideShort, tx.Symbol, tx.Amount, tx.Price, tx.Commission, nil, nil)
	case tx.Action.IsExit():
		b.Exit(tx.Symbol, tx.Amount, tx.Price, tx.Commission)
	}
}
