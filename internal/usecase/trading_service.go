package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/domain"
	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/infra"
)

// TradingService validates and executes buy / short / sell-cover orders and
// owns account creation. Orders are all-or-nothing: any rejection leaves
// balance, positions, and the transaction log untouched. The price is
// fetched before the account lock is taken, never under it.
type TradingService struct {
	accounts domain.AccountRepository
	market   domain.MarketDataService
	catalog  domain.AssetCatalog
	locks    *infra.AccountLocks

	minInitialBalance float64
	now               func() time.Time
}

// NewTradingService creates a new TradingService
func NewTradingService(
	accounts domain.AccountRepository,
	market domain.MarketDataService,
	catalog domain.AssetCatalog,
	locks *infra.AccountLocks,
	minInitialBalance float64,
) *TradingService {
	return &TradingService{
		accounts:          accounts,
		market:            market,
		catalog:           catalog,
		locks:             locks,
		minInitialBalance: minInitialBalance,
		now:               time.Now,
	}
}

// CreateAccount opens a new account. The initial balance must meet the
// configured minimum and the commission rate must not be negative; both are
// validated here as the last line of defense regardless of what the
// boundary checked.
func (ts *TradingService) CreateAccount(ctx context.Context, username, passwordHash string, initialBalance, commissionRate float64) (*domain.Account, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, fmt.Errorf("%w: empty username", domain.ErrInvalidOrder)
	}
	if initialBalance < ts.minInitialBalance {
		return nil, fmt.Errorf("%w: initial balance must be at least %.0f", domain.ErrInvalidOrder, ts.minInitialBalance)
	}
	if commissionRate < 0 {
		return nil, fmt.Errorf("%w: commission rate must be at least 0", domain.ErrInvalidOrder)
	}

	if _, err := ts.accounts.GetByUsername(ctx, username); err == nil {
		return nil, domain.ErrUsernameTaken
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	account := &domain.Account{
		ID:             uuid.New(),
		Username:       username,
		PasswordHash:   passwordHash,
		InitialBalance: initialBalance,
		CommissionRate: commissionRate,
		CreatedAt:      ts.now(),
		Book:           domain.NewBook(initialBalance),
	}

	if err := ts.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	log.Printf("[OK] Account created: %s (balance %.2f, commission %.5f%%)", username, initialBalance, commissionRate*100)
	return account, nil
}

// Buy opens or grows a long position at the live price.
func (ts *TradingService) Buy(ctx context.Context, accountID uuid.UUID, symbol string, amount int64, stopLoss, stopProfit *float64) (*domain.Transaction, error) {
	return ts.enter(ctx, accountID, domain.SideLong, domain.ActionBuy, symbol, amount, stopLoss, stopProfit)
}

// Short opens or grows a short position at the live price.
func (ts *TradingService) Short(ctx context.Context, accountID uuid.UUID, symbol string, amount int64, stopLoss, stopProfit *float64) (*domain.Transaction, error) {
	return ts.enter(ctx, accountID, domain.SideShort, domain.ActionShort, symbol, amount, stopLoss, stopProfit)
}

func (ts *TradingService) enter(ctx context.Context, accountID uuid.UUID, side domain.Side, action domain.Action, symbol string, amount int64, stopLoss, stopProfit *float64) (*domain.Transaction, error) {
	if amount < 1 {
		return nil, fmt.Errorf("%w: amount must be a positive integer", domain.ErrInvalidOrder)
	}
	if (stopLoss != nil && *stopLoss <= 0) || (stopProfit != nil && *stopProfit <= 0) {
		return nil, fmt.Errorf("%w: stop levels must be positive", domain.ErrInvalidOrder)
	}
	if !ts.catalog.Exists(symbol) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSymbol, symbol)
	}

	price, err := ts.market.CurrentPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}

	unlock := ts.locks.Lock(accountID)
	defer unlock()

	account, err := ts.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	cost := float64(amount) * price
	commission := account.Commission(amount, price)
	if account.Balance < cost+commission {
		return nil, domain.ErrInsufficientBalance
	}

	account.Enter(side, symbol, amount, price, commission, stopLoss, stopProfit)
	tx := account.Record(action, symbol, amount, price, commission, ts.now())

	if err := ts.accounts.Save(ctx, account, []domain.Transaction{tx}); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	log.Printf("[OK] %s %s x%d @ %.4f for account %s", action, symbol, amount, price, accountID)
	return &tx, nil
}

// SellCover closes amount units of whichever position holds the symbol.
// When both a long and a short exist, the long is closed — stated policy,
// matching the exit resolution used during replay.
func (ts *TradingService) SellCover(ctx context.Context, accountID uuid.UUID, symbol string, amount int64) (*domain.Transaction, error) {
	if amount < 1 {
		return nil, fmt.Errorf("%w: amount must be a positive integer", domain.ErrInvalidOrder)
	}

	price, err := ts.market.CurrentPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}

	unlock := ts.locks.Lock(accountID)
	defer unlock()

	account, err := ts.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	held, ok := account.Position(domain.SideLong, symbol)
	if !ok {
		held, ok = account.Position(domain.SideShort, symbol)
	}
	if !ok {
		return nil, domain.ErrNoPosition
	}
	if held.Amount < amount {
		return nil, domain.ErrInsufficientQuantity
	}

	commission := account.Commission(amount, price)
	account.Exit(symbol, amount, price, commission)
	tx := account.Record(domain.ActionSellCover, symbol, amount, price, commission, ts.now())

	if err := ts.accounts.Save(ctx, account, []domain.Transaction{tx}); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	log.Printf("[OK] sell_cover %s x%d @ %.4f for account %s (%s side)", symbol, amount, price, accountID, held.Side)
	return &tx, nil
}
