package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountRepository is the ledger store. Load/save of one account is a
// read-modify-write unit; callers serialize it per account (the store itself
// only guarantees that a single Save is atomic).
type AccountRepository interface {
	// Create persists a brand-new account.
	Create(ctx context.Context, account *Account) error

	// GetByID loads an account with its open positions and full transaction
	// log in replay order. Returns ErrAccountNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// GetByUsername loads an account by its unique username.
	GetByUsername(ctx context.Context, username string) (*Account, error)

	// Save atomically persists the account's balance and position set and
	// appends the given new transactions. Re-appending an already persisted
	// transaction is a no-op, so an interrupted sweep can be rerun safely.
	Save(ctx context.Context, account *Account, appended []Transaction) error

	// ListIDs returns the IDs of every account in the store.
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

// WatermarkRepository persists the monitor's process-wide coverage point:
// the last wall-clock instant through which stop triggers were evaluated.
type WatermarkRepository interface {
	// LastCheck returns the watermark, or ok=false when no sweep has ever
	// completed.
	LastCheck(ctx context.Context) (t time.Time, ok bool, err error)

	// SetLastCheck records the watermark after a fully successful sweep.
	SetLastCheck(ctx context.Context, t time.Time) error
}
