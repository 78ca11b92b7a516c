package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/domain"
)

// AccountRepositoryImpl implements the AccountRepository interface on
// PostgreSQL. One account spans three tables: the account row (cash and
// rate), the open position rows, and the append-only transaction log.
type AccountRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(db *pgxpool.Pool) domain.AccountRepository {
	return &AccountRepositoryImpl{db: db}
}

// Create persists a new account
func (r *AccountRepositoryImpl) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (
			id, username, password_hash, initial_balance, balance, commission_rate, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := r.db.Exec(ctx, query,
		account.ID,
		account.Username,
		account.PasswordHash,
		account.InitialBalance,
		account.Balance,
		account.CommissionRate,
		account.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID loads an account with its positions and full transaction log
func (r *AccountRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return r.getBy(ctx, "id = $1", id)
}

// GetByUsername loads an account by its unique username
func (r *AccountRepositoryImpl) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.getBy(ctx, "username = $1", username)
}

func (r *AccountRepositoryImpl) getBy(ctx context.Context, where string, arg any) (*domain.Account, error) {
	query := fmt.Sprintf(`
		SELECT id, username, password_hash, initial_balance, balance, commission_rate, created_at
		FROM accounts
		WHERE %s
	`, where)

	account := &domain.Account{Book: domain.NewBook(0)}
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&account.InitialBalance,
		&account.Balance,
		&account.CommissionRate,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if err := r.loadPositions(ctx, account); err != nil {
		return nil, err
	}
	if err := r.loadTransactions(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

func (r *AccountRepositoryImpl) loadPositions(ctx context.Context, account *domain.Account) error {
	rows, err := r.db.Query(ctx, `
		SELECT side, symbol, amount, avg_price, stop_loss, stop_profit
		FROM positions
		WHERE account_id = $1
	`, account.ID)
	if err != nil {
		return fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		pos := &domain.Position{}
		if err := rows.Scan(&pos.Side, &pos.Symbol, &pos.Amount, &pos.AvgPrice, &pos.StopLoss, &pos.StopProfit); err != nil {
			return fmt.Errorf("failed to scan position: %w", err)
		}
		account.Positions[pos.Side][pos.Symbol] = pos
	}

	return rows.Err()
}

func (r *AccountRepositoryImpl) loadTransactions(ctx context.Context, account *domain.Account) error {
	// Replay order: timestamp, then insertion order for ties.
	rows, err := r.db.Query(ctx, `
		SELECT id, executed_at, action, symbol, amount, price, commission
		FROM transactions
		WHERE account_id = $1
		ORDER BY executed_at ASC, seq ASC
	`, account.ID)
	if err != nil {
		return fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(&tx.ID, &tx.ExecutedAt, &tx.Action, &tx.Symbol, &tx.Amount, &tx.Price, &tx.Commission); err != nil {
			return fmt.Errorf("failed to scan transaction: %w", err)
		}
		account.Transactions = append(account.Transactions, tx)
	}

	return rows.Err()
}

// Save persists balance, the position set, and any appended transactions in
// a single database transaction. Transaction inserts are keyed by ID with
// ON CONFLICT DO NOTHING, so a rerun of an interrupted sweep cannot
// double-append.
func (r *AccountRepositoryImpl) Save(ctx context.Context, account *domain.Account, appended []domain.Transaction) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE accounts SET balance = $1 WHERE id = $2
	`, account.Balance, account.ID); err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM positions WHERE account_id = $1
	`, account.ID); err != nil {
		return fmt.Errorf("failed to clear positions: %w", err)
	}

	for _, pos := range account.OpenPositions() {
		if _, err := tx.Exec(ctx, `
			INSERT INTO positions (account_id, side, symbol, amount, avg_price, stop_loss, stop_profit)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, account.ID, pos.Side, pos.Symbol, pos.Amount, pos.AvgPrice, pos.StopLoss, pos.StopProfit); err != nil {
			return fmt.Errorf("failed to insert position %s/%s: %w", pos.Side, pos.Symbol, err)
		}
	}

	for _, t := range appended {
		if _, err := tx.Exec(ctx, `
			INSERT INTO transactions (id, account_id, executed_at, action, symbol, amount, price, commission)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO NOTHING
		`, t.ID, account.ID, t.ExecutedAt, t.Action, t.Symbol, t.Amount, t.Price, t.Commission); err != nil {
			return fmt.Errorf("failed to append transaction: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit save: %w", err)
	}

	return nil
}

// ListIDs returns the IDs of all accounts
func (r *AccountRepositoryImpl) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM accounts ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan account id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
