package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/domain"
	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/infra"
)

// fakeAccountRepo is an in-memory ledger store with the same contract as the
// database one: GetByID hands out deep copies, Save rewrites balance and
// positions and appends only transactions whose ID is not yet stored.
type fakeAccountRepo struct {
	accounts map[uuid.UUID]*domain.Account
}

func newFakeAccountRepo(accounts ...*domain.Account) *fakeAccountRepo {
	repo := &fakeAccountRepo{accounts: make(map[uuid.UUID]*domain.Account)}
	for _, a := range accounts {
		repo.accounts[a.ID] = copyAccount(a)
	}
	return repo
}

func copyAccount(a *domain.Account) *domain.Account {
	out := *a
	out.Book = domain.NewBook(a.Balance)
	for side, bySymbol := range a.Positions {
		for symbol, pos := range bySymbol {
			p := *pos
			if pos.StopLoss != nil {
				v := *pos.StopLoss
				p.StopLoss = &v
			}
			if pos.StopProfit != nil {
				v := *pos.StopProfit
				p.StopProfit = &v
			}
			out.Positions[side][symbol] = &p
		}
	}
	out.Transactions = append([]domain.Transaction(nil), a.Transactions...)
	return &out
}

func (r *fakeAccountRepo) Create(_ context.Context, account *domain.Account) error {
	r.accounts[account.ID] = copyAccount(account)
	return nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return copyAccount(a), nil
}

func (r *fakeAccountRepo) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	for _, a := range r.accounts {
		if a.Username == username {
			return copyAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *fakeAccountRepo) Save(_ context.Context, account *domain.Account, appended []domain.Transaction) error {
	stored, ok := r.accounts[account.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}

	next := copyAccount(account)
	next.Transactions = append([]domain.Transaction(nil), stored.Transactions...)
	for _, tx := range appended {
		seen := false
		for _, have := range next.Transactions {
			if have.ID == tx.ID {
				seen = true
				break
			}
		}
		if !seen {
			next.Transactions = append(next.Transactions, tx)
		}
	}
	r.accounts[account.ID] = next
	return nil
}

func (r *fakeAccountRepo) ListIDs(_ context.Context) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(r.accounts))
	for id := range r.accounts {
		ids = append(ids, id)
	}
	return ids, nil
}

func ptr(f float64) *float64 { return &f }

type fakeWatermark struct {
	t   time.Time
	ok  bool
	err error
}

func (w *fakeWatermark) LastCheck(_ context.Context) (time.Time, bool, error) {
	return w.t, w.ok, w.err
}

func (w *fakeWatermark) SetLastCheck(_ context.Context, t time.Time) error {
	w.t = t
	w.ok = true
	return nil
}

func stoppedAccount(side domain.Side, symbol string, amount int64, avg float64, stopLoss, stopProfit *float64) *domain.Account {
	account := &domain.Account{
		ID:             uuid.New(),
		Username:       "trader",
		InitialBalance: 40000,
		CommissionRate: 0.00005,
		CreatedAt:      day("2026-01-05"),
		Book:           domain.NewBook(40000 - float64(amount)*avg),
	}
	account.Positions[side][symbol] = &domain.Position{
		Side: side, Symbol: symbol, Amount: amount, AvgPrice: avg,
		StopLoss: stopLoss, StopProfit: stopProfit,
	}
	return account
}

func newMonitor(repo *fakeAccountRepo, wm *fakeWatermark, market *fakeMarket, at time.Time) *StopMonitorService {
	svc := NewStopMonitorService(repo, wm, market, infra.NewAccountLocks(), 10*time.Minute)
	svc.now = func() time.Time { return at }
	return svc
}

func TestCheckPositionsClosesTriggeredStopLoss(t *testing.T) {
	t.Parallel()

	account := stoppedAccount(domain.SideLong, "AAPL", 10, 100, ptr(90), nil)
	repo := newFakeAccountRepo(account)
	wm := &fakeWatermark{}
	sweepAt := day("2026-02-01").Add(14 * time.Hour)
	svc := newMonitor(repo, wm, &fakeMarket{live: map[string]float64{"AAPL": 85}}, sweepAt)

	require.NoError(t, svc.CheckPositions(context.Background()))

	stored, err := repo.GetByID(context.Background(), account.ID)
	require.NoError(t, err)

	_, hasPosition := stored.Position(domain.SideLong, "AAPL")
	assert.False(t, hasPosition)

	require.Len(t, stored.Transactions, 1)
	tx := stored.Transactions[0]
	assert.Equal(t, domain.ActionStopLoss, tx.Action)
	assert.Equal(t, int64(10), tx.Amount)
	assert.InDelta(t, 85.0, tx.Price, 1e-9)
	assert.InDelta(t, 10*85*0.00005, tx.Commission, 1e-9)
	assert.Equal(t, sweepAt, tx.ExecutedAt)

	// Proceeds minus the exit commission land in the balance.
	assert.InDelta(t, 39000+850-tx.Commission, stored.Balance, 1e-9)

	assert.True(t, wm.ok)
	assert.Equal(t, sweepAt, wm.t)
}

func TestCheckPositionsClosesShortStopProfit(t *testing.T) {
	t.Parallel()

	account := stoppedAccount(domain.SideShort, "GC=F", 5, 100, nil, ptr(80))
	repo := newFakeAccountRepo(account)
	svc := newMonitor(repo, &fakeWatermark{}, &fakeMarket{live: map[string]float64{"GC=F": 75}}, day("2026-02-01"))

	require.NoError(t, svc.CheckPositions(context.Background()))

	stored, _ := repo.GetByID(context.Background(), account.ID)
	require.Len(t, stored.Transactions, 1)
	assert.Equal(t, domain.ActionStopProfit, stored.Transactions[0].Action)
	// 5 * (2*100 - 75) = 625 back on a 500 outlay.
	assert.InDelta(t, 39500+625-stored.Transactions[0].Commission, stored.Balance, 1e-9)
}

func TestCheckPositionsLeavesUntriggeredAlone(t *testing.T) {
	t.Parallel()

	account := stoppedAccount(domain.SideLong, "AAPL", 10, 100, ptr(90), ptr(120))
	repo := newFakeAccountRepo(account)
	wm := &fakeWatermark{}
	svc := newMonitor(repo, wm, &fakeMarket{live: map[string]float64{"AAPL": 105}}, day("2026-02-01"))

	require.NoError(t, svc.CheckPositions(context.Background()))

	stored, _ := repo.GetByID(context.Background(), account.ID)
	_, hasPosition := stored.Position(domain.SideLong, "AAPL")
	assert.True(t, hasPosition)
	assert.Empty(t, stored.Transactions)
	assert.True(t, wm.ok)
}

func TestCheckPositionsSkipsUnpricedSymbol(t *testing.T) {
	t.Parallel()

	account := stoppedAccount(domain.SideLong, "AAPL", 10, 100, ptr(90), nil)
	repo := newFakeAccountRepo(account)
	wm := &fakeWatermark{}
	svc := newMonitor(repo, wm, &fakeMarket{}, day("2026-02-01"))

	require.NoError(t, svc.CheckPositions(context.Background()))

	stored, _ := repo.GetByID(context.Background(), account.ID)
	_, hasPosition := stored.Position(domain.SideLong, "AAPL")
	assert.True(t, hasPosition)

	// A price gap skips the position but does not hold the watermark back.
	assert.True(t, wm.ok)
}

func TestCheckPositionsIgnoresStoplessPositions(t *testing.T) {
	t.Parallel()

	account := stoppedAccount(domain.SideLong, "AAPL", 10, 100, nil, nil)
	repo := newFakeAccountRepo(account)
	market := &fakeMarket{live: map[string]float64{"AAPL": 1}}
	svc := newMonitor(repo, &fakeWatermark{}, market, day("2026-02-01"))

	require.NoError(t, svc.CheckPositions(context.Background()))

	assert.Zero(t, market.liveCalls)
	stored, _ := repo.GetByID(context.Background(), account.ID)
	_, hasPosition := stored.Position(domain.SideLong, "AAPL")
	assert.True(t, hasPosition)
}

func TestCheckPositionsFetchesEachSymbolOnce(t *testing.T) {
	t.Parallel()

	a := stoppedAccount(domain.SideLong, "AAPL", 10, 100, ptr(50), nil)
	b := stoppedAccount(domain.SideLong, "AAPL", 20, 110, ptr(50), nil)
	repo := newFakeAccountRepo(a, b)
	market := &fakeMarket{live: map[string]float64{"AAPL": 105}}
	svc := newMonitor(repo, &fakeWatermark{}, market, day("2026-02-01"))

	require.NoError(t, svc.CheckPositions(context.Background()))
	assert.Equal(t, 1, market.liveCalls)
}

func TestCatchUpWithoutWatermarkIsNoOp(t *testing.T) {
	t.Parallel()

	account := stoppedAccount(domain.SideLong, "AAPL", 10, 100, ptr(90), nil)
	repo := newFakeAccountRepo(account)
	wm := &fakeWatermark{}
	svc := newMonitor(repo, wm, &fakeMarket{}, day("2026-02-01"))

	require.NoError(t, svc.CatchUp(context.Background()))

	stored, _ := repo.GetByID(context.Background(), account.ID)
	_, hasPosition := stored.Position(domain.SideLong, "AAPL")
	assert.True(t, hasPosition)
	assert.False(t, wm.ok)
}

func TestCatchUpReplaysMissedBoundaries(t *testing.T) {
	t.Parallel()

	account := stoppedAccount(domain.SideLong, "AAPL", 10, 100, ptr(90), nil)
	repo := newFakeAccountRepo(account)

	last := day("2026-02-01").Add(12 * time.Hour)
	now := last.Add(25 * time.Minute)
	wm := &fakeWatermark{t: last, ok: true}

	// First missed boundary holds above the stop, the second breaches it.
	market := &fakeMarket{closesAt: map[string]float64{
		closeAtKey("AAPL", last.Add(10*time.Minute)): 95,
		closeAtKey("AAPL", last.Add(20*time.Minute)): 85,
	}}
	svc := newMonitor(repo, wm, market, now)

	require.NoError(t, svc.CatchUp(context.Background()))

	stored, _ := repo.GetByID(context.Background(), account.ID)
	_, hasPosition := stored.Position(domain.SideLong, "AAPL")
	assert.False(t, hasPosition)

	require.Len(t, stored.Transactions, 1)
	tx := stored.Transactions[0]
	assert.Equal(t, domain.ActionStopLoss, tx.Action)
	assert.InDelta(t, 85.0, tx.Price, 1e-9)
	// The close is stamped with the boundary it was detected at, not with
	// the wall clock of the catch-up run.
	assert.Equal(t, last.Add(20*time.Minute), tx.ExecutedAt)

	assert.Equal(t, last.Add(20*time.Minute), wm.t)
}

func TestCatchUpRerunIsIdempotent(t *testing.T) {
	t.Parallel()

	account := stoppedAccount(domain.SideLong, "AAPL", 10, 100, ptr(90), nil)
	repo := newFakeAccountRepo(account)

	last := day("2026-02-01").Add(12 * time.Hour)
	now := last.Add(15 * time.Minute)
	boundary := last.Add(10 * time.Minute)
	market := &fakeMarket{closesAt: map[string]float64{closeAtKey("AAPL", boundary): 85}}

	wm := &fakeWatermark{t: last, ok: true}
	svc := newMonitor(repo, wm, market, now)
	require.NoError(t, svc.CatchUp(context.Background()))

	// Rewind the watermark and replay the same gap: the position is already
	// gone, so the second pass records nothing.
	wm.t = last
	require.NoError(t, svc.CatchUp(context.Background()))

	stored, _ := repo.GetByID(context.Background(), account.ID)
	require.Len(t, stored.Transactions, 1)
	assert.Equal(t, boundary, wm.t)
}

func TestCatchUpSkipsSymbolsWithoutCloses(t *testing.T) {
	t.Parallel()

	account := stoppedAccount(domain.SideLong, "AAPL", 10, 100, ptr(90), nil)
	repo := newFakeAccountRepo(account)

	last := day("2026-02-01").Add(12 * time.Hour)
	wm := &fakeWatermark{t: last, ok: true}
	svc := newMonitor(repo, wm, &fakeMarket{}, last.Add(15*time.Minute))

	require.NoError(t, svc.CatchUp(context.Background()))

	stored, _ := repo.GetByID(context.Background(), account.ID)
	_, hasPosition := stored.Position(domain.SideLong, "AAPL")
	assert.True(t, hasPosition)
	assert.Equal(t, last.Add(10*time.Minute), wm.t)
}

func TestCatchUpUpToDateLeavesWatermark(t *testing.T) {
	t.Parallel()

	last := day("2026-02-01").Add(12 * time.Hour)
	wm := &fakeWatermark{t: last, ok: true}
	svc := newMonitor(newFakeAccountRepo(), wm, &fakeMarket{}, last.Add(5*time.Minute))

	require.NoError(t, svc.CatchUp(context.Background()))
	assert.Equal(t, last, wm.t)
}
