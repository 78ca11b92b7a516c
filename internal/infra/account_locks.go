package infra

import (
	"sync"

	"github.com/google/uuid"
)

// AccountLocks serializes read-modify-write cycles per account. The trade
// executor and the stop monitor share one instance, so a manual sell/cover
// can never interleave with an auto-close on the same account. Different
// accounts proceed fully in parallel.
type AccountLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewAccountLocks creates an empty lock table.
func NewAccountLocks() *AccountLocks {
	return &AccountLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Lock acquires the mutex for one account and returns its unlock function.
// Lock entries are never evicted; the table is bounded by the account count.
func (l *AccountLocks) Lock(accountID uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[accountID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[accountID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
