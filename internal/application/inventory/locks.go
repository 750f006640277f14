package inventory

import (
	"sync"

	"github.com/google/uuid"
)

// itemLocks serializes ledger mutations per inventory item. The weighted
// average recompute is read-modify-write, so two credits for the same item
// must not interleave; different items proceed in parallel. The optimistic
// version column underneath catches writers from other processes.
type itemLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newItemLocks() *itemLocks {
	return &itemLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Acquire locks the mutex for the given item and returns an unlock func
func (l *itemLocks) Acquire(itemID uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[itemID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[itemID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
