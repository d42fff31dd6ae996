package ledger

import (
	"sort"
	"sync"
)

// walletLocks serializes mutations per wallet id. Every multi-step
// read-modify-write against a wallet's aggregates runs under its mutex,
// so two concurrent updates can never interleave and lose a write.
//
// Mutexes are never removed; the map is bounded by the number of
// wallets ever touched by this process.
type walletLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newWalletLocks() *walletLocks {
	return &walletLocks{locks: make(map[int64]*sync.Mutex)}
}

func (l *walletLocks) get(id int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// Lock acquires the mutexes for the given wallet ids in ascending id
// order (duplicates collapsed) and returns the matching unlock. The
// fixed order prevents deadlock when a move touches two wallets.
func (l *walletLocks) Lock(ids ...int64) (unlock func()) {
	seen := make(map[int64]bool, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })

	held := make([]*sync.Mutex, 0, len(unique))
	for _, id := range unique {
		m := l.get(id)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
