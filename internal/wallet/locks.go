package wallet

import "sync"

// lockTable hands out one mutex per wallet so mutations against the same
// wallet never interleave their read-compute-commit sequence. Entries are
// kept for the process lifetime; the table grows with the number of distinct
// wallets touched, not with traffic.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sync.Mutex)}
}

func (t *lockTable) get(walletID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[walletID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[walletID] = l
	}
	return l
}

// lock acquires the wallet's mutex and returns its release func.
func (t *lockTable) lock(walletID string) func() {
	l := t.get(walletID)
	l.Lock()
	return l.Unlock
}

// lockPair acquires both wallets' mutexes in ascending wallet-id order, so
// two transfers moving funds in opposite directions between the same pair
// cannot deadlock.
func (t *lockTable) lockPair(a, b string) func() {
	if a == b {
		return t.lock(a)
	}
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	fl, sl := t.get(first), t.get(second)
	fl.Lock()
	sl.Lock()
	return func() {
		sl.Unlock()
		fl.Unlock()
	}
}
