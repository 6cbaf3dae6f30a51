package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adichannnnnhere64/brtcle-wallet/internal/money"
)

type memoryStore struct {
	mu       sync.RWMutex
	wallets  map[string]Wallet   // wallet id -> wallet
	byOwner  map[string]string   // owner ref -> wallet id
	log      map[string][]Transaction // wallet id -> records in append order
	nextTxID int64
}

// NewMemoryStore creates a concurrency-safe in-memory store. It backs unit
// tests and dev mode; its single mutex makes every commit trivially atomic.
func NewMemoryStore() Store {
	return &memoryStore{
		wallets: make(map[string]Wallet),
		byOwner: make(map[string]string),
		log:     make(map[string][]Transaction),
	}
}

func (s *memoryStore) FindOrCreateWallet(_ context.Context, owner OwnerRef, currency string) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byOwner[owner.String()]; ok {
		return s.wallets[id], nil
	}

	w := Wallet{
		ID:        uuid.NewString(),
		Owner:     owner,
		Currency:  currency,
		Balance:   money.Zero(),
		CreatedAt: time.Now().UTC(),
	}
	s.wallets[w.ID] = w
	s.byOwner[owner.String()] = w.ID
	return w, nil
}

func (s *memoryStore) FindWallet(_ context.Context, owner OwnerRef) (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byOwner[owner.String()]
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	return s.wallets[id], nil
}

func (s *memoryStore) Commit(_ context.Context, req CommitRequest) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(req)
}

func (s *memoryStore) CommitTransfer(_ context.Context, out, in CommitRequest) (Transaction, Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate both legs before touching state so a failing leg leaves
	// no partial transfer behind.
	for _, req := range []CommitRequest{out, in} {
		w, ok := s.wallets[req.WalletID]
		if !ok {
			return Transaction{}, Transaction{}, ErrWalletNotFound
		}
		if w.Version != req.ExpectedVersion {
			return Transaction{}, Transaction{}, ErrConcurrencyConflict
		}
	}

	outTx, err := s.applyLocked(out)
	if err != nil {
		return Transaction{}, Transaction{}, err
	}
	inTx, err := s.applyLocked(in)
	if err != nil {
		return Transaction{}, Transaction{}, err
	}
	return outTx, inTx, nil
}

func (s *memoryStore) applyLocked(req CommitRequest) (Transaction, error) {
	w, ok := s.wallets[req.WalletID]
	if !ok {
		return Transaction{}, ErrWalletNotFound
	}
	if w.Version != req.ExpectedVersion {
		return Transaction{}, ErrConcurrencyConflict
	}

	w.Balance = req.NewBalance
	w.Version++
	s.wallets[w.ID] = w

	s.nextTxID++
	tx := Transaction{
		ID:           s.nextTxID,
		WalletID:     w.ID,
		Kind:         req.Record.Kind,
		Amount:       req.Record.Amount,
		BalanceAfter: req.Record.BalanceAfter,
		Description:  req.Record.Description,
		Metadata:     cloneMetadata(req.Record.Metadata),
		CreatedAt:    time.Now().UTC(),
	}
	s.log[w.ID] = append(s.log[w.ID], tx)
	return tx, nil
}

func (s *memoryStore) Transactions(_ context.Context, walletID string, limit, offset int) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.log[walletID]
	out := make([]Transaction, 0, limit)
	// Records are appended in id order; walk backwards for newest-first.
	for i := len(records) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, records[i])
	}
	return out, nil
}

func (s *memoryStore) TransactionsBetween(_ context.Context, walletID string, from, to time.Time) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.log[walletID]
	var out []Transaction
	for i := len(records) - 1; i >= 0; i-- {
		at := records[i].CreatedAt
		if at.Before(from) || at.After(to) {
			continue
		}
		out = append(out, records[i])
	}
	return out, nil
}

func (s *memoryStore) SumByKinds(_ context.Context, walletID string, kinds ...Kind) (money.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		wanted[k] = true
	}

	sum := money.Zero()
	for _, tx := range s.log[walletID] {
		if wanted[tx.Kind] {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum, nil
}

func (s *memoryStore) CountTransactions(_ context.Context, walletID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.log[walletID])), nil
}

func cloneMetadata(meta map[string]string) map[string]string {
	if meta == nil {
		return nil
	}
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
