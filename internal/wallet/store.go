package wallet

import (
	"context"
	"time"

	"github.com/adichannnnnhere64/brtcle-wallet/internal/money"
)

// TransactionRecord is the write-side shape of a ledger entry. The store
// assigns the id and creation timestamp when the record is committed.
type TransactionRecord struct {
	Kind         Kind
	Amount       money.Amount
	BalanceAfter money.Amount
	Description  string
	Metadata     map[string]string
}

// CommitRequest couples a conditional balance update with the record
// documenting it. ExpectedVersion is the version the caller read; the store
// rejects the commit with ErrConcurrencyConflict if it has moved since.
type CommitRequest struct {
	WalletID        string
	NewBalance      money.Amount
	ExpectedVersion uint64
	Record          TransactionRecord
}

// Store is the durable backend the engine consumes. Implementations must
// make Commit atomic: the balance update, the version bump and the record
// append all happen or none do. CommitTransfer extends the same guarantee
// across both legs of a transfer.
//
// Transactions are append-only. Stores never expose update or delete
// operations on committed records.
type Store interface {
	// FindOrCreateWallet returns the wallet for the owner reference,
	// creating it with a zero balance on first access. Idempotent.
	FindOrCreateWallet(ctx context.Context, owner OwnerRef, currency string) (Wallet, error)

	// FindWallet returns the wallet for the owner reference or
	// ErrWalletNotFound. It never creates.
	FindWallet(ctx context.Context, owner OwnerRef) (Wallet, error)

	// Commit conditionally persists a new balance and appends the record.
	// Returns ErrConcurrencyConflict when the expected version is stale.
	Commit(ctx context.Context, req CommitRequest) (Transaction, error)

	// CommitTransfer applies the out leg and the in leg as one atomic unit.
	CommitTransfer(ctx context.Context, out, in CommitRequest) (Transaction, Transaction, error)

	// Transactions returns up to limit records for the wallet, newest first
	// by id, skipping offset records.
	Transactions(ctx context.Context, walletID string, limit, offset int) ([]Transaction, error)

	// TransactionsBetween returns records created in [from, to] inclusive,
	// newest first by id.
	TransactionsBetween(ctx context.Context, walletID string, from, to time.Time) ([]Transaction, error)

	// SumByKinds returns the sum of signed amounts across the given kinds.
	SumByKinds(ctx context.Context, walletID string, kinds ...Kind) (money.Amount, error)

	// CountTransactions returns the number of records for the wallet.
	CountTransactions(ctx context.Context, walletID string) (int64, error)
}
