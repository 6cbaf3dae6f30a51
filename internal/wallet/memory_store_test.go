package wallet

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/adichannnnnhere64/brtcle-wallet/internal/money"
)

func seedWallet(t *testing.T, store Store, owner OwnerRef) Wallet {
	t.Helper()
	w, err := store.FindOrCreateWallet(context.Background(), owner, "USD")
	if err != nil {
		t.Fatalf("FindOrCreateWallet: %v", err)
	}
	return w
}

func creditRequest(w Wallet, amount string) CommitRequest {
	a := money.MustParse(amount)
	return CommitRequest{
		WalletID:        w.ID,
		NewBalance:      w.Balance.Add(a),
		ExpectedVersion: w.Version,
		Record: TransactionRecord{
			Kind:         KindCredit,
			Amount:       a,
			BalanceAfter: w.Balance.Add(a),
		},
	}
}

func TestMemoryStoreFindOrCreateIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := seedWallet(t, store, OwnerRef{Type: "user", ID: "1"})
	second := seedWallet(t, store, OwnerRef{Type: "user", ID: "1"})
	if first.ID != second.ID {
		t.Fatalf("same owner produced two wallets: %s vs %s", first.ID, second.ID)
	}
	if !first.Balance.IsZero() {
		t.Fatalf("new wallet balance = %s, want 0", first.Balance)
	}

	if _, err := store.FindWallet(ctx, OwnerRef{Type: "user", ID: "2"}); !errors.Is(err, ErrWalletNotFound) {
		t.Fatalf("FindWallet on missing owner = %v, want ErrWalletNotFound", err)
	}
}

func TestMemoryStoreCommitBumpsVersion(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	w := seedWallet(t, store, OwnerRef{Type: "user", ID: "1"})

	if _, err := store.Commit(ctx, creditRequest(w, "10.00")); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	reloaded, err := store.FindWallet(ctx, w.Owner)
	if err != nil {
		t.Fatalf("FindWallet: %v", err)
	}
	if reloaded.Version != w.Version+1 {
		t.Fatalf("version = %d, want %d", reloaded.Version, w.Version+1)
	}
	if !reloaded.Balance.Equal(money.MustParse("10.00")) {
		t.Fatalf("balance = %s, want 10.00", reloaded.Balance)
	}
}

func TestMemoryStoreCommitRejectsStaleVersion(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	w := seedWallet(t, store, OwnerRef{Type: "user", ID: "1"})

	if _, err := store.Commit(ctx, creditRequest(w, "10.00")); err != nil {
		t.Fatalf("first Commit: %v", err)
	}
	// Re-using the pre-commit snapshot must lose the optimistic race.
	if _, err := store.Commit(ctx, creditRequest(w, "10.00")); !errors.Is(err, ErrConcurrencyConflict) {
		t.Fatalf("stale Commit = %v, want ErrConcurrencyConflict", err)
	}

	reloaded, _ := store.FindWallet(ctx, w.Owner)
	if !reloaded.Balance.Equal(money.MustParse("10.00")) {
		t.Fatalf("stale commit changed balance: %s", reloaded.Balance)
	}
}

func TestMemoryStoreCommitTransferIsAllOrNothing(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	src := seedWallet(t, store, OwnerRef{Type: "user", ID: "src"})
	dst := seedWallet(t, store, OwnerRef{Type: "user", ID: "dst"})

	// Advance the destination so the in-leg snapshot below is stale.
	if _, err := store.Commit(ctx, creditRequest(dst, "1.00")); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	out := CommitRequest{
		WalletID:        src.ID,
		NewBalance:      money.MustParse("-5.00"),
		ExpectedVersion: src.Version,
		Record:          TransactionRecord{Kind: KindTransferOut, Amount: money.MustParse("-5.00"), BalanceAfter: money.MustParse("-5.00")},
	}
	in := CommitRequest{
		WalletID:        dst.ID,
		NewBalance:      money.MustParse("5.00"),
		ExpectedVersion: dst.Version, // stale
		Record:          TransactionRecord{Kind: KindTransferIn, Amount: money.MustParse("5.00"), BalanceAfter: money.MustParse("5.00")},
	}

	if _, _, err := store.CommitTransfer(ctx, out, in); !errors.Is(err, ErrConcurrencyConflict) {
		t.Fatalf("CommitTransfer = %v, want ErrConcurrencyConflict", err)
	}

	// The stale in-leg must not have let the out-leg through.
	srcAfter, _ := store.FindWallet(ctx, src.Owner)
	if !srcAfter.Balance.IsZero() {
		t.Fatalf("out leg applied despite failed in leg: balance %s", srcAfter.Balance)
	}
	txs, _ := store.Transactions(ctx, src.ID, 10, 0)
	if len(txs) != 0 {
		t.Fatalf("out leg recorded despite failed in leg: %d records", len(txs))
	}
}

func TestMemoryStoreTransactionsPagination(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	w := seedWallet(t, store, OwnerRef{Type: "user", ID: "1"})

	for i := 1; i <= 5; i++ {
		cur, err := store.FindWallet(ctx, w.Owner)
		if err != nil {
			t.Fatalf("FindWallet: %v", err)
		}
		req := creditRequest(cur, "1.00")
		req.Record.Description = fmt.Sprintf("tx %d", i)
		if _, err := store.Commit(ctx, req); err != nil {
			t.Fatalf("Commit %d: %v", i, err)
		}
	}

	page, err := store.Transactions(ctx, w.ID, 2, 1)
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("page size = %d, want 2", len(page))
	}
	// Newest first with offset 1 skips tx 5.
	if page[0].Description != "tx 4" || page[1].Description != "tx 3" {
		t.Fatalf("page order wrong: %q, %q", page[0].Description, page[1].Description)
	}
}

func TestMemoryStoreSumsAndCounts(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	w := seedWallet(t, store, OwnerRef{Type: "user", ID: "1"})

	commit := func(kind Kind, amount string) {
		cur, err := store.FindWallet(ctx, w.Owner)
		if err != nil {
			t.Fatalf("FindWallet: %v", err)
		}
		a := money.MustParse(amount)
		_, err = store.Commit(ctx, CommitRequest{
			WalletID:        cur.ID,
			NewBalance:      cur.Balance.Add(a),
			ExpectedVersion: cur.Version,
			Record:          TransactionRecord{Kind: kind, Amount: a, BalanceAfter: cur.Balance.Add(a)},
		})
		if err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}

	commit(KindCredit, "100.00")
	commit(KindDebit, "-30.00")
	commit(KindTransferIn, "20.00")

	credits, err := store.SumByKinds(ctx, w.ID, KindCredit, KindTransferIn)
	if err != nil {
		t.Fatalf("SumByKinds: %v", err)
	}
	if !credits.Equal(money.MustParse("120.00")) {
		t.Fatalf("credits = %s, want 120.00", credits)
	}

	debits, err := store.SumByKinds(ctx, w.ID, KindDebit, KindTransferOut)
	if err != nil {
		t.Fatalf("SumByKinds: %v", err)
	}
	if !debits.Equal(money.MustParse("-30.00")) {
		t.Fatalf("debits = %s, want -30.00", debits)
	}

	count, err := store.CountTransactions(ctx, w.ID)
	if err != nil {
		t.Fatalf("CountTransactions: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}

func TestMemoryStoreTransactionsBetween(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	w := seedWallet(t, store, OwnerRef{Type: "user", ID: "1"})

	before := time.Now().UTC().Add(-time.Second)
	if _, err := store.Commit(ctx, creditRequest(w, "10.00")); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	after := time.Now().UTC().Add(time.Second)

	hit, err := store.TransactionsBetween(ctx, w.ID, before, after)
	if err != nil {
		t.Fatalf("TransactionsBetween: %v", err)
	}
	if len(hit) != 1 {
		t.Fatalf("records in range = %d, want 1", len(hit))
	}

	miss, err := store.TransactionsBetween(ctx, w.ID, after, after.Add(time.Hour))
	if err != nil {
		t.Fatalf("TransactionsBetween: %v", err)
	}
	if len(miss) != 0 {
		t.Fatalf("records out of range = %d, want 0", len(miss))
	}
}

func TestMemoryStoreMetadataIsCopied(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	w := seedWallet(t, store, OwnerRef{Type: "user", ID: "1"})

	meta := map[string]string{"source": "api"}
	req := creditRequest(w, "10.00")
	req.Record.Metadata = meta
	tx, err := store.Commit(ctx, req)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	meta["source"] = "mutated"
	if tx.Metadata["source"] != "api" {
		t.Fatalf("stored metadata aliases the caller's map")
	}
}
