package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adichannnnnhere64/brtcle-wallet/internal/money"
)

const defaultHistoryLimit = 10

// BalanceCache is an opaque read-through cache the engine may consult for
// balance reads, keyed by owner reference. Implementations are best-effort;
// they log their own failures and never surface them into ledger outcomes.
type BalanceCache interface {
	GetBalance(ctx context.Context, ownerRef string) (money.Amount, bool)
	SetBalance(ctx context.Context, ownerRef string, balance money.Amount)
	Forget(ctx context.Context, ownerRef string)
}

// Deps aggregates what a Service needs. Store and Settings are required;
// Cache, Owners and Observers are optional collaborators.
type Deps struct {
	Store     Store
	Settings  Settings
	Logger    *slog.Logger
	Cache     BalanceCache
	Owners    *OwnerRegistry
	Observers []Observer
}

// Service is the balance mutation engine. Every mutating operation holds the
// wallet's lock for the whole read-compute-commit sequence, commits balance
// and record as one atomic store call, and retries a bounded number of times
// when the store reports a lost optimistic update.
type Service struct {
	store     Store
	settings  Settings
	locks     *lockTable
	cache     BalanceCache
	owners    *OwnerRegistry
	observers []Observer
	logger    *slog.Logger
}

// NewService builds the engine, validating its settings.
func NewService(d Deps) (*Service, error) {
	if d.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if err := d.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("wallet settings: %w", err)
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     d.Store,
		settings:  d.Settings,
		locks:     newLockTable(),
		cache:     d.Cache,
		owners:    d.Owners,
		observers: d.Observers,
		logger:    logger,
	}, nil
}

// Settings returns the immutable engine configuration.
func (s *Service) Settings() Settings { return s.settings }

// Credit adds funds to the owner's wallet and appends the credit record.
// Amounts that round to zero at the configured precision are recorded as
// zero-amount transactions annotated "(rounded to zero)" and leave the
// balance unchanged; they do not fire the credited hook.
func (s *Service) Credit(ctx context.Context, owner OwnerRef, amount money.Amount, description string, metadata map[string]string) (Transaction, error) {
	if !amount.IsPositive() {
		return Transaction{}, fmt.Errorf("%w: credit of %s", ErrInvalidAmount, amount)
	}

	w, tx, err := s.mutate(ctx, owner, func(w Wallet) (CommitRequest, error) {
		rounded := amount.Round(s.settings.Precision, s.settings.Rounding)
		if rounded.IsZero() {
			return s.zeroRecord(w, KindCredit, description, metadata), nil
		}
		newBalance := w.Balance.Add(rounded).Round(s.settings.Precision, s.settings.Rounding)
		if newBalance.GreaterThan(s.settings.MaximumBalance) {
			return CommitRequest{}, fmt.Errorf("%w: %s + %s exceeds %s",
				ErrBalanceLimitExceeded, w.Balance, rounded, s.settings.MaximumBalance)
		}
		return CommitRequest{
			WalletID:        w.ID,
			NewBalance:      newBalance,
			ExpectedVersion: w.Version,
			Record: TransactionRecord{
				Kind:         KindCredit,
				Amount:       rounded,
				BalanceAfter: newBalance,
				Description:  description,
				Metadata:     metadata,
			},
		}, nil
	})
	if err != nil {
		return Transaction{}, err
	}

	if !tx.Amount.IsZero() {
		s.notifyCredited(ctx, w, tx)
	}
	return tx, nil
}

// Debit removes funds from the owner's wallet and appends the debit record
// with a negative amount. Debits that would push the balance below the
// configured minimum are rejected with ErrInsufficientBalance before any
// state changes. Zero-rounded debits follow the credit rule: a zero-amount
// record is appended for the audit trail.
func (s *Service) Debit(ctx context.Context, owner OwnerRef, amount money.Amount, description string, metadata map[string]string) (Transaction, error) {
	if !amount.IsPositive() {
		return Transaction{}, fmt.Errorf("%w: debit of %s", ErrInvalidAmount, amount)
	}

	w, tx, err := s.mutate(ctx, owner, func(w Wallet) (CommitRequest, error) {
		rounded := amount.Round(s.settings.Precision, s.settings.Rounding)
		if rounded.IsZero() {
			return s.zeroRecord(w, KindDebit, description, metadata), nil
		}
		projected := w.Balance.Sub(rounded).Round(s.settings.Precision, s.settings.Rounding)
		if projected.LessThan(s.settings.MinimumBalance) {
			return CommitRequest{}, fmt.Errorf("%w: %s - %s breaches minimum %s",
				ErrInsufficientBalance, w.Balance, rounded, s.settings.MinimumBalance)
		}
		return CommitRequest{
			WalletID:        w.ID,
			NewBalance:      projected,
			ExpectedVersion: w.Version,
			Record: TransactionRecord{
				Kind:         KindDebit,
				Amount:       rounded.Neg(),
				BalanceAfter: projected,
				Description:  description,
				Metadata:     metadata,
			},
		}, nil
	})
	if err != nil {
		return Transaction{}, err
	}

	if !tx.Amount.IsZero() {
		s.notifyDebited(ctx, w, tx)
	}
	return tx, nil
}

// TransferResult reports both committed legs of a transfer.
type TransferResult struct {
	OutTransaction Transaction
	InTransaction  Transaction
	SourceBalance  money.Amount
	DestBalance    money.Amount
}

// Transfer atomically debits the source owner's wallet and credits the
// destination owner's wallet: either both legs commit or neither does.
// Both wallet locks are taken in ascending wallet-id order, so opposing
// concurrent transfers between the same pair cannot deadlock.
func (s *Service) Transfer(ctx context.Context, from, to OwnerRef, amount money.Amount, description string, metadata map[string]string) (TransferResult, error) {
	if !amount.IsPositive() {
		return TransferResult{}, fmt.Errorf("%w: transfer of %s", ErrInvalidAmount, amount)
	}
	if from == to {
		return TransferResult{}, fmt.Errorf("%w: transfer to the same wallet", ErrInvalidAmount)
	}
	if err := s.owners.Resolve(ctx, from); err != nil {
		return TransferResult{}, err
	}
	if err := s.owners.Resolve(ctx, to); err != nil {
		return TransferResult{}, err
	}

	source, err := s.store.FindOrCreateWallet(ctx, from, s.settings.Currency)
	if err != nil {
		return TransferResult{}, fmt.Errorf("find source wallet: %w", err)
	}
	dest, err := s.store.FindOrCreateWallet(ctx, to, s.settings.Currency)
	if err != nil {
		return TransferResult{}, fmt.Errorf("find destination wallet: %w", err)
	}
	if source.Currency != dest.Currency {
		return TransferResult{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, source.Currency, dest.Currency)
	}

	rounded := amount.Round(s.settings.Precision, s.settings.Rounding)
	if rounded.IsZero() {
		return TransferResult{}, fmt.Errorf("%w: transfer rounds to zero at precision %d",
			ErrInvalidAmount, s.settings.Precision)
	}

	res, err := s.transferLocked(ctx, from, to, source.ID, dest.ID, rounded, description, metadata)
	if err != nil {
		return TransferResult{}, err
	}

	source.Balance = res.SourceBalance
	dest.Balance = res.DestBalance
	s.notifyDebited(ctx, source, res.OutTransaction)
	s.notifyCredited(ctx, dest, res.InTransaction)
	return res, nil
}

func (s *Service) transferLocked(ctx context.Context, from, to OwnerRef, sourceID, destID string, rounded money.Amount, description string, metadata map[string]string) (TransferResult, error) {
	unlock := s.locks.lockPair(sourceID, destID)
	defer unlock()

	var lastErr error
	for attempt := 0; attempt <= s.settings.CommitRetries; attempt++ {
		source, err := s.store.FindWallet(ctx, from)
		if err != nil {
			return TransferResult{}, fmt.Errorf("reload source wallet: %w", err)
		}
		dest, err := s.store.FindWallet(ctx, to)
		if err != nil {
			return TransferResult{}, fmt.Errorf("reload destination wallet: %w", err)
		}

		projectedOut := source.Balance.Sub(rounded).Round(s.settings.Precision, s.settings.Rounding)
		if projectedOut.LessThan(s.settings.MinimumBalance) {
			return TransferResult{}, fmt.Errorf("%w: %s - %s breaches minimum %s",
				ErrInsufficientBalance, source.Balance, rounded, s.settings.MinimumBalance)
		}
		projectedIn := dest.Balance.Add(rounded).Round(s.settings.Precision, s.settings.Rounding)
		if projectedIn.GreaterThan(s.settings.MaximumBalance) {
			return TransferResult{}, fmt.Errorf("%w: %s + %s exceeds %s",
				ErrBalanceLimitExceeded, dest.Balance, rounded, s.settings.MaximumBalance)
		}

		out := CommitRequest{
			WalletID:        source.ID,
			NewBalance:      projectedOut,
			ExpectedVersion: source.Version,
			Record: TransactionRecord{
				Kind:         KindTransferOut,
				Amount:       rounded.Neg(),
				BalanceAfter: projectedOut,
				Description:  annotate(description, "transfer to "+to.String()),
				Metadata:     metadata,
			},
		}
		in := CommitRequest{
			WalletID:        dest.ID,
			NewBalance:      projectedIn,
			ExpectedVersion: dest.Version,
			Record: TransactionRecord{
				Kind:         KindTransferIn,
				Amount:       rounded,
				BalanceAfter: projectedIn,
				Description:  annotate(description, "transfer from "+from.String()),
				Metadata:     metadata,
			},
		}

		outTx, inTx, err := s.store.CommitTransfer(ctx, out, in)
		if err == nil {
			// Refresh the cache before the pair lock is released so
			// cached balances always land in commit order.
			if s.cache != nil {
				s.cache.SetBalance(ctx, from.String(), projectedOut)
				s.cache.SetBalance(ctx, to.String(), projectedIn)
			}
			return TransferResult{
				OutTransaction: outTx,
				InTransaction:  inTx,
				SourceBalance:  projectedOut,
				DestBalance:    projectedIn,
			}, nil
		}
		if !errors.Is(err, ErrConcurrencyConflict) {
			return TransferResult{}, fmt.Errorf("commit transfer: %w", err)
		}
		lastErr = err
	}
	return TransferResult{}, fmt.Errorf("%w: transfer retries exhausted: %v", ErrConcurrencyConflict, lastErr)
}

// Balance returns the owner's current balance, creating the wallet on first
// access. The cache, when present, is consulted before the store.
func (s *Service) Balance(ctx context.Context, owner OwnerRef) (money.Amount, error) {
	if err := s.owners.Resolve(ctx, owner); err != nil {
		return money.Amount{}, err
	}
	if s.cache != nil {
		if balance, ok := s.cache.GetBalance(ctx, owner.String()); ok {
			return balance, nil
		}
	}
	w, err := s.store.FindOrCreateWallet(ctx, owner, s.settings.Currency)
	if err != nil {
		return money.Amount{}, fmt.Errorf("find wallet: %w", err)
	}
	if s.cache != nil {
		s.cache.SetBalance(ctx, owner.String(), w.Balance)
	}
	return w.Balance, nil
}

// Exists reports whether a wallet has already been created for the owner.
// Unlike Balance it never creates one.
func (s *Service) Exists(ctx context.Context, owner OwnerRef) (bool, error) {
	_, err := s.store.FindWallet(ctx, owner)
	if errors.Is(err, ErrWalletNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Transactions returns the owner's history, newest first. A non-positive
// limit falls back to the default page size.
func (s *Service) Transactions(ctx context.Context, owner OwnerRef, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	w, err := s.lookup(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.store.Transactions(ctx, w.ID, limit, offset)
}

// TransactionsBetween returns records created in the inclusive [from, to]
// range, newest first.
func (s *Service) TransactionsBetween(ctx context.Context, owner OwnerRef, from, to time.Time) ([]Transaction, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range: %s before %s", to, from)
	}
	w, err := s.lookup(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.store.TransactionsBetween(ctx, w.ID, from, to)
}

// TotalCredits sums all credit and transfer-in amounts.
func (s *Service) TotalCredits(ctx context.Context, owner OwnerRef) (money.Amount, error) {
	w, err := s.lookup(ctx, owner)
	if err != nil {
		return money.Amount{}, err
	}
	return s.store.SumByKinds(ctx, w.ID, KindCredit, KindTransferIn)
}

// TotalDebits sums all debit and transfer-out amounts, reported positive.
func (s *Service) TotalDebits(ctx context.Context, owner OwnerRef) (money.Amount, error) {
	w, err := s.lookup(ctx, owner)
	if err != nil {
		return money.Amount{}, err
	}
	sum, err := s.store.SumByKinds(ctx, w.ID, KindDebit, KindTransferOut)
	if err != nil {
		return money.Amount{}, err
	}
	return sum.Abs(), nil
}

// Summary aggregates the derived wallet view from the transaction log. It
// holds the wallet lock across its reads so a concurrent mutation cannot
// tear the snapshot: net flow always matches the reported balance.
func (s *Service) Summary(ctx context.Context, owner OwnerRef) (Summary, error) {
	w, err := s.lookup(ctx, owner)
	if err != nil {
		return Summary{}, err
	}

	unlock := s.locks.lock(w.ID)
	defer unlock()

	// Re-read under the lock; the lookup above raced with mutations.
	w, err = s.store.FindWallet(ctx, owner)
	if err != nil {
		return Summary{}, fmt.Errorf("reload wallet: %w", err)
	}
	count, err := s.store.CountTransactions(ctx, w.ID)
	if err != nil {
		return Summary{}, err
	}
	credits, err := s.store.SumByKinds(ctx, w.ID, KindCredit, KindTransferIn)
	if err != nil {
		return Summary{}, err
	}
	debits, err := s.store.SumByKinds(ctx, w.ID, KindDebit, KindTransferOut)
	if err != nil {
		return Summary{}, err
	}
	debits = debits.Abs()

	return Summary{
		Balance:           w.Balance,
		Currency:          w.Currency,
		TotalTransactions: count,
		TotalCredits:      credits,
		TotalDebits:       debits,
		NetFlow:           credits.Sub(debits),
	}, nil
}

// mutate runs the read-compute-commit sequence for a single wallet under its
// lock, retrying on optimistic conflicts. The returned wallet carries the
// committed balance.
func (s *Service) mutate(ctx context.Context, owner OwnerRef, compute func(Wallet) (CommitRequest, error)) (Wallet, Transaction, error) {
	if err := s.owners.Resolve(ctx, owner); err != nil {
		return Wallet{}, Transaction{}, err
	}

	w, err := s.store.FindOrCreateWallet(ctx, owner, s.settings.Currency)
	if err != nil {
		return Wallet{}, Transaction{}, fmt.Errorf("find wallet: %w", err)
	}

	return s.commitLocked(ctx, owner, w.ID, compute)
}

// commitLocked writes the committed balance through to the cache before the
// wallet lock is released, so cached balances always land in commit order.
func (s *Service) commitLocked(ctx context.Context, owner OwnerRef, walletID string, compute func(Wallet) (CommitRequest, error)) (Wallet, Transaction, error) {
	unlock := s.locks.lock(walletID)
	defer unlock()

	var lastErr error
	for attempt := 0; attempt <= s.settings.CommitRetries; attempt++ {
		w, err := s.store.FindWallet(ctx, owner)
		if err != nil {
			return Wallet{}, Transaction{}, fmt.Errorf("reload wallet: %w", err)
		}

		req, err := compute(w)
		if err != nil {
			return Wallet{}, Transaction{}, err
		}

		tx, err := s.store.Commit(ctx, req)
		if err == nil {
			w.Balance = req.NewBalance
			w.Version = req.ExpectedVersion + 1
			if s.cache != nil {
				s.cache.SetBalance(ctx, owner.String(), w.Balance)
			}
			return w, tx, nil
		}
		if !errors.Is(err, ErrConcurrencyConflict) {
			return Wallet{}, Transaction{}, fmt.Errorf("commit: %w", err)
		}
		lastErr = err
	}
	return Wallet{}, Transaction{}, fmt.Errorf("%w: retries exhausted: %v", ErrConcurrencyConflict, lastErr)
}

// lookup resolves the owner and find-or-creates the wallet for read paths.
// Wallets come into existence on first access, reads included.
func (s *Service) lookup(ctx context.Context, owner OwnerRef) (Wallet, error) {
	if err := s.owners.Resolve(ctx, owner); err != nil {
		return Wallet{}, err
	}
	w, err := s.store.FindOrCreateWallet(ctx, owner, s.settings.Currency)
	if err != nil {
		return Wallet{}, fmt.Errorf("find wallet: %w", err)
	}
	return w, nil
}

// zeroRecord builds the commit for an amount that rounded away entirely:
// balance and version semantics are those of a normal commit, the record
// just documents that precision loss rejected the movement.
func (s *Service) zeroRecord(w Wallet, kind Kind, description string, metadata map[string]string) CommitRequest {
	return CommitRequest{
		WalletID:        w.ID,
		NewBalance:      w.Balance,
		ExpectedVersion: w.Version,
		Record: TransactionRecord{
			Kind:         kind,
			Amount:       money.Zero(),
			BalanceAfter: w.Balance,
			Description:  annotate(description, "rounded to zero"),
			Metadata:     metadata,
		},
	}
}

func annotate(description, note string) string {
	if description == "" {
		return "(" + note + ")"
	}
	return description + " (" + note + ")"
}
