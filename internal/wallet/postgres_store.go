package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adichannnnnhere64/brtcle-wallet/internal/money"
)

// PostgresStore persists wallets and their append-only transaction log in
// PostgreSQL. Expected schema:
//
//	CREATE TABLE wallets (
//	    id         UUID PRIMARY KEY,
//	    owner_type TEXT NOT NULL,
//	    owner_id   TEXT NOT NULL,
//	    currency   TEXT NOT NULL,
//	    balance    NUMERIC(20,8) NOT NULL DEFAULT 0,
//	    version    BIGINT NOT NULL DEFAULT 0,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    UNIQUE (owner_type, owner_id)
//	);
//
//	CREATE TABLE wallet_transactions (
//	    id            BIGSERIAL PRIMARY KEY,
//	    wallet_id     UUID NOT NULL REFERENCES wallets (id),
//	    kind          TEXT NOT NULL,
//	    amount        NUMERIC(20,8) NOT NULL,
//	    balance_after NUMERIC(20,8) NOT NULL,
//	    description   TEXT NOT NULL DEFAULT '',
//	    metadata      JSONB,
//	    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE INDEX ON wallet_transactions (wallet_id, id DESC);
//
// Commits run inside a database transaction with a version-guarded UPDATE,
// so the balance update and the record append land together or not at all.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindOrCreateWallet(ctx context.Context, owner OwnerRef, currency string) (Wallet, error) {
	_, err := s.db.Exec(ctx, `INSERT INTO wallets (id, owner_type, owner_id, currency, balance, version, created_at)
        VALUES ($1, $2, $3, $4, 0, 0, $5)
        ON CONFLICT (owner_type, owner_id) DO NOTHING`,
		uuid.New(), owner.Type, owner.ID, currency, time.Now().UTC())
	if err != nil {
		return Wallet{}, fmt.Errorf("create wallet: %w", err)
	}
	return s.FindWallet(ctx, owner)
}

func (s *PostgresStore) FindWallet(ctx context.Context, owner OwnerRef) (Wallet, error) {
	row := s.db.QueryRow(ctx, `SELECT id, owner_type, owner_id, currency, balance::text, version, created_at
        FROM wallets WHERE owner_type = $1 AND owner_id = $2`, owner.Type, owner.ID)
	return scanWallet(row)
}

func (s *PostgresStore) Commit(ctx context.Context, req CommitRequest) (Transaction, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	rec, err := applyCommit(ctx, tx, req)
	if err != nil {
		return Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, err
	}
	return rec, nil
}

func (s *PostgresStore) CommitTransfer(ctx context.Context, out, in CommitRequest) (Transaction, Transaction, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, Transaction{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	// Lock both wallet rows in ascending id order before either leg is
	// applied; opposing transfers then serialize instead of deadlocking.
	first, second := out.WalletID, in.WalletID
	if second < first {
		first, second = second, first
	}
	for _, id := range []string{first, second} {
		if err := lockWalletRow(ctx, tx, id); err != nil {
			return Transaction{}, Transaction{}, err
		}
	}

	outTx, err := applyCommit(ctx, tx, out)
	if err != nil {
		return Transaction{}, Transaction{}, err
	}
	inTx, err := applyCommit(ctx, tx, in)
	if err != nil {
		return Transaction{}, Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, Transaction{}, err
	}
	return outTx, inTx, nil
}

func (s *PostgresStore) Transactions(ctx context.Context, walletID string, limit, offset int) ([]Transaction, error) {
	rows, err := s.db.Query(ctx, `SELECT id, wallet_id, kind, amount::text, balance_after::text, description, metadata, created_at
        FROM wallet_transactions WHERE wallet_id = $1
        ORDER BY id DESC LIMIT $2 OFFSET $3`, walletID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (s *PostgresStore) TransactionsBetween(ctx context.Context, walletID string, from, to time.Time) ([]Transaction, error) {
	rows, err := s.db.Query(ctx, `SELECT id, wallet_id, kind, amount::text, balance_after::text, description, metadata, created_at
        FROM wallet_transactions WHERE wallet_id = $1 AND created_at BETWEEN $2 AND $3
        ORDER BY id DESC`, walletID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (s *PostgresStore) SumByKinds(ctx context.Context, walletID string, kinds ...Kind) (money.Amount, error) {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	var sum string
	err := s.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0)::text
        FROM wallet_transactions WHERE wallet_id = $1 AND kind = ANY($2)`, walletID, names).Scan(&sum)
	if err != nil {
		return money.Amount{}, err
	}
	return money.Parse(sum)
}

func (s *PostgresStore) CountTransactions(ctx context.Context, walletID string) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM wallet_transactions WHERE wallet_id = $1`, walletID).Scan(&count)
	return count, err
}

func lockWalletRow(ctx context.Context, tx pgx.Tx, walletID string) error {
	var id uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM wallets WHERE id = $1 FOR UPDATE`, walletID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrWalletNotFound
		}
		return err
	}
	return nil
}

// applyCommit performs the version-guarded balance update and appends the
// record within the caller's database transaction.
func applyCommit(ctx context.Context, tx pgx.Tx, req CommitRequest) (Transaction, error) {
	tag, err := tx.Exec(ctx, `UPDATE wallets SET balance = $2, version = version + 1
        WHERE id = $1 AND version = $3`,
		req.WalletID, req.NewBalance.String(), req.ExpectedVersion)
	if err != nil {
		return Transaction{}, err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM wallets WHERE id = $1)`, req.WalletID).Scan(&exists); err != nil {
			return Transaction{}, err
		}
		if !exists {
			return Transaction{}, ErrWalletNotFound
		}
		return Transaction{}, ErrConcurrencyConflict
	}

	rec := Transaction{
		WalletID:     req.WalletID,
		Kind:         req.Record.Kind,
		Amount:       req.Record.Amount,
		BalanceAfter: req.Record.BalanceAfter,
		Description:  req.Record.Description,
		Metadata:     req.Record.Metadata,
	}
	err = tx.QueryRow(ctx, `INSERT INTO wallet_transactions (wallet_id, kind, amount, balance_after, description, metadata, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at`,
		req.WalletID, string(req.Record.Kind), req.Record.Amount.String(),
		req.Record.BalanceAfter.String(), req.Record.Description, req.Record.Metadata,
		time.Now().UTC()).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return Transaction{}, err
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWallet(row rowScanner) (Wallet, error) {
	var (
		w       Wallet
		id      uuid.UUID
		balance string
	)
	err := row.Scan(&id, &w.Owner.Type, &w.Owner.ID, &w.Currency, &balance, &w.Version, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, err
	}
	w.ID = id.String()
	w.Balance, err = money.Parse(balance)
	if err != nil {
		return Wallet{}, fmt.Errorf("decode balance: %w", err)
	}
	w.CreatedAt = w.CreatedAt.UTC()
	return w, nil
}

func scanTransactions(rows pgx.Rows) ([]Transaction, error) {
	var out []Transaction
	for rows.Next() {
		var (
			t            Transaction
			walletID     uuid.UUID
			kind         string
			amount       string
			balanceAfter string
		)
		if err := rows.Scan(&t.ID, &walletID, &kind, &amount, &balanceAfter, &t.Description, &t.Metadata, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.WalletID = walletID.String()
		t.Kind = Kind(kind)
		var err error
		if t.Amount, err = money.Parse(amount); err != nil {
			return nil, fmt.Errorf("decode amount: %w", err)
		}
		if t.BalanceAfter, err = money.Parse(balanceAfter); err != nil {
			return nil, fmt.Errorf("decode balance_after: %w", err)
		}
		t.CreatedAt = t.CreatedAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}
