package wallet

import (
	"fmt"
	"time"

	"github.com/adichannnnnhere64/brtcle-wallet/internal/money"
)

// OwnerRef identifies the external entity a wallet belongs to as a
// (type, id) pair. Each owner ref holds at most one wallet.
type OwnerRef struct {
	Type string
	ID   string
}

func (o OwnerRef) String() string {
	return o.Type + ":" + o.ID
}

// Wallet is the balance-holding account bound to exactly one owner.
// The balance is mutated only through Service commits; Version increases
// by one on every committed mutation and guards conditional updates.
type Wallet struct {
	ID        string
	Owner     OwnerRef
	Currency  string
	Balance   money.Amount
	Version   uint64
	CreatedAt time.Time
}

// Kind classifies a transaction. The engine itself produces the first four;
// refund and commission exist for callers appending domain-specific records.
type Kind string

const (
	KindCredit      Kind = "credit"
	KindDebit       Kind = "debit"
	KindTransferOut Kind = "transfer_out"
	KindTransferIn  Kind = "transfer_in"
	KindRefund      Kind = "refund"
	KindCommission  Kind = "commission"
)

// Transaction is an immutable, signed record of a single balance change.
// Credits and transfer-ins carry positive amounts, debits and transfer-outs
// negative ones. BalanceAfter snapshots the wallet balance immediately after
// the change, so for consecutive records of one wallet
// BalanceAfter(n) = BalanceAfter(n-1) + Amount(n).
type Transaction struct {
	ID           int64
	WalletID     string
	Kind         Kind
	Amount       money.Amount
	BalanceAfter money.Amount
	Description  string
	Metadata     map[string]string
	CreatedAt    time.Time
}

// IsCredit reports whether the record increases the balance.
func (t Transaction) IsCredit() bool {
	return t.Kind == KindCredit || t.Kind == KindTransferIn
}

// IsDebit reports whether the record decreases the balance.
func (t Transaction) IsDebit() bool {
	return t.Kind == KindDebit || t.Kind == KindTransferOut
}

// FormattedAmount renders the signed amount with the wallet currency,
// e.g. "+100.50 USD".
func (t Transaction) FormattedAmount(precision int32, currency string) string {
	return t.Amount.Format(precision, currency)
}

// Summary is the derived per-wallet aggregate view. NetFlow always equals
// TotalCredits - TotalDebits, which for wallets starting at zero equals
// Balance.
type Summary struct {
	Balance           money.Amount
	Currency          string
	TotalTransactions int64
	TotalCredits      money.Amount
	TotalDebits       money.Amount
	NetFlow           money.Amount
}

// Settings is the immutable engine configuration. It is threaded in at
// construction so independent engines (and tests) can run with different
// currencies, precisions and bounds concurrently.
type Settings struct {
	Currency       string
	Precision      int32
	MinimumBalance money.Amount
	MaximumBalance money.Amount
	Rounding       money.RoundingMode

	// CommitRetries bounds automatic retries after a lost optimistic
	// update before ErrConcurrencyConflict is surfaced.
	CommitRetries int
}

// DefaultSettings mirrors the defaults of the recognized configuration
// options: USD, two decimal places, balances in [0, 9999999.99].
func DefaultSettings() Settings {
	return Settings{
		Currency:       "USD",
		Precision:      2,
		MinimumBalance: money.Zero(),
		MaximumBalance: money.MustParse("9999999.99"),
		Rounding:       money.RoundHalfUp,
		CommitRetries:  3,
	}
}

// Validate rejects settings that cannot express a usable wallet.
func (s Settings) Validate() error {
	if s.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	if s.Precision < 0 {
		return fmt.Errorf("precision must be non-negative")
	}
	if s.MaximumBalance.LessThan(s.MinimumBalance) {
		return fmt.Errorf("maximum balance %s below minimum %s", s.MaximumBalance, s.MinimumBalance)
	}
	if s.CommitRetries < 0 {
		return fmt.Errorf("commit retries must be non-negative")
	}
	return nil
}
