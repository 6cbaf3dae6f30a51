package wallet

import "errors"

var (
	// ErrInvalidAmount rejects non-positive or non-finite amounts before
	// any store interaction.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientBalance occurs when a debit or transfer-out would push
	// the balance below the configured minimum.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrBalanceLimitExceeded occurs when a credit or transfer-in would push
	// the balance above the configured maximum.
	ErrBalanceLimitExceeded = errors.New("balance limit exceeded")

	// ErrConcurrencyConflict indicates an optimistic update lost the race
	// after the bounded retries were exhausted.
	ErrConcurrencyConflict = errors.New("concurrent wallet modification")

	// ErrOwnerNotFound indicates the owner reference could not be resolved.
	ErrOwnerNotFound = errors.New("owner not found")

	// ErrWalletNotFound indicates no wallet exists for the given reference.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrCurrencyMismatch indicates an operation spanning wallets of
	// different currencies; balances are never converted.
	ErrCurrencyMismatch = errors.New("wallet currency mismatch")
)

// IsBusinessRuleError reports whether err is a rejected business rule, as
// opposed to a store or concurrency failure. Business rule failures are
// never retried.
func IsBusinessRuleError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrBalanceLimitExceeded) ||
		errors.Is(err, ErrCurrencyMismatch)
}

// IsNotFound reports whether err indicates a missing owner or wallet.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOwnerNotFound) || errors.Is(err, ErrWalletNotFound)
}
