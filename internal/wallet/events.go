package wallet

import (
	"context"
	"log/slog"
)

// Observer receives wallet events after a successful commit. Hooks are
// best-effort: they run synchronously but panics are recovered and logged,
// and can never roll back the ledger mutation that triggered them.
type Observer interface {
	WalletCredited(ctx context.Context, w Wallet, tx Transaction)
	WalletDebited(ctx context.Context, w Wallet, tx Transaction)
}

func (s *Service) notifyCredited(ctx context.Context, w Wallet, tx Transaction) {
	for _, obs := range s.observers {
		s.safeNotify(w, tx, func() { obs.WalletCredited(ctx, w, tx) })
	}
}

func (s *Service) notifyDebited(ctx context.Context, w Wallet, tx Transaction) {
	for _, obs := range s.observers {
		s.safeNotify(w, tx, func() { obs.WalletDebited(ctx, w, tx) })
	}
}

func (s *Service) safeNotify(w Wallet, tx Transaction, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("wallet observer panicked",
				slog.String("wallet_id", w.ID),
				slog.Int64("transaction_id", tx.ID),
				slog.Any("panic", r))
		}
	}()
	fn()
}
