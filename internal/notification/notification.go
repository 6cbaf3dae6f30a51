package notification

import (
	"context"
	"log/slog"

	"github.com/adichannnnnhere64/brtcle-wallet/internal/wallet"
)

const (
	// KindCredited indicates funds arrived in a wallet.
	KindCredited = "wallet_credited"
	// KindDebited indicates funds left a wallet.
	KindDebited = "wallet_debited"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the
// structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "destination", message.Destination, "body", message.Body)
	return nil
}

// WalletObserver bridges post-commit wallet events to a Notifier. Delivery
// failures are logged and never reach the ledger commit path.
type WalletObserver struct {
	notifier Notifier
	logger   *slog.Logger
	currency string
	places   int32
}

// NewWalletObserver builds an observer that formats amounts with the given
// currency and precision.
func NewWalletObserver(notifier Notifier, logger *slog.Logger, currency string, places int32) *WalletObserver {
	return &WalletObserver{notifier: notifier, logger: logger, currency: currency, places: places}
}

// WalletCredited notifies the wallet owner about incoming funds.
func (o *WalletObserver) WalletCredited(ctx context.Context, w wallet.Wallet, tx wallet.Transaction) {
	o.send(ctx, Message{
		Kind:        KindCredited,
		Destination: w.Owner.String(),
		Body:        "Received " + tx.FormattedAmount(o.places, o.currency),
	})
}

// WalletDebited notifies the wallet owner about outgoing funds.
func (o *WalletObserver) WalletDebited(ctx context.Context, w wallet.Wallet, tx wallet.Transaction) {
	o.send(ctx, Message{
		Kind:        KindDebited,
		Destination: w.Owner.String(),
		Body:        "Sent " + tx.Amount.Abs().Format(o.places, o.currency),
	})
}

func (o *WalletObserver) send(ctx context.Context, msg Message) {
	if err := o.notifier.Send(ctx, msg); err != nil {
		o.logger.Warn("notification delivery failed", "kind", msg.Kind, "destination", msg.Destination, "error", err)
	}
}
