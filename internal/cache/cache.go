package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adichannnnnhere64/brtcle-wallet/internal/money"
)

const defaultPrefix = "wallet_"

// Balances is a Redis-backed read-through cache of wallet balances keyed by
// owner reference. It is strictly best-effort: every failure degrades to a
// store read and is logged, never surfaced to the ledger engine.
type Balances struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// NewBalances builds the cache. An empty prefix falls back to "wallet_".
func NewBalances(client *redis.Client, ttl time.Duration, prefix string, logger *slog.Logger) *Balances {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Balances{client: client, ttl: ttl, prefix: prefix, logger: logger}
}

// GetBalance returns the cached balance and whether it was present.
func (b *Balances) GetBalance(ctx context.Context, ownerRef string) (money.Amount, bool) {
	val, err := b.client.Get(ctx, b.prefix+ownerRef).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			b.logger.Warn("balance cache read failed", "owner", ownerRef, "error", err)
		}
		return money.Amount{}, false
	}
	amount, err := money.Parse(val)
	if err != nil {
		b.logger.Warn("balance cache held unparsable value", "owner", ownerRef, "value", val)
		return money.Amount{}, false
	}
	return amount, true
}

// SetBalance stores the balance for the configured TTL.
func (b *Balances) SetBalance(ctx context.Context, ownerRef string, balance money.Amount) {
	if err := b.client.Set(ctx, b.prefix+ownerRef, balance.String(), b.ttl).Err(); err != nil {
		b.logger.Warn("balance cache write failed", "owner", ownerRef, "error", err)
	}
}

// Forget drops the cached balance.
func (b *Balances) Forget(ctx context.Context, ownerRef string) {
	if err := b.client.Del(ctx, b.prefix+ownerRef).Err(); err != nil {
		b.logger.Warn("balance cache invalidation failed", "owner", ownerRef, "error", err)
	}
}
