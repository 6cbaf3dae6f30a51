package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/adichannnnnhere64/brtcle-wallet/internal/cache"
	"github.com/adichannnnnhere64/brtcle-wallet/internal/config"
	"github.com/adichannnnnhere64/brtcle-wallet/internal/middleware"
	"github.com/adichannnnnhere64/brtcle-wallet/internal/notification"
	"github.com/adichannnnnhere64/brtcle-wallet/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Owners *wallet.OwnerRegistry
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() && d.DB == nil {
		return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var store wallet.Store
	if d.DB != nil {
		store = wallet.NewPostgresStore(d.DB)
	} else {
		store = wallet.NewMemoryStore()
	}

	var balances wallet.BalanceCache
	if d.Cache != nil && d.Cfg.CacheEnabled {
		balances = cache.NewBalances(d.Cache, d.Cfg.CacheTTL, d.Cfg.CachePrefix, d.Logger)
	}

	notifier := notification.NewLoggerNotifier(d.Logger)
	observer := notification.NewWalletObserver(notifier, d.Logger, d.Cfg.Wallet.Currency, d.Cfg.Wallet.Precision)

	svc, err := wallet.NewService(wallet.Deps{
		Store:     store,
		Settings:  d.Cfg.Wallet,
		Logger:    d.Logger,
		Cache:     balances,
		Owners:    d.Owners,
		Observers: []wallet.Observer{observer},
	})
	if err != nil {
		return err
	}

	handler := wallet.NewHandler(svc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterWalletRoutes(api, handler)

	return nil
}
