package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/adichannnnnhere64/brtcle-wallet/internal/wallet"
)

// RegisterWalletRoutes wires the wallet ledger endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Get("/wallets/:ownerType/:ownerId", h.Exists)
	r.Get("/wallets/:ownerType/:ownerId/balance", h.Balance)
	r.Get("/wallets/:ownerType/:ownerId/transactions", h.Transactions)
	r.Get("/wallets/:ownerType/:ownerId/summary", h.Summary)
	r.Post("/wallets/:ownerType/:ownerId/credit", h.Credit)
	r.Post("/wallets/:ownerType/:ownerId/debit", h.Debit)
	r.Post("/transfers", h.Transfer)
}
