package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/adichannnnnhere64/brtcle-wallet/internal/money"
)

// Handler exposes the wallet engine over HTTP.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type mutateRequest struct {
	Amount      money.Amount      `json:"amount"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
}

type transferRequest struct {
	FromType    string            `json:"from_type"`
	FromID      string            `json:"from_id"`
	ToType      string            `json:"to_type"`
	ToID        string            `json:"to_id"`
	Amount      money.Amount      `json:"amount"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
}

type transactionResponse struct {
	ID           int64             `json:"id"`
	WalletID     string            `json:"wallet_id"`
	Kind         string            `json:"kind"`
	Amount       money.Amount      `json:"amount"`
	BalanceAfter money.Amount      `json:"balance_after"`
	Description  string            `json:"description"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Formatted    string            `json:"formatted_amount"`
	CreatedAt    time.Time         `json:"created_at"`
}

func (h *Handler) transactionDTO(tx Transaction) transactionResponse {
	s := h.service.Settings()
	return transactionResponse{
		ID:           tx.ID,
		WalletID:     tx.WalletID,
		Kind:         string(tx.Kind),
		Amount:       tx.Amount,
		BalanceAfter: tx.BalanceAfter,
		Description:  tx.Description,
		Metadata:     tx.Metadata,
		Formatted:    tx.FormattedAmount(s.Precision, s.Currency),
		CreatedAt:    tx.CreatedAt,
	}
}

func ownerFromParams(c *fiber.Ctx) OwnerRef {
	return OwnerRef{Type: c.Params("ownerType"), ID: c.Params("ownerId")}
}

// Balance returns the owner's current balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	owner := ownerFromParams(c)
	balance, err := h.service.Balance(c.UserContext(), owner)
	if err != nil {
		return asHTTPError(err)
	}
	s := h.service.Settings()
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"owner":     owner.String(),
		"balance":   balance,
		"currency":  s.Currency,
		"formatted": balance.Format(s.Precision, s.Currency),
	})
}

// Exists reports whether a wallet has been created for the owner.
func (h *Handler) Exists(c *fiber.Ctx) error {
	owner := ownerFromParams(c)
	exists, err := h.service.Exists(c.UserContext(), owner)
	if err != nil {
		return asHTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"owner": owner.String(), "exists": exists})
}

// Transactions returns paginated history, newest first. When from/to query
// parameters are present it switches to an inclusive date-range filter.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	owner := ownerFromParams(c)
	ctx := c.UserContext()

	var (
		records []Transaction
		err     error
	)
	if c.Query("from") != "" || c.Query("to") != "" {
		from, to, perr := parseRange(c.Query("from"), c.Query("to"))
		if perr != nil {
			return fiber.NewError(http.StatusBadRequest, perr.Error())
		}
		records, err = h.service.TransactionsBetween(ctx, owner, from, to)
	} else {
		records, err = h.service.Transactions(ctx, owner, c.QueryInt("limit"), c.QueryInt("offset"))
	}
	if err != nil {
		return asHTTPError(err)
	}

	out := make([]transactionResponse, 0, len(records))
	for _, tx := range records {
		out = append(out, h.transactionDTO(tx))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"owner": owner.String(), "transactions": out})
}

// Summary returns the derived aggregate view of the wallet.
func (h *Handler) Summary(c *fiber.Ctx) error {
	owner := ownerFromParams(c)
	summary, err := h.service.Summary(c.UserContext(), owner)
	if err != nil {
		return asHTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"owner":              owner.String(),
		"balance":            summary.Balance,
		"currency":           summary.Currency,
		"total_transactions": summary.TotalTransactions,
		"total_credits":      summary.TotalCredits,
		"total_debits":       summary.TotalDebits,
		"net_flow":           summary.NetFlow,
	})
}

// Credit adds funds to the owner's wallet.
func (h *Handler) Credit(c *fiber.Ctx) error {
	var req mutateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	owner := ownerFromParams(c)
	tx, err := h.service.Credit(c.UserContext(), owner, req.Amount, req.Description, req.Metadata)
	if err != nil {
		return asHTTPError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"message":     "Funds added successfully",
		"new_balance": tx.BalanceAfter,
		"transaction": h.transactionDTO(tx),
	})
}

// Debit removes funds from the owner's wallet.
func (h *Handler) Debit(c *fiber.Ctx) error {
	var req mutateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	owner := ownerFromParams(c)
	tx, err := h.service.Debit(c.UserContext(), owner, req.Amount, req.Description, req.Metadata)
	if err != nil {
		return asHTTPError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"message":     "Funds deducted successfully",
		"new_balance": tx.BalanceAfter,
		"transaction": h.transactionDTO(tx),
	})
}

// Transfer moves funds between two owners' wallets atomically.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	from := OwnerRef{Type: req.FromType, ID: req.FromID}
	to := OwnerRef{Type: req.ToType, ID: req.ToID}
	res, err := h.service.Transfer(c.UserContext(), from, to, req.Amount, req.Description, req.Metadata)
	if err != nil {
		return asHTTPError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success":          true,
		"message":          "Transfer completed successfully",
		"sender_balance":   res.SourceBalance,
		"receiver_balance": res.DestBalance,
		"out_transaction":  h.transactionDTO(res.OutTransaction),
		"in_transaction":   h.transactionDTO(res.InTransaction),
	})
}

func parseRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	from := time.Time{}
	to := time.Now().UTC()
	var err error
	if fromRaw != "" {
		if from, err = time.Parse(time.RFC3339, fromRaw); err != nil {
			return time.Time{}, time.Time{}, errors.New("from must be RFC3339")
		}
	}
	if toRaw != "" {
		if to, err = time.Parse(time.RFC3339, toRaw); err != nil {
			return time.Time{}, time.Time{}, errors.New("to must be RFC3339")
		}
	}
	return from, to, nil
}

// asHTTPError maps the engine error taxonomy onto HTTP statuses.
func asHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInsufficientBalance), errors.Is(err, ErrBalanceLimitExceeded), errors.Is(err, ErrCurrencyMismatch):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrConcurrencyConflict):
		return fiber.NewError(http.StatusConflict, err.Error())
	case IsNotFound(err):
		return fiber.NewError(http.StatusNotFound, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
