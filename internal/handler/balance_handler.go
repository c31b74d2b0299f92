package handler

import (
	"errors"
	"net/http"

	"github.com/ardriveapp/turbo-winc-ledger/internal/domain"
	"github.com/ardriveapp/turbo-winc-ledger/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// BalanceHandler answers GET /v1/balance (spec §6): a wallet-signature
// authenticated request returning the caller's winc balance.
type BalanceHandler struct {
	ledger domain.Ledger
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(ledger domain.Ledger) *BalanceHandler {
	return &BalanceHandler{ledger: ledger}
}

// GetBalance returns the authenticated wallet's winc balance, 404 if the
// address has never been credited.
func (h *BalanceHandler) GetBalance(c echo.Context) error {
	address := middleware.GetWalletAddress(c)
	if address == "" {
		return NewUnauthorizedError(c, "wallet signature required")
	}

	balance, err := h.ledger.GetBalance(c.Request().Context(), address)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFoundWarning) {
			return NewNotFoundError(c, "user not found")
		}
		log.Error().Err(err).Str("user_address", address).Msg("failed to load balance")
		return NewInternalError(c, "failed to load balance")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"address":     address,
		"winc_balance": balance.String(),
	})
}
