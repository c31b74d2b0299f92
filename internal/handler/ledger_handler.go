package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ardriveapp/turbo-winc-ledger/internal/domain"
	"github.com/ardriveapp/turbo-winc-ledger/internal/money"
	"github.com/ardriveapp/turbo-winc-ledger/internal/service/adjustmentengine"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// LedgerHandler answers the bearer-auth reserve-balance and
// refund-balance routes of spec §6. Both call the domain.Ledger
// interface directly; ReserveBalance first prices the upload through
// the adjustment engine.
type LedgerHandler struct {
	ledger domain.Ledger
	engine *adjustmentengine.Engine
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledger domain.Ledger, engine *adjustmentengine.Engine) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, engine: engine}
}

// ReserveBalance answers GET /v1/reserve-balance/:address/:byteCount,
// composing the active upload adjustment catalogs against byteCount's
// network winc cost before reserving the post-adjustment amount.
func (h *LedgerHandler) ReserveBalance(c echo.Context) error {
	address := c.Param("address")
	byteCount, err := strconv.ParseInt(c.Param("byteCount"), 10, 64)
	if err != nil || byteCount < 0 {
		return NewValidationError(c, "byteCount must be a non-negative integer", nil)
	}

	addressType := domain.AddressType(c.QueryParam("addressType"))
	if addressType == "" {
		return NewValidationError(c, "validation failed", []ValidationError{
			{Field: "addressType", Message: "addressType query parameter is required"},
		})
	}

	ctx := c.Request().Context()
	now := time.Now().UTC()

	networkWinc := money.NewFromInt(byteCount)
	catalogs, err := h.engine.ActiveUploadCatalogs(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("failed to list upload adjustment catalogs")
		return NewInternalError(c, "failed to reserve balance")
	}
	reservedWinc, adjustments := h.engine.ComposeUpload(networkWinc, catalogs, address)

	_, err = h.ledger.ReserveBalance(ctx, domain.ReserveBalanceParams{
		UserAddress:     address,
		UserAddressType: addressType,
		NetworkWinc:     networkWinc,
		ReservedWinc:    reservedWinc,
		DataItemID:      uuid.New().String(),
		Adjustments:     adjustments,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientBalance):
			return NewForbiddenError(c, "Insufficient balance")
		case errors.Is(err, domain.ErrUserNotFoundWarning):
			return NewForbiddenError(c, "User not found")
		default:
			log.Error().Err(err).Str("user_address", address).Msg("failed to reserve balance")
			return NewInternalError(c, "failed to reserve balance")
		}
	}

	return c.String(http.StatusOK, "Balance reserved")
}

// RefundBalance answers GET /v1/refund-balance/:address/:winc.
func (h *LedgerHandler) RefundBalance(c echo.Context) error {
	address := c.Param("address")
	wincAmount, err := money.NewFromString(c.Param("winc"))
	if err != nil {
		return NewValidationError(c, "winc must be an integer amount", nil)
	}

	if err := h.ledger.RefundBalance(c.Request().Context(), address, wincAmount, nil); err != nil {
		if errors.Is(err, domain.ErrUserNotFoundWarning) {
			return NewForbiddenError(c, "User not found")
		}
		log.Error().Err(err).Str("user_address", address).Msg("failed to refund balance")
		return NewInternalError(c, "failed to refund balance")
	}

	return c.String(http.StatusOK, "Balance refunded")
}
