package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ardriveapp/turbo-winc-ledger/internal/domain"
	"github.com/ardriveapp/turbo-winc-ledger/internal/money"
	"github.com/ardriveapp/turbo-winc-ledger/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// TopUpHandler answers the checkout-session/payment-intent routes of
// spec §6. Both route shapes bind to the same TopUpService call: the
// payment-gateway contract (internal/gateway.PaymentGateway) exposes a
// single hosted-checkout-session creation method, not a separate
// client-secret/payment-intent API, so "checkout-session" and
// "payment-intent" are two URL spellings of the same operation.
type TopUpHandler struct {
	topUp *service.TopUpService
}

// NewTopUpHandler creates a new TopUpHandler.
func NewTopUpHandler(topUp *service.TopUpService) *TopUpHandler {
	return &TopUpHandler{topUp: topUp}
}

// CreateCheckoutSession answers
// GET /v1/top-up/checkout-session/:address/:currency/:amount and
// GET /v1/top-up/payment-intent/:address/:currency/:amount, returning
// {topUpQuote, paymentSession}.
//
// No fiat-price oracle is wired into this module (spec §1 Non-goal), so
// the winc amount quoted here is the gross minor-unit amount passed
// through 1:1 — real deployments would replace this with a call to the
// oracle before composing the quote.
func (h *TopUpHandler) CreateCheckoutSession(c echo.Context) error {
	address := c.Param("address")
	currency := c.Param("currency")
	amountParam := c.Param("amount")

	amount, err := strconv.ParseInt(amountParam, 10, 64)
	if err != nil || amount <= 0 {
		return NewValidationError(c, "amount must be a positive integer", nil)
	}

	addressType := domain.DestAddressType(c.QueryParam("addressType"))
	if addressType == "" {
		if strings.Contains(address, "@") {
			addressType = domain.DestAddressTypeEmail
		} else {
			return NewValidationError(c, "validation failed", []ValidationError{
				{Field: "addressType", Message: "addressType query parameter is required for a chain address"},
			})
		}
	}

	var giftMessage *string
	if gm := c.QueryParam("giftMessage"); gm != "" {
		giftMessage = &gm
	}

	grossAmount := money.NewFromInt(amount)
	quote, session, err := h.topUp.CreateCheckoutSession(c.Request().Context(), service.CreateTopUpQuoteParams{
		DestAddress:        address,
		DestAddressType:    addressType,
		Currency:           currency,
		GrossPaymentAmount: grossAmount,
		WincAmount:         grossAmount,
		PromoCodes:         c.QueryParams()["promoCode"],
		GiftMessage:        giftMessage,
	})
	if err != nil {
		if httpErr, handled := mapAdjustmentError(c, err); handled {
			return httpErr
		}
		log.Error().Err(err).Str("dest_address", address).Msg("failed to create checkout session")
		return NewInternalError(c, "failed to create checkout session")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"topUpQuote":     quote,
		"paymentSession": session,
	})
}

// mapAdjustmentError is a best-effort translation of adjustmentengine
// promo-code errors to a validation response; callers fall through to a
// generic 500 when handled is false.
func mapAdjustmentError(c echo.Context, err error) (httpErr error, handled bool) {
	switch {
	case errors.Is(err, domain.ErrPromoCodeNotFound):
		return NewValidationError(c, "promo code not found", nil), true
	case errors.Is(err, domain.ErrPromoCodeExpired):
		return NewValidationError(c, "promo code expired", nil), true
	case errors.Is(err, domain.ErrPromoCodeExceedsMaxUses):
		return NewValidationError(c, "promo code exceeds max uses", nil), true
	case errors.Is(err, domain.ErrUserIneligibleForPromoCode):
		return NewValidationError(c, "user ineligible for promo code", nil), true
	default:
		return nil, false
	}
}
