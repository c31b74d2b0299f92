package handler

import (
	"io"
	"net/http"

	"github.com/ardriveapp/turbo-winc-ledger/internal/gateway"
	"github.com/ardriveapp/turbo-winc-ledger/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// StripeWebhookHandler answers POST /v1/stripe-webhook (spec §6): 200
// on every valid event (including ones the ledger ignores); 400 when the
// body cannot be read or the gateway rejects the event (a failed
// signature check, an undecodable payload, or a dispute whose quote id
// cannot be resolved); 500 when the top-up service fails to apply it.
type StripeWebhookHandler struct {
	topUp   *service.TopUpService
	gateway gateway.PaymentGateway
}

// NewStripeWebhookHandler creates a new StripeWebhookHandler.
func NewStripeWebhookHandler(topUp *service.TopUpService, gw gateway.PaymentGateway) *StripeWebhookHandler {
	return &StripeWebhookHandler{topUp: topUp, gateway: gw}
}

// HandleWebhook verifies the request's Stripe-Signature header and
// dispatches the resulting intent to the top-up service.
func (h *StripeWebhookHandler) HandleWebhook(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return NewValidationError(c, "failed to read request body", nil)
	}

	signature := c.Request().Header.Get("Stripe-Signature")
	intent, err := h.gateway.ParseWebhookEvent(c.Request().Context(), payload, signature)
	if err != nil {
		log.Warn().Err(err).Msg("stripe webhook signature verification failed")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "signature verification failed"})
	}

	if err := h.topUp.HandleWebhookEvent(c.Request().Context(), intent); err != nil {
		log.Error().Err(err).Str("quote_id", intent.TopUpQuoteID).Msg("failed to process webhook event")
		return NewInternalError(c, "failed to process webhook event")
	}

	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}
