package handler

import (
	"net/http"

	"github.com/ardriveapp/turbo-winc-ledger/internal/domain"
	"github.com/ardriveapp/turbo-winc-ledger/internal/money"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// BypassedReceiptHandler answers the admin-only bypassed-payment-receipt
// route (SPEC_FULL.md §3/§6): an authenticated operator crediting a user
// (or issuing a gift) without a backing payment-gateway transaction, for
// manual goodwill credits and off-platform payments.
type BypassedReceiptHandler struct {
	ledger domain.Ledger
}

// NewBypassedReceiptHandler creates a new BypassedReceiptHandler.
func NewBypassedReceiptHandler(ledger domain.Ledger) *BypassedReceiptHandler {
	return &BypassedReceiptHandler{ledger: ledger}
}

// CreateBypassedReceiptRequest is the request body for one bypassed
// receipt item.
type CreateBypassedReceiptRequest struct {
	ReceiptID       string `json:"receiptId"`
	DestAddress     string `json:"destAddress"`
	DestAddressType string `json:"destAddressType"`
	PaymentAmount   string `json:"paymentAmount"`
	Currency        string `json:"currency"`
	WincAmount      string `json:"wincAmount"`
	GiftMessage     *string `json:"giftMessage,omitempty"`
}

// CreateBypassedReceipts mints a batch of bypassed payment receipts.
func (h *BypassedReceiptHandler) CreateBypassedReceipts(c echo.Context) error {
	var req []CreateBypassedReceiptRequest
	if err := c.Bind(&req); err != nil || len(req) == 0 {
		return NewValidationError(c, "request body must be a non-empty array", nil)
	}

	batch := make([]domain.BypassedPaymentReceiptItem, 0, len(req))
	for i, item := range req {
		paymentAmount, err := money.NewFromString(item.PaymentAmount)
		if err != nil {
			return NewValidationError(c, "invalid paymentAmount", []ValidationError{{Field: "paymentAmount", Message: err.Error()}})
		}
		wincAmount, err := money.NewFromString(item.WincAmount)
		if err != nil {
			return NewValidationError(c, "invalid wincAmount", []ValidationError{{Field: "wincAmount", Message: err.Error()}})
		}
		if item.ReceiptID == "" || item.DestAddress == "" {
			return NewValidationError(c, "receiptId and destAddress are required", []ValidationError{
				{Field: "receiptId", Message: "required"},
			})
		}
		_ = i
		batch = append(batch, domain.BypassedPaymentReceiptItem{
			ReceiptID:       item.ReceiptID,
			DestAddress:     item.DestAddress,
			DestAddressType: domain.DestAddressType(item.DestAddressType),
			PaymentAmount:   paymentAmount,
			Currency:        item.Currency,
			WincAmount:      wincAmount,
			Provider:        domain.ProviderStripe,
			GiftMessage:     item.GiftMessage,
		})
	}

	if err := h.ledger.CreateBypassedPaymentReceipts(c.Request().Context(), batch); err != nil {
		log.Error().Err(err).Int("count", len(batch)).Msg("failed to create bypassed payment receipts")
		return NewInternalError(c, "failed to create bypassed payment receipts")
	}

	return c.JSON(http.StatusCreated, map[string]int{"created": len(batch)})
}
