package gateway

import (
	"context"

	"github.com/ardriveapp/turbo-winc-ledger/internal/money"
)

// IntentStatus is the outcome a payment gateway reports for an intent
// (spec §6: "opaque intent objects; the ledger only sees topUpQuoteId,
// paymentAmount, currency, and whether success/dispute/cancel").
type IntentStatus string

const (
	IntentStatusSucceeded IntentStatus = "succeeded"
	IntentStatusDisputed  IntentStatus = "disputed"
	IntentStatusCanceled  IntentStatus = "canceled"
)

// Intent is the opaque payment-gateway event the facade hands to the
// ledger; the ledger never inspects gateway-specific fields beyond
// these.
type Intent struct {
	TopUpQuoteID  string
	PaymentAmount money.PaymentAmount
	Currency      string
	Status        IntentStatus
}

// CheckoutSession is returned when the facade asks the gateway to
// start a hosted checkout for a quote.
type CheckoutSession struct {
	SessionID   string
	RedirectURL string
}

// PaymentGateway is the fiat payment-gateway contract of spec §6.
// internal/gateway/stripe is its only concrete implementation.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, quoteID string, amount money.PaymentAmount, currency string) (CheckoutSession, error)
	ParseWebhookEvent(ctx context.Context, payload []byte, signatureHeader string) (Intent, error)
}
