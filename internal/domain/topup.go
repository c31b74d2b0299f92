package domain

import (
	"time"

	"github.com/ardriveapp/turbo-winc-ledger/internal/money"
)

// Provider identifies the payment processor a quote was priced against.
type Provider string

const (
	ProviderStripe Provider = "stripe"
)

// TopUpQuoteSnapshot holds every field of a TopUpQuote. It is embedded
// (rather than inherited from, per spec §9's composition guidance) by
// PaymentReceipt so a receipt carries its originating quote verbatim.
type TopUpQuoteSnapshot struct {
	QuoteID             string
	DestAddress         string
	DestAddressType     DestAddressType
	PaymentAmount       money.PaymentAmount
	QuotedPaymentAmount money.PaymentAmount
	Currency            string
	WincAmount          money.Winc
	Provider            Provider
	ExpiresAt           time.Time
	CreatedAt           time.Time
	GiftMessage         *string
}

// TopUpQuote is an active, expiring offer to buy winc with fiat.
// Invariant: ExpiresAt > CreatedAt.
type TopUpQuote struct {
	TopUpQuoteSnapshot
}

// HasExpired reports whether the quote is no longer redeemable at
// instant now, per spec §4.3: a quote with now() >= expiresAt is
// refused by createPaymentReceipt.
func (q TopUpQuoteSnapshot) HasExpired(now time.Time) bool {
	return !now.Before(q.ExpiresAt)
}

// PaymentReceiptSnapshot holds every field of a PaymentReceipt: the
// originating quote snapshot plus the receipt's own identity.
type PaymentReceiptSnapshot struct {
	TopUpQuoteSnapshot
	ReceiptID   string
	ReceiptDate time.Time
}

// PaymentReceipt is the materialization of a successful top-up,
// created atomically with the consumed quote's deletion.
type PaymentReceipt struct {
	PaymentReceiptSnapshot
}

// ChargebackReceiptSnapshot holds every field of a ChargebackReceipt:
// the originating receipt snapshot plus the chargeback's own identity.
type ChargebackReceiptSnapshot struct {
	PaymentReceiptSnapshot
	ChargebackID   string
	Reason         string
	ChargebackDate time.Time
}

// ChargebackReceipt is the materialization of a provider-disputed
// payment, created atomically with the disputed receipt's deletion.
type ChargebackReceipt struct {
	ChargebackReceiptSnapshot
}

// FailedTopUpQuote records a provider-reported quote failure.
type FailedTopUpQuote struct {
	TopUpQuoteSnapshot
	FailedReason string
	FailedAt     time.Time
}

// CreatePaymentReceiptParams is the input to Ledger.CreatePaymentReceipt.
type CreatePaymentReceiptParams struct {
	TopUpQuoteID  string
	PaymentAmount money.PaymentAmount
	Currency      string
	ReceiptID     string
	ReceiptDate   time.Time
}

// CreateChargebackReceiptParams is the input to
// Ledger.CreateChargebackReceipt.
type CreateChargebackReceiptParams struct {
	TopUpQuoteID string
	Reason       string
	ChargebackID string
}

// BypassedPaymentReceiptItem is one entry of an admin-issued batch of
// receipts created without a backing quote (spec §4.2,
// createBypassedPaymentReceipts).
type BypassedPaymentReceiptItem struct {
	ReceiptID       string
	DestAddress     string
	DestAddressType DestAddressType
	PaymentAmount   money.PaymentAmount
	Currency        string
	WincAmount      money.Winc
	Provider        Provider
	GiftMessage     *string
}
