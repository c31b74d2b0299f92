package domain

import (
	"time"

	"github.com/ardriveapp/turbo-winc-ledger/internal/money"
)

// ChangeReason classifies an AuditLog row. Sign convention (spec §3):
// credits are positive, debits (upload, chargeback) are negative,
// pending gift issuance is zero.
type ChangeReason string

const (
	ChangeReasonUpload                     ChangeReason = "upload"
	ChangeReasonPayment                    ChangeReason = "payment"
	ChangeReasonCryptoPayment              ChangeReason = "crypto_payment"
	ChangeReasonBypassedPayment            ChangeReason = "bypassed_payment"
	ChangeReasonAccountCreation             ChangeReason = "account_creation"
	ChangeReasonBypassedAccountCreation     ChangeReason = "bypassed_account_creation"
	ChangeReasonChargeback                 ChangeReason = "chargeback"
	ChangeReasonRefund                     ChangeReason = "refund"
	ChangeReasonGiftedPayment              ChangeReason = "gifted_payment"
	ChangeReasonBypassedGiftedPayment      ChangeReason = "bypassed_gifted_payment"
	ChangeReasonGiftedPaymentRedemption    ChangeReason = "gifted_payment_redemption"
	ChangeReasonGiftedAccountCreation      ChangeReason = "gifted_account_creation"
)

// AuditLog is an append-only row recording one signed balance change.
// The invariant Σ WincDelta(U) == User.WincBalance(U) holds at every
// commit boundary (spec §3, tested in §8).
type AuditLog struct {
	AuditID      int64
	UserAddress  string
	WincDelta    money.Winc
	ChangeReason ChangeReason
	ChangeID     *string
	AuditDate    time.Time
}
