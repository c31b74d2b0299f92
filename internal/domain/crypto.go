package domain

import (
	"time"

	"github.com/ardriveapp/turbo-winc-ledger/internal/money"
)

// PaymentTransactionSnapshot is the shared shape of all three crypto
// transaction states; TransactionID is the primary key and lives in
// exactly one of the pending/failed/credited tables at a time.
type PaymentTransactionSnapshot struct {
	TransactionID      string
	TokenType          string
	TransactionQuantity string
	WincAmount         money.Winc
	DestAddress        string
	DestAddressType    AddressType
	CreatedAt          time.Time
}

// PendingPaymentTransaction awaits chain confirmation.
type PendingPaymentTransaction struct {
	PaymentTransactionSnapshot
}

// FailedPaymentTransaction records a pending transaction that was
// never observed on-chain within the poller's grace period, or was
// rejected outright.
type FailedPaymentTransaction struct {
	PaymentTransactionSnapshot
	FailedAt     time.Time
	FailedReason string
}

// CreditedPaymentTransaction records a confirmed on-chain payment that
// has credited the destination user's balance.
type CreditedPaymentTransaction struct {
	PaymentTransactionSnapshot
	BlockHeight int64
	CreditedAt  time.Time
}

// ChainTransactionStatus is the status reported by the crypto-gateway
// contract of spec §6.
type ChainTransactionStatus string

const (
	ChainTransactionStatusPending   ChainTransactionStatus = "pending"
	ChainTransactionStatusConfirmed ChainTransactionStatus = "confirmed"
	ChainTransactionStatusNotFound  ChainTransactionStatus = "not_found"
)

// ChainTransactionReport is what ChainStatusGateway.GetTransactionStatus
// returns for one pending transaction.
type ChainTransactionReport struct {
	Status      ChainTransactionStatus
	BlockHeight *int64
}

// CreatePendingTransactionParams is the input to
// Ledger.CreatePendingTransaction.
type CreatePendingTransactionParams struct {
	TransactionID       string
	TokenType           string
	TransactionQuantity string
	WincAmount          money.Winc
	DestAddress         string
	DestAddressType     AddressType
	Adjustments         []AppliedAdjustment
}

// PendingTransactionRecord is the sum type returned by
// Ledger.CheckForPendingTransaction: exactly one of the three pointers
// is non-nil.
type PendingTransactionRecord struct {
	Pending  *PendingPaymentTransaction
	Failed   *FailedPaymentTransaction
	Credited *CreditedPaymentTransaction
}

// Found reports whether any of the three states was populated.
func (r PendingTransactionRecord) Found() bool {
	return r.Pending != nil || r.Failed != nil || r.Credited != nil
}
