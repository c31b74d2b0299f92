package domain

import (
	"context"

	"github.com/ardriveapp/turbo-winc-ledger/internal/money"
)

// Ledger is the single operational entrypoint of the core (spec §4.2,
// §4.5, §6): a transactional CRUD surface over users, receipts,
// reservations, transactions, adjustments, and the audit log. Every
// mutating method serializes state via a database transaction with
// row-level locking on the affected user row whenever balance is read
// then written. internal/repository/postgres.LedgerStore is the sole
// implementation.
type Ledger interface {
	// Top-up lifecycle (§4.2).
	CreateTopUpQuote(ctx context.Context, quote TopUpQuote, adjustments []PaymentAdjustment) error
	GetTopUpQuote(ctx context.Context, quoteID string) (*TopUpQuote, error)
	GetPaymentReceipt(ctx context.Context, receiptID string) (*PaymentReceipt, error)
	GetChargebackReceipt(ctx context.Context, chargebackID string) (*ChargebackReceipt, error)
	CreatePaymentReceipt(ctx context.Context, params CreatePaymentReceiptParams) (*UnredeemedGift, error)
	CreateBypassedPaymentReceipts(ctx context.Context, batch []BypassedPaymentReceiptItem) error
	CreateChargebackReceipt(ctx context.Context, params CreateChargebackReceiptParams) error
	CheckForExistingPaymentByTopUpQuoteID(ctx context.Context, quoteID string) (bool, error)

	// Gifts (§4.2).
	RedeemGift(ctx context.Context, params RedeemGiftParams) (*RedeemGiftResult, error)

	// Balance and reservations (§4.2).
	GetBalance(ctx context.Context, userAddress string) (money.Winc, error)
	ReserveBalance(ctx context.Context, params ReserveBalanceParams) (*BalanceReservation, error)
	RefundBalance(ctx context.Context, userAddress string, wincAmount money.Winc, dataItemID *string) error

	// Crypto-payment lifecycle (§4.5).
	CreatePendingTransaction(ctx context.Context, params CreatePendingTransactionParams) error
	CreditPendingTransaction(ctx context.Context, transactionID string, blockHeight int64) error
	FailPendingTransaction(ctx context.Context, transactionID string, reason string) error
	CheckForPendingTransaction(ctx context.Context, transactionID string) (PendingTransactionRecord, error)
	CreateNewCreditedTransaction(ctx context.Context, params CreatePendingTransactionParams, blockHeight int64) error
	ListPendingTransactions(ctx context.Context) ([]PendingPaymentTransaction, error)

	// Adjustment usage accounting (§4.4), exposed through the ledger
	// because it reads the same adjustment rows the store owns.
	GetWincUsedForUploadAdjustmentCatalog(ctx context.Context, userAddress, catalogID string, interval int, unit LimitationIntervalUnit) (money.Winc, error)
}
