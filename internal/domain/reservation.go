package domain

import (
	"time"

	"github.com/ardriveapp/turbo-winc-ledger/internal/money"
)

// BalanceReservation is a debit against a user's winc balance for one
// upload. NetworkWinc is the pre-adjustment cost; ReservedWinc is
// post-adjustment and is what is actually deducted (spec §3).
type BalanceReservation struct {
	ReservationID string
	DataItemID    string
	UserAddress   string
	NetworkWinc   money.Winc
	ReservedWinc  money.Winc
	ReservedAt    time.Time
}

// AppliedAdjustment is one entry of an ordered catalog application,
// shared shape for both upload and payment adjustments (spec §3's
// UploadAdjustment / PaymentAdjustment). Exactly one of WincDelta /
// PaymentDelta is meaningful depending on which list it's stored in.
type AppliedAdjustment struct {
	ID          string
	CatalogID   string
	Index       int
	WincDelta   money.Winc
	UserAddress string
	CreatedAt   time.Time
}

// PaymentAdjustment is an applied entry linked to a TopUpQuote; it
// carries a signed fiat delta instead of a winc delta.
type PaymentAdjustment struct {
	ID            string
	CatalogID     string
	Index         int
	PaymentDelta  money.PaymentAmount
	UserAddress   string
	CreatedAt     time.Time
}

// ReserveBalanceParams is the input to Ledger.ReserveBalance.
type ReserveBalanceParams struct {
	UserAddress  string
	UserAddressType AddressType
	NetworkWinc  money.Winc
	ReservedWinc money.Winc
	DataItemID   string
	Adjustments  []AppliedAdjustment
}
