package domain

import (
	"time"

	"github.com/ardriveapp/turbo-winc-ledger/internal/money"
)

// UnredeemedGift is issued when a TopUpQuote's DestAddressType is
// "email". ReceiptID is its primary key — a gift is always the
// byproduct of exactly one payment receipt.
type UnredeemedGift struct {
	ReceiptID     string
	WincAmount    money.Winc
	RecipientEmail string
	SenderEmail   *string
	GiftMessage   *string
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

// RedeemedGift is an UnredeemedGift moved to its terminal state by
// Ledger.RedeemGift: DestAddress/DestAddressType replace the email
// recipient and RedeemedAt is stamped.
type RedeemedGift struct {
	ReceiptID       string
	WincAmount      money.Winc
	RecipientEmail  string
	SenderEmail     *string
	GiftMessage     *string
	CreatedAt       time.Time
	DestAddress     string
	DestAddressType AddressType
	RedeemedAt      time.Time
}

// RedeemGiftParams is the input to Ledger.RedeemGift.
type RedeemGiftParams struct {
	ReceiptID      string
	RecipientEmail string
	DestAddress    string
	DestAddressType AddressType
}

// RedeemGiftResult is the output of Ledger.RedeemGift.
type RedeemGiftResult struct {
	User         *User
	WincRedeemed money.Winc
}
