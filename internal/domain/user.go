package domain

import (
	"context"
	"time"

	"github.com/ardriveapp/turbo-winc-ledger/internal/money"
)

// AddressType identifies which chain/account namespace a user address
// belongs to. A TopUpQuote's destination may additionally be "email"
// (see DestAddressType) for gifted top-ups.
type AddressType string

const (
	AddressTypeArweave  AddressType = "arweave"
	AddressTypeSolana   AddressType = "solana"
	AddressTypeEthereum AddressType = "ethereum"
	AddressTypeKyve     AddressType = "kyve"
	AddressTypeMatic    AddressType = "matic"
)

// DestAddressType is AddressType widened with "email", the only extra
// value a TopUpQuote's destination address type may carry (spec §3).
type DestAddressType string

const (
	DestAddressTypeEmail DestAddressType = "email"
)

// IsChainAddress reports whether t names one of the supported chain
// address types, i.e. is not "email".
func (t DestAddressType) IsChainAddress() bool {
	switch t {
	case DestAddressType(AddressTypeArweave), DestAddressType(AddressTypeSolana),
		DestAddressType(AddressTypeEthereum), DestAddressType(AddressTypeKyve),
		DestAddressType(AddressTypeMatic):
		return true
	default:
		return false
	}
}

// User is the ledger's account record, keyed by chain address. A user
// is created on its first credit event (top-up, gift redemption,
// zero-cost reservation) and is never deleted.
type User struct {
	Address         string
	AddressType     AddressType
	WincBalance     money.Winc
	PromotionalInfo map[string]any
	CreatedAt       time.Time
}

// UserRepository is the narrow user-read surface the adjustment engine
// and HTTP adapter need outside of the Ledger's own mutating operations.
type UserRepository interface {
	GetByAddress(ctx context.Context, address string) (*User, error)
}
