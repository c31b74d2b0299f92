// Package walletauth verifies the wallet-signature headers spec §6
// requires on GET /v1/balance: a public key, a nonce, and a signature
// over the nonce, keyed by the user's chain address type. Verification
// logic is grounded on the per-algorithm signature providers of the
// pack's XRPL client (ed25519 via stdlib, secp256k1 via decred/dcrd),
// generalized from one ledger (XRPL) to the five address types this
// spec supports.
package walletauth

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/ardriveapp/turbo-winc-ledger/internal/domain"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// ErrInvalidSignature covers a malformed key/signature or a signature
// that doesn't verify against the claimed public key and nonce.
var ErrInvalidSignature = errors.New("walletauth: invalid signature")

// Verifier checks a detached signature over a nonce for one family of
// chain address types.
type Verifier interface {
	Verify(publicKeyHex, nonce, signatureHex string) error
}

// ed25519Verifier covers arweave, solana, and kyve addresses, all of
// which sign with Ed25519.
type ed25519Verifier struct{}

func (ed25519Verifier) Verify(publicKeyHex, nonce, signatureHex string) error {
	pubKeyBytes, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(pubKeyBytes) != ed25519.PublicKeySize {
		return ErrInvalidSignature
	}
	sigBytes, err := hex.DecodeString(signatureHex)
	if err != nil || len(sigBytes) != ed25519.SignatureSize {
		return ErrInvalidSignature
	}
	if !ed25519.Verify(ed25519.PublicKey(pubKeyBytes), []byte(nonce), sigBytes) {
		return ErrInvalidSignature
	}
	return nil
}

// secp256k1Verifier covers ethereum and matic addresses, which sign
// with ECDSA over secp256k1.
type secp256k1Verifier struct{}

func (secp256k1Verifier) Verify(publicKeyHex, nonce, signatureHex string) error {
	pubKeyBytes, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return ErrInvalidSignature
	}
	pubKey, err := secp256k1.ParsePubKey(pubKeyBytes)
	if err != nil {
		return ErrInvalidSignature
	}
	sigBytes, err := hex.DecodeString(signatureHex)
	if err != nil {
		return ErrInvalidSignature
	}
	sig, err := ecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return ErrInvalidSignature
	}
	digest := sha256.Sum256([]byte(nonce))
	if !sig.Verify(digest[:], pubKey) {
		return ErrInvalidSignature
	}
	return nil
}

// ForAddressType returns the Verifier for a user's chain address type.
func ForAddressType(t domain.AddressType) (Verifier, error) {
	switch t {
	case domain.AddressTypeArweave, domain.AddressTypeSolana, domain.AddressTypeKyve:
		return ed25519Verifier{}, nil
	case domain.AddressTypeEthereum, domain.AddressTypeMatic:
		return secp256k1Verifier{}, nil
	default:
		return nil, errors.New("walletauth: unsupported address type")
	}
}
