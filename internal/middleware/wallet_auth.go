package middleware

import (
	"github.com/ardriveapp/turbo-winc-ledger/internal/domain"
	"github.com/ardriveapp/turbo-winc-ledger/internal/walletauth"
	"github.com/labstack/echo/v4"
)

const (
	contextKeyWalletAddress = "wallet_address"

	headerPublicKey   = "X-Public-Key"
	headerNonce       = "X-Nonce"
	headerSignature   = "X-Signature"
	headerAddressType = "X-Address-Type"
	headerAddress     = "X-Address"
)

// WalletAuthMiddleware guards /v1/balance with the wallet-signature
// scheme of spec §6: the caller presents a public key, a nonce, and a
// detached signature of the nonce, plus the chain address type and the
// address itself. The signature proves control of the public key; the
// caller is trusted to present the address that key actually belongs
// to, since this module carries no address-derivation logic for any of
// the five supported chains (none of the retrieval pack's repos
// implement one either). A bad or missing header yields 403, matching
// the teacher's dual_auth.go "invalid signature is forbidden, not
// unauthorized" convention.
func WalletAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			publicKey := c.Request().Header.Get(headerPublicKey)
			nonce := c.Request().Header.Get(headerNonce)
			signature := c.Request().Header.Get(headerSignature)
			addressType := c.Request().Header.Get(headerAddressType)
			address := c.Request().Header.Get(headerAddress)

			if publicKey == "" || nonce == "" || signature == "" || addressType == "" || address == "" {
				return forbiddenError(c, "missing wallet signature headers")
			}

			verifier, err := walletauth.ForAddressType(domain.AddressType(addressType))
			if err != nil {
				return forbiddenError(c, "unsupported address type")
			}

			if err := verifier.Verify(publicKey, nonce, signature); err != nil {
				return forbiddenError(c, "invalid signature")
			}

			c.Set(contextKeyWalletAddress, address)
			return next(c)
		}
	}
}

// GetWalletAddress returns the address a request authenticated as via
// WalletAuthMiddleware, or "" if the request never passed through it.
func GetWalletAddress(c echo.Context) string {
	v, _ := c.Get(contextKeyWalletAddress).(string)
	return v
}

func forbiddenError(c echo.Context, detail string) error {
	return c.JSON(403, map[string]any{
		"type":   "https://turbo.ardrive.io/errors/forbidden",
		"title":  "Forbidden",
		"status": 403,
		"detail": detail,
	})
}
