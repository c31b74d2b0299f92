package domain

import "errors"

// Ledger error kinds. Each is surfaced to the caller via errors.Is; the
// HTTP adapter maps them to RFC 7807 problem responses in
// internal/handler/response.go.
var (
	// ErrNotFound covers a quote/receipt/chargeback/user missing where
	// the operation requires it to exist.
	ErrNotFound = errors.New("resource not found")

	// ErrUserNotFoundWarning is a NotFound for a balance/promo query
	// against an unknown user; callers log it at warning, not error.
	ErrUserNotFoundWarning = errors.New("user not found")

	// ErrInsufficientBalance is returned by reserveBalance when the
	// user's balance cannot cover reservedWinc.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrGiftRedemptionError covers a malformed or mismatched
	// redemption attempt (no unredeemed/redeemed row, email mismatch).
	ErrGiftRedemptionError = errors.New("gift redemption error")

	// ErrGiftAlreadyRedeemed is returned when a redeemed row already
	// exists for the receipt being redeemed.
	ErrGiftAlreadyRedeemed = errors.New("gift already redeemed")

	// ErrPromoCodeNotFound is returned when no catalog matches a
	// requested code value.
	ErrPromoCodeNotFound = errors.New("promo code not found")

	// ErrPromoCodeExpired is returned when now() > catalog.endAt.
	ErrPromoCodeExpired = errors.New("promo code expired")

	// ErrPromoCodeExceedsMaxUses is returned when the catalog's maxUses
	// has already been reached.
	ErrPromoCodeExceedsMaxUses = errors.New("promo code exceeds max uses")

	// ErrUserIneligibleForPromoCode covers targetUserGroup and
	// per-user single-use violations.
	ErrUserIneligibleForPromoCode = errors.New("user ineligible for promo code")

	// ErrPaymentTransactionNotFound is returned by crypto lifecycle
	// transitions when the transactionId isn't in the expected table.
	ErrPaymentTransactionNotFound = errors.New("payment transaction not found")

	// ErrPaymentMismatch covers currency mismatch or under-payment
	// against a quote, and excluded-address crypto credits.
	ErrPaymentMismatch = errors.New("payment mismatch")

	// ErrInvalidInput covers malformed request parameters caught
	// before any transaction is opened.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized covers a failed bearer/signature/admin auth check.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAPITokenNotFound covers a missing or revoked bearer token.
	ErrAPITokenNotFound = errors.New("api token not found")

	// ErrTooManyAPITokens caps the number of live bearer tokens an
	// operator may mint.
	ErrTooManyAPITokens = errors.New("too many api tokens")
)

// MaxAPITokensPerOperator bounds how many live bearer tokens can exist
// at once, mirroring the per-workspace cap the teacher enforced.
const MaxAPITokensPerOperator = 10
