package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// APIToken is a bearer credential used by service-to-service callers of
// the reserve-balance/refund-balance routes (spec §6's "bearer-auth").
// It is unrelated to wallet-signature auth (used for /v1/balance) and to
// the Auth0-authenticated admin operator path (bypassed payment receipts).
type APIToken struct {
	ID          uuid.UUID  `json:"id"`
	Description string     `json:"description"`
	TokenHash   string     `json:"-"`
	TokenPrefix string     `json:"tokenPrefix"`
	LastUsedAt  *time.Time `json:"lastUsedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	RevokedAt   *time.Time `json:"revokedAt,omitempty"`
}

// CreateAPITokenRequest is the admin request to mint a new bearer token.
type CreateAPITokenRequest struct {
	Description string `json:"description" validate:"required,max=255"`
}

// APITokenResponse is a token in list responses; it excludes the hash
// and the plaintext token.
type APITokenResponse struct {
	ID          uuid.UUID  `json:"id"`
	Description string     `json:"description"`
	TokenPrefix string     `json:"tokenPrefix"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastUsedAt  *time.Time `json:"lastUsedAt,omitempty"`
}

// CreateAPITokenResponse includes the full token, shown only once.
type CreateAPITokenResponse struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	TokenPrefix string    `json:"tokenPrefix"`
	Token       string    `json:"token"`
	CreatedAt   time.Time `json:"createdAt"`
	Warning     string    `json:"warning"`
}

// APITokenRepository persists bearer tokens.
type APITokenRepository interface {
	Create(ctx context.Context, token *APIToken) error
	List(ctx context.Context) ([]*APIToken, error)
	GetByID(ctx context.Context, id uuid.UUID) (*APIToken, error)
	GetByHash(ctx context.Context, hash string) (*APIToken, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	UpdateLastUsed(ctx context.Context, id uuid.UUID) error
}
