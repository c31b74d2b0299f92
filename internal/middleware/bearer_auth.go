package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/ardriveapp/turbo-winc-ledger/internal/domain"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const (
	contextKeyAPITokenAuth = "api_token_authenticated"
	contextKeyAPITokenID   = "api_token_id"
)

// TokenValidator validates a bearer token string, mirroring
// service.APITokenService.ValidateToken's signature so the middleware
// doesn't need to import the service package directly.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*domain.APIToken, error)
}

// BearerAuthMiddleware protects the reserve-balance/refund-balance
// routes (spec §6's "bearer-auth"). It validates the Authorization
// header against the configured bearer-token store and records the
// token's id in the echo context for RateLimitMiddleware downstream.
func BearerAuthMiddleware(validator TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return unauthorizedError(c, "missing bearer token")
			}

			apiToken, err := validator.ValidateToken(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrAPITokenNotFound) {
					return unauthorizedError(c, "invalid or revoked bearer token")
				}
				log.Error().Err(err).Msg("bearer token validation failed")
				return unauthorizedError(c, "authentication failed")
			}

			c.Set(contextKeyAPITokenAuth, true)
			c.Set(contextKeyAPITokenID, apiToken.ID)
			return next(c)
		}
	}
}

// IsAPITokenAuth reports whether the request was authenticated via a
// bearer token (used by RateLimitMiddleware to scope itself).
func IsAPITokenAuth(c echo.Context) bool {
	v, _ := c.Get(contextKeyAPITokenAuth).(bool)
	return v
}

// GetAPITokenID returns the authenticated bearer token's id, or
// uuid.Nil if the request wasn't bearer-authenticated.
func GetAPITokenID(c echo.Context) uuid.UUID {
	v, _ := c.Get(contextKeyAPITokenID).(uuid.UUID)
	return v
}

