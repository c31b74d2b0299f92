package middleware

import (
	"net/http"
	"net/url"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/labstack/echo/v4"
)

// NewAdminAuthMiddleware builds an Echo middleware requiring a valid
// Auth0-issued JWT. It guards the operator-only admin surface: minting
// and revoking bearer tokens, and creating bypassed payment receipts —
// routes that need an authenticated human operator rather than a wallet
// signature or a service bearer token.
func NewAdminAuthMiddleware(auth0Domain, audience string) (echo.MiddlewareFunc, error) {
	issuerURL, err := url.Parse("https://" + auth0Domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)
	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
	)
	if err != nil {
		return nil, err
	}

	checkJWT := jwtmiddleware.New(jwtValidator.ValidateToken)

	return echo.WrapMiddleware(func(next http.Handler) http.Handler {
		return checkJWT.CheckJWT(next)
	}), nil
}

// GetOperatorSubject returns the JWT subject of the authenticated
// operator, or "" if the request never passed through
// NewAdminAuthMiddleware.
func GetOperatorSubject(c echo.Context) string {
	claims, ok := c.Request().Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
	if !ok || claims == nil {
		return ""
	}
	return claims.RegisteredClaims.Subject
}
