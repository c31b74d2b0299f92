package handler

import (
	"errors"
	"net/http"

	"github.com/ardriveapp/turbo-winc-ledger/internal/domain"
	"github.com/ardriveapp/turbo-winc-ledger/internal/middleware"
	"github.com/ardriveapp/turbo-winc-ledger/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// APITokenHandler manages the bearer tokens consumed by the
// reserve-balance/refund-balance routes' auth middleware. Every route
// here sits behind middleware.NewAdminAuthMiddleware — only an
// authenticated operator may mint or revoke a bearer token.
type APITokenHandler struct {
	apiTokenService *service.APITokenService
}

// NewAPITokenHandler creates a new APITokenHandler.
func NewAPITokenHandler(apiTokenService *service.APITokenService) *APITokenHandler {
	return &APITokenHandler{apiTokenService: apiTokenService}
}

// CreateAPITokenRequest is the create-token request body.
type CreateAPITokenRequest struct {
	Description string `json:"description"`
}

// CreateAPIToken mints a new bearer token for an operator.
func (h *APITokenHandler) CreateAPIToken(c echo.Context) error {
	operator := middleware.GetOperatorSubject(c)
	if operator == "" {
		return NewUnauthorizedError(c, "authentication required")
	}

	var req CreateAPITokenRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "invalid request body", nil)
	}
	if req.Description == "" {
		return NewValidationError(c, "validation failed", []ValidationError{
			{Field: "description", Message: "description is required"},
		})
	}
	if len(req.Description) > 255 {
		return NewValidationError(c, "validation failed", []ValidationError{
			{Field: "description", Message: "description must be 255 characters or less"},
		})
	}

	result, err := h.apiTokenService.Create(c.Request().Context(), req.Description)
	if err != nil {
		if errors.Is(err, domain.ErrTooManyAPITokens) {
			return NewValidationError(c, "maximum number of API tokens reached", nil)
		}
		log.Error().Err(err).Str("operator", operator).Msg("failed to create API token")
		return NewInternalError(c, "failed to create API token")
	}

	log.Info().
		Str("operator", operator).
		Str("token_id", result.ID.String()).
		Str("description", req.Description).
		Msg("API token created")

	return c.JSON(http.StatusCreated, result)
}

// GetAPITokens lists all live bearer tokens.
func (h *APITokenHandler) GetAPITokens(c echo.Context) error {
	tokens, err := h.apiTokenService.List(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list API tokens")
		return NewInternalError(c, "failed to list API tokens")
	}

	return c.JSON(http.StatusOK, tokens)
}

// RevokeAPIToken revokes a bearer token by id.
func (h *APITokenHandler) RevokeAPIToken(c echo.Context) error {
	tokenID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid token id", nil)
	}

	if err := h.apiTokenService.Revoke(c.Request().Context(), tokenID); err != nil {
		if errors.Is(err, domain.ErrAPITokenNotFound) {
			return NewNotFoundError(c, "API token not found")
		}
		log.Error().Err(err).Str("token_id", tokenID.String()).Msg("failed to revoke API token")
		return NewInternalError(c, "failed to revoke API token")
	}

	log.Info().Str("token_id", tokenID.String()).Msg("API token revoked")
	return c.NoContent(http.StatusNoContent)
}
