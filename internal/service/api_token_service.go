package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/ardriveapp/turbo-winc-ledger/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// tokenPrefix marks a string as one of this service's bearer tokens.
	tokenPrefix = "turbo_"
	// tokenRandomBytes is the number of random bytes backing the token (256 bits).
	tokenRandomBytes = 32
	// tokenPrefixLength is how many raw characters are shown in the displayable prefix.
	tokenPrefixLength = 8
)

// APITokenService issues and validates the bearer tokens consumed by the
// reserve-balance/refund-balance routes' auth middleware.
type APITokenService struct {
	repo domain.APITokenRepository
}

// NewAPITokenService creates a new APITokenService.
func NewAPITokenService(repo domain.APITokenRepository) *APITokenService {
	return &APITokenService{repo: repo}
}

// Create mints a new bearer token and returns the full token, shown only once.
func (s *APITokenService) Create(ctx context.Context, description string) (*domain.CreateAPITokenResponse, error) {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(existing) >= domain.MaxAPITokensPerOperator {
		return nil, domain.ErrTooManyAPITokens
	}

	rawToken, err := generateSecureToken()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate secure token")
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	fullToken := tokenPrefix + rawToken
	hash := hashToken(fullToken)
	displayPrefix := tokenPrefix + rawToken[:tokenPrefixLength] + "..."

	token := &domain.APIToken{
		Description: description,
		TokenHash:   hash,
		TokenPrefix: displayPrefix,
	}

	if err := s.repo.Create(ctx, token); err != nil {
		log.Error().Err(err).Str("description", description).Msg("failed to create API token")
		return nil, err
	}

	log.Info().
		Str("token_id", token.ID.String()).
		Str("description", description).
		Msg("API token created")

	return &domain.CreateAPITokenResponse{
		ID:          token.ID,
		Description: description,
		TokenPrefix: displayPrefix,
		Token:       fullToken,
		CreatedAt:   token.CreatedAt,
		Warning:     "Make sure to copy your API token now. You won't be able to see it again!",
	}, nil
}

// List retrieves all active API tokens.
func (s *APITokenService) List(ctx context.Context) ([]*domain.APITokenResponse, error) {
	tokens, err := s.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list API tokens")
		return nil, err
	}

	result := make([]*domain.APITokenResponse, len(tokens))
	for i, t := range tokens {
		result[i] = &domain.APITokenResponse{
			ID:          t.ID,
			Description: t.Description,
			TokenPrefix: t.TokenPrefix,
			CreatedAt:   t.CreatedAt,
			LastUsedAt:  t.LastUsedAt,
		}
	}
	return result, nil
}

// Revoke revokes an API token.
func (s *APITokenService) Revoke(ctx context.Context, tokenID uuid.UUID) error {
	if err := s.repo.Revoke(ctx, tokenID); err != nil {
		log.Error().Err(err).Str("token_id", tokenID.String()).Msg("failed to revoke API token")
		return err
	}

	log.Info().Str("token_id", tokenID.String()).Msg("API token revoked")
	return nil
}

// ValidateToken validates a bearer token and returns the associated record.
func (s *APITokenService) ValidateToken(ctx context.Context, token string) (*domain.APIToken, error) {
	if len(token) < len(tokenPrefix) || token[:len(tokenPrefix)] != tokenPrefix {
		return nil, domain.ErrAPITokenNotFound
	}

	hash := hashToken(token)
	apiToken, err := s.repo.GetByHash(ctx, hash)
	if err != nil {
		return nil, err
	}

	go func() {
		if updateErr := s.repo.UpdateLastUsed(context.Background(), apiToken.ID); updateErr != nil {
			log.Error().Err(updateErr).Str("token_id", apiToken.ID.String()).Msg("failed to update last_used_at")
		}
	}()

	return apiToken, nil
}

func generateSecureToken() (string, error) {
	bytes := make([]byte, tokenRandomBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", hash)
}
