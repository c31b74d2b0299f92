package postgres

import (
	"context"
	"errors"

	"github.com/ardriveapp/turbo-winc-ledger/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// APITokenRepository implements domain.APITokenRepository directly
// against PostgreSQL via pgx; no generated query layer is used.
type APITokenRepository struct {
	pool *pgxpool.Pool
}

// NewAPITokenRepository creates a new APITokenRepository.
func NewAPITokenRepository(pool *pgxpool.Pool) *APITokenRepository {
	return &APITokenRepository{pool: pool}
}

// Create inserts a new bearer token row.
func (r *APITokenRepository) Create(ctx context.Context, token *domain.APIToken) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO api_token (description, token_hash, token_prefix)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		token.Description, token.TokenHash, token.TokenPrefix)
	return row.Scan(&token.ID, &token.CreatedAt)
}

// List retrieves all non-revoked bearer tokens.
func (r *APITokenRepository) List(ctx context.Context) ([]*domain.APIToken, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, description, token_hash, token_prefix, last_used_at, created_at, revoked_at
		FROM api_token
		WHERE revoked_at IS NULL
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.APIToken
	for rows.Next() {
		t, err := scanAPIToken(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// GetByID retrieves a token by id.
func (r *APITokenRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.APIToken, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, description, token_hash, token_prefix, last_used_at, created_at, revoked_at
		FROM api_token WHERE id = $1`, id)
	t, err := scanAPIToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAPITokenNotFound
	}
	return t, err
}

// GetByHash retrieves a non-revoked token by its hash, used on every
// bearer-authenticated request.
func (r *APITokenRepository) GetByHash(ctx context.Context, hash string) (*domain.APIToken, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, description, token_hash, token_prefix, last_used_at, created_at, revoked_at
		FROM api_token WHERE token_hash = $1 AND revoked_at IS NULL`, hash)
	t, err := scanAPIToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAPITokenNotFound
	}
	return t, err
}

// Revoke marks a token as revoked.
func (r *APITokenRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE api_token SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAPITokenNotFound
	}
	return nil
}

// UpdateLastUsed stamps the token's last-use time; called asynchronously
// after every successful bearer-auth check.
func (r *APITokenRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE api_token SET last_used_at = now() WHERE id = $1`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAPIToken(row rowScanner) (*domain.APIToken, error) {
	var t domain.APIToken
	if err := row.Scan(&t.ID, &t.Description, &t.TokenHash, &t.TokenPrefix, &t.LastUsedAt, &t.CreatedAt, &t.RevokedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
