package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"github.com/ardriveapp/turbo-winc-ledger/internal/domain"
	"github.com/ardriveapp/turbo-winc-ledger/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// fakeAPITokenRepo is a minimal map-backed fake, mirroring the style of
// internal/testutil's other fakes without importing the handler package
// into testutil.
type fakeAPITokenRepo struct {
	byHash map[string]*domain.APIToken
	byID   map[uuid.UUID]*domain.APIToken
}

func newFakeAPITokenRepo() *fakeAPITokenRepo {
	return &fakeAPITokenRepo{byHash: map[string]*domain.APIToken{}, byID: map[uuid.UUID]*domain.APIToken{}}
}

func (f *fakeAPITokenRepo) Create(ctx context.Context, token *domain.APIToken) error {
	token.ID = uuid.New()
	f.byHash[token.TokenHash] = token
	f.byID[token.ID] = token
	return nil
}

func (f *fakeAPITokenRepo) List(ctx context.Context) ([]*domain.APIToken, error) {
	var out []*domain.APIToken
	for _, t := range f.byID {
		if t.RevokedAt == nil {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeAPITokenRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.APIToken, error) {
	if t, ok := f.byID[id]; ok {
		return t, nil
	}
	return nil, domain.ErrAPITokenNotFound
}

func (f *fakeAPITokenRepo) GetByHash(ctx context.Context, hash string) (*domain.APIToken, error) {
	if t, ok := f.byHash[hash]; ok && t.RevokedAt == nil {
		return t, nil
	}
	return nil, domain.ErrAPITokenNotFound
}

func (f *fakeAPITokenRepo) Revoke(ctx context.Context, id uuid.UUID) error {
	t, ok := f.byID[id]
	if !ok {
		return domain.ErrAPITokenNotFound
	}
	t.RevokedAt = &t.CreatedAt
	return nil
}

func (f *fakeAPITokenRepo) UpdateLastUsed(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeAPITokenRepo) AddToken(t *domain.APIToken) {
	f.byHash[t.TokenHash] = t
	f.byID[t.ID] = t
}

// withOperator stamps the request context the way NewAdminAuthMiddleware
// would after validating a real Auth0 JWT, so handlers under test can
// call middleware.GetOperatorSubject.
func withOperator(c echo.Context, subject string) {
	claims := &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{Subject: subject},
	}
	ctx := context.WithValue(c.Request().Context(), jwtmiddleware.ContextKey{}, claims)
	c.SetRequest(c.Request().WithContext(ctx))
}

func TestGetAPITokens_Success(t *testing.T) {
	e := echo.New()
	repo := newFakeAPITokenRepo()
	handler := NewAPITokenHandler(service.NewAPITokenService(repo))

	req := httptest.NewRequest(http.MethodGet, "/v1/api-tokens", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	withOperator(c, "auth0|test")

	if err := handler.GetAPITokens(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}

func TestCreateAPIToken_Success(t *testing.T) {
	e := echo.New()
	repo := newFakeAPITokenRepo()
	handler := NewAPITokenHandler(service.NewAPITokenService(repo))

	reqBody := `{"description": "Test token"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/api-tokens", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	withOperator(c, "auth0|test")

	if err := handler.CreateAPIToken(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rec.Code)
	}

	var resp domain.CreateAPITokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Description != "Test token" {
		t.Errorf("expected description 'Test token', got %s", resp.Description)
	}
	if !strings.HasPrefix(resp.Token, "turbo_") {
		t.Errorf("expected token to start with 'turbo_', got %s", resp.Token[:10])
	}
}

func TestCreateAPIToken_MissingDescription(t *testing.T) {
	e := echo.New()
	repo := newFakeAPITokenRepo()
	handler := NewAPITokenHandler(service.NewAPITokenService(repo))

	reqBody := `{"description": ""}`
	req := httptest.NewRequest(http.MethodPost, "/v1/api-tokens", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	withOperator(c, "auth0|test")

	if err := handler.CreateAPIToken(c); err != nil {
		t.Fatalf("expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestRevokeAPIToken_Success(t *testing.T) {
	e := echo.New()
	repo := newFakeAPITokenRepo()
	handler := NewAPITokenHandler(service.NewAPITokenService(repo))

	token := &domain.APIToken{ID: uuid.New(), Description: "Test token", TokenHash: "somehash", TokenPrefix: "turbo_abc..."}
	repo.AddToken(token)

	req := httptest.NewRequest(http.MethodDelete, "/v1/api-tokens/"+token.ID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(token.ID.String())
	withOperator(c, "auth0|test")

	if err := handler.RevokeAPIToken(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", rec.Code)
	}
}

func TestRevokeAPIToken_NotFound(t *testing.T) {
	e := echo.New()
	repo := newFakeAPITokenRepo()
	handler := NewAPITokenHandler(service.NewAPITokenService(repo))

	nonExistentID := uuid.New()
	req := httptest.NewRequest(http.MethodDelete, "/v1/api-tokens/"+nonExistentID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(nonExistentID.String())
	withOperator(c, "auth0|test")

	if err := handler.RevokeAPIToken(c); err != nil {
		t.Fatalf("expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestRevokeAPIToken_InvalidID(t *testing.T) {
	e := echo.New()
	repo := newFakeAPITokenRepo()
	handler := NewAPITokenHandler(service.NewAPITokenService(repo))

	req := httptest.NewRequest(http.MethodDelete, "/v1/api-tokens/invalid-uuid", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("invalid-uuid")
	withOperator(c, "auth0|test")

	if err := handler.RevokeAPIToken(c); err != nil {
		t.Fatalf("expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}
