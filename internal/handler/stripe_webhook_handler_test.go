package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ardriveapp/turbo-winc-ledger/internal/gateway"
	"github.com/ardriveapp/turbo-winc-ledger/internal/service"
	"github.com/ardriveapp/turbo-winc-ledger/internal/service/adjustmentengine"
	"github.com/ardriveapp/turbo-winc-ledger/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newStripeWebhookHandlerFixture() (*StripeWebhookHandler, *testutil.FakePaymentGateway) {
	ledger := testutil.NewFakeLedger()
	engine := adjustmentengine.New(testutil.NewFakeCatalogRepository())
	gw := testutil.NewFakePaymentGateway()
	svc := service.NewTopUpService(ledger, engine, gw, nil, zerolog.Nop())
	return NewStripeWebhookHandler(svc, gw), gw
}

func TestHandleWebhook_InvalidSignatureIsBadRequest(t *testing.T) {
	e := echo.New()
	h, _ := newStripeWebhookHandlerFixture()

	req := httptest.NewRequest(http.MethodPost, "/v1/stripe-webhook", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "unregistered-signature")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.HandleWebhook(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleWebhook_ValidSignatureDispatchesEvent(t *testing.T) {
	e := echo.New()
	h, gw := newStripeWebhookHandlerFixture()
	gw.SetIntent("good-signature", gateway.Intent{
		TopUpQuoteID: "unknown-quote",
		Status:       gateway.IntentStatusCanceled,
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/stripe-webhook", strings.NewReader(`{"type":"checkout.session.expired"}`))
	req.Header.Set("Stripe-Signature", "good-signature")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.HandleWebhook(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
