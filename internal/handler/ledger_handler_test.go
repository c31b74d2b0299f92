package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ardriveapp/turbo-winc-ledger/internal/domain"
	"github.com/ardriveapp/turbo-winc-ledger/internal/money"
	"github.com/ardriveapp/turbo-winc-ledger/internal/service/adjustmentengine"
	"github.com/ardriveapp/turbo-winc-ledger/internal/testutil"
	"github.com/labstack/echo/v4"
)

func newLedgerHandlerFixture() (*LedgerHandler, *testutil.FakeLedger) {
	ledger := testutil.NewFakeLedger()
	engine := adjustmentengine.New(testutil.NewFakeCatalogRepository())
	return NewLedgerHandler(ledger, engine), ledger
}

func TestReserveBalance_Success(t *testing.T) {
	e := echo.New()
	h, ledger := newLedgerHandlerFixture()
	ledger.Users["arweave-address"] = &domain.User{
		Address:     "arweave-address",
		AddressType: domain.AddressTypeArweave,
		WincBalance: money.NewFromInt(1000),
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/reserve-balance/arweave-address/100?addressType=arweave", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("address", "byteCount")
	c.SetParamValues("arweave-address", "100")

	if err := h.ReserveBalance(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(ledger.Reservations) != 1 {
		t.Errorf("expected one reservation recorded, got %d", len(ledger.Reservations))
	}
}

func TestReserveBalance_MissingAddressTypeIsValidationError(t *testing.T) {
	e := echo.New()
	h, _ := newLedgerHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/v1/reserve-balance/arweave-address/100", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("address", "byteCount")
	c.SetParamValues("arweave-address", "100")

	if err := h.ReserveBalance(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestReserveBalance_InvalidByteCountIsValidationError(t *testing.T) {
	e := echo.New()
	h, _ := newLedgerHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/v1/reserve-balance/arweave-address/not-a-number?addressType=arweave", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("address", "byteCount")
	c.SetParamValues("arweave-address", "not-a-number")

	if err := h.ReserveBalance(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestReserveBalance_InsufficientBalanceIsForbidden(t *testing.T) {
	e := echo.New()
	h, ledger := newLedgerHandlerFixture()
	ledger.Users["arweave-address"] = &domain.User{
		Address:     "arweave-address",
		AddressType: domain.AddressTypeArweave,
		WincBalance: money.NewFromInt(1),
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/reserve-balance/arweave-address/1000?addressType=arweave", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("address", "byteCount")
	c.SetParamValues("arweave-address", "1000")

	if err := h.ReserveBalance(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", rec.Code)
	}
}

func TestReserveBalance_UnknownUserIsForbidden(t *testing.T) {
	e := echo.New()
	h, _ := newLedgerHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/v1/reserve-balance/unknown-address/100?addressType=arweave", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("address", "byteCount")
	c.SetParamValues("unknown-address", "100")

	if err := h.ReserveBalance(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", rec.Code)
	}
}

func TestRefundBalance_Success(t *testing.T) {
	e := echo.New()
	h, ledger := newLedgerHandlerFixture()
	ledger.Users["arweave-address"] = &domain.User{
		Address:     "arweave-address",
		AddressType: domain.AddressTypeArweave,
		WincBalance: money.NewFromInt(100),
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/refund-balance/arweave-address/50", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("address", "winc")
	c.SetParamValues("arweave-address", "50")

	if err := h.RefundBalance(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ledger.Users["arweave-address"].WincBalance.String() != "150" {
		t.Errorf("expected balance 150, got %s", ledger.Users["arweave-address"].WincBalance.String())
	}
}

func TestRefundBalance_InvalidWincIsValidationError(t *testing.T) {
	e := echo.New()
	h, _ := newLedgerHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/v1/refund-balance/arweave-address/not-an-amount", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("address", "winc")
	c.SetParamValues("arweave-address", "not-an-amount")

	if err := h.RefundBalance(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestRefundBalance_UnknownUserIsForbidden(t *testing.T) {
	e := echo.New()
	h, _ := newLedgerHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/v1/refund-balance/unknown-address/50", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("address", "winc")
	c.SetParamValues("unknown-address", "50")

	if err := h.RefundBalance(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", rec.Code)
	}
}
