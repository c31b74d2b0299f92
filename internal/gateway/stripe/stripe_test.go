package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ardriveapp/turbo-winc-ledger/internal/gateway"
	stripego "github.com/stripe/stripe-go/v81"
)

func signPayload(t *testing.T, secret string, payload []byte) (string, string) {
	t.Helper()
	timestamp := time.Now().Unix()
	signedPayload := fmt.Sprintf("%d.%s", timestamp, payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	signature := hex.EncodeToString(mac.Sum(nil))
	return fmt.Sprintf("%d", timestamp), fmt.Sprintf("t=%d,v1=%s", timestamp, signature)
}

func TestResolveDisputeQuoteID_ResolvesDirectlyFromPaymentIntent(t *testing.T) {
	g := &Gateway{
		sessionClientReferenceID: func(ctx context.Context, paymentIntentID string) (string, error) {
			if paymentIntentID != "pi_123" {
				t.Fatalf("expected payment intent pi_123, got %s", paymentIntentID)
			}
			return "quote-abc", nil
		},
		chargePaymentIntentID: func(ctx context.Context, chargeID string) (string, error) {
			t.Fatal("should not need to load the charge when the dispute already carries a payment intent")
			return "", nil
		},
	}

	dispute := &stripego.Dispute{
		ID:            "dp_1",
		PaymentIntent: &stripego.PaymentIntent{ID: "pi_123"},
	}

	quoteID, err := g.resolveDisputeQuoteID(context.Background(), dispute)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if quoteID != "quote-abc" {
		t.Errorf("expected quote-abc, got %s", quoteID)
	}
}

func TestResolveDisputeQuoteID_FallsBackToChargeLookup(t *testing.T) {
	g := &Gateway{
		chargePaymentIntentID: func(ctx context.Context, chargeID string) (string, error) {
			if chargeID != "ch_1" {
				t.Fatalf("expected charge ch_1, got %s", chargeID)
			}
			return "pi_456", nil
		},
		sessionClientReferenceID: func(ctx context.Context, paymentIntentID string) (string, error) {
			if paymentIntentID != "pi_456" {
				t.Fatalf("expected payment intent pi_456, got %s", paymentIntentID)
			}
			return "quote-xyz", nil
		},
	}

	dispute := &stripego.Dispute{
		ID:     "dp_2",
		Charge: &stripego.Charge{ID: "ch_1"},
	}

	quoteID, err := g.resolveDisputeQuoteID(context.Background(), dispute)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if quoteID != "quote-xyz" {
		t.Errorf("expected quote-xyz, got %s", quoteID)
	}
}

func TestResolveDisputeQuoteID_NoChargeOrPaymentIntentIsAnError(t *testing.T) {
	g := &Gateway{
		chargePaymentIntentID: func(ctx context.Context, chargeID string) (string, error) {
			t.Fatal("should not be called")
			return "", nil
		},
		sessionClientReferenceID: func(ctx context.Context, paymentIntentID string) (string, error) {
			t.Fatal("should not be called")
			return "", nil
		},
	}

	_, err := g.resolveDisputeQuoteID(context.Background(), &stripego.Dispute{ID: "dp_3"})
	if err == nil {
		t.Fatal("expected an error when a dispute has no charge or payment intent")
	}
}

func TestResolveDisputeQuoteID_PropagatesSessionLookupFailure(t *testing.T) {
	wantErr := errors.New("no session found")
	g := &Gateway{
		sessionClientReferenceID: func(ctx context.Context, paymentIntentID string) (string, error) {
			return "", wantErr
		},
	}

	_, err := g.resolveDisputeQuoteID(context.Background(), &stripego.Dispute{
		ID:            "dp_4",
		PaymentIntent: &stripego.PaymentIntent{ID: "pi_1"},
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped %v, got %v", wantErr, err)
	}
}

func TestParseWebhookEvent_DisputeCreatedPopulatesQuoteID(t *testing.T) {
	const secret = "whsec_test"
	g := &Gateway{
		webhookSecret: secret,
		sessionClientReferenceID: func(ctx context.Context, paymentIntentID string) (string, error) {
			return "quote-dispute-1", nil
		},
	}

	payload := []byte(`{
		"id": "evt_1",
		"api_version": "` + stripego.APIVersion + `",
		"type": "charge.dispute.created",
		"data": {
			"object": {
				"id": "dp_1",
				"amount": 500,
				"currency": "usd",
				"payment_intent": "pi_1"
			}
		}
	}`)
	_, sigHeader := signPayload(t, secret, payload)

	intent, err := g.ParseWebhookEvent(context.Background(), payload, sigHeader)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if intent.TopUpQuoteID != "quote-dispute-1" {
		t.Errorf("expected quote-dispute-1, got %s", intent.TopUpQuoteID)
	}
	if intent.Status != gateway.IntentStatusDisputed {
		t.Errorf("expected disputed status, got %s", intent.Status)
	}
	if intent.PaymentAmount.String() != "500" {
		t.Errorf("expected payment amount 500, got %s", intent.PaymentAmount.String())
	}
}

func TestParseWebhookEvent_InvalidSignatureFails(t *testing.T) {
	g := &Gateway{webhookSecret: "whsec_test"}

	_, err := g.ParseWebhookEvent(context.Background(), []byte(`{}`), "t=1,v1=deadbeef")
	if err == nil {
		t.Fatal("expected a signature verification error")
	}
}
