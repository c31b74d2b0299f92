// Package stripe is the only concrete PaymentGateway implementation:
// it verifies Stripe webhook signatures and starts hosted checkout
// sessions, translating Stripe's own event/session shapes into the
// opaque gateway.Intent / gateway.CheckoutSession contract so the
// ledger core never imports stripe-go directly.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ardriveapp/turbo-winc-ledger/internal/gateway"
	"github.com/ardriveapp/turbo-winc-ledger/internal/money"
	stripego "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/charge"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"
)

// Gateway implements gateway.PaymentGateway against the Stripe API.
// chargePaymentIntentID and sessionClientReferenceID are overridable
// hooks around the two Stripe API calls resolveDisputeQuoteID needs,
// the same seam internal/testutil uses to fake its collaborators, so
// the dispute-resolution path can be driven without a live Stripe
// backend.
type Gateway struct {
	webhookSecret string
	successURL    string
	cancelURL     string

	chargePaymentIntentID    func(ctx context.Context, chargeID string) (string, error)
	sessionClientReferenceID func(ctx context.Context, paymentIntentID string) (string, error)
}

// NewGateway configures the Stripe client (via the package-level
// stripego.Key, set once at startup) and returns a Gateway bound to
// the given webhook signing secret and checkout redirect URLs.
func NewGateway(secretKey, webhookSecret, successURL, cancelURL string) *Gateway {
	stripego.Key = secretKey
	return &Gateway{
		webhookSecret:            webhookSecret,
		successURL:               successURL,
		cancelURL:                cancelURL,
		chargePaymentIntentID:    liveChargePaymentIntentID,
		sessionClientReferenceID: liveSessionClientReferenceID,
	}
}

// liveChargePaymentIntentID loads chargeID from the Stripe API and
// returns the payment intent id it settled against.
func liveChargePaymentIntentID(ctx context.Context, chargeID string) (string, error) {
	params := &stripego.ChargeParams{}
	params.Context = ctx
	ch, err := charge.Get(chargeID, params)
	if err != nil {
		return "", fmt.Errorf("load charge %s: %w", chargeID, err)
	}
	if ch.PaymentIntent == nil {
		return "", nil
	}
	return ch.PaymentIntent.ID, nil
}

// liveSessionClientReferenceID finds the checkout session that started
// paymentIntentID and returns its client_reference_id (the top-up
// quote id embedded by CreateCheckoutSession).
func liveSessionClientReferenceID(ctx context.Context, paymentIntentID string) (string, error) {
	params := &stripego.CheckoutSessionListParams{PaymentIntent: stripego.String(paymentIntentID)}
	params.Context = ctx
	iter := session.List(params)
	for iter.Next() {
		if sess := iter.CheckoutSession(); sess.ClientReferenceID != "" {
			return sess.ClientReferenceID, nil
		}
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("list checkout sessions for payment intent %s: %w", paymentIntentID, err)
	}
	return "", fmt.Errorf("no checkout session found for payment intent %s", paymentIntentID)
}

// CreateCheckoutSession starts a Stripe Checkout session for a quote,
// embedding the quote id in client_reference_id so the webhook handler
// can recover it without a local lookup.
func (g *Gateway) CreateCheckoutSession(ctx context.Context, quoteID string, amount money.PaymentAmount, currency string) (gateway.CheckoutSession, error) {
	unitAmount := amount.Decimal().BigInt().Int64()
	params := &stripego.CheckoutSessionParams{
		Mode:              stripego.String(string(stripego.CheckoutSessionModePayment)),
		SuccessURL:        stripego.String(g.successURL),
		CancelURL:         stripego.String(g.cancelURL),
		ClientReferenceID: stripego.String(quoteID),
		LineItems: []*stripego.CheckoutSessionLineItemParams{
			{
				Quantity: stripego.Int64(1),
				PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripego.String(currency),
					UnitAmount: stripego.Int64(unitAmount),
					ProductData: &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripego.String("Turbo Credits top-up"),
					},
				},
			},
		},
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return gateway.CheckoutSession{}, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return gateway.CheckoutSession{SessionID: sess.ID, RedirectURL: sess.URL}, nil
}

// ParseWebhookEvent verifies the request signature and translates the
// event into the opaque Intent contract. Only checkout.session.completed
// (success), charge.dispute.created (dispute) and
// checkout.session.expired (cancellation) are meaningful to the
// ledger; anything else is reported with an empty Intent and a nil
// error so the handler can 200 it as a no-op per spec §6.
func (g *Gateway) ParseWebhookEvent(ctx context.Context, payload []byte, signatureHeader string) (gateway.Intent, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, g.webhookSecret)
	if err != nil {
		return gateway.Intent{}, fmt.Errorf("stripe: signature verification failed: %w", err)
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripego.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return gateway.Intent{}, fmt.Errorf("stripe: decode checkout session: %w", err)
		}
		return gateway.Intent{
			TopUpQuoteID:  sess.ClientReferenceID,
			PaymentAmount: money.NewFromInt(sess.AmountTotal),
			Currency:      string(sess.Currency),
			Status:        gateway.IntentStatusSucceeded,
		}, nil

	case "charge.dispute.created":
		var dispute stripego.Dispute
		if err := json.Unmarshal(event.Data.Raw, &dispute); err != nil {
			return gateway.Intent{}, fmt.Errorf("stripe: decode dispute: %w", err)
		}
		quoteID, err := g.resolveDisputeQuoteID(ctx, &dispute)
		if err != nil {
			return gateway.Intent{}, fmt.Errorf("stripe: resolve quote id for dispute %s: %w", dispute.ID, err)
		}
		return gateway.Intent{
			TopUpQuoteID:  quoteID,
			PaymentAmount: money.NewFromInt(dispute.Amount),
			Currency:      string(dispute.Currency),
			Status:        gateway.IntentStatusDisputed,
		}, nil

	case "checkout.session.expired":
		var sess stripego.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return gateway.Intent{}, fmt.Errorf("stripe: decode checkout session: %w", err)
		}
		return gateway.Intent{
			TopUpQuoteID: sess.ClientReferenceID,
			Status:       gateway.IntentStatusCanceled,
		}, nil

	default:
		return gateway.Intent{}, nil
	}
}

// resolveDisputeQuoteID recovers the top-up quote id a dispute belongs
// to. Stripe reports a dispute against a Charge/PaymentIntent, not the
// checkout session that embedded ClientReferenceID, so the session has
// to be looked back up by payment intent id.
func (g *Gateway) resolveDisputeQuoteID(ctx context.Context, dispute *stripego.Dispute) (string, error) {
	paymentIntentID := ""
	if dispute.PaymentIntent != nil {
		paymentIntentID = dispute.PaymentIntent.ID
	}
	if paymentIntentID == "" && dispute.Charge != nil {
		id, err := g.chargePaymentIntentID(ctx, dispute.Charge.ID)
		if err != nil {
			return "", err
		}
		paymentIntentID = id
	}
	if paymentIntentID == "" {
		return "", fmt.Errorf("dispute %s carries no resolvable payment intent", dispute.ID)
	}
	return g.sessionClientReferenceID(ctx, paymentIntentID)
}
