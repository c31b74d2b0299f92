package service

import (
	"context"
	"testing"
	"time"

	"github.com/ardriveapp/turbo-winc-ledger/internal/domain"
	"github.com/ardriveapp/turbo-winc-ledger/internal/gateway"
	"github.com/ardriveapp/turbo-winc-ledger/internal/money"
	"github.com/ardriveapp/turbo-winc-ledger/internal/service/adjustmentengine"
	"github.com/ardriveapp/turbo-winc-ledger/internal/testutil"
	"github.com/ardriveapp/turbo-winc-ledger/internal/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTopUpServiceFixture() (*TopUpService, *testutil.FakeLedger, *testutil.FakePaymentGateway) {
	ledger := testutil.NewFakeLedger()
	catalogs := testutil.NewFakeCatalogRepository()
	engine := adjustmentengine.New(catalogs)
	gw := testutil.NewFakePaymentGateway()
	svc := NewTopUpService(ledger, engine, gw, nil, zerolog.Nop())
	return svc, ledger, gw
}

func TestCreateCheckoutSession_ChainAddress(t *testing.T) {
	svc, ledger, _ := newTopUpServiceFixture()

	quote, session, err := svc.CreateCheckoutSession(context.Background(), CreateTopUpQuoteParams{
		DestAddress:        "arweave-address",
		DestAddressType:    domain.DestAddressType(domain.AddressTypeArweave),
		Currency:           "usd",
		GrossPaymentAmount: money.NewFromInt(1000),
		WincAmount:         money.NewFromInt(1000),
	})

	require.NoError(t, err)
	assert.NotEmpty(t, quote.QuoteID)
	assert.Equal(t, "1000", quote.PaymentAmount.String())
	assert.NotEmpty(t, session.SessionID)

	stored, err := ledger.GetTopUpQuote(context.Background(), quote.QuoteID)
	require.NoError(t, err)
	assert.Equal(t, quote.DestAddress, stored.DestAddress)
}

func TestCreateCheckoutSession_UnknownPromoCode(t *testing.T) {
	svc, _, _ := newTopUpServiceFixture()

	_, _, err := svc.CreateCheckoutSession(context.Background(), CreateTopUpQuoteParams{
		DestAddress:        "arweave-address",
		DestAddressType:    domain.DestAddressType(domain.AddressTypeArweave),
		Currency:           "usd",
		GrossPaymentAmount: money.NewFromInt(1000),
		WincAmount:         money.NewFromInt(1000),
		PromoCodes:         []string{"DOESNOTEXIST"},
	})

	assert.ErrorIs(t, err, domain.ErrPromoCodeNotFound)
}

func TestHandleWebhookEvent_SucceededCompletesQuoteAndCreditsUser(t *testing.T) {
	svc, ledger, _ := newTopUpServiceFixture()
	ctx := context.Background()

	quote, _, err := svc.CreateCheckoutSession(ctx, CreateTopUpQuoteParams{
		DestAddress:        "arweave-address",
		DestAddressType:    domain.DestAddressType(domain.AddressTypeArweave),
		Currency:           "usd",
		GrossPaymentAmount: money.NewFromInt(1000),
		WincAmount:         money.NewFromInt(1000),
	})
	require.NoError(t, err)

	err = svc.HandleWebhookEvent(ctx, gateway.Intent{
		TopUpQuoteID:  quote.QuoteID,
		PaymentAmount: quote.PaymentAmount,
		Currency:      quote.Currency,
		Status:        gateway.IntentStatusSucceeded,
	})
	require.NoError(t, err)

	balance, err := ledger.GetBalance(ctx, "arweave-address")
	require.NoError(t, err)
	assert.Equal(t, "1000", balance.String())

	_, err = ledger.GetTopUpQuote(ctx, quote.QuoteID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHandleWebhookEvent_SucceededIsIdempotent(t *testing.T) {
	svc, ledger, _ := newTopUpServiceFixture()
	ctx := context.Background()

	quote, _, err := svc.CreateCheckoutSession(ctx, CreateTopUpQuoteParams{
		DestAddress:        "arweave-address",
		DestAddressType:    domain.DestAddressType(domain.AddressTypeArweave),
		Currency:           "usd",
		GrossPaymentAmount: money.NewFromInt(1000),
		WincAmount:         money.NewFromInt(1000),
	})
	require.NoError(t, err)

	intent := gateway.Intent{
		TopUpQuoteID:  quote.QuoteID,
		PaymentAmount: quote.PaymentAmount,
		Currency:      quote.Currency,
		Status:        gateway.IntentStatusSucceeded,
	}
	require.NoError(t, svc.HandleWebhookEvent(ctx, intent))
	require.NoError(t, svc.HandleWebhookEvent(ctx, intent))

	balance, err := ledger.GetBalance(ctx, "arweave-address")
	require.NoError(t, err)
	assert.Equal(t, "1000", balance.String(), "redelivered webhook must not double-credit")
}

func TestHandleWebhookEvent_SucceededForEmailYieldsUnredeemedGift(t *testing.T) {
	svc, ledger, _ := newTopUpServiceFixture()
	ctx := context.Background()

	quote, _, err := svc.CreateCheckoutSession(ctx, CreateTopUpQuoteParams{
		DestAddress:        "friend@example.com",
		DestAddressType:    domain.DestAddressTypeEmail,
		Currency:           "usd",
		GrossPaymentAmount: money.NewFromInt(500),
		WincAmount:         money.NewFromInt(500),
	})
	require.NoError(t, err)

	err = svc.HandleWebhookEvent(ctx, gateway.Intent{
		TopUpQuoteID:  quote.QuoteID,
		PaymentAmount: quote.PaymentAmount,
		Currency:      quote.Currency,
		Status:        gateway.IntentStatusSucceeded,
	})
	require.NoError(t, err)

	assert.Len(t, ledger.UnredeemedGifts, 1)
}

func TestHandleWebhookEvent_DisputedCreatesChargebackAndReversesBalance(t *testing.T) {
	svc, ledger, _ := newTopUpServiceFixture()
	ctx := context.Background()

	quote, _, err := svc.CreateCheckoutSession(ctx, CreateTopUpQuoteParams{
		DestAddress:        "arweave-address",
		DestAddressType:    domain.DestAddressType(domain.AddressTypeArweave),
		Currency:           "usd",
		GrossPaymentAmount: money.NewFromInt(1000),
		WincAmount:         money.NewFromInt(1000),
	})
	require.NoError(t, err)

	require.NoError(t, svc.HandleWebhookEvent(ctx, gateway.Intent{
		TopUpQuoteID:  quote.QuoteID,
		PaymentAmount: quote.PaymentAmount,
		Currency:      quote.Currency,
		Status:        gateway.IntentStatusSucceeded,
	}))

	require.NoError(t, svc.HandleWebhookEvent(ctx, gateway.Intent{
		TopUpQuoteID: quote.QuoteID,
		Status:       gateway.IntentStatusDisputed,
	}))

	balance, err := ledger.GetBalance(ctx, "arweave-address")
	require.NoError(t, err)
	assert.Equal(t, "0", balance.String(), "the chargeback reverses the 1000 winc the payment credited")
}

func TestHandleWebhookEvent_CanceledIsANoOp(t *testing.T) {
	svc, _, _ := newTopUpServiceFixture()
	err := svc.HandleWebhookEvent(context.Background(), gateway.Intent{
		TopUpQuoteID: "unknown-quote",
		Status:       gateway.IntentStatusCanceled,
	})
	assert.NoError(t, err)
}

func TestRedeemGift_CreditsRecipientAndPublishesBalance(t *testing.T) {
	ledger := testutil.NewFakeLedger()
	catalogs := testutil.NewFakeCatalogRepository()
	engine := adjustmentengine.New(catalogs)
	gw := testutil.NewFakePaymentGateway()

	published := make(chan struct{}, 1)
	publisher := &recordingPublisher{onPublish: func() { published <- struct{}{} }}
	svc := NewTopUpService(ledger, engine, gw, publisher, zerolog.Nop())
	ctx := context.Background()

	quote, _, err := svc.CreateCheckoutSession(ctx, CreateTopUpQuoteParams{
		DestAddress:        "friend@example.com",
		DestAddressType:    domain.DestAddressTypeEmail,
		Currency:           "usd",
		GrossPaymentAmount: money.NewFromInt(500),
		WincAmount:         money.NewFromInt(500),
	})
	require.NoError(t, err)
	require.NoError(t, svc.HandleWebhookEvent(ctx, gateway.Intent{
		TopUpQuoteID:  quote.QuoteID,
		PaymentAmount: quote.PaymentAmount,
		Currency:      quote.Currency,
		Status:        gateway.IntentStatusSucceeded,
	}))

	var receiptID string
	for id := range ledger.UnredeemedGifts {
		receiptID = id
	}
	require.NotEmpty(t, receiptID)

	result, err := svc.RedeemGift(ctx, domain.RedeemGiftParams{
		ReceiptID:       receiptID,
		RecipientEmail:  "friend@example.com",
		DestAddress:     "solana-address",
		DestAddressType: domain.AddressTypeSolana,
	})
	require.NoError(t, err)
	assert.Equal(t, "500", result.WincRedeemed.String())

	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("expected RedeemGift to publish a balance update")
	}
}

type recordingPublisher struct {
	onPublish func()
}

func (r *recordingPublisher) Publish(userAddress string, event websocket.Event) {
	if r.onPublish != nil {
		r.onPublish()
	}
}

var _ websocket.EventPublisher = (*recordingPublisher)(nil)
