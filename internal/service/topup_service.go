package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ardriveapp/turbo-winc-ledger/internal/domain"
	"github.com/ardriveapp/turbo-winc-ledger/internal/gateway"
	"github.com/ardriveapp/turbo-winc-ledger/internal/money"
	"github.com/ardriveapp/turbo-winc-ledger/internal/service/adjustmentengine"
	"github.com/ardriveapp/turbo-winc-ledger/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// quoteTTL is how long a top-up quote stays redeemable before
// createPaymentReceipt refuses it (spec §4.3).
const quoteTTL = 30 * time.Minute

// TopUpService orchestrates the quote → receipt → chargeback lifecycle
// and gift issuance/redemption (spec §4.2, §4.4), mirroring the shape
// of a settlement-style orchestration service that consults a
// narrower engine before handing off to the ledger store.
type TopUpService struct {
	ledger    domain.Ledger
	engine    *adjustmentengine.Engine
	gateway   gateway.PaymentGateway
	publisher websocket.EventPublisher
	logger    zerolog.Logger
}

// NewTopUpService creates a new TopUpService.
func NewTopUpService(ledger domain.Ledger, engine *adjustmentengine.Engine, gw gateway.PaymentGateway, publisher websocket.EventPublisher, logger zerolog.Logger) *TopUpService {
	if publisher == nil {
		publisher = &websocket.NoOpPublisher{}
	}
	return &TopUpService{
		ledger:    ledger,
		engine:    engine,
		gateway:   gw,
		publisher: publisher,
		logger:    logger.With().Str("component", "topup_service").Logger(),
	}
}

// CreateTopUpQuoteParams is the input to CreateCheckoutSession, carrying
// the gross fiat amount and the pre-priced winc amount a pricing oracle
// (out of this core's scope, spec §1/§6) has already computed.
type CreateTopUpQuoteParams struct {
	DestAddress         string
	DestAddressType     domain.DestAddressType
	Currency            string
	GrossPaymentAmount  money.PaymentAmount
	WincAmount          money.Winc
	PromoCodes          []string
	GiftMessage         *string
}

// CreateCheckoutSession resolves promo codes, composes the final
// paymentAmount/wincAmount, persists the quote, and starts a hosted
// checkout session against the configured payment gateway.
func (s *TopUpService) CreateCheckoutSession(ctx context.Context, params CreateTopUpQuoteParams) (*domain.TopUpQuote, gateway.CheckoutSession, error) {
	now := time.Now().UTC()

	promoCatalogs, err := s.engine.ResolvePromoCodes(ctx, params.PromoCodes, params.DestAddress, now)
	if err != nil {
		return nil, gateway.CheckoutSession{}, err
	}

	composition, err := s.engine.ComposePayment(ctx, params.GrossPaymentAmount, params.WincAmount, promoCatalogs, now)
	if err != nil {
		return nil, gateway.CheckoutSession{}, fmt.Errorf("topup: compose payment: %w", err)
	}

	quote := domain.TopUpQuote{TopUpQuoteSnapshot: domain.TopUpQuoteSnapshot{
		QuoteID:             uuid.New().String(),
		DestAddress:         params.DestAddress,
		DestAddressType:     params.DestAddressType,
		PaymentAmount:       composition.PaymentAmount,
		QuotedPaymentAmount: composition.QuotedPaymentAmount,
		Currency:            params.Currency,
		WincAmount:           composition.WincAmount,
		Provider:            domain.ProviderStripe,
		ExpiresAt:           now.Add(quoteTTL),
		CreatedAt:           now,
		GiftMessage:         params.GiftMessage,
	}}

	if err := s.ledger.CreateTopUpQuote(ctx, quote, composition.Adjustments); err != nil {
		return nil, gateway.CheckoutSession{}, fmt.Errorf("topup: create quote: %w", err)
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, quote.QuoteID, quote.PaymentAmount, quote.Currency)
	if err != nil {
		return nil, gateway.CheckoutSession{}, fmt.Errorf("topup: create checkout session: %w", err)
	}

	s.logger.Info().Str("quote_id", quote.QuoteID).Str("dest_address", quote.DestAddress).Msg("top-up quote created")
	return &quote, session, nil
}

// HandleWebhookEvent dispatches a payment-gateway intent to the ledger
// (spec §4.2): a success completes the quote into a payment receipt
// (idempotently — a redelivered webhook is a no-op), a dispute reverses
// an already-completed payment into a chargeback, and a cancellation is
// left for the quote's passive expiry (spec §4.3) since the Ledger
// interface exposes no explicit fail-quote operation.
func (s *TopUpService) HandleWebhookEvent(ctx context.Context, intent gateway.Intent) error {
	switch intent.Status {
	case gateway.IntentStatusSucceeded:
		return s.handlePaymentSucceeded(ctx, intent)
	case gateway.IntentStatusDisputed:
		return s.handlePaymentDisputed(ctx, intent)
	case gateway.IntentStatusCanceled:
		s.logger.Info().Str("quote_id", intent.TopUpQuoteID).Msg("checkout session canceled, leaving quote to passive expiry")
		return nil
	default:
		return nil
	}
}

func (s *TopUpService) handlePaymentSucceeded(ctx context.Context, intent gateway.Intent) error {
	exists, err := s.ledger.CheckForExistingPaymentByTopUpQuoteID(ctx, intent.TopUpQuoteID)
	if err != nil {
		return fmt.Errorf("topup: check existing payment: %w", err)
	}
	if exists {
		s.logger.Info().Str("quote_id", intent.TopUpQuoteID).Msg("duplicate webhook delivery, ignoring")
		return nil
	}

	quote, err := s.ledger.GetTopUpQuote(ctx, intent.TopUpQuoteID)
	if err != nil {
		return fmt.Errorf("topup: load quote: %w", err)
	}

	gift, err := s.ledger.CreatePaymentReceipt(ctx, domain.CreatePaymentReceiptParams{
		TopUpQuoteID:  intent.TopUpQuoteID,
		PaymentAmount: intent.PaymentAmount,
		Currency:      intent.Currency,
		ReceiptID:     uuid.New().String(),
		ReceiptDate:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("topup: create payment receipt: %w", err)
	}

	if gift != nil {
		s.logger.Info().Str("quote_id", intent.TopUpQuoteID).Str("recipient_email", gift.RecipientEmail).Msg("gift issued, awaiting redemption")
		return nil
	}

	if quote.DestAddressType.IsChainAddress() {
		balance, err := s.ledger.GetBalance(ctx, quote.DestAddress)
		if err != nil {
			s.logger.Warn().Err(err).Str("user_address", quote.DestAddress).Msg("failed to load balance for broadcast")
			return nil
		}
		s.publisher.Publish(quote.DestAddress, websocket.BalanceUpdated(websocket.BalancePayload{
			UserAddress: quote.DestAddress,
			WincBalance: balance.String(),
		}))
	}
	return nil
}

func (s *TopUpService) handlePaymentDisputed(ctx context.Context, intent gateway.Intent) error {
	chargebackID := uuid.New().String()
	if err := s.ledger.CreateChargebackReceipt(ctx, domain.CreateChargebackReceiptParams{
		TopUpQuoteID: intent.TopUpQuoteID,
		Reason:       "dispute",
		ChargebackID: chargebackID,
	}); err != nil {
		return fmt.Errorf("topup: create chargeback receipt: %w", err)
	}
	s.logger.Info().Str("quote_id", intent.TopUpQuoteID).Str("chargeback_id", chargebackID).Msg("chargeback processed")
	return nil
}

// RedeemGift moves an unredeemed gift to its terminal state and
// broadcasts the recipient's new balance.
func (s *TopUpService) RedeemGift(ctx context.Context, params domain.RedeemGiftParams) (*domain.RedeemGiftResult, error) {
	result, err := s.ledger.RedeemGift(ctx, params)
	if err != nil {
		return nil, err
	}

	if result.User != nil {
		s.publisher.Publish(result.User.Address, websocket.BalanceUpdated(websocket.BalancePayload{
			UserAddress: result.User.Address,
			WincBalance: result.User.WincBalance.String(),
		}))
	}
	return result, nil
}
