package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ardriveapp/turbo-winc-ledger/internal/domain"
	"github.com/ardriveapp/turbo-winc-ledger/internal/gateway"
	"github.com/ardriveapp/turbo-winc-ledger/internal/websocket"
	"github.com/rs/zerolog"
)

// gracePeriod is how long a pending transaction may go unobserved by
// the chain gateway before the poller gives up on it (spec §4.5's
// T_grace, "e.g. 48h").
const gracePeriod = 48 * time.Hour

// CryptoService creates pending crypto transactions and exposes the
// lookups the HTTP adapter needs; CryptoPoller (below) drives its
// periodic chain-status reconciliation.
type CryptoService struct {
	ledger              domain.Ledger
	excludedAddresses   map[string]bool
	publisher           websocket.EventPublisher
	logger              zerolog.Logger
}

// NewCryptoService creates a new CryptoService.
func NewCryptoService(ledger domain.Ledger, excludedAddresses []string, publisher websocket.EventPublisher, logger zerolog.Logger) *CryptoService {
	if publisher == nil {
		publisher = &websocket.NoOpPublisher{}
	}
	excluded := make(map[string]bool, len(excludedAddresses))
	for _, a := range excludedAddresses {
		excluded[a] = true
	}
	return &CryptoService{
		ledger:            ledger,
		excludedAddresses: excluded,
		publisher:         publisher,
		logger:            logger.With().Str("component", "crypto_service").Logger(),
	}
}

// CreatePendingTransaction validates the destination address isn't
// configured as excluded from crypto funding, then records the pending
// transaction for the poller to reconcile.
func (s *CryptoService) CreatePendingTransaction(ctx context.Context, params domain.CreatePendingTransactionParams) error {
	if s.excludedAddresses[params.DestAddress] {
		return fmt.Errorf("%w: destination address is excluded from crypto funding", domain.ErrPaymentMismatch)
	}
	if err := s.ledger.CreatePendingTransaction(ctx, params); err != nil {
		return fmt.Errorf("crypto: create pending transaction: %w", err)
	}
	s.logger.Info().Str("transaction_id", params.TransactionID).Str("dest_address", params.DestAddress).Msg("pending crypto transaction recorded")
	return nil
}

// CheckForPendingTransaction reports which of the three crypto
// transaction tables transactionID currently lives in, if any.
func (s *CryptoService) CheckForPendingTransaction(ctx context.Context, transactionID string) (domain.PendingTransactionRecord, error) {
	return s.ledger.CheckForPendingTransaction(ctx, transactionID)
}

// CryptoPoller periodically reconciles every pending crypto transaction
// against the configured chain-status gateway (spec §4.5), adapted
// from the teacher's ticker/stopCh/doneCh worker shape.
type CryptoPoller struct {
	ledger  domain.Ledger
	chain   gateway.ChainStatusGateway
	crypto  *CryptoService
	logger  zerolog.Logger

	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewCryptoPoller creates a new CryptoPoller with the given polling
// interval.
func NewCryptoPoller(ledger domain.Ledger, chain gateway.ChainStatusGateway, crypto *CryptoService, interval time.Duration, logger zerolog.Logger) *CryptoPoller {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CryptoPoller{
		ledger:   ledger,
		chain:    chain,
		crypto:   crypto,
		interval: interval,
		logger:   logger.With().Str("component", "crypto_poller").Logger(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background polling loop.
func (p *CryptoPoller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	p.logger.Info().Dur("interval", p.interval).Msg("starting crypto poller")
	go p.run(ctx)
}

// Stop gracefully stops the poller.
func (p *CryptoPoller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	close(p.stopCh)
	<-p.doneCh
	p.logger.Info().Msg("crypto poller stopped")
}

func (p *CryptoPoller) run(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			p.running = false
			p.mu.Unlock()
			return
		case <-p.stopCh:
			p.mu.Lock()
			p.running = false
			p.mu.Unlock()
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

// pollOnce drives a single poll tick; tests call it directly rather
// than waiting on the ticker.
func (p *CryptoPoller) pollOnce(ctx context.Context) {
	pending, err := p.ledger.ListPendingTransactions(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to list pending transactions")
		return
	}

	for _, tx := range pending {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		default:
		}
		p.reconcileOne(ctx, tx)
	}
}

func (p *CryptoPoller) reconcileOne(ctx context.Context, tx domain.PendingPaymentTransaction) {
	report, err := p.chain.GetTransactionStatus(ctx, tx.TransactionID)
	if err != nil {
		p.logger.Error().Err(err).Str("transaction_id", tx.TransactionID).Msg("chain status lookup failed")
		return
	}

	switch report.Status {
	case domain.ChainTransactionStatusConfirmed:
		blockHeight := int64(0)
		if report.BlockHeight != nil {
			blockHeight = *report.BlockHeight
		}
		if err := p.ledger.CreditPendingTransaction(ctx, tx.TransactionID, blockHeight); err != nil {
			p.logger.Error().Err(err).Str("transaction_id", tx.TransactionID).Msg("failed to credit confirmed transaction")
			return
		}
		p.crypto.publisher.Publish(tx.DestAddress, websocket.PendingTransactionSettled(websocket.PendingTransactionPayload{
			TransactionID: tx.TransactionID,
			UserAddress:   tx.DestAddress,
			WincAmount:    tx.WincAmount.String(),
			Status:        "confirmed",
		}))

	case domain.ChainTransactionStatusNotFound:
		if time.Since(tx.CreatedAt) > gracePeriod {
			if err := p.ledger.FailPendingTransaction(ctx, tx.TransactionID, "not found after grace"); err != nil {
				p.logger.Error().Err(err).Str("transaction_id", tx.TransactionID).Msg("failed to fail transaction")
				return
			}
			p.crypto.publisher.Publish(tx.DestAddress, websocket.PendingTransactionFailed(websocket.PendingTransactionPayload{
				TransactionID: tx.TransactionID,
				UserAddress:   tx.DestAddress,
				WincAmount:    tx.WincAmount.String(),
				Status:        "failed",
			}))
		}

	case domain.ChainTransactionStatusPending:
		// leave untouched; transient propagation delay
	}
}

