// Package gateway defines the two external collaborator contracts of
// spec §6: the crypto chain-status probe and the fiat payment gateway.
// Both are opaque to the ledger core — it only sees the shapes
// declared here, never a chain SDK or a payment processor's own types.
package gateway

import (
	"context"

	"github.com/ardriveapp/turbo-winc-ledger/internal/domain"
)

// ChainStatusGateway is consumed by the pending-tx poller (spec §4.5).
type ChainStatusGateway interface {
	GetTransactionStatus(ctx context.Context, txID string) (domain.ChainTransactionReport, error)
}

// NoopChainStatusGateway always reports a transaction as not found. It
// documents the contract shape without a live chain client — no chain
// SDK appears anywhere in the retrieval pack this module was built
// from, so a real implementation (one per supported AddressType) is
// left for a follow-up.
type NoopChainStatusGateway struct{}

// GetTransactionStatus implements ChainStatusGateway.
func (NoopChainStatusGateway) GetTransactionStatus(ctx context.Context, txID string) (domain.ChainTransactionReport, error) {
	return domain.ChainTransactionReport{Status: domain.ChainTransactionStatusNotFound}, nil
}
