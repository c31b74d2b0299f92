package service

import (
	"context"
	"testing"
	"time"

	"github.com/ardriveapp/turbo-winc-ledger/internal/domain"
	"github.com/ardriveapp/turbo-winc-ledger/internal/money"
	"github.com/ardriveapp/turbo-winc-ledger/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePendingTransaction_RejectsExcludedAddress(t *testing.T) {
	ledger := testutil.NewFakeLedger()
	svc := NewCryptoService(ledger, []string{"banned-address"}, nil, zerolog.Nop())

	err := svc.CreatePendingTransaction(context.Background(), domain.CreatePendingTransactionParams{
		TransactionID: "tx-1",
		DestAddress:   "banned-address",
		WincAmount:    money.NewFromInt(100),
	})

	assert.ErrorIs(t, err, domain.ErrPaymentMismatch)
	_, err = ledger.CheckForPendingTransaction(context.Background(), "tx-1")
	require.NoError(t, err)
}

func TestCreatePendingTransaction_AllowsOrdinaryAddress(t *testing.T) {
	ledger := testutil.NewFakeLedger()
	svc := NewCryptoService(ledger, nil, nil, zerolog.Nop())

	err := svc.CreatePendingTransaction(context.Background(), domain.CreatePendingTransactionParams{
		TransactionID:   "tx-1",
		DestAddress:     "arweave-address",
		DestAddressType: domain.AddressTypeArweave,
		WincAmount:      money.NewFromInt(100),
	})
	require.NoError(t, err)

	rec, err := ledger.CheckForPendingTransaction(context.Background(), "tx-1")
	require.NoError(t, err)
	require.True(t, rec.Found())
	assert.NotNil(t, rec.Pending)
}

func TestCryptoPoller_CreditsConfirmedTransaction(t *testing.T) {
	ledger := testutil.NewFakeLedger()
	chain := testutil.NewFakeChainStatusGateway()
	crypto := NewCryptoService(ledger, nil, nil, zerolog.Nop())
	poller := NewCryptoPoller(ledger, chain, crypto, time.Minute, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, crypto.CreatePendingTransaction(ctx, domain.CreatePendingTransactionParams{
		TransactionID:   "tx-confirmed",
		DestAddress:     "arweave-address",
		DestAddressType: domain.AddressTypeArweave,
		WincAmount:      money.NewFromInt(250),
	}))

	blockHeight := int64(12345)
	chain.SetStatus("tx-confirmed", domain.ChainTransactionReport{
		Status:      domain.ChainTransactionStatusConfirmed,
		BlockHeight: &blockHeight,
	})

	poller.pollOnce(ctx)

	rec, err := ledger.CheckForPendingTransaction(ctx, "tx-confirmed")
	require.NoError(t, err)
	require.NotNil(t, rec.Credited)
	assert.Equal(t, blockHeight, rec.Credited.BlockHeight)

	balance, err := ledger.GetBalance(ctx, "arweave-address")
	require.NoError(t, err)
	assert.Equal(t, "250", balance.String())
}

func TestCryptoPoller_LeavesRecentNotFoundTransactionPending(t *testing.T) {
	ledger := testutil.NewFakeLedger()
	chain := testutil.NewFakeChainStatusGateway()
	crypto := NewCryptoService(ledger, nil, nil, zerolog.Nop())
	poller := NewCryptoPoller(ledger, chain, crypto, time.Minute, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, crypto.CreatePendingTransaction(ctx, domain.CreatePendingTransactionParams{
		TransactionID:   "tx-fresh",
		DestAddress:     "arweave-address",
		DestAddressType: domain.AddressTypeArweave,
		WincAmount:      money.NewFromInt(250),
	}))

	poller.pollOnce(ctx)

	rec, err := ledger.CheckForPendingTransaction(ctx, "tx-fresh")
	require.NoError(t, err)
	assert.NotNil(t, rec.Pending, "a transaction younger than the grace period must stay pending")
}

func TestCryptoPoller_FailsTransactionPastGracePeriod(t *testing.T) {
	ledger := testutil.NewFakeLedger()
	chain := testutil.NewFakeChainStatusGateway()
	crypto := NewCryptoService(ledger, nil, nil, zerolog.Nop())
	poller := NewCryptoPoller(ledger, chain, crypto, time.Minute, zerolog.Nop())
	ctx := context.Background()

	ledger.CreatePendingTransactionFn = func(ctx context.Context, params domain.CreatePendingTransactionParams) error {
		ledger.Pending[params.TransactionID] = domain.PendingPaymentTransaction{PaymentTransactionSnapshot: domain.PaymentTransactionSnapshot{
			TransactionID:   params.TransactionID,
			DestAddress:     params.DestAddress,
			DestAddressType: params.DestAddressType,
			WincAmount:      params.WincAmount,
			CreatedAt:       time.Now().UTC().Add(-49 * time.Hour),
		}}
		return nil
	}
	require.NoError(t, crypto.CreatePendingTransaction(ctx, domain.CreatePendingTransactionParams{
		TransactionID:   "tx-stale",
		DestAddress:     "arweave-address",
		DestAddressType: domain.AddressTypeArweave,
		WincAmount:      money.NewFromInt(250),
	}))

	poller.pollOnce(ctx)

	rec, err := ledger.CheckForPendingTransaction(ctx, "tx-stale")
	require.NoError(t, err)
	require.NotNil(t, rec.Failed)
	assert.Equal(t, "not found after grace", rec.Failed.FailedReason)
}

func TestCryptoPoller_StartStopIsIdempotentAndGraceful(t *testing.T) {
	ledger := testutil.NewFakeLedger()
	chain := testutil.NewFakeChainStatusGateway()
	crypto := NewCryptoService(ledger, nil, nil, zerolog.Nop())
	poller := NewCryptoPoller(ledger, chain, crypto, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller.Start(ctx)
	poller.Start(ctx) // second Start must be a no-op, not a double-registered goroutine
	poller.Stop()
}
