package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/ardriveapp/turbo-winc-ledger/internal/domain"
	"github.com/ardriveapp/turbo-winc-ledger/internal/gateway"
	"github.com/ardriveapp/turbo-winc-ledger/internal/money"
)

// FakeLedger is a map-backed implementation of domain.Ledger for tests
// that exercise a service or handler without a real Postgres instance.
// Every method has an optional *Fn override hook for tests that need
// precise control over a single call's behavior or error path.
type FakeLedger struct {
	mu sync.Mutex

	Quotes            map[string]domain.TopUpQuote
	Receipts          map[string]domain.PaymentReceipt
	ReceiptsByQuoteID map[string]string
	Chargebacks       map[string]domain.ChargebackReceipt
	UnredeemedGifts   map[string]domain.UnredeemedGift
	RedeemedGifts     map[string]domain.RedeemedGift
	Users             map[string]*domain.User
	Reservations      map[string]domain.BalanceReservation
	Pending           map[string]domain.PendingPaymentTransaction
	Failed            map[string]domain.FailedPaymentTransaction
	Credited          map[string]domain.CreditedPaymentTransaction
	UploadAdjustments []domain.AppliedAdjustment

	CreateTopUpQuoteFn                       func(ctx context.Context, quote domain.TopUpQuote, adjustments []domain.PaymentAdjustment) error
	GetTopUpQuoteFn                          func(ctx context.Context, quoteID string) (*domain.TopUpQuote, error)
	GetPaymentReceiptFn                      func(ctx context.Context, receiptID string) (*domain.PaymentReceipt, error)
	GetChargebackReceiptFn                   func(ctx context.Context, chargebackID string) (*domain.ChargebackReceipt, error)
	CreatePaymentReceiptFn                   func(ctx context.Context, params domain.CreatePaymentReceiptParams) (*domain.UnredeemedGift, error)
	CreateBypassedPaymentReceiptsFn          func(ctx context.Context, batch []domain.BypassedPaymentReceiptItem) error
	CreateChargebackReceiptFn                func(ctx context.Context, params domain.CreateChargebackReceiptParams) error
	CheckForExistingPaymentByTopUpQuoteIDFn  func(ctx context.Context, quoteID string) (bool, error)
	RedeemGiftFn                             func(ctx context.Context, params domain.RedeemGiftParams) (*domain.RedeemGiftResult, error)
	GetBalanceFn                             func(ctx context.Context, userAddress string) (money.Winc, error)
	ReserveBalanceFn                         func(ctx context.Context, params domain.ReserveBalanceParams) (*domain.BalanceReservation, error)
	RefundBalanceFn                          func(ctx context.Context, userAddress string, wincAmount money.Winc, dataItemID *string) error
	CreatePendingTransactionFn               func(ctx context.Context, params domain.CreatePendingTransactionParams) error
	CreditPendingTransactionFn               func(ctx context.Context, transactionID string, blockHeight int64) error
	FailPendingTransactionFn                 func(ctx context.Context, transactionID string, reason string) error
	CheckForPendingTransactionFn             func(ctx context.Context, transactionID string) (domain.PendingTransactionRecord, error)
	CreateNewCreditedTransactionFn           func(ctx context.Context, params domain.CreatePendingTransactionParams, blockHeight int64) error
	ListPendingTransactionsFn                func(ctx context.Context) ([]domain.PendingPaymentTransaction, error)
	GetWincUsedForUploadAdjustmentCatalogFn  func(ctx context.Context, userAddress, catalogID string, interval int, unit domain.LimitationIntervalUnit) (money.Winc, error)
}

// NewFakeLedger creates an empty FakeLedger.
func NewFakeLedger() *FakeLedger {
	return &FakeLedger{
		Quotes:            make(map[string]domain.TopUpQuote),
		Receipts:          make(map[string]domain.PaymentReceipt),
		ReceiptsByQuoteID: make(map[string]string),
		Chargebacks:       make(map[string]domain.ChargebackReceipt),
		UnredeemedGifts:   make(map[string]domain.UnredeemedGift),
		RedeemedGifts:     make(map[string]domain.RedeemedGift),
		Users:             make(map[string]*domain.User),
		Reservations:      make(map[string]domain.BalanceReservation),
		Pending:           make(map[string]domain.PendingPaymentTransaction),
		Failed:            make(map[string]domain.FailedPaymentTransaction),
		Credited:          make(map[string]domain.CreditedPaymentTransaction),
	}
}

func (f *FakeLedger) CreateTopUpQuote(ctx context.Context, quote domain.TopUpQuote, adjustments []domain.PaymentAdjustment) error {
	if f.CreateTopUpQuoteFn != nil {
		return f.CreateTopUpQuoteFn(ctx, quote, adjustments)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Quotes[quote.QuoteID] = quote
	return nil
}

func (f *FakeLedger) GetTopUpQuote(ctx context.Context, quoteID string) (*domain.TopUpQuote, error) {
	if f.GetTopUpQuoteFn != nil {
		return f.GetTopUpQuoteFn(ctx, quoteID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.Quotes[quoteID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &q, nil
}

func (f *FakeLedger) GetPaymentReceipt(ctx context.Context, receiptID string) (*domain.PaymentReceipt, error) {
	if f.GetPaymentReceiptFn != nil {
		return f.GetPaymentReceiptFn(ctx, receiptID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.Receipts[receiptID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (f *FakeLedger) GetChargebackReceipt(ctx context.Context, chargebackID string) (*domain.ChargebackReceipt, error) {
	if f.GetChargebackReceiptFn != nil {
		return f.GetChargebackReceiptFn(ctx, chargebackID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.Chargebacks[chargebackID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (f *FakeLedger) CreatePaymentReceipt(ctx context.Context, params domain.CreatePaymentReceiptParams) (*domain.UnredeemedGift, error) {
	if f.CreatePaymentReceiptFn != nil {
		return f.CreatePaymentReceiptFn(ctx, params)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	quote, ok := f.Quotes[params.TopUpQuoteID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if quote.HasExpired(params.ReceiptDate) {
		return nil, domain.ErrNotFound
	}
	if params.Currency != quote.Currency {
		return nil, domain.ErrPaymentMismatch
	}
	delete(f.Quotes, params.TopUpQuoteID)

	receipt := domain.PaymentReceipt{PaymentReceiptSnapshot: domain.PaymentReceiptSnapshot{
		TopUpQuoteSnapshot: quote.TopUpQuoteSnapshot,
		ReceiptID:          params.ReceiptID,
		ReceiptDate:        params.ReceiptDate,
	}}
	f.Receipts[params.ReceiptID] = receipt
	f.ReceiptsByQuoteID[params.TopUpQuoteID] = params.ReceiptID

	if quote.DestAddressType == domain.DestAddressTypeEmail {
		gift := domain.UnredeemedGift{
			ReceiptID:      params.ReceiptID,
			WincAmount:     quote.WincAmount,
			RecipientEmail: quote.DestAddress,
			GiftMessage:    quote.GiftMessage,
			CreatedAt:      params.ReceiptDate,
			ExpiresAt:      params.ReceiptDate.Add(30 * 24 * time.Hour),
		}
		f.UnredeemedGifts[params.ReceiptID] = gift
		return &gift, nil
	}

	f.creditOrCreateUser(quote.DestAddress, domain.AddressType(quote.DestAddressType), quote.WincAmount)
	return nil, nil
}

func (f *FakeLedger) CreateBypassedPaymentReceipts(ctx context.Context, batch []domain.BypassedPaymentReceiptItem) error {
	if f.CreateBypassedPaymentReceiptsFn != nil {
		return f.CreateBypassedPaymentReceiptsFn(ctx, batch)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range batch {
		if item.DestAddressType == domain.DestAddressTypeEmail {
			f.UnredeemedGifts[item.ReceiptID] = domain.UnredeemedGift{
				ReceiptID:      item.ReceiptID,
				WincAmount:     item.WincAmount,
				RecipientEmail: item.DestAddress,
				GiftMessage:    item.GiftMessage,
			}
			continue
		}
		f.creditOrCreateUser(item.DestAddress, domain.AddressType(item.DestAddressType), item.WincAmount)
	}
	return nil
}

func (f *FakeLedger) CreateChargebackReceipt(ctx context.Context, params domain.CreateChargebackReceiptParams) error {
	if f.CreateChargebackReceiptFn != nil {
		return f.CreateChargebackReceiptFn(ctx, params)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	receiptID, ok := f.ReceiptsByQuoteID[params.TopUpQuoteID]
	if !ok {
		return domain.ErrNotFound
	}
	receipt := f.Receipts[receiptID]
	delete(f.Receipts, receiptID)

	f.Chargebacks[params.ChargebackID] = domain.ChargebackReceipt{ChargebackReceiptSnapshot: domain.ChargebackReceiptSnapshot{
		PaymentReceiptSnapshot: receipt.PaymentReceiptSnapshot,
		ChargebackID:           params.ChargebackID,
		Reason:                 params.Reason,
		ChargebackDate:         time.Now().UTC(),
	}}

	if user, ok := f.Users[receipt.DestAddress]; ok {
		user.WincBalance = user.WincBalance.Minus(receipt.WincAmount)
	}
	return nil
}

func (f *FakeLedger) CheckForExistingPaymentByTopUpQuoteID(ctx context.Context, quoteID string) (bool, error) {
	if f.CheckForExistingPaymentByTopUpQuoteIDFn != nil {
		return f.CheckForExistingPaymentByTopUpQuoteIDFn(ctx, quoteID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, receipted := f.ReceiptsByQuoteID[quoteID]
	return receipted, nil
}

func (f *FakeLedger) RedeemGift(ctx context.Context, params domain.RedeemGiftParams) (*domain.RedeemGiftResult, error) {
	if f.RedeemGiftFn != nil {
		return f.RedeemGiftFn(ctx, params)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	gift, ok := f.UnredeemedGifts[params.ReceiptID]
	if !ok {
		if _, redeemed := f.RedeemedGifts[params.ReceiptID]; redeemed {
			return nil, domain.ErrGiftAlreadyRedeemed
		}
		return nil, domain.ErrGiftRedemptionError
	}
	if gift.RecipientEmail != params.RecipientEmail {
		return nil, domain.ErrGiftRedemptionError
	}
	delete(f.UnredeemedGifts, params.ReceiptID)
	f.RedeemedGifts[params.ReceiptID] = domain.RedeemedGift{
		ReceiptID:       gift.ReceiptID,
		WincAmount:      gift.WincAmount,
		RecipientEmail:  gift.RecipientEmail,
		SenderEmail:     gift.SenderEmail,
		GiftMessage:     gift.GiftMessage,
		CreatedAt:       gift.CreatedAt,
		DestAddress:     params.DestAddress,
		DestAddressType: params.DestAddressType,
		RedeemedAt:      time.Now().UTC(),
	}

	user := f.creditOrCreateUser(params.DestAddress, params.DestAddressType, gift.WincAmount)
	return &domain.RedeemGiftResult{User: user, WincRedeemed: gift.WincAmount}, nil
}

func (f *FakeLedger) GetBalance(ctx context.Context, userAddress string) (money.Winc, error) {
	if f.GetBalanceFn != nil {
		return f.GetBalanceFn(ctx, userAddress)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.Users[userAddress]
	if !ok {
		return money.Zero, domain.ErrUserNotFoundWarning
	}
	return user.WincBalance, nil
}

func (f *FakeLedger) ReserveBalance(ctx context.Context, params domain.ReserveBalanceParams) (*domain.BalanceReservation, error) {
	if f.ReserveBalanceFn != nil {
		return f.ReserveBalanceFn(ctx, params)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.Users[params.UserAddress]
	if !ok {
		if params.ReservedWinc.IsNonZeroPositiveInteger() {
			return nil, domain.ErrUserNotFoundWarning
		}
		user = &domain.User{Address: params.UserAddress, AddressType: params.UserAddressType, WincBalance: money.Zero, CreatedAt: time.Now().UTC()}
		f.Users[params.UserAddress] = user
	}

	newBalance := money.Difference(user.WincBalance, params.ReservedWinc)
	if newBalance.IsNonZeroNegativeInteger() {
		return nil, domain.ErrInsufficientBalance
	}
	user.WincBalance = newBalance

	reservation := domain.BalanceReservation{
		ReservationID: params.DataItemID,
		DataItemID:    params.DataItemID,
		UserAddress:   params.UserAddress,
		NetworkWinc:   params.NetworkWinc,
		ReservedWinc:  params.ReservedWinc,
		ReservedAt:    time.Now().UTC(),
	}
	f.Reservations[reservation.ReservationID] = reservation
	f.UploadAdjustments = append(f.UploadAdjustments, params.Adjustments...)
	return &reservation, nil
}

func (f *FakeLedger) RefundBalance(ctx context.Context, userAddress string, wincAmount money.Winc, dataItemID *string) error {
	if f.RefundBalanceFn != nil {
		return f.RefundBalanceFn(ctx, userAddress, wincAmount, dataItemID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.Users[userAddress]
	if !ok {
		return domain.ErrUserNotFoundWarning
	}
	user.WincBalance = user.WincBalance.Plus(wincAmount)
	return nil
}

func (f *FakeLedger) CreatePendingTransaction(ctx context.Context, params domain.CreatePendingTransactionParams) error {
	if f.CreatePendingTransactionFn != nil {
		return f.CreatePendingTransactionFn(ctx, params)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Pending[params.TransactionID] = domain.PendingPaymentTransaction{PaymentTransactionSnapshot: domain.PaymentTransactionSnapshot{
		TransactionID:       params.TransactionID,
		TokenType:           params.TokenType,
		TransactionQuantity: params.TransactionQuantity,
		WincAmount:          params.WincAmount,
		DestAddress:         params.DestAddress,
		DestAddressType:     params.DestAddressType,
		CreatedAt:           time.Now().UTC(),
	}}
	return nil
}

func (f *FakeLedger) CreditPendingTransaction(ctx context.Context, transactionID string, blockHeight int64) error {
	if f.CreditPendingTransactionFn != nil {
		return f.CreditPendingTransactionFn(ctx, transactionID, blockHeight)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.Pending[transactionID]
	if !ok {
		return domain.ErrPaymentTransactionNotFound
	}
	delete(f.Pending, transactionID)
	f.Credited[transactionID] = domain.CreditedPaymentTransaction{
		PaymentTransactionSnapshot: p.PaymentTransactionSnapshot,
		BlockHeight:                blockHeight,
		CreditedAt:                 time.Now().UTC(),
	}
	f.creditOrCreateUser(p.DestAddress, p.DestAddressType, p.WincAmount)
	return nil
}

func (f *FakeLedger) FailPendingTransaction(ctx context.Context, transactionID string, reason string) error {
	if f.FailPendingTransactionFn != nil {
		return f.FailPendingTransactionFn(ctx, transactionID, reason)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.Pending[transactionID]
	if !ok {
		return domain.ErrPaymentTransactionNotFound
	}
	delete(f.Pending, transactionID)
	f.Failed[transactionID] = domain.FailedPaymentTransaction{
		PaymentTransactionSnapshot: p.PaymentTransactionSnapshot,
		FailedAt:                   time.Now().UTC(),
		FailedReason:               reason,
	}
	return nil
}

func (f *FakeLedger) CheckForPendingTransaction(ctx context.Context, transactionID string) (domain.PendingTransactionRecord, error) {
	if f.CheckForPendingTransactionFn != nil {
		return f.CheckForPendingTransactionFn(ctx, transactionID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var rec domain.PendingTransactionRecord
	if p, ok := f.Pending[transactionID]; ok {
		rec.Pending = &p
	}
	if fa, ok := f.Failed[transactionID]; ok {
		rec.Failed = &fa
	}
	if c, ok := f.Credited[transactionID]; ok {
		rec.Credited = &c
	}
	return rec, nil
}

func (f *FakeLedger) CreateNewCreditedTransaction(ctx context.Context, params domain.CreatePendingTransactionParams, blockHeight int64) error {
	if f.CreateNewCreditedTransactionFn != nil {
		return f.CreateNewCreditedTransactionFn(ctx, params, blockHeight)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Credited[params.TransactionID] = domain.CreditedPaymentTransaction{
		PaymentTransactionSnapshot: domain.PaymentTransactionSnapshot{
			TransactionID:       params.TransactionID,
			TokenType:           params.TokenType,
			TransactionQuantity: params.TransactionQuantity,
			WincAmount:          params.WincAmount,
			DestAddress:         params.DestAddress,
			DestAddressType:     params.DestAddressType,
			CreatedAt:           time.Now().UTC(),
		},
		BlockHeight: blockHeight,
		CreditedAt:  time.Now().UTC(),
	}
	f.creditOrCreateUser(params.DestAddress, params.DestAddressType, params.WincAmount)
	return nil
}

func (f *FakeLedger) ListPendingTransactions(ctx context.Context) ([]domain.PendingPaymentTransaction, error) {
	if f.ListPendingTransactionsFn != nil {
		return f.ListPendingTransactionsFn(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]domain.PendingPaymentTransaction, 0, len(f.Pending))
	for _, p := range f.Pending {
		result = append(result, p)
	}
	return result, nil
}

func (f *FakeLedger) GetWincUsedForUploadAdjustmentCatalog(ctx context.Context, userAddress, catalogID string, interval int, unit domain.LimitationIntervalUnit) (money.Winc, error) {
	if f.GetWincUsedForUploadAdjustmentCatalogFn != nil {
		return f.GetWincUsedForUploadAdjustmentCatalogFn(ctx, userAddress, catalogID, interval, unit)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	total := money.Zero
	for _, adj := range f.UploadAdjustments {
		if adj.UserAddress == userAddress && adj.CatalogID == catalogID {
			total = total.Plus(adj.WincDelta)
		}
	}
	return total, nil
}

// creditOrCreateUser must be called with f.mu held.
func (f *FakeLedger) creditOrCreateUser(address string, addressType domain.AddressType, delta money.Winc) *domain.User {
	user, ok := f.Users[address]
	if !ok {
		user = &domain.User{Address: address, AddressType: addressType, WincBalance: money.Zero, CreatedAt: time.Now().UTC()}
		f.Users[address] = user
	}
	user.WincBalance = user.WincBalance.Plus(delta)
	return user
}

var _ domain.Ledger = (*FakeLedger)(nil)

// FakeUserRepository is a map-backed domain.UserRepository.
type FakeUserRepository struct {
	mu    sync.Mutex
	Users map[string]*domain.User

	GetByAddressFn func(ctx context.Context, address string) (*domain.User, error)
}

// NewFakeUserRepository creates an empty FakeUserRepository.
func NewFakeUserRepository() *FakeUserRepository {
	return &FakeUserRepository{Users: make(map[string]*domain.User)}
}

func (f *FakeUserRepository) GetByAddress(ctx context.Context, address string) (*domain.User, error) {
	if f.GetByAddressFn != nil {
		return f.GetByAddressFn(ctx, address)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.Users[address]
	if !ok {
		return nil, domain.ErrUserNotFoundWarning
	}
	return user, nil
}

// AddUser adds a user to the fake repository (helper for tests).
func (f *FakeUserRepository) AddUser(user *domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Users[user.Address] = user
}

var _ domain.UserRepository = (*FakeUserRepository)(nil)

// FakeCatalogRepository is a map/slice-backed domain.CatalogRepository.
type FakeCatalogRepository struct {
	mu sync.Mutex

	UploadCatalogs        []domain.UploadAdjustmentCatalog
	PaymentCatalogs       []domain.PaymentAdjustmentCatalog
	SingleUseCatalogs     []domain.SingleUseCodeCatalog
	UsageByCatalog        map[string]int
	UsersWithReceipts     map[string]bool
	UserCatalogUsage      map[string]bool
	WincUsedByUserCatalog map[string]money.Winc

	GetUploadAdjustmentCatalogsFn        func(now time.Time) ([]domain.UploadAdjustmentCatalog, error)
	GetPaymentAdjustmentCatalogsFn       func(now time.Time) ([]domain.PaymentAdjustmentCatalog, error)
	GetSingleUseCodeCatalogsByValueFn    func(now time.Time, code string) ([]domain.SingleUseCodeCatalog, error)
	CountPaymentAdjustmentsByCatalogFn   func(catalogID string) (int, error)
	UserHasPaymentReceiptsFn             func(userAddress string) (bool, error)
	UserHasAdjustmentForCatalogFn        func(userAddress, catalogID string) (bool, error)
	WincUsedForUploadAdjustmentCatalogFn func(userAddress, catalogID string, since, now time.Time) (money.Winc, error)
}

// NewFakeCatalogRepository creates an empty FakeCatalogRepository.
func NewFakeCatalogRepository() *FakeCatalogRepository {
	return &FakeCatalogRepository{
		UsageByCatalog:        make(map[string]int),
		UsersWithReceipts:     make(map[string]bool),
		UserCatalogUsage:      make(map[string]bool),
		WincUsedByUserCatalog: make(map[string]money.Winc),
	}
}

func (f *FakeCatalogRepository) GetUploadAdjustmentCatalogs(now time.Time) ([]domain.UploadAdjustmentCatalog, error) {
	if f.GetUploadAdjustmentCatalogsFn != nil {
		return f.GetUploadAdjustmentCatalogsFn(now)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.UploadCatalogs, nil
}

func (f *FakeCatalogRepository) GetPaymentAdjustmentCatalogs(now time.Time) ([]domain.PaymentAdjustmentCatalog, error) {
	if f.GetPaymentAdjustmentCatalogsFn != nil {
		return f.GetPaymentAdjustmentCatalogsFn(now)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.PaymentCatalogs, nil
}

func (f *FakeCatalogRepository) GetSingleUseCodeCatalogsByValue(now time.Time, code string) ([]domain.SingleUseCodeCatalog, error) {
	if f.GetSingleUseCodeCatalogsByValueFn != nil {
		return f.GetSingleUseCodeCatalogsByValueFn(now, code)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.SingleUseCodeCatalog
	for _, c := range f.SingleUseCatalogs {
		if c.CodeValue == code {
			result = append(result, c)
		}
	}
	return result, nil
}

func (f *FakeCatalogRepository) CountPaymentAdjustmentsByCatalog(catalogID string) (int, error) {
	if f.CountPaymentAdjustmentsByCatalogFn != nil {
		return f.CountPaymentAdjustmentsByCatalogFn(catalogID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.UsageByCatalog[catalogID], nil
}

func (f *FakeCatalogRepository) UserHasPaymentReceipts(userAddress string) (bool, error) {
	if f.UserHasPaymentReceiptsFn != nil {
		return f.UserHasPaymentReceiptsFn(userAddress)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.UsersWithReceipts[userAddress], nil
}

func (f *FakeCatalogRepository) UserHasAdjustmentForCatalog(userAddress, catalogID string) (bool, error) {
	if f.UserHasAdjustmentForCatalogFn != nil {
		return f.UserHasAdjustmentForCatalogFn(userAddress, catalogID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.UserCatalogUsage[userAddress+"|"+catalogID], nil
}

func (f *FakeCatalogRepository) WincUsedForUploadAdjustmentCatalog(userAddress, catalogID string, since, now time.Time) (money.Winc, error) {
	if f.WincUsedForUploadAdjustmentCatalogFn != nil {
		return f.WincUsedForUploadAdjustmentCatalogFn(userAddress, catalogID, since, now)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.WincUsedByUserCatalog[userAddress+"|"+catalogID]; ok {
		return w, nil
	}
	return money.Zero, nil
}

var _ domain.CatalogRepository = (*FakeCatalogRepository)(nil)

// FakeChainStatusGateway is a map-backed gateway.ChainStatusGateway.
type FakeChainStatusGateway struct {
	mu       sync.Mutex
	Statuses map[string]domain.ChainTransactionReport

	GetTransactionStatusFn func(ctx context.Context, txID string) (domain.ChainTransactionReport, error)
}

// NewFakeChainStatusGateway creates an empty FakeChainStatusGateway.
func NewFakeChainStatusGateway() *FakeChainStatusGateway {
	return &FakeChainStatusGateway{Statuses: make(map[string]domain.ChainTransactionReport)}
}

func (f *FakeChainStatusGateway) GetTransactionStatus(ctx context.Context, txID string) (domain.ChainTransactionReport, error) {
	if f.GetTransactionStatusFn != nil {
		return f.GetTransactionStatusFn(ctx, txID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if report, ok := f.Statuses[txID]; ok {
		return report, nil
	}
	return domain.ChainTransactionReport{Status: domain.ChainTransactionStatusNotFound}, nil
}

// SetStatus records the status txID should report (helper for tests).
func (f *FakeChainStatusGateway) SetStatus(txID string, report domain.ChainTransactionReport) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Statuses[txID] = report
}

var _ gateway.ChainStatusGateway = (*FakeChainStatusGateway)(nil)

// FakePaymentGateway is a map-backed gateway.PaymentGateway.
type FakePaymentGateway struct {
	mu      sync.Mutex
	Intents map[string]gateway.Intent

	CreateCheckoutSessionFn func(ctx context.Context, quoteID string, amount money.PaymentAmount, currency string) (gateway.CheckoutSession, error)
	ParseWebhookEventFn     func(ctx context.Context, payload []byte, signatureHeader string) (gateway.Intent, error)
}

// NewFakePaymentGateway creates an empty FakePaymentGateway.
func NewFakePaymentGateway() *FakePaymentGateway {
	return &FakePaymentGateway{Intents: make(map[string]gateway.Intent)}
}

func (f *FakePaymentGateway) CreateCheckoutSession(ctx context.Context, quoteID string, amount money.PaymentAmount, currency string) (gateway.CheckoutSession, error) {
	if f.CreateCheckoutSessionFn != nil {
		return f.CreateCheckoutSessionFn(ctx, quoteID, amount, currency)
	}
	return gateway.CheckoutSession{SessionID: "cs_" + quoteID, RedirectURL: "https://checkout.example.com/" + quoteID}, nil
}

func (f *FakePaymentGateway) ParseWebhookEvent(ctx context.Context, payload []byte, signatureHeader string) (gateway.Intent, error) {
	if f.ParseWebhookEventFn != nil {
		return f.ParseWebhookEventFn(ctx, payload, signatureHeader)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	intent, ok := f.Intents[signatureHeader]
	if !ok {
		return gateway.Intent{}, domain.ErrInvalidInput
	}
	return intent, nil
}

// SetIntent registers the Intent ParseWebhookEvent should return when
// called with signatureHeader as the lookup key (helper for tests).
func (f *FakePaymentGateway) SetIntent(signatureHeader string, intent gateway.Intent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Intents[signatureHeader] = intent
}

var _ gateway.PaymentGateway = (*FakePaymentGateway)(nil)
