package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardriveapp/turbo-winc-ledger/internal/domain"
	"github.com/ardriveapp/turbo-winc-ledger/internal/money"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// maxSerializationRetries bounds the transparent retry spec §7/§9
// describes for a DB serialization failure (SQLSTATE 40001/40P01).
const maxSerializationRetries = 3

// LedgerStore implements domain.Ledger directly against PostgreSQL via
// pgx, following the raw-SQL repository pattern (no generated query
// layer) already established by api_token_repo.go. It is constructed
// with a writer pool and an optional reader pool (spec §9 open
// question 1): reads inside a mutating transaction always go through
// the writer connection for read-your-writes; standalone read-only
// operations prefer the reader pool, falling back to the writer pool
// when none is configured.
type LedgerStore struct {
	writer            *pgxpool.Pool
	reader            *pgxpool.Pool
	logger            zerolog.Logger
	excludedAddresses map[string]bool
}

// NewLedgerStore constructs a LedgerStore. reader may be nil, in which
// case all reads also use writer.
func NewLedgerStore(writer, reader *pgxpool.Pool, logger zerolog.Logger, excludedAddresses []string) *LedgerStore {
	excluded := make(map[string]bool, len(excludedAddresses))
	for _, a := range excludedAddresses {
		excluded[a] = true
	}
	return &LedgerStore{
		writer:            writer,
		reader:            reader,
		logger:            logger.With().Str("component", "ledger_store").Logger(),
		excludedAddresses: excluded,
	}
}

func (s *LedgerStore) readPool() *pgxpool.Pool {
	if s.reader != nil {
		return s.reader
	}
	return s.writer
}

// withTx runs fn inside a writer transaction, retrying on a Postgres
// serialization failure (40001) or deadlock (40P01) up to
// maxSerializationRetries times, matching spec §7's retry policy.
func (s *LedgerStore) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt <= maxSerializationRetries; attempt++ {
		err := s.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !isSerializationFailure(err) {
			return err
		}
		lastErr = err
		s.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("retrying after serialization failure")
	}
	return lastErr
}

func (s *LedgerStore) runOnce(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.writer.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func appendAudit(ctx context.Context, tx pgx.Tx, userAddress string, delta money.Winc, reason domain.ChangeReason, changeID *string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO audit_log (user_address, winc_delta, change_reason, change_id, audit_date)
		VALUES ($1, $2, $3, $4, now())`,
		userAddress, delta, reason, changeID)
	return err
}

// creditOrCreateUser loads the user row FOR UPDATE, creating it with
// the given addressType/balance if absent, or incrementing the
// existing balance, returning whether the user was newly created.
func creditOrCreateUser(ctx context.Context, tx pgx.Tx, address string, addressType domain.AddressType, delta money.Winc) (created bool, err error) {
	var existing money.Winc
	row := tx.QueryRow(ctx, `SELECT winc_balance FROM users WHERE address = $1 FOR UPDATE`, address)
	err = row.Scan(&existing)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		_, err = tx.Exec(ctx, `
			INSERT INTO users (address, address_type, winc_balance, promotional_info, created_at)
			VALUES ($1, $2, $3, '{}'::jsonb, now())`,
			address, addressType, delta)
		return true, err
	case err != nil:
		return false, err
	default:
		newBalance := existing.Plus(delta)
		_, err = tx.Exec(ctx, `UPDATE users SET winc_balance = $1 WHERE address = $2`, newBalance, address)
		return false, err
	}
}

// reassertPromoEligibility re-checks spec §4.4's eligibility predicate
// for every single-use catalog attached to quoteID, against the
// catalogs' live state (not their state at quote-creation time): a
// code that expired, hit its maxUses via a concurrent request, or
// whose targetUserGroup the destination address no longer satisfies
// must not be honored just because the quote captured it earlier.
// Self-reference (the very adjustment row being reasserted) is
// excluded from both the maxUses count and the per-user usage check,
// since it was written at quote-creation time precisely for this
// redemption.
func reassertPromoEligibility(ctx context.Context, tx pgx.Tx, quoteID, destAddress string, now time.Time) error {
	rows, err := tx.Query(ctx, `
		SELECT DISTINCT pa.catalog_id
		FROM payment_adjustment pa
		JOIN single_use_code_catalog c ON c.catalog_id = pa.catalog_id
		WHERE pa.top_up_quote_id = $1`, quoteID)
	if err != nil {
		return fmt.Errorf("load promo adjustments for quote %s: %w", quoteID, err)
	}
	var catalogIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		catalogIDs = append(catalogIDs, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, catalogID := range catalogIDs {
		var c domain.SingleUseCodeCatalog
		row := tx.QueryRow(ctx, `
			SELECT catalog_id, name, description, operator, operator_magnitude, priority, start_at, end_at,
				exclusivity, code_value, target_user_group, max_uses, minimum_payment_amount, maximum_discount_amount
			FROM single_use_code_catalog WHERE catalog_id = $1`, catalogID)
		if err := row.Scan(&c.CatalogID, &c.Name, &c.Description, &c.Operator, &c.OperatorMagnitude,
			&c.Priority, &c.StartAt, &c.EndAt, &c.Exclusivity, &c.CodeValue, &c.TargetUserGroup,
			&c.MaxUses, &c.MinimumPaymentAmount, &c.MaximumDiscountAmount); err != nil {
			return fmt.Errorf("load promo catalog %s: %w", catalogID, err)
		}

		if c.EndAt != nil && now.After(*c.EndAt) {
			return domain.ErrPromoCodeExpired
		}

		if c.MaxUses > 0 {
			var used int
			if err := tx.QueryRow(ctx, `SELECT count(*) FROM payment_adjustment WHERE catalog_id = $1`, catalogID).Scan(&used); err != nil {
				return fmt.Errorf("count promo uses of %s: %w", catalogID, err)
			}
			if used > c.MaxUses {
				return domain.ErrPromoCodeExceedsMaxUses
			}
		}

		if c.TargetUserGroup == domain.TargetUserGroupNew {
			var hasOtherReceipts bool
			if err := tx.QueryRow(ctx, `
				SELECT EXISTS(SELECT 1 FROM payment_receipt WHERE dest_address = $1)
					OR EXISTS(SELECT 1 FROM chargeback_receipt WHERE dest_address = $1)`, destAddress).Scan(&hasOtherReceipts); err != nil {
				return fmt.Errorf("check prior receipts for %s: %w", destAddress, err)
			}
			if hasOtherReceipts {
				return domain.ErrUserIneligibleForPromoCode
			}
		} else {
			var hasOtherAdjustment bool
			if err := tx.QueryRow(ctx, `
				SELECT EXISTS(SELECT 1 FROM payment_adjustment WHERE user_address = $1 AND catalog_id = $2 AND top_up_quote_id <> $3)`,
				destAddress, catalogID, quoteID).Scan(&hasOtherAdjustment); err != nil {
				return fmt.Errorf("check prior use of %s for %s: %w", catalogID, destAddress, err)
			}
			if hasOtherAdjustment {
				return domain.ErrUserIneligibleForPromoCode
			}
		}
	}
	return nil
}

// CreateTopUpQuote inserts a quote and its ordered payment adjustments
// in one transaction.
func (s *LedgerStore) CreateTopUpQuote(ctx context.Context, quote domain.TopUpQuote, adjustments []domain.PaymentAdjustment) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO top_up_quote (quote_id, dest_address, dest_address_type, payment_amount,
				quoted_payment_amount, currency, winc_amount, provider, expires_at, created_at, gift_message)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			quote.QuoteID, quote.DestAddress, quote.DestAddressType, quote.PaymentAmount,
			quote.QuotedPaymentAmount, quote.Currency, quote.WincAmount, quote.Provider,
			quote.ExpiresAt, quote.CreatedAt, quote.GiftMessage)
		if err != nil {
			return fmt.Errorf("insert quote: %w", err)
		}

		for _, adj := range adjustments {
			if _, err := tx.Exec(ctx, `
				INSERT INTO payment_adjustment (top_up_quote_id, catalog_id, index, payment_delta, user_address, created_at)
				VALUES ($1, $2, $3, $4, $5, now())`,
				quote.QuoteID, adj.CatalogID, adj.Index, adj.PaymentDelta, quote.DestAddress); err != nil {
				return fmt.Errorf("insert payment adjustment: %w", err)
			}
		}
		return nil
	})
}

// GetTopUpQuote is a read-only lookup of an active quote.
func (s *LedgerStore) GetTopUpQuote(ctx context.Context, quoteID string) (*domain.TopUpQuote, error) {
	row := s.readPool().QueryRow(ctx, `
		SELECT quote_id, dest_address, dest_address_type, payment_amount, quoted_payment_amount,
			currency, winc_amount, provider, expires_at, created_at, gift_message
		FROM top_up_quote WHERE quote_id = $1`, quoteID)

	var q domain.TopUpQuote
	err := row.Scan(&q.QuoteID, &q.DestAddress, &q.DestAddressType, &q.PaymentAmount, &q.QuotedPaymentAmount,
		&q.Currency, &q.WincAmount, &q.Provider, &q.ExpiresAt, &q.CreatedAt, &q.GiftMessage)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// GetPaymentReceipt is a read-only lookup of a materialized receipt.
func (s *LedgerStore) GetPaymentReceipt(ctx context.Context, receiptID string) (*domain.PaymentReceipt, error) {
	row := s.readPool().QueryRow(ctx, `
		SELECT receipt_id, top_up_quote_id, dest_address, dest_address_type, payment_amount,
			quoted_payment_amount, currency, winc_amount, provider, expires_at, created_at,
			gift_message, receipt_date
		FROM payment_receipt WHERE receipt_id = $1`, receiptID)

	var r domain.PaymentReceipt
	err := row.Scan(&r.ReceiptID, &r.QuoteID, &r.DestAddress, &r.DestAddressType, &r.PaymentAmount,
		&r.QuotedPaymentAmount, &r.Currency, &r.WincAmount, &r.Provider, &r.ExpiresAt, &r.CreatedAt,
		&r.GiftMessage, &r.ReceiptDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetChargebackReceipt is a read-only lookup of a materialized chargeback.
func (s *LedgerStore) GetChargebackReceipt(ctx context.Context, chargebackID string) (*domain.ChargebackReceipt, error) {
	row := s.readPool().QueryRow(ctx, `
		SELECT chargeback_id, receipt_id, top_up_quote_id, dest_address, dest_address_type,
			payment_amount, quoted_payment_amount, currency, winc_amount, provider, expires_at,
			created_at, gift_message, receipt_date, reason, chargeback_date
		FROM chargeback_receipt WHERE chargeback_id = $1`, chargebackID)

	var c domain.ChargebackReceipt
	err := row.Scan(&c.ChargebackID, &c.ReceiptID, &c.QuoteID, &c.DestAddress, &c.DestAddressType,
		&c.PaymentAmount, &c.QuotedPaymentAmount, &c.Currency, &c.WincAmount, &c.Provider, &c.ExpiresAt,
		&c.CreatedAt, &c.GiftMessage, &c.ReceiptDate, &c.Reason, &c.ChargebackDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreatePaymentReceipt implements spec §4.2's createPaymentReceipt.
func (s *LedgerStore) CreatePaymentReceipt(ctx context.Context, params domain.CreatePaymentReceiptParams) (*domain.UnredeemedGift, error) {
	var gift *domain.UnredeemedGift

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var q domain.TopUpQuote
		row := tx.QueryRow(ctx, `
			SELECT quote_id, dest_address, dest_address_type, payment_amount, quoted_payment_amount,
				currency, winc_amount, provider, expires_at, created_at, gift_message
			FROM top_up_quote WHERE quote_id = $1 FOR UPDATE`, params.TopUpQuoteID)
		if err := row.Scan(&q.QuoteID, &q.DestAddress, &q.DestAddressType, &q.PaymentAmount,
			&q.QuotedPaymentAmount, &q.Currency, &q.WincAmount, &q.Provider, &q.ExpiresAt, &q.CreatedAt,
			&q.GiftMessage); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}

		if q.HasExpired(params.ReceiptDate) {
			return domain.ErrNotFound
		}
		if params.Currency != q.Currency || !params.PaymentAmount.IsGreaterThanOrEqualTo(q.PaymentAmount) {
			return domain.ErrPaymentMismatch
		}

		if err := reassertPromoEligibility(ctx, tx, q.QuoteID, q.DestAddress, params.ReceiptDate); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM top_up_quote WHERE quote_id = $1`, q.QuoteID); err != nil {
			return fmt.Errorf("delete quote: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO payment_receipt (receipt_id, top_up_quote_id, dest_address, dest_address_type,
				payment_amount, quoted_payment_amount, currency, winc_amount, provider, expires_at,
				created_at, gift_message, receipt_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			params.ReceiptID, q.QuoteID, q.DestAddress, q.DestAddressType, q.PaymentAmount,
			q.QuotedPaymentAmount, q.Currency, q.WincAmount, q.Provider, q.ExpiresAt, q.CreatedAt,
			q.GiftMessage, params.ReceiptDate); err != nil {
			return fmt.Errorf("insert receipt: %w", err)
		}

		if q.DestAddressType == domain.DestAddressTypeEmail {
			expiresAt := params.ReceiptDate.Add(30 * 24 * time.Hour)
			if _, err := tx.Exec(ctx, `
				INSERT INTO unredeemed_gift (receipt_id, winc_amount, recipient_email, sender_email,
					gift_message, created_at, expires_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				params.ReceiptID, q.WincAmount, q.DestAddress, nil, q.GiftMessage, params.ReceiptDate, expiresAt); err != nil {
				return fmt.Errorf("insert unredeemed gift: %w", err)
			}
			if err := appendAudit(ctx, tx, q.DestAddress, money.Zero, domain.ChangeReasonGiftedPayment, &params.ReceiptID); err != nil {
				return err
			}
			gift = &domain.UnredeemedGift{
				ReceiptID:      params.ReceiptID,
				WincAmount:     q.WincAmount,
				RecipientEmail: q.DestAddress,
				GiftMessage:    q.GiftMessage,
				CreatedAt:      params.ReceiptDate,
				ExpiresAt:      expiresAt,
			}
			return nil
		}

		created, err := creditOrCreateUser(ctx, tx, q.DestAddress, domain.AddressType(q.DestAddressType), q.WincAmount)
		if err != nil {
			return fmt.Errorf("credit user: %w", err)
		}
		reason := domain.ChangeReasonPayment
		if created {
			reason = domain.ChangeReasonAccountCreation
		}
		return appendAudit(ctx, tx, q.DestAddress, q.WincAmount, reason, &params.ReceiptID)
	})
	if err != nil {
		return nil, err
	}
	return gift, nil
}

// CreateBypassedPaymentReceipts implements the admin-path batch
// creation of receipts with no backing quote.
func (s *LedgerStore) CreateBypassedPaymentReceipts(ctx context.Context, batch []domain.BypassedPaymentReceiptItem) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		for _, item := range batch {
			now := time.Now().UTC()
			if _, err := tx.Exec(ctx, `
				INSERT INTO payment_receipt (receipt_id, top_up_quote_id, dest_address, dest_address_type,
					payment_amount, quoted_payment_amount, currency, winc_amount, provider, expires_at,
					created_at, gift_message, receipt_date)
				VALUES ($1, NULL, $2, $3, $4, $4, $5, $6, $7, $8, $8, $9, $8)`,
				item.ReceiptID, item.DestAddress, item.DestAddressType, item.PaymentAmount, item.Currency,
				item.WincAmount, item.Provider, now, item.GiftMessage); err != nil {
				return fmt.Errorf("insert bypassed receipt %s: %w", item.ReceiptID, err)
			}

			if item.DestAddressType == domain.DestAddressTypeEmail {
				if _, err := tx.Exec(ctx, `
					INSERT INTO unredeemed_gift (receipt_id, winc_amount, recipient_email, sender_email,
						gift_message, created_at, expires_at)
					VALUES ($1, $2, $3, NULL, $4, $5, $6)`,
					item.ReceiptID, item.WincAmount, item.DestAddress, item.GiftMessage, now, now.Add(30*24*time.Hour)); err != nil {
					return fmt.Errorf("insert bypassed unredeemed gift %s: %w", item.ReceiptID, err)
				}
				if err := appendAudit(ctx, tx, item.DestAddress, money.Zero, domain.ChangeReasonBypassedGiftedPayment, &item.ReceiptID); err != nil {
					return err
				}
				continue
			}

			created, err := creditOrCreateUser(ctx, tx, item.DestAddress, domain.AddressType(item.DestAddressType), item.WincAmount)
			if err != nil {
				return fmt.Errorf("credit bypassed user %s: %w", item.DestAddress, err)
			}
			reason := domain.ChangeReasonBypassedPayment
			if created {
				reason = domain.ChangeReasonBypassedAccountCreation
			}
			if err := appendAudit(ctx, tx, item.DestAddress, item.WincAmount, reason, &item.ReceiptID); err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateChargebackReceipt implements spec §4.2's createChargebackReceipt.
func (s *LedgerStore) CreateChargebackReceipt(ctx context.Context, params domain.CreateChargebackReceiptParams) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		var r domain.PaymentReceipt
		row := tx.QueryRow(ctx, `
			SELECT receipt_id, top_up_quote_id, dest_address, dest_address_type, payment_amount,
				quoted_payment_amount, currency, winc_amount, provider, expires_at, created_at,
				gift_message, receipt_date
			FROM payment_receipt WHERE top_up_quote_id = $1 FOR UPDATE`, params.TopUpQuoteID)
		if err := row.Scan(&r.ReceiptID, &r.QuoteID, &r.DestAddress, &r.DestAddressType, &r.PaymentAmount,
			&r.QuotedPaymentAmount, &r.Currency, &r.WincAmount, &r.Provider, &r.ExpiresAt, &r.CreatedAt,
			&r.GiftMessage, &r.ReceiptDate); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}

		debitTarget := r.DestAddress
		if r.DestAddressType == domain.DestAddressTypeEmail {
			var redeemedAddr string
			rowRedeemed := tx.QueryRow(ctx, `SELECT dest_address FROM redeemed_gift WHERE receipt_id = $1`, r.ReceiptID)
			err := rowRedeemed.Scan(&redeemedAddr)
			switch {
			case errors.Is(err, pgx.ErrNoRows):
				if _, err := tx.Exec(ctx, `DELETE FROM unredeemed_gift WHERE receipt_id = $1`, r.ReceiptID); err != nil {
					return fmt.Errorf("delete unredeemed gift: %w", err)
				}
				debitTarget = ""
			case err != nil:
				return err
			default:
				debitTarget = redeemedAddr
			}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM payment_receipt WHERE receipt_id = $1`, r.ReceiptID); err != nil {
			return fmt.Errorf("delete receipt: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO chargeback_receipt (chargeback_id, receipt_id, top_up_quote_id, dest_address,
				dest_address_type, payment_amount, quoted_payment_amount, currency, winc_amount, provider,
				expires_at, created_at, gift_message, receipt_date, reason, chargeback_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now())`,
			params.ChargebackID, r.ReceiptID, r.QuoteID, r.DestAddress, r.DestAddressType, r.PaymentAmount,
			r.QuotedPaymentAmount, r.Currency, r.WincAmount, r.Provider, r.ExpiresAt, r.CreatedAt,
			r.GiftMessage, r.ReceiptDate, params.Reason); err != nil {
			return fmt.Errorf("insert chargeback receipt: %w", err)
		}

		if debitTarget == "" {
			return nil
		}

		var balance money.Winc
		userRow := tx.QueryRow(ctx, `SELECT winc_balance FROM users WHERE address = $1 FOR UPDATE`, debitTarget)
		if err := userRow.Scan(&balance); err != nil {
			return fmt.Errorf("load user for chargeback: %w", err)
		}
		newBalance := balance.Minus(r.WincAmount)
		if _, err := tx.Exec(ctx, `UPDATE users SET winc_balance = $1 WHERE address = $2`, newBalance, debitTarget); err != nil {
			return err
		}
		return appendAudit(ctx, tx, debitTarget, r.WincAmount.Negate(), domain.ChangeReasonChargeback, &params.ChargebackID)
	})
}

// CheckForExistingPaymentByTopUpQuoteID reports whether any of
// payment/chargeback/failed-quote tables already reference this id.
func (s *LedgerStore) CheckForExistingPaymentByTopUpQuoteID(ctx context.Context, quoteID string) (bool, error) {
	var exists bool
	err := s.readPool().QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM payment_receipt WHERE top_up_quote_id = $1)
			OR EXISTS(SELECT 1 FROM chargeback_receipt WHERE top_up_quote_id = $1)
			OR EXISTS(SELECT 1 FROM failed_top_up_quote WHERE quote_id = $1)`, quoteID).Scan(&exists)
	return exists, err
}

// RedeemGift implements spec §4.2's redeemGift.
func (s *LedgerStore) RedeemGift(ctx context.Context, params domain.RedeemGiftParams) (*domain.RedeemGiftResult, error) {
	var result domain.RedeemGiftResult

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var g domain.UnredeemedGift
		row := tx.QueryRow(ctx, `
			SELECT receipt_id, winc_amount, recipient_email, sender_email, gift_message, created_at, expires_at
			FROM unredeemed_gift WHERE receipt_id = $1 FOR UPDATE`, params.ReceiptID)
		err := row.Scan(&g.ReceiptID, &g.WincAmount, &g.RecipientEmail, &g.SenderEmail, &g.GiftMessage, &g.CreatedAt, &g.ExpiresAt)
		if errors.Is(err, pgx.ErrNoRows) {
			var alreadyExists bool
			if chkErr := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM redeemed_gift WHERE receipt_id = $1)`, params.ReceiptID).Scan(&alreadyExists); chkErr != nil {
				return chkErr
			}
			if alreadyExists {
				return domain.ErrGiftAlreadyRedeemed
			}
			return domain.ErrGiftRedemptionError
		}
		if err != nil {
			return err
		}
		if g.RecipientEmail != params.RecipientEmail {
			return domain.ErrGiftRedemptionError
		}

		if _, err := tx.Exec(ctx, `DELETE FROM unredeemed_gift WHERE receipt_id = $1`, g.ReceiptID); err != nil {
			return fmt.Errorf("delete unredeemed gift: %w", err)
		}
		redeemedAt := time.Now().UTC()
		if _, err := tx.Exec(ctx, `
			INSERT INTO redeemed_gift (receipt_id, winc_amount, recipient_email, sender_email,
				gift_message, created_at, dest_address, dest_address_type, redeemed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			g.ReceiptID, g.WincAmount, g.RecipientEmail, g.SenderEmail, g.GiftMessage, g.CreatedAt,
			params.DestAddress, params.DestAddressType, redeemedAt); err != nil {
			return fmt.Errorf("insert redeemed gift: %w", err)
		}

		created, err := creditOrCreateUser(ctx, tx, params.DestAddress, params.DestAddressType, g.WincAmount)
		if err != nil {
			return fmt.Errorf("credit redeemed user: %w", err)
		}
		reason := domain.ChangeReasonGiftedPaymentRedemption
		if created {
			reason = domain.ChangeReasonGiftedAccountCreation
		}
		if err := appendAudit(ctx, tx, params.DestAddress, g.WincAmount, reason, &g.ReceiptID); err != nil {
			return err
		}

		userRow := tx.QueryRow(ctx, `SELECT address, address_type, winc_balance, created_at FROM users WHERE address = $1`, params.DestAddress)
		var u domain.User
		if err := userRow.Scan(&u.Address, &u.AddressType, &u.WincBalance, &u.CreatedAt); err != nil {
			return err
		}
		result = domain.RedeemGiftResult{User: &u, WincRedeemed: g.WincAmount}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetBalance is a read-only balance lookup.
func (s *LedgerStore) GetBalance(ctx context.Context, userAddress string) (money.Winc, error) {
	var balance money.Winc
	err := s.readPool().QueryRow(ctx, `SELECT winc_balance FROM users WHERE address = $1`, userAddress).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return money.Zero, domain.ErrUserNotFoundWarning
	}
	return balance, err
}

// ReserveBalance implements spec §4.2's reserveBalance.
func (s *LedgerStore) ReserveBalance(ctx context.Context, params domain.ReserveBalanceParams) (*domain.BalanceReservation, error) {
	var reservation domain.BalanceReservation

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var balance money.Winc
		row := tx.QueryRow(ctx, `SELECT winc_balance FROM users WHERE address = $1 FOR UPDATE`, params.UserAddress)
		err := row.Scan(&balance)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			if params.ReservedWinc.IsNonZeroPositiveInteger() {
				return domain.ErrUserNotFoundWarning
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO users (address, address_type, winc_balance, promotional_info, created_at)
				VALUES ($1, $2, $3, '{}'::jsonb, now())`,
				params.UserAddress, params.UserAddressType, money.Zero); err != nil {
				return err
			}
			balance = money.Zero
		case err != nil:
			return err
		}

		newBalance := money.Difference(balance, params.ReservedWinc)
		if newBalance.IsNonZeroNegativeInteger() {
			return domain.ErrInsufficientBalance
		}

		reservationID := params.DataItemID
		if _, err := tx.Exec(ctx, `
			INSERT INTO balance_reservation (reservation_id, data_item_id, user_address, network_winc, reserved_winc, reserved_at)
			VALUES ($1, $2, $3, $4, $5, now())`,
			reservationID, params.DataItemID, params.UserAddress, params.NetworkWinc, params.ReservedWinc); err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}

		for _, adj := range params.Adjustments {
			if _, err := tx.Exec(ctx, `
				INSERT INTO upload_adjustment (reservation_id, catalog_id, index, winc_delta, user_address, created_at)
				VALUES ($1, $2, $3, $4, $5, now())`,
				reservationID, adj.CatalogID, adj.Index, adj.WincDelta, params.UserAddress); err != nil {
				return fmt.Errorf("insert upload adjustment: %w", err)
			}
		}

		if _, err := tx.Exec(ctx, `UPDATE users SET winc_balance = $1 WHERE address = $2`, newBalance, params.UserAddress); err != nil {
			return err
		}
		if err := appendAudit(ctx, tx, params.UserAddress, params.ReservedWinc.Negate(), domain.ChangeReasonUpload, &params.DataItemID); err != nil {
			return err
		}

		reservation = domain.BalanceReservation{
			ReservationID: reservationID,
			DataItemID:    params.DataItemID,
			UserAddress:   params.UserAddress,
			NetworkWinc:   params.NetworkWinc,
			ReservedWinc:  params.ReservedWinc,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// RefundBalance implements spec §4.2's refundBalance.
func (s *LedgerStore) RefundBalance(ctx context.Context, userAddress string, wincAmount money.Winc, dataItemID *string) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		var balance money.Winc
		if err := tx.QueryRow(ctx, `SELECT winc_balance FROM users WHERE address = $1 FOR UPDATE`, userAddress).Scan(&balance); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrUserNotFoundWarning
			}
			return err
		}
		newBalance := balance.Plus(wincAmount)
		if _, err := tx.Exec(ctx, `UPDATE users SET winc_balance = $1 WHERE address = $2`, newBalance, userAddress); err != nil {
			return err
		}
		return appendAudit(ctx, tx, userAddress, wincAmount, domain.ChangeReasonRefund, dataItemID)
	})
}

// CreatePendingTransaction implements spec §4.5's createPendingTransaction.
func (s *LedgerStore) CreatePendingTransaction(ctx context.Context, params domain.CreatePendingTransactionParams) error {
	if s.excludedAddresses[params.DestAddress] {
		return domain.ErrPaymentMismatch
	}
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO pending_payment_transaction (transaction_id, token_type, transaction_quantity,
				winc_amount, dest_address, dest_address_type, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, now())`,
			params.TransactionID, params.TokenType, params.TransactionQuantity, params.WincAmount,
			params.DestAddress, params.DestAddressType); err != nil {
			return fmt.Errorf("insert pending transaction: %w", err)
		}
		for _, adj := range params.Adjustments {
			if _, err := tx.Exec(ctx, `
				INSERT INTO upload_adjustment (reservation_id, catalog_id, index, winc_delta, user_address, created_at)
				VALUES ($1, $2, $3, $4, $5, now())`,
				params.TransactionID, adj.CatalogID, adj.Index, adj.WincDelta, params.DestAddress); err != nil {
				return fmt.Errorf("insert pending transaction adjustment: %w", err)
			}
		}
		return nil
	})
}

// CreditPendingTransaction implements spec §4.5's
// creditPendingTransaction: move pending→credited, then credit the
// destination user with reason crypto_payment.
func (s *LedgerStore) CreditPendingTransaction(ctx context.Context, transactionID string, blockHeight int64) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		var p domain.PendingPaymentTransaction
		row := tx.QueryRow(ctx, `
			SELECT transaction_id, token_type, transaction_quantity, winc_amount, dest_address,
				dest_address_type, created_at
			FROM pending_payment_transaction WHERE transaction_id = $1 FOR UPDATE`, transactionID)
		if err := row.Scan(&p.TransactionID, &p.TokenType, &p.TransactionQuantity, &p.WincAmount,
			&p.DestAddress, &p.DestAddressType, &p.CreatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrPaymentTransactionNotFound
			}
			return err
		}
		if s.excludedAddresses[p.DestAddress] {
			return domain.ErrPaymentMismatch
		}

		if _, err := tx.Exec(ctx, `DELETE FROM pending_payment_transaction WHERE transaction_id = $1`, transactionID); err != nil {
			return fmt.Errorf("delete pending transaction: %w", err)
		}
		creditedAt := time.Now().UTC()
		if _, err := tx.Exec(ctx, `
			INSERT INTO credited_payment_transaction (transaction_id, token_type, transaction_quantity,
				winc_amount, dest_address, dest_address_type, created_at, block_height, credited_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			p.TransactionID, p.TokenType, p.TransactionQuantity, p.WincAmount, p.DestAddress,
			p.DestAddressType, p.CreatedAt, blockHeight, creditedAt); err != nil {
			return fmt.Errorf("insert credited transaction: %w", err)
		}

		if _, err := creditOrCreateUser(ctx, tx, p.DestAddress, p.DestAddressType, p.WincAmount); err != nil {
			return fmt.Errorf("credit user: %w", err)
		}
		return appendAudit(ctx, tx, p.DestAddress, p.WincAmount, domain.ChangeReasonCryptoPayment, &transactionID)
	})
}

// FailPendingTransaction implements spec §4.5's failPendingTransaction.
func (s *LedgerStore) FailPendingTransaction(ctx context.Context, transactionID string, reason string) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		var p domain.PendingPaymentTransaction
		row := tx.QueryRow(ctx, `
			SELECT transaction_id, token_type, transaction_quantity, winc_amount, dest_address,
				dest_address_type, created_at
			FROM pending_payment_transaction WHERE transaction_id = $1 FOR UPDATE`, transactionID)
		if err := row.Scan(&p.TransactionID, &p.TokenType, &p.TransactionQuantity, &p.WincAmount,
			&p.DestAddress, &p.DestAddressType, &p.CreatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrPaymentTransactionNotFound
			}
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM pending_payment_transaction WHERE transaction_id = $1`, transactionID); err != nil {
			return fmt.Errorf("delete pending transaction: %w", err)
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO failed_payment_transaction (transaction_id, token_type, transaction_quantity,
				winc_amount, dest_address, dest_address_type, created_at, failed_at, failed_reason)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now(), $8)`,
			p.TransactionID, p.TokenType, p.TransactionQuantity, p.WincAmount, p.DestAddress,
			p.DestAddressType, p.CreatedAt, reason)
		return err
	})
}

// CheckForPendingTransaction implements spec §4.5's
// checkForPendingTransaction: first-of-any across the three tables.
func (s *LedgerStore) CheckForPendingTransaction(ctx context.Context, transactionID string) (domain.PendingTransactionRecord, error) {
	var rec domain.PendingTransactionRecord

	var p domain.PendingPaymentTransaction
	err := s.readPool().QueryRow(ctx, `
		SELECT transaction_id, token_type, transaction_quantity, winc_amount, dest_address,
			dest_address_type, created_at
		FROM pending_payment_transaction WHERE transaction_id = $1`, transactionID).Scan(
		&p.TransactionID, &p.TokenType, &p.TransactionQuantity, &p.WincAmount, &p.DestAddress,
		&p.DestAddressType, &p.CreatedAt)
	if err == nil {
		rec.Pending = &p
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return rec, err
	}

	var f domain.FailedPaymentTransaction
	err = s.readPool().QueryRow(ctx, `
		SELECT transaction_id, token_type, transaction_quantity, winc_amount, dest_address,
			dest_address_type, created_at, failed_at, failed_reason
		FROM failed_payment_transaction WHERE transaction_id = $1`, transactionID).Scan(
		&f.TransactionID, &f.TokenType, &f.TransactionQuantity, &f.WincAmount, &f.DestAddress,
		&f.DestAddressType, &f.CreatedAt, &f.FailedAt, &f.FailedReason)
	if err == nil {
		rec.Failed = &f
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return rec, err
	}

	var c domain.CreditedPaymentTransaction
	err = s.readPool().QueryRow(ctx, `
		SELECT transaction_id, token_type, transaction_quantity, winc_amount, dest_address,
			dest_address_type, created_at, block_height, credited_at
		FROM credited_payment_transaction WHERE transaction_id = $1`, transactionID).Scan(
		&c.TransactionID, &c.TokenType, &c.TransactionQuantity, &c.WincAmount, &c.DestAddress,
		&c.DestAddressType, &c.CreatedAt, &c.BlockHeight, &c.CreditedAt)
	if err == nil {
		rec.Credited = &c
		return rec, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return rec, nil
	}
	return rec, err
}

// CreateNewCreditedTransaction implements spec §4.5's
// createNewCreditedTransaction: a direct credited insert used when the
// chain was observed as confirmed without a prior pending row.
func (s *LedgerStore) CreateNewCreditedTransaction(ctx context.Context, params domain.CreatePendingTransactionParams, blockHeight int64) error {
	if s.excludedAddresses[params.DestAddress] {
		return domain.ErrPaymentMismatch
	}
	return s.withTx(ctx, func(tx pgx.Tx) error {
		creditedAt := time.Now().UTC()
		if _, err := tx.Exec(ctx, `
			INSERT INTO credited_payment_transaction (transaction_id, token_type, transaction_quantity,
				winc_amount, dest_address, dest_address_type, created_at, block_height, credited_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), $7, $8)`,
			params.TransactionID, params.TokenType, params.TransactionQuantity, params.WincAmount,
			params.DestAddress, params.DestAddressType, blockHeight, creditedAt); err != nil {
			return fmt.Errorf("insert credited transaction: %w", err)
		}

		created, err := creditOrCreateUser(ctx, tx, params.DestAddress, params.DestAddressType, params.WincAmount)
		if err != nil {
			return fmt.Errorf("credit user: %w", err)
		}
		reason := domain.ChangeReasonCryptoPayment
		if created {
			reason = domain.ChangeReasonAccountCreation
		}
		return appendAudit(ctx, tx, params.DestAddress, params.WincAmount, reason, &params.TransactionID)
	})
}

// ListPendingTransactions returns every row currently awaiting chain
// confirmation, for CryptoPoller's reconciliation sweep (spec §4.5).
func (s *LedgerStore) ListPendingTransactions(ctx context.Context) ([]domain.PendingPaymentTransaction, error) {
	rows, err := s.readPool().Query(ctx, `
		SELECT transaction_id, token_type, transaction_quantity, winc_amount, dest_address,
			dest_address_type, created_at
		FROM pending_payment_transaction
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list pending transactions: %w", err)
	}
	defer rows.Close()

	var result []domain.PendingPaymentTransaction
	for rows.Next() {
		var p domain.PendingPaymentTransaction
		if err := rows.Scan(&p.TransactionID, &p.TokenType, &p.TransactionQuantity, &p.WincAmount,
			&p.DestAddress, &p.DestAddressType, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending transaction: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// GetWincUsedForUploadAdjustmentCatalog sums all upload_adjustment
// rows for a user/catalog within the interval window ending now.
func (s *LedgerStore) GetWincUsedForUploadAdjustmentCatalog(ctx context.Context, userAddress, catalogID string, interval int, unit domain.LimitationIntervalUnit) (money.Winc, error) {
	var since time.Time
	now := time.Now().UTC()
	switch unit {
	case domain.LimitationIntervalUnitMinutes:
		since = now.Add(-time.Duration(interval) * time.Minute)
	case domain.LimitationIntervalUnitHours:
		since = now.Add(-time.Duration(interval) * time.Hour)
	case domain.LimitationIntervalUnitDays:
		since = now.Add(-time.Duration(interval) * 24 * time.Hour)
	default:
		since = now
	}

	rows, err := s.readPool().Query(ctx, `
		SELECT winc_delta FROM upload_adjustment
		WHERE user_address = $1 AND catalog_id = $2 AND created_at >= $3 AND created_at <= $4`,
		userAddress, catalogID, since, now)
	if err != nil {
		return money.Zero, err
	}
	defer rows.Close()

	total := money.Zero
	for rows.Next() {
		var delta money.Winc
		if err := rows.Scan(&delta); err != nil {
			return money.Zero, err
		}
		total = total.Plus(delta)
	}
	return total, rows.Err()
}

var _ domain.Ledger = (*LedgerStore)(nil)
