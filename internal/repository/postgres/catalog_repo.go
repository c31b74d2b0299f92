package postgres

import (
	"context"
	"time"

	"github.com/ardriveapp/turbo-winc-ledger/internal/domain"
	"github.com/ardriveapp/turbo-winc-ledger/internal/money"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogRepository implements domain.CatalogRepository directly
// against PostgreSQL via pgx, following the same raw-SQL pattern as
// api_token_repo.go. Catalog rows are read-heavy and rarely written
// (catalogs are seeded by an operator, not created over the API), so
// every method here is a plain query against the reader pool with no
// transaction or locking.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// GetUploadAdjustmentCatalogs returns every upload adjustment catalog
// active at now, per spec §4.4.
func (r *CatalogRepository) GetUploadAdjustmentCatalogs(now time.Time) ([]domain.UploadAdjustmentCatalog, error) {
	rows, err := r.pool.Query(context.Background(), `
		SELECT catalog_id, name, description, operator, operator_magnitude, priority, start_at, end_at,
			byte_count_threshold, winc_limitation, limitation_interval, limitation_interval_unit
		FROM upload_adjustment_catalog
		WHERE start_at <= $1 AND (end_at IS NULL OR end_at > $1)`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.UploadAdjustmentCatalog
	for rows.Next() {
		var c domain.UploadAdjustmentCatalog
		if err := rows.Scan(&c.CatalogID, &c.Name, &c.Description, &c.Operator, &c.OperatorMagnitude,
			&c.Priority, &c.StartAt, &c.EndAt, &c.ByteCountThreshold, &c.WincLimitation,
			&c.LimitationInterval, &c.LimitationIntervalUnit); err != nil {
			return nil, err
		}
		// The WHERE clause above already narrows to active rows; re-assert
		// it here too so the Go-level notion of "active" stays the single
		// source of truth the adjustment engine and this query agree on.
		if !c.Active(now) {
			continue
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// GetPaymentAdjustmentCatalogs returns every payment adjustment catalog
// active at now, regardless of exclusivity. Promo codes are not
// returned here; see GetSingleUseCodeCatalogsByValue.
func (r *CatalogRepository) GetPaymentAdjustmentCatalogs(now time.Time) ([]domain.PaymentAdjustmentCatalog, error) {
	rows, err := r.pool.Query(context.Background(), `
		SELECT catalog_id, name, description, operator, operator_magnitude, priority, start_at, end_at, exclusivity
		FROM payment_adjustment_catalog
		WHERE start_at <= $1 AND (end_at IS NULL OR end_at > $1) AND single_use_code_id IS NULL`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PaymentAdjustmentCatalog
	for rows.Next() {
		var c domain.PaymentAdjustmentCatalog
		if err := rows.Scan(&c.CatalogID, &c.Name, &c.Description, &c.Operator, &c.OperatorMagnitude,
			&c.Priority, &c.StartAt, &c.EndAt, &c.Exclusivity); err != nil {
			return nil, err
		}
		if !c.Active(now) {
			continue
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// GetSingleUseCodeCatalogsByValue returns every single-use promo-code
// catalog matching code whose startAt has arrived, expired or not (the
// adjustment engine itself asserts expiry so it can return the
// specific ErrPromoCodeExpired error rather than a bare not-found; a
// catalog that hasn't started yet, by contrast, isn't resolvable at
// all, so that half of catalogBase.Active is enforced here instead).
func (r *CatalogRepository) GetSingleUseCodeCatalogsByValue(now time.Time, code string) ([]domain.SingleUseCodeCatalog, error) {
	rows, err := r.pool.Query(context.Background(), `
		SELECT catalog_id, name, description, operator, operator_magnitude, priority, start_at, end_at,
			exclusivity, code_value, target_user_group, max_uses, minimum_payment_amount, maximum_discount_amount
		FROM single_use_code_catalog
		WHERE code_value = $1 AND start_at <= $2
		ORDER BY start_at DESC`, code, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SingleUseCodeCatalog
	for rows.Next() {
		var c domain.SingleUseCodeCatalog
		if err := rows.Scan(&c.CatalogID, &c.Name, &c.Description, &c.Operator, &c.OperatorMagnitude,
			&c.Priority, &c.StartAt, &c.EndAt, &c.Exclusivity, &c.CodeValue, &c.TargetUserGroup,
			&c.MaxUses, &c.MinimumPaymentAmount, &c.MaximumDiscountAmount); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// CountPaymentAdjustmentsByCatalog counts every payment_adjustment row
// ever written against catalogID, used to enforce a promo code's
// maxUses.
func (r *CatalogRepository) CountPaymentAdjustmentsByCatalog(catalogID string) (int, error) {
	var count int
	err := r.pool.QueryRow(context.Background(), `
		SELECT count(*) FROM payment_adjustment WHERE catalog_id = $1`, catalogID).Scan(&count)
	return count, err
}

// UserHasPaymentReceipts reports whether userAddress has ever
// completed a top-up, used to enforce targetUserGroup = "new".
func (r *CatalogRepository) UserHasPaymentReceipts(userAddress string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(context.Background(), `
		SELECT EXISTS(SELECT 1 FROM payment_receipt WHERE dest_address = $1)
			OR EXISTS(SELECT 1 FROM chargeback_receipt WHERE dest_address = $1)`, userAddress).Scan(&exists)
	return exists, err
}

// UserHasAdjustmentForCatalog reports whether userAddress has already
// consumed catalogID, enforcing a promo code's per-user single use.
func (r *CatalogRepository) UserHasAdjustmentForCatalog(userAddress, catalogID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(context.Background(), `
		SELECT EXISTS(SELECT 1 FROM payment_adjustment WHERE user_address = $1 AND catalog_id = $2)`,
		userAddress, catalogID).Scan(&exists)
	return exists, err
}

// WincUsedForUploadAdjustmentCatalog sums the upload_adjustment rows
// written against userAddress/catalogID within [since, now), backing a
// per-user subsidy-window limit (spec §4.4).
func (r *CatalogRepository) WincUsedForUploadAdjustmentCatalog(userAddress, catalogID string, since, now time.Time) (money.Winc, error) {
	rows, err := r.pool.Query(context.Background(), `
		SELECT winc_delta FROM upload_adjustment
		WHERE user_address = $1 AND catalog_id = $2 AND created_at >= $3 AND created_at < $4`,
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

var _ domain.CatalogRepository = (*CatalogRepository)(nil)
