package domain

import (
	"time"

	"github.com/ardriveapp/turbo-winc-ledger/internal/money"
	"github.com/shopspring/decimal"
)

// CatalogOperator is the arithmetic operation an adjustment catalog
// applies: additive or multiplicative.
type CatalogOperator string

const (
	CatalogOperatorAdd      CatalogOperator = "add"
	CatalogOperatorMultiply CatalogOperator = "multiply"
)

// Exclusivity distinguishes a payment/promo-code catalog that changes
// the fiat charged (exclusive) from one that only changes the winc
// credited (inclusive). inclusive_kyve is a third composition lane for
// Kyve-specific inclusive fees (spec §3).
type Exclusivity string

const (
	ExclusivityInclusive     Exclusivity = "inclusive"
	ExclusivityExclusive     Exclusivity = "exclusive"
	ExclusivityInclusiveKyve Exclusivity = "inclusive_kyve"
)

// TargetUserGroup scopes a single-use promo code's eligibility.
type TargetUserGroup string

const (
	TargetUserGroupAll      TargetUserGroup = "all"
	TargetUserGroupNew      TargetUserGroup = "new"
	TargetUserGroupExisting TargetUserGroup = "existing"
)

// LimitationIntervalUnit is the unit of an upload catalog's
// limitationInterval window.
type LimitationIntervalUnit string

const (
	LimitationIntervalUnitMinutes LimitationIntervalUnit = "minutes"
	LimitationIntervalUnitHours   LimitationIntervalUnit = "hours"
	LimitationIntervalUnitDays    LimitationIntervalUnit = "days"
)

// catalogBase is the shared shape of all three catalog flavors.
type catalogBase struct {
	CatalogID         string
	Name              string
	Description       string
	Operator          CatalogOperator
	OperatorMagnitude decimal.Decimal
	Priority          int
	StartAt           time.Time
	EndAt             *time.Time
}

// Active reports whether now lies in [StartAt, EndAt) — EndAt == nil
// means the catalog never expires.
func (c catalogBase) Active(now time.Time) bool {
	if now.Before(c.StartAt) {
		return false
	}
	return c.EndAt == nil || now.Before(*c.EndAt)
}

// UploadAdjustmentCatalog prices upload reservations. Subsidies are
// modeled as Operator=multiply with OperatorMagnitude < 1.
type UploadAdjustmentCatalog struct {
	catalogBase
	ByteCountThreshold     int64
	WincLimitation         string
	LimitationInterval     int
	LimitationIntervalUnit LimitationIntervalUnit
}

// PaymentAdjustmentCatalog prices top-up quotes; always applied
// (inclusive infra fees, for example), as opposed to promo codes which
// require a code value.
type PaymentAdjustmentCatalog struct {
	catalogBase
	Exclusivity Exclusivity
}

// SingleUseCodeCatalog is a promo code: a PaymentAdjustmentCatalog plus
// the code value and eligibility/usage constraints of spec §4.4.
type SingleUseCodeCatalog struct {
	PaymentAdjustmentCatalog
	CodeValue             string
	TargetUserGroup       TargetUserGroup
	MaxUses               int
	MinimumPaymentAmount  *int64
	MaximumDiscountAmount *int64
}

// Base exposes the shared catalog fields to callers generic over all
// three flavors (e.g. the adjustment engine's composition loop).
func (c UploadAdjustmentCatalog) Base() catalogBase  { return c.catalogBase }
func (c PaymentAdjustmentCatalog) Base() catalogBase { return c.catalogBase }

// CatalogRepository is the read surface the adjustment engine consults
// to resolve active catalogs and promo-code usage history (spec §4.4).
type CatalogRepository interface {
	GetUploadAdjustmentCatalogs(now time.Time) ([]UploadAdjustmentCatalog, error)
	GetPaymentAdjustmentCatalogs(now time.Time) ([]PaymentAdjustmentCatalog, error)
	GetSingleUseCodeCatalogsByValue(now time.Time, code string) ([]SingleUseCodeCatalog, error)
	CountPaymentAdjustmentsByCatalog(catalogID string) (int, error)
	UserHasPaymentReceipts(userAddress string) (bool, error)
	UserHasAdjustmentForCatalog(userAddress, catalogID string) (bool, error)
	WincUsedForUploadAdjustmentCatalog(userAddress, catalogID string, since, now time.Time) (money.Winc, error)
}
