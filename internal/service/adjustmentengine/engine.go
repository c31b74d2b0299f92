// Package adjustmentengine resolves active adjustment catalogs, asserts
// promo-code eligibility, and composes ordered discounts/fees, per spec
// §4.4. It is consulted by the top-up service before createTopUpQuote
// and by the reserve-balance handler when pricing uploads; it owns none of the
// storage itself, only the composition math, and is backed by the
// narrower domain.CatalogRepository the postgres package also
// implements.
package adjustmentengine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ardriveapp/turbo-winc-ledger/internal/domain"
	"github.com/ardriveapp/turbo-winc-ledger/internal/money"
	"github.com/shopspring/decimal"
)

// Engine composes catalog lookups and promo-code eligibility checks
// against a domain.CatalogRepository.
type Engine struct {
	catalogs domain.CatalogRepository
}

// New returns an Engine backed by the given catalog repository.
func New(catalogs domain.CatalogRepository) *Engine {
	return &Engine{catalogs: catalogs}
}

// PaymentComposition is the result of composing a gross fiat amount
// against exclusive (promo-code) and inclusive (always-applied) payment
// adjustment catalogs.
type PaymentComposition struct {
	QuotedPaymentAmount money.PaymentAmount
	PaymentAmount       money.PaymentAmount
	WincAmount          money.Winc
	Adjustments         []domain.PaymentAdjustment
}

// ResolvePromoCodes runs spec §4.4's getSingleUsePromoCodeAdjustments:
// for each requested code, selects the most-recently-started catalog
// matching it and asserts the requesting user's eligibility.
func (e *Engine) ResolvePromoCodes(ctx context.Context, codes []string, userAddress string, now time.Time) ([]domain.SingleUseCodeCatalog, error) {
	resolved := make([]domain.SingleUseCodeCatalog, 0, len(codes))
	for _, code := range codes {
		catalogs, err := e.catalogs.GetSingleUseCodeCatalogsByValue(now, code)
		if err != nil {
			return nil, fmt.Errorf("adjustmentengine: lookup code %q: %w", code, err)
		}
		if len(catalogs) == 0 {
			return nil, domain.ErrPromoCodeNotFound
		}

		chosen := catalogs[0]
		for _, c := range catalogs[1:] {
			if c.StartAt.After(chosen.StartAt) {
				chosen = c
			}
		}

		if err := e.assertEligible(chosen, userAddress, now); err != nil {
			return nil, err
		}
		resolved = append(resolved, chosen)
	}
	return resolved, nil
}

// assertEligible implements spec §4.4's eligibility predicate for one
// single-use catalog against one user.
func (e *Engine) assertEligible(c domain.SingleUseCodeCatalog, userAddress string, now time.Time) error {
	if c.EndAt != nil && now.After(*c.EndAt) {
		return domain.ErrPromoCodeExpired
	}

	if c.MaxUses > 0 {
		used, err := e.catalogs.CountPaymentAdjustmentsByCatalog(c.CatalogID)
		if err != nil {
			return fmt.Errorf("adjustmentengine: count uses of %q: %w", c.CatalogID, err)
		}
		if used >= c.MaxUses {
			return domain.ErrPromoCodeExceedsMaxUses
		}
	}

	switch c.TargetUserGroup {
	case domain.TargetUserGroupNew:
		hasReceipts, err := e.catalogs.UserHasPaymentReceipts(userAddress)
		if err != nil {
			return fmt.Errorf("adjustmentengine: check receipts for %q: %w", userAddress, err)
		}
		if hasReceipts {
			return domain.ErrUserIneligibleForPromoCode
		}
	default:
		hasAdjustment, err := e.catalogs.UserHasAdjustmentForCatalog(userAddress, c.CatalogID)
		if err != nil {
			return fmt.Errorf("adjustmentengine: check prior use of %q: %w", c.CatalogID, err)
		}
		if hasAdjustment {
			return domain.ErrUserIneligibleForPromoCode
		}
	}
	return nil
}

// ComposePayment implements spec §4.4's composition for a payment
// quote: exclusive (promo-code) adjustments apply in catalog-priority
// order against the gross amount to produce the charged paymentAmount;
// inclusive adjustments then reduce the winc credited without
// affecting the fiat charge.
func (e *Engine) ComposePayment(ctx context.Context, grossPaymentAmount money.PaymentAmount, wincAmount money.Winc, promoCodes []domain.SingleUseCodeCatalog, now time.Time) (PaymentComposition, error) {
	inclusiveCatalogs, err := e.catalogs.GetPaymentAdjustmentCatalogs(now)
	if err != nil {
		return PaymentComposition{}, fmt.Errorf("adjustmentengine: list payment catalogs: %w", err)
	}

	exclusive := make([]catalogEntry, 0, len(promoCodes))
	for _, c := range promoCodes {
		if c.Exclusivity == domain.ExclusivityExclusive {
			exclusive = append(exclusive, catalogEntry{c.PaymentAdjustmentCatalog, &c})
		}
	}
	sort.SliceStable(exclusive, func(i, j int) bool { return exclusive[i].base.Priority < exclusive[j].base.Priority })

	running := grossPaymentAmount
	adjustments := make([]domain.PaymentAdjustment, 0, len(exclusive))
	idx := 0
	for _, entry := range exclusive {
		if entry.code != nil && entry.code.MinimumPaymentAmount != nil {
			floor := money.NewFromInt(*entry.code.MinimumPaymentAmount)
			if !running.IsGreaterThanOrEqualTo(floor) {
				continue
			}
		}

		delta := deltaFor(entry.base, running)
		if entry.code != nil && entry.code.MaximumDiscountAmount != nil {
			maxDiscount := money.NewFromInt(*entry.code.MaximumDiscountAmount)
			if delta.IsNonZeroNegativeInteger() && delta.Negate().IsGreaterThan(maxDiscount) {
				delta = maxDiscount.Negate()
			}
		}

		running = running.Plus(delta)
		adjustments = append(adjustments, domain.PaymentAdjustment{
			CatalogID:    entry.base.CatalogID,
			Index:        idx,
			PaymentDelta: delta,
		})
		idx++
	}
	paymentAmount := running

	inclusiveSorted := make([]domain.PaymentAdjustmentCatalog, len(inclusiveCatalogs))
	copy(inclusiveSorted, inclusiveCatalogs)
	sort.SliceStable(inclusiveSorted, func(i, j int) bool { return inclusiveSorted[i].Priority < inclusiveSorted[j].Priority })

	winc := wincAmount
	for _, ic := range inclusiveSorted {
		if ic.Exclusivity == domain.ExclusivityExclusive {
			continue
		}
		delta := ic.OperatorMagnitude
		switch ic.Operator {
		case domain.CatalogOperatorAdd:
			winc = winc.Plus(money.MustFromString(delta.StringFixed(0)))
		case domain.CatalogOperatorMultiply:
			winc = winc.Times(delta)
		}
	}

	return PaymentComposition{
		QuotedPaymentAmount: grossPaymentAmount,
		PaymentAmount:        paymentAmount,
		WincAmount:           winc,
		Adjustments:          adjustments,
	}, nil
}

type catalogEntry struct {
	base domain.PaymentAdjustmentCatalog
	code *domain.SingleUseCodeCatalog
}

// deltaFor computes one catalog's signed paymentAmount delta against
// the current running amount: additive catalogs contribute their
// magnitude verbatim; multiplicative catalogs (promo codes, discounts)
// contribute current × (magnitude − 1), rounded down in magnitude per
// spec §4.4.
func deltaFor(c domain.PaymentAdjustmentCatalog, running money.PaymentAmount) money.PaymentAmount {
	switch c.Operator {
	case domain.CatalogOperatorAdd:
		return money.MustFromString(c.OperatorMagnitude.StringFixed(0))
	case domain.CatalogOperatorMultiply:
		factor := c.OperatorMagnitude.Sub(decimal.NewFromInt(1))
		return running.Times(factor)
	default:
		return money.Zero
	}
}

// WincUsedForUploadCatalog delegates to the catalog repository's usage
// accounting for subsidy-window enforcement (spec §4.4's
// getWincUsedForUploadAdjustmentCatalog).
func (e *Engine) WincUsedForUploadCatalog(ctx context.Context, userAddress, catalogID string, interval int, unit domain.LimitationIntervalUnit, now time.Time) (money.Winc, error) {
	since := subtractInterval(now, interval, unit)
	return e.catalogs.WincUsedForUploadAdjustmentCatalog(userAddress, catalogID, since, now)
}

func subtractInterval(now time.Time, interval int, unit domain.LimitationIntervalUnit) time.Time {
	switch unit {
	case domain.LimitationIntervalUnitMinutes:
		return now.Add(-time.Duration(interval) * time.Minute)
	case domain.LimitationIntervalUnitHours:
		return now.Add(-time.Duration(interval) * time.Hour)
	case domain.LimitationIntervalUnitDays:
		return now.Add(-time.Duration(interval) * 24 * time.Hour)
	default:
		return now
	}
}

// ActiveUploadCatalogs returns the upload adjustment catalogs active at
// now, ordered by priority ascending (spec §4.4).
func (e *Engine) ActiveUploadCatalogs(ctx context.Context, now time.Time) ([]domain.UploadAdjustmentCatalog, error) {
	catalogs, err := e.catalogs.GetUploadAdjustmentCatalogs(now)
	if err != nil {
		return nil, fmt.Errorf("adjustmentengine: list upload catalogs: %w", err)
	}
	sort.SliceStable(catalogs, func(i, j int) bool { return catalogs[i].Priority < catalogs[j].Priority })
	return catalogs, nil
}

// ComposeUpload applies the given upload catalogs in priority order to
// a network winc cost, returning the post-adjustment reserved winc and
// the ordered AppliedAdjustment rows to persist under the reservation.
func (e *Engine) ComposeUpload(networkWinc money.Winc, catalogs []domain.UploadAdjustmentCatalog, userAddress string) (money.Winc, []domain.AppliedAdjustment) {
	running := networkWinc
	adjustments := make([]domain.AppliedAdjustment, 0, len(catalogs))
	for i, c := range catalogs {
		var adjusted money.Winc
		switch c.Operator {
		case domain.CatalogOperatorAdd:
			adjusted = money.MustFromString(c.OperatorMagnitude.StringFixed(0))
		case domain.CatalogOperatorMultiply:
			adjusted = running.Times(c.OperatorMagnitude).Minus(running)
		}
		running = running.Plus(adjusted)
		adjustments = append(adjustments, domain.AppliedAdjustment{
			CatalogID:   c.CatalogID,
			Index:       i,
			WincDelta:   adjusted,
			UserAddress: userAddress,
		})
	}
	return running, adjustments
}
