package domain

import (
	"testing"
	"time"
)

func TestCatalogBaseActive(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		base catalogBase
		now  time.Time
		want bool
	}{
		{
			name: "before start is inactive",
			base: catalogBase{StartAt: start, EndAt: &end},
			now:  start.Add(-time.Second),
			want: false,
		},
		{
			name: "exactly at start is active",
			base: catalogBase{StartAt: start, EndAt: &end},
			now:  start,
			want: true,
		},
		{
			name: "between start and end is active",
			base: catalogBase{StartAt: start, EndAt: &end},
			now:  start.Add(24 * time.Hour),
			want: true,
		},
		{
			name: "exactly at end is inactive",
			base: catalogBase{StartAt: start, EndAt: &end},
			now:  end,
			want: false,
		},
		{
			name: "after end is inactive",
			base: catalogBase{StartAt: start, EndAt: &end},
			now:  end.Add(time.Second),
			want: false,
		},
		{
			name: "nil EndAt never expires",
			base: catalogBase{StartAt: start, EndAt: nil},
			now:  start.AddDate(10, 0, 0),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.base.Active(tt.now); got != tt.want {
				t.Errorf("Active(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestCatalogBasePromotedThroughEmbedding(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	upload := UploadAdjustmentCatalog{catalogBase: catalogBase{StartAt: start}}
	payment := PaymentAdjustmentCatalog{catalogBase: catalogBase{StartAt: start}}
	singleUse := SingleUseCodeCatalog{PaymentAdjustmentCatalog: payment}

	now := start.Add(time.Hour)
	if !upload.Active(now) {
		t.Error("UploadAdjustmentCatalog.Active should be promoted from catalogBase")
	}
	if !payment.Active(now) {
		t.Error("PaymentAdjustmentCatalog.Active should be promoted from catalogBase")
	}
	if !singleUse.Active(now) {
		t.Error("SingleUseCodeCatalog.Active should be promoted through PaymentAdjustmentCatalog")
	}
}

func TestCatalogBaseValuesMatchExclusivityConstraint(t *testing.T) {
	// These values must match the CHECK constraint on payment_adjustment_catalog.exclusivity.
	validExclusivities := map[Exclusivity]bool{
		ExclusivityInclusive:     true,
		ExclusivityExclusive:     true,
		ExclusivityInclusiveKyve: true,
	}
	if len(validExclusivities) != 3 {
		t.Errorf("expected 3 Exclusivity values, got %d", len(validExclusivities))
	}
}

func TestTargetUserGroupValues(t *testing.T) {
	tests := []struct {
		group    TargetUserGroup
		expected string
	}{
		{TargetUserGroupAll, "all"},
		{TargetUserGroupNew, "new"},
		{TargetUserGroupExisting, "existing"},
	}
	for _, tt := range tests {
		if string(tt.group) != tt.expected {
			t.Errorf("TargetUserGroup = %q, want %q", tt.group, tt.expected)
		}
	}
}
