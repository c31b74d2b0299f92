package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromString_RejectsNonIntegers(t *testing.T) {
	cases := []string{"1.5", "abc", "", "1e-2", "NaN"}
	for _, c := range cases {
		_, err := NewFromString(c)
		assert.Errorf(t, err, "expected %q to be rejected", c)
	}
}

func TestNewFromString_AcceptsIntegers(t *testing.T) {
	cases := map[string]string{
		"500":   "500",
		"-42":   "-42",
		"0":     "0",
		"1e10":  "10000000000",
		"1E3":   "1000",
		"-0":    "0",
	}
	for in, want := range cases {
		a, err := NewFromString(in)
		require.NoErrorf(t, err, "input %q", in)
		assert.Equal(t, want, a.String())
	}
}

func TestPlusMinusRoundTrip(t *testing.T) {
	w := MustFromString("1337")
	x := MustFromString("42")
	assert.True(t, w.Plus(x).Minus(x).IsEqualTo(w))
}

func TestTimesIdentityAndNegation(t *testing.T) {
	w := MustFromString("1337")
	assert.True(t, w.Times(decimal.NewFromInt(1)).IsEqualTo(w))
	assert.True(t, w.Times(decimal.NewFromInt(-1)).Times(decimal.NewFromInt(-1)).IsEqualTo(w))
}

func TestTimesRoundsMagnitudeDown(t *testing.T) {
	w := MustFromString("10")
	got := w.Times(decimal.RequireFromString("0.85"))
	assert.Equal(t, "8", got.String()) // 8.5 truncates toward zero

	neg := MustFromString("-10")
	gotNeg := neg.Times(decimal.RequireFromString("0.85"))
	assert.Equal(t, "-8", gotNeg.String()) // magnitude rounds down, sign preserved
}

func TestDividedByDefaultRoundsUp(t *testing.T) {
	w := MustFromString("10")
	got, err := w.DividedBy(decimal.NewFromInt(3))
	require.NoError(t, err)
	assert.Equal(t, "4", got.String())
}

func TestDividedByRoundDown(t *testing.T) {
	w := MustFromString("10")
	got, err := w.DividedBy(decimal.NewFromInt(3), RoundDown)
	require.NoError(t, err)
	assert.Equal(t, "3", got.String())
}

func TestDividedByExact(t *testing.T) {
	w := MustFromString("10")
	got, err := w.DividedBy(decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.Equal(t, "2", got.String())
}

func TestDividedByZero(t *testing.T) {
	w := MustFromString("10")
	_, err := w.DividedBy(decimal.Zero)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestDividedByNegativeRoundsAwayFromZero(t *testing.T) {
	w := MustFromString("-10")
	got, err := w.DividedBy(decimal.NewFromInt(3))
	require.NoError(t, err)
	assert.Equal(t, "-4", got.String())
}

func TestComparisons(t *testing.T) {
	a := MustFromString("5")
	b := MustFromString("10")
	assert.True(t, b.IsGreaterThan(a))
	assert.True(t, b.IsGreaterThanOrEqualTo(b))
	assert.False(t, a.IsGreaterThan(b))
	assert.True(t, Zero.IsZero())
	assert.True(t, a.IsNonZeroPositiveInteger())
	assert.True(t, a.Negate().IsNonZeroNegativeInteger())
	assert.False(t, Zero.IsNonZeroPositiveInteger())
	assert.False(t, Zero.IsNonZeroNegativeInteger())
}

func TestMax(t *testing.T) {
	a := MustFromString("5")
	b := MustFromString("10")
	assert.True(t, a.Max(b).IsEqualTo(b))
	assert.True(t, b.Max(a).IsEqualTo(b))
}

func TestDifference(t *testing.T) {
	a := MustFromString("10")
	b := MustFromString("3")
	assert.Equal(t, "7", Difference(a, b).String())
	assert.Equal(t, "-7", Difference(b, a).String())
}

func TestJSONRoundTrip(t *testing.T) {
	a := MustFromString("123456789012345678901234567890")
	data, err := a.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"123456789012345678901234567890"`, string(data))

	var b Amount
	require.NoError(t, b.UnmarshalJSON(data))
	assert.True(t, a.IsEqualTo(b))
}

func TestUnmarshalJSONRejectsFractional(t *testing.T) {
	var a Amount
	err := a.UnmarshalJSON([]byte(`1.5`))
	assert.Error(t, err)
}
