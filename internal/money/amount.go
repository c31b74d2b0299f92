// Package money implements the arbitrary-precision signed integer value
// type shared by winc balances and fiat payment amounts.
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNonIntegerAmount is returned when a string or decimal does not represent
// a whole number. Winc and payment amounts are never fractional.
var ErrNonIntegerAmount = errors.New("money: amount must be an integer")

// ErrDivisionByZero is returned by DividedBy when the divisor is zero.
var ErrDivisionByZero = errors.New("money: division by zero")

// RoundingMode selects how DividedBy resolves a non-terminating quotient.
type RoundingMode int

const (
	// RoundUp rounds the magnitude away from zero (the default, matching
	// the spec's bias toward the payer never being short-changed on
	// winc owed to them).
	RoundUp RoundingMode = iota
	// RoundDown truncates the magnitude toward zero.
	RoundDown
)

// divisionPrecision bounds the number of fractional digits considered when
// resolving a division before truncating/rounding to an integer. It is far
// larger than any realistic winc or fiat-minor-unit magnitude requires.
const divisionPrecision = 40

// Amount is an arbitrary-precision signed integer. It backs both winc
// balances and fiat payment amounts (in the currency's minor unit); the
// unit is a property of the call site, not of the type.
type Amount struct {
	v decimal.Decimal
}

// Zero is the additive identity.
var Zero = Amount{v: decimal.Zero}

// NewFromString parses a decimal string into an Amount. It rejects
// fractional values ("1.5"), non-numeric tokens ("abc"), and empty input.
func NewFromString(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("money: invalid amount %q: %w", s, err)
	}
	if !d.IsInteger() {
		return Amount{}, fmt.Errorf("%w: %q", ErrNonIntegerAmount, s)
	}
	return Amount{v: d}, nil
}

// NewFromInt wraps a native integer as an Amount.
func NewFromInt(n int64) Amount {
	return Amount{v: decimal.NewFromInt(n)}
}

// MustFromString is NewFromString for call sites constructing from a
// compile-time-known constant; it panics on error.
func MustFromString(s string) Amount {
	a, err := NewFromString(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String renders the amount as a decimal string, the only serialization
// format the ledger uses on the wire and in storage.
func (a Amount) String() string {
	return a.v.String()
}

// Plus returns a+b.
func (a Amount) Plus(b Amount) Amount {
	return Amount{v: a.v.Add(b.v)}
}

// Minus returns a-b.
func (a Amount) Minus(b Amount) Amount {
	return Amount{v: a.v.Sub(b.v)}
}

// Times multiplies by a decimal multiplier (e.g. an adjustment catalog's
// operatorMagnitude), rounding the magnitude of the result down (i.e.
// truncating toward zero) as required for subsidy/fee composition.
func (a Amount) Times(multiplier decimal.Decimal) Amount {
	return Amount{v: a.v.Mul(multiplier).Truncate(0)}
}

// DividedBy divides by a decimal divisor. mode defaults to RoundUp
// (rounding the magnitude away from zero) when omitted, matching the
// spec's default; pass RoundDown explicitly for the alternative.
func (a Amount) DividedBy(divisor decimal.Decimal, mode ...RoundingMode) (Amount, error) {
	if divisor.IsZero() {
		return Amount{}, ErrDivisionByZero
	}
	m := RoundUp
	if len(mode) > 0 {
		m = mode[0]
	}

	q := a.v.DivRound(divisor, divisionPrecision)
	if q.IsInteger() {
		return Amount{v: q}, nil
	}

	truncated := q.Truncate(0)
	if m == RoundDown {
		return Amount{v: truncated}, nil
	}
	if q.IsPositive() {
		return Amount{v: truncated.Add(decimal.NewFromInt(1))}, nil
	}
	return Amount{v: truncated.Sub(decimal.NewFromInt(1))}, nil
}

// IsEqualTo reports whether a == b.
func (a Amount) IsEqualTo(b Amount) bool {
	return a.v.Equal(b.v)
}

// IsGreaterThan reports whether a > b.
func (a Amount) IsGreaterThan(b Amount) bool {
	return a.v.GreaterThan(b.v)
}

// IsGreaterThanOrEqualTo reports whether a >= b.
func (a Amount) IsGreaterThanOrEqualTo(b Amount) bool {
	return a.v.GreaterThanOrEqual(b.v)
}

// IsZero reports whether a == 0.
func (a Amount) IsZero() bool {
	return a.v.IsZero()
}

// IsNonZeroPositiveInteger reports whether a > 0.
func (a Amount) IsNonZeroPositiveInteger() bool {
	return a.v.IsPositive()
}

// IsNonZeroNegativeInteger reports whether a < 0.
func (a Amount) IsNonZeroNegativeInteger() bool {
	return a.v.IsNegative()
}

// Max returns the larger of a and b.
func (a Amount) Max(b Amount) Amount {
	if a.v.GreaterThan(b.v) {
		return a
	}
	return b
}

// Negate returns -a.
func (a Amount) Negate() Amount {
	return Amount{v: a.v.Neg()}
}

// Difference returns the signed difference a-b. It is the static
// counterpart to Minus, useful when the operands aren't already typed
// as Amount receivers (e.g. when diffing two query results).
func Difference(a, b Amount) Amount {
	return Amount{v: a.v.Sub(b.v)}
}

// MarshalJSON serializes the amount as a quoted decimal string so large
// values survive round-trips through JSON number parsers.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.v.String() + `"`), nil
}

// UnmarshalJSON parses a quoted decimal string (or bare JSON number) into
// an integer Amount.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	if !d.IsInteger() {
		return fmt.Errorf("%w: %q", ErrNonIntegerAmount, string(data))
	}
	a.v = d
	return nil
}

// Value implements driver.Valuer so an Amount can be bound directly as a
// VARCHAR/NUMERIC parameter.
func (a Amount) Value() (driver.Value, error) {
	return a.v.String(), nil
}

// Scan implements sql.Scanner for reading a stored decimal string back
// into an Amount.
func (a *Amount) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return err
		}
		a.v = d
		return nil
	case []byte:
		d, err := decimal.NewFromString(string(v))
		if err != nil {
			return err
		}
		a.v = d
		return nil
	case int64:
		a.v = decimal.NewFromInt(v)
		return nil
	default:
		return fmt.Errorf("money: unsupported scan type %T", src)
	}
}

// Decimal exposes the underlying decimal.Decimal for callers that need to
// hand it to a third-party API (e.g. a catalog's operatorMagnitude math).
func (a Amount) Decimal() decimal.Decimal {
	return a.v
}
