// Package money implements the decimal arithmetic kernel: fixed-precision
// Money and Rate types backed by shopspring/decimal. No operation in this
// package or any caller ever touches a native float in a monetary path.
package money

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// internalScale is the minimum number of fractional digits preserved through
// intermediate computation before a final rounding step.
const internalScale = 10

// outputScale is the number of fractional digits a Money value carries once
// persisted or returned to a caller.
const outputScale = 2

// rateScale is the minimum number of fractional digits a Rate preserves.
const rateScale = 6

// defaultEpsilon is the default tolerance used by IsEqual.
var defaultEpsilon = decimal.New(5, -3)

func init() {
	decimal.DivisionPrecision = internalScale + 5
}

// Money is an immutable decimal amount. Zero value is $0.00. NewMoney and
// MustMoney accept any decimal, negatives included; NewNonNegativeMoney is
// the constructor that rejects negative values.
type Money struct {
	d decimal.Decimal
}

// Rate is an immutable decimal ratio (e.g. a tax rate) with ≥6 fractional
// digits of precision.
type Rate struct {
	d decimal.Decimal
}

// Zero is the additive identity.
func Zero() Money { return Money{d: decimal.Zero} }

// ZeroRate is the zero rate.
func ZeroRate() Rate { return Rate{d: decimal.Zero} }

// NewMoney parses a decimal string ("1234.56") into a Money value. Rejects
// malformed strings with ErrInvalidInput.
func NewMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return Money{d: d}, nil
}

// NewMoneyFromInt builds a Money value from whole currency units (no cents).
func NewMoneyFromInt(units int64) Money {
	return Money{d: decimal.NewFromInt(units)}
}

// NewMoneyFromCents builds a Money value from an integer cent count.
func NewMoneyFromCents(cents int64) Money {
	return Money{d: decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))}
}

// MustMoney is NewMoney that panics on error; reserved for constants/tests.
func MustMoney(s string) Money {
	m, err := NewMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// NewNonNegativeMoney parses s and fails with ErrNegativeAmount if the
// result is below zero. Used at every input boundary that forbids negatives
// (prices, rates, fees).
func NewNonNegativeMoney(s string) (Money, error) {
	m, err := NewMoney(s)
	if err != nil {
		return Money{}, err
	}
	if m.d.IsNegative() {
		return Money{}, fmt.Errorf("%w: %s", ErrNegativeAmount, s)
	}
	return m, nil
}

// NewRate parses a decimal string into a Rate ("0.0625" = 6.25%).
func NewRate(s string) (Rate, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Rate{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if d.IsNegative() {
		return Rate{}, fmt.Errorf("%w: %s", ErrNegativeAmount, s)
	}
	return Rate{d: d.Round(rateScale)}, nil
}

// MustRate is NewRate that panics on error; reserved for constants/tests.
func MustRate(s string) Rate {
	r, err := NewRate(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Add returns a+b.
func (a Money) Add(b Money) Money { return Money{d: a.d.Add(b.d)} }

// Sub returns a-b (may be negative; callers enforce non-negativity where the
// domain requires it).
func (a Money) Sub(b Money) Money { return Money{d: a.d.Sub(b.d)} }

// Mul returns a*b.
func (a Money) Mul(b Money) Money { return Money{d: a.d.Mul(b.d)} }

// MulRate returns a*r.
func (a Money) MulRate(r Rate) Money { return Money{d: a.d.Mul(r.d)} }

// Div returns a/b. Fails with ErrArithmetic if b is zero.
func (a Money) Div(b Money) (Money, error) {
	if b.d.IsZero() {
		return Money{}, fmt.Errorf("%w: division by zero", ErrArithmetic)
	}
	return Money{d: a.d.DivRound(b.d, internalScale)}, nil
}

// DivInt divides by a plain integer (e.g. a term in months).
func (a Money) DivInt(n int64) (Money, error) {
	if n == 0 {
		return Money{}, fmt.Errorf("%w: division by zero", ErrArithmetic)
	}
	return Money{d: a.d.DivRound(decimal.NewFromInt(n), internalScale)}, nil
}

// Neg returns -a.
func (a Money) Neg() Money { return Money{d: a.d.Neg()} }

// Abs returns |a|.
func (a Money) Abs() Money { return Money{d: a.d.Abs()} }

// Pow raises a to an integer power (used by amortization formulas operating
// on (1+r) factors expressed as Money for uniform rounding treatment).
func (a Money) Pow(n int64) Money { return Money{d: a.d.Pow(decimal.NewFromInt(n))} }

// Min returns the lesser of a and b.
func Min(a, b Money) Money {
	if a.d.LessThan(b.d) {
		return a
	}
	return b
}

// Max returns the greater of a and b.
func Max(a, b Money) Money {
	if a.d.GreaterThan(b.d) {
		return a
	}
	return b
}

// MinZero returns a if non-negative else Zero.
func MinZero(a Money) Money {
	return Max(a, Zero())
}

// ApplyCap returns min(x, cap).
func ApplyCap(x, cap Money) Money { return Min(x, cap) }

// ApplyPercent returns x * p.
func ApplyPercent(x Money, p Rate) Money { return x.MulRate(p) }

// Sum adds a slice of Money values.
func Sum(values ...Money) Money {
	total := Zero()
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// IsEqual reports whether a and b are within epsilon of one another. When no
// epsilon is passed the default $0.005 tolerance applies; a passed epsilon,
// zero included, is used as given.
func IsEqual(a, b Money, epsilon ...Money) bool {
	eps := defaultEpsilon
	if len(epsilon) > 0 {
		eps = epsilon[0].d
	}
	return a.Sub(b).Abs().d.LessThanOrEqual(eps)
}

// IsNegative reports whether a < 0.
func (a Money) IsNegative() bool { return a.d.IsNegative() }

// IsZero reports whether a == 0.
func (a Money) IsZero() bool { return a.d.IsZero() }

// GreaterThan reports whether a > b.
func (a Money) GreaterThan(b Money) bool { return a.d.GreaterThan(b.d) }

// LessThan reports whether a < b.
func (a Money) LessThan(b Money) bool { return a.d.LessThan(b.d) }

// Round rounds a to 2 decimal places, half-away-from-zero, as required for
// any persisted or customer-facing amount.
func (a Money) Round() Money {
	return Money{d: roundHalfAwayFromZero(a.d, outputScale)}
}

// Decimal exposes the underlying high-precision decimal for callers (e.g.
// pgtype.Numeric conversion) that need it; it is never to be converted to a
// native float for computation.
func (a Money) Decimal() decimal.Decimal { return a.d }

// FromDecimal wraps an existing decimal.Decimal as Money (used by the
// postgres repository layer when scanning NUMERIC columns).
func FromDecimal(d decimal.Decimal) Money { return Money{d: d} }

// RateFromDecimal wraps an existing decimal.Decimal as Rate.
func RateFromDecimal(d decimal.Decimal) Rate { return Rate{d: d.Round(rateScale)} }

// FromDecimalBigInt reconstructs a Money from a coefficient/exponent pair,
// the shape pgtype.Numeric exposes (n.Int, n.Exp) when scanning a NUMERIC
// column — mirrors decimal.NewFromBigInt used directly on *big.Int.
func FromDecimalBigInt(coeff *big.Int, exp int32) Money {
	return Money{d: decimal.NewFromBigInt(coeff, exp)}
}

// RateFromDecimalBigInt is FromDecimalBigInt for Rate.
func RateFromDecimalBigInt(coeff *big.Int, exp int32) Rate {
	return Rate{d: decimal.NewFromBigInt(coeff, exp).Round(rateScale)}
}

// Decimal exposes the underlying decimal for a Rate.
func (r Rate) Decimal() decimal.Decimal { return r.d }

// String formats Money to exactly 2 decimal places.
func (a Money) String() string {
	return a.Round().d.StringFixed(outputScale)
}

// String formats Rate to its stored precision.
func (r Rate) String() string {
	return r.d.StringFixed(rateScale)
}

// MarshalJSON emits Money as a decimal string ("12345.67"), per spec §6.3 —
// money never serializes as a JSON number, to avoid float round-trip loss.
func (a Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON parses a decimal string into Money.
func (a *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		*a = Zero()
		return nil
	}
	m, err := NewMoney(s)
	if err != nil {
		return err
	}
	*a = m
	return nil
}

// MarshalJSON emits Rate as a decimal string.
func (r Rate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

// UnmarshalJSON parses a decimal string into Rate.
func (r *Rate) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		*r = ZeroRate()
		return nil
	}
	parsed, err := NewRate(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func roundHalfAwayFromZero(d decimal.Decimal, places int32) decimal.Decimal {
	if d.IsNegative() {
		return d.Neg().Round(places).Neg()
	}
	return d.Round(places)
}
