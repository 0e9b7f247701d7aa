// Package fixedpoint implements the checked, floor-rounding arithmetic
// the farming engine performs over token amounts ("τ" in the design
// docs). Every Amount is a non-negative integer number of a token's
// smallest unit; there is no fractional part at rest. Intermediate
// products computed while summing accrual across snapshots and harvest
// periods can vastly exceed a 64-bit range, so Amount is backed by
// shopspring/decimal's arbitrary-precision coefficient instead of a
// machine word, and every operation checks the final result still fits
// the persisted uint64 wire format before returning it.
package fixedpoint

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// maxAmount is the largest value an Amount can hold; the persisted
// on-chain representation is a u64.
var maxAmount = decimal.NewFromBigInt(new(big.Int).SetUint64(^uint64(0)), 0)

// Amount is a non-negative, wire-compatible integer token amount.
// The zero value is zero tokens.
type Amount struct {
	d decimal.Decimal
}

// Zero returns the zero Amount.
func Zero() Amount {
	return Amount{d: decimal.Zero}
}

// FromUint64 constructs an Amount from a raw u64 token quantity.
func FromUint64(v uint64) Amount {
	if v == 0 {
		return Amount{}
	}
	return Amount{d: decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)}
}

// Uint64 returns the Amount as a u64, or ErrArithmeticOverflow if it
// doesn't fit (it never should, since every constructor and operation
// enforces the bound, but callers persisting to a fixed-size record
// should still check).
func (a Amount) Uint64() (uint64, error) {
	if a.d.IsNegative() || a.d.GreaterThan(maxAmount) {
		return 0, ErrArithmeticOverflow
	}
	return a.d.BigInt().Uint64(), nil
}

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

// Cmp compares two amounts the way big.Int.Cmp does.
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool {
	return a.d.LessThan(b.d)
}

// GreaterThan reports whether a > b.
func (a Amount) GreaterThan(b Amount) bool {
	return a.d.GreaterThan(b.d)
}

// String renders the amount as a base-10 integer.
func (a Amount) String() string {
	return a.d.String()
}

// MarshalJSON renders the amount as a quoted base-10 integer string,
// so API responses never lose precision the way an unquoted JSON
// number backed by float64 would for large token quantities.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.d.String() + `"`), nil
}

// UnmarshalJSON parses the quoted or bare base-10 integer string
// produced by MarshalJSON.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	got, err := checkRange(d)
	if err != nil {
		return err
	}
	*a = got
	return nil
}

func checkRange(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() || d.GreaterThan(maxAmount) {
		return Amount{}, ErrArithmeticOverflow
	}
	return Amount{d: d}, nil
}

// Add returns a+b, or ErrArithmeticOverflow if the sum exceeds the u64
// range.
func Add(a, b Amount) (Amount, error) {
	return checkRange(a.d.Add(b.d))
}

// Sub returns a-b, or ErrArithmeticOverflow if b > a (amounts are
// never negative).
func Sub(a, b Amount) (Amount, error) {
	return checkRange(a.d.Sub(b.d))
}

// Mul returns a*b, or ErrArithmeticOverflow if the product exceeds the
// u64 range.
func Mul(a, b Amount) (Amount, error) {
	return checkRange(a.d.Mul(b.d))
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a.d.LessThan(b.d) {
		return a
	}
	return b
}

// Div computes floor(a/b). b must be strictly positive.
func Div(a, b Amount) (Amount, error) {
	if b.d.IsZero() {
		return Amount{}, ErrArithmeticOverflow
	}
	quotient, _ := a.d.QuoRem(b.d, 0)
	return checkRange(quotient)
}

// MulDiv computes floor(a*b/c) using an arbitrary-precision
// intermediate so the a*b product never overflows regardless of how
// large a and b are individually. Division always rounds down, in
// favor of the pool rather than the caller, per spec. c must be
// strictly positive.
func MulDiv(a, b, c Amount) (Amount, error) {
	if c.d.IsZero() {
		return Amount{}, ErrArithmeticOverflow
	}
	product := a.d.Mul(b.d)
	quotient, _ := product.QuoRem(c.d, 0)
	return checkRange(quotient)
}

// FindExponent returns the bit length of x's integer value, i.e. the
// 1-based position of its most significant set bit (0 for x == 0). This
// mirrors the reference implementation's base_two_exponent helper; it
// is not used internally by MulDiv (which relies on an
// arbitrary-precision coefficient instead of explicit exponent
// bookkeeping) but is kept for API parity with the wider fixed-point
// vocabulary and is independently useful to callers estimating
// headroom before a multiplication.
func FindExponent(x Amount) int {
	return x.d.BigInt().BitLen()
}
