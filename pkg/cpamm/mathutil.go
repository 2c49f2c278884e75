package cpamm

import (
	"math/bits"

	"lukechampine.com/uint128"
)

// Isqrt returns floor(sqrt(n)) using the Newton iteration specified for the
// first-deposit LP mint: start at x = n, repeatedly y = (x + n/x)/2, stop
// once y >= x.
func Isqrt(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	x := n
	for {
		// x + n/x needs 65 bits when n == MaxUint64; keep the carry
		// through the halving.
		sum, carry := bits.Add64(x, n/x, 0)
		y := sum>>1 | carry<<63
		if y >= x {
			return x
		}
		x = y
	}
}

// CheckedAdd returns a+b, failing ArithmeticOverflow on wraparound.
func CheckedAdd(a, b uint64) (uint64, error) {
	r := a + b
	if r < a {
		return 0, newErr(ErrArithmeticOverflow, "overflow adding %d + %d", a, b)
	}
	return r, nil
}

// CheckedSub returns a-b, failing ArithmeticOverflow if b > a.
func CheckedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, newErr(ErrArithmeticOverflow, "underflow subtracting %d - %d", a, b)
	}
	return a - b, nil
}

// CheckedMul returns a*b, failing ArithmeticOverflow if the product does not
// fit in 64 bits.
func CheckedMul(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	r := a * b
	if r/a != b {
		return 0, newErr(ErrArithmeticOverflow, "overflow multiplying %d * %d", a, b)
	}
	return r, nil
}

// CheckedDiv returns a/b, failing ArithmeticOverflow on division by zero.
func CheckedDiv(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, newErr(ErrArithmeticOverflow, "division by zero (%d / 0)", a)
	}
	return a / b, nil
}

// MulDivFloor computes floor(a*b/denom), widening the intermediate product
// to 128 bits so that a*b never overflows even when it exceeds 2^64. Fails
// ArithmeticOverflow if denom is zero or the final quotient does not fit in
// 64 bits.
func MulDivFloor(a, b, denom uint64) (uint64, error) {
	if denom == 0 {
		return 0, newErr(ErrArithmeticOverflow, "division by zero (%d*%d / 0)", a, b)
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= denom {
		return 0, newErr(ErrArithmeticOverflow, "quotient of %d*%d / %d overflows 64 bits", a, b, denom)
	}
	q, _ := bits.Div64(hi, lo, denom)
	return q, nil
}

// InvariantK returns the full-width constant-product invariant reserveA *
// reserveB as a 128-bit value, since the product of two legitimate u64
// reserves routinely exceeds 64 bits. Used by callers (tests, monitoring)
// that need to compare k across a swap without risking silent wraparound.
func InvariantK(reserveA, reserveB uint64) uint128.Uint128 {
	hi, lo := bits.Mul64(reserveA, reserveB)
	return uint128.New(lo, hi)
}
