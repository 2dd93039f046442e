// Package fixedpoint implements the exact-integer arithmetic primitives the
// order-matching core is built on: 128-bit amounts/capacities (FixedPoint),
// 64-bit scaling factors (Num), and the single non-decreasing-value formula
// every matcher in pkg/matcher and pkg/manager composes with.
package fixedpoint

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Num is a 64-bit scaling factor (a Ratio's ckbScale/udtScale component).
type Num uint64

// FixedPoint is a non-negative, 128-bit-wide amount or capacity. Internally
// it is carried in a 256-bit uint256.Int so that intermediate products
// during matching never truncate (spec §9: "all intermediate products ...
// can exceed 192 bits"); Valid reports whether the value still fits the
// 128-bit on-chain representation.
type FixedPoint struct {
	v uint256.Int
}

// Zero is the additive identity.
var Zero = FixedPoint{}

// FromUint64 builds a FixedPoint from a plain 64-bit amount.
func FromUint64(x uint64) FixedPoint {
	var fp FixedPoint
	fp.v.SetUint64(x)
	return fp
}

// FromUint256 wraps an already-computed 256-bit intermediate. Used by
// derived-scalar computations (absTotal, absProgress, realRatio numerators)
// that may legitimately exceed 128 bits before being compared or ranked —
// those never round-trip through the cell-data codec, so overflow there is
// not fatal.
func FromUint256(v *uint256.Int) FixedPoint {
	return FixedPoint{v: *v}
}

// Pow2 returns 1<<n as a FixedPoint, for n in [0,127]. Used to turn a
// ckbMinMatchLog exponent into a concrete minimum-match amount.
func Pow2(n uint8) FixedPoint {
	b := new(big.Int).Lsh(big.NewInt(1), uint(n))
	return FromBig(b)
}

// FromBytes16 decodes a little-endian 16-byte u128, as stored in OrderData.
func FromBytes16(b [16]byte) FixedPoint {
	var be [16]byte
	for i := range b {
		be[i] = b[15-i]
	}
	var fp FixedPoint
	fp.v.SetBytes(be[:])
	return fp
}

// Bytes16 encodes the value as a little-endian 16-byte u128. Panics if the
// value does not fit — callers must check Valid() (or rely on the codec's
// own validation) before encoding.
func (f FixedPoint) Bytes16() [16]byte {
	if !f.Valid() {
		panic("fixedpoint: value does not fit in 128 bits")
	}
	be := f.v.Bytes()
	var out [16]byte
	// uint256.Bytes() returns the minimal big-endian encoding (no leading
	// zero bytes); right-align into the 16-byte big-endian buffer first.
	copy(out[16-len(be):], be)
	for i, j := 0, 15; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Valid reports whether the value fits in 128 bits, as required of any
// amount or capacity that is encoded onto the chain.
func (f FixedPoint) Valid() bool {
	return f.v.BitLen() <= 128
}

// Uint64 returns the low 64 bits; callers use this only for values already
// known to be small scalars (e.g. a ckbMinMatchLog-derived floor).
func (f FixedPoint) Uint64() uint64 {
	return f.v.Uint64()
}

// IsZero reports whether the value is zero.
func (f FixedPoint) IsZero() bool {
	return f.v.IsZero()
}

// Cmp compares two FixedPoint values the way uint256.Int.Cmp does.
func (f FixedPoint) Cmp(o FixedPoint) int {
	return f.v.Cmp(&o.v)
}

func (f FixedPoint) Add(o FixedPoint) FixedPoint {
	var out FixedPoint
	if _, overflow := out.v.AddOverflow(&f.v, &o.v); overflow {
		panic("fixedpoint: add overflow")
	}
	return out
}

// Sub computes f-o; panics on underflow (amounts are never negative, so a
// caller asking for this is always a matching-arithmetic bug, not bad
// chain data).
func (f FixedPoint) Sub(o FixedPoint) FixedPoint {
	if f.Cmp(o) < 0 {
		panic("fixedpoint: sub underflow")
	}
	var out FixedPoint
	out.v.Sub(&f.v, &o.v)
	return out
}

// MulNum computes f*n exactly in 256 bits.
func (f FixedPoint) MulNum(n Num) FixedPoint {
	var out FixedPoint
	var y uint256.Int
	y.SetUint64(uint64(n))
	if _, overflow := out.v.MulOverflow(&f.v, &y); overflow {
		panic("fixedpoint: mul overflow")
	}
	return out
}

// Rsh1 computes f>>1 (integer division by two, truncating), used by
// OrderCell's dual-ratio absTotal average (spec §4.3).
func (f FixedPoint) Rsh1() FixedPoint {
	var out FixedPoint
	out.v.Rsh(&f.v, 1)
	return out
}

// Big returns the value as a *big.Int, for ranking/reporting code paths
// (realRatio, scoring) that want ordinary big-rational arithmetic rather
// than fixed-width checked arithmetic.
func (f FixedPoint) Big() *big.Int {
	return f.v.ToBig()
}

func (f FixedPoint) String() string {
	return f.v.String()
}

// FromBig wraps a non-negative *big.Int result (produced by NonDecreasing's
// signed intermediate arithmetic) back into a FixedPoint. Panics if the
// value is negative — a negative result means a caller fed NonDecreasing
// an allowance request its own feasibility checks should have rejected.
func FromBig(b *big.Int) FixedPoint {
	if b.Sign() < 0 {
		panic("fixedpoint: negative result")
	}
	var fp FixedPoint
	if _, overflow := fp.v.SetFromBig(b); overflow {
		panic("fixedpoint: value exceeds 256 bits")
	}
	return fp
}

// MulDivCeil computes ceil(f*mul/div) exactly, the repeated
// rounding-conversion pattern used to translate a minimum-match size
// across ratio scales (OrderMatcher's bMinMatch) and to size allowance
// steps and mining fees (OrderManager's bestMatch). div must be positive.
func (f FixedPoint) MulDivCeil(mul, div Num) FixedPoint {
	product := new(big.Int).Mul(f.Big(), big.NewInt(0).SetUint64(uint64(mul)))
	denom := big.NewInt(0).SetUint64(uint64(div))
	numerator := new(big.Int).Add(product, denom)
	numerator.Sub(numerator, big.NewInt(1))
	quotient := new(big.Int).Div(numerator, denom)
	return FromBig(quotient)
}

// NonDecreasing is the arithmetic core of §4.4: given a match that moves one
// side from In to Out at scales (aScale, bScale), it returns the minimum
// companion value satisfying
//
//	aScale·aOut + bScale·bOut  >=  aScale·aIn + bScale·bIn
//
// computed as the exact integer
//
//	bOut = (aScale·(aIn-aOut) + bScale·(bIn+1) - 1) / bScale
//
// The +1/-1 adjustment is load-bearing (it is what makes this integer floor
// division equal ceil((aScale·(aIn-aOut) + bScale·bIn) / bScale)) and must
// not be simplified away. aIn-aOut is computed as a signed intermediate
// (via math/big, per spec §9's "arbitrary-precision integers" note) because
// OrderMatcher.match's partial-fill path calls this with the roles of a/b
// swapped, where the side being "given" has actually increased rather than
// decreased — the formula is symmetric and still yields the correct,
// non-negative companion value as long as the overall numerator is
// non-negative.
func NonDecreasing(aScale, bScale Num, aIn, bIn, aOut FixedPoint) FixedPoint {
	given := new(big.Int).Sub(aIn.Big(), aOut.Big())
	term1 := new(big.Int).Mul(given, big.NewInt(0).SetUint64(uint64(aScale)))

	bInPlus1 := new(big.Int).Add(bIn.Big(), big.NewInt(1))
	term2 := new(big.Int).Mul(bInPlus1, big.NewInt(0).SetUint64(uint64(bScale)))

	numerator := new(big.Int).Add(term1, term2)
	numerator.Sub(numerator, big.NewInt(1))

	if numerator.Sign() < 0 {
		panic("fixedpoint: nonDecreasing: infeasible inputs (negative numerator)")
	}

	quotient := new(big.Int).Div(numerator, big.NewInt(0).SetUint64(uint64(bScale)))
	return FromBig(quotient)
}
