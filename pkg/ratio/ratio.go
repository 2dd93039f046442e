// Package ratio implements the immutable price descriptors of spec §4.1
// (C1): Ratio and Info, and the value-extraction guard that keeps a
// dual-ratio order from round-tripping CKB/UDT value out of a cell.
package ratio

import (
	"github.com/ckb-dex/order-core/pkg/fixedpoint"
	"github.com/ckb-dex/order-core/pkg/orderrrs"
)

// Ratio is the pair (ckbScale, udtScale) describing an exchange rate for
// the direction it is attached to: ckbScale CKB-equivalent units per
// udtScale UDT-equivalent units.
type Ratio struct {
	CkbScale fixedpoint.Num
	UdtScale fixedpoint.Num
}

// Empty is the zero ratio, meaning "this direction is not offered".
var Empty = Ratio{}

// IsEmpty reports whether both components are zero.
func (r Ratio) IsEmpty() bool {
	return r.CkbScale == 0 && r.UdtScale == 0
}

// IsPopulated reports whether both components are strictly positive.
func (r Ratio) IsPopulated() bool {
	return r.CkbScale > 0 && r.UdtScale > 0
}

// Valid reports whether r is either empty or populated — any half-populated
// combination (exactly one of the two scales zero) is invalid.
func (r Ratio) Valid() bool {
	return r.IsEmpty() || r.IsPopulated()
}

// Less implements the lexicographic comparison of §3: a < b iff
// a.ckbScale*b.udtScale < b.ckbScale*a.udtScale, with fast paths when a
// shared component makes the cross product unnecessary.
func (a Ratio) Less(b Ratio) bool {
	if a.CkbScale == b.CkbScale {
		return a.UdtScale > b.UdtScale
	}
	if a.UdtScale == b.UdtScale {
		return a.CkbScale < b.CkbScale
	}
	lhs := fixedpoint.FromUint64(uint64(a.CkbScale)).MulNum(b.UdtScale)
	rhs := fixedpoint.FromUint64(uint64(b.CkbScale)).MulNum(a.UdtScale)
	return lhs.Cmp(rhs) < 0
}

// Equal reports whether two ratios carry the same scales.
func (a Ratio) Equal(b Ratio) bool {
	return a.CkbScale == b.CkbScale && a.UdtScale == b.UdtScale
}

// Info is the triple (ckbToUdt, udtToCkb, ckbMinMatchLog) carried in every
// OrderData (spec §3/§4.1).
type Info struct {
	CkbToUdt       Ratio
	UdtToCkb       Ratio
	CkbMinMatchLog uint8
}

// MaxCkbMinMatchLog bounds ckbMinMatchLog to the range the spec allows
// ([0,64], so 1<<log always fits a 128-bit FixedPoint).
const MaxCkbMinMatchLog = 64

// DefaultCkbMinMatchLog is the default anti-dust exponent (≈86 CKB).
const DefaultCkbMinMatchLog = 33

// GetCkbMinMatch returns 1<<ckbMinMatchLog, the minimum CKB-equivalent size
// of any partial match.
func (i Info) GetCkbMinMatch() fixedpoint.FixedPoint {
	return fixedpoint.Pow2(i.CkbMinMatchLog)
}

// Validate rejects: out-of-range ckbMinMatchLog; an exactly-empty or
// half-populated ratio pair; and any dual-ratio pair that would let a
// round trip extract value (spec §4.1).
func (i Info) Validate() error {
	if i.CkbMinMatchLog > MaxCkbMinMatchLog {
		return orderrrs.Wrapf(orderrrs.ErrInvalidEntity, "ckbMinMatchLog %d exceeds %d", i.CkbMinMatchLog, MaxCkbMinMatchLog)
	}
	if !i.CkbToUdt.Valid() {
		return orderrrs.Wrapf(orderrrs.ErrInvalidEntity, "ckbToUdt is half-populated: %+v", i.CkbToUdt)
	}
	if !i.UdtToCkb.Valid() {
		return orderrrs.Wrapf(orderrrs.ErrInvalidEntity, "udtToCkb is half-populated: %+v", i.UdtToCkb)
	}
	if i.CkbToUdt.IsEmpty() && i.UdtToCkb.IsEmpty() {
		return orderrrs.Wrapf(orderrrs.ErrInvalidEntity, "info has no populated ratio")
	}
	if i.CkbToUdt.IsPopulated() && i.UdtToCkb.IsPopulated() {
		// ckbToUdt.ckbScale * udtToCkb.udtScale >= ckbToUdt.udtScale * udtToCkb.ckbScale
		lhs := fixedpoint.FromUint64(uint64(i.CkbToUdt.CkbScale)).MulNum(i.UdtToCkb.UdtScale)
		rhs := fixedpoint.FromUint64(uint64(i.CkbToUdt.UdtScale)).MulNum(i.UdtToCkb.CkbScale)
		if lhs.Cmp(rhs) < 0 {
			return orderrrs.Wrapf(orderrrs.ErrInvalidEntity, "dual ratio extracts value: %s < %s", lhs, rhs)
		}
	}
	return nil
}

// Equal reports whether two Info values are byte-identical in meaning
// (codec round-trip and descendant-validation both require this).
func (i Info) Equal(o Info) bool {
	return i.CkbToUdt.Equal(o.CkbToUdt) && i.UdtToCkb.Equal(o.UdtToCkb) && i.CkbMinMatchLog == o.CkbMinMatchLog
}
