// Package ordercell implements the decoded, derived view of a live order
// cell (spec §3, §4.3, C3): occupancy, progress, matchability predicates,
// and the confusion-attack descendant validation that underlies order
// discovery's resolve step.
package ordercell

import (
	"github.com/ckb-dex/order-core/pkg/chain"
	"github.com/ckb-dex/order-core/pkg/fixedpoint"
	"github.com/ckb-dex/order-core/pkg/orderdata"
	"github.com/ckb-dex/order-core/pkg/orderrrs"
)

// OrderCell is an immutable, decoded view of a live on-chain order cell.
type OrderCell struct {
	Cell        chain.Cell
	Data        orderdata.OrderData
	CkbOccupied fixedpoint.FixedPoint // minimal capacity required for this cell to exist
}

// TryFrom decodes a raw cell into an OrderCell. Any decode or semantic
// validation failure returns an error wrapping orderrrs.ErrDecodeFailure /
// ErrInvalidEntity; discovery callers (pkg/manager.findOrders) absorb this
// per cell and skip it rather than propagate (spec §7).
func TryFrom(cell chain.Cell, ckbOccupied fixedpoint.FixedPoint) (OrderCell, error) {
	data, err := orderdata.Decode(cell.Data)
	if err != nil {
		return OrderCell{}, err
	}
	if err := data.Validate(); err != nil {
		return OrderCell{}, err
	}
	if ckbOccupied.Cmp(fixedpoint.FromUint64(cell.Capacity)) > 0 {
		return OrderCell{}, orderrrs.Wrap(orderrrs.ErrInvalidEntity, "ckbOccupied exceeds capacity")
	}
	return OrderCell{Cell: cell, Data: data, CkbOccupied: ckbOccupied}, nil
}

// Capacity returns the cell's total CKB capacity as a FixedPoint.
func (o OrderCell) Capacity() fixedpoint.FixedPoint {
	return fixedpoint.FromUint64(o.Cell.Capacity)
}

// CkbUnoccupied is capacity minus the occupied floor (spec §3).
func (o OrderCell) CkbUnoccupied() fixedpoint.FixedPoint {
	return o.Capacity().Sub(o.CkbOccupied)
}

// GetMaster resolves this order's master reference.
func (o OrderCell) GetMaster() chain.OutPoint {
	return o.Data.GetMaster(o.Cell.OutPoint)
}

// ckb2UdtValue = k*R.ckbScale + u*R.udtScale when R (ckbToUdt) is populated,
// else 0 (spec §4.3).
func (o OrderCell) ckb2UdtValue() fixedpoint.FixedPoint {
	r := o.Data.Info.CkbToUdt
	if !r.IsPopulated() {
		return fixedpoint.Zero
	}
	k := o.CkbUnoccupied()
	u := o.Data.UdtAmount
	return k.MulNum(r.CkbScale).Add(u.MulNum(r.UdtScale))
}

// udt2CkbValue = k*R'.ckbScale + u*R'.udtScale when R' (udtToCkb) is
// populated, else 0.
func (o OrderCell) udt2CkbValue() fixedpoint.FixedPoint {
	r := o.Data.Info.UdtToCkb
	if !r.IsPopulated() {
		return fixedpoint.Zero
	}
	k := o.CkbUnoccupied()
	u := o.Data.UdtAmount
	return k.MulNum(r.CkbScale).Add(u.MulNum(r.UdtScale))
}

// AbsTotal is the order's total value measure (spec §4.3): the non-zero
// single-direction value when only one ratio is populated, else the
// integer average of the two cross-weighted dual-ratio measures.
func (o OrderCell) AbsTotal() fixedpoint.FixedPoint {
	ckb2udt := o.ckb2UdtValue()
	udt2ckb := o.udt2CkbValue()
	r := o.Data.Info.CkbToUdt
	rp := o.Data.Info.UdtToCkb

	switch {
	case !r.IsPopulated() && rp.IsPopulated():
		return udt2ckb
	case r.IsPopulated() && !rp.IsPopulated():
		return ckb2udt
	default:
		// dual-ratio: (ckb2udt*R'.ckbScale*R'.udtScale + udt2ckb*R.ckbScale*R.udtScale) >> 1
		lhs := ckb2udt.MulNum(rp.CkbScale).MulNum(rp.UdtScale)
		rhs := udt2ckb.MulNum(r.CkbScale).MulNum(r.UdtScale)
		sum := lhs.Add(rhs)
		return sum.Rsh1()
	}
}

// AbsProgress is the order's settlement progress measure (spec §4.3).
func (o OrderCell) AbsProgress() fixedpoint.FixedPoint {
	r := o.Data.Info.CkbToUdt
	rp := o.Data.Info.UdtToCkb

	switch {
	case r.IsPopulated() && rp.IsPopulated():
		return o.AbsTotal()
	case r.IsPopulated():
		return o.Data.UdtAmount.MulNum(r.UdtScale)
	default:
		return o.CkbUnoccupied().MulNum(rp.CkbScale)
	}
}

// IsCkb2UdtMatchable reports whether this order can currently be matched
// giving CKB for UDT.
func (o OrderCell) IsCkb2UdtMatchable() bool {
	return o.Data.Info.CkbToUdt.IsPopulated() && o.CkbUnoccupied().Cmp(fixedpoint.Zero) > 0
}

// IsUdt2CkbMatchable reports whether this order can currently be matched
// giving UDT for CKB. The predicate is symmetric with IsCkb2UdtMatchable
// (spec §4.3: "symmetric for the other direction") against the giving
// side of *this* direction: a udt→ckb matcher gives up UdtAmount (aIn)
// down to aMin=0, so headroom is UdtAmount itself, not ckbUnoccupied.
func (o OrderCell) IsUdt2CkbMatchable() bool {
	return o.Data.Info.UdtToCkb.IsPopulated() && o.Data.UdtAmount.Cmp(fixedpoint.Zero) > 0
}

// IsFulfilled reports that neither direction can make further progress —
// the matchability predicates being false in both directions (spec §7's
// "Melt" note: "implementers detect this via the matchability predicates
// being false").
func (o OrderCell) IsFulfilled() bool {
	return !o.IsCkb2UdtMatchable() && !o.IsUdt2CkbMatchable()
}

// Validate accepts trivially when descendant is the same cell; otherwise
// it requires identical lock/type scripts, identical resolved master
// outpoint, byte-identical info, and both monotonicity conditions (spec
// §4.3/§4.5's anti-confusion checks). Any failure returns an error
// wrapping orderrrs.ErrInvalidDescendant.
func (o OrderCell) Validate(descendant OrderCell) error {
	if o.Cell.OutPoint.Equal(descendant.Cell.OutPoint) {
		return nil
	}
	if !o.Cell.Lock.Equal(descendant.Cell.Lock) {
		return orderrrs.Wrap(orderrrs.ErrInvalidDescendant, "lock script mismatch")
	}
	if (o.Cell.Type == nil) != (descendant.Cell.Type == nil) {
		return orderrrs.Wrap(orderrrs.ErrInvalidDescendant, "type script presence mismatch")
	}
	if o.Cell.Type != nil && !o.Cell.Type.Equal(*descendant.Cell.Type) {
		return orderrrs.Wrap(orderrrs.ErrInvalidDescendant, "type script mismatch")
	}
	if !o.GetMaster().Equal(descendant.GetMaster()) {
		return orderrrs.Wrap(orderrrs.ErrInvalidDescendant, "resolved master mismatch")
	}
	if !o.Data.Info.Equal(descendant.Data.Info) {
		return orderrrs.Wrap(orderrrs.ErrInvalidDescendant, "info mismatch")
	}
	if o.AbsTotal().Cmp(descendant.AbsTotal()) > 0 {
		return orderrrs.Wrap(orderrrs.ErrInvalidDescendant, "absTotal decreased")
	}
	if o.AbsProgress().Cmp(descendant.AbsProgress()) > 0 {
		return orderrrs.Wrap(orderrrs.ErrInvalidDescendant, "absProgress decreased")
	}
	return nil
}

// OrderGroup is the resolved triple order discovery hands to the matcher
// and manager layers (spec §4.5): the current live order, the master cell
// that names its owner, and the mint-time origin used to validate the
// live order is a legitimate descendant rather than an attacker's
// confusable cell.
type OrderGroup struct {
	Master chain.Cell
	Order  OrderCell
	Origin OrderCell
}

// Validate checks the group is internally consistent: Origin must be a
// legitimate ancestor of Order (via OrderCell.Validate), and Order's
// resolved master outpoint must match Master's outpoint.
func (g OrderGroup) Validate() error {
	if err := g.Origin.Validate(g.Order); err != nil {
		return err
	}
	if !g.Order.GetMaster().Equal(g.Master.OutPoint) {
		return orderrrs.Wrap(orderrrs.ErrInvalidEntity, "order's resolved master does not match group master")
	}
	return nil
}

// Resolve returns the descendant with the largest absProgress among the
// candidates that validate against origin, breaking ties in favor of a
// non-mint (non-relative-master) cell. Returns false if no candidate
// validates (spec §4.3).
func Resolve(origin OrderCell, descendants []OrderCell) (OrderCell, bool) {
	var best OrderCell
	found := false

	for _, d := range descendants {
		if err := origin.Validate(d); err != nil {
			continue
		}
		if !found {
			best, found = d, true
			continue
		}
		cmp := d.AbsProgress().Cmp(best.AbsProgress())
		switch {
		case cmp > 0:
			best = d
		case cmp == 0 && best.Data.IsMint() && !d.Data.IsMint():
			best = d
		}
	}
	return best, found
}
