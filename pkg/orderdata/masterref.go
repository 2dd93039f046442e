package orderdata

import (
	"github.com/ckb-dex/order-core/pkg/chain"
	"github.com/ckb-dex/order-core/pkg/orderrrs"
)

// MasterKind tags the two MasterRef variants (spec §3/§4.2).
type MasterKind uint8

const (
	MasterRelative MasterKind = 0
	MasterAbsolute MasterKind = 1
)

// MasterRef is the tagged reference to an order's master witness cell.
// Relative carries a signed distance from the order's own outpoint, with a
// mandatory 32-byte zero-padding prefix; Absolute carries the outpoint
// directly. A freshly-minted order's master is always Relative with
// distance=+1, so that it resolves to the cell emitted right after it in
// the same transaction (the master cell) — not a cycle, a witness that
// "the order's owner is whoever controls the master cell" (spec §9).
type MasterRef struct {
	Kind     MasterKind
	Padding  [32]byte // must be all-zero; only meaningful when Kind==MasterRelative
	Distance int32    // only meaningful when Kind==MasterRelative
	Out      chain.OutPoint // only meaningful when Kind==MasterAbsolute
}

// Relative builds a relative MasterRef with zero padding.
func Relative(distance int32) MasterRef {
	return MasterRef{Kind: MasterRelative, Distance: distance}
}

// Absolute builds an absolute MasterRef.
func Absolute(out chain.OutPoint) MasterRef {
	return MasterRef{Kind: MasterAbsolute, Out: out}
}

// IsRelative reports whether this reference is the mint-time relative form.
func (m MasterRef) IsRelative() bool {
	return m.Kind == MasterRelative
}

// Resolve returns the outpoint this reference points at, given the
// outpoint of the order cell carrying it (spec §4.2).
func (m MasterRef) Resolve(currentOutPoint chain.OutPoint) chain.OutPoint {
	if m.Kind == MasterRelative {
		return currentOutPoint.Add(m.Distance)
	}
	return m.Out
}

// Validate checks padding is exactly 32 zero bytes for a relative
// reference; absolute references have nothing to validate structurally.
func (m MasterRef) Validate() error {
	if m.Kind == MasterRelative {
		for _, b := range m.Padding {
			if b != 0 {
				return orderrrs.Wrap(orderrrs.ErrInvalidEntity, "master ref: relative padding is not all-zero")
			}
		}
		return nil
	}
	if m.Kind != MasterAbsolute {
		return orderrrs.Wrapf(orderrrs.ErrInvalidEntity, "master ref: unknown kind %d", m.Kind)
	}
	return nil
}

// Equal reports whether two master references have the same raw
// representation: same kind, and the same distance (relative) or outpoint
// (absolute). References are not resolved; a relative and an absolute
// reference to the same master are not equal. Descendant validation
// compares resolved outpoints via GetMaster instead.
func (m MasterRef) Equal(o MasterRef) bool {
	if m.Kind != o.Kind {
		return false
	}
	if m.Kind == MasterRelative {
		return m.Distance == o.Distance
	}
	return m.Out.Equal(o.Out)
}
