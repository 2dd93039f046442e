package orderdata

import (
	"github.com/ckb-dex/order-core/pkg/chain"
	"github.com/ckb-dex/order-core/pkg/fixedpoint"
	"github.com/ckb-dex/order-core/pkg/orderrrs"
	"github.com/ckb-dex/order-core/pkg/ratio"
)

// OrderData is the decoded payload of an order cell's data field (spec §3,
// §4.2): the UDT amount it currently holds, a reference to its master
// witness cell, and the price/min-match descriptors that govern matching.
type OrderData struct {
	UdtAmount fixedpoint.FixedPoint
	Master    MasterRef
	Info      ratio.Info
}

// IsMint reports whether this order's master is still the mint-time
// relative form (spec §3).
func (d OrderData) IsMint() bool {
	return d.Master.IsRelative()
}

// GetMaster resolves the master reference given the order cell's own
// outpoint (spec §4.2).
func (d OrderData) GetMaster(currentOutPoint chain.OutPoint) chain.OutPoint {
	return d.Master.Resolve(currentOutPoint)
}

// Validate checks udtAmount is representable, master is structurally
// valid, and info passes its own validation (spec §3: "udtAmount ≥ 0;
// master valid; info valid").
func (d OrderData) Validate() error {
	if !d.UdtAmount.Valid() {
		return orderrrs.Wrap(orderrrs.ErrInvalidEntity, "udtAmount does not fit 128 bits")
	}
	if err := d.Master.Validate(); err != nil {
		return err
	}
	if err := d.Info.Validate(); err != nil {
		return err
	}
	return nil
}

// Equal reports byte-for-byte equivalence of meaning, used by codec
// round-trip tests.
func (d OrderData) Equal(o OrderData) bool {
	return d.UdtAmount.Cmp(o.UdtAmount) == 0 && d.Master.Equal(o.Master) && d.Info.Equal(o.Info)
}
