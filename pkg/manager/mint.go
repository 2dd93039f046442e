package manager

import (
	"github.com/ckb-dex/order-core/pkg/chain"
	"github.com/ckb-dex/order-core/pkg/fixedpoint"
	"github.com/ckb-dex/order-core/pkg/orderdata"
	"github.com/ckb-dex/order-core/pkg/orderrrs"
	"github.com/ckb-dex/order-core/pkg/ratio"
)

// Mint appends a freshly-minted order's two consecutive outputs to tx
// (spec §4.6's Mint): the order cell itself, then the master witness
// cell that names its owner. The order's master reference is
// relative(+1) — load-bearing, since it is what makes the master's own
// resolved outpoint point back at itself (spec §9).
func (om *OrderManager) Mint(tx chain.TransactionAssembler, ownerLock chain.Script, udtValue, ckbValue fixedpoint.FixedPoint, info ratio.Info) error {
	if err := info.Validate(); err != nil {
		return err
	}
	if !udtValue.Valid() {
		return orderrrs.Wrap(orderrrs.ErrInvalidEntity, "mint: udtValue does not fit 128 bits")
	}

	data := orderdata.OrderData{UdtAmount: udtValue, Master: orderdata.Relative(1), Info: info}
	encoded, err := orderdata.Encode(data)
	if err != nil {
		return err
	}

	orderCapacity := om.CkbOccupied.Add(ckbValue)
	if orderCapacity.Big().BitLen() > 64 {
		return orderrrs.Wrap(orderrrs.ErrInvalidEntity, "mint: order capacity does not fit 64 bits")
	}

	tx.AddOutput(chain.OutputSpec{
		Lock:     om.OrderScript,
		Type:     &om.UdtScript,
		Capacity: orderCapacity.Uint64(),
	}, encoded)

	tx.AddOutput(chain.OutputSpec{
		Lock: ownerLock,
		Type: &om.OrderScript,
	}, nil)

	return nil
}
