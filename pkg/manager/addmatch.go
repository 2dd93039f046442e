package manager

import (
	"github.com/ckb-dex/order-core/pkg/chain"
	"github.com/ckb-dex/order-core/pkg/fixedpoint"
	"github.com/ckb-dex/order-core/pkg/orderdata"
	"github.com/ckb-dex/order-core/pkg/orderrrs"
	"github.com/ckb-dex/order-core/pkg/ordercell"
)

// Partial is a single order's leg of a match, as consumed by AddMatch.
type Partial struct {
	Order  ordercell.OrderCell
	CkbOut fixedpoint.FixedPoint
	UdtOut fixedpoint.FixedPoint
}

// AddMatch appends the input/output pair for each partial to tx (spec
// §4.6's AddMatch): the original order cell is consumed, and its
// successor carries the same scripts at the new balances, with its
// master reference converted from relative to absolute so any future
// descendant keeps pointing at the same witness cell.
func (om *OrderManager) AddMatch(tx chain.TransactionAssembler, partials []Partial) error {
	for _, p := range partials {
		if !p.UdtOut.Valid() {
			return orderrrs.Wrap(orderrrs.ErrInvalidEntity, "addMatch: udtOut does not fit 128 bits")
		}
		if p.CkbOut.Big().BitLen() > 64 {
			return orderrrs.Wrap(orderrrs.ErrInvalidEntity, "addMatch: ckbOut does not fit 64 bits")
		}

		data := orderdata.OrderData{
			UdtAmount: p.UdtOut,
			Master:    orderdata.Absolute(p.Order.GetMaster()),
			Info:      p.Order.Data.Info,
		}
		encoded, err := orderdata.Encode(data)
		if err != nil {
			return err
		}

		tx.AddInput(p.Order.Cell)
		tx.AddOutput(chain.OutputSpec{
			Lock:     p.Order.Cell.Lock,
			Type:     p.Order.Cell.Type,
			Capacity: p.CkbOut.Uint64(),
		}, encoded)
	}
	return nil
}
