package manager

import (
	"github.com/ckb-dex/order-core/pkg/chain"
	"github.com/ckb-dex/order-core/pkg/ordercell"
)

// Melt appends the input pair (order cell, master cell) for each group to
// tx (spec §4.6's Melt). When fulfilledOnly is set, groups whose live
// order can still make progress in either direction are skipped — spec
// §7 notes fulfilled-ness is detected via the matchability predicates
// being false, not a separate progress/total equality field.
func (om *OrderManager) Melt(tx chain.TransactionAssembler, groups []ordercell.OrderGroup, fulfilledOnly bool) error {
	for _, g := range groups {
		if fulfilledOnly && !g.Order.IsFulfilled() {
			continue
		}
		tx.AddInput(g.Order.Cell)
		tx.AddInput(g.Master)
	}
	return nil
}
