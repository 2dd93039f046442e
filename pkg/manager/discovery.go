package manager

import (
	"context"
	"sync"

	"github.com/ckb-dex/order-core/pkg/chain"
	"github.com/ckb-dex/order-core/pkg/ordercell"
	"github.com/ckb-dex/order-core/pkg/orderrrs"
)

// FindOrders discovers live OrderGroups on chain (spec §4.6's
// findOrders). It scans for order and master candidates in parallel,
// buckets orders by their resolved master outpoint, resolves one origin
// per bucket (issuing the per-master origin lookups concurrently), and
// yields a group per bucket that validates. Malformed cells are silently
// skipped throughout, per the discovery error policy (spec §7); only
// chain-client failures propagate on the error channel.
func (om *OrderManager) FindOrders(ctx context.Context) (<-chan ordercell.OrderGroup, <-chan error) {
	out := make(chan ordercell.OrderGroup)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		orderCells, masterCells, err := om.scanCandidates(ctx)
		if err != nil {
			errs <- err
			return
		}

		buckets := make(map[chain.OutPoint][]ordercell.OrderCell)
		for _, oc := range orderCells {
			master := oc.GetMaster()
			buckets[master] = append(buckets[master], oc)
		}

		masterByOutPoint := make(map[chain.OutPoint]chain.Cell, len(masterCells))
		for _, mc := range masterCells {
			masterByOutPoint[mc.OutPoint] = mc
		}

		var wg sync.WaitGroup
		for masterOut, orders := range buckets {
			masterCell, ok := masterByOutPoint[masterOut]
			if !ok {
				continue
			}
			wg.Add(1)
			go func(masterOut chain.OutPoint, masterCell chain.Cell, orders []ordercell.OrderCell) {
				defer wg.Done()
				origin, err := om.findOrigin(ctx, masterOut)
				if err != nil {
					// A missing origin or malformed cell data skips this bucket;
					// any other chain-client failure is reported.
					if !orderrrs.Is(err, orderrrs.ErrInvalidEntity) && !orderrrs.Is(err, orderrrs.ErrDecodeFailure) {
						select {
						case errs <- err:
						default:
						}
					}
					return
				}
				order, found := ordercell.Resolve(origin, orders)
				if !found {
					return
				}
				group := ordercell.OrderGroup{Master: masterCell, Order: order, Origin: origin}
				if err := group.Validate(); err != nil {
					return
				}
				select {
				case out <- group:
				case <-ctx.Done():
				}
			}(masterOut, masterCell, orders)
		}
		wg.Wait()
	}()

	return out, errs
}

func (om *OrderManager) scanCandidates(ctx context.Context) (orders []ordercell.OrderCell, masters []chain.Cell, err error) {
	var wg sync.WaitGroup
	var orderErr, masterErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		cells, errCh := om.Client.FindCellsOnChain(ctx, chain.CellQuery{
			Script:       om.OrderScript,
			ScriptType:   chain.ScriptTypeLock,
			FilterByType: &om.UdtScript,
		}, om.findCellsLimit())
		for cell := range cells {
			oc, err := ordercell.TryFrom(cell, om.CkbOccupied)
			if err != nil {
				continue
			}
			orders = append(orders, oc)
		}
		if e, ok := <-errCh; ok {
			orderErr = e
		}
	}()
	go func() {
		defer wg.Done()
		cells, errCh := om.Client.FindCellsOnChain(ctx, chain.CellQuery{
			Script:     om.OrderScript,
			ScriptType: chain.ScriptTypeType,
		}, om.findCellsLimit())
		for cell := range cells {
			masters = append(masters, cell)
		}
		if e, ok := <-errCh; ok {
			masterErr = e
		}
	}()
	wg.Wait()

	if orderErr != nil {
		return nil, nil, orderErr
	}
	if masterErr != nil {
		return nil, nil, masterErr
	}
	return orders, masters, nil
}

// findOrigin locates the mint-time origin of the order witnessed by the
// cell at masterOut: it scans masterOut's own transaction backward from
// masterOut's index toward 0, then forward until a missing cell
// terminates the scan, seeking the one cell whose resolved master equals
// masterOut (spec §4.6 step 3).
func (om *OrderManager) findOrigin(ctx context.Context, masterOut chain.OutPoint) (ordercell.OrderCell, error) {
	for i := int64(masterOut.Index) - 1; i >= 0; i-- {
		cell, ok, err := om.Client.GetCell(ctx, chain.OutPoint{TxHash: masterOut.TxHash, Index: uint32(i)})
		if err != nil {
			return ordercell.OrderCell{}, err
		}
		if !ok {
			continue
		}
		oc, err := ordercell.TryFrom(cell, om.CkbOccupied)
		if err != nil {
			continue
		}
		if oc.GetMaster().Equal(masterOut) {
			return oc, nil
		}
	}

	for i := uint64(masterOut.Index) + 1; ; i++ {
		cell, ok, err := om.Client.GetCell(ctx, chain.OutPoint{TxHash: masterOut.TxHash, Index: uint32(i)})
		if err != nil {
			return ordercell.OrderCell{}, err
		}
		if !ok {
			break
		}
		oc, err := ordercell.TryFrom(cell, om.CkbOccupied)
		if err != nil {
			continue
		}
		if oc.GetMaster().Equal(masterOut) {
			return oc, nil
		}
	}

	return ordercell.OrderCell{}, orderrrs.Wrapf(orderrrs.ErrInvalidEntity, "no origin found for master %+v", masterOut)
}

func (om *OrderManager) findCellsLimit() int {
	if om.FindCellsLimit <= 0 {
		return DefaultFindCellsLimit
	}
	return om.FindCellsLimit
}
