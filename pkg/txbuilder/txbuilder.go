// Package txbuilder is a concrete, in-memory chain.TransactionAssembler:
// it accumulates cell-deps, inputs, and outputs exactly as pkg/manager's
// mint/addMatch/melt operations append them, ready to be handed to a
// chain-specific signer/serializer outside this core's scope.
package txbuilder

import "github.com/ckb-dex/order-core/pkg/chain"

// Output is an accumulated transaction output: its spec plus the data
// payload it carries.
type Output struct {
	Spec chain.OutputSpec
	Data []byte
}

// Transaction accumulates the pieces of a CKB transaction under
// construction. It is exclusively owned by the calling flow (spec §5):
// concurrent mutation from multiple goroutines is undefined.
type Transaction struct {
	CellDeps     []chain.OutPoint
	UdtHandlers  []chain.Script
	Inputs       []chain.Cell
	Outputs      []Output
	cellDepSet   map[chain.OutPoint]struct{}
	handlerSet   map[chain.Script]struct{}
}

// New returns an empty Transaction.
func New() *Transaction {
	return &Transaction{
		cellDepSet: make(map[chain.OutPoint]struct{}),
		handlerSet: make(map[chain.Script]struct{}),
	}
}

// AddCellDeps registers cell-deps idempotently.
func (t *Transaction) AddCellDeps(deps ...chain.OutPoint) {
	for _, d := range deps {
		if _, ok := t.cellDepSet[d]; ok {
			continue
		}
		t.cellDepSet[d] = struct{}{}
		t.CellDeps = append(t.CellDeps, d)
	}
}

// AddUdtHandlers registers a UDT handler script idempotently.
func (t *Transaction) AddUdtHandlers(handler chain.Script) {
	if _, ok := t.handlerSet[handler]; ok {
		return
	}
	t.handlerSet[handler] = struct{}{}
	t.UdtHandlers = append(t.UdtHandlers, handler)
}

// AddInput appends a consumed cell.
func (t *Transaction) AddInput(cell chain.Cell) {
	t.Inputs = append(t.Inputs, cell)
}

// AddOutput appends an output and returns its positional index.
func (t *Transaction) AddOutput(spec chain.OutputSpec, data []byte) int {
	t.Outputs = append(t.Outputs, Output{Spec: spec, Data: data})
	return len(t.Outputs) - 1
}

// SetOutputCapacity mutates an already-added output's capacity in place.
func (t *Transaction) SetOutputCapacity(index int, capacity uint64) {
	t.Outputs[index].Spec.Capacity = capacity
}
