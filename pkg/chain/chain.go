// Package chain defines the cell-based blockchain types the matching core
// is layered on (spec §6): scripts, outpoints, cells, and the external
// collaborator interfaces (blockchain client, transaction assembler) that
// pkg/manager consumes but does not implement on its own.
package chain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// OutPoint identifies a cell as an output of a past transaction.
type OutPoint struct {
	TxHash common.Hash
	Index  uint32
}

// Add returns the OutPoint shifted by delta indices, as used by a relative
// MasterRef's resolution (spec §4.2). delta may be negative.
func (o OutPoint) Add(delta int32) OutPoint {
	return OutPoint{TxHash: o.TxHash, Index: uint32(int64(o.Index) + int64(delta))}
}

func (o OutPoint) Equal(other OutPoint) bool {
	return o.TxHash == other.TxHash && o.Index == other.Index
}

// ScriptHashType mirrors CKB's script hash-type tag (data / data1 / type).
type ScriptHashType uint8

const (
	HashTypeData ScriptHashType = iota
	HashTypeType
	HashTypeData1
)

// Script is an opaque handle referencing on-chain code (spec §6): the
// order script identifies an order's lock (and a master cell's type); the
// UDT script identifies the token type. The core never interprets a
// Script's meaning, only compares it for equality.
type Script struct {
	CodeHash common.Hash
	HashType ScriptHashType
	Args     string // hex-encoded args, opaque to the core
}

func (s Script) Equal(o Script) bool {
	return s.CodeHash == o.CodeHash && s.HashType == o.HashType && s.Args == o.Args
}

// Cell is a raw on-chain cell: capacity, lock, optional type, payload, and
// its own identity.
type Cell struct {
	OutPoint OutPoint
	Capacity uint64 // shannons; spec's CKB capacity is a FixedPoint elsewhere, raw cells carry the native chain width
	Lock     Script
	Type     *Script // nil when the cell carries no type script
	Data     []byte
}

// ScriptType selects which half of a cell a FindCells query matches against.
type ScriptType string

const (
	ScriptTypeLock ScriptType = "lock"
	ScriptTypeType ScriptType = "type"
)

// CellQuery is the blockchain client's findCellsOnChain request shape
// (spec §6): select by script/scriptType, optionally narrowed by a
// secondary script filter, always in exact-match mode, always with data.
type CellQuery struct {
	Script      Script
	ScriptType  ScriptType
	FilterByType *Script // optional secondary script match
}

// ChainClient is the external blockchain-RPC collaborator consumed by
// pkg/manager. It is intentionally the only place in the core that performs
// I/O (spec §5): findCellsOnChain and getCell are the sole suspension
// points.
type ChainClient interface {
	// FindCellsOnChain streams cells matching query, in pages of at most
	// limit, until exhausted or ctx is cancelled.
	FindCellsOnChain(ctx context.Context, query CellQuery, limit int) (<-chan Cell, <-chan error)

	// GetCell fetches a single cell by outpoint. Returns (Cell{}, false,
	// nil) if the outpoint does not resolve to a live cell.
	GetCell(ctx context.Context, out OutPoint) (Cell, bool, error)
}

// OutputSpec is a cell to append via TransactionAssembler.AddOutput:
// lock/type scripts plus an optional explicit capacity (spec §6 — capacity
// is addressable and mutable in place after AddOutput, hence
// SetOutputCapacity below rather than forcing an immutable builder).
type OutputSpec struct {
	Lock     Script
	Type     *Script
	Capacity uint64
}

// TransactionAssembler is the external transaction-assembly collaborator
// (spec §6): addCellDeps/addUdtHandlers are idempotent registrations;
// AddInput/AddOutput append positionally; SetOutputCapacity mutates an
// output's capacity post hoc the way the consumed interface's
// outputs[i].capacity is.
type TransactionAssembler interface {
	AddCellDeps(deps ...OutPoint)
	AddUdtHandlers(handler Script)

	AddInput(cell Cell)
	// AddOutput appends an output (with optional data) and returns its
	// positional index.
	AddOutput(spec OutputSpec, data []byte) int

	// SetOutputCapacity mutates an already-added output's capacity field,
	// mirroring the consumed interface's in-place-modifiable
	// outputs[i].capacity.
	SetOutputCapacity(index int, capacity uint64)
}
