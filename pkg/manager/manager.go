// Package manager implements OrderManager (spec §4.6, C5): mint/match/melt
// transaction shaping, the sequential fair-distribution generator, the
// two-direction best-match optimizer, and on-chain order discovery. It is
// the only layer that touches the external chain.ChainClient and
// chain.TransactionAssembler collaborators.
package manager

import (
	"github.com/ckb-dex/order-core/pkg/chain"
	"github.com/ckb-dex/order-core/pkg/fixedpoint"
)

// OrderManager binds the scripts that identify this exchange's order and
// UDT cells, the occupied-capacity constant every order cell of this
// schema requires, and the chain client used by order discovery.
type OrderManager struct {
	Client      chain.ChainClient
	OrderScript chain.Script
	UdtScript   chain.Script
	CkbOccupied fixedpoint.FixedPoint

	// FindCellsLimit bounds each findCellsOnChain page (spec §6 default 400).
	FindCellsLimit int
}

// New builds an OrderManager with the spec §6 default FindCellsLimit.
func New(client chain.ChainClient, orderScript, udtScript chain.Script, ckbOccupied fixedpoint.FixedPoint) *OrderManager {
	return &OrderManager{
		Client:         client,
		OrderScript:    orderScript,
		UdtScript:      udtScript,
		CkbOccupied:    ckbOccupied,
		FindCellsLimit: DefaultFindCellsLimit,
	}
}

// Defaults from spec §6.
const (
	DefaultFeeBase          = fixedpoint.Num(100000)
	DefaultFee              = fixedpoint.Num(0)
	DefaultFeeRate          = fixedpoint.Num(1000)
	DefaultFindCellsLimit   = 400
	DefaultCkbAllowanceStep = 1000_00000000 // 1000 CKB in shannons
)
