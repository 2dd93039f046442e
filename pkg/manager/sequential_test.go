package manager

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ckb-dex/order-core/pkg/chain"
	"github.com/ckb-dex/order-core/pkg/fixedpoint"
	"github.com/ckb-dex/order-core/pkg/ordercell"
	"github.com/ckb-dex/order-core/pkg/orderdata"
	"github.com/ckb-dex/order-core/pkg/ratio"
)

var (
	orderLock = chain.Script{CodeHash: common.HexToHash("0x01"), HashType: chain.HashTypeType, Args: "0x00"}
	udtType   = chain.Script{CodeHash: common.HexToHash("0x02"), HashType: chain.HashTypeType, Args: "0x00"}
)

const testOccupied = 100

func outPoint(tx string, idx uint32) chain.OutPoint {
	return chain.OutPoint{TxHash: common.HexToHash(tx), Index: idx}
}

func orderCell(t *testing.T, tx string, capacity, udtAmount uint64, info ratio.Info) ordercell.OrderCell {
	t.Helper()
	typ := udtType
	data := orderdata.OrderData{UdtAmount: fixedpoint.FromUint64(udtAmount), Master: orderdata.Relative(1), Info: info}
	encoded, err := orderdata.Encode(data)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	cell := chain.Cell{OutPoint: outPoint(tx, 0), Capacity: capacity, Lock: orderLock, Type: &typ, Data: encoded}
	oc, err := ordercell.TryFrom(cell, fixedpoint.FromUint64(testOccupied))
	if err != nil {
		t.Fatalf("TryFrom: %v", err)
	}
	return oc
}

// Invariant (spec §8.7): sequentialMatcher yields are monotone
// non-decreasing in |ckbDelta|+|udtDelta| and strictly monotone in
// |partials| whenever a new order contributes.
func TestSequentialMatcherMonotone(t *testing.T) {
	info1 := ratio.Info{CkbToUdt: ratio.Ratio{CkbScale: 2, UdtScale: 1}, CkbMinMatchLog: 0}
	info2 := ratio.Info{CkbToUdt: ratio.Ratio{CkbScale: 3, UdtScale: 1}, CkbMinMatchLog: 0}
	pool := []ordercell.OrderCell{
		orderCell(t, "0x10", 10000, 0, info1),
		orderCell(t, "0x11", 10000, 0, info2),
	}

	sm := NewSequentialMatcher(pool, true, fixedpoint.FromUint64(500), fixedpoint.Zero)

	var prevMag int64
	var prevLen int
	first, ok := sm.Next()
	if !ok {
		t.Fatal("expected at least one yield")
	}
	prevMag = magnitude(first)
	prevLen = len(first.Partials)

	count := 0
	for {
		cum, ok := sm.Next()
		if !ok {
			break
		}
		mag := magnitude(cum)
		if mag < prevMag {
			t.Fatalf("magnitude decreased: %d -> %d", prevMag, mag)
		}
		if len(cum.Partials) < prevLen {
			t.Fatalf("partial count decreased: %d -> %d", prevLen, len(cum.Partials))
		}
		prevMag, prevLen = mag, len(cum.Partials)
		count++
		if count > 1000 {
			t.Fatal("sequential matcher did not terminate")
		}
	}
	if count == 0 {
		t.Fatal("expected more than the initial empty yield")
	}
}

func magnitude(c CumulativeMatch) int64 {
	abs := func(x int64) int64 {
		if x < 0 {
			return -x
		}
		return x
	}
	return abs(c.CkbDelta.Int64()) + abs(c.UdtDelta.Int64())
}

// The best-ranked order (lower ckbToUdt.CkbScale at a fixed UdtScale of 1
// pays more CKB per UDT received: realRatio 9900/19800 for (2,1) against
// 9900/49500 for (5,1)) is consumed before a worse-ranked one.
func TestSequentialMatcherOrdersByRealRatioDescending(t *testing.T) {
	best := ratio.Info{CkbToUdt: ratio.Ratio{CkbScale: 2, UdtScale: 1}, CkbMinMatchLog: 0}
	worst := ratio.Info{CkbToUdt: ratio.Ratio{CkbScale: 5, UdtScale: 1}, CkbMinMatchLog: 0}
	pool := []ordercell.OrderCell{
		orderCell(t, "0x20", 10000, 0, worst),
		orderCell(t, "0x21", 10000, 0, best),
	}

	sm := NewSequentialMatcher(pool, true, fixedpoint.FromUint64(1000000), fixedpoint.Zero)
	sm.Next() // discard the guaranteed empty first yield

	cum, ok := sm.Next()
	if !ok {
		t.Fatal("expected a non-empty yield")
	}
	if len(cum.Partials) != 1 {
		t.Fatalf("expected exactly one partial in the first non-empty yield, got %d", len(cum.Partials))
	}
	if cum.Partials[0].Order.Cell.OutPoint.TxHash != outPoint("0x21", 0).TxHash {
		t.Fatal("expected the best-ratio order (0x21) to be consumed first")
	}
}

// An order whose bMinMatch the first chunk does not reach is abandoned
// entirely rather than retried at a larger cumulative allowance (spec §4.6
// step 3): here bMinMatch clamps to bMaxMatch=1900 and the first chunk is 10.
func TestSequentialMatcherAbandonsUnreachableMinMatch(t *testing.T) {
	info := ratio.Info{CkbToUdt: ratio.Ratio{CkbScale: 1, UdtScale: 1}, CkbMinMatchLog: 20} // ckbMinMatch = 1<<20, far above bMaxMatch
	pool := []ordercell.OrderCell{orderCell(t, "0x30", 2000, 0, info)}

	sm := NewSequentialMatcher(pool, true, fixedpoint.FromUint64(10), fixedpoint.Zero)
	sm.Next() // discard guaranteed empty first yield

	for i := 0; i < 1000; i++ {
		cum, ok := sm.Next()
		if !ok {
			return
		}
		if len(cum.Partials) != 0 {
			t.Fatal("order with unreachable bMinMatch should never contribute a partial")
		}
	}
	t.Fatal("stream did not terminate")
}
