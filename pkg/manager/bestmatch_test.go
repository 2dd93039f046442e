package manager

import (
	"math/big"
	"testing"

	"github.com/ckb-dex/order-core/pkg/fixedpoint"
	"github.com/ckb-dex/order-core/pkg/ordercell"
	"github.com/ckb-dex/order-core/pkg/ratio"
)

// Two-sided cancellation, spec §8: one ckb→udt order that gives 1 CKB for
// 2 UDT and one udt→ckb order that gives 3 UDT for 1 CKB, zero starting
// allowance in both assets. bestMatch should find a pair of partials whose
// combined deltas keep both budgets non-negative with positive gain.
func TestBestMatchTwoSidedCancellation(t *testing.T) {
	c2uInfo := ratio.Info{CkbToUdt: ratio.Ratio{CkbScale: 2, UdtScale: 1}, CkbMinMatchLog: 0}
	u2cInfo := ratio.Info{UdtToCkb: ratio.Ratio{CkbScale: 3, UdtScale: 1}, CkbMinMatchLog: 0}

	pool := []ordercell.OrderCell{
		orderCell(t, "0x40", 1_000_000, 0, c2uInfo),
		orderCell(t, "0x41", 1_000_000, 1_000_000, u2cInfo),
	}

	allowance := Allowance{Ckb: fixedpoint.Zero, Udt: fixedpoint.Zero}
	exchangeRate := ratio.Ratio{CkbScale: 2, UdtScale: 1}
	opts := BestMatchOptions{FeeRate: fixedpoint.Num(0), CkbAllowanceStep: fixedpoint.FromUint64(1000)}

	result := BestMatch(pool, allowance, exchangeRate, fixedpoint.FromUint64(testOccupied), opts)

	if len(result.Partials) == 0 {
		t.Fatal("expected bestMatch to find a feasible pair of partials")
	}

	ckbOk := new(big.Int).Add(allowance.Ckb.Big(), result.CkbDelta)
	if ckbOk.Sign() < 0 {
		t.Fatalf("ckb budget violated: %s", ckbOk)
	}
	udtOk := new(big.Int).Add(allowance.Udt.Big(), result.UdtDelta)
	if udtOk.Sign() < 0 {
		t.Fatalf("udt budget violated: %s", udtOk)
	}

	gain := new(big.Int).Mul(result.CkbDelta, new(big.Int).SetUint64(uint64(exchangeRate.CkbScale)))
	gain.Add(gain, new(big.Int).Mul(result.UdtDelta, new(big.Int).SetUint64(uint64(exchangeRate.UdtScale))))
	if gain.Sign() <= 0 {
		t.Fatalf("expected positive gain, got %s", gain)
	}
}

// Invariant (spec §8.8): bestMatch never returns a result that overdraws
// either budget, even under a zero starting allowance and a non-trivial
// mining fee.
func TestBestMatchRespectsBudgetsWithFee(t *testing.T) {
	c2uInfo := ratio.Info{CkbToUdt: ratio.Ratio{CkbScale: 2, UdtScale: 1}, CkbMinMatchLog: 0}
	pool := []ordercell.OrderCell{
		orderCell(t, "0x50", 1_000_000, 0, c2uInfo),
	}

	allowance := Allowance{Ckb: fixedpoint.Zero, Udt: fixedpoint.Zero}
	exchangeRate := ratio.Ratio{CkbScale: 2, UdtScale: 1}
	opts := DefaultBestMatchOptions()

	result := BestMatch(pool, allowance, exchangeRate, fixedpoint.FromUint64(testOccupied), opts)

	ckbMiningFee := fixedpoint.FromUint64(testOccupied).Add(fixedpoint.FromUint64(36)).MulDivCeil(opts.FeeRate, 1000)
	ckbFee := new(big.Int).Mul(ckbMiningFee.Big(), new(big.Int).SetUint64(uint64(len(result.Partials))))

	ckbOk := new(big.Int).Add(allowance.Ckb.Big(), result.CkbDelta)
	ckbOk.Sub(ckbOk, ckbFee)
	if ckbOk.Sign() < 0 {
		t.Fatalf("ckb budget (net of mining fee) violated: %s", ckbOk)
	}
	udtOk := new(big.Int).Add(allowance.Udt.Big(), result.UdtDelta)
	if udtOk.Sign() < 0 {
		t.Fatalf("udt budget violated: %s", udtOk)
	}
}
