// Package matcher implements OrderMatcher (spec §4.5, C4): the single-order
// fill computation for a given counter-asset allowance, in either trading
// direction, built on the non-decreasing-value primitive in pkg/fixedpoint.
package matcher

import (
	"math/big"

	"github.com/ckb-dex/order-core/pkg/fixedpoint"
	"github.com/ckb-dex/order-core/pkg/ordercell"
	"github.com/ckb-dex/order-core/pkg/orderrrs"
)

// Match is the result of a single match() call, reported from the
// matcher's own perspective: CkbDelta/UdtDelta are the net amounts the
// matcher gains (positive) or gives up (negative). Deltas use signed
// big.Int rather than FixedPoint because a losing or fee-dominated match
// can, in principle, net negative on one side.
type Match struct {
	CkbDelta *big.Int
	UdtDelta *big.Int
	AOut     fixedpoint.FixedPoint
	BOut     fixedpoint.FixedPoint
	IsEmpty  bool
	IsFull   bool
}

// OrderMatcher binds one OrderCell, a trading direction, and a per-partial
// mining-fee charge, and precomputes the scalars every match() call reuses
// (spec §4.5).
type OrderMatcher struct {
	Order        ordercell.OrderCell
	IsCkb2Udt    bool
	CkbMiningFee fixedpoint.FixedPoint

	aScale, bScale         fixedpoint.Num
	aIn, bIn, aMin         fixedpoint.FixedPoint
	aMiningFee, bMiningFee fixedpoint.FixedPoint
	bMinMatch              fixedpoint.FixedPoint
	bMaxOut, bMaxMatch     fixedpoint.FixedPoint
	realRatio              *big.Rat
}

// New constructs a matcher for order in the requested direction. It
// returns ok=false (spec §4.5: "construction fails silently") if the
// order is not matchable that way, giving-room does not cover the mining
// fee, or the effective realRatio would be non-positive — callers that
// scan a pool (pkg/manager's sequentialMatcher) simply skip such orders.
func New(order ordercell.OrderCell, isCkb2Udt bool, ckbMiningFee fixedpoint.FixedPoint) (*OrderMatcher, bool) {
	info := order.Data.Info
	capacity := order.Capacity()
	udtAmount := order.Data.UdtAmount

	m := &OrderMatcher{Order: order, IsCkb2Udt: isCkb2Udt, CkbMiningFee: ckbMiningFee}

	var ckbMinMatchInBUnits fixedpoint.FixedPoint
	if isCkb2Udt {
		r := info.CkbToUdt
		if !r.IsPopulated() {
			return nil, false
		}
		m.aScale, m.bScale = r.CkbScale, r.UdtScale
		m.aIn, m.bIn = capacity, udtAmount
		m.aMin = order.CkbOccupied
		m.aMiningFee, m.bMiningFee = ckbMiningFee, fixedpoint.Zero
		ckbMinMatchInBUnits = info.GetCkbMinMatch().MulDivCeil(m.bScale, m.aScale)
	} else {
		r := info.UdtToCkb
		if !r.IsPopulated() {
			return nil, false
		}
		m.aScale, m.bScale = r.UdtScale, r.CkbScale
		m.aIn, m.bIn = udtAmount, capacity
		m.aMin = fixedpoint.Zero
		m.aMiningFee, m.bMiningFee = fixedpoint.Zero, ckbMiningFee
		ckbMinMatchInBUnits = info.GetCkbMinMatch()
	}

	if m.aScale == 0 || m.bScale == 0 {
		return nil, false
	}
	if m.aIn.Cmp(m.aMin.Add(m.aMiningFee)) <= 0 {
		return nil, false
	}

	m.bMaxOut = fixedpoint.NonDecreasing(m.aScale, m.bScale, m.aIn, m.bIn, m.aMin)
	m.bMaxMatch = m.bMaxOut.Sub(m.bIn)

	m.bMinMatch = ckbMinMatchInBUnits
	if m.bMinMatch.Cmp(m.bMaxMatch) > 0 {
		m.bMinMatch = m.bMaxMatch
	}

	usableA := m.aIn.Sub(m.aMin).Sub(m.aMiningFee)
	denomB := m.bMaxMatch.Add(m.bMiningFee)
	if denomB.IsZero() {
		return nil, false
	}
	m.realRatio = new(big.Rat).SetFrac(usableA.Big(), denomB.Big())
	if m.realRatio.Sign() <= 0 {
		return nil, false
	}

	return m, true
}

// RealRatio is the effective rate used only for ranking matchers against
// each other (spec §4.5); it is not consumed by match() itself.
func (m *OrderMatcher) RealRatio() *big.Rat {
	return m.realRatio
}

// BMinMatch is the minimum receiving-side allowance that yields a
// non-empty match.
func (m *OrderMatcher) BMinMatch() fixedpoint.FixedPoint {
	return m.bMinMatch
}

// BMaxMatch is the maximum additional receiving-side amount a full fill
// can absorb.
func (m *OrderMatcher) BMaxMatch() fixedpoint.FixedPoint {
	return m.bMaxMatch
}

// Match computes the fill for a given receiving-side allowance (spec
// §4.5). It never fails: an allowance below bMinMatch yields an empty
// match with zero deltas (no partial produced); callers that must raise
// on a too-small caller-supplied allowance should use MatchCkb2Udt /
// MatchUdt2Ckb instead.
func (m *OrderMatcher) Match(bAllowance fixedpoint.FixedPoint) Match {
	switch {
	case bAllowance.Cmp(m.bMinMatch) < 0:
		return Match{CkbDelta: big.NewInt(0), UdtDelta: big.NewInt(0), IsEmpty: true}
	case bAllowance.Cmp(m.bMaxMatch) >= 0:
		return m.deltas(m.aMin, m.bMaxOut, false, true)
	default:
		bOut := m.bIn.Add(bAllowance)
		aOut := fixedpoint.NonDecreasing(m.bScale, m.aScale, m.bIn, m.aIn, bOut)
		return m.deltas(aOut, bOut, false, false)
	}
}

func (m *OrderMatcher) deltas(aOut, bOut fixedpoint.FixedPoint, empty, full bool) Match {
	aGiven := new(big.Int).Sub(m.aIn.Big(), aOut.Big())
	bReceived := new(big.Int).Sub(bOut.Big(), m.bIn.Big())

	var ckbRaw, udtRaw *big.Int
	if m.IsCkb2Udt {
		ckbRaw = aGiven
		udtRaw = new(big.Int).Neg(bReceived)
	} else {
		udtRaw = aGiven
		ckbRaw = new(big.Int).Neg(bReceived)
	}
	ckbDelta := new(big.Int).Sub(ckbRaw, m.CkbMiningFee.Big())

	return Match{
		CkbDelta: ckbDelta,
		UdtDelta: udtRaw,
		AOut:     aOut,
		BOut:     bOut,
		IsEmpty:  empty,
		IsFull:   full,
	}
}

// MatchCkb2Udt constructs a ckb→udt matcher and matches in one step,
// raising incompatible-order if the order cannot be matched this way, or
// infeasible-match if bAllowance is below bMinMatch (spec §7). It is the
// explicit, error-raising counterpart to the silent sequentialMatcher
// flow.
func MatchCkb2Udt(order ordercell.OrderCell, bAllowance, ckbMiningFee fixedpoint.FixedPoint) (Match, error) {
	return matchDirect(order, true, bAllowance, ckbMiningFee)
}

// MatchUdt2Ckb is the udt→ckb counterpart of MatchCkb2Udt.
func MatchUdt2Ckb(order ordercell.OrderCell, bAllowance, ckbMiningFee fixedpoint.FixedPoint) (Match, error) {
	return matchDirect(order, false, bAllowance, ckbMiningFee)
}

func matchDirect(order ordercell.OrderCell, isCkb2Udt bool, bAllowance, ckbMiningFee fixedpoint.FixedPoint) (Match, error) {
	m, ok := New(order, isCkb2Udt, ckbMiningFee)
	if !ok {
		return Match{}, orderrrs.Wrap(orderrrs.ErrIncompatibleOrder, "order cannot be matched in the requested direction")
	}
	if bAllowance.Cmp(m.bMinMatch) < 0 {
		return Match{}, orderrrs.Wrapf(orderrrs.ErrInfeasibleMatch, "allowance %s below bMinMatch %s", bAllowance, m.bMinMatch)
	}
	return m.Match(bAllowance), nil
}
