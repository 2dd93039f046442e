package manager

import (
	"math/big"
	"sort"

	"github.com/ckb-dex/order-core/pkg/fixedpoint"
	"github.com/ckb-dex/order-core/pkg/matcher"
	"github.com/ckb-dex/order-core/pkg/ordercell"
)

// CumulativeMatch is one yield of a SequentialMatcher stream: the net
// deltas and the per-order partials accumulated so far, from the
// matcher's perspective (spec §4.6's sequentialMatcher).
type CumulativeMatch struct {
	CkbDelta *big.Int
	UdtDelta *big.Int
	Partials []Partial
}

func emptyCumulativeMatch() CumulativeMatch {
	return CumulativeMatch{CkbDelta: big.NewInt(0), UdtDelta: big.NewInt(0)}
}

func (c CumulativeMatch) clone() CumulativeMatch {
	partials := make([]Partial, len(c.Partials))
	copy(partials, c.Partials)
	return CumulativeMatch{CkbDelta: new(big.Int).Set(c.CkbDelta), UdtDelta: new(big.Int).Set(c.UdtDelta), Partials: partials}
}

type matcherState struct {
	order    ordercell.OrderCell
	m        *matcher.OrderMatcher
	n        *big.Int // total chunk count
	q        fixedpoint.FixedPoint
	r        *big.Int // first r chunks get q+1
	chunkIdx *big.Int
	cum      fixedpoint.FixedPoint // cumulative allowance fed to this matcher so far
}

func newMatcherState(order ordercell.OrderCell, m *matcher.OrderMatcher, allowanceStep fixedpoint.FixedPoint) *matcherState {
	bMaxMatch := m.BMaxMatch()
	n := ceilDivBig(bMaxMatch.Big(), allowanceStep.Big())
	q := fixedpoint.FromBig(new(big.Int).Div(bMaxMatch.Big(), n))
	r := new(big.Int).Mod(bMaxMatch.Big(), n)
	return &matcherState{order: order, m: m, n: n, q: q, r: r, chunkIdx: big.NewInt(0), cum: fixedpoint.Zero}
}

func ceilDivBig(a, b *big.Int) *big.Int {
	num := new(big.Int).Add(a, b)
	num.Sub(num, big.NewInt(1))
	return new(big.Int).Div(num, b)
}

// SequentialMatcher is the lazy (pull-based) fair-distribution stream of
// spec §4.6: on each Next call it advances exactly one allowance chunk of
// the current best-ranked matcher, skipping (and permanently abandoning)
// matchers whose minimum match size the chunk does not yet reach.
type SequentialMatcher struct {
	states       []*matcherState
	matcherIdx   int
	baseline     CumulativeMatch
	yieldedFirst bool
}

// NewSequentialMatcher builds matchers for every order in pool that
// supports the requested direction (skipping those that fail
// construction), sorted by realRatio descending.
func NewSequentialMatcher(pool []ordercell.OrderCell, isCkb2Udt bool, allowanceStep, ckbMiningFee fixedpoint.FixedPoint) *SequentialMatcher {
	states := make([]*matcherState, 0, len(pool))
	for _, order := range pool {
		m, ok := matcher.New(order, isCkb2Udt, ckbMiningFee)
		if !ok {
			continue
		}
		states = append(states, newMatcherState(order, m, allowanceStep))
	}
	sort.SliceStable(states, func(i, j int) bool {
		return states[i].m.RealRatio().Cmp(states[j].m.RealRatio()) > 0
	})
	return &SequentialMatcher{states: states, baseline: emptyCumulativeMatch()}
}

// Next returns the next cumulative match, or ok=false once every matcher
// is exhausted or abandoned. The very first call returns the empty
// cumulative match (spec §4.6 step 2).
func (s *SequentialMatcher) Next() (CumulativeMatch, bool) {
	if !s.yieldedFirst {
		s.yieldedFirst = true
		return s.baseline.clone(), true
	}

	for s.matcherIdx < len(s.states) {
		st := s.states[s.matcherIdx]
		if st.chunkIdx.Cmp(st.n) >= 0 {
			s.matcherIdx++
			continue
		}

		chunk := st.q
		if st.chunkIdx.Cmp(st.r) < 0 {
			chunk = chunk.Add(fixedpoint.FromUint64(1))
		}
		st.cum = st.cum.Add(chunk)
		st.chunkIdx.Add(st.chunkIdx, big.NewInt(1))

		match := st.m.Match(st.cum)
		if match.IsEmpty {
			s.matcherIdx++
			continue
		}

		ckbOut, udtOut := match.BOut, match.AOut
		if st.m.IsCkb2Udt {
			ckbOut, udtOut = match.AOut, match.BOut
		}
		cum := CumulativeMatch{
			CkbDelta: new(big.Int).Add(s.baseline.CkbDelta, match.CkbDelta),
			UdtDelta: new(big.Int).Add(s.baseline.UdtDelta, match.UdtDelta),
			Partials: append(append([]Partial{}, s.baseline.Partials...), Partial{Order: st.order, CkbOut: ckbOut, UdtOut: udtOut}),
		}

		if st.chunkIdx.Cmp(st.n) >= 0 {
			s.baseline = cum.clone()
			s.matcherIdx++
		}
		return cum, true
	}
	return CumulativeMatch{}, false
}
