package manager

import (
	"math/big"

	"github.com/ckb-dex/order-core/pkg/fixedpoint"
	"github.com/ckb-dex/order-core/pkg/ordercell"
	"github.com/ckb-dex/order-core/pkg/ratio"
)

// Allowance is the two-asset budget bestMatch is allowed to spend.
type Allowance struct {
	Ckb fixedpoint.FixedPoint
	Udt fixedpoint.FixedPoint
}

// BestMatchOptions carries bestMatch's optional parameters (spec §4.6).
type BestMatchOptions struct {
	FeeRate          fixedpoint.Num
	CkbAllowanceStep fixedpoint.FixedPoint
}

// DefaultBestMatchOptions matches spec §6's defaults.
func DefaultBestMatchOptions() BestMatchOptions {
	return BestMatchOptions{FeeRate: DefaultFeeRate, CkbAllowanceStep: fixedpoint.FromUint64(DefaultCkbAllowanceStep)}
}

// lookaheadBuffer holds up to two future yields of a SequentialMatcher
// beyond the stream's already-committed position (spec §9's "buffered
// stream" abstraction): advance(n) commits n of them and refills.
type lookaheadBuffer struct {
	stream *SequentialMatcher
	buf    []CumulativeMatch
}

func newLookaheadBuffer(stream *SequentialMatcher) *lookaheadBuffer {
	// discard the stream's guaranteed first (empty) yield: it is
	// represented by the caller's own zero-valued committed state.
	stream.Next()
	b := &lookaheadBuffer{stream: stream}
	b.fill()
	return b
}

func (b *lookaheadBuffer) fill() {
	for len(b.buf) < 2 {
		v, ok := b.stream.Next()
		if !ok {
			break
		}
		b.buf = append(b.buf, v)
	}
}

func (b *lookaheadBuffer) advance(n int) {
	if n <= 0 {
		return
	}
	if n > len(b.buf) {
		n = len(b.buf)
	}
	b.buf = b.buf[n:]
	b.fill()
}

// BestMatch runs the two-direction best-match optimizer of spec §4.6:
// two sequential streams (one per direction), each behind a 2-element
// look-ahead buffer, reconciled against a shared two-dimensional budget.
func BestMatch(pool []ordercell.OrderCell, allowance Allowance, exchangeRate ratio.Ratio, orderSize fixedpoint.FixedPoint, opts BestMatchOptions) CumulativeMatch {
	ckbMiningFee := orderSize.Add(fixedpoint.FromUint64(36)).MulDivCeil(opts.FeeRate, 1000)
	udtAllowanceStep := opts.CkbAllowanceStep.MulDivCeil(exchangeRate.CkbScale, exchangeRate.UdtScale)

	// A ckb→udt matcher's allowance is in UDT, a udt→ckb matcher's in CKB.
	c2u := newLookaheadBuffer(NewSequentialMatcher(pool, true, udtAllowanceStep, ckbMiningFee))
	u2c := newLookaheadBuffer(NewSequentialMatcher(pool, false, opts.CkbAllowanceStep, ckbMiningFee))

	committedA := emptyCumulativeMatch()
	committedB := emptyCumulativeMatch()

	for {
		bestI, bestJ := 0, 0
		bestGain := big.NewInt(0)
		haveBest := false

		for i := 0; i <= len(c2u.buf); i++ {
			candA := committedA
			if i > 0 {
				candA = c2u.buf[i-1]
			}
			for j := 0; j <= len(u2c.buf); j++ {
				if i == 0 && j == 0 {
					continue
				}
				candB := committedB
				if j > 0 {
					candB = u2c.buf[j-1]
				}

				ckbDelta := new(big.Int).Add(candA.CkbDelta, candB.CkbDelta)
				udtDelta := new(big.Int).Add(candA.UdtDelta, candB.UdtDelta)
				partialsCount := len(candA.Partials) + len(candB.Partials)
				ckbFee := new(big.Int).Mul(ckbMiningFee.Big(), big.NewInt(int64(partialsCount)))

				ckbOk := new(big.Int).Add(allowance.Ckb.Big(), ckbDelta)
				ckbOk.Sub(ckbOk, ckbFee)
				udtOk := new(big.Int).Add(allowance.Udt.Big(), udtDelta)
				if ckbOk.Sign() < 0 || udtOk.Sign() < 0 {
					continue
				}

				gain := new(big.Int).Mul(ckbDelta, big.NewInt(0).SetUint64(uint64(exchangeRate.CkbScale)))
				gain.Add(gain, new(big.Int).Mul(udtDelta, big.NewInt(0).SetUint64(uint64(exchangeRate.UdtScale))))

				if !haveBest || gain.Cmp(bestGain) > 0 {
					haveBest, bestGain, bestI, bestJ = true, gain, i, j
				}
			}
		}

		if bestI == 0 && bestJ == 0 {
			break
		}
		if bestI > 0 {
			committedA = c2u.buf[bestI-1]
		}
		if bestJ > 0 {
			committedB = u2c.buf[bestJ-1]
		}
		c2u.advance(bestI)
		u2c.advance(bestJ)
	}

	return CumulativeMatch{
		CkbDelta: new(big.Int).Add(committedA.CkbDelta, committedB.CkbDelta),
		UdtDelta: new(big.Int).Add(committedA.UdtDelta, committedB.UdtDelta),
		Partials: append(append([]Partial{}, committedA.Partials...), committedB.Partials...),
	}
}
