package fixedpoint

import (
	"math/big"
	"testing"
)

func TestAddSub(t *testing.T) {
	a := FromUint64(100)
	b := FromUint64(40)

	if got := a.Add(b).Uint64(); got != 140 {
		t.Fatalf("Add: got %d, want 140", got)
	}
	if got := a.Sub(b).Uint64(); got != 60 {
		t.Fatalf("Sub: got %d, want 60", got)
	}
}

func TestSubUnderflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on underflow")
		}
	}()
	FromUint64(1).Sub(FromUint64(2))
}

func TestAddOverflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on overflow")
		}
	}()
	max128 := new(big.Int).Lsh(big.NewInt(1), 128)
	max128.Sub(max128, big.NewInt(1))
	FromBig(max128).Add(FromUint64(1))
}

func TestValid(t *testing.T) {
	if !FromUint64(1).Valid() {
		t.Fatal("small value should be valid")
	}
	over := new(big.Int).Lsh(big.NewInt(1), 128) // exactly 2^128, one bit too wide
	if FromBig(over).Valid() {
		t.Fatal("2^128 must not be a valid 128-bit amount")
	}
}

func TestBytes16RoundTrip(t *testing.T) {
	want := FromUint64(123456789012345)
	got := FromBytes16(want.Bytes16())
	if got.Cmp(want) != 0 {
		t.Fatalf("round trip mismatch: got %s, want %s", got, want)
	}
}

func TestBytes16PanicsOnOverflow(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic encoding an over-128-bit value")
		}
	}()
	over := new(big.Int).Lsh(big.NewInt(1), 200)
	FromBig(over).Bytes16()
}

func TestRsh1(t *testing.T) {
	if got := FromUint64(7).Rsh1().Uint64(); got != 3 {
		t.Fatalf("Rsh1(7): got %d, want 3", got)
	}
	if got := FromUint64(8).Rsh1().Uint64(); got != 4 {
		t.Fatalf("Rsh1(8): got %d, want 4", got)
	}
}

func TestMulDivCeil(t *testing.T) {
	// ceil(10*3/4) = ceil(7.5) = 8
	if got := FromUint64(10).MulDivCeil(3, 4).Uint64(); got != 8 {
		t.Fatalf("MulDivCeil: got %d, want 8", got)
	}
	// exact division should not round up
	if got := FromUint64(8).MulDivCeil(1, 4).Uint64(); got != 2 {
		t.Fatalf("MulDivCeil exact: got %d, want 2", got)
	}
}

func TestPow2(t *testing.T) {
	if got := Pow2(33).Uint64(); got != 1<<33 {
		t.Fatalf("Pow2(33): got %d, want %d", got, uint64(1)<<33)
	}
	if got := Pow2(0).Uint64(); got != 1 {
		t.Fatalf("Pow2(0): got %d, want 1", got)
	}
}

func TestNonDecreasing(t *testing.T) {
	// Hand-verified: aScale=3, bScale=7, aIn=100, bIn=50, aOut=40
	// given = aIn-aOut = 60; term1 = 3*60 = 180; term2 = 7*51 = 357
	// numerator = 180+357-1 = 536; 536/7 = 76 (floor)
	got := NonDecreasing(3, 7, FromUint64(100), FromUint64(50), FromUint64(40))
	if got.Uint64() != 76 {
		t.Fatalf("NonDecreasing: got %d, want 76", got.Uint64())
	}

	// Invariant holds when plugged back in (652 >= 650):
	// aScale*aOut + bScale*bOut >= aScale*aIn + bScale*bIn
	lhs := 3*40 + 7*76
	rhs := 3*100 + 7*50
	if lhs < rhs {
		t.Fatalf("invariant violated: %d < %d", lhs, rhs)
	}
}

func TestNonDecreasingFullFillCkb2Udt(t *testing.T) {
	// spec §8 "Full fill ckb->udt": aScale=1, bScale=1, aIn=capacity=1000,
	// bIn=udtAmount=0, aOut=ckbOccupied=100 (full fill down to the floor).
	// given=900, term1=900, term2=1*(0+1)=1, numerator=900+1-1=900, /1=900 —
	// matches spec's own cited parenthetical ceil((1*900+1*1-1)/1); see
	// DESIGN.md for why this module trusts 900 over the prose's "901".
	got := NonDecreasing(1, 1, FromUint64(1000), FromUint64(0), FromUint64(100))
	if got.Uint64() != 900 {
		t.Fatalf("NonDecreasing full-fill building block: got %d, want 900", got.Uint64())
	}
}

func TestNonDecreasingPartialFillReversedArgs(t *testing.T) {
	// spec §8's DoS-floor partial-fill scenario, canonical (not literal)
	// numbers: aScale=1, bScale=1, the matcher's partial-fill path calls
	// NonDecreasing with the roles of a/b swapped (bScale, aScale, bIn, aIn,
	// bOut) to recover the companion aOut. With bIn=udtAmount=0,
	// aIn=capacity=1000 and bOut=600: given=0-600=-600 (negative
	// intermediate), term2=1*(1000+1)=1001, numerator=-600+1001-1=400, /1=400.
	got := NonDecreasing(1, 1, FromUint64(0), FromUint64(1000), FromUint64(600))
	if got.Uint64() != 400 {
		t.Fatalf("reversed-args NonDecreasing: got %d, want 400", got.Uint64())
	}
	// Exact equality check: aScale*400 + bScale*600 == aScale*1000 + bScale*0
	if 400+600 != 1000+0 {
		t.Fatal("invariant should hold with exact equality for this construction")
	}
}
