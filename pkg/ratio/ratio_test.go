package ratio

import "testing"

func TestLess(t *testing.T) {
	// a = 1/3, b = 1/2; a < b
	a := Ratio{CkbScale: 1, UdtScale: 3}
	b := Ratio{CkbScale: 1, UdtScale: 2}
	if !a.Less(b) {
		t.Fatal("same ckbScale, larger udtScale should sort first")
	}
	if b.Less(a) {
		t.Fatal("b should not be less than a")
	}

	c := Ratio{CkbScale: 2, UdtScale: 1}
	d := Ratio{CkbScale: 3, UdtScale: 1}
	if !c.Less(d) {
		t.Fatal("same udtScale, smaller ckbScale should sort first")
	}

	e := Ratio{CkbScale: 1, UdtScale: 2}
	f := Ratio{CkbScale: 2, UdtScale: 3}
	// e = 1/2, f = 2/3; e < f
	if !e.Less(f) {
		t.Fatal("cross-multiplied comparison failed")
	}
}

func TestLessNoOverflowOnLargeScales(t *testing.T) {
	// Scales near the top of uint64 would overflow a plain uint64 cross
	// product; the 256-bit promotion must still compare correctly.
	// a.ckb*b.udt = 2^64-2 < b.ckb*a.udt = 2^64+4, but wrapped to 64 bits
	// the comparison would read 2^64-2 < 4 and fail.
	a := Ratio{CkbScale: 1<<63 - 1, UdtScale: 4}
	b := Ratio{CkbScale: 1<<62 + 1, UdtScale: 2}
	if !a.Less(b) {
		t.Fatal("large-scale comparison should not overflow/wrap")
	}
}

func TestValidAndPopulated(t *testing.T) {
	if !Empty.Valid() {
		t.Fatal("empty ratio must be valid")
	}
	if !(Ratio{CkbScale: 1, UdtScale: 1}).Valid() {
		t.Fatal("fully populated ratio must be valid")
	}
	if (Ratio{CkbScale: 1, UdtScale: 0}).Valid() {
		t.Fatal("half-populated ratio must be invalid")
	}
}

func TestInfoValidateRejectsHalfPopulated(t *testing.T) {
	info := Info{CkbToUdt: Ratio{CkbScale: 1}, UdtToCkb: Empty, CkbMinMatchLog: 0}
	if err := info.Validate(); err == nil {
		t.Fatal("expected error for half-populated ckbToUdt")
	}
}

func TestInfoValidateRejectsAllEmpty(t *testing.T) {
	info := Info{CkbToUdt: Empty, UdtToCkb: Empty, CkbMinMatchLog: 0}
	if err := info.Validate(); err == nil {
		t.Fatal("expected error when no direction is offered")
	}
}

func TestInfoValidateRejectsOutOfRangeLog(t *testing.T) {
	info := Info{CkbToUdt: Ratio{CkbScale: 1, UdtScale: 1}, UdtToCkb: Empty, CkbMinMatchLog: MaxCkbMinMatchLog + 1}
	if err := info.Validate(); err == nil {
		t.Fatal("expected error for ckbMinMatchLog out of range")
	}
}

func TestInfoValidateRejectsValueExtraction(t *testing.T) {
	// ckbToUdt=(1,1): 1 ckb -> 1 udt. udtToCkb=(2,1): 1 udt -> 1/2 ckb.
	// Round-tripping the order 1 ckb -> 1 udt -> 1/2 ckb lets matchers
	// extract value from it: must be rejected.
	info := Info{
		CkbToUdt:       Ratio{CkbScale: 1, UdtScale: 1},
		UdtToCkb:       Ratio{CkbScale: 2, UdtScale: 1},
		CkbMinMatchLog: 0,
	}
	if err := info.Validate(); err == nil {
		t.Fatal("expected error: dual ratio would extract value on round trip")
	}
}

func TestInfoValidateAcceptsNonExtractingDualRatio(t *testing.T) {
	// ckbToUdt=(1,1), udtToCkb=(1,1): round trip is value-neutral.
	info := Info{
		CkbToUdt:       Ratio{CkbScale: 1, UdtScale: 1},
		UdtToCkb:       Ratio{CkbScale: 1, UdtScale: 1},
		CkbMinMatchLog: 0,
	}
	if err := info.Validate(); err != nil {
		t.Fatalf("expected neutral dual ratio to validate: %v", err)
	}
}

func TestGetCkbMinMatch(t *testing.T) {
	info := Info{CkbToUdt: Ratio{CkbScale: 1, UdtScale: 1}, CkbMinMatchLog: 10}
	if got := info.GetCkbMinMatch().Uint64(); got != 1024 {
		t.Fatalf("GetCkbMinMatch: got %d, want 1024", got)
	}
}

func TestInfoEqual(t *testing.T) {
	a := Info{CkbToUdt: Ratio{1, 2}, UdtToCkb: Empty, CkbMinMatchLog: 5}
	b := Info{CkbToUdt: Ratio{1, 2}, UdtToCkb: Empty, CkbMinMatchLog: 5}
	c := Info{CkbToUdt: Ratio{1, 3}, UdtToCkb: Empty, CkbMinMatchLog: 5}
	if !a.Equal(b) {
		t.Fatal("identical infos should be equal")
	}
	if a.Equal(c) {
		t.Fatal("differing ratios should not be equal")
	}
}
