package orderdata

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ckb-dex/order-core/pkg/chain"
	"github.com/ckb-dex/order-core/pkg/fixedpoint"
	"github.com/ckb-dex/order-core/pkg/ratio"
)

func sampleOrder(master MasterRef) OrderData {
	return OrderData{
		UdtAmount: fixedpoint.FromUint64(1_000_000),
		Master:    master,
		Info: ratio.Info{
			CkbToUdt:       ratio.Ratio{CkbScale: 10, UdtScale: 1},
			UdtToCkb:       ratio.Empty,
			CkbMinMatchLog: 33,
		},
	}
}

func TestCodecRoundTripRelative(t *testing.T) {
	want := sampleOrder(Relative(1))
	encoded, err := Encode(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestCodecRoundTripAbsolute(t *testing.T) {
	out := chain.OutPoint{TxHash: common.HexToHash("0xabc123"), Index: 7}
	want := sampleOrder(Absolute(out))
	encoded, err := Encode(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
	if got.Master.Out != out {
		t.Fatalf("resolved out point mismatch: got %+v, want %+v", got.Master.Out, out)
	}
}

func TestDecodeRejectsShortInput(t *testing.T) {
	if _, err := Decode([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected decode-failure on too-short input")
	}
}

func TestDecodeRejectsUnknownMasterTag(t *testing.T) {
	encoded, err := Encode(sampleOrder(Relative(1)))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	encoded[16] = 0xFF // corrupt the master tag byte
	if _, err := Decode(encoded); err == nil {
		t.Fatal("expected decode-failure on unknown master tag")
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	encoded, err := Encode(sampleOrder(Relative(1)))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	encoded = append(encoded, 0x00)
	if _, err := Decode(encoded); err == nil {
		t.Fatal("expected decode-failure on trailing bytes")
	}
}

func TestValidateRejectsBadPadding(t *testing.T) {
	master := Relative(1)
	master.Padding[0] = 1
	d := sampleOrder(master)
	if err := d.Validate(); err == nil {
		t.Fatal("expected invalid-entity on non-zero relative padding")
	}
}

func TestValidateRejectsInvalidInfo(t *testing.T) {
	d := sampleOrder(Relative(1))
	d.Info.CkbMinMatchLog = ratio.MaxCkbMinMatchLog + 1
	if err := d.Validate(); err == nil {
		t.Fatal("expected invalid-entity from info validation")
	}
}

func TestGetMasterResolvesRelative(t *testing.T) {
	d := sampleOrder(Relative(1))
	self := chain.OutPoint{TxHash: common.HexToHash("0x01"), Index: 3}
	want := chain.OutPoint{TxHash: common.HexToHash("0x01"), Index: 4}
	if got := d.GetMaster(self); got != want {
		t.Fatalf("GetMaster: got %+v, want %+v", got, want)
	}
}

func TestIsMint(t *testing.T) {
	mint := sampleOrder(Relative(1))
	if !mint.IsMint() {
		t.Fatal("relative master should report IsMint")
	}
	matched := sampleOrder(Absolute(chain.OutPoint{TxHash: common.HexToHash("0x02"), Index: 1}))
	if matched.IsMint() {
		t.Fatal("absolute master should not report IsMint")
	}
}
