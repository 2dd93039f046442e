package orderdata

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ckb-dex/order-core/pkg/chain"
	"github.com/ckb-dex/order-core/pkg/fixedpoint"
	"github.com/ckb-dex/order-core/pkg/orderrrs"
	"github.com/ckb-dex/order-core/pkg/ratio"
)

// Encode serializes an OrderData into the packed little-endian layout spec
// §6 requires to match the on-chain verifier byte-for-byte:
//
//	udtAmount: u128 ‖ master: tagged_union{0: Relative{padding:[32]byte,
//	distance:i32}, 1: Absolute{txHash:[32]byte, index:u64}} ‖
//	info: {ckbToUdt:{u64,u64}, udtToCkb:{u64,u64}, ckbMinMatchLog:u8}
//
// Encode rejects values that cannot round-trip, per the contract in §6; the
// caller should still call OrderData.Validate first for semantic checks.
func Encode(d OrderData) ([]byte, error) {
	if !d.UdtAmount.Valid() {
		return nil, orderrrs.Wrap(orderrrs.ErrInvalidEntity, "udtAmount does not fit 128 bits")
	}

	var buf bytes.Buffer
	u128 := d.UdtAmount.Bytes16()
	buf.Write(u128[:])

	switch d.Master.Kind {
	case MasterRelative:
		buf.WriteByte(byte(MasterRelative))
		buf.Write(d.Master.Padding[:])
		if err := binary.Write(&buf, binary.LittleEndian, d.Master.Distance); err != nil {
			return nil, orderrrs.Wrapf(orderrrs.ErrInvalidEntity, "encode distance: %v", err)
		}
	case MasterAbsolute:
		buf.WriteByte(byte(MasterAbsolute))
		buf.Write(d.Master.Out.TxHash[:])
		if err := binary.Write(&buf, binary.LittleEndian, uint64(d.Master.Out.Index)); err != nil {
			return nil, orderrrs.Wrapf(orderrrs.ErrInvalidEntity, "encode index: %v", err)
		}
	default:
		return nil, orderrrs.Wrapf(orderrrs.ErrInvalidEntity, "unknown master kind %d", d.Master.Kind)
	}

	for _, r := range [...]ratio.Ratio{d.Info.CkbToUdt, d.Info.UdtToCkb} {
		if err := binary.Write(&buf, binary.LittleEndian, uint64(r.CkbScale)); err != nil {
			return nil, err
		}
		if err := binary.Write(&buf, binary.LittleEndian, uint64(r.UdtScale)); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(d.Info.CkbMinMatchLog)

	return buf.Bytes(), nil
}

// Decode parses the packed layout Encode produces. It is the sole entry
// point discovery uses to turn raw cell data into an OrderData — any
// parse failure here is a decode-failure (spec §7) that callers in
// pkg/manager's findOrders absorb and skip, never propagate.
func Decode(data []byte) (OrderData, error) {
	const minLen = 16 + 1 + 33 // udtAmount + tag + info, before the variant-sized master body
	if len(data) < minLen {
		return OrderData{}, orderrrs.Wrapf(orderrrs.ErrDecodeFailure, "order data too short: %d bytes", len(data))
	}

	r := bytes.NewReader(data)
	var u128 [16]byte
	if _, err := readFull(r, u128[:]); err != nil {
		return OrderData{}, orderrrs.Wrapf(orderrrs.ErrDecodeFailure, "read udtAmount: %v", err)
	}
	udtAmount := fixedpoint.FromBytes16(u128)

	tagByte, err := r.ReadByte()
	if err != nil {
		return OrderData{}, orderrrs.Wrapf(orderrrs.ErrDecodeFailure, "read master tag: %v", err)
	}

	var master MasterRef
	switch MasterKind(tagByte) {
	case MasterRelative:
		var padding [32]byte
		if _, err := readFull(r, padding[:]); err != nil {
			return OrderData{}, orderrrs.Wrapf(orderrrs.ErrDecodeFailure, "read padding: %v", err)
		}
		var distance int32
		if err := binary.Read(r, binary.LittleEndian, &distance); err != nil {
			return OrderData{}, orderrrs.Wrapf(orderrrs.ErrDecodeFailure, "read distance: %v", err)
		}
		master = MasterRef{Kind: MasterRelative, Padding: padding, Distance: distance}
	case MasterAbsolute:
		var txHash [32]byte
		if _, err := readFull(r, txHash[:]); err != nil {
			return OrderData{}, orderrrs.Wrapf(orderrrs.ErrDecodeFailure, "read txHash: %v", err)
		}
		var index uint64
		if err := binary.Read(r, binary.LittleEndian, &index); err != nil {
			return OrderData{}, orderrrs.Wrapf(orderrrs.ErrDecodeFailure, "read index: %v", err)
		}
		master = MasterRef{Kind: MasterAbsolute, Out: chain.OutPoint{TxHash: common.Hash(txHash), Index: uint32(index)}}
	default:
		return OrderData{}, orderrrs.Wrapf(orderrrs.ErrDecodeFailure, "unknown master tag %d", tagByte)
	}

	var info ratio.Info
	for _, rt := range [...]*ratio.Ratio{&info.CkbToUdt, &info.UdtToCkb} {
		var ckbScale, udtScale uint64
		if err := binary.Read(r, binary.LittleEndian, &ckbScale); err != nil {
			return OrderData{}, orderrrs.Wrapf(orderrrs.ErrDecodeFailure, "read ckbScale: %v", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &udtScale); err != nil {
			return OrderData{}, orderrrs.Wrapf(orderrrs.ErrDecodeFailure, "read udtScale: %v", err)
		}
		*rt = ratio.Ratio{CkbScale: fixedpoint.Num(ckbScale), UdtScale: fixedpoint.Num(udtScale)}
	}

	minMatchLog, err := r.ReadByte()
	if err != nil {
		return OrderData{}, orderrrs.Wrapf(orderrrs.ErrDecodeFailure, "read ckbMinMatchLog: %v", err)
	}
	info.CkbMinMatchLog = minMatchLog

	if r.Len() != 0 {
		return OrderData{}, orderrrs.Wrapf(orderrrs.ErrDecodeFailure, "%d trailing bytes", r.Len())
	}

	return OrderData{UdtAmount: udtAmount, Master: master, Info: info}, nil
}

func readFull(r *bytes.Reader, buf []byte) (int, error) {
	n, err := r.Read(buf)
	if err != nil {
		return n, err
	}
	if n != len(buf) {
		return n, fmt.Errorf("short read: got %d want %d", n, len(buf))
	}
	return n, nil
}
