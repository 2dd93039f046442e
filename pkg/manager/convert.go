package manager

import (
	"github.com/ckb-dex/order-core/pkg/fixedpoint"
	"github.com/ckb-dex/order-core/pkg/orderrrs"
	"github.com/ckb-dex/order-core/pkg/ratio"
)

// ConvertOptions carries convert's optional parameters (spec §4.6); the
// zero value is not valid on its own — use DefaultConvertOptions.
type ConvertOptions struct {
	Fee            fixedpoint.Num
	FeeBase        fixedpoint.Num
	CkbMinMatchLog uint8
}

// DefaultConvertOptions matches spec §6's defaults.
func DefaultConvertOptions() ConvertOptions {
	return ConvertOptions{Fee: DefaultFee, FeeBase: DefaultFeeBase, CkbMinMatchLog: ratio.DefaultCkbMinMatchLog}
}

// Convert previews a mint (spec §4.6's `convert`): given the direction the
// submitter trades, a midpoint ratio, the amounts on each side, and fee
// options, it returns the amount the submitter should expect on the
// opposite side, the CKB-priced fee charged for that privilege, and the
// Info the resulting order cell should carry.
//
// The fee is applied by scaling up the receiving side's scale factor by
// feeBase/(feeBase-fee) (ceiling), which makes the effective rate worse
// for the submitter by exactly that factor without touching the giving
// side's scale. convertedAmount is the adjusted-rate conversion of the
// input side, rounded up; ckbFee is the difference between the midpoint
// and adjusted conversions, re-priced into CKB at the midpoint rate (so
// it is zero whenever the input amount or fee is zero).
func Convert(isCkb2Udt bool, midpoint ratio.Ratio, ckbValue, udtValue fixedpoint.FixedPoint, opts ConvertOptions) (convertedAmount, ckbFee fixedpoint.FixedPoint, info ratio.Info, err error) {
	if !midpoint.IsPopulated() {
		return fixedpoint.Zero, fixedpoint.Zero, ratio.Info{}, orderrrs.Wrap(orderrrs.ErrInvalidEntity, "convert: midpoint ratio is not populated")
	}
	if opts.FeeBase == 0 || opts.Fee >= opts.FeeBase {
		return fixedpoint.Zero, fixedpoint.Zero, ratio.Info{}, orderrrs.Wrapf(orderrrs.ErrInvalidEntity, "convert: invalid fee/feeBase (%d/%d)", opts.Fee, opts.FeeBase)
	}

	feeBaseMinusFee := fixedpoint.Num(uint64(opts.FeeBase) - uint64(opts.Fee))

	if isCkb2Udt {
		input := ckbValue
		adjustedUdtScale := fixedpoint.Num(fixedpoint.FromUint64(uint64(midpoint.UdtScale)).MulDivCeil(opts.FeeBase, feeBaseMinusFee).Uint64())

		convertedAmount = input.MulDivCeil(midpoint.CkbScale, adjustedUdtScale)
		midpointAmount := input.MulDivCeil(midpoint.CkbScale, midpoint.UdtScale)

		diff := fixedpoint.Zero
		if midpointAmount.Cmp(convertedAmount) > 0 {
			diff = midpointAmount.Sub(convertedAmount)
		}
		ckbFee = diff.MulDivCeil(midpoint.UdtScale, midpoint.CkbScale)

		info = ratio.Info{
			CkbToUdt:       ratio.Ratio{CkbScale: midpoint.CkbScale, UdtScale: adjustedUdtScale},
			UdtToCkb:       ratio.Empty,
			CkbMinMatchLog: opts.CkbMinMatchLog,
		}
		return convertedAmount, ckbFee, info, nil
	}

	input := udtValue
	adjustedCkbScale := fixedpoint.Num(fixedpoint.FromUint64(uint64(midpoint.CkbScale)).MulDivCeil(opts.FeeBase, feeBaseMinusFee).Uint64())

	convertedAmount = input.MulDivCeil(midpoint.UdtScale, adjustedCkbScale)
	midpointAmount := input.MulDivCeil(midpoint.UdtScale, midpoint.CkbScale)

	diff := fixedpoint.Zero
	if midpointAmount.Cmp(convertedAmount) > 0 {
		diff = midpointAmount.Sub(convertedAmount)
	}
	ckbFee = diff // already CKB-denominated in this direction

	info = ratio.Info{
		CkbToUdt:       ratio.Empty,
		UdtToCkb:       ratio.Ratio{CkbScale: adjustedCkbScale, UdtScale: midpoint.UdtScale},
		CkbMinMatchLog: opts.CkbMinMatchLog,
	}
	return convertedAmount, ckbFee, info, nil
}
