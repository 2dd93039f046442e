package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ckb-dex/order-core/params"
	"github.com/ckb-dex/order-core/pkg/chain"
	"github.com/ckb-dex/order-core/pkg/fixedpoint"
	"github.com/ckb-dex/order-core/pkg/manager"
	"github.com/ckb-dex/order-core/pkg/ratio"
	"github.com/ckb-dex/order-core/pkg/txbuilder"
)

func main() {
	var (
		ownerCodeHash = flag.String("owner-code-hash", "", "owner lock script code hash (hex)")
		ownerArgs     = flag.String("owner-args", "", "owner lock script args (hex)")
		udtAmount     = flag.Uint64("udt-amount", 0, "UDT amount to place in the order")
		ckbValue      = flag.Uint64("ckb-value", 0, "CKB value offered beyond the occupied floor, in shannons")
		ckb2udtCkb    = flag.Uint64("ckb2udt-ckb-scale", 0, "ckbToUdt.ckbScale, 0 to leave that direction unoffered")
		ckb2udtUdt    = flag.Uint64("ckb2udt-udt-scale", 0, "ckbToUdt.udtScale")
		udt2ckbCkb    = flag.Uint64("udt2ckb-ckb-scale", 0, "udtToCkb.ckbScale, 0 to leave that direction unoffered")
		udt2ckbUdt    = flag.Uint64("udt2ckb-udt-scale", 0, "udtToCkb.udtScale")
		minMatchLog   = flag.Uint("ckb-min-match-log", ratio.DefaultCkbMinMatchLog, "ckbMinMatchLog exponent")
	)
	flag.Parse()

	if *ownerCodeHash == "" {
		fmt.Fprintln(os.Stderr, "mint-order: -owner-code-hash is required")
		os.Exit(1)
	}

	cfg := params.LoadFromEnv("")

	orderScript := chain.Script{
		CodeHash: common.HexToHash(cfg.Scripts.OrderCodeHash),
		HashType: chain.HashTypeType,
		Args:     cfg.Scripts.OrderArgs,
	}
	udtScript := chain.Script{
		CodeHash: common.HexToHash(cfg.Scripts.UdtCodeHash),
		HashType: chain.HashTypeType,
		Args:     cfg.Scripts.UdtArgs,
	}
	ownerLock := chain.Script{
		CodeHash: common.HexToHash(*ownerCodeHash),
		HashType: chain.HashTypeType,
		Args:     *ownerArgs,
	}

	om := manager.New(nil, orderScript, udtScript, cfg.Matching.CkbOccupied)

	info := ratio.Info{
		CkbToUdt:       ratio.Ratio{CkbScale: fixedpoint.Num(*ckb2udtCkb), UdtScale: fixedpoint.Num(*ckb2udtUdt)},
		UdtToCkb:       ratio.Ratio{CkbScale: fixedpoint.Num(*udt2ckbCkb), UdtScale: fixedpoint.Num(*udt2ckbUdt)},
		CkbMinMatchLog: uint8(*minMatchLog),
	}

	tx := txbuilder.New()
	if err := om.Mint(tx, ownerLock, fixedpoint.FromUint64(*udtAmount), fixedpoint.FromUint64(*ckbValue), info); err != nil {
		fmt.Fprintf(os.Stderr, "mint-order: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(tx, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint-order: marshal: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
