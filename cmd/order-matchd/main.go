package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/ckb-dex/order-core/params"
	"github.com/ckb-dex/order-core/pkg/api"
	"github.com/ckb-dex/order-core/pkg/chain"
	"github.com/ckb-dex/order-core/pkg/manager"
	"github.com/ckb-dex/order-core/pkg/rpcclient"
	"github.com/ckb-dex/order-core/pkg/util"
)

func main() {
	cfg := params.LoadFromEnv("") // "" loads .env from the current directory

	logFile := os.Getenv("LOG_FILE")
	var logger *zap.Logger
	var err error
	if logFile != "" {
		logger, err = util.NewLoggerWithFile(logFile)
	} else {
		logger, err = util.NewLogger()
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("order-matchd starting", zap.String("rpc_url", cfg.RPCURL), zap.String("listen_addr", cfg.ListenAddr))

	client := rpcclient.New(cfg.RPCURL, cfg.RequestTimeout, logger)

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

	om := manager.New(client, orderScript, udtScript, cfg.Matching.CkbOccupied)
	om.FindCellsLimit = cfg.Matching.FindCellsLimit

	srv := api.NewServer(om, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx, cfg.ListenAddr, cfg.PollInterval); err != nil {
		logger.Fatal("api server stopped", zap.Error(err))
	}
	logger.Info("order-matchd stopped")
}
