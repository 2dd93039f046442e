// Package params carries the runtime configuration for the order-matchd
// service and mint-order CLI: the chain RPC endpoint to dial, the scripts
// that identify this exchange's order/UDT cells, and the spec §6 default
// constants used across pkg/manager and pkg/matcher.
package params

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/ckb-dex/order-core/pkg/fixedpoint"
)

// Scripts carries the opaque script identifiers this deployment matches
// against. Args are hex-encoded, as chain.Script documents.
type Scripts struct {
	OrderCodeHash string
	OrderArgs     string
	UdtCodeHash   string
	UdtArgs       string
}

// Matching carries the spec §6 defaults, overridable per deployment.
type Matching struct {
	FeeBase          fixedpoint.Num
	Fee              fixedpoint.Num
	CkbMinMatchLog   uint8
	FeeRate          fixedpoint.Num
	CkbAllowanceStep fixedpoint.FixedPoint
	FindCellsLimit   int
	CkbOccupied      fixedpoint.FixedPoint
}

// Config is the top-level configuration for cmd/order-matchd and
// cmd/mint-order.
type Config struct {
	RPCURL        string
	ListenAddr    string
	PollInterval  time.Duration
	RequestTimeout time.Duration
	Scripts       Scripts
	Matching      Matching
}

// Default returns the spec §6 defaults plus sane service-level values; it
// does not supply a usable RPCURL or Scripts — those are deployment-
// specific and must come from the environment.
func Default() Config {
	return Config{
		RPCURL:         "http://127.0.0.1:8114",
		ListenAddr:     ":8090",
		PollInterval:   5 * time.Second,
		RequestTimeout: 10 * time.Second,
		Matching: Matching{
			FeeBase:          100000,
			Fee:              0,
			CkbMinMatchLog:   33,
			FeeRate:          1000,
			CkbAllowanceStep: fixedpoint.FromUint64(1000_00000000),
			FindCellsLimit:   400,
			CkbOccupied:      fixedpoint.FromUint64(142_00000000), // default order-cell schema footprint
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables, overlaid on Default(). Priority: ENV > .env
// file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("ORDER_RPC_URL"); v != "" {
		cfg.RPCURL = v
	}
	if v := os.Getenv("ORDER_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("ORDER_POLL_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.PollInterval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("ORDER_REQUEST_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.RequestTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	cfg.Scripts.OrderCodeHash = getEnv("ORDER_SCRIPT_CODE_HASH", cfg.Scripts.OrderCodeHash)
	cfg.Scripts.OrderArgs = getEnv("ORDER_SCRIPT_ARGS", cfg.Scripts.OrderArgs)
	cfg.Scripts.UdtCodeHash = getEnv("UDT_SCRIPT_CODE_HASH", cfg.Scripts.UdtCodeHash)
	cfg.Scripts.UdtArgs = getEnv("UDT_SCRIPT_ARGS", cfg.Scripts.UdtArgs)

	if v := os.Getenv("ORDER_FEE_RATE"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Matching.FeeRate = fixedpoint.Num(n)
		}
	}
	if v := os.Getenv("ORDER_CKB_MIN_MATCH_LOG"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 8); err == nil {
			cfg.Matching.CkbMinMatchLog = uint8(n)
		}
	}
	if v := os.Getenv("ORDER_FIND_CELLS_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Matching.FindCellsLimit = n
		}
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
