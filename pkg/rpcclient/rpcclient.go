// Package rpcclient is the concrete chain.ChainClient over CKB's JSON-RPC
// 2.0 indexer (get_cells) and node (get_live_cell) endpoints. No example
// in the retrieval pack implements this wire schema (the pack's only RPC
// client, leanlp-BTC-coinjoin's btcd rpcclient, is Bitcoin-specific and
// does not generalize), so this package is grounded on the standard
// library's net/http + encoding/json rather than a third-party client —
// see DESIGN.md.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ckb-dex/order-core/pkg/chain"
	"github.com/ckb-dex/order-core/pkg/orderrrs"
)

// Client is a CKB JSON-RPC 2.0 client implementing chain.ChainClient.
type Client struct {
	URL        string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// New builds a Client with the given request timeout.
func New(url string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{URL: url, HTTPClient: &http.Client{Timeout: timeout}, Logger: logger}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Warn("rpc call failed", zap.String("method", method), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("rpcclient: decode %s response: %w", method, err)
	}
	if rr.Error != nil {
		return fmt.Errorf("rpcclient: %s: %d %s", method, rr.Error.Code, rr.Error.Message)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(rr.Result, out)
}

type scriptJSON struct {
	CodeHash string `json:"code_hash"`
	HashType string `json:"hash_type"`
	Args     string `json:"args"`
}

func toScriptJSON(s chain.Script) scriptJSON {
	return scriptJSON{CodeHash: s.CodeHash.Hex(), HashType: hashTypeString(s.HashType), Args: s.Args}
}

func hashTypeString(h chain.ScriptHashType) string {
	switch h {
	case chain.HashTypeType:
		return "type"
	case chain.HashTypeData1:
		return "data1"
	default:
		return "data"
	}
}

func parseHashType(s string) chain.ScriptHashType {
	switch s {
	case "type":
		return chain.HashTypeType
	case "data1":
		return chain.HashTypeData1
	default:
		return chain.HashTypeData
	}
}

type cellOutputJSON struct {
	Capacity string      `json:"capacity"`
	Lock     scriptJSON  `json:"lock"`
	Type     *scriptJSON `json:"type"`
}

type outPointJSON struct {
	TxHash string `json:"tx_hash"`
	Index  string `json:"index"`
}

type indexerCellJSON struct {
	OutPoint   outPointJSON   `json:"out_point"`
	Output     cellOutputJSON `json:"output"`
	OutputData string         `json:"output_data"`
}

type getCellsResultJSON struct {
	Objects    []indexerCellJSON `json:"objects"`
	LastCursor string            `json:"last_cursor"`
}

// FindCellsOnChain implements chain.ChainClient by paging through
// get_cells until the indexer returns an empty cursor or ctx is
// cancelled.
func (c *Client) FindCellsOnChain(ctx context.Context, query chain.CellQuery, limit int) (<-chan chain.Cell, <-chan error) {
	cells := make(chan chain.Cell)
	errs := make(chan error, 1)

	go func() {
		defer close(cells)
		defer close(errs)

		searchKey := map[string]any{
			"script":             toScriptJSON(query.Script),
			"script_type":        string(query.ScriptType),
			"script_search_mode": "exact",
			"with_data":          true,
		}
		if query.FilterByType != nil {
			sj := toScriptJSON(*query.FilterByType)
			searchKey["filter"] = map[string]any{"script": sj}
		}

		cursor := ""
		for {
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			default:
			}

			var result getCellsResultJSON
			params := []any{searchKey, "asc", fmt.Sprintf("0x%x", limit)}
			if cursor != "" {
				params = append(params, cursor)
			}
			if err := c.call(ctx, "get_cells", params, &result); err != nil {
				errs <- err
				return
			}

			for _, obj := range result.Objects {
				cell, err := decodeIndexerCell(obj)
				if err != nil {
					c.Logger.Debug("skipping undecodable cell", zap.Error(err))
					continue
				}
				select {
				case cells <- cell:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}

			if result.LastCursor == "" || result.LastCursor == "0x" || len(result.Objects) == 0 {
				return
			}
			cursor = result.LastCursor
		}
	}()

	return cells, errs
}

type getLiveCellResultJSON struct {
	Cell *struct {
		Output cellOutputJSON `json:"output"`
		Data   *struct {
			Content string `json:"content"`
		} `json:"data"`
	} `json:"cell"`
	Status string `json:"status"`
}

// GetCell implements chain.ChainClient by calling get_live_cell with
// with_data=true.
func (c *Client) GetCell(ctx context.Context, out chain.OutPoint) (chain.Cell, bool, error) {
	op := outPointJSON{TxHash: out.TxHash.Hex(), Index: fmt.Sprintf("0x%x", out.Index)}

	var result getLiveCellResultJSON
	if err := c.call(ctx, "get_live_cell", []any{op, true}, &result); err != nil {
		return chain.Cell{}, false, err
	}
	if result.Status != "live" || result.Cell == nil {
		return chain.Cell{}, false, nil
	}

	data := []byte{}
	if result.Cell.Data != nil {
		b, err := hexDecode(result.Cell.Data.Content)
		if err != nil {
			return chain.Cell{}, false, orderrrs.Wrapf(orderrrs.ErrDecodeFailure, "get_live_cell data: %v", err)
		}
		data = b
	}

	cell, err := buildCell(out, result.Cell.Output, data)
	if err != nil {
		return chain.Cell{}, false, err
	}
	return cell, true, nil
}

func decodeIndexerCell(obj indexerCellJSON) (chain.Cell, error) {
	txHash, err := hexDecode32(obj.OutPoint.TxHash)
	if err != nil {
		return chain.Cell{}, err
	}
	index, err := hexDecodeUint32(obj.OutPoint.Index)
	if err != nil {
		return chain.Cell{}, err
	}
	data, err := hexDecode(obj.OutputData)
	if err != nil {
		return chain.Cell{}, err
	}
	return buildCell(chain.OutPoint{TxHash: common.Hash(txHash), Index: index}, obj.Output, data)
}

func buildCell(out chain.OutPoint, output cellOutputJSON, data []byte) (chain.Cell, error) {
	capacity, err := hexDecodeUint64(output.Capacity)
	if err != nil {
		return chain.Cell{}, err
	}
	lockHash, err := hexDecode32(output.Lock.CodeHash)
	if err != nil {
		return chain.Cell{}, err
	}
	lock := chain.Script{CodeHash: common.Hash(lockHash), HashType: parseHashType(output.Lock.HashType), Args: output.Lock.Args}

	var typ *chain.Script
	if output.Type != nil {
		typeHash, err := hexDecode32(output.Type.CodeHash)
		if err != nil {
			return chain.Cell{}, err
		}
		typ = &chain.Script{CodeHash: common.Hash(typeHash), HashType: parseHashType(output.Type.HashType), Args: output.Type.Args}
	}

	return chain.Cell{OutPoint: out, Capacity: capacity, Lock: lock, Type: typ, Data: data}, nil
}

func hexDecode(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(s)
}

func hexDecode32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hexDecode(s)
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("rpcclient: expected 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

func hexDecodeUint32(s string) (uint32, error) {
	v, err := hexDecodeUint64(s)
	return uint32(v), err
}

func hexDecodeUint64(s string) (uint64, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 16, 64)
}
