package api

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/ckb-dex/order-core/pkg/chain"
	"github.com/ckb-dex/order-core/pkg/fixedpoint"
	"github.com/ckb-dex/order-core/pkg/manager"
)

// fakeClock is a util.Clock whose After channel is driven entirely by the
// test, so pollLoop's cadence can be exercised without sleeping in real
// time.
type fakeClock struct {
	now  time.Time
	tick chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(0, 0), tick: make(chan time.Time)}
}

func (c *fakeClock) After(time.Duration) <-chan time.Time { return c.tick }
func (c *fakeClock) Now() time.Time                       { return c.now }

func (c *fakeClock) fire() {
	c.now = c.now.Add(time.Second)
	c.tick <- c.now
}

// emptyChainClient satisfies chain.ChainClient by reporting no cells and
// no errors, so each discovery poll completes immediately. calls counts
// discovery polls: each poll makes exactly one lock-script (order
// candidate) scan, so only those scans are counted.
type emptyChainClient struct {
	calls int32
}

func (c *emptyChainClient) FindCellsOnChain(ctx context.Context, query chain.CellQuery, limit int) (<-chan chain.Cell, <-chan error) {
	if query.ScriptType == chain.ScriptTypeLock {
		atomic.AddInt32(&c.calls, 1)
	}
	cells := make(chan chain.Cell)
	errs := make(chan error)
	close(cells)
	close(errs)
	return cells, errs
}

func (c *emptyChainClient) GetCell(ctx context.Context, out chain.OutPoint) (chain.Cell, bool, error) {
	return chain.Cell{}, false, nil
}

// Wiring pkg/util.Clock into Server.pollLoop (rather than a raw
// time.Ticker) makes the poll cadence directly testable: each manual
// fire() below must trigger exactly one more discovery poll, with no real
// waiting.
func TestPollLoopAdvancesOnClockTick(t *testing.T) {
	client := &emptyChainClient{}
	orderScript := chain.Script{CodeHash: common.HexToHash("0x01"), HashType: chain.HashTypeType}
	udtScript := chain.Script{CodeHash: common.HexToHash("0x02"), HashType: chain.HashTypeType}
	om := manager.New(client, orderScript, udtScript, fixedpoint.FromUint64(100))

	s := NewServer(om, zap.NewNop())
	clock := newFakeClock()
	s.clock = clock

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.pollLoop(ctx, time.Second)
		close(done)
	}()

	waitForCalls(t, client, 1) // the initial poll before the loop starts waiting on a tick

	for i := int32(2); i <= 4; i++ {
		clock.fire()
		waitForCalls(t, client, i)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pollLoop did not exit after context cancellation")
	}
}

func waitForCalls(t *testing.T, client *emptyChainClient, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(&client.calls) >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d discovery polls, got %d", want, atomic.LoadInt32(&client.calls))
}
