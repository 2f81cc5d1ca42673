package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/ticker"

	"github.com/insightwallet/insightwallet/internal/insight"
	"github.com/insightwallet/insightwallet/internal/storage"
	"github.com/insightwallet/insightwallet/internal/vault"
	"github.com/insightwallet/insightwallet/internal/wallet"
)

type recordingObserver struct {
	mu       sync.Mutex
	heights  []int64
	balances []*wallet.Balance
	records  []vault.Record
}

func (o *recordingObserver) OnHeight(_ string, h int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.heights = append(o.heights, h)
}

func (o *recordingObserver) OnBalance(_ string, b *wallet.Balance) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.balances = append(o.balances, b)
}

func (o *recordingObserver) OnRecords(_ string, recs []vault.Record) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, recs...)
}

func (o *recordingObserver) counts() (int, int, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.heights), len(o.balances), len(o.records)
}

func newTestPoller(chain *fakeChain, obs Observer, state *StateStore, t ticker.Ticker) *Poller {
	return NewPoller(PollerConfig{
		Account:    "alice01",
		Coin:       "BTCZ",
		Address:    me,
		Chain:      chain,
		Reconciler: &Reconciler{Chain: chain, Recorder: &memRecorder{}},
		History:    NewHistory(nil),
		Ticker:     t,
		Timeout:    time.Second,
		Observer:   obs,
		State:      state,
	})
}

func TestPoller_ReconcilesOnHeightAdvance(t *testing.T) {
	chain := &fakeChain{height: 100, info: &insight.AddressInfo{Balance: dec("1")}}
	obs := &recordingObserver{}
	p := newTestPoller(chain, obs, nil, nil)
	ctx := context.Background()

	p.Tick(ctx)
	p.Wait()
	if chain.calls() != 1 {
		t.Fatalf("first tick: %d reconciles, want 1", chain.calls())
	}

	p.Tick(ctx)
	p.Wait()
	if chain.calls() != 1 {
		t.Errorf("same height: %d reconciles, want 1", chain.calls())
	}

	chain.set(func(f *fakeChain) {
		f.height = 101
		f.txs = chainTxs()
	})
	p.Tick(ctx)
	p.Wait()
	if chain.calls() != 2 {
		t.Errorf("advanced height: %d reconciles, want 2", chain.calls())
	}
	if p.Height() != 101 {
		t.Errorf("Height() = %d", p.Height())
	}

	heights, balances, records := obs.counts()
	if heights != 3 || balances != 3 {
		t.Errorf("observer saw %d heights, %d balances; want 3 each", heights, balances)
	}
	if records != 3 {
		t.Errorf("observer saw %d records, want 3", records)
	}
}

func TestPoller_NetworkFailureIsNoData(t *testing.T) {
	chain := &fakeChain{err: errors.New("timeout")}
	obs := &recordingObserver{}
	p := newTestPoller(chain, obs, nil, nil)

	p.Tick(context.Background())
	p.Wait()
	h, b, r := obs.counts()
	if h+b+r != 0 {
		t.Errorf("observer called on failure: %d %d %d", h, b, r)
	}
	if chain.calls() != 0 {
		t.Error("reconciled without a height")
	}

	chain.set(func(f *fakeChain) { f.err = nil; f.height = 5 })
	p.Tick(context.Background())
	p.Wait()
	if chain.calls() != 1 {
		t.Error("did not recover on the next tick")
	}
}

func TestPoller_RunWithForcedTicks(t *testing.T) {
	chain := &fakeChain{height: 10, info: &insight.AddressInfo{}}
	obs := &recordingObserver{}
	db := storage.NewMemory()
	state := NewStateStore(db)
	force := ticker.NewForce(time.Hour)
	p := newTestPoller(chain, obs, state, force)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	chain.set(func(f *fakeChain) { f.height = 11; f.txs = chainTxs() })
	force.Force <- time.Now()
	chain.set(func(f *fakeChain) { f.height = 12 })
	force.Force <- time.Now()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, _, r := obs.counts(); r == 3 && p.Height() == 12 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("poller did not pick up forced ticks (height %d)", p.Height())
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	st, err := state.Load("alice01", "BTCZ")
	if err != nil || st == nil {
		t.Fatalf("sync state = %v, %v", st, err)
	}
	if st.Records != 3 || st.Height < 11 {
		t.Errorf("sync state = %+v", st)
	}
}

func TestPoller_SeedsHeightFromState(t *testing.T) {
	state := NewStateStore(storage.NewMemory())
	state.Save("alice01", "BTCZ", SyncState{Height: 500, SyncedAt: time.Now()})

	chain := &fakeChain{height: 400}
	p := newTestPoller(chain, nil, state, nil)
	if p.Height() != 500 {
		t.Errorf("seeded height = %d, want 500", p.Height())
	}

	// The first tick reconciles even though the chain is behind the
	// stored height.
	p.Tick(context.Background())
	p.Wait()
	if chain.calls() != 1 {
		t.Errorf("first tick reconciles = %d, want 1", chain.calls())
	}
}
