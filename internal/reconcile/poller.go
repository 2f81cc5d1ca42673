package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/ticker"
	"github.com/rs/zerolog"

	"github.com/insightwallet/insightwallet/internal/insight"
	"github.com/insightwallet/insightwallet/internal/log"
	"github.com/insightwallet/insightwallet/internal/vault"
	"github.com/insightwallet/insightwallet/internal/wallet"
)

// DefaultInterval is the polling period.
const DefaultInterval = 15 * time.Second

// Chain is the explorer surface the poller needs.
type Chain interface {
	TxSource
	BlockHeight(ctx context.Context) (int64, error)
	AddressInfo(ctx context.Context, address string) (*insight.AddressInfo, error)
}

// Observer receives poll results. Calls may come from several goroutines.
type Observer interface {
	OnHeight(coin string, height int64)
	OnBalance(coin string, bal *wallet.Balance)
	OnRecords(coin string, recs []vault.Record)
}

// PollerConfig configures a Poller. Chain, Reconciler, History, Account,
// Coin and Address are required.
type PollerConfig struct {
	Account    string
	Coin       string
	Address    string
	Chain      Chain
	Reconciler *Reconciler
	History    *History

	// Ticker defaults to an lnd ticker at DefaultInterval.
	Ticker ticker.Ticker
	// Timeout bounds each tick and each reconcile pass.
	Timeout  time.Duration
	Observer Observer
	State    *StateStore
}

// Poller watches one (account, coin). Every tick fetches the height and
// the balance; a height advance starts a reconcile pass. Ticks never wait
// for each other, and failures only mean no data for that tick.
type Poller struct {
	cfg    PollerConfig
	logger zerolog.Logger

	mu         sync.Mutex
	lastHeight int64
	seen       bool
	running    bool
	pending    bool

	wg sync.WaitGroup
}

// NewPoller creates a poller. It does not start polling.
func NewPoller(cfg PollerConfig) *Poller {
	if cfg.Ticker == nil {
		cfg.Ticker = ticker.New(DefaultInterval)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultInterval
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	p := &Poller{
		cfg:    cfg,
		logger: log.WithCoin(log.Sync, cfg.Account, cfg.Coin),
	}
	if cfg.State != nil {
		if st, err := cfg.State.Load(cfg.Account, cfg.Coin); err == nil && st != nil {
			p.lastHeight = st.Height
		}
	}
	return p
}

// Height returns the last observed block height.
func (p *Poller) Height() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastHeight
}

// Run polls until ctx is cancelled, then waits for in-flight work. The
// first tick fires immediately and always reconciles.
func (p *Poller) Run(ctx context.Context) error {
	t := p.cfg.Ticker
	t.Resume()
	defer t.Stop()

	p.logger.Info().Str("address", log.ShortAddr(p.cfg.Address)).Msg("Polling started")
	p.spawnTick(ctx)
	for {
		select {
		case <-t.Ticks():
			p.spawnTick(ctx)
		case <-ctx.Done():
			p.wg.Wait()
			p.logger.Info().Msg("Polling stopped")
			return nil
		}
	}
}

// Wait blocks until in-flight ticks and reconcile passes finish.
func (p *Poller) Wait() {
	p.wg.Wait()
}

func (p *Poller) spawnTick(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.Tick(ctx)
	}()
}

// Tick runs one poll synchronously. The reconcile pass it may start runs
// in the background.
func (p *Poller) Tick(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, p.cfg.Timeout)
	defer cancel()

	height, err := p.cfg.Chain.BlockHeight(ctx)
	switch {
	case err != nil:
		p.logger.Debug().Err(err).Msg("Height unavailable")
	case height > 0:
		p.cfg.Observer.OnHeight(p.cfg.Coin, height)
		if p.advance(height) {
			p.logger.Debug().Int64("height", height).Msg("Height advanced")
			p.triggerReconcile(parent, height)
		}
	}

	info, err := p.cfg.Chain.AddressInfo(ctx, p.cfg.Address)
	switch {
	case err != nil:
		p.logger.Debug().Err(err).Msg("Balance unavailable")
	case info != nil:
		p.cfg.Observer.OnBalance(p.cfg.Coin, info.WalletBalance())
	}
}

// advance records height and reports whether a reconcile is due.
func (p *Poller) advance(height int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.seen {
		p.seen = true
		p.lastHeight = height
		return true
	}
	if height > p.lastHeight {
		p.lastHeight = height
		return true
	}
	return false
}

// triggerReconcile starts a reconcile pass, or marks one pending if a pass
// is already running so it repeats once more.
func (p *Poller) triggerReconcile(ctx context.Context, height int64) {
	p.mu.Lock()
	if p.running {
		p.pending = true
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			p.reconcile(ctx, height)

			p.mu.Lock()
			if !p.pending {
				p.running = false
				p.mu.Unlock()
				return
			}
			p.pending = false
			height = p.lastHeight
			p.mu.Unlock()
		}
	}()
}

func (p *Poller) reconcile(parent context.Context, height int64) {
	ctx, cancel := context.WithTimeout(parent, p.cfg.Timeout)
	defer cancel()

	recs, err := p.cfg.Reconciler.Reconcile(ctx, p.cfg.Address, p.cfg.Coin, p.cfg.History)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Reconcile failed")
		return
	}
	if len(recs) > 0 {
		p.cfg.Observer.OnRecords(p.cfg.Coin, recs)
	}
	if p.cfg.State != nil {
		st := SyncState{Height: height, SyncedAt: time.Now(), Records: p.cfg.History.Len()}
		if err := p.cfg.State.Save(p.cfg.Account, p.cfg.Coin, st); err != nil {
			p.logger.Warn().Err(err).Msg("Saving sync state failed")
		}
	}
}

type nopObserver struct{}

func (nopObserver) OnHeight(string, int64)           {}
func (nopObserver) OnBalance(string, *wallet.Balance) {}
func (nopObserver) OnRecords(string, []vault.Record)  {}

// LogObserver writes poll results to the sync logger.
type LogObserver struct{}

func (LogObserver) OnHeight(coin string, height int64) {
	log.Sync.Trace().Str("coin", coin).Int64("height", height).Msg("Height")
}

func (LogObserver) OnBalance(coin string, bal *wallet.Balance) {
	log.Sync.Debug().Str("coin", coin).
		Str("confirmed", wallet.FormatAmount(bal.Confirmed)).
		Str("unconfirmed", wallet.FormatAmount(bal.Unconfirmed)).
		Str("spendable", wallet.FormatAmount(int64(bal.Spendable()))).
		Msg("Balance")
}

func (LogObserver) OnRecords(coin string, recs []vault.Record) {
	for _, r := range recs {
		log.Sync.Info().Str("coin", coin).Str("txid", r.TxID).Str("type", string(r.Type)).
			Str("amount", wallet.FormatBalance(r.Amount)).Msg("New transaction")
	}
}
