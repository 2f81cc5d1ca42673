// Package node runs the watch side of the wallet: one unlocked account,
// a chain client and a poller per coin, and the sync-state database.
// It is shared by the daemon and the CLI's one-shot sync.
package node

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/ticker"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/insightwallet/insightwallet/config"
	klog "github.com/insightwallet/insightwallet/internal/log"
	"github.com/insightwallet/insightwallet/internal/insight"
	"github.com/insightwallet/insightwallet/internal/reconcile"
	"github.com/insightwallet/insightwallet/internal/storage"
	"github.com/insightwallet/insightwallet/internal/vault"
)

// ErrNoCoins is returned when the account has nothing to watch.
var ErrNoCoins = errors.New("account has no coins")

// Watcher is the per-coin part of a node.
type Watcher struct {
	Coin    *config.Coin
	Address string
	Client  *insight.Client
	History *reconcile.History
	Poller  *reconcile.Poller
}

// Option adjusts a node at construction.
type Option func(*options)

type options struct {
	db        storage.DB
	observer  reconcile.Observer
	newTicker func(time.Duration) ticker.Ticker
}

// WithDB uses db for sync state instead of opening badger at the
// configured state directory. The node closes it on Stop.
func WithDB(db storage.DB) Option {
	return func(o *options) { o.db = db }
}

// WithObserver receives every poller's results. Defaults to logging.
func WithObserver(obs reconcile.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithTicker overrides the poll ticker constructor.
func WithTicker(fn func(time.Duration) ticker.Ticker) Option {
	return func(o *options) { o.newTicker = fn }
}

// Node watches the coins of one unlocked account.
type Node struct {
	cfg     *config.Config
	logger  zerolog.Logger
	session *vault.Session

	db       storage.DB
	state    *reconcile.StateStore
	watchers []*Watcher

	// Lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	group   *errgroup.Group
	started bool
	stop    sync.Once
}

// New builds a node for session. coins limits the watched coins; empty
// means every coin in the account. The node owns session from here on
// and closes it on Stop, including when New fails.
func New(cfg *config.Config, session *vault.Session, coins []string, opts ...Option) (*Node, error) {
	o := options{
		observer: reconcile.LogObserver{},
		newTicker: func(d time.Duration) ticker.Ticker {
			return ticker.New(d)
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	logger := klog.Node.With().Str("account", session.Account()).Logger()

	if len(coins) == 0 {
		all, err := session.Coins()
		if err != nil {
			session.Close()
			return nil, fmt.Errorf("list coins: %w", err)
		}
		coins = all
	}
	if len(coins) == 0 {
		session.Close()
		return nil, ErrNoCoins
	}

	db := o.db
	if db == nil {
		var err error
		db, err = storage.NewBadger(cfg.StateDir())
		if err != nil {
			session.Close()
			return nil, fmt.Errorf("open state database at %s: %w", cfg.StateDir(), err)
		}
		logger.Debug().Str("path", cfg.StateDir()).Msg("State database opened")
	}
	state := reconcile.NewStateStore(db)

	fail := func(err error) (*Node, error) {
		db.Close()
		session.Close()
		return nil, err
	}

	interval := cfg.Chain.PollInterval
	if interval <= 0 {
		interval = reconcile.DefaultInterval
	}

	var watchers []*Watcher
	for _, sym := range coins {
		coin, err := cfg.Coins.Get(sym)
		if err != nil {
			return fail(err)
		}
		addr, err := session.CoinAddress(coin.Symbol)
		if err != nil {
			return fail(fmt.Errorf("%s: %w", coin.Symbol, err))
		}
		client, err := insight.New(coin, cfg.Chain)
		if err != nil {
			return fail(err)
		}
		rec := &reconcile.Reconciler{Chain: client, Recorder: session}
		hist, err := rec.LoadHistory(coin.Symbol)
		if err != nil {
			return fail(err)
		}
		poller := reconcile.NewPoller(reconcile.PollerConfig{
			Account:    session.Account(),
			Coin:       coin.Symbol,
			Address:    addr,
			Chain:      client,
			Reconciler: rec,
			History:    hist,
			Ticker:     o.newTicker(interval),
			Timeout:    cfg.Chain.Timeout,
			Observer:   o.observer,
			State:      state,
		})
		watchers = append(watchers, &Watcher{
			Coin:    coin,
			Address: addr,
			Client:  client,
			History: hist,
			Poller:  poller,
		})
		logger.Info().
			Str("coin", coin.Symbol).
			Str("address", klog.ShortAddr(addr)).
			Int("known_txs", hist.Len()).
			Msg("Watching coin")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Node{
		cfg:      cfg,
		logger:   logger,
		session:  session,
		db:       db,
		state:    state,
		watchers: watchers,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Watchers returns the per-coin watchers in coin order.
func (n *Node) Watchers() []*Watcher {
	return n.watchers
}

// State returns the sync-state store.
func (n *Node) State() *reconcile.StateStore {
	return n.state
}

// Start runs every poller in the background until Stop. Pollers fail
// independently; an error from one does not stop the others.
func (n *Node) Start() error {
	if n.started {
		return fmt.Errorf("node already started")
	}
	n.started = true

	g, gctx := errgroup.WithContext(n.ctx)
	for _, w := range n.watchers {
		w := w
		g.Go(func() error {
			if err := w.Poller.Run(gctx); err != nil {
				n.logger.Error().Err(err).Str("coin", w.Coin.Symbol).Msg("Poller stopped")
			}
			return nil
		})
	}
	n.group = g

	n.logger.Info().Int("coins", len(n.watchers)).Msg("Node started successfully")
	return nil
}

// SyncOnce runs a single poll per coin and waits for the reconcile passes
// it starts.
func (n *Node) SyncOnce(ctx context.Context) {
	var wg sync.WaitGroup
	for _, w := range n.watchers {
		wg.Add(1)
		go func(w *Watcher) {
			defer wg.Done()
			w.Poller.Tick(ctx)
			w.Poller.Wait()
		}(w)
	}
	wg.Wait()
}

// Done is closed once Stop has been called.
func (n *Node) Done() <-chan struct{} {
	return n.ctx.Done()
}

// Stop cancels polling, waits for in-flight work, closes the state
// database and closes the session. Safe to call more than once.
func (n *Node) Stop() {
	n.stop.Do(func() {
		n.cancel()
		if n.group != nil {
			n.group.Wait()
		}
		if err := n.db.Close(); err != nil {
			n.logger.Warn().Err(err).Msg("Closing state database failed")
		}
		n.session.Close()
		n.logger.Info().Msg("Goodbye!")
	})
}
