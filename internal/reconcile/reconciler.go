package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/insightwallet/insightwallet/internal/insight"
	"github.com/insightwallet/insightwallet/internal/log"
	"github.com/insightwallet/insightwallet/internal/vault"
)

// TxSource lists the transactions of an address.
type TxSource interface {
	Transactions(ctx context.Context, address string) ([]insight.Tx, error)
}

// Recorder persists records; a false return means already recorded.
type Recorder interface {
	AddTransaction(rec vault.Record) (bool, error)
	TxIDs(coin string) (map[string]struct{}, error)
}

// Reconciler appends chain transactions missing from the vault.
type Reconciler struct {
	Chain    TxSource
	Recorder Recorder
	Now      func() time.Time
}

// LoadHistory builds the known-txid set for coin from the recorder.
func (r *Reconciler) LoadHistory(coin string) (*History, error) {
	ids, err := r.Recorder.TxIDs(coin)
	if err != nil {
		return nil, fmt.Errorf("load %s history: %w", coin, err)
	}
	return NewHistory(ids), nil
}

// Reconcile fetches the address's transactions, newest first, and records
// each relevant one not in known. It returns the records it added, newest
// first. Overlapping calls are safe: the vault rejects duplicates.
func (r *Reconciler) Reconcile(ctx context.Context, address, coin string, known *History) ([]vault.Record, error) {
	txs, err := r.Chain.Transactions(ctx, address)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}

	sort.SliceStable(txs, func(i, j int) bool {
		return Timestamp(&txs[i], now) > Timestamp(&txs[j], now)
	})

	var added []vault.Record
	for i := range txs {
		tx := &txs[i]
		if tx.TxID == "" || known.Has(tx.TxID) {
			continue
		}
		ev, ok := Classify(tx, address)
		if !ok {
			log.Sync.Debug().Str("coin", coin).Str("txid", tx.TxID).Msg("Skipping zero-net transaction")
			continue
		}
		rec := vault.Record{
			Coin:      coin,
			TxID:      tx.TxID,
			Type:      ev.Type,
			Amount:    ev.Amount,
			Timestamp: Timestamp(tx, now),
		}
		inserted, err := r.Recorder.AddTransaction(rec)
		if err != nil {
			return added, fmt.Errorf("record %s: %w", tx.TxID, err)
		}
		known.Add(tx.TxID)
		if inserted {
			added = append(added, rec)
		}
	}
	if len(added) > 0 {
		log.Sync.Info().Str("coin", coin).Int("new", len(added)).Msg("History updated")
	}
	return added, nil
}
