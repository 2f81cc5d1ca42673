// Package reconcile keeps a coin's vault history in step with the chain.
package reconcile

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightwallet/insightwallet/internal/insight"
	"github.com/insightwallet/insightwallet/internal/vault"
)

// Event is the wallet-relative effect of a transaction.
type Event struct {
	Type   vault.TxType
	Amount decimal.Decimal
}

// Classify nets the values address spends and receives in tx. A positive
// net is a receive, a negative net a send. A zero net is not relevant and
// returns false, which also drops self-transfers that pay back exactly
// what they spend.
func Classify(tx *insight.Tx, address string) (Event, bool) {
	sent := decimal.Zero
	for _, in := range tx.Vin {
		if in.Pays(address) {
			sent = sent.Add(in.Value)
		}
	}
	received := decimal.Zero
	for _, out := range tx.Vout {
		if out.PaysTo(address) {
			received = received.Add(out.Value)
		}
	}

	net := received.Sub(sent)
	switch net.Sign() {
	case 1:
		return Event{Type: vault.TxReceive, Amount: net}, true
	case -1:
		return Event{Type: vault.TxSend, Amount: net.Neg()}, true
	}
	return Event{}, false
}

// Timestamp returns the time of tx in unix seconds: the confirmed block
// time, then the mempool accept time, then now.
func Timestamp(tx *insight.Tx, now time.Time) int64 {
	if tx.BlockTime > 0 {
		return tx.BlockTime
	}
	if tx.Time > 0 {
		return tx.Time
	}
	return now.Unix()
}
