package wallet

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Coin selection errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoUTXOs           = errors.New("no UTXOs available")
	ErrValueOverflow     = errors.New("value overflows uint64")
)

// Confirmation floors used by the selection call sites.
const (
	// MinConfSpend excludes unconfirmed outputs from real spends.
	MinConfSpend int64 = 1
	// MinConfEstimate excludes only outputs with negative confirmations.
	MinConfEstimate int64 = 0
)

// UTXO is an unspent output of one of our addresses as reported by the
// explorer.
type UTXO struct {
	TxID          string
	Vout          uint32
	Value         uint64
	Confirmations int64
	ScriptPubKey  string
}

// CoinSelection holds the result of coin selection.
type CoinSelection struct {
	Inputs []UTXO // Selected UTXOs to spend.
	Total  uint64 // Sum of selected input values.
	Fee    uint64 // Fee the selection was made for.
	Change uint64 // Change = Total - amount - fee.
}

// Eligible returns the positive-value UTXOs with at least minConf
// confirmations, ordered by confirmations descending. Ties keep their
// original order.
func Eligible(utxos []UTXO, minConf int64) []UTXO {
	out := make([]UTXO, 0, len(utxos))
	for _, u := range utxos {
		if u.Value > 0 && u.Confirmations >= minConf {
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confirmations > out[j].Confirmations
	})
	return out
}

// SelectCoins greedily takes the most-confirmed UTXOs until their total
// reaches target. Unconfirmed outputs are never used.
func SelectCoins(utxos []UTXO, target uint64) (*CoinSelection, error) {
	if target == 0 {
		return nil, fmt.Errorf("target must be positive")
	}
	candidates := Eligible(utxos, MinConfSpend)
	if len(candidates) == 0 {
		return nil, ErrNoUTXOs
	}

	var total uint64
	for i, u := range candidates {
		if u.Value > math.MaxUint64-total {
			return nil, fmt.Errorf("%w: input total", ErrValueOverflow)
		}
		total += u.Value
		if total >= target {
			return &CoinSelection{
				Inputs: candidates[:i+1],
				Total:  total,
				Change: total - target,
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, total, target)
}

// SelectCoinsWithFee selects for amount plus a fee estimated at feeRate.
// The fee is recomputed as every input is added, so the target grows with
// the selection. outputs is the output count the fee is estimated for.
func SelectCoinsWithFee(utxos []UTXO, amount, feeRate uint64, outputs int, minConf int64) (*CoinSelection, error) {
	if amount == 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	candidates := Eligible(utxos, minConf)
	if len(candidates) == 0 {
		return nil, ErrNoUTXOs
	}

	var total, fee uint64
	for i, u := range candidates {
		if u.Value > math.MaxUint64-total {
			return nil, fmt.Errorf("%w: input total", ErrValueOverflow)
		}
		total += u.Value
		fee = EstimateFee(i+1, outputs, feeRate)
		if fee > math.MaxUint64-amount {
			return nil, fmt.Errorf("%w: amount plus fee", ErrValueOverflow)
		}
		if total >= amount+fee {
			return &CoinSelection{
				Inputs: candidates[:i+1],
				Total:  total,
				Fee:    fee,
				Change: total - amount - fee,
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, total, amount+fee)
}

// TotalValue sums the values of utxos.
func TotalValue(utxos []UTXO) uint64 {
	var total uint64
	for _, u := range utxos {
		total += u.Value
	}
	return total
}
