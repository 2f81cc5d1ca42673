package insight

import (
	"github.com/shopspring/decimal"

	"github.com/insightwallet/insightwallet/internal/wallet"
)

// AddressInfo is the balance summary of an address.
type AddressInfo struct {
	Address            string          `json:"addrStr"`
	Balance            decimal.Decimal `json:"balance"`
	UnconfirmedBalance decimal.Decimal `json:"unconfirmedBalance"`
	TxApperances       int64           `json:"txApperances"`
}

// WalletBalance converts to integer units.
func (a *AddressInfo) WalletBalance() *wallet.Balance {
	return &wallet.Balance{
		Confirmed:   wallet.ToUnits(a.Balance),
		Unconfirmed: wallet.ToUnits(a.UnconfirmedBalance),
	}
}

// UTXO is an unspent output as listed by the explorer. Amount is in coins;
// Satoshis, when the explorer sends it, is authoritative.
type UTXO struct {
	TxID          string          `json:"txid"`
	Vout          uint32          `json:"vout"`
	Amount        decimal.Decimal `json:"amount"`
	Satoshis      int64           `json:"satoshis"`
	Confirmations int64           `json:"confirmations"`
	Height        int64           `json:"height"`
	ScriptPubKey  string          `json:"scriptPubKey"`
}

// Units returns the output value in smallest units.
func (u UTXO) Units() uint64 {
	if u.Satoshis > 0 {
		return uint64(u.Satoshis)
	}
	if n := wallet.ToUnits(u.Amount); n > 0 {
		return uint64(n)
	}
	return 0
}

// WalletUTXOs converts explorer UTXOs for coin selection.
func WalletUTXOs(utxos []UTXO) []wallet.UTXO {
	out := make([]wallet.UTXO, 0, len(utxos))
	for _, u := range utxos {
		out = append(out, wallet.UTXO{
			TxID:          u.TxID,
			Vout:          u.Vout,
			Value:         u.Units(),
			Confirmations: u.Confirmations,
			ScriptPubKey:  u.ScriptPubKey,
		})
	}
	return out
}

// Tx is a transaction as returned by the address transaction list.
type Tx struct {
	TxID          string `json:"txid"`
	Vin           []Vin  `json:"vin"`
	Vout          []Vout `json:"vout"`
	Time          int64  `json:"time"`
	BlockTime     int64  `json:"blocktime"`
	BlockHeight   int64  `json:"blockheight"`
	Confirmations int64  `json:"confirmations"`
}

// Vin is a transaction input. Insight names the spending address in
// Addr; blockbook lists Addresses.
type Vin struct {
	Addr      string          `json:"addr"`
	Addresses []string        `json:"addresses"`
	Value     decimal.Decimal `json:"value"`
}

// Pays reports whether the input spends from address.
func (v Vin) Pays(address string) bool {
	return v.Addr == address || contains(v.Addresses, address)
}

// Vout is a transaction output.
type Vout struct {
	Value        decimal.Decimal `json:"value"`
	N            uint32          `json:"n"`
	ScriptPubKey ScriptPubKey    `json:"scriptPubKey"`
	Addresses    []string        `json:"addresses"`
}

// ScriptPubKey is the decoded output script.
type ScriptPubKey struct {
	Hex       string   `json:"hex"`
	Addresses []string `json:"addresses"`
}

// PaysTo reports whether the output pays address.
func (v Vout) PaysTo(address string) bool {
	return contains(v.ScriptPubKey.Addresses, address) || contains(v.Addresses, address)
}

type txList struct {
	Txs          []Tx `json:"txs"`
	Transactions []Tx `json:"transactions"`
}

type status struct {
	Info *struct {
		Blocks *int64 `json:"blocks"`
	} `json:"info"`
	Backend *struct {
		Blocks *int64 `json:"blocks"`
	} `json:"backend"`
	Blockbook *struct {
		BestHeight *int64 `json:"bestHeight"`
	} `json:"blockbook"`
}

// height returns the first height present: info.blocks, then
// backend.blocks, then blockbook.bestHeight.
func (s *status) height() int64 {
	switch {
	case s.Info != nil && s.Info.Blocks != nil:
		return *s.Info.Blocks
	case s.Backend != nil && s.Backend.Blocks != nil:
		return *s.Backend.Blocks
	case s.Blockbook != nil && s.Blockbook.BestHeight != nil:
		return *s.Blockbook.BestHeight
	}
	return 0
}

// BroadcastResult is the outcome of a broadcast. Message carries the node's
// reply verbatim when OK is false.
type BroadcastResult struct {
	OK      bool
	TxID    string
	Message string
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
