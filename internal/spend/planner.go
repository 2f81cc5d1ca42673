// Package spend plans, signs and broadcasts outgoing transactions.
package spend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/insightwallet/insightwallet/config"
	"github.com/insightwallet/insightwallet/internal/insight"
	"github.com/insightwallet/insightwallet/internal/log"
	"github.com/insightwallet/insightwallet/internal/reconcile"
	"github.com/insightwallet/insightwallet/internal/signer"
	"github.com/insightwallet/insightwallet/internal/vault"
	"github.com/insightwallet/insightwallet/internal/wallet"
)

// minRawTxLen is the shortest hex string accepted as a signed transaction.
const minRawTxLen = 20

// Chain is the explorer surface the planner needs.
type Chain interface {
	AddressInfo(ctx context.Context, address string) (*insight.AddressInfo, error)
	UTXOs(ctx context.Context, address string) ([]insight.UTXO, error)
	BlockHeight(ctx context.Context) (int64, error)
	Broadcast(ctx context.Context, rawHex string) (insight.BroadcastResult, error)
}

// Keys reads the account's coin entry. *vault.Session implements it.
type Keys interface {
	CoinAddress(coin string) (string, error)
	CoinWIF(coin string) (string, error)
}

// Planner spends from one coin of an unlocked account. Send and Redeem
// are serialized per planner so two spends never select the same UTXOs.
type Planner struct {
	Coin       *config.Coin
	Chain      Chain
	Signer     signer.Signer
	Keys       Keys
	Reconciler *reconcile.Reconciler
	History    *reconcile.History

	mu sync.Mutex
}

// SendRequest is user input for a send; Amount and Fee are in coins.
// An empty Fee uses the coin's default flat fee.
type SendRequest struct {
	Destination string
	Amount      string
	Fee         string
}

// SendResult describes a broadcast spend.
type SendResult struct {
	TxID    string
	RawTx   string
	Amount  uint64
	Fee     uint64
	Inputs  []wallet.UTXO
	Total   uint64
	Change  uint64
	Records []vault.Record
}

// RedeemRequest sweeps a foreign key. An empty SourceAddress is derived
// from SourceWIF through the signer.
type RedeemRequest struct {
	SourceWIF     string
	SourceAddress string
}

// Address returns the account's address for the coin.
func (p *Planner) Address() (string, error) {
	return p.Keys.CoinAddress(p.Coin.Symbol)
}

// Balance fetches the balance of address.
func (p *Planner) Balance(ctx context.Context, address string) (*wallet.Balance, error) {
	info, err := p.Chain.AddressInfo(ctx, address)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, ErrUnavailable
	}
	return info.WalletBalance(), nil
}

// Spendable is Balance(...).Spendable().
func (p *Planner) Spendable(ctx context.Context, address string) (uint64, error) {
	bal, err := p.Balance(ctx, address)
	if err != nil {
		return 0, err
	}
	return bal.Spendable(), nil
}

func (p *Planner) walletUTXOs(ctx context.Context, address string) ([]wallet.UTXO, error) {
	utxos, err := p.Chain.UTXOs(ctx, address)
	if err != nil {
		return nil, err
	}
	return insight.WalletUTXOs(utxos), nil
}

// MaxAmount is the spendable balance less the fee of spending every UTXO
// with non-negative confirmations to a single output.
func (p *Planner) MaxAmount(ctx context.Context, address string, feeRate uint64) (uint64, error) {
	spendable, err := p.Spendable(ctx, address)
	if err != nil {
		return 0, err
	}
	utxos, err := p.walletUTXOs(ctx, address)
	if err != nil {
		return 0, err
	}
	n := len(wallet.Eligible(utxos, wallet.MinConfEstimate))
	if n == 0 {
		return 0, nil
	}
	fee := wallet.EstimateFee(n, 1, feeRate)
	if spendable <= fee {
		return 0, nil
	}
	return spendable - fee, nil
}

// SuggestFee estimates the fee of sending amount at feeRate, with change.
// Unconfirmed UTXOs count here, unlike in Send.
func (p *Planner) SuggestFee(ctx context.Context, address string, amount, feeRate uint64) (uint64, error) {
	utxos, err := p.walletUTXOs(ctx, address)
	if err != nil {
		return 0, err
	}
	sel, err := wallet.SelectCoinsWithFee(utxos, amount, feeRate, 2, wallet.MinConfEstimate)
	if err != nil {
		return 0, err
	}
	return sel.Fee, nil
}

// Send validates, selects, signs and broadcasts. Checks run in a fixed
// order and the first failure is returned:
//
//  1. empty destination: ErrValidation
//  2. amount or fee not a positive coin amount: ErrValidation
//  3. destination unknown to the explorer: ErrInvalidDestination
//  4. no UTXOs for our address: ErrNoFunds
//  5. confirmed UTXOs short of amount+fee: ErrInsufficientFunds
//  6. signer failure: *BuildError
//  7. broadcast failure: *BroadcastError
//
// On success the history is reconciled from the chain.
func (p *Planner) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	dest := strings.TrimSpace(req.Destination)
	if dest == "" {
		return nil, fmt.Errorf("%w: destination is empty", ErrValidation)
	}

	amount, err := wallet.ParseAmount(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: amount: %v", ErrValidation, err)
	}
	fee := p.Coin.DefaultFee
	if strings.TrimSpace(req.Fee) != "" {
		if fee, err = wallet.ParseAmount(req.Fee); err != nil {
			return nil, fmt.Errorf("%w: fee: %v", ErrValidation, err)
		}
	}
	if fee == 0 {
		return nil, fmt.Errorf("%w: fee must be greater than zero", ErrValidation)
	}

	info, err := p.Chain.AddressInfo(ctx, dest)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDestination, dest, err)
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDestination, dest)
	}

	from, err := p.Address()
	if err != nil {
		return nil, err
	}
	utxos, err := p.walletUTXOs(ctx, from)
	if err != nil || len(utxos) == 0 {
		return nil, ErrNoFunds
	}

	if amount > math.MaxUint64-fee {
		return nil, fmt.Errorf("%w: amount plus fee overflows", ErrValidation)
	}
	sel, err := wallet.SelectCoins(utxos, amount+fee)
	if err != nil {
		if errors.Is(err, wallet.ErrNoUTXOs) {
			err = fmt.Errorf("%w: no confirmed outputs", ErrInsufficientFunds)
		}
		return nil, fmt.Errorf("not enough %s for amount + fee: %w", p.Coin.Symbol, err)
	}
	sel.Fee = fee

	wif, err := p.Keys.CoinWIF(p.Coin.Symbol)
	if err != nil {
		return nil, err
	}
	raw, err := p.build(ctx, wif, dest, amount, fee, sel.Inputs)
	if err != nil {
		return nil, err
	}

	txid, err := p.broadcast(ctx, raw)
	if err != nil {
		return nil, err
	}
	log.Spend.Info().Str("coin", p.Coin.Symbol).Str("txid", txid).
		Str("amount", wallet.FormatAmount(int64(amount))).Int("inputs", len(sel.Inputs)).Msg("Transaction broadcast")

	return &SendResult{
		TxID:    txid,
		RawTx:   raw,
		Amount:  amount,
		Fee:     fee,
		Inputs:  sel.Inputs,
		Total:   sel.Total,
		Change:  sel.Change,
		Records: p.refresh(ctx, from),
	}, nil
}

// Redeem sweeps every confirmed UTXO of a foreign key into our address,
// paying the coin's flat redeem fee.
func (p *Planner) Redeem(ctx context.Context, req RedeemRequest) (*SendResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	wif := strings.TrimSpace(req.SourceWIF)
	if wif == "" {
		return nil, fmt.Errorf("%w: source key is empty", ErrValidation)
	}
	source, err := p.sourceAddress(ctx, wif, strings.TrimSpace(req.SourceAddress))
	if err != nil {
		return nil, err
	}
	dest, err := p.Address()
	if err != nil {
		return nil, err
	}

	utxos, err := p.walletUTXOs(ctx, source)
	if err != nil || len(utxos) == 0 {
		return nil, ErrNoFunds
	}
	inputs := wallet.Eligible(utxos, wallet.MinConfSpend)
	total := wallet.TotalValue(inputs)
	fee := p.Coin.RedeemFee
	if total <= fee {
		return nil, fmt.Errorf("%w: sweepable %s does not cover fee %s", ErrInsufficientFunds,
			wallet.FormatAmount(int64(total)), wallet.FormatAmount(int64(fee)))
	}
	amount := total - fee

	raw, err := p.build(ctx, wif, dest, amount, fee, inputs)
	if err != nil {
		return nil, err
	}
	txid, err := p.broadcast(ctx, raw)
	if err != nil {
		return nil, err
	}
	log.Spend.Info().Str("coin", p.Coin.Symbol).Str("txid", txid).
		Str("amount", wallet.FormatAmount(int64(amount))).Msg("Sweep broadcast")

	return &SendResult{
		TxID:    txid,
		RawTx:   raw,
		Amount:  amount,
		Fee:     fee,
		Inputs:  inputs,
		Total:   total,
		Records: p.refresh(ctx, dest),
	}, nil
}

// sourceAddress resolves the address of a foreign WIF through the signer
// and cross-checks it against local derivation.
func (p *Planner) sourceAddress(ctx context.Context, wif, given string) (string, error) {
	derived, err := p.Signer.AddressFromWIF(ctx, p.Coin.Network, wif)
	if err != nil {
		return "", &BuildError{Message: err.Error(), Err: err}
	}
	if params, perr := p.Coin.KeyParams(); perr == nil {
		local, lerr := wallet.AddressFromWIF(wif, params)
		if lerr != nil {
			return "", fmt.Errorf("%w: %v", ErrValidation, lerr)
		}
		if local.String() != derived {
			return "", fmt.Errorf("%w: signer derived %s, expected %s", ErrValidation, derived, local)
		}
	}
	if given != "" && given != derived {
		return "", fmt.Errorf("%w: key does not belong to %s", ErrValidation, given)
	}
	return derived, nil
}

func (p *Planner) build(ctx context.Context, wif, dest string, amount, fee uint64, inputs []wallet.UTXO) (string, error) {
	height, err := p.Chain.BlockHeight(ctx)
	if err != nil {
		log.Spend.Debug().Err(err).Msg("Block height unavailable, signing with 0")
	}

	req := signer.SignRequest{
		Network:     p.Coin.Network,
		WIF:         wif,
		Destination: dest,
		Amount:      amount,
		Fee:         fee,
		BlockHeight: height,
	}
	for _, u := range inputs {
		req.UTXOs = append(req.UTXOs, signer.Input{
			TxID:         u.TxID,
			Vout:         u.Vout,
			Satoshis:     u.Value,
			ScriptPubKey: u.ScriptPubKey,
		})
	}

	raw, err := p.Signer.Sign(ctx, req)
	if err != nil {
		return "", &BuildError{Message: err.Error(), Err: err}
	}
	if err := CheckRawTx(raw); err != nil {
		return "", &BuildError{Message: err.Error(), Err: err}
	}
	return raw, nil
}

func (p *Planner) broadcast(ctx context.Context, raw string) (string, error) {
	res, err := p.Chain.Broadcast(ctx, raw)
	if !res.OK {
		msg := res.Message
		if msg == "" && err != nil {
			msg = err.Error()
		}
		if msg == "" {
			msg = "Unknown error"
		}
		return "", &BroadcastError{Message: msg}
	}
	return res.TxID, nil
}

// refresh reconciles address after a broadcast. Failures are logged; the
// next poll picks the transaction up.
func (p *Planner) refresh(ctx context.Context, address string) []vault.Record {
	if p.Reconciler == nil {
		return nil
	}
	known := p.History
	if known == nil {
		var err error
		if known, err = p.Reconciler.LoadHistory(p.Coin.Symbol); err != nil {
			log.Spend.Warn().Err(err).Msg("Loading history failed")
			return nil
		}
	}
	recs, err := p.Reconciler.Reconcile(ctx, address, p.Coin.Symbol, known)
	if err != nil {
		log.Spend.Warn().Err(err).Msg("Post-broadcast reconcile failed")
	}
	return recs
}

// CheckRawTx is the local sanity check on signer output: non-empty, even
// length hex of at least 20 characters.
func CheckRawTx(raw string) error {
	if len(raw) < minRawTxLen {
		return fmt.Errorf("raw transaction too short (%d chars)", len(raw))
	}
	if len(raw)%2 != 0 {
		return fmt.Errorf("raw transaction has odd length")
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return fmt.Errorf("raw transaction is not hex")
		}
	}
	return nil
}
