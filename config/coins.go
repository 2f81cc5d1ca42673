package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/insightwallet/insightwallet/internal/wallet"
	"github.com/insightwallet/insightwallet/pkg/types"
)

// ErrUnknownCoin is returned for a symbol missing from the registry.
var ErrUnknownCoin = errors.New("unknown coin")

// Backend names the explorer API flavour of a coin.
type Backend string

const (
	BackendInsight   Backend = "insight"
	BackendBlockbook Backend = "blockbook"
)

// Coin describes one supported coin.
type Coin struct {
	Symbol        string  `json:"-"`
	Name          string  `json:"name"`
	Network       string  `json:"network"` // Signing tool network id.
	API           string  `json:"api"`     // Explorer API base URL.
	Backend       Backend `json:"backend"`
	CoinType      uint32  `json:"coin_type"`
	AddressPrefix string  `json:"address_prefix"` // Hex, two bytes.
	WIFPrefix     uint8   `json:"wif_prefix"`
	FeeRate       uint64  `json:"fee_rate"`    // Units per byte for fee suggestions.
	DefaultFee    uint64  `json:"default_fee"` // Flat fee offered when none is given.
	RedeemFee     uint64  `json:"redeem_fee"`  // Flat fee of a sweep.
}

// Prefix returns the parsed address prefix.
func (c *Coin) Prefix() (types.Prefix, error) {
	return types.ParsePrefix(c.AddressPrefix)
}

// KeyParams returns the key derivation parameters of the coin.
func (c *Coin) KeyParams() (wallet.CoinParams, error) {
	prefix, err := c.Prefix()
	if err != nil {
		return wallet.CoinParams{}, fmt.Errorf("coin %s: %w", c.Symbol, err)
	}
	return wallet.CoinParams{
		Symbol:        c.Symbol,
		CoinType:      c.CoinType,
		AddressPrefix: prefix,
		WIFPrefix:     c.WIFPrefix,
	}, nil
}

// Validate checks a coin entry for missing or malformed fields.
// The API URL is checked separately so the registry can be listed before
// any endpoint is configured.
func (c *Coin) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("coin symbol is empty")
	}
	if c.Network == "" {
		return fmt.Errorf("coin %s: network is empty", c.Symbol)
	}
	switch c.Backend {
	case BackendInsight, BackendBlockbook:
	default:
		return fmt.Errorf("coin %s: backend must be %q or %q", c.Symbol, BackendInsight, BackendBlockbook)
	}
	if _, err := c.Prefix(); err != nil {
		return fmt.Errorf("coin %s: %w", c.Symbol, err)
	}
	if c.RedeemFee == 0 {
		return fmt.Errorf("coin %s: redeem_fee must be > 0", c.Symbol)
	}
	return nil
}

// Registry maps upper-case coin symbols to their parameters.
type Registry map[string]*Coin

// Get looks a coin up by symbol, case-insensitively.
func (r Registry) Get(symbol string) (*Coin, error) {
	c, ok := r[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCoin, symbol)
	}
	return c, nil
}

// Symbols returns the registered symbols in sorted order.
func (r Registry) Symbols() []string {
	out := make([]string, 0, len(r))
	for s := range r {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func transparentCoin(symbol, name, network string, coinType uint32, prefix string) *Coin {
	return &Coin{
		Symbol:        symbol,
		Name:          name,
		Network:       network,
		Backend:       BackendInsight,
		CoinType:      coinType,
		AddressPrefix: prefix,
		WIFPrefix:     0x80,
		FeeRate:       5,
		DefaultFee:    1000,
		RedeemFee:     1000,
	}
}

// DefaultCoins returns the built-in coin table. Explorer URLs are not
// built in; they come from coins.json.
func DefaultCoins() Registry {
	coins := []*Coin{
		transparentCoin("BTCZ", "BitcoinZ", "bitcoinz", 177, "1cb8"),
		transparentCoin("LTZ", "LitecoinZ", "litecoinz", 221, "0ab3"),
		transparentCoin("ZCL", "Zclassic", "zclassic", 147, "1cb8"),
		transparentCoin("ZER", "Zero", "zero", 323, "1cb8"),
		transparentCoin("GLINK", "Gemlink", "gemlink", 410, "1cb8"),
		transparentCoin("YEC", "Ycash", "ycash", 347, "1c28"),
		transparentCoin("ZEC", "Zcash", "zcash", 133, "1cb8"),
	}
	r := make(Registry, len(coins))
	for _, c := range coins {
		if c.Symbol == "YEC" || c.Symbol == "ZEC" {
			c.Backend = BackendBlockbook
		}
		r[c.Symbol] = c
	}
	return r
}

// LoadCoins merges a coins.json file into reg. Each top-level key is a
// coin symbol; fields present override the built-in entry and unknown
// symbols add new coins. A missing file is not an error.
func LoadCoins(path string, reg Registry) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read coins file: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse coins file: %w", err)
	}
	for symbol, msg := range raw {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		c := &Coin{Symbol: symbol, Backend: BackendInsight, WIFPrefix: 0x80}
		if existing, ok := reg[symbol]; ok {
			cp := *existing
			c = &cp
		}
		if err := json.Unmarshal(msg, c); err != nil {
			return fmt.Errorf("coins file entry %s: %w", symbol, err)
		}
		c.Symbol = symbol
		c.API = strings.TrimRight(c.API, "/")
		if err := c.Validate(); err != nil {
			return err
		}
		reg[symbol] = c
	}
	return nil
}
