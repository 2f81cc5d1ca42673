package wallet

import (
	"fmt"

	"github.com/insightwallet/insightwallet/pkg/types"
)

// CoinParams carries the per-coin constants needed to derive keys and
// encode addresses.
type CoinParams struct {
	Symbol        string
	CoinType      uint32 // BIP-44 coin type, unhardened.
	AddressPrefix types.Prefix
	WIFPrefix     byte
}

// CoinKey is a freshly generated receiving key.
type CoinKey struct {
	Address string
	WIF     string
}

// GenerateKey creates a new key for a coin from fresh BIP-39 entropy.
// The key sits at m/44'/coinType'/0'/0/0 of a throwaway seed.
func GenerateKey(params CoinParams) (*CoinKey, error) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		return nil, err
	}
	return KeyFromMnemonic(mnemonic, params)
}

// KeyFromMnemonic derives the coin key of a BIP-39 mnemonic with an empty
// passphrase.
func KeyFromMnemonic(mnemonic string, params CoinParams) (*CoinKey, error) {
	seed, err := SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return nil, err
	}
	defer zero(seed)

	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	defer master.Zero()

	child, err := master.DeriveCoinKey(params.CoinType)
	if err != nil {
		return nil, fmt.Errorf("derive %s key: %w", params.Symbol, err)
	}
	defer child.Zero()

	priv, err := child.PrivateKey()
	if err != nil {
		return nil, err
	}
	defer priv.Zero()

	wif, err := EncodeWIF(priv, params)
	if err != nil {
		return nil, err
	}
	return &CoinKey{
		Address: child.Address(params.AddressPrefix).String(),
		WIF:     wif,
	}, nil
}
