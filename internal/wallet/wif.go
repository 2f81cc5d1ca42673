package wallet

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/insightwallet/insightwallet/pkg/crypto"
	"github.com/insightwallet/insightwallet/pkg/types"
)

// ErrWIFNetwork is returned when a WIF carries another coin's prefix.
var ErrWIFNetwork = errors.New("wif belongs to another network")

func wifNet(params CoinParams) *chaincfg.Params {
	return &chaincfg.Params{Name: params.Symbol, PrivateKeyID: params.WIFPrefix}
}

// EncodeWIF serializes a private key as a compressed WIF string.
func EncodeWIF(priv *crypto.PrivateKey, params CoinParams) (string, error) {
	w, err := btcutil.NewWIF(priv.Secp256k1(), wifNet(params), true)
	if err != nil {
		return "", fmt.Errorf("encode wif: %w", err)
	}
	return w.String(), nil
}

// DecodeWIF parses a WIF string and checks its network prefix.
func DecodeWIF(wif string, params CoinParams) (*btcutil.WIF, error) {
	w, err := btcutil.DecodeWIF(wif)
	if err != nil {
		return nil, fmt.Errorf("decode wif: %w", err)
	}
	if !w.IsForNet(wifNet(params)) {
		return nil, ErrWIFNetwork
	}
	return w, nil
}

// AddressFromWIF returns the P2PKH address controlled by a WIF key.
// Uncompressed WIFs map to the uncompressed-pubkey address.
func AddressFromWIF(wif string, params CoinParams) (types.Address, error) {
	w, err := DecodeWIF(wif, params)
	if err != nil {
		return types.Address{}, err
	}
	return types.NewAddress(params.AddressPrefix, w.SerializePubKey()), nil
}
