// Package signer drives the external transaction signing tool.
package signer

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrToolMissing is returned when the tool executable does not exist.
	ErrToolMissing = errors.New("signing tool not found")
	// ErrChecksum is returned when the tool does not match its pinned digest.
	ErrChecksum = errors.New("signing tool checksum mismatch")
	// ErrUnsupportedPlatform is returned for an OS with no pinned tool.
	ErrUnsupportedPlatform = errors.New("no signing tool for this platform")
	// ErrEmptyOutput is returned when the tool exits 0 without output.
	ErrEmptyOutput = errors.New("signing tool produced no output")
)

// Signer builds signed transactions and derives addresses from keys.
type Signer interface {
	Sign(ctx context.Context, req SignRequest) (string, error)
	AddressFromWIF(ctx context.Context, network, wif string) (string, error)
}

// Input is one UTXO handed to the tool.
type Input struct {
	TxID         string `json:"txid"`
	Vout         uint32 `json:"vout"`
	Satoshis     uint64 `json:"satoshis"`
	ScriptPubKey string `json:"scriptPubKey"`
}

// SignRequest describes a spend. Amount and Fee are in smallest units.
type SignRequest struct {
	Network     string
	WIF         string
	Destination string
	Amount      uint64
	Fee         uint64
	UTXOs       []Input
	BlockHeight int64
}

// Validate checks the fields the tool requires.
func (r *SignRequest) Validate() error {
	switch {
	case r.Network == "":
		return fmt.Errorf("sign request: network is empty")
	case r.WIF == "":
		return fmt.Errorf("sign request: wif is empty")
	case r.Destination == "":
		return fmt.Errorf("sign request: destination is empty")
	case r.Amount == 0:
		return fmt.Errorf("sign request: amount is zero")
	case len(r.UTXOs) == 0:
		return fmt.Errorf("sign request: no inputs")
	}
	return nil
}

// ToolError is a non-zero exit of the tool. Stderr is kept verbatim.
type ToolError struct {
	ExitCode int
	Stderr   string
}

func (e *ToolError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("signing tool exited with code %d", e.ExitCode)
	}
	return e.Stderr
}

// GeneratedKey is the output of the tool's address generation mode.
type GeneratedKey struct {
	Network    string `json:"network"`
	Address    string `json:"address"`
	WIF        string `json:"wif"`
	PublicKey  string `json:"publicKey"`
	Compressed bool   `json:"compressed"`
}
