package spend

import (
	"errors"

	"github.com/insightwallet/insightwallet/internal/wallet"
)

var (
	// ErrValidation is bad user input: empty destination, unparsable or
	// non-positive amount or fee.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidDestination is a destination the explorer does not know.
	ErrInvalidDestination = errors.New("invalid destination address")
	// ErrNoFunds means the explorer lists no UTXOs for the address.
	ErrNoFunds = errors.New("no funds available")
	// ErrInsufficientFunds means the eligible UTXOs do not cover amount
	// plus fee.
	ErrInsufficientFunds = wallet.ErrInsufficientFunds
	// ErrUnavailable means the explorer returned no data.
	ErrUnavailable = errors.New("chain data unavailable")
)

// BuildError is a signing failure. Message is the signer's output verbatim.
type BuildError struct {
	Message string
	Err     error
}

func (e *BuildError) Error() string {
	return "Failed to build transaction: " + e.Message
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// BroadcastError is a rejected or failed broadcast. Message is the node's
// reply verbatim.
type BroadcastError struct {
	Message string
}

func (e *BroadcastError) Error() string {
	return "Broadcast failed: " + e.Message
}
