package vault

import (
	"errors"
	"fmt"

	"github.com/insightwallet/insightwallet/internal/wallet"
)

var (
	// ErrAlreadyExists is returned by Create when the vault file is present.
	ErrAlreadyExists = errors.New("vault already exists")
	// ErrNotFound is returned when the account has no vault file.
	ErrNotFound = errors.New("vault not found")
	// ErrInvalidFormat is returned when the salt or verifier is missing or
	// the file is not a vault.
	ErrInvalidFormat = errors.New("invalid vault format")
	// ErrWrongPassword is returned when the verifier does not decrypt.
	ErrWrongPassword = fmt.Errorf("wrong password: %w", wallet.ErrAuthentication)
	// ErrCoinNotFound is returned when the account holds no entry for a coin.
	ErrCoinNotFound = errors.New("coin not in vault")

	ErrInvalidAccountName = errors.New("invalid account name")
	ErrWeakPassword       = errors.New("weak password")
	ErrAccountLimit       = errors.New("account limit reached")

	// ErrSessionClosed is returned by Session methods after Close.
	ErrSessionClosed = errors.New("session closed")
)
