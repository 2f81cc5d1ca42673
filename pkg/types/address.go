package types

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"

	"github.com/insightwallet/insightwallet/pkg/crypto"
)

// AddressSize is the length of a public key hash in bytes.
const AddressSize = crypto.Hash160Size

// PrefixSize is the length of the version prefix of a transparent address.
const PrefixSize = 2

// encodedSize is prefix + hash + checksum.
const encodedSize = PrefixSize + AddressSize + 4

var (
	ErrAddressChecksum = errors.New("address checksum mismatch")
	ErrAddressPrefix   = errors.New("address prefix mismatch")
)

// Prefix is the two-byte version prefix of a transparent P2PKH address.
type Prefix [PrefixSize]byte

// ParsePrefix parses a 4-character hex prefix such as "1cb8".
func ParsePrefix(s string) (Prefix, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Prefix{}, fmt.Errorf("invalid prefix %q: %w", s, err)
	}
	if len(b) != PrefixSize {
		return Prefix{}, fmt.Errorf("prefix must be %d bytes, got %d", PrefixSize, len(b))
	}
	return Prefix{b[0], b[1]}, nil
}

// String returns the prefix as lowercase hex.
func (p Prefix) String() string {
	return hex.EncodeToString(p[:])
}

// Address is a transparent pay-to-pubkey-hash address.
type Address struct {
	Prefix Prefix
	Hash   [AddressSize]byte
}

// NewAddress builds the address of a compressed public key.
func NewAddress(prefix Prefix, pubKey []byte) Address {
	return Address{Prefix: prefix, Hash: crypto.Hash160(pubKey)}
}

// IsZero returns true if the address hash is all zeros.
func (a Address) IsZero() bool {
	return a.Hash == [AddressSize]byte{}
}

// String returns the base58check encoding.
func (a Address) String() string {
	buf := make([]byte, 0, encodedSize)
	buf = append(buf, a.Prefix[:]...)
	buf = append(buf, a.Hash[:]...)
	sum := crypto.Checksum(buf)
	buf = append(buf, sum[:]...)
	return base58.Encode(buf)
}

// MarshalJSON encodes the address as its base58check string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// DecodeAddress decodes a base58check address without checking its prefix.
func DecodeAddress(s string) (Address, error) {
	if s == "" {
		return Address{}, fmt.Errorf("empty address")
	}
	raw := base58.Decode(s)
	if len(raw) != encodedSize {
		return Address{}, fmt.Errorf("address must decode to %d bytes, got %d", encodedSize, len(raw))
	}
	body := raw[:PrefixSize+AddressSize]
	sum := crypto.Checksum(body)
	if string(sum[:]) != string(raw[PrefixSize+AddressSize:]) {
		return Address{}, ErrAddressChecksum
	}
	var a Address
	copy(a.Prefix[:], body[:PrefixSize])
	copy(a.Hash[:], body[PrefixSize:])
	return a, nil
}

// ParseAddress decodes s and requires it to carry the given prefix.
func ParseAddress(s string, prefix Prefix) (Address, error) {
	a, err := DecodeAddress(s)
	if err != nil {
		return Address{}, err
	}
	if a.Prefix != prefix {
		return Address{}, fmt.Errorf("%w: got %s, want %s", ErrAddressPrefix, a.Prefix, prefix)
	}
	return a, nil
}
