// Package crypto provides the hashing and key primitives used by the wallet.
package crypto

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // required by the P2PKH address format
)

// Hash160Size is the length of a RIPEMD160(SHA256(x)) digest.
const Hash160Size = 20

// Hash160 computes RIPEMD160(SHA256(data)), the digest behind a
// transparent pay-to-pubkey-hash address.
func Hash160(data []byte) [Hash160Size]byte {
	sum := sha256.Sum256(data)
	r := ripemd160.New()
	r.Write(sum[:])
	var out [Hash160Size]byte
	copy(out[:], r.Sum(nil))
	return out
}

// DoubleSHA256 computes SHA256(SHA256(data)).
func DoubleSHA256(data []byte) []byte {
	return chainhash.DoubleHashB(data)
}

// Checksum returns the 4-byte base58check checksum of data.
func Checksum(data []byte) [4]byte {
	var c [4]byte
	copy(c[:], DoubleSHA256(data)[:4])
	return c
}

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) [32]byte {
	return blake3.Sum256(data)
}

// HashParts hashes the given parts, each prefixed by its length, so that
// ("ab","c") and ("a","bc") produce different digests.
func HashParts(parts ...string) [32]byte {
	h := blake3.New()
	var lenBuf [4]byte
	for _, p := range parts {
		n := len(p)
		lenBuf[0] = byte(n >> 24)
		lenBuf[1] = byte(n >> 16)
		lenBuf[2] = byte(n >> 8)
		lenBuf[3] = byte(n)
		h.Write(lenBuf[:])
		h.Write([]byte(p))
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
