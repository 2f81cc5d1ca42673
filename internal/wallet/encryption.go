package wallet

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Encryption constants.
const (
	// SaltSize is the salt length of the self-describing Encrypt format.
	SaltSize = 32
	// KeySaltSize is the salt length stored in a vault's meta table.
	KeySaltSize = 16
	// KeySize is the length of a derived symmetric key.
	KeySize = chacha20poly1305.KeySize
	// Encrypted format: [salt(32)][memory(4)][iterations(4)][parallelism(1)][nonce(24)][ciphertext...]
	headerSize = SaltSize + 4 + 4 + 1
)

// ErrAuthentication is returned for every decryption failure: wrong key,
// tampered ciphertext, or truncated input.
var ErrAuthentication = errors.New("authentication failed")

// EncryptionParams holds Argon2id parameters.
type EncryptionParams struct {
	Memory      uint32 // in KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams returns recommended Argon2id parameters.
func DefaultParams() EncryptionParams {
	return EncryptionParams{
		Memory:      64 * 1024, // 64 MB
		Iterations:  3,
		Parallelism: 4,
	}
}

// Validate rejects parameters argon2 cannot use.
func (p EncryptionParams) Validate() error {
	if p.Iterations == 0 {
		return fmt.Errorf("kdf iterations must be > 0")
	}
	if p.Parallelism == 0 {
		return fmt.Errorf("kdf parallelism must be > 0")
	}
	if p.Memory < 8*uint32(p.Parallelism) {
		return fmt.Errorf("kdf memory must be at least %d KiB", 8*uint32(p.Parallelism))
	}
	return nil
}

// Key is a derived symmetric key. Call Zero when the session ends.
type Key struct {
	b []byte
}

// Zero wipes the key material. The key is unusable afterwards.
func (k *Key) Zero() {
	if k == nil {
		return
	}
	zero(k.b)
	k.b = nil
}

// Bytes returns the raw key. The slice aliases the key's memory.
func (k *Key) Bytes() []byte {
	return k.b
}

// NewSalt returns a fresh random salt for DeriveKey.
func NewSalt() ([]byte, error) {
	salt := make([]byte, KeySaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey derives a key from password and salt with Argon2id.
// The same inputs always produce the same key.
func DeriveKey(password, salt []byte, params EncryptionParams) *Key {
	return &Key{b: deriveKey(password, salt, params)}
}

// deriveKey uses Argon2id to derive a 32-byte encryption key from password and salt.
func deriveKey(password, salt []byte, params EncryptionParams) []byte {
	return argon2.IDKey(
		password,
		salt,
		params.Iterations,
		params.Memory,
		params.Parallelism,
		chacha20poly1305.KeySize,
	)
}

// Seal encrypts plaintext under key with XChaCha20-Poly1305.
//
// Output format: nonce(24) | ciphertext | tag(16)
func Seal(key *Key, plaintext []byte) ([]byte, error) {
	if key == nil || len(key.b) != KeySize {
		return nil, fmt.Errorf("seal: invalid key")
	}
	aead, err := chacha20poly1305.NewX(key.b)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts data produced by Seal. Any failure wraps ErrAuthentication.
func Open(key *Key, sealed []byte) ([]byte, error) {
	if key == nil || len(key.b) != KeySize {
		return nil, fmt.Errorf("open: invalid key: %w", ErrAuthentication)
	}
	if len(sealed) < chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return nil, fmt.Errorf("ciphertext too short: %w", ErrAuthentication)
	}
	aead, err := chacha20poly1305.NewX(key.b)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	nonce, ciphertext := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}

// Encrypt encrypts data with password using Argon2id + XChaCha20-Poly1305.
// The salt and KDF parameters travel with the ciphertext.
//
// Output format: salt(32) | memory(4) | iterations(4) | parallelism(1) | nonce(24) | ciphertext
func Encrypt(data, password []byte, params EncryptionParams) ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	key := DeriveKey(password, salt, params)
	defer key.Zero()

	sealed, err := Seal(key, data)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, headerSize+len(sealed))
	out = append(out, salt...)
	out = binary.LittleEndian.AppendUint32(out, params.Memory)
	out = binary.LittleEndian.AppendUint32(out, params.Iterations)
	out = append(out, params.Parallelism)
	out = append(out, sealed...)
	return out, nil
}

// Decrypt decrypts data encrypted by Encrypt with the given password.
func Decrypt(encrypted, password []byte) ([]byte, error) {
	minSize := headerSize + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
	if len(encrypted) < minSize {
		return nil, fmt.Errorf("encrypted data too short: %d bytes, need at least %d: %w", len(encrypted), minSize, ErrAuthentication)
	}

	params := EncryptionParams{
		Memory:      binary.LittleEndian.Uint32(encrypted[SaltSize:]),
		Iterations:  binary.LittleEndian.Uint32(encrypted[SaltSize+4:]),
		Parallelism: encrypted[SaltSize+8],
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("decrypt: %v: %w", err, ErrAuthentication)
	}

	key := DeriveKey(password, encrypted[:SaltSize], params)
	defer key.Zero()

	plaintext, err := Open(key, encrypted[headerSize:])
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
