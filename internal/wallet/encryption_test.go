package wallet

import (
	"bytes"
	"errors"
	"testing"
)

// fastParams returns low-cost Argon2 params for fast tests.
func fastParams() EncryptionParams {
	return EncryptionParams{
		Memory:      64, // 64 KiB (minimal)
		Iterations:  1,
		Parallelism: 1,
	}
}

func testKey(t *testing.T, password string) *Key {
	t.Helper()
	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt() error: %v", err)
	}
	return DeriveKey([]byte(password), salt, fastParams())
}

func TestDeriveKey_Deterministic(t *testing.T) {
	salt := bytes.Repeat([]byte{7}, KeySaltSize)

	k1 := DeriveKey([]byte("Str0ng!Pass"), salt, fastParams())
	k2 := DeriveKey([]byte("Str0ng!Pass"), salt, fastParams())
	if !bytes.Equal(k1.Bytes(), k2.Bytes()) {
		t.Error("same password and salt should derive the same key")
	}
	if len(k1.Bytes()) != KeySize {
		t.Errorf("key length = %d, want %d", len(k1.Bytes()), KeySize)
	}

	k3 := DeriveKey([]byte("Str0ng!Pasz"), salt, fastParams())
	if bytes.Equal(k1.Bytes(), k3.Bytes()) {
		t.Error("different passwords should derive different keys")
	}

	other := bytes.Repeat([]byte{8}, KeySaltSize)
	k4 := DeriveKey([]byte("Str0ng!Pass"), other, fastParams())
	if bytes.Equal(k1.Bytes(), k4.Bytes()) {
		t.Error("different salts should derive different keys")
	}
}

func TestNewSalt(t *testing.T) {
	a, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt() error: %v", err)
	}
	b, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt() error: %v", err)
	}
	if len(a) != KeySaltSize {
		t.Errorf("salt length = %d, want %d", len(a), KeySaltSize)
	}
	if bytes.Equal(a, b) {
		t.Error("two salts should differ")
	}
}

func TestSealOpen_Roundtrip(t *testing.T) {
	key := testKey(t, "pass")

	tests := []struct {
		name string
		data []byte
	}{
		{"sentinel", []byte("vault-ok")},
		{"empty", []byte{}},
		{"wif", []byte("KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn")},
		{"large", bytes.Repeat([]byte{0xab}, 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := Seal(key, tt.data)
			if err != nil {
				t.Fatalf("Seal() error: %v", err)
			}
			if len(sealed) != 24+len(tt.data)+16 {
				t.Errorf("sealed length = %d, want %d", len(sealed), 24+len(tt.data)+16)
			}
			got, err := Open(key, sealed)
			if err != nil {
				t.Fatalf("Open() error: %v", err)
			}
			if !bytes.Equal(got, tt.data) {
				t.Errorf("Open() = %q, want %q", got, tt.data)
			}
		})
	}
}

func TestSeal_DifferentEachTime(t *testing.T) {
	key := testKey(t, "pass")
	a, _ := Seal(key, []byte("same"))
	b, _ := Seal(key, []byte("same"))
	if bytes.Equal(a, b) {
		t.Error("two seals of the same plaintext should differ")
	}
}

func TestOpen_Failures(t *testing.T) {
	key := testKey(t, "right")
	wrong := testKey(t, "wrong")

	sealed, err := Seal(key, []byte("vault-ok"))
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}
	flipped := append([]byte(nil), sealed...)
	flipped[len(flipped)-1] ^= 0x01
	nonceFlipped := append([]byte(nil), sealed...)
	nonceFlipped[0] ^= 0x80

	tests := []struct {
		name string
		key  *Key
		data []byte
	}{
		{"wrong key", wrong, sealed},
		{"tampered tag", key, flipped},
		{"tampered nonce", key, nonceFlipped},
		{"truncated", key, sealed[:20]},
		{"empty", key, nil},
		{"nil key", nil, sealed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.key, tt.data)
			if !errors.Is(err, ErrAuthentication) {
				t.Errorf("Open() error = %v, want ErrAuthentication", err)
			}
		})
	}
}

func TestKey_Zero(t *testing.T) {
	key := testKey(t, "pass")
	raw := key.Bytes()
	key.Zero()

	for i, b := range raw {
		if b != 0 {
			t.Fatalf("byte %d not zeroed", i)
		}
	}
	if _, err := Seal(key, []byte("x")); err == nil {
		t.Error("Seal() with a zeroed key should fail")
	}

	var nilKey *Key
	nilKey.Zero()
}

func TestEncryptDecrypt_Roundtrip(t *testing.T) {
	plaintext := []byte("secret wallet data")
	password := []byte("strong-password-123")

	encrypted, err := Encrypt(plaintext, password, fastParams())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	decrypted, err := Decrypt(encrypted, password)
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}

	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("decrypted = %q, want %q", decrypted, plaintext)
	}
}

func TestDecrypt_WrongPassword(t *testing.T) {
	encrypted, err := Encrypt([]byte("secret data"), []byte("correct"), fastParams())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	_, err = Decrypt(encrypted, []byte("wrong"))
	if !errors.Is(err, ErrAuthentication) {
		t.Errorf("Decrypt() error = %v, want ErrAuthentication", err)
	}
}

func TestDecrypt_TruncatedData(t *testing.T) {
	_, err := Decrypt([]byte("short"), []byte("pass"))
	if !errors.Is(err, ErrAuthentication) {
		t.Errorf("Decrypt() error = %v, want ErrAuthentication", err)
	}
}

func TestDecrypt_CorruptedHeader(t *testing.T) {
	encrypted, err := Encrypt([]byte("data"), []byte("pass"), fastParams())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	// Zero iterations in the header.
	for i := SaltSize + 4; i < SaltSize+8; i++ {
		encrypted[i] = 0
	}
	if _, err := Decrypt(encrypted, []byte("pass")); !errors.Is(err, ErrAuthentication) {
		t.Errorf("Decrypt() error = %v, want ErrAuthentication", err)
	}
}

func TestEncrypt_OutputFormat(t *testing.T) {
	plaintext := []byte("test")
	encrypted, err := Encrypt(plaintext, []byte("pass"), fastParams())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	want := headerSize + 24 + len(plaintext) + 16
	if len(encrypted) != want {
		t.Errorf("encrypted length = %d, want %d", len(encrypted), want)
	}
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if p.Memory != 64*1024 {
		t.Errorf("Memory = %d, want %d", p.Memory, 64*1024)
	}
	if p.Iterations != 3 {
		t.Errorf("Iterations = %d, want 3", p.Iterations)
	}
	if p.Parallelism != 4 {
		t.Errorf("Parallelism = %d, want 4", p.Parallelism)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestEncryptionParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		params EncryptionParams
	}{
		{"zero iterations", EncryptionParams{Memory: 64, Iterations: 0, Parallelism: 1}},
		{"zero parallelism", EncryptionParams{Memory: 64, Iterations: 1, Parallelism: 0}},
		{"memory too small", EncryptionParams{Memory: 8, Iterations: 1, Parallelism: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.params.Validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
