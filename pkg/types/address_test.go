package types

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"
)

func generatorHash(t *testing.T) [AddressSize]byte {
	t.Helper()
	b, err := hex.DecodeString("751e76e8199196d454941c45d1b3a323f1433bd6")
	if err != nil {
		t.Fatalf("bad hex: %v", err)
	}
	var h [AddressSize]byte
	copy(h[:], b)
	return h
}

func TestAddress_String(t *testing.T) {
	h := generatorHash(t)

	tests := []struct {
		name   string
		prefix Prefix
		want   string
	}{
		{"t1 prefix", Prefix{0x1c, 0xb8}, "t1UYsZVJkLPeMjxEtACvSxfWuNmddpWfxzs"},
		{"s1 prefix", Prefix{0x1c, 0x28}, "s1Xt1mrPG6QvByYAQdnxZ8cKck8XoTt3xBY"},
		{"L1 prefix", Prefix{0x0a, 0xb3}, "L1JRPTaJj5C4b9W5GFtRG2Gvo1n8EGatNiz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Address{Prefix: tt.prefix, Hash: h}
			if got := a.String(); got != tt.want {
				t.Errorf("String() = %s, want %s", got, tt.want)
			}

			back, err := ParseAddress(tt.want, tt.prefix)
			if err != nil {
				t.Fatalf("ParseAddress() error: %v", err)
			}
			if back != a {
				t.Errorf("ParseAddress() = %+v, want %+v", back, a)
			}
		})
	}
}

func TestNewAddress(t *testing.T) {
	pub, _ := hex.DecodeString("0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	a := NewAddress(Prefix{0x1c, 0xb8}, pub)
	if a.Hash != generatorHash(t) {
		t.Errorf("hash = %x", a.Hash)
	}
	if a.IsZero() {
		t.Error("address should not be zero")
	}
}

func TestParseAddress_Errors(t *testing.T) {
	t1 := Prefix{0x1c, 0xb8}

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty", "", nil},
		{"wrong length", "t1abc", nil},
		{"bad checksum", "t1UYsZVJkLPeMjxEtACvSxfWuNmddpWfxzt", ErrAddressChecksum},
		{"wrong prefix", "s1Xt1mrPG6QvByYAQdnxZ8cKck8XoTt3xBY", ErrAddressPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAddress(tt.input, t1)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParsePrefix(t *testing.T) {
	p, err := ParsePrefix("1cb8")
	if err != nil {
		t.Fatalf("ParsePrefix() error: %v", err)
	}
	if p != (Prefix{0x1c, 0xb8}) {
		t.Errorf("ParsePrefix() = %v", p)
	}
	if p.String() != "1cb8" {
		t.Errorf("String() = %s", p.String())
	}

	for _, bad := range []string{"", "1c", "1cb8aa", "zz11"} {
		if _, err := ParsePrefix(bad); err == nil {
			t.Errorf("ParsePrefix(%q) should fail", bad)
		}
	}
}

func TestAddress_MarshalJSON(t *testing.T) {
	a := Address{Prefix: Prefix{0x1c, 0xb8}, Hash: generatorHash(t)}
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if string(b) != `"t1UYsZVJkLPeMjxEtACvSxfWuNmddpWfxzs"` {
		t.Errorf("Marshal() = %s", b)
	}
}
