package wallet

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"1", Coin, false},
		{"0.00001", 1000, false},
		{"0.00000001", 1, false},
		{"1.50000000", 150_000_000, false},
		{"21000000", 21_000_000 * Coin, false},
		{"0", 0, true},
		{"-1", 0, true},
		{"", 0, true},
		{"abc", 0, true},
		{"0.000000001", 0, true},
		{"1e30", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAmount(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseAmount(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestToUnits(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0.5", 50_000_000},
		{"-0.00012", -12_000},
		{"12.345678901", 1_234_567_890},
	}
	for _, tt := range tests {
		if got := ToUnits(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("ToUnits(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(150_000_000); got != "1.50000000" {
		t.Errorf("FormatAmount = %s, want 1.50000000", got)
	}
	if got := FormatAmount(1); got != "0.00000001" {
		t.Errorf("FormatAmount = %s, want 0.00000001", got)
	}
	if !FromUnits(12_000).Equal(decimal.RequireFromString("0.00012")) {
		t.Error("FromUnits(12000) != 0.00012")
	}
}

func TestFormatBalance(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00000000"},
		{"1.5", "1.50000000"},
		{"1234.12345678", "1234.12345678"},
		{"12345.12345678", "12345.1234567"},
		{"1234567.1", "1234567.10000"},
	}
	for _, tt := range tests {
		if got := FormatBalance(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatBalance(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestBalance_Spendable(t *testing.T) {
	tests := []struct {
		name string
		bal  Balance
		want uint64
	}{
		{"incoming unconfirmed ignored", Balance{Confirmed: 10 * Coin, Unconfirmed: 2 * Coin}, 10 * Coin},
		{"outgoing unconfirmed subtracted", Balance{Confirmed: 10 * Coin, Unconfirmed: -3 * Coin}, 7 * Coin},
		{"never negative", Balance{Confirmed: 2 * Coin, Unconfirmed: -5 * Coin}, 0},
		{"empty", Balance{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bal.Spendable(); got != tt.want {
				t.Errorf("Spendable() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEstimateFee(t *testing.T) {
	if got := EstimateSize(1, 2); got != 226 {
		t.Errorf("EstimateSize(1,2) = %d, want 226", got)
	}
	if got := EstimateFee(3, 1, 10); got != (10+148*3+34)*10 {
		t.Errorf("EstimateFee(3,1,10) = %d", got)
	}
}
