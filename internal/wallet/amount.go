package wallet

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Amount constants. One coin is 10^8 smallest units.
const (
	Decimals = 8
	Coin     = 100_000_000
)

var maxUnits = decimal.NewFromInt(math.MaxInt64)

// ParseAmount converts a positive decimal coin string ("1.5") to units.
func ParseAmount(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if d.Sign() <= 0 {
		return 0, fmt.Errorf("amount must be greater than zero")
	}
	if !d.Equal(d.Truncate(Decimals)) {
		return 0, fmt.Errorf("too many decimal places (max %d)", Decimals)
	}
	units := d.Shift(Decimals)
	if units.GreaterThan(maxUnits) {
		return 0, fmt.Errorf("amount too large")
	}
	return uint64(units.IntPart()), nil
}

// ToUnits converts a decimal coin value to units, rounding half away
// from zero at the eighth decimal.
func ToUnits(d decimal.Decimal) int64 {
	return d.Shift(Decimals).Round(0).IntPart()
}

// FromUnits converts units to a decimal coin value.
func FromUnits(units int64) decimal.Decimal {
	return decimal.New(units, -Decimals)
}

// FormatAmount renders units with exactly eight decimals.
func FormatAmount(units int64) string {
	return FromUnits(units).StringFixed(Decimals)
}

// FormatBalance renders a coin value for display: eight decimals, with
// one decimal dropped for every integer digit beyond four so large
// balances keep a fixed width.
func FormatBalance(d decimal.Decimal) string {
	s := d.StringFixed(Decimals)
	dot := len(s) - Decimals - 1
	if extra := dot - 4; extra > 0 {
		return s[:len(s)-extra]
	}
	return s
}
