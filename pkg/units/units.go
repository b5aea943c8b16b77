// Package units converts between base units (18 fractional digits) and
// human-readable decimal strings.
package units

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals is the fixed-point precision of balances and rates.
const Decimals = 18

// One is 10^18, the base-unit representation of 1.0.
var One = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

// Format renders a base-unit amount as a decimal string ("12000.5").
func Format(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -Decimals).String()
}

// ParseBase parses a non-negative base-unit integer string.
func ParseBase(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", s)
	}
	return v, nil
}

// ParseDecimal parses a human decimal ("120.5") into base units. Digits
// beyond 18 fractional places are rejected rather than rounded.
func ParseDecimal(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount %q", s)
	}
	scaled := d.Shift(Decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("more than %d fractional digits in %q", Decimals, s)
	}
	return scaled.BigInt(), nil
}

// FromWhole returns n * 10^18.
func FromWhole(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), One)
}
