package models

import (
	"fmt"
	"math/big"
	"strings"
)

// Decimals is the token's display scale: 1 VLC == 10^18 smallest units.
const Decimals = 18

var unitScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

// ToSmallestUnit converts a display-unit decimal string (e.g. "100" or
// "0.5") to smallest units. Fractions finer than 18 decimal places are
// rejected rather than truncated.
func ToSmallestUnit(display string) (*big.Int, error) {
	display = strings.TrimSpace(display)
	if display == "" {
		return nil, fmt.Errorf("empty amount")
	}

	r, ok := new(big.Rat).SetString(display)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", display)
	}

	r.Mul(r, new(big.Rat).SetInt(unitScale))
	if !r.IsInt() {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", display, Decimals)
	}

	return new(big.Int).Set(r.Num()), nil
}

// FromSmallestUnit renders smallest units as a display-unit decimal
// string with trailing zeros trimmed.
func FromSmallestUnit(v *big.Int) string {
	if v == nil {
		return "0"
	}

	sign := ""
	abs := new(big.Int).Abs(v)
	if v.Sign() < 0 {
		sign = "-"
	}

	whole, frac := new(big.Int).QuoRem(abs, unitScale, new(big.Int))
	if frac.Sign() == 0 {
		return sign + whole.String()
	}

	fracStr := frac.String()
	if pad := Decimals - len(fracStr); pad > 0 {
		fracStr = strings.Repeat("0", pad) + fracStr
	}
	return sign + whole.String() + "." + strings.TrimRight(fracStr, "0")
}
