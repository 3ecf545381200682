package codec

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// MaxScale is the largest fractional-digit count the engine's fixed-point
// decimal representation supports.
const MaxScale = 18

// Decimal range and syntax errors. The driver surface maps these onto its
// DataError class.
var (
	ErrDecimalRange  = errors.New("decimal unscaled value exceeds signed 64-bit range")
	ErrDecimalSyntax = errors.New("invalid decimal literal")
)

// Decimal is a fixed-point value: Unscaled scaled down by 10^Scale.
// Scale is always in [0, MaxScale].
type Decimal struct {
	Unscaled int64
	Scale    int
}

var maxInt64 = big.NewInt(1<<63 - 1)
var minInt64 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 63))

// NewDecimal builds a Decimal from an unscaled value and scale.
func NewDecimal(unscaled int64, scale int) (Decimal, error) {
	if scale < 0 || scale > MaxScale {
		return Decimal{}, fmt.Errorf("%w: scale %d out of range [0,%d]", ErrDecimalSyntax, scale, MaxScale)
	}
	return Decimal{Unscaled: unscaled, Scale: scale}, nil
}

// ParseDecimal parses a plain decimal literal ("-123.456"). The natural
// scale is the number of fractional digits; values with more than MaxScale
// fractional digits are quantized to MaxScale using round-half-even. An
// unscaled magnitude outside signed 64-bit range fails with ErrDecimalRange.
func ParseDecimal(s string) (Decimal, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return Decimal{}, fmt.Errorf("%w: empty string", ErrDecimalSyntax)
	}

	neg := false
	switch text[0] {
	case '+':
		text = text[1:]
	case '-':
		neg = true
		text = text[1:]
	}

	intPart, fracPart, hasFrac := strings.Cut(text, ".")
	if intPart == "" && fracPart == "" {
		return Decimal{}, fmt.Errorf("%w: %q", ErrDecimalSyntax, s)
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return Decimal{}, fmt.Errorf("%w: %q", ErrDecimalSyntax, s)
	}
	if hasFrac && fracPart == "" && intPart == "" {
		return Decimal{}, fmt.Errorf("%w: %q", ErrDecimalSyntax, s)
	}

	digits := intPart + fracPart
	scale := len(fracPart)

	unscaled, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		// digits is empty only for inputs like "." handled above.
		unscaled = big.NewInt(0)
	}
	if neg {
		unscaled.Neg(unscaled)
	}

	if scale > MaxScale {
		unscaled = quantizeHalfEven(unscaled, scale-MaxScale)
		scale = MaxScale
	}

	if unscaled.Cmp(maxInt64) > 0 || unscaled.Cmp(minInt64) < 0 {
		return Decimal{}, ErrDecimalRange
	}
	return Decimal{Unscaled: unscaled.Int64(), Scale: scale}, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// quantizeHalfEven divides v by 10^drop, rounding half to even. Operates on
// the magnitude so negative values round symmetrically.
func quantizeHalfEven(v *big.Int, drop int) *big.Int {
	neg := v.Sign() < 0
	abs := new(big.Int).Abs(v)

	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(drop)), nil)
	quo, rem := new(big.Int).QuoRem(abs, denom, new(big.Int))

	twice := new(big.Int).Lsh(rem, 1)
	switch twice.Cmp(denom) {
	case 1:
		quo.Add(quo, big.NewInt(1))
	case 0:
		if quo.Bit(0) == 1 {
			quo.Add(quo, big.NewInt(1))
		}
	}

	if neg {
		quo.Neg(quo)
	}
	return quo
}

// String renders the decimal in plain notation, e.g. {12345, 2} -> "123.45".
func (d Decimal) String() string {
	if d.Scale == 0 {
		return fmt.Sprintf("%d", d.Unscaled)
	}

	neg := d.Unscaled < 0
	// Format the magnitude via big.Int so MinInt64 cannot overflow on negate.
	abs := new(big.Int).Abs(big.NewInt(d.Unscaled)).String()
	if len(abs) <= d.Scale {
		abs = strings.Repeat("0", d.Scale-len(abs)+1) + abs
	}
	cut := len(abs) - d.Scale
	out := abs[:cut] + "." + abs[cut:]
	if neg {
		out = "-" + out
	}
	return out
}
