package pantrydb

import "github.com/mesh-intelligence/pantrydb/internal/codec"

// Decimal is the driver's fixed-point numeric type: Unscaled scaled down
// by 10^Scale. It binds to the engine's native decimal kind and comes back
// unchanged from decimal result columns.
type Decimal = codec.Decimal

// MaxDecimalScale is the largest supported fractional-digit count.
const MaxDecimalScale = codec.MaxScale

// ParseDecimal parses a plain decimal literal such as "-123.456". More
// than MaxDecimalScale fractional digits are quantized with
// round-half-even; magnitudes outside signed 64-bit unscaled range fail.
func ParseDecimal(s string) (Decimal, error) {
	d, err := codec.ParseDecimal(s)
	if err != nil {
		return Decimal{}, convertError(err)
	}
	return d, nil
}

// NewDecimal builds a Decimal from an unscaled value and a scale in
// [0, MaxDecimalScale].
func NewDecimal(unscaled int64, scale int) (Decimal, error) {
	d, err := codec.NewDecimal(unscaled, scale)
	if err != nil {
		return Decimal{}, convertError(err)
	}
	return d, nil
}
