// Package codec converts driver parameter and result values to and from the
// native engine's tagged value records. It is the only place numeric,
// string, and decimal conversion rules live: the cursor binds whatever this
// package produces and decodes whatever the engine returns through it.
package codec

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/pantrydb/internal/native"
)

var (
	// ErrUnsupportedType reports a Go value with no engine representation.
	ErrUnsupportedType = errors.New("unsupported parameter type")
	// ErrValueRange reports a numeric value outside the engine's int64 range.
	ErrValueRange = errors.New("numeric value out of range")
	// ErrUnknownKind reports a result value kind this codec cannot decode.
	// Callers fall back to the per-column slow path rather than guessing.
	ErrUnknownKind = errors.New("unknown native value kind")
)

// Value is the closed tagged variant for one parameter:
// Null, Int64, Bool, Float64, Text, Blob, or Decimal. The zero value is Null.
type Value struct {
	kind  int32
	i     int64
	f     float64
	b     []byte
	scale int32
}

// Null returns the null Value.
func Null() Value { return Value{kind: native.KindNull} }

// Int64 wraps an integer.
func Int64(v int64) Value { return Value{kind: native.KindInt64, i: v} }

// Bool wraps a boolean. Bool is a distinct kind from Int64 so decoding is
// unambiguous.
func Bool(v bool) Value {
	var i int64
	if v {
		i = 1
	}
	return Value{kind: native.KindBool, i: i}
}

// Float64 wraps a float.
func Float64(v float64) Value { return Value{kind: native.KindFloat64, f: v} }

// Text wraps a string. The backing bytes are copied once here; the View
// exposes them as a borrowed buffer afterwards.
func Text(s string) Value { return Value{kind: native.KindText, b: []byte(s)} }

// Blob wraps raw bytes without copying. The caller must not mutate buf
// before the value is bound.
func Blob(buf []byte) Value { return Value{kind: native.KindBlob, b: buf} }

// Dec wraps a fixed-point decimal.
func Dec(d Decimal) Value {
	return Value{kind: native.KindDecimal, i: d.Unscaled, scale: int32(d.Scale)}
}

// Kind returns the native kind tag.
func (v Value) Kind() int32 { return v.kind }

// Int64Val returns the integer payload (Int64, Bool as 0/1, Decimal unscaled).
func (v Value) Int64Val() int64 { return v.i }

// Float64Val returns the float payload.
func (v Value) Float64Val() float64 { return v.f }

// BoolVal returns the boolean payload.
func (v Value) BoolVal() bool { return v.i != 0 }

// BytesVal returns the borrowed Text/Blob payload. The buffer must stay
// alive until the native call that reads it returns; this codec never copies
// on the way out.
func (v Value) BytesVal() []byte { return v.b }

// DecimalVal returns the decimal payload.
func (v Value) DecimalVal() Decimal { return Decimal{Unscaled: v.i, Scale: int(v.scale)} }

// View encodes the value as a native record. Text/Blob payloads are
// borrowed, not copied.
func (v Value) View() native.ValueView {
	view := native.ValueView{
		Kind:         v.kind,
		Int64Val:     v.i,
		Float64Val:   v.f,
		DecimalScale: v.scale,
	}
	if v.kind == native.KindNull {
		view.IsNull = 1
	}
	if v.kind == native.KindText || v.kind == native.KindBlob {
		view.Bytes = v.b
	}
	return view
}

// From converts a Go value into the closed variant. Accepted types: nil,
// bool, all signed and unsigned integer widths, float32/float64, string,
// []byte, Decimal, uuid.UUID (stored as its 16 raw bytes), and time.Time
// (stored as RFC 3339 text). Anything else fails with ErrUnsupportedType;
// there is deliberately no stringify fallback.
func From(arg any) (Value, error) {
	switch v := arg.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(v), nil
	case int:
		return Int64(int64(v)), nil
	case int8:
		return Int64(int64(v)), nil
	case int16:
		return Int64(int64(v)), nil
	case int32:
		return Int64(int64(v)), nil
	case int64:
		return Int64(v), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: %d", ErrValueRange, v)
		}
		return Int64(int64(v)), nil
	case uint8:
		return Int64(int64(v)), nil
	case uint16:
		return Int64(int64(v)), nil
	case uint32:
		return Int64(int64(v)), nil
	case uint64:
		if v > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: %d", ErrValueRange, v)
		}
		return Int64(int64(v)), nil
	case float32:
		return Float64(float64(v)), nil
	case float64:
		return Float64(v), nil
	case string:
		return Text(v), nil
	case []byte:
		return Blob(v), nil
	case Decimal:
		return Dec(v), nil
	case uuid.UUID:
		buf := make([]byte, 16)
		copy(buf, v[:])
		return Blob(buf), nil
	case time.Time:
		return Text(v.Format(time.RFC3339Nano)), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedType, arg)
	}
}

// FromArgs converts a parameter list, failing on the first bad value.
func FromArgs(args []any) ([]Value, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]Value, len(args))
	for i, a := range args {
		v, err := From(a)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

// Views encodes a converted parameter list for the combined step entry
// point. The returned views borrow the values' byte payloads, which must
// stay alive until that one native call returns.
func Views(values []Value) []native.ValueView {
	if len(values) == 0 {
		return nil
	}
	out := make([]native.ValueView, len(values))
	for i, v := range values {
		out[i] = v.View()
	}
	return out
}

// Decode converts one engine result record into a driver value: nil, int64,
// bool, float64, string, []byte, or Decimal. Byte payloads are copied, so
// the result outlives the borrowed view. Unrecognized kinds fail with
// ErrUnknownKind and are never decoded by guesswork.
func Decode(view native.ValueView) (any, error) {
	if view.IsNull != 0 {
		return nil, nil
	}
	switch view.Kind {
	case native.KindNull:
		return nil, nil
	case native.KindInt64:
		return view.Int64Val, nil
	case native.KindBool:
		return view.Int64Val != 0, nil
	case native.KindFloat64:
		return view.Float64Val, nil
	case native.KindText:
		return string(view.Bytes), nil
	case native.KindBlob:
		if len(view.Bytes) == 0 {
			return []byte{}, nil
		}
		out := make([]byte, len(view.Bytes))
		copy(out, view.Bytes)
		return out, nil
	case native.KindDecimal:
		return Decimal{Unscaled: view.Int64Val, Scale: int(view.DecimalScale)}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, view.Kind)
	}
}

// DecodeRow decodes a full row view. Any unknown kind aborts the whole row
// with ErrUnknownKind so the caller can retry on the slow path.
func DecodeRow(views []native.ValueView) ([]any, error) {
	row := make([]any, len(views))
	for i, v := range views {
		dv, err := Decode(v)
		if err != nil {
			return nil, err
		}
		row[i] = dv
	}
	return row, nil
}
