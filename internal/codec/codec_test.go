package codec

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/pantrydb/internal/native"
)

func TestFromKinds(t *testing.T) {
	tests := []struct {
		name     string
		in       any
		wantKind int32
	}{
		{"nil", nil, native.KindNull},
		{"bool", true, native.KindBool},
		{"int", 7, native.KindInt64},
		{"int8", int8(-8), native.KindInt64},
		{"int16", int16(-16), native.KindInt64},
		{"int32", int32(-32), native.KindInt64},
		{"int64", int64(math.MinInt64), native.KindInt64},
		{"uint8", uint8(8), native.KindInt64},
		{"uint16", uint16(16), native.KindInt64},
		{"uint32", uint32(32), native.KindInt64},
		{"uint64", uint64(math.MaxInt64), native.KindInt64},
		{"float32", float32(1.5), native.KindFloat64},
		{"float64", 2.5, native.KindFloat64},
		{"string", "hello", native.KindText},
		{"bytes", []byte{1, 2, 3}, native.KindBlob},
		{"decimal", Decimal{12345, 2}, native.KindDecimal},
		{"uuid", uuid.New(), native.KindBlob},
		{"time", time.Now(), native.KindText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := From(tt.in)
			if err != nil {
				t.Fatalf("From(%v) error = %v", tt.in, err)
			}
			if v.Kind() != tt.wantKind {
				t.Errorf("From(%v) kind = %d, want %d", tt.in, v.Kind(), tt.wantKind)
			}
		})
	}
}

func TestFromUnsignedOverflow(t *testing.T) {
	if _, err := From(uint64(math.MaxInt64) + 1); !errors.Is(err, ErrValueRange) {
		t.Errorf("From(MaxInt64+1) error = %v, want ErrValueRange", err)
	}
	if _, err := From(^uint64(0)); !errors.Is(err, ErrValueRange) {
		t.Errorf("From(MaxUint64) error = %v, want ErrValueRange", err)
	}
}

func TestFromUnsupported(t *testing.T) {
	type widget struct{ n int }
	for _, in := range []any{widget{1}, []int{1, 2}, map[int]int{}, make(chan int)} {
		if _, err := From(in); !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("From(%T) error = %v, want ErrUnsupportedType", in, err)
		}
	}
}

func TestFromArgsPosition(t *testing.T) {
	_, err := FromArgs([]any{1, "ok", struct{}{}})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
	if got := err.Error(); got[:11] != "parameter 3" {
		t.Errorf("error = %q, want parameter 3 prefix", got)
	}
}

// Round trip values through View and Decode, the path a parameter takes to
// the engine and back as a result column.
func TestViewDecodeRoundTrip(t *testing.T) {
	allBytes := make([]byte, 256)
	for i := range allBytes {
		allBytes[i] = byte(i)
	}
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"true", true, true},
		{"false", false, false},
		{"zero", int64(0), int64(0)},
		{"min int64", int64(math.MinInt64), int64(math.MinInt64)},
		{"max int64", int64(math.MaxInt64), int64(math.MaxInt64)},
		{"float", 3.25, 3.25},
		{"subnormal", math.SmallestNonzeroFloat64, math.SmallestNonzeroFloat64},
		{"neg zero float", math.Copysign(0, -1), math.Copysign(0, -1)},
		{"empty text", "", ""},
		{"text", "héllo wörld", "héllo wörld"},
		{"empty blob", []byte{}, []byte{}},
		{"all byte values", allBytes, allBytes},
		{"decimal scale 0", Decimal{42, 0}, Decimal{42, 0}},
		{"decimal scale 18", Decimal{-1, 18}, Decimal{-1, 18}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := From(tt.in)
			if err != nil {
				t.Fatalf("From error = %v", err)
			}
			got, err := Decode(v.View())
			if err != nil {
				t.Fatalf("Decode error = %v", err)
			}
			if b, ok := tt.want.([]byte); ok {
				if !bytes.Equal(got.([]byte), b) {
					t.Errorf("got %v, want %v", got, b)
				}
				return
			}
			if got != tt.want {
				t.Errorf("got %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestDecodeCopiesBlob(t *testing.T) {
	src := []byte{1, 2, 3}
	got, err := Decode(native.ValueView{Kind: native.KindBlob, Bytes: src})
	if err != nil {
		t.Fatalf("Decode error = %v", err)
	}
	src[0] = 99
	if got.([]byte)[0] != 1 {
		t.Error("decoded blob aliases the borrowed view")
	}
}

func TestDecodeNullFlag(t *testing.T) {
	// IsNull wins regardless of the kind tag.
	got, err := Decode(native.ValueView{Kind: native.KindInt64, IsNull: 1, Int64Val: 42})
	if err != nil {
		t.Fatalf("Decode error = %v", err)
	}
	if got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := Decode(native.ValueView{Kind: 77})
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("error = %v, want ErrUnknownKind", err)
	}
	_, err = DecodeRow([]native.ValueView{
		{Kind: native.KindInt64, Int64Val: 1},
		{Kind: 77},
	})
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("DecodeRow error = %v, want ErrUnknownKind", err)
	}
}

func TestUUIDStoredAsRawBytes(t *testing.T) {
	id := uuid.New()
	v, err := From(id)
	if err != nil {
		t.Fatalf("From error = %v", err)
	}
	if !bytes.Equal(v.BytesVal(), id[:]) {
		t.Errorf("got %x, want %x", v.BytesVal(), id[:])
	}
}

func TestTimeStoredAsRFC3339(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)
	v, err := From(ts)
	if err != nil {
		t.Fatalf("From error = %v", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, string(v.BytesVal()))
	if err != nil {
		t.Fatalf("stored text is not RFC 3339: %v", err)
	}
	if !parsed.Equal(ts) {
		t.Errorf("got %v, want %v", parsed, ts)
	}
}
