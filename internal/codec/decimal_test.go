package codec

import (
	"errors"
	"math"
	"testing"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in           string
		wantUnscaled int64
		wantScale    int
	}{
		{"0", 0, 0},
		{"1", 1, 0},
		{"-1", -1, 0},
		{"+1.5", 15, 1},
		{"123.45", 12345, 2},
		{"-123.45", -12345, 2},
		{"0.001", 1, 3},
		{"-0.001", -1, 3},
		{".5", 5, 1},
		{"5.", 5, 0},
		{"00123.4500", 1234500, 4},
		{" 42 ", 42, 0},
		{"0.000000000000000001", 1, 18},
		{"9223372036854775807", math.MaxInt64, 0},
		{"-9223372036854775808", math.MinInt64, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDecimal(tt.in)
			if err != nil {
				t.Fatalf("ParseDecimal(%q) error = %v", tt.in, err)
			}
			if d.Unscaled != tt.wantUnscaled || d.Scale != tt.wantScale {
				t.Errorf("ParseDecimal(%q) = {%d, %d}, want {%d, %d}",
					tt.in, d.Unscaled, d.Scale, tt.wantUnscaled, tt.wantScale)
			}
		})
	}
}

func TestParseDecimalQuantize(t *testing.T) {
	// More than 18 fractional digits is quantized with round-half-even.
	tests := []struct {
		in           string
		wantUnscaled int64
	}{
		// 19th digit below half: drop.
		{"0.0000000000000000014", 1},
		// Above half: round up.
		{"0.0000000000000000016", 2},
		// Exactly half, even neighbor: stay.
		{"0.0000000000000000025", 2},
		// Exactly half, odd neighbor: round to even.
		{"0.0000000000000000015", 2},
		// Negative values round symmetrically.
		{"-0.0000000000000000015", -2},
		{"-0.0000000000000000016", -2},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDecimal(tt.in)
			if err != nil {
				t.Fatalf("ParseDecimal(%q) error = %v", tt.in, err)
			}
			if d.Scale != MaxScale {
				t.Errorf("scale = %d, want %d", d.Scale, MaxScale)
			}
			if d.Unscaled != tt.wantUnscaled {
				t.Errorf("unscaled = %d, want %d", d.Unscaled, tt.wantUnscaled)
			}
		})
	}
}

func TestParseDecimalErrors(t *testing.T) {
	syntax := []string{"", " ", "abc", "1.2.3", "1e5", ".", "-", "--1", "1,5"}
	for _, in := range syntax {
		if _, err := ParseDecimal(in); !errors.Is(err, ErrDecimalSyntax) {
			t.Errorf("ParseDecimal(%q) error = %v, want ErrDecimalSyntax", in, err)
		}
	}
	ranges := []string{
		"9223372036854775808",
		"-9223372036854775809",
		"92233720368547758.08000000000000000001",
	}
	for _, in := range ranges {
		if _, err := ParseDecimal(in); !errors.Is(err, ErrDecimalRange) {
			t.Errorf("ParseDecimal(%q) error = %v, want ErrDecimalRange", in, err)
		}
	}
}

func TestNewDecimalScaleBounds(t *testing.T) {
	if _, err := NewDecimal(1, -1); err == nil {
		t.Error("NewDecimal(1, -1) succeeded, want error")
	}
	if _, err := NewDecimal(1, MaxScale+1); err == nil {
		t.Error("NewDecimal scale above max succeeded, want error")
	}
	d, err := NewDecimal(12345, 2)
	if err != nil {
		t.Fatalf("NewDecimal error = %v", err)
	}
	if d.Unscaled != 12345 || d.Scale != 2 {
		t.Errorf("NewDecimal = %+v", d)
	}
}

func TestDecimalString(t *testing.T) {
	tests := []struct {
		d    Decimal
		want string
	}{
		{Decimal{0, 0}, "0"},
		{Decimal{42, 0}, "42"},
		{Decimal{-42, 0}, "-42"},
		{Decimal{12345, 2}, "123.45"},
		{Decimal{-12345, 2}, "-123.45"},
		{Decimal{5, 1}, "0.5"},
		{Decimal{1, 3}, "0.001"},
		{Decimal{-1, 3}, "-0.001"},
		{Decimal{100, 2}, "1.00"},
		{Decimal{1, 18}, "0.000000000000000001"},
		{Decimal{math.MinInt64, 2}, "-92233720368547758.08"},
		{Decimal{math.MaxInt64, 18}, "9.223372036854775807"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("Decimal{%d,%d}.String() = %q, want %q",
				tt.d.Unscaled, tt.d.Scale, got, tt.want)
		}
	}
}

func TestDecimalStringParseRoundTrip(t *testing.T) {
	values := []Decimal{
		{0, 0}, {1, 0}, {-1, 0}, {12345, 2}, {-12345, 2},
		{1, 18}, {-1, 18}, {math.MaxInt64, 9}, {math.MinInt64, 9},
	}
	for _, d := range values {
		got, err := ParseDecimal(d.String())
		if err != nil {
			t.Fatalf("ParseDecimal(%q) error = %v", d.String(), err)
		}
		if got != d {
			t.Errorf("round trip of %v = %v", d, got)
		}
	}
}
