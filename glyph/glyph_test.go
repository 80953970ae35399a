package glyph

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeLiteral(t *testing.T) {
	tests := []struct {
		name   string
		v      float64
		digits Digits
		frame  Frame
	}{
		{
			name:   "whole seven",
			v:      7.0,
			digits: Digits{7, 0, 0, 0},
			frame:  Frame{0x01, 0x0F, 0x90, 0x90, 0x09, 0x09, 0x90, 0x90},
		},
		{
			name:   "one two five six",
			v:      1.256,
			digits: Digits{1, 2, 5, 6},
			frame:  Frame{0x00, 0x0F, 0xD0, 0xB0, 0x0B, 0x0D, 0xF0, 0xD0},
		},
		{
			name:   "boot value",
			v:      0.1,
			digits: Digits{0, 1, 0, 0},
			frame:  Frame{0x09, 0x09, 0x00, 0xF0, 0x09, 0x09, 0x90, 0x90},
		},
		{
			name:   "forty ticks",
			v:      40.0 / 32768,
			digits: Digits{0, 0, 0, 1},
			frame:  Frame{0x09, 0x09, 0x90, 0x90, 0x09, 0x09, 0x00, 0xF0},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var f Frame
			d, err := Encode(&f, tc.v, ModeLiteral)
			if err != nil {
				t.Fatalf("Encode(%v) error = %v", tc.v, err)
			}
			if d != tc.digits {
				t.Errorf("Encode(%v) digits = %v, want %v", tc.v, d, tc.digits)
			}
			if diff := cmp.Diff(tc.frame, f); diff != "" {
				t.Errorf("Encode(%v) frame mismatch (-want +got):\n%s", tc.v, diff)
			}
		})
	}
}

func TestEncodeThreeShiftsByThree(t *testing.T) {
	var f Frame
	if _, err := Encode(&f, 3.333, ModeLiteral); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	want := Frame{21, 31, 21 << 3, 31 << 3, 21, 31, 21 << 3, 31 << 3}
	if diff := cmp.Diff(want, f); diff != "" {
		t.Fatalf("frame mismatch (-want +got):\n%s", diff)
	}
	if f[2] != 0xA8 || f[3] != 0xF8 {
		t.Fatalf("high slot of 3 = %#02x %#02x, want 0xa8 0xf8", f[2], f[3])
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	var a, b Frame
	for i := range b {
		b[i] = 0xFF
	}
	for _, v := range []float64{0, 0.5, 2.718, 9.999} {
		Encode(&a, v, ModeLiteral)
		Encode(&b, v, ModeLiteral)
		if a != b {
			t.Fatalf("Encode(%v) depends on previous frame: %v vs %v", v, a.Hex(), b.Hex())
		}
	}
}

func TestEncodeDigitRange(t *testing.T) {
	f := Frame{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	d, err := Encode(&f, 12.5, ModeLiteral)
	if !errors.Is(err, ErrDigitRange) {
		t.Fatalf("Encode(12.5) error = %v, want ErrDigitRange", err)
	}
	if d.First != 12 {
		t.Fatalf("First = %d, want 12", d.First)
	}
	want := Frame{0x00, 0x00, 0xB0, 0xD0, 0x09, 0x09, 0x90, 0x90}
	if diff := cmp.Diff(want, f); diff != "" {
		t.Fatalf("frame mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeDomain(t *testing.T) {
	for _, v := range []float64{-0.5, math.NaN(), math.Inf(1)} {
		f := Frame{1, 2, 3, 4, 5, 6, 7, 8}
		if _, err := Encode(&f, v, ModeLiteral); !errors.Is(err, ErrDomain) {
			t.Errorf("Encode(%v) error = %v, want ErrDomain", v, err)
		}
		if f != (Frame{}) {
			t.Errorf("Encode(%v) left frame %v, want dark", v, f.Hex())
		}
	}
}

func TestDecomposeModes(t *testing.T) {
	tests := []struct {
		v       float64
		literal Digits
		direct  Digits
	}{
		{v: 1.256, literal: Digits{1, 2, 5, 6}, direct: Digits{1, 2, 5, 6}},
		{v: 0.53, literal: Digits{0, 5, 2, 0}, direct: Digits{0, 5, 3, 0}},
		{v: 1.05, literal: Digits{1, 0, 4, 0}, direct: Digits{1, 0, 5, 0}},
		{v: 0.251, literal: Digits{0, 2, 5, 0}, direct: Digits{0, 2, 5, 1}},
		{v: 9.9999, literal: Digits{9, 9, 9, 9}, direct: Digits{9, 9, 9, 9}},
		{v: 1e-9, literal: Digits{0, 0, 0, 0}, direct: Digits{0, 0, 0, 0}},
	}
	for _, tc := range tests {
		got, err := Decompose(tc.v, ModeLiteral)
		if err != nil || got != tc.literal {
			t.Errorf("Decompose(%v, literal) = %v, %v; want %v", tc.v, got, err, tc.literal)
		}
		got, err = Decompose(tc.v, ModeDirect)
		if err != nil || got != tc.direct {
			t.Errorf("Decompose(%v, direct) = %v, %v; want %v", tc.v, got, err, tc.direct)
		}
	}
}

func TestDecomposeLarge(t *testing.T) {
	for _, mode := range []Mode{ModeLiteral, ModeDirect} {
		d, err := Decompose(1e300, mode)
		if err != nil {
			t.Fatalf("Decompose(1e300, %s) error = %v", mode, err)
		}
		if d.First != math.MaxInt32 {
			t.Fatalf("Decompose(1e300, %s).First = %d, want saturated", mode, d.First)
		}
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeLiteral, ModeDirect} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("rounded"); !errors.Is(err, ErrBadMode) {
		t.Errorf("ParseMode(rounded) error = %v, want ErrBadMode", err)
	}
}

func TestFrameString(t *testing.T) {
	f := Frame{0x01, 0x0F, 0x90, 0x90, 0x09, 0x09, 0x90, 0x90}
	want := "" +
		"##..##..\n" +
		".#......\n" +
		".#......\n" +
		".#..##..\n" +
		"..##..##\n" +
		"........\n" +
		"........\n" +
		"..##..##"
	if diff := cmp.Diff(want, f.String()); diff != "" {
		t.Fatalf("String() mismatch (-want +got):\n%s", diff)
	}
	if got := f.Row(0); got != 0x33 {
		t.Fatalf("Row(0) = %#02x, want 0x33", got)
	}
}

func TestTableEverySlot(t *testing.T) {
	// Column pairs as the firmware writes them: low slots take the pattern
	// as is, high slots shifted up by four (by three for digit 3).
	low := [10][2]byte{
		{9, 9}, {0, 15}, {13, 11}, {21, 31}, {3, 14},
		{11, 13}, {15, 13}, {1, 15}, {15, 15}, {3, 15},
	}
	high := [10][2]byte{
		{9 << 4, 9 << 4}, {0, 15 << 4}, {13 << 4, 11 << 4}, {21 << 3, 31 << 3}, {3 << 4, 14 << 4},
		{11 << 4, 13 << 4}, {15 << 4, 13 << 4}, {1 << 4, 15 << 4}, {15 << 4, 15 << 4}, {3 << 4, 15 << 4},
	}

	for d := 0; d < 10; d++ {
		for i, s := range Slots {
			want := low[d]
			if s.High {
				want = high[d]
			}
			var f Frame
			if err := f.Put(s, d); err != nil {
				t.Fatalf("Put(slot %d, %d) error = %v", i, d, err)
			}
			var wantFrame Frame
			wantFrame[s.Col], wantFrame[s.Col+1] = want[0], want[1]
			if f != wantFrame {
				t.Errorf("digit %d in slot %d = % 02x, want % 02x", d, i, f[:], wantFrame[:])
			}
		}
	}
}
