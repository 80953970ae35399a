package glyph

import (
	"errors"
	"fmt"
	"strings"
)

// Frame is one 8x8 refresh: Frame[c] is column c+1, bit r lights row r.
type Frame [8]byte

// Clear darkens every column.
func (f *Frame) Clear() {
	*f = Frame{}
}

// Put writes the glyph of digit d into slot s. Digits outside 0-9 leave the
// slot dark and return ErrDigitRange.
func (f *Frame) Put(s Slot, d int) error {
	if d < 0 || d >= len(Table) {
		return fmt.Errorf("%w: %d at column %d", ErrDigitRange, d, s.Col+1)
	}
	f[s.Col], f[s.Col+1] = Table[d].Columns(s.High)
	return nil
}

// Encode rebuilds f from scratch to show v and returns the digits shown.
//
// The frame never depends on its previous contents. A value outside the
// domain leaves the frame dark. A digit that has no glyph (an integer part
// of 10 or more) leaves its slot dark while the other slots are still drawn;
// the returned error wraps ErrDigitRange.
func Encode(f *Frame, v float64, mode Mode) (Digits, error) {
	f.Clear()
	d, err := Decompose(v, mode)
	if err != nil {
		return Digits{}, err
	}

	var errs []error
	for i, n := range d.slots() {
		if err := f.Put(Slots[i], n); err != nil {
			errs = append(errs, err)
		}
	}
	return d, errors.Join(errs...)
}

// Row returns row r (0-7) as a column bitmask, bit c set for column c+1.
func (f *Frame) Row(r int) byte {
	var b byte
	for c := range f {
		if f[c]&(1<<uint(r)) != 0 {
			b |= 1 << uint(c)
		}
	}
	return b
}

// String draws the frame as eight lines of '#' and '.', row 0 first.
func (f Frame) String() string {
	var sb strings.Builder
	sb.Grow(8 * 9)
	for r := 0; r < 8; r++ {
		for c := range f {
			if f[c]&(1<<uint(r)) != 0 {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		if r < 7 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Hex is the column bytes in wire order.
func (f Frame) Hex() string {
	return fmt.Sprintf("% 02x", f[:])
}
