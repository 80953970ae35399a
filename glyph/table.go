package glyph

// Glyph is the two-column bitmap of one decimal digit.
//
// Left and Right are 4-bit patterns for the left and right column of a digit
// slot. In a high slot both are shifted left by Shift.
type Glyph struct {
	Left  byte
	Right byte
	Shift uint8
}

// Table maps digits 0-9 to their glyphs.
//
// Digit 1 leaves its left column dark. Digit 3 is five rows tall and only
// moves up by three in a high slot.
var Table = [10]Glyph{
	0: {Left: 9, Right: 9, Shift: 4},
	1: {Left: 0, Right: 15, Shift: 4},
	2: {Left: 13, Right: 11, Shift: 4},
	3: {Left: 21, Right: 31, Shift: 3},
	4: {Left: 3, Right: 14, Shift: 4},
	5: {Left: 11, Right: 13, Shift: 4},
	6: {Left: 15, Right: 13, Shift: 4},
	7: {Left: 1, Right: 15, Shift: 4},
	8: {Left: 15, Right: 15, Shift: 4},
	9: {Left: 3, Right: 15, Shift: 4},
}

// Columns returns the column bytes of g for a low (high=false) or high slot.
func (g Glyph) Columns(high bool) (left, right byte) {
	if !high {
		return g.Left, g.Right
	}
	return byte(uint(g.Left) << g.Shift), byte(uint(g.Right) << g.Shift)
}

// Slot is one of the four digit positions of a Frame.
type Slot struct {
	// Col is the zero-based index of the left column.
	Col  int
	High bool
}

// Slots lists the digit positions left to right: integer part, tenths,
// hundredths, thousandths.
var Slots = [4]Slot{
	{Col: 0},
	{Col: 2, High: true},
	{Col: 4},
	{Col: 6, High: true},
}
