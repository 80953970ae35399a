package glyph

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrDomain     = errors.New("glyph: value out of domain")
	ErrDigitRange = errors.New("glyph: digit out of range")
	ErrBadMode    = errors.New("glyph: unknown mode")
)

// Mode selects how a value is split into digits.
type Mode uint8

const (
	// ModeLiteral scales the value in single precision and takes each
	// fractional digit through a chain of modulo steps, as the firmware
	// always has. Decimal fractions that are not exact in float32 may lose
	// one in the last digit (0.53 shows as 0.520).
	ModeLiteral Mode = iota

	// ModeDirect reads the digits off the shortest decimal form of the value
	// and truncates after the third fractional digit.
	ModeDirect
)

func (m Mode) String() string {
	switch m {
	case ModeLiteral:
		return "literal"
	case ModeDirect:
		return "direct"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseMode parses the String form of a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "literal":
		return ModeLiteral, nil
	case "direct":
		return ModeDirect, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrBadMode, s)
	}
}

// Digits is the four-digit decomposition of a value: the integer part and
// three fractional digits.
//
// First saturates at math.MaxInt32 for very large values; it is only
// displayable below 10.
type Digits struct {
	First  int
	Second int
	Third  int
	Fourth int
}

func (d Digits) slots() [4]int {
	return [4]int{d.First, d.Second, d.Third, d.Fourth}
}

func (d Digits) String() string {
	return fmt.Sprintf("%d.%d%d%d", d.First, d.Second, d.Third, d.Fourth)
}

// Decompose splits v into Digits.
//
// v must be finite and non-negative.
func Decompose(v float64, mode Mode) (Digits, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return Digits{}, fmt.Errorf("%w: %v", ErrDomain, v)
	}
	switch mode {
	case ModeLiteral:
		return literal(v), nil
	case ModeDirect:
		return direct(v), nil
	default:
		return Digits{}, fmt.Errorf("%w: %v", ErrBadMode, mode)
	}
}

// literalMax keeps the scaled products finite in float32.
const literalMax = 1e30

func literal(v float64) Digits {
	f := float32(v)
	if v > literalMax {
		f = literalMax
	}
	// Each product is rounded to float32 before flooring.
	p10 := float32(f * 10)
	p100 := float32(f * 100)
	p1000 := float32(f * 1000)

	return Digits{
		First:  saturate(math.Floor(float64(f))),
		Second: int(math.Mod(math.Floor(float64(p10)), 10)),
		Third:  int(math.Mod(math.Mod(math.Floor(float64(p100)), 100), 10)),
		Fourth: int(math.Mod(math.Mod(math.Mod(math.Floor(float64(p1000)), 1000), 100), 10)),
	}
}

func direct(v float64) Digits {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	ip, fp, _ := strings.Cut(s, ".")
	fp += "000"

	var d Digits
	if n, err := strconv.ParseInt(ip, 10, 32); err == nil {
		d.First = int(n)
	} else {
		d.First = math.MaxInt32
	}
	d.Second = int(fp[0] - '0')
	d.Third = int(fp[1] - '0')
	d.Fourth = int(fp[2] - '0')
	return d
}

func saturate(f float64) int {
	if f >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}
