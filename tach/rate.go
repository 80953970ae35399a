package tach

// Seconds converts an interval of counter ticks to seconds.
//
// No rounding or clamping is applied. hz must be non-zero; a zero rate yields 0
// rather than an infinity so a misconfigured divisor shows up as a blank
// reading instead of garbage digits.
func Seconds(intervalTicks, hz uint32) float64 {
	if hz == 0 {
		return 0
	}
	return float64(intervalTicks) / float64(hz)
}
