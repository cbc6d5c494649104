package variant

import "strconv"

// Float is a 64-bit floating point value.
type Float float64

var _ Value = Float(0)

func (f Float) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }
func (f Float) Type() string   { return "float" }

// Cmp compares two Float values. NaN sorts greater than every other value,
// including +Inf, and two NaNs compare equal, so Cmp is a total order.
func (f Float) Cmp(y Float) int {
	switch {
	case f < y:
		return -1
	case f > y:
		return 1
	case f == y:
		return 0
	}
	// at least one operand is NaN
	if f == f {
		return -1 // y is NaN
	} else if y == y {
		return 1 // f is NaN
	}
	return 0 // both NaN
}
