package variant

import "strconv"

// Integer is a 64-bit signed integer value.
type Integer int64

var _ Value = Integer(0)

func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }
func (i Integer) Type() string   { return "integer" }

// Cmp compares two Integer values. Integers are totally ordered.
func (i Integer) Cmp(y Integer) int {
	switch {
	case i < y:
		return -1
	case i > y:
		return 1
	default:
		return 0
	}
}
