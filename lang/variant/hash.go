package variant

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// canonicalKey renders v as a string that is equal for two variants if and
// only if they are structurally equal, including recursively through arrays
// and dictionaries. It backs Dictionary's key type: dolthub/swiss.Map
// requires a comparable Go type parameter, which only gives pointer identity
// for the *Array/*Dictionary variants, but the value domain requires deep
// equality for dictionary keys (floats hashed by bit pattern, aggregates by
// their elements).
//
// Every variant kind in this package, Null included, has an encoding;
// canonicalKey fails only for a Value whose concrete type is not one of
// them.
func canonicalKey(v Value) (string, error) {
	var b strings.Builder
	if err := writeCanonicalKey(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeCanonicalKey(b *strings.Builder, v Value) error {
	switch x := v.(type) {
	case Null:
		b.WriteString("n:")
	case Integer:
		b.WriteString("i:")
		b.WriteString(strconv.FormatInt(int64(x), 10))
	case Float:
		b.WriteString("f:")
		b.WriteString(strconv.FormatUint(math.Float64bits(float64(x)), 16))
	case Boolean:
		b.WriteString("b:")
		if x {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	case Str:
		b.WriteString("s:")
		b.WriteString(strconv.Itoa(len(x)))
		b.WriteByte(':')
		b.WriteString(string(x))
	case Symbol:
		b.WriteString("y:")
		b.WriteString(strconv.Itoa(len(x)))
		b.WriteByte(':')
		b.WriteString(string(x))
	case *Array:
		b.WriteString("a:")
		b.WriteString(strconv.Itoa(x.Len()))
		b.WriteByte(':')
		for _, elem := range x.Elems() {
			if err := writeCanonicalKey(b, elem); err != nil {
				return err
			}
			b.WriteByte(',')
		}
	case *Dictionary:
		// Canonicalize by sorting the pair keys, so that two dictionaries
		// holding the same pairs in different insertion order hash equal.
		pairs := x.pairKeys()
		sort.Strings(pairs)
		b.WriteString("d:")
		b.WriteString(strconv.Itoa(len(pairs)))
		b.WriteByte(':')
		for _, pk := range pairs {
			b.WriteString(pk)
			b.WriteByte('=')
			val, _ := x.m.Get(pk)
			if err := writeCanonicalKey(b, val.value); err != nil {
				return err
			}
			b.WriteByte(',')
		}
	default:
		return fmt.Errorf("unhashable type: %s", v.Type())
	}
	return nil
}
