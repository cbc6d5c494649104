// Package variant implements the tagged, dynamically-typed value domain
// manipulated by the bytecode engine: Null, Integer, Float, Boolean, Str,
// Symbol, Array and Dictionary. It defines arithmetic, comparison,
// equality, hashing and display for every pair the engine needs, so that
// the interpreter loop itself performs no type dispatch beyond opcode
// selection.
package variant

// Value is the interface implemented by every variant manipulated by the
// machine.
type Value interface {
	// String returns the display representation of the value (what Print
	// writes).
	String() string

	// Type returns a short string describing the value's kind, used in error
	// messages.
	Type() string
}

// Truth returns the truthiness of v, per the rules in the value domain: Null,
// Boolean(false), Integer(0), Float(0.0) and the empty Str are false;
// everything else, including empty aggregates, is true.
func Truth(v Value) Boolean {
	switch x := v.(type) {
	case Null:
		return false
	case Boolean:
		return Boolean(x)
	case Integer:
		return x != 0
	case Float:
		return x != 0
	case Str:
		return len(x) > 0
	default:
		return true
	}
}
