package machine

import "github.com/burdockcascade/bytevm/lang/variant"

// NativeFunc is a host-supplied function reachable from bytecode via
// FunctionCall. It receives its arguments in call order. The returned bool
// reports whether result is meaningful; a native that returns (nil, false,
// nil) behaves like a function whose Return is a bare control transfer with
// no value, and pushes nothing onto the operand stack.
type NativeFunc func(args []variant.Value) (result variant.Value, ok bool, err error)

type nativeEntry struct {
	arity int
	fn    NativeFunc
}
