package maincmd

import (
	"fmt"

	"github.com/burdockcascade/bytevm/lang/machine"
	"github.com/burdockcascade/bytevm/lang/variant"
)

// registerDemoNatives wires a small set of native functions every assembly
// program loaded by the CLI can call, so a program can be written and run
// end to end without a second host program supplying its own natives.
func registerDemoNatives(vm *machine.VM) error {
	natives := []struct {
		name  string
		arity int
		fn    machine.NativeFunc
	}{
		{"strlen", 1, nativeStrlen},
		{"to_string", 1, nativeToString},
	}
	for _, n := range natives {
		if err := vm.RegisterNativeFunction(n.name, n.arity, n.fn); err != nil {
			return fmt.Errorf("register native %s: %w", n.name, err)
		}
	}
	return nil
}

func nativeStrlen(args []variant.Value) (variant.Value, bool, error) {
	s, ok := args[0].(variant.Str)
	if !ok {
		return nil, false, fmt.Errorf("strlen: want string, got %s", args[0].Type())
	}
	return variant.Integer(len(s)), true, nil
}

func nativeToString(args []variant.Value) (variant.Value, bool, error) {
	return variant.Str(args[0].String()), true, nil
}
