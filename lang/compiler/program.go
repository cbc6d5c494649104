// Package compiler implements the Program Model, the Block Encoder, and the
// Program Builder: the assembly layer that turns a per-function,
// block-scoped description of operations (named locals, symbolic labels,
// name-keyed calls) into the linear, numerically-addressed instruction
// stream and symbol table the execution engine requires.
package compiler

// Function is an immutable, post-build description of one function: its
// name, argument count, total local slot count (including arguments), and
// its linear instruction stream.
type Function struct {
	Name        string
	Arity       int
	LocalCount  int
	Instructions []Instruction
}

// SymbolKind distinguishes the two kinds of entry a Program's symbol table
// can hold.
type SymbolKind uint8

const (
	// UserDefinedFunction identifies a SymbolEntry whose Index names a
	// Function in the owning Program's function table.
	UserDefinedFunction SymbolKind = iota
	// NativeFunction identifies a SymbolEntry registered by the host outside
	// the Program, resolved by name at call time.
	NativeFunction
)

// SymbolEntry names either a user-defined function, by index into the
// Program's function table, or a native function, by its required arity.
type SymbolEntry struct {
	Kind  SymbolKind
	Index int // valid when Kind == UserDefinedFunction
	Arity int // valid when Kind == NativeFunction
}

// Program is the immutable, post-build unit the Execution Engine loads: an
// ordered function table plus a symbol table mapping names to entries. A
// Function's index in Functions matches the Index of any SymbolEntry of
// kind UserDefinedFunction that names it.
type Program struct {
	Functions []*Function
	Symbols   map[string]SymbolEntry
}

// FunctionByName returns the function registered under name and whether one
// was found.
func (p *Program) FunctionByName(name string) (*Function, int, bool) {
	entry, ok := p.Symbols[name]
	if !ok || entry.Kind != UserDefinedFunction {
		return nil, 0, false
	}
	if entry.Index < 0 || entry.Index >= len(p.Functions) {
		return nil, 0, false
	}
	return p.Functions[entry.Index], entry.Index, true
}
