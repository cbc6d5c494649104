package compiler

// FunctionBuilder assembles one Function from a name, an arity, and a body
// produced by a BlockEncoder.
type FunctionBuilder struct {
	name  string
	arity int

	instructions []Instruction
	localCount   int
	err          error
}

// NewFunctionBuilder returns an empty function builder.
func NewFunctionBuilder() *FunctionBuilder { return &FunctionBuilder{} }

// Name sets the function's name.
func (b *FunctionBuilder) Name(name string) *FunctionBuilder {
	b.name = name
	return b
}

// Arity sets the function's declared argument count.
func (b *FunctionBuilder) Arity(arity int) *FunctionBuilder {
	b.arity = arity
	return b
}

// Body encodes enc and records its instructions and local count. Any
// encoding error is surfaced from Build.
func (b *FunctionBuilder) Body(enc *BlockEncoder) *FunctionBuilder {
	instructions, err := enc.Encode()
	if err != nil {
		b.err = err
		return b
	}
	b.instructions = instructions
	b.localCount = enc.NextLocalSlot()
	return b
}

// Build returns the assembled Function.
func (b *FunctionBuilder) Build() (*Function, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.localCount < b.arity {
		b.localCount = b.arity
	}
	return &Function{
		Name:         b.name,
		Arity:        b.arity,
		LocalCount:   b.localCount,
		Instructions: b.instructions,
	}, nil
}

// ProgramBuilder aggregates Functions and external symbols into a Program,
// rewriting name-keyed calls to index-keyed calls at Build time for
// user-defined targets.
type ProgramBuilder struct {
	functions []*Function
	symbols   map[string]SymbolEntry
}

// NewProgramBuilder returns an empty program builder.
func NewProgramBuilder() *ProgramBuilder {
	return &ProgramBuilder{symbols: make(map[string]SymbolEntry)}
}

// AddFunction adds fn to the program. If a function with the same name was
// already added, it is replaced in place, keeping its index; otherwise it
// is appended and a new UserDefinedFunction symbol is recorded.
func (pb *ProgramBuilder) AddFunction(fn *Function) *ProgramBuilder {
	if entry, ok := pb.symbols[fn.Name]; ok && entry.Kind == UserDefinedFunction {
		pb.functions[entry.Index] = fn
		return pb
	}
	pb.symbols[fn.Name] = SymbolEntry{Kind: UserDefinedFunction, Index: len(pb.functions)}
	pb.functions = append(pb.functions, fn)
	return pb
}

// AddSymbol registers an external symbol, typically a native function
// descriptor. It must not shadow a user-defined function: if name was
// already bound to one by AddFunction, AddSymbol is a no-op.
func (pb *ProgramBuilder) AddSymbol(name string, entry SymbolEntry) *ProgramBuilder {
	if existing, ok := pb.symbols[name]; ok && existing.Kind == UserDefinedFunction {
		return pb
	}
	pb.symbols[name] = entry
	return pb
}

// Build walks every instruction of every function and rewrites each
// name-keyed FunctionCall whose target names a UserDefinedFunction to an
// index-keyed call. Calls naming a NativeFunction, or no known symbol at
// all, are left name-keyed for the engine to resolve at call time.
func (pb *ProgramBuilder) Build() *Program {
	for _, fn := range pb.functions {
		for i, ins := range fn.Instructions {
			if ins.Op != FunctionCall || ins.Target.Resolved {
				continue
			}
			if entry, ok := pb.symbols[ins.Target.Name]; ok && entry.Kind == UserDefinedFunction {
				fn.Instructions[i].Target = CallTarget{Index: entry.Index, Resolved: true}
			}
		}
	}
	return &Program{Functions: pb.functions, Symbols: pb.symbols}
}
