package compiler

import "github.com/burdockcascade/bytevm/lang/variant"

// BlockEncoder assembles the instruction stream for a single function body.
// Instructions are appended by chained method calls; named locals are
// resolved to numeric slots as SetLocal/GetLocal are called, and symbolic
// labels to addresses at emit time when already defined, otherwise by
// Encode.
//
// Once an operation fails (an undeclared local name, for instance), the
// encoder remembers the first error and every subsequent call becomes a
// no-op, so a long chain of builder calls can be written without checking
// an error after every step; only the final Encode error needs checking.
type BlockEncoder struct {
	instructions []Instruction
	locals       map[string]int
	nextSlot     int
	labels       map[string]int
	pendingJumps map[int]string // instruction index -> label name

	err error
}

// NewBlockEncoder returns an empty encoder.
func NewBlockEncoder() *BlockEncoder {
	return &BlockEncoder{
		locals:       make(map[string]int),
		labels:       make(map[string]int),
		pendingJumps: make(map[int]string),
	}
}

func (e *BlockEncoder) fail(err error) *BlockEncoder {
	if e.err == nil {
		e.err = err
	}
	return e
}

func (e *BlockEncoder) push(ins Instruction) *BlockEncoder {
	if e.err != nil {
		return e
	}
	e.instructions = append(e.instructions, ins)
	return e
}

// DeclareLocal declares a local variable name, assigning it the next slot
// in declaration order. Declaring the same name twice is a no-op: the slot
// already assigned is kept.
func (e *BlockEncoder) DeclareLocal(name string) *BlockEncoder {
	if e.err != nil {
		return e
	}
	if _, ok := e.locals[name]; !ok {
		e.locals[name] = e.nextSlot
		e.nextSlot++
	}
	return e
}

// SetLocal emits SetLocal for the declared local name.
func (e *BlockEncoder) SetLocal(name string) *BlockEncoder {
	if e.err != nil {
		return e
	}
	slot, ok := e.locals[name]
	if !ok {
		return e.fail(&Error{Kind: UndeclaredLocal, Message: "local variable " + name + " not declared"})
	}
	return e.push(Instruction{Op: SetLocal, Operand: slot})
}

// GetLocal emits GetLocal for the declared local name.
func (e *BlockEncoder) GetLocal(name string) *BlockEncoder {
	if e.err != nil {
		return e
	}
	slot, ok := e.locals[name]
	if !ok {
		return e.fail(&Error{Kind: UndeclaredLocal, Message: "local variable " + name + " not declared"})
	}
	return e.push(Instruction{Op: GetLocal, Operand: slot})
}

// AddLabel marks the index of the instruction that follows it as the
// target of label.
func (e *BlockEncoder) AddLabel(label string) *BlockEncoder {
	if e.err != nil {
		return e
	}
	e.labels[label] = len(e.instructions)
	return e
}

// Jump emits a Jump to label. If label is not yet known, the jump is
// recorded as pending and patched by Encode.
func (e *BlockEncoder) Jump(label string) *BlockEncoder {
	return e.emitJump(Jump, label)
}

// JumpIfFalse emits a JumpIfFalse to label, with the same pending-patch
// behavior as Jump.
func (e *BlockEncoder) JumpIfFalse(label string) *BlockEncoder {
	return e.emitJump(JumpIfFalse, label)
}

func (e *BlockEncoder) emitJump(op Opcode, label string) *BlockEncoder {
	if e.err != nil {
		return e
	}
	if addr, ok := e.labels[label]; ok {
		return e.push(Instruction{Op: op, Operand: addr})
	}
	e.pendingJumps[len(e.instructions)] = label
	return e.push(Instruction{Op: op, Operand: 0})
}

// PushValue emits Push for an arbitrary variant, covering push_integer,
// push_float, push_string, push_boolean, push_null and push_symbol.
func (e *BlockEncoder) PushValue(v variant.Value) *BlockEncoder {
	return e.push(Instruction{Op: Push, Value: v})
}

func (e *BlockEncoder) PushInteger(v int64) *BlockEncoder { return e.PushValue(variant.Integer(v)) }
func (e *BlockEncoder) PushFloat(v float64) *BlockEncoder { return e.PushValue(variant.Float(v)) }
func (e *BlockEncoder) PushString(v string) *BlockEncoder { return e.PushValue(variant.Str(v)) }
func (e *BlockEncoder) PushBoolean(v bool) *BlockEncoder {
	return e.PushValue(variant.Boolean(v))
}
func (e *BlockEncoder) PushNull() *BlockEncoder     { return e.PushValue(variant.Null{}) }
func (e *BlockEncoder) PushSymbol(s string) *BlockEncoder {
	return e.PushValue(variant.Symbol(s))
}

func (e *BlockEncoder) Pop() *BlockEncoder             { return e.push(Instruction{Op: Pop}) }
func (e *BlockEncoder) AddOp() *BlockEncoder           { return e.push(Instruction{Op: Add}) }
func (e *BlockEncoder) SubOp() *BlockEncoder           { return e.push(Instruction{Op: Sub}) }
func (e *BlockEncoder) MulOp() *BlockEncoder           { return e.push(Instruction{Op: Mul}) }
func (e *BlockEncoder) DivOp() *BlockEncoder           { return e.push(Instruction{Op: Div}) }
func (e *BlockEncoder) ModOp() *BlockEncoder           { return e.push(Instruction{Op: Mod}) }
func (e *BlockEncoder) PowOp() *BlockEncoder           { return e.push(Instruction{Op: Pow}) }
func (e *BlockEncoder) NegateOp() *BlockEncoder        { return e.push(Instruction{Op: Negate}) }
func (e *BlockEncoder) EqualOp() *BlockEncoder         { return e.push(Instruction{Op: Equal}) }
func (e *BlockEncoder) NotEqualOp() *BlockEncoder      { return e.push(Instruction{Op: NotEqual}) }
func (e *BlockEncoder) LessThanOp() *BlockEncoder      { return e.push(Instruction{Op: LessThan}) }
func (e *BlockEncoder) LessEqualOp() *BlockEncoder     { return e.push(Instruction{Op: LessEqual}) }
func (e *BlockEncoder) GreaterThanOp() *BlockEncoder   { return e.push(Instruction{Op: GreaterThan}) }
func (e *BlockEncoder) GreaterEqualOp() *BlockEncoder  { return e.push(Instruction{Op: GreaterEqual}) }
func (e *BlockEncoder) AndOp() *BlockEncoder           { return e.push(Instruction{Op: And}) }
func (e *BlockEncoder) OrOp() *BlockEncoder            { return e.push(Instruction{Op: Or}) }
func (e *BlockEncoder) NotOp() *BlockEncoder           { return e.push(Instruction{Op: Not}) }

// CallFunctionByName emits FunctionCall against a symbolic name. Name-keyed
// calls to user-defined functions are rewritten to index-keyed calls by
// ProgramBuilder.Build; calls to native functions stay name-keyed.
func (e *BlockEncoder) CallFunctionByName(name string) *BlockEncoder {
	return e.push(Instruction{Op: FunctionCall, Target: CallTarget{Name: name}})
}

// CallFunctionByIndex emits FunctionCall against an already-resolved
// user-defined function index.
func (e *BlockEncoder) CallFunctionByIndex(index int) *BlockEncoder {
	return e.push(Instruction{Op: FunctionCall, Target: CallTarget{Index: index, Resolved: true}})
}

func (e *BlockEncoder) CreateArray(size int) *BlockEncoder {
	return e.push(Instruction{Op: CreateArray, Operand: size})
}
func (e *BlockEncoder) GetArrayItem() *BlockEncoder   { return e.push(Instruction{Op: GetArrayItem}) }
func (e *BlockEncoder) SetArrayItem() *BlockEncoder   { return e.push(Instruction{Op: SetArrayItem}) }
func (e *BlockEncoder) GetArrayLength() *BlockEncoder { return e.push(Instruction{Op: GetArrayLength}) }

func (e *BlockEncoder) CreateDictionary(size int) *BlockEncoder {
	return e.push(Instruction{Op: CreateDictionary, Operand: size})
}
func (e *BlockEncoder) GetDictionaryItem() *BlockEncoder {
	return e.push(Instruction{Op: GetDictionaryItem})
}
func (e *BlockEncoder) SetDictionaryItem() *BlockEncoder {
	return e.push(Instruction{Op: SetDictionaryItem})
}
func (e *BlockEncoder) GetDictionaryKeys() *BlockEncoder {
	return e.push(Instruction{Op: GetDictionaryKeys})
}

func (e *BlockEncoder) ReturnValue() *BlockEncoder { return e.push(Instruction{Op: Return}) }
func (e *BlockEncoder) PrintOp() *BlockEncoder     { return e.push(Instruction{Op: Print}) }
func (e *BlockEncoder) HaltOp() *BlockEncoder      { return e.push(Instruction{Op: Halt}) }
func (e *BlockEncoder) PanicOp() *BlockEncoder     { return e.push(Instruction{Op: Panic}) }
func (e *BlockEncoder) AssertOp() *BlockEncoder    { return e.push(Instruction{Op: Assert}) }

// NextLocalSlot returns the number of distinct local names declared so far,
// which becomes the function's local_count once encoding finishes.
func (e *BlockEncoder) NextLocalSlot() int { return e.nextSlot }

// Encode finalizes the instruction stream: it appends a terminating Halt
// unless the block already ends in Return or Halt, then resolves every
// pending jump. It fails with UndeclaredLabel if any pending label was
// never defined, or returns the first error recorded by an earlier
// operation (such as UndeclaredLocal).
func (e *BlockEncoder) Encode() ([]Instruction, error) {
	if e.err != nil {
		return nil, e.err
	}

	if n := len(e.instructions); n == 0 || (e.instructions[n-1].Op != Return && e.instructions[n-1].Op != Halt) {
		e.instructions = append(e.instructions, Instruction{Op: Halt})
	}

	for index, label := range e.pendingJumps {
		addr, ok := e.labels[label]
		if !ok {
			return nil, &Error{Kind: UndeclaredLabel, Message: "label " + label + " not found"}
		}
		e.instructions[index].Operand = addr
	}

	return e.instructions, nil
}
