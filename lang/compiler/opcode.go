package compiler

import "github.com/burdockcascade/bytevm/lang/variant"

// Opcode identifies one bytecode instruction. Opcodes are organized by
// group, matching the canonical instruction set the engine implements.
type Opcode uint8

const ( //nolint:revive
	// --- stack ---

	// Push pushes Instruction.Value.
	Push Opcode = iota
	// Pop discards the top of the operand stack.
	Pop

	// --- locals ---

	// GetLocal pushes the local at Instruction.Operand.
	GetLocal
	// SetLocal pops and stores into the local at Instruction.Operand.
	SetLocal

	// --- arithmetic ---

	Add
	Sub
	Mul
	Div
	Mod
	Pow
	Negate

	// --- comparison ---

	Equal
	NotEqual
	LessThan
	LessEqual
	GreaterThan
	GreaterEqual

	// --- logical ---

	And
	Or
	Not

	// --- control ---

	// Jump sets pc to Instruction.Operand.
	Jump
	// JumpIfFalse pops a Boolean; sets pc to Instruction.Operand if false,
	// otherwise fails TypeError if the popped value isn't a Boolean at all.
	JumpIfFalse

	// --- arrays ---

	// CreateArray pops Instruction.Operand values and pushes an Array.
	CreateArray
	GetArrayItem
	SetArrayItem
	GetArrayLength

	// --- dictionaries ---

	// CreateDictionary pops Instruction.Operand (key, value) pairs and
	// pushes a Dictionary.
	CreateDictionary
	GetDictionaryItem
	SetDictionaryItem
	GetDictionaryKeys

	// --- calls ---

	// FunctionCall invokes Instruction.Target.
	FunctionCall
	Return

	// --- side effects ---

	Print

	// --- terminal ---

	Halt
	// Panic pops a value and fails with its Display form as the error text.
	Panic
	// Assert pops a value; fails AssertionFailed if it is falsy.
	Assert
)

// CallTarget names the callee of a FunctionCall instruction. Before a
// Program is built, user-defined targets are named (Resolved is false);
// ProgramBuilder.Build rewrites name-keyed calls whose target is a
// user-defined function in the same program to index-keyed calls. Targets
// that resolve to a native function, or to no symbol at all, are left
// name-keyed — the engine resolves (and may fail) those at call time.
type CallTarget struct {
	Name     string
	Index    int
	Resolved bool
}

// Instruction is one bytecode instruction. Only the fields relevant to Op
// are meaningful; see the Opcode constants for which.
type Instruction struct {
	Op      Opcode
	Operand int
	Value   variant.Value
	Target  CallTarget
}
