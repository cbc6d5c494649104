package machine

import "fmt"

// Kind identifies the category of a runtime error raised while running a
// program. Every error that terminates a Run call carries one of these.
type Kind int

const ( //nolint:revive
	UnknownEntryPoint Kind = iota
	UnknownFunction
	UnknownNativeFunction
	PcOutOfBounds
	BadLocalIndex
	StackUnderflow
	TypeError
	BadOperands
	DivisionByZero
	IndexOutOfBounds
	KeyNotFound
	ReturnWithoutValue
	AssertionFailed
	RuntimePanic // originated by the bytecode Panic instruction
	StepLimitExceeded
	DuplicateFunction
)

func (k Kind) String() string {
	switch k {
	case UnknownEntryPoint:
		return "unknown entry point"
	case UnknownFunction:
		return "unknown function"
	case UnknownNativeFunction:
		return "unknown native function"
	case PcOutOfBounds:
		return "program counter out of bounds"
	case BadLocalIndex:
		return "bad local index"
	case StackUnderflow:
		return "stack underflow"
	case TypeError:
		return "type error"
	case BadOperands:
		return "bad operands"
	case DivisionByZero:
		return "division by zero"
	case IndexOutOfBounds:
		return "index out of bounds"
	case KeyNotFound:
		return "key not found"
	case ReturnWithoutValue:
		return "return without value"
	case AssertionFailed:
		return "assertion failed"
	case RuntimePanic:
		return "panic"
	case StepLimitExceeded:
		return "step limit exceeded"
	case DuplicateFunction:
		return "duplicate function"
	default:
		return "unknown error"
	}
}

// Error is a structured runtime error. Every error that terminates a Run
// call is a *Error, so a host can branch on Kind with errors.As rather than
// parsing the message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.Message }

// Is reports whether target is a *Error of the same Kind, so callers can
// write errors.Is(err, &machine.Error{Kind: machine.DivisionByZero}).
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	return ok && te.Kind == e.Kind
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
