package compiler

// Kind identifies the category of a build-time error raised by the Block
// Encoder or the textual assembler.
type Kind int

const (
	UndeclaredLocal Kind = iota
	UndeclaredLabel
	AssembleSyntax // textual assembler/disassembler format error
)

func (k Kind) String() string {
	switch k {
	case UndeclaredLocal:
		return "undeclared local"
	case UndeclaredLabel:
		return "undeclared label"
	case AssembleSyntax:
		return "assemble syntax error"
	default:
		return "unknown"
	}
}

// Error is a structured build-time error. It carries a Kind so callers can
// use errors.As to branch on the category without parsing Message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.Message }

// Is reports whether target is a *Error of the same Kind, so callers can
// write errors.Is(err, &compiler.Error{Kind: compiler.UndeclaredLabel}).
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	return ok && te.Kind == e.Kind
}
