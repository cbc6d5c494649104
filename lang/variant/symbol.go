package variant

// Symbol is a SymbolReference: a variant that names an entry in a program's
// symbol table rather than holding a value directly. The engine does not
// resolve it implicitly; code that wants the referenced function or value
// must do so explicitly.
type Symbol string

var _ Value = Symbol("")

func (s Symbol) String() string { return "symbol(" + string(s) + ")" }
func (s Symbol) Type() string   { return "symbol" }
