package variant

// Str is the string variant. Unlike Go's string type it carries no quoting:
// String() returns the text itself, which is what Print writes.
type Str string

var _ Value = Str("")

func (s Str) String() string { return string(s) }
func (s Str) Type() string   { return "string" }
