package variant

// Null is the distinct "no value" inhabitant. It is not absence: declared
// local slots start out holding Null, not some Go nil.
type Null struct{}

func (Null) String() string { return "null" }
func (Null) Type() string   { return "null" }
