package machine

// frame is a saved caller context, pushed onto the explicit call-frame
// stack by a FunctionCall and popped by the matching Return. It holds
// everything needed to resume the caller: which function it was in, which
// instruction comes next, and where its locals began on the value stack.
type frame struct {
	fn   int // index into VM.functions
	pc   int // instruction to resume at
	base int // caller's base register
}
