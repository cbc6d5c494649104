package variant

import "strings"

// Array is a shared, mutable, ordered sequence of values. It has reference
// identity: two locals holding the same *Array alias each other, and a
// mutation through either is visible through both.
type Array struct {
	elems []Value
}

var _ Value = (*Array)(nil)

// NewArray returns an array holding a copy of elems in order.
func NewArray(elems []Value) *Array {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return &Array{elems: cp}
}

func (a *Array) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range a.elems {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.String())
	}
	b.WriteByte(']')
	return b.String()
}

func (a *Array) Type() string { return "array" }

// Len returns the number of elements in the array.
func (a *Array) Len() int { return len(a.elems) }

// At returns the element at index i. The caller must check bounds first.
func (a *Array) At(i int) Value { return a.elems[i] }

// Set assigns the element at index i in place. The caller must check bounds
// first.
func (a *Array) Set(i int, v Value) { a.elems[i] = v }

// Elems returns the array's backing slice. The caller must not retain a
// reference to it beyond the current operation, since the array may be
// mutated concurrently with later instructions.
func (a *Array) Elems() []Value { return a.elems }
