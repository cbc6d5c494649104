package variant

import (
	"sort"
	"strings"

	"github.com/dolthub/swiss"
)

// dictEntry keeps the original key Value alongside the value, since the
// swiss map is keyed by the key's canonical string encoding and Keys
// needs the real Value back, not its string form.
type dictEntry struct {
	key   Value
	value Value
}

// Dictionary is a shared, mutable mapping from Value to Value. Like Array it
// has reference identity. Keys are compared and hashed structurally,
// including recursively through aggregate keys; see canonicalKey.
type Dictionary struct {
	m *swiss.Map[string, dictEntry]
}

var _ Value = (*Dictionary)(nil)

// NewDictionary returns an empty dictionary with initial capacity for at
// least size entries.
func NewDictionary(size int) *Dictionary {
	return &Dictionary{m: swiss.NewMap[string, dictEntry](uint32(size))}
}

func (d *Dictionary) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for _, ck := range d.sortedCanonicalKeys() {
		e, _ := d.m.Get(ck)
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(e.key.String())
		b.WriteString(": ")
		b.WriteString(e.value.String())
	}
	b.WriteByte('}')
	return b.String()
}

func (d *Dictionary) Type() string { return "dictionary" }

// Len returns the number of entries in the dictionary.
func (d *Dictionary) Len() int { return d.m.Count() }

// Get returns the value for key and whether it was present.
func (d *Dictionary) Get(key Value) (Value, bool, error) {
	ck, err := canonicalKey(key)
	if err != nil {
		return nil, false, err
	}
	e, ok := d.m.Get(ck)
	if !ok {
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set inserts or overwrites the value for key.
func (d *Dictionary) Set(key, value Value) error {
	ck, err := canonicalKey(key)
	if err != nil {
		return err
	}
	d.m.Put(ck, dictEntry{key: key, value: value})
	return nil
}

// Keys returns the dictionary's keys as an Array. Iteration order is
// unspecified by the value domain; this implementation returns them sorted
// by canonical key so that Display and tests are deterministic.
func (d *Dictionary) Keys() *Array {
	cks := d.sortedCanonicalKeys()
	keys := make([]Value, 0, len(cks))
	for _, ck := range cks {
		e, _ := d.m.Get(ck)
		keys = append(keys, e.key)
	}
	return NewArray(keys)
}

func (d *Dictionary) pairKeys() []string {
	keys := make([]string, 0, d.m.Count())
	d.m.Iter(func(k string, _ dictEntry) bool {
		keys = append(keys, k)
		return false
	})
	return keys
}

func (d *Dictionary) sortedCanonicalKeys() []string {
	keys := d.pairKeys()
	sort.Strings(keys)
	return keys
}
