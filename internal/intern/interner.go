// Package intern deduplicates repeated strings seen while building a trace.
package intern

import (
	"slices"
	"strings"
)

// Interner maps every distinct string to one shared copy.
// It has a single owner: a parse or a generation run. The zero value is
// ready to use.
type Interner struct {
	byOrder []string          // first-seen order
	index   map[string]string // value -> canonical copy
}

// New returns an interner sized for capHint distinct strings.
func New(capHint int) *Interner {
	return &Interner{
		byOrder: make([]string, 0, capHint),
		index:   make(map[string]string, capHint),
	}
}

// Intern returns the canonical copy of s. Equal inputs yield strings that
// share the same backing bytes.
func (in *Interner) Intern(s string) string {
	if c, ok := in.index[s]; ok {
		return c
	}
	if in.index == nil {
		in.index = make(map[string]string)
	}
	// own the bytes so callers may reuse their buffers
	c := strings.Clone(s)
	in.byOrder = append(in.byOrder, c)
	in.index[c] = c
	return c
}

// InternBytes interns b. Known values are returned without allocating.
func (in *Interner) InternBytes(b []byte) string {
	if c, ok := in.index[string(b)]; ok {
		return c
	}
	return in.Intern(string(b))
}

// Len returns the number of distinct strings interned since the last Clear.
func (in *Interner) Len() int {
	return len(in.byOrder)
}

// IsEmpty reports whether nothing has been interned.
func (in *Interner) IsEmpty() bool {
	return len(in.byOrder) == 0
}

// Clear drops the whole pool.
func (in *Interner) Clear() {
	clear(in.byOrder)
	in.byOrder = in.byOrder[:0]
	clear(in.index)
}

// Snapshot returns the distinct strings in first-seen order.
func (in *Interner) Snapshot() []string {
	return slices.Clone(in.byOrder)
}
