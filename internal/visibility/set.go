package visibility

import (
	"maps"
	"slices"

	"jets/internal/trace"
)

// Set is a set of expanded record ids. The zero value is an empty set that
// can be read but not written.
type Set map[trace.ID]struct{}

// NewSet returns a set holding ids.
func NewSet(ids ...trace.ID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Set) Has(id trace.ID) bool {
	_, ok := s[id]
	return ok
}

func (s Set) Add(id trace.ID)    { s[id] = struct{}{} }
func (s Set) Remove(id trace.ID) { delete(s, id) }

// Toggle flips id and reports whether it is now expanded.
func (s Set) Toggle(id trace.ID) bool {
	if s.Has(id) {
		delete(s, id)
		return false
	}
	s[id] = struct{}{}
	return true
}

// IDs returns the members in ascending order.
func (s Set) IDs() []trace.ID {
	return slices.Sorted(maps.Keys(s))
}

// ExpandAll returns a set holding every record of tr that has children.
func ExpandAll(tr trace.Trace) Set {
	s := make(Set)
	stack := slices.Collect(trace.Roots(tr))
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if r.NumChildren() == 0 {
			continue
		}
		s[r.ID()] = struct{}{}
		for c := range trace.Children(r) {
			stack = append(stack, c)
		}
	}
	return s
}
