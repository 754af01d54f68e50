// Package sorting orders the children of a record by a user-selected key,
// independently of storage order.
package sorting

import (
	"cmp"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"jets/internal/trace"
)

// Key selects the field children are ordered by.
type Key uint8

const (
	KeyDescription Key = iota
	KeyStart
	KeyDuration
)

func (k Key) String() string {
	switch k {
	case KeyDescription:
		return "description"
	case KeyStart:
		return "start"
	case KeyDuration:
		return "duration"
	default:
		return "unknown"
	}
}

// Next cycles description -> start -> duration -> description.
func (k Key) Next() Key {
	return (k + 1) % 3
}

// Dir is the sort direction.
type Dir uint8

const (
	Asc Dir = iota
	Desc
)

func (d Dir) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// Spec is a key plus a direction. It is comparable and usable as a map key.
type Spec struct {
	Key Key
	Dir Dir
}

// Toggle flips the direction.
func (s Spec) Toggle() Spec {
	s.Dir = 1 - s.Dir
	return s
}

func (s Spec) String() string {
	return s.Key.String() + ":" + s.Dir.String()
}

// ParseSpec parses "key" or "key:dir", e.g. "duration:desc".
func ParseSpec(s string) (Spec, error) {
	name, dir, hasDir := strings.Cut(strings.ToLower(strings.TrimSpace(s)), ":")
	var spec Spec
	switch name {
	case "description", "name":
		spec.Key = KeyDescription
	case "start", "clk":
		spec.Key = KeyStart
	case "duration", "dur":
		spec.Key = KeyDuration
	default:
		return Spec{}, errors.Newf("unknown sort key %q (expected: description|start|duration)", name)
	}
	if hasDir {
		switch dir {
		case "asc":
			spec.Dir = Asc
		case "desc":
			spec.Dir = Desc
		default:
			return Spec{}, errors.Newf("unknown sort direction %q (expected: asc|desc)", dir)
		}
	}
	return spec, nil
}

// childKey carries exactly one of the sortable fields, chosen by tag.
type childKey struct {
	tag    Key
	desc   string
	start  int64
	dur    int64
	hasDur bool
}

func keyOf(r trace.Record, k Key) childKey {
	switch k {
	case KeyDescription:
		return childKey{tag: k, desc: r.Description()}
	case KeyStart:
		return childKey{tag: k, start: r.Start()}
	default:
		d, ok := r.Duration()
		return childKey{tag: k, dur: d, hasDur: ok}
	}
}

func (a childKey) compare(b childKey) int {
	switch a.tag {
	case KeyDescription:
		return strings.Compare(a.desc, b.desc)
	case KeyStart:
		return cmp.Compare(a.start, b.start)
	default:
		// a missing duration sorts first
		if a.hasDur != b.hasDur {
			if a.hasDur {
				return 1
			}
			return -1
		}
		return cmp.Compare(a.dur, b.dur)
	}
}

// SortedChildPositions returns the child indices of parent ordered by spec.
// The sort is stable, so equal keys keep storage order in both directions.
func SortedChildPositions(parent trace.Record, spec Spec) []int {
	type item struct {
		index int
		key   childKey
	}
	n := parent.NumChildren()
	items := make([]item, 0, n)
	for i := range n {
		c, ok := parent.ChildAt(i)
		if !ok {
			continue
		}
		items = append(items, item{index: i, key: keyOf(c, spec.Key)})
	}
	slices.SortStableFunc(items, func(a, b item) int {
		if spec.Dir == Desc {
			return b.key.compare(a.key)
		}
		return a.key.compare(b.key)
	})
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.index
	}
	return out
}
