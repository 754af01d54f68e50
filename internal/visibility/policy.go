// Package visibility decides which records of a trace are shown and in what
// order. A Policy answers per-node questions; a Walker applies one to a
// forest with an explicit stack so arbitrarily deep traces never grow the
// goroutine stack.
package visibility

import (
	"sort"

	"jets/internal/trace"
)

// Policy is consulted for every node a traversal reaches.
type Policy interface {
	// IncludeParent reports whether a record with children is emitted.
	IncludeParent(r trace.Record, depth int) bool
	// IncludeLeaf reports whether a record without children is emitted.
	IncludeLeaf(r trace.Record, depth int) bool
	// DescendInto reports whether the children of r are visited at all.
	DescendInto(r trace.Record, depth int) bool
	// ChildWindow optionally narrows the children of r to [lo, hi).
	// ok is false when every child must be considered.
	ChildWindow(r trace.Record, depth int) (lo, hi int, ok bool)
}

// Unfiltered shows every record and descends everywhere.
type Unfiltered struct{}

var _ Policy = Unfiltered{}

func (Unfiltered) IncludeParent(trace.Record, int) bool { return true }
func (Unfiltered) IncludeLeaf(trace.Record, int) bool   { return true }
func (Unfiltered) DescendInto(trace.Record, int) bool   { return true }

func (Unfiltered) ChildWindow(trace.Record, int) (int, int, bool) { return 0, 0, false }

// Viewport restricts leaves to the closed clock interval [Start, End].
// Parents are always shown; subtrees starting after End are pruned.
type Viewport struct {
	Start int64
	End   int64
}

var _ Policy = Viewport{}

func (v Viewport) IncludeParent(trace.Record, int) bool { return true }

func (v Viewport) IncludeLeaf(r trace.Record, _ int) bool {
	clk := r.Start()
	return clk >= v.Start && clk <= v.End
}

func (v Viewport) DescendInto(r trace.Record, _ int) bool {
	return r.Start() <= v.End
}

// ChildWindow binary-searches the children of r for the leaves inside the
// viewport. It only applies when all children are leaves stored in
// ascending start order; otherwise every child is scanned.
func (v Viewport) ChildWindow(r trace.Record, _ int) (int, int, bool) {
	n := r.NumChildren()
	if n == 0 || !leavesByStart(r, n) {
		return 0, 0, false
	}
	lo := sort.Search(n, func(i int) bool { return childStart(r, i) >= v.Start })
	hi := sort.Search(n, func(i int) bool { return childStart(r, i) > v.End })
	if lo >= hi {
		return 0, 0, true
	}
	return lo, hi, true
}

// Contains reports whether clk falls inside the viewport.
func (v Viewport) Contains(clk int64) bool {
	return clk >= v.Start && clk <= v.End
}

func childStart(r trace.Record, i int) int64 {
	c, ok := r.ChildAt(i)
	if !ok {
		return 0
	}
	return c.Start()
}

// leavesByStart reports whether r's children are all leaves in ascending
// start order. Records that describe their own layout are trusted.
func leavesByStart(r trace.Record, n int) bool {
	if l, ok := r.(trace.ChildLayout); ok {
		return l.ChildrenByStart() && l.LeafChildren()
	}
	prev := int64(0)
	for i := range n {
		c, ok := r.ChildAt(i)
		if !ok || c.NumChildren() > 0 {
			return false
		}
		if i > 0 && c.Start() < prev {
			return false
		}
		prev = c.Start()
	}
	return true
}

type expanded struct {
	base Policy
	set  Set
}

// Expanded wraps base so that only expanded parents are descended into.
// Inclusion and windowing are delegated to base.
func Expanded(base Policy, set Set) Policy {
	return expanded{base: base, set: set}
}

func (e expanded) IncludeParent(r trace.Record, depth int) bool {
	return e.base.IncludeParent(r, depth)
}

func (e expanded) IncludeLeaf(r trace.Record, depth int) bool {
	return e.base.IncludeLeaf(r, depth)
}

func (e expanded) DescendInto(r trace.Record, depth int) bool {
	return e.set.Has(r.ID()) && e.base.DescendInto(r, depth)
}

func (e expanded) ChildWindow(r trace.Record, depth int) (int, int, bool) {
	return e.base.ChildWindow(r, depth)
}
