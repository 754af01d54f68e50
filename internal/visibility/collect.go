package visibility

import (
	"jets/internal/sorting"
	"jets/internal/trace"
)

// SortedChildren memoizes sorted child orders. The tree cache implements it.
type SortedChildren interface {
	SortedChildren(parent trace.Record, spec sorting.Spec) []int
}

// Options select the optional parts of a visible-row collection.
type Options struct {
	Sort     *sorting.Spec
	Viewport *Viewport
	// Sorted memoizes orders when Sort is set. Nil sorts on every visit.
	Sorted SortedChildren
}

// Row is one visible line of the tree view.
type Row struct {
	ID     trace.ID
	Index  int
	Depth  int
	Branch *Branch
	IsLast bool
	Leaf   bool
}

// Policy builds the traversal policy for expanded under opts.
func (o Options) Policy(expanded Set) Policy {
	var base Policy = Unfiltered{}
	if o.Viewport != nil {
		base = *o.Viewport
	}
	return Expanded(base, expanded)
}

// Order returns the child order provider for opts, or nil for storage order.
func (o Options) Order() ChildOrder {
	if o.Sort == nil {
		return nil
	}
	return sortOrder{spec: *o.Sort, memo: o.Sorted}
}

type sortOrder struct {
	spec sorting.Spec
	memo SortedChildren
}

func (s sortOrder) ChildOrder(parent trace.Record, _ int) ([]int, bool) {
	if s.memo != nil {
		return s.memo.SortedChildren(parent, s.spec), true
	}
	return sorting.SortedChildPositions(parent, s.spec), true
}

// Visible starts a lazy traversal of the rows visible under expanded and opts.
func Visible(tr trace.Trace, expanded Set, opts Options) *Walker {
	return WalkTrace(tr, opts.Policy(expanded), opts.Order())
}

// CollectVisible materializes every visible row.
func CollectVisible(tr trace.Trace, expanded Set, opts Options) []Row {
	var rows []Row
	for n := range Visible(tr, expanded, opts).All() {
		rows = append(rows, Row{
			ID:     n.Record.ID(),
			Index:  n.Row,
			Depth:  n.Depth,
			Branch: n.Branch,
			IsLast: n.IsLast,
			Leaf:   n.Leaf,
		})
	}
	return rows
}

// Count returns the number of nodes p emits over tr.
func Count(tr trace.Trace, p Policy) int {
	n := 0
	w := WalkTrace(tr, p, nil)
	for _, ok := w.Next(); ok; _, ok = w.Next() {
		n++
	}
	return n
}

// Window returns the rows in [offset, offset+height), clamped to rows.
func Window(rows []Row, offset, height int) []Row {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) || height <= 0 {
		return nil
	}
	return rows[offset:min(offset+height, len(rows))]
}

// RowAt returns rows[i] when i is in range.
func RowAt(rows []Row, i int) (Row, bool) {
	if i < 0 || i >= len(rows) {
		return Row{}, false
	}
	return rows[i], true
}
