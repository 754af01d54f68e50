package visibility

import (
	"iter"

	"jets/internal/trace"
)

// ChildOrder supplies a custom visiting order for the children of a parent.
// ok is false when storage order (or the policy's window) applies.
type ChildOrder interface {
	ChildOrder(parent trace.Record, depth int) (order []int, ok bool)
}

// Node is one emitted record together with its tree-drawing context.
type Node struct {
	Record trace.Record
	// Row is the position in emission order.
	Row   int
	Depth int
	Branch *Branch
	// IsLast is set on the last child of its parent in visiting order and on
	// the last root.
	IsLast bool
	Leaf   bool
}

// Branch holds, per ancestor level, whether a continuation line is drawn
// there. Siblings share one Branch and each level links to its parent's, so
// deep trees cost one Branch per expanded parent.
type Branch struct {
	up  *Branch
	on  bool
	len int
}

// Len is the number of levels, equal to the depth of the row.
func (b *Branch) Len() int {
	if b == nil {
		return 0
	}
	return b.len
}

// Bits materializes the flags from the outermost level inwards.
func (b *Branch) Bits() []bool {
	out := make([]bool, b.Len())
	for p := b; p != nil; p = p.up {
		out[p.len-1] = p.on
	}
	return out
}

func (b *Branch) extend(on bool) *Branch {
	return &Branch{up: b, on: on, len: b.Len() + 1}
}

type frame struct {
	rec    trace.Record
	depth  int
	branch *Branch
	isLast bool
}

// Walker is a lazy pre-order traversal driven by a Policy.
type Walker struct {
	policy Policy
	order  ChildOrder
	stack  []frame
	row    int
}

// Walk starts a traversal over roots. order may be nil.
func Walk(roots []trace.Record, p Policy, order ChildOrder) *Walker {
	w := &Walker{policy: p, order: order, stack: make([]frame, 0, len(roots)+16)}
	for i := len(roots) - 1; i >= 0; i-- {
		w.stack = append(w.stack, frame{rec: roots[i], isLast: i == len(roots)-1})
	}
	return w
}

// WalkTrace starts a traversal over the roots of tr.
func WalkTrace(tr trace.Trace, p Policy, order ChildOrder) *Walker {
	var roots []trace.Record
	for r := range trace.Roots(tr) {
		roots = append(roots, r)
	}
	return Walk(roots, p, order)
}

// Next returns the next emitted node, or false when the traversal is done.
func (w *Walker) Next() (Node, bool) {
	for len(w.stack) > 0 {
		f := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]

		if n := f.rec.NumChildren(); n > 0 {
			if w.policy.DescendInto(f.rec, f.depth) {
				w.push(f, n)
			}
			if w.policy.IncludeParent(f.rec, f.depth) {
				return w.emit(f, false), true
			}
			continue
		}
		if w.policy.IncludeLeaf(f.rec, f.depth) {
			return w.emit(f, true), true
		}
	}
	return Node{}, false
}

// All yields the remaining nodes.
func (w *Walker) All() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for {
			n, ok := w.Next()
			if !ok || !yield(n) {
				return
			}
		}
	}
}

func (w *Walker) emit(f frame, leaf bool) Node {
	n := Node{
		Record: f.rec,
		Row:    w.row,
		Depth:  f.depth,
		Branch: f.branch,
		IsLast: f.isLast,
		Leaf:   leaf,
	}
	w.row++
	return n
}

// push schedules the children of f so that they pop in visiting order.
func (w *Walker) push(f frame, n int) {
	branch := f.branch.extend(!f.isLast)
	depth := f.depth + 1

	if w.order != nil {
		if order, ok := w.order.ChildOrder(f.rec, f.depth); ok {
			for i := len(order) - 1; i >= 0; i-- {
				if c, ok := f.rec.ChildAt(order[i]); ok {
					w.stack = append(w.stack, frame{rec: c, depth: depth, branch: branch, isLast: i == len(order)-1})
				}
			}
			return
		}
	}

	lo, hi := 0, n
	if l, h, ok := w.policy.ChildWindow(f.rec, f.depth); ok {
		lo, hi = max(l, 0), min(h, n)
	}
	for i := hi - 1; i >= lo; i-- {
		if c, ok := f.rec.ChildAt(i); ok {
			w.stack = append(w.stack, frame{rec: c, depth: depth, branch: branch, isLast: i == hi-1})
		}
	}
}
