// Package treecache memoizes the aggregate tree queries the viewer asks on
// every frame: visible subtree sizes, total visible rows, the deepest
// visible level, sorted child orders and the row count under a viewport.
//
// A Cache belongs to one trace and one expansion set. Callers invalidate it
// whenever either changes; it never looks at expansion state on its own.
package treecache

import (
	"jets/internal/sorting"
	"jets/internal/trace"
	"jets/internal/visibility"
)

type sortKey struct {
	parent trace.ID
	spec   sorting.Spec
}

type filtered struct {
	start, end int64
	count      int
}

// Cache is not safe for concurrent use.
type Cache struct {
	seq uint64

	sizes     map[trace.ID]int
	collapsed map[trace.ID]bool
	total     int
	haveTotal bool
	depth     int
	haveDepth bool

	sorted   map[sortKey][]int
	filtered *filtered
}

var _ visibility.SortedChildren = (*Cache)(nil)

func New() *Cache {
	return &Cache{
		sizes:     make(map[trace.ID]int),
		collapsed: make(map[trace.ID]bool),
		sorted:    make(map[sortKey][]int),
	}
}

// Seq increases on every Invalidate.
func (c *Cache) Seq() uint64 { return c.seq }

// Invalidate drops everything. Call it when the expansion set changes or a
// new trace is loaded.
func (c *Cache) Invalidate() {
	clear(c.sizes)
	clear(c.collapsed)
	clear(c.sorted)
	c.haveTotal, c.haveDepth = false, false
	c.seq++
	c.InvalidateFiltered()
}

// InvalidateFiltered drops only the viewport row count. Call it when the
// viewport range changes or the filter is toggled.
func (c *Cache) InvalidateFiltered() {
	c.filtered = nil
}

// FilteredValid reports whether the cached filtered count belongs to
// [start, end].
func (c *Cache) FilteredValid(start, end int64) bool {
	return c.filtered != nil && c.filtered.start == start && c.filtered.end == end
}

// SubtreeSize is the number of visible rows at and below id: 1 for a
// collapsed record, 1 plus the children's sizes for an expanded one.
// Unknown ids have size 0.
func (c *Cache) SubtreeSize(tr trace.Trace, expanded visibility.Set, id trace.ID) int {
	if n, ok := c.sizes[id]; ok {
		return n
	}
	r, ok := tr.Record(id)
	if !ok {
		return 0
	}

	type item struct {
		r    trace.Record
		done bool
	}
	stack := []item{{r: r}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		rid := it.r.ID()
		if _, ok := c.sizes[rid]; ok {
			continue
		}
		if !expanded.Has(rid) || it.r.NumChildren() == 0 {
			c.sizes[rid] = 1
			continue
		}
		if !it.done {
			stack = append(stack, item{r: it.r, done: true})
			for ch := range trace.Children(it.r) {
				if _, ok := c.sizes[ch.ID()]; !ok {
					stack = append(stack, item{r: ch})
				}
			}
			continue
		}
		total := 1
		for ch := range trace.Children(it.r) {
			total += c.sizes[ch.ID()]
		}
		c.sizes[rid] = total
	}
	return c.sizes[id]
}

// TotalVisible is the number of rows an unfiltered view shows.
func (c *Cache) TotalVisible(tr trace.Trace, expanded visibility.Set) int {
	if c.haveTotal {
		return c.total
	}
	total := 0
	for _, id := range tr.RootIDs() {
		total += c.SubtreeSize(tr, expanded, id)
	}
	c.total, c.haveTotal = total, true
	return total
}

// MaxVisibleDepth is the deepest visible level; roots are at depth 0.
func (c *Cache) MaxVisibleDepth(tr trace.Trace, expanded visibility.Set) int {
	if c.haveDepth {
		return c.depth
	}
	type item struct {
		r     trace.Record
		depth int
	}
	var stack []item
	for r := range trace.Roots(tr) {
		stack = append(stack, item{r: r})
	}
	deepest := 0
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		deepest = max(deepest, it.depth)
		if !expanded.Has(it.r.ID()) {
			continue
		}
		for ch := range trace.Children(it.r) {
			stack = append(stack, item{r: ch, depth: it.depth + 1})
		}
	}
	c.depth, c.haveDepth = deepest, true
	return deepest
}

// AllChildrenCollapsed reports whether no child of id is expanded. Records
// without children, and unknown ids, count as collapsed.
func (c *Cache) AllChildrenCollapsed(tr trace.Trace, expanded visibility.Set, id trace.ID) bool {
	if v, ok := c.collapsed[id]; ok {
		return v
	}
	all := true
	if r, ok := tr.Record(id); ok {
		for ch := range trace.Children(r) {
			if expanded.Has(ch.ID()) {
				all = false
				break
			}
		}
	}
	c.collapsed[id] = all
	return all
}

// FilteredCount is the number of rows shown under viewport v.
func (c *Cache) FilteredCount(tr trace.Trace, expanded visibility.Set, v visibility.Viewport) int {
	if c.FilteredValid(v.Start, v.End) {
		return c.filtered.count
	}
	n := visibility.Count(tr, visibility.Expanded(v, expanded))
	c.filtered = &filtered{start: v.Start, end: v.End, count: n}
	return n
}

// SortedChildren returns the memoized order of parent's children under spec.
func (c *Cache) SortedChildren(parent trace.Record, spec sorting.Spec) []int {
	k := sortKey{parent: parent.ID(), spec: spec}
	if order, ok := c.sorted[k]; ok {
		return order
	}
	order := sorting.SortedChildPositions(parent, spec)
	c.sorted[k] = order
	return order
}

// PrecomputeSorted replaces the memoized orders with spec's order for every
// parent in tr, so later traversals never sort.
func (c *Cache) PrecomputeSorted(tr trace.Trace, spec sorting.Spec) {
	clear(c.sorted)
	stack := make([]trace.Record, 0, len(tr.RootIDs()))
	for r := range trace.Roots(tr) {
		stack = append(stack, r)
	}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if r.NumChildren() == 0 {
			continue
		}
		for _, i := range c.SortedChildren(r, spec) {
			if ch, ok := r.ChildAt(i); ok {
				stack = append(stack, ch)
			}
		}
	}
}

// SortedLen is the number of memoized child orders.
func (c *Cache) SortedLen() int { return len(c.sorted) }
