package ui

import (
	"slices"

	"jets/internal/sorting"
	"jets/internal/trace"
	"jets/internal/treecache"
	"jets/internal/visibility"
)

// State is the tree viewer without a terminal: expansion, selection,
// scrolling, sort order and the viewport filter over one trace. Every
// mutation recollects the visible rows and keeps the selected record
// selected when it is still visible.
type State struct {
	tr       trace.Trace
	cache    *treecache.Cache
	expanded visibility.Set

	sort   *sorting.Spec
	filter *visibility.Viewport
	// fixed is the range the filter uses instead of the on-screen rows.
	fixed *visibility.Viewport

	rows     []visibility.Row
	selected int
	offset   int
	height   int
}

func NewState(tr trace.Trace, height int) *State {
	s := &State{
		tr:       tr,
		cache:    treecache.New(),
		expanded: visibility.NewSet(),
		height:   max(height, 1),
	}
	s.refresh(0, false)
	return s
}

func (s *State) Trace() trace.Trace                  { return s.tr }
func (s *State) Rows() []visibility.Row              { return s.rows }
func (s *State) Expanded() visibility.Set            { return s.expanded }
func (s *State) Cursor() int                         { return s.selected }
func (s *State) Offset() int                         { return s.offset }
func (s *State) Height() int                         { return s.height }
func (s *State) Window() []visibility.Row            { return visibility.Window(s.rows, s.offset, s.height) }
func (s *State) Selected() (visibility.Row, bool)    { return visibility.RowAt(s.rows, s.selected) }
func (s *State) Filter() (visibility.Viewport, bool) { return deref(s.filter) }

func (s *State) Sort() (sorting.Spec, bool) {
	if s.sort == nil {
		return sorting.Spec{}, false
	}
	return *s.sort, true
}

func deref(v *visibility.Viewport) (visibility.Viewport, bool) {
	if v == nil {
		return visibility.Viewport{}, false
	}
	return *v, true
}

// TotalRows is the number of rows without the viewport filter.
func (s *State) TotalRows() int {
	return s.cache.TotalVisible(s.tr, s.expanded)
}

// MaxDepth is the deepest visible level without the viewport filter.
func (s *State) MaxDepth() int {
	return s.cache.MaxVisibleDepth(s.tr, s.expanded)
}

// SetHeight changes the number of rows on screen.
func (s *State) SetHeight(h int) {
	s.height = max(h, 1)
	s.scrollToCursor()
}

// Move shifts the selection by delta rows, clamped to the list.
func (s *State) Move(delta int) {
	if len(s.rows) == 0 {
		return
	}
	s.selected = min(max(s.selected+delta, 0), len(s.rows)-1)
	s.scrollToCursor()
}

func (s *State) Home() { s.Move(-len(s.rows)) }
func (s *State) End()  { s.Move(len(s.rows)) }

func (s *State) scrollToCursor() {
	switch {
	case s.selected < s.offset:
		s.offset = s.selected
	case s.selected >= s.offset+s.height:
		s.offset = s.selected - s.height + 1
	}
	s.offset = max(min(s.offset, len(s.rows)-s.height), 0)
}

// Toggle expands or collapses the selected record. Leaves are left alone.
func (s *State) Toggle() bool {
	row, ok := s.Selected()
	if !ok || row.Leaf {
		return false
	}
	s.expanded.Toggle(row.ID)
	s.expansionChanged()
	return true
}

// ExpandAll expands every record with children.
func (s *State) ExpandAll() {
	s.expanded = visibility.ExpandAll(s.tr)
	s.expansionChanged()
}

func (s *State) CollapseAll() {
	s.expanded = visibility.NewSet()
	s.expansionChanged()
}

// ExpandDepth expands every record above depth, so levels 0..depth show.
func (s *State) ExpandDepth(depth int) {
	if depth <= 0 {
		return
	}
	type item struct {
		r     trace.Record
		depth int
	}
	var stack []item
	for r := range trace.Roots(s.tr) {
		stack = append(stack, item{r, 0})
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.depth >= depth || it.r.NumChildren() == 0 {
			continue
		}
		s.expanded.Add(it.r.ID())
		for c := range trace.Children(it.r) {
			stack = append(stack, item{c, it.depth + 1})
		}
	}
	s.expansionChanged()
}

func (s *State) expansionChanged() {
	s.cache.Invalidate()
	s.refresh(s.selectedID())
}

// SetSort orders children by spec; nil restores storage order.
func (s *State) SetSort(spec *sorting.Spec) {
	s.sort = spec
	if spec != nil {
		s.cache.PrecomputeSorted(s.tr, *spec)
	}
	s.refresh(s.selectedID())
}

// CycleSort moves to the next sort key, starting from description.
func (s *State) CycleSort() {
	spec := sorting.Spec{Key: sorting.KeyDescription}
	if s.sort != nil {
		spec = sorting.Spec{Key: s.sort.Key.Next(), Dir: s.sort.Dir}
	}
	s.SetSort(&spec)
}

// FlipSort reverses the direction, sorting by description if unsorted.
func (s *State) FlipSort() {
	spec := sorting.Spec{Key: sorting.KeyDescription}
	if s.sort != nil {
		spec = s.sort.Toggle()
	}
	s.SetSort(&spec)
}

// SetRange fixes the window the filter uses. Nil goes back to the time
// range of the rows on screen.
func (s *State) SetRange(v *visibility.Viewport) {
	s.fixed = v
	if s.filter != nil && v != nil {
		s.setFilter(v)
	}
}

// ToggleFilter switches the viewport filter. Turning it on uses the fixed
// range if one was set, otherwise the time span of the rows on screen.
func (s *State) ToggleFilter() {
	if s.filter != nil {
		s.setFilter(nil)
		return
	}
	if s.fixed != nil {
		s.setFilter(s.fixed)
		return
	}
	if v, ok := s.screenRange(); ok {
		s.setFilter(&v)
	}
}

func (s *State) setFilter(v *visibility.Viewport) {
	if v != nil {
		cp := *v
		v = &cp
	}
	s.filter = v
	s.cache.InvalidateFiltered()
	s.refresh(s.selectedID())
}

// FilteredRows is the row count under the active filter, or TotalRows.
func (s *State) FilteredRows() int {
	if s.filter == nil {
		return s.TotalRows()
	}
	return s.cache.FilteredCount(s.tr, s.expanded, *s.filter)
}

func (s *State) screenRange() (visibility.Viewport, bool) {
	var v visibility.Viewport
	seen := false
	for _, row := range s.Window() {
		r, ok := s.tr.Record(row.ID)
		if !ok {
			continue
		}
		end, hasEnd := r.End()
		if !hasEnd {
			end = r.Start()
		}
		if !seen {
			v, seen = visibility.Viewport{Start: r.Start(), End: end}, true
			continue
		}
		v.Start = min(v.Start, r.Start())
		v.End = max(v.End, end)
	}
	return v, seen
}

func (s *State) options() visibility.Options {
	return visibility.Options{Sort: s.sort, Viewport: s.filter, Sorted: s.cache}
}

func (s *State) selectedID() (trace.ID, bool) {
	row, ok := s.Selected()
	return row.ID, ok
}

// refresh recollects rows and moves the cursor to keep when ok, or clamps
// it when keep is not given or no longer visible.
func (s *State) refresh(keep trace.ID, ok bool) {
	s.rows = visibility.CollectVisible(s.tr, s.expanded, s.options())
	if ok {
		if i := slices.IndexFunc(s.rows, func(r visibility.Row) bool { return r.ID == keep }); i >= 0 {
			s.selected = i
		}
	}
	s.selected = max(min(s.selected, len(s.rows)-1), 0)
	s.scrollToCursor()
}

// Snapshot captures the state for path.
func (s *State) Snapshot(path string) *Session {
	sess := &Session{Path: path, Offset: s.offset}
	if id, ok := s.selectedID(); ok {
		sess.Selected, sess.HasSelected = uint64(id), true
	}
	for _, id := range s.expanded.IDs() {
		sess.Expanded = append(sess.Expanded, uint64(id))
	}
	if s.sort != nil {
		sess.Sort = s.sort.String()
	}
	if s.filter != nil {
		sess.Filter, sess.From, sess.To = true, s.filter.Start, s.filter.End
	}
	return sess
}

// Restore applies a saved session. Ids the trace no longer has are
// dropped, and an unparsable sort falls back to storage order.
func (s *State) Restore(sess *Session) {
	s.expanded = visibility.NewSet()
	for _, id := range sess.Expanded {
		if _, ok := s.tr.Record(trace.ID(id)); ok {
			s.expanded.Add(trace.ID(id))
		}
	}
	s.cache.Invalidate()
	s.sort = nil
	if spec, err := sorting.ParseSpec(sess.Sort); sess.Sort != "" && err == nil {
		s.sort = &spec
		s.cache.PrecomputeSorted(s.tr, spec)
	}
	s.filter = nil
	if sess.Filter {
		s.filter = &visibility.Viewport{Start: sess.From, End: sess.To}
	}
	s.offset = sess.Offset
	s.refresh(trace.ID(sess.Selected), sess.HasSelected)
}
