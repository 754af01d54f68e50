package jets

import (
	"sync/atomic"

	"github.com/cockroachdb/swiss"

	"jets/internal/trace"
)

// record is one node of a parsed trace. It lives in the trace's arena and
// learns which arena it belongs to on first access.
type record struct {
	id        trace.ID
	parent    trace.ID
	hasParent bool
	start     int64
	end       int64
	hasEnd    bool
	name      string
	kind      string
	desc      string
	attrs     trace.Attrs
	events    []trace.Event
	children  []trace.Pos
	leafKids  bool

	arena atomic.Pointer[trace.Arena[record]]
}

// attach binds r to a on first use. Later calls keep the first arena.
func (r *record) attach(a *trace.Arena[record]) *trace.Arena[record] {
	if r.arena.CompareAndSwap(nil, a) {
		return a
	}
	return r.arena.Load()
}

func (r *record) ID() trace.ID { return r.id }

func (r *record) ParentID() (trace.ID, bool) { return r.parent, r.hasParent }

func (r *record) Start() int64 { return r.start }

func (r *record) End() (int64, bool) { return r.end, r.hasEnd }

func (r *record) Duration() (int64, bool) {
	if !r.hasEnd {
		return 0, false
	}
	return r.end - r.start, true
}

func (r *record) Name() string        { return r.name }
func (r *record) Kind() string        { return r.kind }
func (r *record) Description() string { return r.desc }
func (r *record) Attrs() *trace.Attrs { return &r.attrs }
func (r *record) NumChildren() int    { return len(r.children) }
func (r *record) NumEvents() int      { return len(r.events) }

func (r *record) ChildAt(i int) (trace.Record, bool) {
	if i < 0 || i >= len(r.children) {
		return nil, false
	}
	a := r.arena.Load()
	if a == nil {
		return nil, false
	}
	c := a.Get(r.children[i])
	if c == nil {
		return nil, false
	}
	c.attach(a)
	return c, true
}

func (r *record) EventAt(i int) (*trace.Event, bool) {
	if i < 0 || i >= len(r.events) {
		return nil, false
	}
	return &r.events[i], true
}

// ChildrenByStart is always true: children are sorted by (start, name).
func (r *record) ChildrenByStart() bool { return true }

func (r *record) LeafChildren() bool { return r.leafKids }

func (r *record) SubtreeDepth() int {
	return trace.Depth(len(r.children), r.ChildAt)
}

// Trace is a parsed JETS trace.
type Trace struct {
	meta     trace.Metadata
	arena    *trace.Arena[record]
	index    swiss.Map[trace.ID, trace.Pos]
	roots    []trace.ID
	interned int
}

var _ trace.Trace = (*Trace)(nil)

func (t *Trace) Format() trace.Format { return trace.FormatJETS }

func (t *Trace) Metadata() *trace.Metadata { return &t.meta }

func (t *Trace) RootIDs() []trace.ID { return t.roots }

func (t *Trace) Len() int { return t.arena.Len() }

func (t *Trace) Record(id trace.ID) (trace.Record, bool) {
	p, ok := t.index.Get(id)
	if !ok {
		return nil, false
	}
	r := t.arena.Get(p)
	if r == nil {
		return nil, false
	}
	r.attach(t.arena)
	return r, true
}

// InternedStrings is the number of distinct strings the parse kept.
func (t *Trace) InternedStrings() int { return t.interned }
