// Package virtual generates deterministic synthetic traces for tests and
// demos. The same Options always produce the same trace.
package virtual

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/cockroachdb/swiss"

	"jets/internal/intern"
	"jets/internal/trace"
)

const (
	Version       = "virtual-1.0"
	CaptureEndClk = int64(1_000_000)
	kind          = "virtual"
)

var header = trace.Value(`{"generator":"VirtualTraceReader","description":"Synthetic trace data for testing"}`)

// Options control the shape of the generated forest.
type Options struct {
	Seed        uint64
	MaxDepth    int
	MaxChildren int
}

// DefaultOptions returns seed 42, depth 5 and up to 10 children per node
// (generation never exceeds 5 children per node).
func DefaultOptions() Options {
	return Options{Seed: 42, MaxDepth: 5, MaxChildren: 10}
}

type node struct {
	id        trace.ID
	parent    trace.ID
	hasParent bool
	start     int64
	end       int64
	name      string
	desc      string
	attrs     trace.Attrs
	events    []trace.Event
	children  []trace.Pos
	leafKids  bool
}

// Trace is a generated trace. Records are handed out as handles holding the
// trace and an arena position.
type Trace struct {
	meta  trace.Metadata
	arena *trace.Arena[node]
	index swiss.Map[trace.ID, trace.Pos]
	roots []trace.ID
}

var _ trace.Trace = (*Trace)(nil)

type generator struct {
	rng     *rand.Rand
	opts    Options
	arena   *trace.Arena[node]
	strings *intern.Interner
	nextID  trace.ID
}

// Generate builds a trace. It never fails.
func Generate(opts Options) *Trace {
	g := &generator{
		rng:     rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		opts:    opts,
		arena:   trace.NewArena[node](256),
		strings: intern.New(64),
		nextID:  1,
	}
	t := &Trace{arena: g.arena}
	for range g.between(1, 6) {
		p := g.record(trace.NoPos, 0, 0)
		t.roots = append(t.roots, g.arena.Get(p).id)
	}

	t.index.Init(g.arena.Len())
	for i := range g.arena.Slice() {
		n := &g.arena.Slice()[i]
		t.index.Put(n.id, trace.PosOf(i))
	}
	t.meta = trace.Metadata{
		Version: Version,
		Header:  header,
		Footer:  &trace.Footer{CaptureEndClk: ptr(CaptureEndClk)},
		Extent: trace.ExtentOf(func(yield func(int64, int64)) {
			for _, n := range g.arena.Slice() {
				yield(n.start, n.end)
			}
		}),
	}
	return t
}

func ptr[T any](v T) *T { return &v }

// between returns a value in [lo, hi).
func (g *generator) between(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo)
}

func (g *generator) between64(lo, hi int64) int64 {
	return lo + g.rng.Int64N(hi-lo)
}

// record generates one record and its subtree and returns its position.
// Positions are re-resolved after every allocation because the arena may
// move its backing store while it grows.
func (g *generator) record(parent trace.Pos, parentEnd int64, depth int) trace.Pos {
	id := g.nextID
	g.nextID++

	start := parentEnd + g.between64(10, 100)
	end := start + g.between64(50, 500)
	n := node{
		id:    id,
		start: start,
		end:   end,
		name:  fmt.Sprintf("Record_%d", id),
		desc:  fmt.Sprintf("Virtual record %d", id),
	}
	if parent != trace.NoPos {
		n.parent, n.hasParent = g.arena.Get(parent).id, true
	}
	for i := range g.between(3, 8) {
		n.attrs.Set(g.strings.Intern(fmt.Sprintf("field_%d", i)), trace.IntValue(int64(g.rng.IntN(1000))))
	}
	for i := range g.between(0, 6) {
		clk := start + g.between64(0, end-start)
		ev := trace.Event{
			Clk:         clk,
			Name:        g.strings.Intern(fmt.Sprintf("Event_%d", i)),
			Description: fmt.Sprintf("Virtual event %d for record %d", i, id),
			RecordID:    id,
		}
		for j := range g.between(1, 4) {
			ev.Attrs.Set(g.strings.Intern(fmt.Sprintf("event_field_%d", j)), trace.IntValue(int64(g.rng.IntN(100))))
		}
		n.events = append(n.events, ev)
	}
	slices.SortStableFunc(n.events, func(a, b trace.Event) int { return cmp.Compare(a.Clk, b.Clk) })

	self := g.arena.Allocate(n)
	if depth < g.opts.MaxDepth {
		var children []trace.Pos
		for range g.between(0, min(max(g.opts.MaxChildren, 0), 5)+1) {
			children = append(children, g.record(self, end, depth+1))
		}
		slices.SortStableFunc(children, func(a, b trace.Pos) int {
			na, nb := g.arena.Get(a), g.arena.Get(b)
			return cmp.Or(cmp.Compare(na.start, nb.start), strings.Compare(na.name, nb.name))
		})
		sn := g.arena.Get(self)
		sn.children = children
		sn.leafKids = !slices.ContainsFunc(children, func(c trace.Pos) bool {
			return len(g.arena.Get(c).children) > 0
		})
	}
	return self
}

func (t *Trace) Format() trace.Format      { return trace.FormatVirtual }
func (t *Trace) Metadata() *trace.Metadata { return &t.meta }
func (t *Trace) RootIDs() []trace.ID       { return t.roots }
func (t *Trace) Len() int                  { return t.arena.Len() }

func (t *Trace) Record(id trace.ID) (trace.Record, bool) {
	p, ok := t.index.Get(id)
	if !ok {
		return nil, false
	}
	return handle{t: t, pos: p}, true
}

// handle is a record reference resolved through the arena on every access.
type handle struct {
	t   *Trace
	pos trace.Pos
}

func (h handle) node() *node { return h.t.arena.Get(h.pos) }

func (h handle) ID() trace.ID { return h.node().id }

func (h handle) ParentID() (trace.ID, bool) {
	n := h.node()
	return n.parent, n.hasParent
}

func (h handle) Start() int64            { return h.node().start }
func (h handle) End() (int64, bool)      { return h.node().end, true }
func (h handle) Duration() (int64, bool) { n := h.node(); return n.end - n.start, true }
func (h handle) Name() string            { return h.node().name }
func (h handle) Kind() string            { return kind }
func (h handle) Description() string     { return h.node().desc }
func (h handle) Attrs() *trace.Attrs     { return &h.node().attrs }
func (h handle) NumChildren() int        { return len(h.node().children) }
func (h handle) NumEvents() int          { return len(h.node().events) }

func (h handle) ChildAt(i int) (trace.Record, bool) {
	children := h.node().children
	if i < 0 || i >= len(children) {
		return nil, false
	}
	return handle{t: h.t, pos: children[i]}, true
}

func (h handle) EventAt(i int) (*trace.Event, bool) {
	events := h.node().events
	if i < 0 || i >= len(events) {
		return nil, false
	}
	return &events[i], true
}

// ChildrenByStart is always true: children are sorted by (start, name).
func (h handle) ChildrenByStart() bool { return true }
func (h handle) LeafChildren() bool    { return h.node().leafKids }

func (h handle) SubtreeDepth() int {
	return trace.Depth(h.NumChildren(), h.ChildAt)
}
