package testkit

import "jets/internal/trace"

// Node is an in-memory record for layouts the parsers never produce, such
// as unsorted children or chains deeper than any outline.
type Node struct {
	id       trace.ID
	parent   *Node
	start    int64
	desc     string
	children []*Node
	attrs    trace.Attrs
}

var _ trace.Record = (*Node)(nil)

// NewNode returns a node with the given children, which are adopted in the
// order given.
func NewNode(id trace.ID, start int64, children ...*Node) *Node {
	n := &Node{id: id, start: start, children: children}
	for _, c := range children {
		c.parent = n
	}
	return n
}

// Chain returns the root of a single path of depth nodes numbered from 1.
func Chain(depth int) *Node {
	root := NewNode(1, 0)
	cur := root
	for i := 1; i < depth; i++ {
		c := NewNode(trace.ID(i+1), int64(i))
		c.parent = cur
		cur.children = []*Node{c}
		cur = c
	}
	return root
}

// WithDescription sets the description and returns n.
func (n *Node) WithDescription(d string) *Node {
	n.desc = d
	return n
}

func (n *Node) ID() trace.ID { return n.id }

func (n *Node) ParentID() (trace.ID, bool) {
	if n.parent == nil {
		return 0, false
	}
	return n.parent.id, true
}

func (n *Node) Start() int64            { return n.start }
func (n *Node) End() (int64, bool)      { return 0, false }
func (n *Node) Duration() (int64, bool) { return 0, false }
func (n *Node) Name() string            { return n.desc }
func (n *Node) Kind() string            { return "node" }
func (n *Node) Description() string     { return n.desc }
func (n *Node) NumChildren() int        { return len(n.children) }
func (n *Node) NumEvents() int          { return 0 }
func (n *Node) Attrs() *trace.Attrs     { return &n.attrs }

func (n *Node) EventAt(int) (*trace.Event, bool) { return nil, false }

func (n *Node) ChildAt(i int) (trace.Record, bool) {
	if i < 0 || i >= len(n.children) {
		return nil, false
	}
	return n.children[i], true
}

// SubtreeDepth walks iteratively so that long chains stay cheap on stack.
func (n *Node) SubtreeDepth() int {
	type item struct {
		n *Node
		d int
	}
	deepest := 0
	stack := []item{{n, 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		deepest = max(deepest, it.d)
		for _, c := range it.n.children {
			stack = append(stack, item{c, it.d + 1})
		}
	}
	return deepest
}

// Forest is a trace over Nodes.
type Forest struct {
	roots []*Node
	byID  map[trace.ID]*Node
	meta  trace.Metadata
}

var _ trace.Trace = (*Forest)(nil)

// NewForest indexes every node reachable from roots.
func NewForest(roots ...*Node) *Forest {
	f := &Forest{roots: roots, byID: make(map[trace.ID]*Node)}
	stack := append([]*Node(nil), roots...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		f.byID[n.id] = n
		stack = append(stack, n.children...)
	}
	f.meta = trace.Metadata{Version: "test", Extent: trace.EmptyExtent}
	return f
}

func (f *Forest) Format() trace.Format      { return trace.FormatVirtual }
func (f *Forest) Metadata() *trace.Metadata { return &f.meta }
func (f *Forest) Len() int                  { return len(f.byID) }

func (f *Forest) RootIDs() []trace.ID {
	ids := make([]trace.ID, len(f.roots))
	for i, r := range f.roots {
		ids[i] = r.id
	}
	return ids
}

func (f *Forest) Record(id trace.ID) (trace.Record, bool) {
	n, ok := f.byID[id]
	return n, ok
}
