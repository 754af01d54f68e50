package trace

import "iter"

// ID identifies a record within one trace.
type ID uint64

// Record is the capability set every backend record provides.
type Record interface {
	ID() ID
	ParentID() (ID, bool)
	// Start is the creation timestamp (the "clk" of the record line).
	Start() int64
	End() (int64, bool)
	Duration() (int64, bool)
	Name() string
	// Kind is the record_type.
	Kind() string
	Description() string

	NumChildren() int
	ChildAt(i int) (Record, bool)
	NumEvents() int
	EventAt(i int) (*Event, bool)
	Attrs() *Attrs

	// SubtreeDepth is 0 for a leaf, otherwise 1 + the deepest child.
	// It is recomputed on every call.
	SubtreeDepth() int
}

// Event is a point-in-time marker attached to a record.
type Event struct {
	Clk         int64
	Name        string
	Description string
	RecordID    ID
	Attrs       Attrs
}

// Trace is the capability set every backend trace provides.
type Trace interface {
	Format() Format
	Metadata() *Metadata
	RootIDs() []ID
	Record(id ID) (Record, bool)
	// Len is the number of records.
	Len() int
}

// Children yields the children of r in storage order.
func Children(r Record) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for i := range r.NumChildren() {
			c, ok := r.ChildAt(i)
			if !ok {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

// Roots yields the root records of tr in RootIDs order.
func Roots(tr Trace) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, id := range tr.RootIDs() {
			r, ok := tr.Record(id)
			if !ok {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// Events yields the events of r in ascending clk order.
func Events(r Record) iter.Seq[*Event] {
	return func(yield func(*Event) bool) {
		for i := range r.NumEvents() {
			ev, ok := r.EventAt(i)
			if !ok {
				continue
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// Depth computes the subtree depth of a record whose children are reached
// through child. Backends share it for SubtreeDepth.
func Depth(n int, child func(int) (Record, bool)) int {
	if n == 0 {
		return 0
	}
	deepest := 0
	for i := range n {
		c, ok := child(i)
		if !ok {
			continue
		}
		deepest = max(deepest, c.SubtreeDepth())
	}
	return deepest + 1
}

// ChildLayout is implemented by records that know how their children are
// stored. Traversal policies use it to skip verifying the layout themselves.
type ChildLayout interface {
	// ChildrenByStart reports whether children are in ascending start order.
	ChildrenByStart() bool
	// LeafChildren reports whether no child has children of its own.
	LeafChildren() bool
}
