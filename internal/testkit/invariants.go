// Package testkit holds helpers shared by tests of the trace packages.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"jets/internal/trace"
)

// CheckTraceInvariants walks tr from its roots and verifies the structural
// guarantees every backend owes its consumers:
// 1) every root and child resolves by id to a record with the same id
// 2) every child reports its parent's id as ParentID
// 3) each record is reached exactly once, and all records are reachable
// 4) events are in ascending clk order
// 5) footer record totals, when present, match the record count
func CheckTraceInvariants(tr trace.Trace) error {
	if tr == nil {
		return fmt.Errorf("nil trace")
	}
	seen := make(map[trace.ID]bool, tr.Len())

	var visit func(r trace.Record) error
	visit = func(r trace.Record) error {
		id := r.ID()
		if seen[id] {
			return fmt.Errorf("record %d reached twice", id)
		}
		seen[id] = true
		if byID, ok := tr.Record(id); !ok || byID.ID() != id {
			return fmt.Errorf("record %d does not resolve by id", id)
		}
		prev := int64(0)
		for i := range r.NumEvents() {
			ev, ok := r.EventAt(i)
			if !ok {
				return fmt.Errorf("record %d: event %d missing", id, i)
			}
			if i > 0 && ev.Clk < prev {
				return fmt.Errorf("record %d: event %d at %d precedes %d", id, i, ev.Clk, prev)
			}
			prev = ev.Clk
		}
		for i := range r.NumChildren() {
			c, ok := r.ChildAt(i)
			if !ok {
				return fmt.Errorf("record %d: child %d does not resolve", id, i)
			}
			if pid, ok := c.ParentID(); !ok || pid != id {
				return fmt.Errorf("record %d: child %d reports parent %d", id, c.ID(), pid)
			}
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	}

	for _, id := range tr.RootIDs() {
		r, ok := tr.Record(id)
		if !ok {
			return fmt.Errorf("root %d does not resolve", id)
		}
		if err := visit(r); err != nil {
			return err
		}
	}
	if len(seen) != tr.Len() {
		return fmt.Errorf("reached %d of %d records", len(seen), tr.Len())
	}

	if recs, _, _, ok := tr.Metadata().Counts(); ok {
		n, err := safecast.Conv[uint64](tr.Len())
		if err != nil {
			return fmt.Errorf("record count overflow: %w", err)
		}
		if recs != n {
			return fmt.Errorf("footer counts %d records, trace has %d", recs, n)
		}
	}
	return nil
}
