package ui

import (
	"slices"
	"testing"

	"jets/internal/sorting"
	"jets/internal/testkit"
	"jets/internal/trace"
	"jets/internal/visibility"
)

const sample = `
1 clk=0 end=1000 desc=root
  2 clk=50 end=60 desc=b
  3 clk=100 end=400 desc=a
    4 clk=100 desc=x
    5 clk=150 desc=y
  7 clk=300 end=350 desc=c
    8 clk=300 desc=w
10 clk=500 end=900 desc=z
  11 clk=600 desc=v
`

func rowIDs(rows []visibility.Row) []trace.ID {
	out := make([]trace.ID, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func expectRows(t *testing.T, s *State, want ...trace.ID) {
	t.Helper()
	if got := rowIDs(s.Rows()); !slices.Equal(got, want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}
}

func expectSelected(t *testing.T, s *State, want trace.ID) {
	t.Helper()
	row, ok := s.Selected()
	if !ok || row.ID != want {
		t.Fatalf("selected = %v (%v), want %d", row.ID, ok, want)
	}
}

func TestToggleKeepsSelection(t *testing.T) {
	s := NewState(testkit.MustParseTree(sample), 10)
	expectRows(t, s, 1, 10)
	expectSelected(t, s, 1)

	if !s.Toggle() {
		t.Fatal("toggle on a parent should succeed")
	}
	expectRows(t, s, 1, 2, 3, 7, 10)

	s.Move(2)
	expectSelected(t, s, 3)
	s.Toggle()
	expectRows(t, s, 1, 2, 3, 4, 5, 7, 10)
	expectSelected(t, s, 3)

	s.Move(1)
	expectSelected(t, s, 4)
	if s.Toggle() {
		t.Fatal("toggle on a leaf should be a no-op")
	}

	s.CollapseAll()
	expectRows(t, s, 1, 10)
	if _, ok := s.Selected(); !ok {
		t.Fatal("selection should be clamped into the rows")
	}
}

func TestMoveClampsAndScrolls(t *testing.T) {
	s := NewState(testkit.MustParseTree(sample), 3)
	s.ExpandAll()
	if n := len(s.Rows()); n != 9 {
		t.Fatalf("rows = %d, want 9", n)
	}
	s.Move(-5)
	if s.Cursor() != 0 || s.Offset() != 0 {
		t.Fatalf("cursor=%d offset=%d", s.Cursor(), s.Offset())
	}
	s.Move(4)
	if s.Cursor() != 4 || s.Offset() != 2 {
		t.Fatalf("cursor=%d offset=%d, want 4 and 2", s.Cursor(), s.Offset())
	}
	if len(s.Window()) != 3 {
		t.Fatalf("window = %d rows", len(s.Window()))
	}
	s.End()
	if s.Cursor() != 8 || s.Offset() != 6 {
		t.Fatalf("cursor=%d offset=%d, want 8 and 6", s.Cursor(), s.Offset())
	}
	s.Home()
	if s.Cursor() != 0 || s.Offset() != 0 {
		t.Fatalf("cursor=%d offset=%d", s.Cursor(), s.Offset())
	}
	s.SetHeight(100)
	if s.Offset() != 0 || len(s.Window()) != 9 {
		t.Fatalf("offset=%d window=%d", s.Offset(), len(s.Window()))
	}
}

func TestSortCycleAndFlip(t *testing.T) {
	s := NewState(testkit.MustParseTree(sample), 20)
	s.ExpandAll()
	expectRows(t, s, 1, 2, 3, 4, 5, 7, 8, 10, 11)

	s.CycleSort()
	if spec, ok := s.Sort(); !ok || spec.Key != sorting.KeyDescription || spec.Dir != sorting.Asc {
		t.Fatalf("sort = %v %v", spec, ok)
	}
	expectRows(t, s, 1, 3, 4, 5, 2, 7, 8, 10, 11)

	s.FlipSort()
	expectRows(t, s, 1, 7, 8, 2, 3, 5, 4, 10, 11)

	s.CycleSort()
	if spec, _ := s.Sort(); spec.Key != sorting.KeyStart || spec.Dir != sorting.Desc {
		t.Fatalf("sort = %v", spec)
	}

	s.SetSort(nil)
	expectRows(t, s, 1, 2, 3, 4, 5, 7, 8, 10, 11)
}

func TestFilterUsesFixedRange(t *testing.T) {
	s := NewState(testkit.MustParseTree(sample), 20)
	s.ExpandAll()
	s.SetRange(&visibility.Viewport{Start: 100, End: 200})
	s.ToggleFilter()
	if f, ok := s.Filter(); !ok || f.Start != 100 || f.End != 200 {
		t.Fatalf("filter = %v %v", f, ok)
	}
	expectRows(t, s, 1, 3, 4, 5, 7, 10)
	if got := s.FilteredRows(); got != 6 {
		t.Fatalf("filtered rows = %d, want 6", got)
	}
	if got := s.TotalRows(); got != 9 {
		t.Fatalf("total rows = %d, want 9", got)
	}

	s.ToggleFilter()
	if _, ok := s.Filter(); ok {
		t.Fatal("filter should be off")
	}
	expectRows(t, s, 1, 2, 3, 4, 5, 7, 8, 10, 11)
}

func TestFilterFromScreen(t *testing.T) {
	s := NewState(testkit.MustParseTree(sample), 2)
	s.ExpandAll()
	s.Move(3) // rows 2..3 on screen: 3 [100,400] and 4 [100,100]
	s.ToggleFilter()
	f, ok := s.Filter()
	if !ok || f.Start != 100 || f.End != 400 {
		t.Fatalf("filter = %+v %v, want [100, 400]", f, ok)
	}
	expectSelected(t, s, 4)
}

func TestExpandDepth(t *testing.T) {
	s := NewState(testkit.MustParseTree(sample), 20)
	s.ExpandDepth(1)
	expectRows(t, s, 1, 2, 3, 7, 10, 11)
	if s.MaxDepth() != 1 {
		t.Fatalf("max depth = %d", s.MaxDepth())
	}
}

func TestSnapshotRestore(t *testing.T) {
	tr := testkit.MustParseTree(sample)
	s := NewState(tr, 20)
	s.ExpandDepth(1)
	s.CycleSort()
	s.Move(2)
	s.SetRange(&visibility.Viewport{Start: 0, End: 1000})
	s.ToggleFilter()
	sess := s.Snapshot("sample.jets")
	sess.Expanded = append(sess.Expanded, 999)

	r := NewState(tr, 20)
	r.Restore(sess)
	if !slices.Equal(rowIDs(r.Rows()), rowIDs(s.Rows())) {
		t.Fatalf("rows = %v, want %v", rowIDs(r.Rows()), rowIDs(s.Rows()))
	}
	if r.Expanded().Has(999) {
		t.Fatal("unknown ids must be dropped")
	}
	want, _ := s.Selected()
	expectSelected(t, r, want.ID)
	if spec, ok := r.Sort(); !ok || spec != (sorting.Spec{Key: sorting.KeyDescription}) {
		t.Fatalf("sort = %v %v", spec, ok)
	}
	if f, ok := r.Filter(); !ok || f.End != 1000 {
		t.Fatalf("filter = %v %v", f, ok)
	}

	r.Restore(&Session{Sort: "bogus"})
	if _, ok := r.Sort(); ok {
		t.Fatal("bad sort should fall back to storage order")
	}
	expectRows(t, r, 1, 10)
}

func TestRecordZeroIsNotNoSelection(t *testing.T) {
	tr := testkit.MustParseTree(`
9 clk=10
0 clk=200
`)
	s := NewState(tr, 10)
	expectRows(t, s, 9, 0)
	expectSelected(t, s, 9)

	// A filter that hides every row leaves nothing selected; clearing it
	// must not jump to record 0.
	s.SetRange(&visibility.Viewport{Start: 1000, End: 2000})
	s.ToggleFilter()
	expectRows(t, s)
	if _, ok := s.Selected(); ok {
		t.Fatal("no row should be selected")
	}
	s.ToggleFilter()
	expectSelected(t, s, 9)

	s.Move(1)
	expectSelected(t, s, 0)
	sess := s.Snapshot("zero.jets")
	if !sess.HasSelected || sess.Selected != 0 {
		t.Fatalf("session selection = %d (%v)", sess.Selected, sess.HasSelected)
	}
	r := NewState(tr, 10)
	r.Restore(sess)
	expectSelected(t, r, 0)
}
