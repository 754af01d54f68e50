package sorting

import (
	"slices"
	"testing"

	"jets/internal/testkit"
	"jets/internal/trace"
)

func descriptions(t *testing.T, parent trace.Record, order []int) []string {
	t.Helper()
	out := make([]string, len(order))
	for i, idx := range order {
		c, ok := parent.ChildAt(idx)
		if !ok {
			t.Fatalf("index %d does not resolve", idx)
		}
		out[i] = c.Description()
	}
	return out
}

func TestSortByDescription(t *testing.T) {
	tr := testkit.MustParseTree(`
1 clk=0
  2 clk=10 desc=b
  3 clk=20 desc=a
  4 clk=30 desc=c
`)
	parent, _ := tr.Record(1)

	asc := SortedChildPositions(parent, Spec{Key: KeyDescription, Dir: Asc})
	if got := descriptions(t, parent, asc); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("asc = %v", got)
	}
	desc := SortedChildPositions(parent, Spec{Key: KeyDescription, Dir: Asc}.Toggle())
	if got := descriptions(t, parent, desc); !slices.Equal(got, []string{"c", "b", "a"}) {
		t.Fatalf("desc = %v", got)
	}
	if !slices.Equal(asc, []int{1, 0, 2}) {
		t.Fatalf("asc positions = %v", asc)
	}
}

func TestSortByStart(t *testing.T) {
	tr := testkit.MustParseTree(`
1 clk=0
  2 clk=30
  3 clk=10
  4 clk=20
`)
	parent, _ := tr.Record(1)
	// storage order is already by start
	if got := SortedChildPositions(parent, Spec{Key: KeyStart}); !slices.Equal(got, []int{0, 1, 2}) {
		t.Fatalf("asc = %v", got)
	}
	if got := SortedChildPositions(parent, Spec{Key: KeyStart, Dir: Desc}); !slices.Equal(got, []int{2, 1, 0}) {
		t.Fatalf("desc = %v", got)
	}
}

func TestSortByDurationMissingFirst(t *testing.T) {
	tr := testkit.MustParseTree(`
1 clk=0
  2 clk=10 dur=50 desc=long
  3 clk=20 desc=open
  4 clk=30 dur=5 desc=short
  5 clk=40 dur=50 desc=long2
`)
	parent, _ := tr.Record(1)
	asc := SortedChildPositions(parent, Spec{Key: KeyDuration})
	if got := descriptions(t, parent, asc); !slices.Equal(got, []string{"open", "short", "long", "long2"}) {
		t.Fatalf("asc = %v", got)
	}
	desc := SortedChildPositions(parent, Spec{Key: KeyDuration, Dir: Desc})
	if got := descriptions(t, parent, desc); !slices.Equal(got, []string{"long", "long2", "short", "open"}) {
		t.Fatalf("desc = %v", got)
	}
}

func TestSortLeafHasNoPositions(t *testing.T) {
	tr := testkit.MustParseTree("1 clk=0")
	leaf, _ := tr.Record(1)
	if got := SortedChildPositions(leaf, Spec{}); len(got) != 0 {
		t.Fatalf("leaf positions = %v", got)
	}
}

func TestParseSpec(t *testing.T) {
	tests := []struct {
		in   string
		want Spec
		err  bool
	}{
		{"description", Spec{Key: KeyDescription}, false},
		{"start:desc", Spec{Key: KeyStart, Dir: Desc}, false},
		{" Duration:ASC ", Spec{Key: KeyDuration}, false},
		{"dur:desc", Spec{Key: KeyDuration, Dir: Desc}, false},
		{"size", Spec{}, true},
		{"start:up", Spec{}, true},
		{"desc", Spec{}, true},
		{"desc:asc", Spec{}, true},
		{"asc", Spec{}, true},
		{"name:desc", Spec{Key: KeyDescription, Dir: Desc}, false},
	}
	for _, tt := range tests {
		got, err := ParseSpec(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseSpec(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSpec(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if s := (Spec{Key: KeyDuration, Dir: Desc}).String(); s != "duration:desc" {
		t.Errorf("String = %q", s)
	}
	if KeyDuration.Next() != KeyDescription {
		t.Errorf("Next does not wrap")
	}
}
