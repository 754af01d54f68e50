package pipetrace

import (
	"testing"

	"jets/internal/trace"
)

func TestMatch(t *testing.T) {
	for path, want := range map[string]bool{
		"core0.pt":     true,
		"core0.PT.gz":  true,
		"core0.jets":   false,
		"core0.pt.zst": false,
	} {
		if got := Match(path); got != want {
			t.Errorf("Match(%q) = %v", path, got)
		}
	}
}

func TestReadIsEmpty(t *testing.T) {
	tr := Read("whatever.pt")
	if tr.Format() != trace.FormatPipetrace || tr.Metadata().Version != Version {
		t.Fatalf("unexpected identity %v %q", tr.Format(), tr.Metadata().Version)
	}
	if tr.Len() != 0 || len(tr.RootIDs()) != 0 {
		t.Fatalf("stub must be empty")
	}
	if _, ok := tr.Record(1); ok {
		t.Fatalf("lookup must miss")
	}
	if tr.Metadata().Extent != (trace.Extent{}) {
		t.Fatalf("extent = %v", tr.Metadata().Extent)
	}
}
