package jets

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"jets/internal/trace"
)

// writeSample writes a cluster with two cores; the second core has a
// thread. It returns the expected (records, annotations, events) counts.
func writeSample(t *testing.T, w *Writer) (uint64, uint64, uint64) {
	t.Helper()
	require.NoError(t, w.Header("2.0", trace.Value(`{"tool":"writer-test"}`)))
	require.NoError(t, w.Record(RecordLine{ID: 1, Clk: 0, Kind: "Cluster", Name: "cluster_0", Description: "Cluster 0"}))
	require.NoError(t, w.Record(RecordLine{ID: 2, Parent: 1, HasParent: true, Clk: 5, Kind: "Core", Name: "core_0", Description: "Core 0",
		Data: trace.Value(`{"freq":1000,"isa":"rv64"}`)}))
	require.NoError(t, w.Record(RecordLine{ID: 3, Parent: 1, HasParent: true, Clk: 7, Kind: "Core", Name: "core_1", Description: "Core 1"}))
	require.NoError(t, w.Record(RecordLine{ID: 4, Parent: 3, HasParent: true, Clk: 9, Kind: "Thread", Name: "thread_0", Description: "Thread 0"}))
	require.NoError(t, w.Event(EventLine{RecordID: 4, Clk: 12, Name: "D", Description: "Decode"}))
	require.NoError(t, w.Event(EventLine{RecordID: 4, Clk: 10, Name: "F1", Description: "Fetch", Data: trace.Value(`{"pc":"0x0"}`)}))
	require.NoError(t, w.Annotation(AnnotationLine{RecordID: 2, Name: "isa", Description: "override", Data: trace.StringValue("rv32")}))
	require.NoError(t, w.Annotation(AnnotationLine{RecordID: 2, Name: "hot", Data: trace.Value("true")}))
	require.NoError(t, w.RecordEnd(4, 20))
	require.NoError(t, w.RecordEnd(2, 30))
	require.NoError(t, w.RecordEnd(3, 30))
	require.NoError(t, w.RecordEnd(1, 31))
	end := int64(31)
	require.NoError(t, w.Footer(&end))
	return 4, 2, 2
}

func checkSample(t *testing.T, tr *Trace, records, annotations, events uint64) {
	t.Helper()
	require.Equal(t, []trace.ID{1}, tr.RootIDs())
	r, a, e, ok := tr.Metadata().Counts()
	require.True(t, ok)
	require.Equal(t, records, r)
	require.Equal(t, annotations, a)
	require.Equal(t, events, e)
	require.Equal(t, "2.0", tr.Metadata().Version)

	root, _ := tr.Record(1)
	require.Equal(t, []trace.ID{2, 3}, childIDs(t, root))
	require.Equal(t, 2, root.SubtreeDepth())

	core0, _ := tr.Record(2)
	start := core0.Start()
	end, _ := core0.End()
	dur, _ := core0.Duration()
	require.Equal(t, []int64{5, 30, 25}, []int64{start, end, dur})
	var keys []string
	var vals []string
	for k, v := range core0.Attrs().All() {
		keys = append(keys, k)
		vals = append(vals, v.String())
	}
	require.Equal(t, []string{"freq", "isa", "hot"}, keys)
	require.Equal(t, []string{"1000", `"rv32"`, "true"}, vals)

	thread, _ := tr.Record(4)
	var names []string
	for ev := range trace.Events(thread) {
		names = append(names, ev.Name)
	}
	require.Equal(t, []string{"F1", "D"}, names)
	require.Equal(t, trace.Extent{Start: 0, End: 31}, tr.Metadata().Extent)
}

func TestWriterRoundTripInMemory(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	nr, na, ne := writeSample(t, w)
	require.NoError(t, w.Close())

	gr, ga, ge := w.Counts()
	require.Equal(t, []uint64{nr, na, ne}, []uint64{gr, ga, ge})

	tr, err := ParseBytes(buf.Bytes())
	require.NoError(t, err)
	checkSample(t, tr, nr, na, ne)
}

func TestWriterRoundTripCompressed(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"t.jets", "t.jets.br", "t.jets.zst", "t.jets.gz", "t.jets.sz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			w, err := Create(path)
			require.NoError(t, err)
			nr, na, ne := writeSample(t, w)
			require.NoError(t, w.Close())

			tr, err := ParseFile(path)
			require.NoError(t, err)
			checkSample(t, tr, nr, na, ne)
		})
	}
}

func TestCodecFor(t *testing.T) {
	tests := []struct {
		path string
		want Codec
	}{
		{"trace.jets", CodecNone},
		{"trace.jets.br", CodecBrotli},
		{"TRACE.JETS.ZST", CodecZstd},
		{"a/b/trace.jets.gz", CodecGzip},
		{"trace.jets.sz", CodecSnappy},
		{"trace.brx", CodecNone},
	}
	for _, tt := range tests {
		if got := CodecFor(tt.path); got != tt.want {
			t.Errorf("CodecFor(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
	if got := StripCodecExt("x.jets.zst"); got != "x.jets" {
		t.Errorf("StripCodecExt = %q", got)
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "absent.jets"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "absent.jets")
}

func TestWriterRejectsInvalidRawJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Header("1", nil))
	require.NoError(t, w.Record(RecordLine{ID: 1, Kind: "t", Name: "a"}))

	err := w.Record(RecordLine{ID: 2, Kind: "t", Name: "b", Data: trace.Value(`{"x":`)})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid data JSON")

	// The error sticks and nothing after it is counted.
	require.ErrorIs(t, w.Event(EventLine{RecordID: 1, Name: "e"}), err)
	require.ErrorIs(t, w.Flush(), err)
	records, _, events := w.Counts()
	require.Equal(t, uint64(1), records)
	require.Zero(t, events)

	w = NewWriter(&buf)
	require.Error(t, w.Header("1", trace.Value("not json")))
}
