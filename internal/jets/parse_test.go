package jets

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"jets/internal/trace"
)

const sample = `{"type":"header","version":"1.0","metadata":{"tool":"test"}}
{"type":"record","clk":100,"name":"root","record_type":"Cluster","id":1,"parent_id":null,"description":"Root","data":{"b":1,"a":2}}
{"type":"record","clk":120,"name":"beta","record_type":"Core","id":3,"parent_id":1,"description":"B","data":null}
{"type":"record","clk":110,"name":"alpha","record_type":"Core","id":2,"parent_id":1,"description":"A"}

{"type":"record","clk":110,"name":"aardvark","record_type":"Core","id":4,"parent_id":1,"description":"AA","data":null}
{"type":"event","clk":130,"name":"late","record_id":2,"description":"","data":{"x":1}}
{"type":"event","clk":115,"name":"early","record_id":2,"description":"","data":null}
{"type":"annotation","name":"a","record_id":1,"description":"override","data":"new"}
{"type":"annotation","name":"note","record_id":1,"description":"","data":[1,2]}
{"type":"record_end","clk":140,"record_id":2}
{"type":"record_end","clk":300,"record_id":1}
{"type":"record","clk":50,"name":"orphan","record_type":"X","id":9,"parent_id":77,"description":""}
{"type":"footer","capture_end_clk":300,"total_records":5,"total_annotations":2,"total_events":2}
`

func childIDs(t *testing.T, r trace.Record) []trace.ID {
	t.Helper()
	var ids []trace.ID
	for c := range trace.Children(r) {
		ids = append(ids, c.ID())
	}
	return ids
}

func TestParseSample(t *testing.T) {
	tr, err := ParseBytes([]byte(sample))
	require.NoError(t, err)

	require.Equal(t, trace.FormatJETS, tr.Format())
	require.Equal(t, 5, tr.Len())
	require.Equal(t, []trace.ID{9, 1}, tr.RootIDs())

	meta := tr.Metadata()
	require.Equal(t, "1.0", meta.Version)
	require.JSONEq(t, `{"tool":"test"}`, meta.Header.String())
	require.Equal(t, trace.Extent{Start: 50, End: 300}, meta.Extent)
	end, ok := meta.CaptureEndClk()
	require.True(t, ok)
	require.EqualValues(t, 300, end)
	recs, anns, evs, ok := meta.Counts()
	require.True(t, ok)
	require.Equal(t, []uint64{5, 2, 2}, []uint64{recs, anns, evs})

	root, ok := tr.Record(1)
	require.True(t, ok)
	require.Equal(t, []trace.ID{4, 2, 3}, childIDs(t, root))
	require.Equal(t, 1, root.SubtreeDepth())
	require.Equal(t, "Cluster", root.Kind())
	dur, ok := root.Duration()
	require.True(t, ok)
	require.EqualValues(t, 200, dur)

	var keys []string
	for k := range root.Attrs().All() {
		keys = append(keys, k)
	}
	require.Equal(t, []string{"b", "a", "note"}, keys)
	a, _ := root.Attrs().Get("a")
	require.Equal(t, "new", a.Text())
	note, _ := root.Attrs().Get("note")
	require.Equal(t, "[1,2]", note.String())

	alpha, ok := tr.Record(2)
	require.True(t, ok)
	require.Equal(t, 2, alpha.NumEvents())
	first, _ := alpha.EventAt(0)
	second, _ := alpha.EventAt(1)
	require.Equal(t, "early", first.Name)
	require.Equal(t, "late", second.Name)
	x, ok := second.Attrs.Get("x")
	require.True(t, ok)
	require.Equal(t, "1", x.String())
	_, ok = alpha.EventAt(2)
	require.False(t, ok)

	beta, _ := tr.Record(3)
	_, ok = beta.Duration()
	require.False(t, ok)

	orphan, _ := tr.Record(9)
	parent, ok := orphan.ParentID()
	require.True(t, ok)
	require.EqualValues(t, 77, parent)
	require.Equal(t, 0, orphan.SubtreeDepth())

	_, ok = tr.Record(12345)
	require.False(t, ok)
	_, ok = root.ChildAt(3)
	require.False(t, ok)
	_, ok = root.ChildAt(-1)
	require.False(t, ok)
}

func TestParseInternsRepeatedStrings(t *testing.T) {
	tr, err := ParseBytes([]byte(sample))
	require.NoError(t, err)
	r2, _ := tr.Record(2)
	r3, _ := tr.Record(3)
	require.Equal(t, "Core", r2.Kind())
	require.Equal(t, unsafe.StringData(r2.Kind()), unsafe.StringData(r3.Kind()))
	require.Positive(t, tr.InternedStrings())
}

func TestArenaIntegrity(t *testing.T) {
	tr, err := ParseBytes([]byte(sample))
	require.NoError(t, err)

	var visit func(r trace.Record)
	visit = func(r trace.Record) {
		for i := range r.NumChildren() {
			c, ok := r.ChildAt(i)
			require.True(t, ok)
			pid, ok := c.ParentID()
			require.True(t, ok)
			require.Equal(t, r.ID(), pid)
			visit(c)
		}
	}
	for r := range trace.Roots(tr) {
		visit(r)
	}
}

func TestAttachIsIdempotent(t *testing.T) {
	tr, err := ParseBytes([]byte(sample))
	require.NoError(t, err)
	r, _ := tr.Record(1)
	rec := r.(*record)
	first := rec.arena.Load()
	require.NotNil(t, first)

	other := trace.NewArena[record](0)
	require.Same(t, first, rec.attach(other))
	require.Same(t, first, rec.arena.Load())

	detached := &record{children: []trace.Pos{1}}
	_, ok := detached.ChildAt(0)
	require.False(t, ok, "a record never reached through its trace cannot resolve children")
}

func TestParseErrors(t *testing.T) {
	const header = `{"type":"header","version":"1","metadata":{}}` + "\n"
	const rec1 = `{"type":"record","clk":1,"name":"a","record_type":"t","id":1,"parent_id":null,"description":""}` + "\n"

	tests := []struct {
		name   string
		input  string
		line   int
		marker error
	}{
		{"header not first", rec1 + header, 2, ErrHeaderNotFirst},
		{"second header", header + header, 2, ErrHeaderNotFirst},
		{"duplicate id", header + rec1 + rec1, 3, ErrDuplicateID},
		{"record_end unknown", header + `{"type":"record_end","clk":5,"record_id":5}`, 2, ErrUnknownRecord},
		{"annotation unknown", header + `{"type":"annotation","name":"n","record_id":5,"description":"","data":1}`, 2, ErrUnknownRecord},
		{"event unknown", header + `{"type":"event","clk":1,"name":"n","record_id":5,"description":""}`, 2, ErrUnknownRecord},
		{"missing header", rec1, 0, ErrMissingHeader},
		{"empty input", "", 0, ErrMissingHeader},
		{"bad json", header + "\n{not json\n", 3, ErrMalformed},
		{"unknown type", header + `{"type":"span"}`, 2, ErrMalformed},
		{"not an object", header + `[1,2]`, 2, ErrMalformed},
		{"missing clk", header + `{"type":"record","name":"a","id":1}`, 2, ErrMalformed},
		{"string id", header + `{"type":"record","clk":1,"id":"x"}`, 2, ErrMalformed},
		{"numeric name", header + `{"type":"record","clk":1,"name":5,"record_type":"t","id":1,"parent_id":null,"description":""}`, 2, ErrMalformed},
		{"missing record_type", header + `{"type":"record","clk":1,"name":"a","id":1,"parent_id":null,"description":""}`, 2, ErrMalformed},
		{"missing description", header + `{"type":"record","clk":1,"name":"a","record_type":"t","id":1,"parent_id":null}`, 2, ErrMalformed},
		{"numeric version", `{"type":"header","version":2,"metadata":{}}`, 1, ErrMalformed},
		{"missing version", `{"type":"header","metadata":{}}`, 1, ErrMalformed},
		{"annotation without name", header + rec1 + `{"type":"annotation","record_id":1,"description":"","data":1}`, 3, ErrMalformed},
		{"event with null description", header + rec1 + `{"type":"event","clk":1,"name":"e","record_id":1,"description":null}`, 3, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			require.Nil(t, tr)
			require.True(t, errors.Is(err, tt.marker), "got %v", err)
			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			require.Equal(t, tt.line, perr.Line)
			if tt.line > 0 {
				require.Contains(t, err.Error(), "line ")
			}
		})
	}
}

func TestEmptyTraceExtent(t *testing.T) {
	tr, err := ParseBytes([]byte(`{"type":"header","version":"1","metadata":{}}`))
	require.NoError(t, err)
	require.Equal(t, trace.EmptyExtent, tr.Metadata().Extent)
	require.Empty(t, tr.RootIDs())
	require.Nil(t, tr.Metadata().Footer)
}

func TestNonObjectDataIsExposedAsData(t *testing.T) {
	in := `{"type":"header","version":"1","metadata":{}}
{"type":"record","clk":1,"name":"a","record_type":"t","id":1,"parent_id":null,"description":"","data":42}`
	tr, err := ParseBytes([]byte(in))
	require.NoError(t, err)
	r, _ := tr.Record(1)
	v, ok := r.Attrs().Get("data")
	require.True(t, ok)
	require.Equal(t, "42", v.String())
}

func TestCRLFAndTrailingLine(t *testing.T) {
	in := "{\"type\":\"header\",\"version\":\"1\",\"metadata\":{}}\r\n" +
		"{\"type\":\"record\",\"clk\":7,\"name\":\"a\",\"record_type\":\"t\",\"id\":1,\"parent_id\":null,\"description\":\"\"}"
	tr, err := ParseBytes([]byte(in))
	require.NoError(t, err)
	require.Equal(t, []trace.ID{1}, tr.RootIDs())
}
