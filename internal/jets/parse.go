package jets

import (
	"bufio"
	"bytes"
	"cmp"
	"io"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/valyala/fastjson"

	"jets/internal/intern"
	"jets/internal/trace"
)

// Line types of the JETS format.
const (
	lineHeader     = "header"
	lineRecord     = "record"
	lineRecordEnd  = "record_end"
	lineAnnotation = "annotation"
	lineEvent      = "event"
	lineFooter     = "footer"
)

// ParseFile reads the trace at path, decompressing by extension.
func ParseFile(path string) (*Trace, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	t, err := Parse(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return t, nil
}

// ParseBytes parses an uncompressed trace held in memory.
func ParseBytes(b []byte) (*Trace, error) {
	return Parse(bytes.NewReader(b))
}

// Parse reads an uncompressed JETS stream. Any malformed or inconsistent
// line aborts the whole parse.
func Parse(r io.Reader) (*Trace, error) {
	p := newParser()
	br := bufio.NewReaderSize(r, 64<<10)
	var buf []byte
	for lineNo := 1; ; lineNo++ {
		var err error
		buf, err = readLine(br, buf[:0])
		if err != nil && err != io.EOF {
			return nil, &ParseError{Line: lineNo, Err: errors.Wrap(err, "read")}
		}
		if line := bytes.TrimSpace(buf); len(line) > 0 {
			if perr := p.line(lineNo, line); perr != nil {
				return nil, perr
			}
		}
		if err == io.EOF {
			break
		}
	}
	return p.finish()
}

func readLine(br *bufio.Reader, buf []byte) ([]byte, error) {
	for {
		chunk, err := br.ReadSlice('\n')
		buf = append(buf, chunk...)
		if err == bufio.ErrBufferFull {
			continue
		}
		return buf, err
	}
}

// pending is a record while the stream is still being read.
type pending struct {
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
}

type parser struct {
	json    fastjson.Parser
	strings *intern.Interner

	haveHeader bool
	meta       trace.Metadata
	records    []*pending
	byID       map[trace.ID]*pending
}

func newParser() *parser {
	return &parser{
		strings: intern.New(8192),
		byID:    make(map[trace.ID]*pending),
	}
}

func (p *parser) line(n int, text []byte) error {
	v, err := p.json.ParseBytes(text)
	if err != nil {
		return &ParseError{Line: n, Err: errors.Mark(errors.Wrap(err, "invalid JSON"), ErrMalformed)}
	}
	if v.Type() != fastjson.TypeObject {
		return lineError(n, ErrMalformed, "expected a JSON object, found %s", v.Type())
	}
	typ := string(v.GetStringBytes("type"))
	if typ == lineHeader {
		if n != 1 {
			return &ParseError{Line: n, Err: ErrHeaderNotFirst}
		}
		version, err := stringField(v, "version")
		if err != nil {
			return &ParseError{Line: n, Err: err}
		}
		p.haveHeader = true
		p.meta.Version = string(version)
		p.meta.Header = rawValue(v.Get("metadata"))
		return nil
	}
	switch typ {
	case lineRecord:
		return p.record(n, v)
	case lineRecordEnd:
		return p.recordEnd(n, v)
	case lineAnnotation:
		return p.annotation(n, v)
	case lineEvent:
		return p.event(n, v)
	case lineFooter:
		return p.footer(n, v)
	case "":
		return lineError(n, ErrMalformed, "missing line type")
	default:
		return lineError(n, ErrMalformed, "unknown line type %q", typ)
	}
}

func (p *parser) record(n int, v *fastjson.Value) error {
	id, err := uintField(v, "id")
	if err != nil {
		return &ParseError{Line: n, Err: err}
	}
	if _, dup := p.byID[trace.ID(id)]; dup {
		return lineError(n, ErrDuplicateID, "duplicate record id %d", id)
	}
	clk, err := intField(v, "clk")
	if err != nil {
		return &ParseError{Line: n, Err: err}
	}
	var strs [3][]byte
	for i, key := range [...]string{"name", "record_type", "description"} {
		if strs[i], err = stringField(v, key); err != nil {
			return &ParseError{Line: n, Err: err}
		}
	}
	rec := &pending{
		id:    trace.ID(id),
		start: clk,
		name:  p.strings.InternBytes(strs[0]),
		kind:  p.strings.InternBytes(strs[1]),
		desc:  p.strings.InternBytes(strs[2]),
	}
	if pv := v.Get("parent_id"); pv != nil && pv.Type() != fastjson.TypeNull {
		parent, err := pv.Uint64()
		if err != nil {
			return lineError(n, ErrMalformed, "parent_id: %v", err)
		}
		rec.parent, rec.hasParent = trace.ID(parent), true
	}
	p.mergeData(&rec.attrs, v.Get("data"))
	p.records = append(p.records, rec)
	p.byID[rec.id] = rec
	return nil
}

func (p *parser) target(n int, v *fastjson.Value, what string) (*pending, error) {
	id, err := uintField(v, "record_id")
	if err != nil {
		return nil, &ParseError{Line: n, Err: err}
	}
	rec, ok := p.byID[trace.ID(id)]
	if !ok {
		return nil, lineError(n, ErrUnknownRecord, "%s references unknown record %d", what, id)
	}
	return rec, nil
}

func (p *parser) recordEnd(n int, v *fastjson.Value) error {
	rec, err := p.target(n, v, lineRecordEnd)
	if err != nil {
		return err
	}
	clk, err := intField(v, "clk")
	if err != nil {
		return &ParseError{Line: n, Err: err}
	}
	rec.end, rec.hasEnd = clk, true
	return nil
}

func (p *parser) annotation(n int, v *fastjson.Value) error {
	rec, err := p.target(n, v, lineAnnotation)
	if err != nil {
		return err
	}
	name, _, err := nameAndDescription(v)
	if err != nil {
		return &ParseError{Line: n, Err: err}
	}
	data := rawValue(v.Get("data"))
	if data == nil {
		data = trace.Value("null")
	}
	rec.attrs.Set(p.strings.InternBytes(name), data)
	return nil
}

func (p *parser) event(n int, v *fastjson.Value) error {
	rec, err := p.target(n, v, lineEvent)
	if err != nil {
		return err
	}
	clk, err := intField(v, "clk")
	if err != nil {
		return &ParseError{Line: n, Err: err}
	}
	name, desc, err := nameAndDescription(v)
	if err != nil {
		return &ParseError{Line: n, Err: err}
	}
	ev := trace.Event{
		Clk:         clk,
		Name:        p.strings.InternBytes(name),
		Description: p.strings.InternBytes(desc),
		RecordID:    rec.id,
	}
	p.mergeData(&ev.Attrs, v.Get("data"))
	rec.events = append(rec.events, ev)
	return nil
}

func (p *parser) footer(n int, v *fastjson.Value) error {
	f := &trace.Footer{}
	var err error
	if f.CaptureEndClk, err = optInt(v, "capture_end_clk"); err != nil {
		return &ParseError{Line: n, Err: err}
	}
	if f.TotalRecords, err = optUint(v, "total_records"); err != nil {
		return &ParseError{Line: n, Err: err}
	}
	if f.TotalAnnotations, err = optUint(v, "total_annotations"); err != nil {
		return &ParseError{Line: n, Err: err}
	}
	if f.TotalEvents, err = optUint(v, "total_events"); err != nil {
		return &ParseError{Line: n, Err: err}
	}
	p.meta.Footer = f
	return nil
}

// mergeData copies the keys of an object into attrs in document order.
// Any other non-null value is stored under "data".
func (p *parser) mergeData(attrs *trace.Attrs, data *fastjson.Value) {
	if data == nil {
		return
	}
	switch data.Type() {
	case fastjson.TypeNull:
		return
	case fastjson.TypeObject:
		obj, _ := data.Object()
		obj.Visit(func(key []byte, val *fastjson.Value) {
			attrs.Set(p.strings.InternBytes(key), val.MarshalTo(nil))
		})
	default:
		attrs.Set("data", data.MarshalTo(nil))
	}
}

// finish lays the records out in one arena and links parents to children.
func (p *parser) finish() (*Trace, error) {
	if !p.haveHeader {
		return nil, &ParseError{Err: ErrMissingHeader}
	}
	recs := p.records
	slices.SortStableFunc(recs, func(a, b *pending) int {
		return cmp.Or(cmp.Compare(a.start, b.start), strings.Compare(a.name, b.name))
	})

	t := &Trace{meta: p.meta, interned: p.strings.Len()}
	t.index.Init(len(recs))
	for i, r := range recs {
		t.index.Put(r.id, trace.PosOf(i))
	}

	// Records are visited in arena order, which is (start, name), so every
	// child list comes out sorted the same way.
	children := make([][]trace.Pos, len(recs))
	for i, r := range recs {
		if r.hasParent {
			if pp, ok := t.index.Get(r.parent); ok {
				children[pp-1] = append(children[pp-1], trace.PosOf(i))
				continue
			}
		}
		t.roots = append(t.roots, r.id)
	}

	hasKids := func(c trace.Pos) bool { return len(children[c-1]) > 0 }
	t.arena = trace.NewArena[record](len(recs))
	for i, r := range recs {
		slices.SortStableFunc(r.events, func(a, b trace.Event) int {
			return cmp.Compare(a.Clk, b.Clk)
		})
		t.arena.Allocate(record{
			id:        r.id,
			parent:    r.parent,
			hasParent: r.hasParent,
			start:     r.start,
			end:       r.end,
			hasEnd:    r.hasEnd,
			name:      r.name,
			kind:      r.kind,
			desc:      r.desc,
			attrs:     r.attrs,
			events:    r.events,
			children:  children[i],
			leafKids:  !slices.ContainsFunc(children[i], hasKids),
		})
	}

	t.meta.Extent = trace.ExtentOf(func(yield func(int64, int64)) {
		for _, r := range recs {
			end := r.start
			if r.hasEnd {
				end = r.end
			}
			yield(r.start, end)
		}
	})
	return t, nil
}

func rawValue(v *fastjson.Value) trace.Value {
	if v == nil {
		return nil
	}
	return v.MarshalTo(nil)
}

// stringField returns a required string member. Missing members and
// members of any other JSON type are malformed.
func stringField(v *fastjson.Value, key string) ([]byte, error) {
	f := v.Get(key)
	if f == nil {
		return nil, errors.Mark(errors.Newf("missing %q", key), ErrMalformed)
	}
	if f.Type() != fastjson.TypeString {
		return nil, errors.Mark(errors.Newf("%q: expected a string, found %s", key, f.Type()), ErrMalformed)
	}
	b, _ := f.StringBytes()
	return b, nil
}

func nameAndDescription(v *fastjson.Value) (name, desc []byte, err error) {
	if name, err = stringField(v, "name"); err != nil {
		return nil, nil, err
	}
	if desc, err = stringField(v, "description"); err != nil {
		return nil, nil, err
	}
	return name, desc, nil
}

func intField(v *fastjson.Value, key string) (int64, error) {
	f := v.Get(key)
	if f == nil {
		return 0, errors.Mark(errors.Newf("missing %q", key), ErrMalformed)
	}
	n, err := f.Int64()
	if err != nil {
		return 0, errors.Mark(errors.Wrapf(err, "%q", key), ErrMalformed)
	}
	return n, nil
}

func uintField(v *fastjson.Value, key string) (uint64, error) {
	f := v.Get(key)
	if f == nil {
		return 0, errors.Mark(errors.Newf("missing %q", key), ErrMalformed)
	}
	n, err := f.Uint64()
	if err != nil {
		return 0, errors.Mark(errors.Wrapf(err, "%q", key), ErrMalformed)
	}
	return n, nil
}

func optInt(v *fastjson.Value, key string) (*int64, error) {
	f := v.Get(key)
	if f == nil || f.Type() == fastjson.TypeNull {
		return nil, nil
	}
	n, err := f.Int64()
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "%q", key), ErrMalformed)
	}
	return &n, nil
}

func optUint(v *fastjson.Value, key string) (*uint64, error) {
	f := v.Get(key)
	if f == nil || f.Type() == fastjson.TypeNull {
		return nil, nil
	}
	n, err := f.Uint64()
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "%q", key), ErrMalformed)
	}
	return &n, nil
}
