package jets

import (
	"bufio"
	"io"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/valyala/fastjson"

	"jets/internal/trace"
)

// RecordLine is the payload of a record line.
type RecordLine struct {
	ID          trace.ID
	Parent      trace.ID
	HasParent   bool
	Clk         int64
	Kind        string
	Name        string
	Description string
	// Data must be a JSON object or nil.
	Data trace.Value
}

// AnnotationLine is the payload of an annotation line.
type AnnotationLine struct {
	RecordID    trace.ID
	Name        string
	Description string
	Data        trace.Value
}

// EventLine is the payload of an event line.
type EventLine struct {
	RecordID    trace.ID
	Clk         int64
	Name        string
	Description string
	Data        trace.Value
}

// Writer emits a JETS stream and counts what it wrote so the footer can
// carry the totals. The first error sticks; later calls return it.
type Writer struct {
	bw      *bufio.Writer
	closers []io.Closer

	arena fastjson.Arena
	json  fastjson.Parser
	buf   []byte

	records     uint64
	annotations uint64
	events      uint64
	err         error
}

// NewWriter writes an uncompressed stream to w. Close flushes but does not
// close w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, 64<<10)}
}

// Create creates path and compresses the stream according to its extension.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	enc, err := Compress(f, CodecFor(path))
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "create %s", path)
	}
	w := NewWriter(enc)
	w.closers = []io.Closer{enc, f}
	return w, nil
}

// Header writes the header line. It must be called first.
func (w *Writer) Header(version string, metadata trace.Value) error {
	o := w.object(lineHeader)
	o.Set("version", w.arena.NewString(version))
	o.Set("metadata", w.rawOr("metadata", metadata, "{}"))
	return w.emit(o)
}

// Record writes a record line.
func (w *Writer) Record(r RecordLine) error {
	o := w.object(lineRecord)
	o.Set("clk", w.number(r.Clk))
	o.Set("name", w.arena.NewString(r.Name))
	o.Set("record_type", w.arena.NewString(r.Kind))
	o.Set("id", w.unsigned(uint64(r.ID)))
	if r.HasParent {
		o.Set("parent_id", w.unsigned(uint64(r.Parent)))
	} else {
		o.Set("parent_id", w.arena.NewNull())
	}
	o.Set("description", w.arena.NewString(r.Description))
	o.Set("data", w.rawOr("data", r.Data, "null"))
	if err := w.emit(o); err != nil {
		return err
	}
	w.records++
	return nil
}

// RecordEnd writes a record_end line.
func (w *Writer) RecordEnd(id trace.ID, clk int64) error {
	o := w.object(lineRecordEnd)
	o.Set("clk", w.number(clk))
	o.Set("record_id", w.unsigned(uint64(id)))
	return w.emit(o)
}

// Annotation writes an annotation line.
func (w *Writer) Annotation(a AnnotationLine) error {
	o := w.object(lineAnnotation)
	o.Set("name", w.arena.NewString(a.Name))
	o.Set("record_id", w.unsigned(uint64(a.RecordID)))
	o.Set("description", w.arena.NewString(a.Description))
	o.Set("data", w.rawOr("data", a.Data, "null"))
	if err := w.emit(o); err != nil {
		return err
	}
	w.annotations++
	return nil
}

// Event writes an event line.
func (w *Writer) Event(e EventLine) error {
	o := w.object(lineEvent)
	o.Set("clk", w.number(e.Clk))
	o.Set("name", w.arena.NewString(e.Name))
	o.Set("record_id", w.unsigned(uint64(e.RecordID)))
	o.Set("description", w.arena.NewString(e.Description))
	o.Set("data", w.rawOr("data", e.Data, "null"))
	if err := w.emit(o); err != nil {
		return err
	}
	w.events++
	return nil
}

// Footer writes the footer with the counts accumulated so far.
// captureEnd may be nil.
func (w *Writer) Footer(captureEnd *int64) error {
	o := w.object(lineFooter)
	if captureEnd != nil {
		o.Set("capture_end_clk", w.number(*captureEnd))
	} else {
		o.Set("capture_end_clk", w.arena.NewNull())
	}
	o.Set("total_records", w.unsigned(w.records))
	o.Set("total_annotations", w.unsigned(w.annotations))
	o.Set("total_events", w.unsigned(w.events))
	return w.emit(o)
}

// Counts returns how many records, annotations and events were written.
func (w *Writer) Counts() (records, annotations, events uint64) {
	return w.records, w.annotations, w.events
}

// Flush pushes buffered lines to the underlying writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.bw.Flush(); err != nil {
		w.err = errors.Wrap(err, "flush")
	}
	return w.err
}

// Close flushes and closes whatever Create opened.
func (w *Writer) Close() error {
	err := w.Flush()
	for _, c := range w.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "close")
		}
	}
	w.closers = nil
	return err
}

func (w *Writer) object(typ string) *fastjson.Value {
	w.arena.Reset()
	o := w.arena.NewObject()
	o.Set("type", w.arena.NewString(typ))
	return o
}

func (w *Writer) number(n int64) *fastjson.Value {
	return w.arena.NewNumberString(strconv.FormatInt(n, 10))
}

func (w *Writer) unsigned(n uint64) *fastjson.Value {
	return w.arena.NewNumberString(strconv.FormatUint(n, 10))
}

// rawOr embeds raw JSON, or fallback when raw is empty. Invalid raw JSON
// becomes the writer's error and the line is not written.
// Each line parses at most one raw value, so the parser can be reused.
func (w *Writer) rawOr(key string, raw trace.Value, fallback string) *fastjson.Value {
	if len(raw) == 0 {
		v, _ := w.json.Parse(fallback)
		return v
	}
	v, err := w.json.ParseBytes(raw)
	if err != nil {
		if w.err == nil {
			w.err = errors.Wrapf(err, "invalid %s JSON", key)
		}
		return w.arena.NewNull()
	}
	return v
}

func (w *Writer) emit(o *fastjson.Value) error {
	if w.err != nil {
		return w.err
	}
	w.buf = o.MarshalTo(w.buf[:0])
	w.buf = append(w.buf, '\n')
	if _, err := w.bw.Write(w.buf); err != nil {
		w.err = errors.Wrap(err, "write")
	}
	return w.err
}
