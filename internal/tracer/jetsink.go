package tracer

import (
	"maps"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fastjson"

	"jets/internal/jets"
	"jets/internal/trace"
)

// Version is the header version of traces written by JETSTracer.
const Version = "jets-self-1"

// sessionID is the record every top-level span and stray point hangs off.
const sessionID trace.ID = 1

// JETSTracer writes the tool's own activity as a JETS trace: one session
// root record, one record per span (ids are span ids shifted by one) and
// one event per point or heartbeat. Clocks are nanoseconds since the
// tracer started.
type JETSTracer struct {
	mu      sync.Mutex
	w       *jets.Writer
	level   Level
	start   time.Time
	session string
	last    int64
	arena   fastjson.Arena
	closed  bool
}

// NewJETSTracer writes the header and the session record to w.
func NewJETSTracer(w *jets.Writer, level Level) *JETSTracer {
	t := &JETSTracer{w: w, level: level, start: time.Now(), session: uuid.NewString()}

	t.arena.Reset()
	meta := t.arena.NewObject()
	meta.Set("tool", t.arena.NewString("jets"))
	meta.Set("session", t.arena.NewString(t.session))
	meta.Set("started", t.arena.NewString(t.start.UTC().Format(time.RFC3339Nano)))
	meta.Set("level", t.arena.NewString(level.String()))
	_ = w.Header(Version, meta.MarshalTo(nil))
	_ = w.Record(jets.RecordLine{
		ID:          sessionID,
		Clk:         0,
		Kind:        "session",
		Name:        "session",
		Description: t.session,
	})
	return t
}

// Session is the random id stored in the header.
func (t *JETSTracer) Session() string { return t.session }

func (t *JETSTracer) clk(at time.Time) int64 {
	c := max(int64(at.Sub(t.start)), t.last)
	t.last = c
	return c
}

func spanRecord(span uint64) trace.ID {
	if span == 0 {
		return sessionID
	}
	return trace.ID(span + 1)
}

func (t *JETSTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) && ev.Kind != KindHeartbeat {
		return
	}
	ev.Seq = NextSeq()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	clk := t.clk(ev.Time)

	switch ev.Kind {
	case KindSpanBegin:
		_ = t.w.Record(jets.RecordLine{
			ID:          spanRecord(ev.SpanID),
			Parent:      spanRecord(ev.ParentID),
			HasParent:   true,
			Clk:         clk,
			Kind:        ev.Scope.String(),
			Name:        ev.Name,
			Description: ev.Name,
			Data:        t.extra(ev),
		})
	case KindSpanEnd:
		id := spanRecord(ev.SpanID)
		_ = t.w.RecordEnd(id, clk)
		if ev.Detail != "" {
			_ = t.w.Annotation(jets.AnnotationLine{RecordID: id, Name: "detail", Data: trace.StringValue(ev.Detail)})
		}
		for _, k := range slices.Sorted(maps.Keys(ev.Extra)) {
			_ = t.w.Annotation(jets.AnnotationLine{RecordID: id, Name: k, Data: trace.StringValue(ev.Extra[k])})
		}
	default:
		_ = t.w.Event(jets.EventLine{
			RecordID:    spanRecord(ev.ParentID),
			Clk:         clk,
			Name:        ev.Name,
			Description: ev.Detail,
			Data:        t.extra(ev),
		})
	}
}

func (t *JETSTracer) extra(ev *Event) trace.Value {
	if len(ev.Extra) == 0 {
		return nil
	}
	t.arena.Reset()
	o := t.arena.NewObject()
	o.Set("gid", t.arena.NewNumberString(strconv.FormatUint(ev.GID, 10)))
	for k, v := range ev.Extra {
		o.Set(k, t.arena.NewString(v))
	}
	return o.MarshalTo(nil)
}

func (t *JETSTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w.Flush()
}

// Close ends the session record, writes the footer and closes the writer.
// Spans still open stay without an end.
func (t *JETSTracer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	end := t.clk(time.Now())
	_ = t.w.RecordEnd(sessionID, end)
	_ = t.w.Footer(&end)
	return t.w.Close()
}

func (t *JETSTracer) Level() Level { return t.level }

func (t *JETSTracer) Enabled() bool { return t.level > LevelOff }
