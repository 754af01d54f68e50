package tracer

import (
	"io"
	"sync"
	"time"

	"jets/internal/jets"
)

// RingTracer keeps the last N events in memory for crash dumps.
type RingTracer struct {
	mu       sync.RWMutex
	events   []Event
	capacity int
	head     int  // next write position
	full     bool // has wrapped around
	level    Level
	start    time.Time
}

func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{
		events:   make([]Event, capacity),
		capacity: capacity,
		level:    level,
		start:    time.Now(),
	}
}

func (t *RingTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) && ev.Kind != KindHeartbeat {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	stored := *ev
	stored.Seq = NextSeq()
	t.events[t.head] = stored
	t.head = (t.head + 1) % t.capacity
	if t.head == 0 {
		t.full = true
	}
}

// Snapshot returns a copy of the stored events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.full {
		result := make([]Event, t.head)
		copy(result, t.events[:t.head])
		return result
	}
	result := make([]Event, t.capacity)
	copy(result, t.events[t.head:])
	copy(result[t.capacity-t.head:], t.events[:t.head])
	return result
}

// Dump writes the stored events to w as text lines.
func (t *RingTracer) Dump(w io.Writer) error {
	for _, ev := range t.Snapshot() {
		if _, err := w.Write(FormatEventText(&ev, t.start)); err != nil {
			return err
		}
	}
	return nil
}

// DumpJETS replays the stored events into a JETS trace written to w.
// Spans whose begin fell out of the ring are attached to the session.
func (t *RingTracer) DumpJETS(w *jets.Writer) error {
	out := NewJETSTracer(w, LevelDebug)
	out.start = t.start
	begun := make(map[uint64]bool)
	for _, ev := range t.Snapshot() {
		switch ev.Kind {
		case KindSpanBegin:
			if ev.ParentID != 0 && !begun[ev.ParentID] {
				ev.ParentID = 0
			}
			begun[ev.SpanID] = true
		case KindSpanEnd:
			if !begun[ev.SpanID] {
				continue
			}
		default:
			if ev.ParentID != 0 && !begun[ev.ParentID] {
				ev.ParentID = 0
			}
		}
		out.Emit(&ev)
	}
	return out.Close()
}

func (t *RingTracer) Flush() error { return nil }
func (t *RingTracer) Close() error { return nil }
func (t *RingTracer) Level() Level { return t.level }

func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
