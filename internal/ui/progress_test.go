package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"jets/internal/loader"
)

func TestProgressModelTracksEvents(t *testing.T) {
	events := make(chan loader.Event)
	m := NewProgressModel("loading", []string{"a.jets", "b.jets"}, events)

	m.Update(eventMsg{Path: "a.jets", Status: loader.StatusDone, Records: 12, Elapsed: 3 * time.Millisecond})
	m.Update(eventMsg{Path: "b.jets", Status: loader.StatusError, Err: errors.New("truncated header")})
	m.Update(eventMsg{Path: "unknown.jets", Status: loader.StatusDone})

	view := m.View()
	for _, want := range []string{"a.jets", "12 records in 3ms", "truncated header", "2/2 traces"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view lacks %q:\n%s", want, view)
		}
	}
	if got := m.(*progressModel).fraction(); got != 1 {
		t.Fatalf("fraction = %v, want 1", got)
	}
}

func TestProgressModelQuitsWhenEventsClose(t *testing.T) {
	events := make(chan loader.Event)
	close(events)
	m := NewProgressModel("loading", []string{"a.jets"}, events)

	msg := m.(*progressModel).listenForEvent()()
	if _, ok := msg.(doneMsg); !ok {
		t.Fatalf("msg = %#v, want doneMsg", msg)
	}
	_, cmd := m.Update(msg)
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !strings.Contains(m.View(), "done: loading") {
		t.Fatalf("view = %q", m.View())
	}
}

func TestProgressFractionCountsLoadingAsHalf(t *testing.T) {
	m := NewProgressModel("x", []string{"a", "b"}, nil).(*progressModel)
	m.applyEvent(loader.Event{Path: "a", Status: loader.StatusLoading})
	if got := m.fraction(); got != 0.25 {
		t.Fatalf("fraction = %v, want 0.25", got)
	}
}
