package observ

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestTimerPhases(t *testing.T) {
	tm := NewTimer()
	endLoad := tm.Begin("load")
	time.Sleep(time.Millisecond)
	endLoad("3 records")
	tm.Begin("render")("")

	phases := tm.Phases()
	if len(phases) != 2 {
		t.Fatalf("phases = %d", len(phases))
	}
	if phases[0].Name != "load" || phases[0].Note != "3 records" || phases[0].Dur < time.Millisecond {
		t.Fatalf("load phase = %+v", phases[0])
	}
	if tm.Total() < phases[0].Dur {
		t.Fatalf("total %v below load %v", tm.Total(), phases[0].Dur)
	}

	var buf bytes.Buffer
	tm.WriteSummary(&buf)
	out := strings.ToLower(buf.String())
	for _, want := range []string{"load", "render", "3 records", "total"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary lacks %q:\n%s", want, buf.String())
		}
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.Begin("x")("note")
	if tm.Phases() != nil || tm.Total() != 0 {
		t.Fatal("nil timer should record nothing")
	}
	var buf bytes.Buffer
	tm.WriteSummary(&buf)
	if buf.Len() != 0 {
		t.Fatalf("nil timer wrote %q", buf.String())
	}
}
