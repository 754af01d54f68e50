// Package observ measures the phases of one CLI command for --timings.
package observ

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Phase is one measured step of a command.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
}

// Timer collects phases in the order they begin. A nil *Timer ignores
// every call, so commands can time unconditionally.
type Timer struct {
	phases []Phase
}

func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 8)} }

// Begin starts a phase and returns the function that ends it.
func (t *Timer) Begin(name string) (end func(note string)) {
	if t == nil {
		return func(string) {}
	}
	t.phases = append(t.phases, Phase{Name: name, Start: time.Now()})
	idx := len(t.phases) - 1
	return func(note string) {
		p := &t.phases[idx]
		p.Dur = time.Since(p.Start)
		p.Note = note
	}
}

// Phases returns the recorded phases.
func (t *Timer) Phases() []Phase {
	if t == nil {
		return nil
	}
	return t.phases
}

// Total is the sum of all phase durations.
func (t *Timer) Total() time.Duration {
	var total time.Duration
	for _, p := range t.Phases() {
		total += p.Dur
	}
	return total
}

// WriteSummary prints one row per phase plus the total.
func (t *Timer) WriteSummary(w io.Writer) {
	if len(t.Phases()) == 0 {
		return
	}
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"Phase", "ms", "Note"})
	tbl.SetAutoWrapText(false)
	for _, p := range t.phases {
		tbl.Append([]string{p.Name, millis(p.Dur), p.Note})
	}
	tbl.SetFooter([]string{"total", millis(t.Total()), ""})
	tbl.Render()
}

func millis(d time.Duration) string {
	return fmt.Sprintf("%.2f", float64(d)/float64(time.Millisecond))
}
