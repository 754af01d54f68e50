package ui

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"jets/internal/trace"
	"jets/internal/visibility"
)

// Line is one tree row split into the parts a renderer styles separately.
type Line struct {
	Prefix string // connector lines
	Marker string // expansion marker, blank for leaves
	Name   string
	Kind   string
	Span   string // start, and end and duration when the record ended
}

// Prefix draws the connectors of row. Roots have none.
func Prefix(row visibility.Row) string {
	if row.Depth == 0 {
		return ""
	}
	var b strings.Builder
	bits := row.Branch.Bits()
	for k := 1; k < len(bits); k++ {
		if bits[k] {
			b.WriteString("│  ")
		} else {
			b.WriteString("   ")
		}
	}
	if row.IsLast {
		b.WriteString("└─ ")
	} else {
		b.WriteString("├─ ")
	}
	return b.String()
}

// Describe builds the Line of row. A row whose record is gone renders
// with its id only.
func Describe(tr trace.Trace, expanded visibility.Set, row visibility.Row) Line {
	l := Line{Prefix: Prefix(row), Marker: " "}
	switch {
	case row.Leaf:
	case expanded.Has(row.ID):
		l.Marker = "▾"
	default:
		l.Marker = "▸"
	}
	r, ok := tr.Record(row.ID)
	if !ok {
		l.Name = "#" + strconv.FormatUint(uint64(row.ID), 10)
		return l
	}
	l.Name = r.Description()
	if l.Name == "" {
		l.Name = r.Name()
	}
	l.Kind = r.Kind()
	l.Span = "@" + strconv.FormatInt(r.Start(), 10)
	if end, ok := r.End(); ok {
		l.Span += ".." + strconv.FormatInt(end, 10) + " (" + strconv.FormatInt(end-r.Start(), 10) + ")"
	}
	return l
}

// String joins the parts with single spaces.
func (l Line) String() string {
	var b strings.Builder
	b.WriteString(l.Prefix)
	b.WriteString(l.Marker)
	b.WriteByte(' ')
	b.WriteString(l.Name)
	if l.Kind != "" {
		b.WriteString(" [" + l.Kind + "]")
	}
	if l.Span != "" {
		b.WriteString(" " + l.Span)
	}
	return b.String()
}

// Fit truncates s to width terminal cells.
func Fit(s string, width int) string {
	return truncate(s, width)
}

// Pad fills s with spaces up to width terminal cells.
func Pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}
