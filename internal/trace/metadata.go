package trace

import "fmt"

// Format names the backend that built a trace.
type Format uint8

const (
	FormatJETS Format = iota + 1
	FormatVirtual
	FormatPipetrace
)

func (f Format) String() string {
	switch f {
	case FormatJETS:
		return "jets"
	case FormatVirtual:
		return "virtual"
	case FormatPipetrace:
		return "pipetrace"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// Extent is the closed time range [Start, End] covered by a trace.
type Extent struct {
	Start int64
	End   int64
}

// Span returns End - Start.
func (e Extent) Span() int64 {
	return e.End - e.Start
}

// Contains reports whether clk lies within e.
func (e Extent) Contains(clk int64) bool {
	return clk >= e.Start && clk <= e.End
}

func (e Extent) String() string {
	return fmt.Sprintf("[%d, %d]", e.Start, e.End)
}

// EmptyExtent is reported by traces without records.
var EmptyExtent = Extent{Start: 0, End: 1000}

// Footer holds the optional trailing counts of a trace. Nil fields were not
// recorded.
type Footer struct {
	CaptureEndClk    *int64
	TotalRecords     *uint64
	TotalAnnotations *uint64
	TotalEvents      *uint64
}

// Metadata describes a whole trace. It is computed once at construction.
type Metadata struct {
	Version string
	// Header is the free-form metadata object of the header line.
	Header Value
	Footer *Footer
	Extent Extent
}

// CaptureEndClk returns the footer's capture end, if any.
func (m *Metadata) CaptureEndClk() (int64, bool) {
	if m == nil || m.Footer == nil || m.Footer.CaptureEndClk == nil {
		return 0, false
	}
	return *m.Footer.CaptureEndClk, true
}

// Counts returns the footer's record, annotation and event totals. ok is
// false when the footer is missing or any count is absent.
func (m *Metadata) Counts() (records, annotations, events uint64, ok bool) {
	if m == nil || m.Footer == nil {
		return 0, 0, 0, false
	}
	f := m.Footer
	if f.TotalRecords == nil || f.TotalAnnotations == nil || f.TotalEvents == nil {
		return 0, 0, 0, false
	}
	return *f.TotalRecords, *f.TotalAnnotations, *f.TotalEvents, true
}

// ExtentOf computes the extent over (start, end-or-start) pairs yielded by
// each. It returns EmptyExtent when nothing is yielded.
func ExtentOf(each func(yield func(start, end int64))) Extent {
	var (
		e    Extent
		seen bool
	)
	each(func(start, end int64) {
		if !seen {
			e = Extent{Start: start, End: end}
			seen = true
			return
		}
		e.Start = min(e.Start, start)
		e.End = max(e.End, end)
	})
	if !seen {
		return EmptyExtent
	}
	return e
}
