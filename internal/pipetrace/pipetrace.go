// Package pipetrace is the placeholder reader for pipeline trace dumps.
// It recognises the file names and yields an empty trace.
package pipetrace

import (
	"strings"

	"jets/internal/trace"
)

const Version = "pipetrace-stub"

// Match reports whether path names a pipetrace file (.pt or .pt.gz).
func Match(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".pt") || strings.HasSuffix(lower, ".pt.gz")
}

// Trace is always empty.
type Trace struct {
	meta trace.Metadata
}

var _ trace.Trace = (*Trace)(nil)

// Read returns the empty trace for path. The file is not opened.
func Read(path string) *Trace {
	return &Trace{meta: trace.Metadata{
		Version: Version,
		Header:  trace.Value("{}"),
	}}
}

func (t *Trace) Format() trace.Format                 { return trace.FormatPipetrace }
func (t *Trace) Metadata() *trace.Metadata            { return &t.meta }
func (t *Trace) RootIDs() []trace.ID                  { return nil }
func (t *Trace) Record(trace.ID) (trace.Record, bool) { return nil, false }
func (t *Trace) Len() int                             { return 0 }
