// Package stats summarizes a loaded trace: record counts per kind, tree
// depth, duration percentiles and how record starts spread over time.
package stats

import (
	"cmp"
	"slices"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/cockroachdb/errors"

	"jets/internal/trace"
)

// KindCount is the number of records of one kind.
type KindCount struct {
	Kind  string
	Count int
}

// Summary describes one trace.
type Summary struct {
	Path    string
	Format  trace.Format
	Version string
	Extent  trace.Extent

	Records  int
	Roots    int
	Events   int
	Open     int // records without an end
	MaxDepth int // roots are at depth 0
	Kinds    []KindCount

	// Durations holds the duration of every ended record. It is nil when no
	// record has ended.
	Durations *hdrhistogram.Histogram

	starts []int64
}

// Compute walks every record of tr once.
func Compute(path string, tr trace.Trace) (*Summary, error) {
	meta := tr.Metadata()
	s := &Summary{
		Path:    path,
		Format:  tr.Format(),
		Version: meta.Version,
		Extent:  meta.Extent,
		Roots:   len(tr.RootIDs()),
	}

	type item struct {
		r     trace.Record
		depth int
	}
	var stack []item
	for r := range trace.Roots(tr) {
		stack = append(stack, item{r: r})
	}
	kinds := make(map[string]int)
	var durations []int64
	maxDur := int64(1)
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		r := it.r

		s.Records++
		s.Events += r.NumEvents()
		s.MaxDepth = max(s.MaxDepth, it.depth)
		kinds[r.Kind()]++
		s.starts = append(s.starts, r.Start())
		if d, ok := r.Duration(); ok {
			d = max(d, 0)
			durations = append(durations, d)
			maxDur = max(maxDur, d)
		} else {
			s.Open++
		}
		for c := range trace.Children(r) {
			stack = append(stack, item{r: c, depth: it.depth + 1})
		}
	}

	for k, n := range kinds {
		s.Kinds = append(s.Kinds, KindCount{Kind: k, Count: n})
	}
	slices.SortFunc(s.Kinds, func(a, b KindCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Kind, b.Kind))
	})

	if len(durations) > 0 {
		s.Durations = hdrhistogram.New(0, maxDur, 3)
		for _, d := range durations {
			if err := s.Durations.RecordValue(d); err != nil {
				return nil, errors.Wrapf(err, "record duration %d", d)
			}
		}
	}
	return s, nil
}

// Percentile returns the duration at percentile p (0..100), or 0 when no
// record has ended.
func (s *Summary) Percentile(p float64) int64 {
	if s.Durations == nil {
		return 0
	}
	return s.Durations.ValueAtPercentile(p)
}

// Density counts record starts in n equal slices of the extent.
func (s *Summary) Density(n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	span := s.Extent.Span()
	for _, clk := range s.starts {
		i := 0
		if span > 0 {
			i = int((clk - s.Extent.Start) * int64(n) / (span + 1))
		}
		out[min(max(i, 0), n-1)]++
	}
	return out
}
