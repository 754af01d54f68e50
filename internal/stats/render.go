package stats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

func count(n int) string { return printer.Sprintf("%d", n) }

func clk(n int64) string { return printer.Sprintf("%d", n) }

// WriteTable writes one row per summary.
func WriteTable(w io.Writer, summaries []*Summary) {
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"Trace", "Format", "Records", "Roots", "Events", "Depth", "Extent", "p50", "p99"})
	tbl.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, s := range summaries {
		tbl.Append([]string{
			s.Path,
			s.Format.String(),
			count(s.Records),
			count(s.Roots),
			count(s.Events),
			strconv.Itoa(s.MaxDepth),
			s.Extent.String(),
			clk(s.Percentile(50)),
			clk(s.Percentile(99)),
		})
	}
	tbl.Render()
}

// WriteDetail writes the per-kind counts and duration percentiles of s.
func WriteDetail(w io.Writer, s *Summary) {
	fmt.Fprintf(w, "%s (%s, version %q)\n", s.Path, s.Format, s.Version)
	fmt.Fprintf(w, "  records %s, open %s, events %s, extent %s\n",
		count(s.Records), count(s.Open), count(s.Events), s.Extent)

	kinds := tablewriter.NewWriter(w)
	kinds.SetHeader([]string{"Kind", "Records"})
	for _, k := range s.Kinds {
		kinds.Append([]string{k.Kind, count(k.Count)})
	}
	kinds.Render()

	if s.Durations == nil {
		fmt.Fprintln(w, "  no ended records")
		return
	}
	pct := tablewriter.NewWriter(w)
	pct.SetHeader([]string{"Duration", "min", "p25", "p50", "p75", "p90", "p99", "max", "mean"})
	pct.Append([]string{
		"clk",
		clk(s.Durations.Min()),
		clk(s.Percentile(25)),
		clk(s.Percentile(50)),
		clk(s.Percentile(75)),
		clk(s.Percentile(90)),
		clk(s.Percentile(99)),
		clk(s.Durations.Max()),
		fmt.Sprintf("%.1f", s.Durations.Mean()),
	})
	pct.Render()
}

// Plot draws record starts over the extent.
func Plot(s *Summary, width, height int) string {
	data := s.Density(width)
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Caption(fmt.Sprintf("record starts over %s", s.Extent)),
	)
}
