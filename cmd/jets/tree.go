package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"jets/internal/loader"
	"jets/internal/sorting"
	"jets/internal/ui"
	"jets/internal/visibility"
)

var (
	treeLineColor = color.New(color.FgHiBlack)
	treeMarkColor = color.New(color.FgYellow)
	treeNameColor = color.New(color.Bold)
	treeKindColor = color.New(color.FgCyan)
)

type treeOptions struct {
	sort      *sorting.Spec
	depth     int
	expandAll bool
	viewport  *visibility.Viewport
	limit     int
	stats     bool
}

func newTreeCmd(a *app) *cobra.Command {
	var (
		expandAll bool
		limit     int
		stats     bool
	)
	cmd := &cobra.Command{
		Use:   "tree <file>",
		Short: "Print the visible rows of a trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := sortSpec(flagOr(cmd, "sort", a.cfg.View.DefaultSort))
			if err != nil {
				return err
			}
			rng, err := viewportFlags(cmd)
			if err != nil {
				return err
			}
			return printTree(cmd, a, args[0], treeOptions{
				sort:      spec,
				depth:     intFlagOr(cmd, "depth", a.cfg.View.ExpandDepth),
				expandAll: expandAll,
				viewport:  rng,
				limit:     limit,
				stats:     stats,
			})
		},
	}
	cmd.Flags().BoolVar(&expandAll, "expand-all", false, "expand every record")
	cmd.Flags().Int("depth", 0, "expand levels above this depth")
	cmd.Flags().String("sort", "", "sort children (description|start|duration[:asc|desc], or none)")
	cmd.Flags().Int64("from", 0, "show only leaves starting at or after this clock")
	cmd.Flags().Int64("to", 0, "show only leaves starting at or before this clock")
	cmd.Flags().IntVar(&limit, "limit", 0, "print at most this many rows (0 for all)")
	cmd.Flags().BoolVar(&stats, "stats", false, "print row counts after the tree")
	return cmd
}

func printTree(cmd *cobra.Command, a *app, path string, opts treeOptions) error {
	done := a.timer.Begin("load")
	tr, err := loader.Load(cmd.Context(), path, a.loaderOptions(cmd))
	if err != nil {
		done("failed")
		return err
	}
	done(strconv.Itoa(tr.Len()) + " records")

	done = a.timer.Begin("layout")
	s := ui.NewState(tr, 1)
	if opts.expandAll {
		s.ExpandAll()
	} else {
		s.ExpandDepth(opts.depth)
	}
	s.SetSort(opts.sort)
	if opts.viewport != nil {
		s.SetRange(opts.viewport)
		s.ToggleFilter()
	}
	done(strconv.Itoa(len(s.Rows())) + " rows")

	done = a.timer.Begin("render")
	defer done("")
	rows := s.Rows()
	if opts.limit > 0 && len(rows) > opts.limit {
		rows = rows[:opts.limit]
	}
	out := cmd.OutOrStdout()
	width := terminalWidth()
	for _, row := range rows {
		writeTreeLine(out, ui.Describe(tr, s.Expanded(), row), width)
	}
	if len(rows) < len(s.Rows()) {
		fmt.Fprintf(out, "... %d more rows\n", len(s.Rows())-len(rows))
	}

	if opts.stats {
		tbl := tablewriter.NewWriter(out)
		tbl.SetHeader([]string{"Records", "Rows", "Unfiltered", "Depth"})
		tbl.Append([]string{
			strconv.Itoa(tr.Len()),
			strconv.Itoa(s.FilteredRows()),
			strconv.Itoa(s.TotalRows()),
			strconv.Itoa(s.MaxDepth()),
		})
		tbl.Render()
	}
	return nil
}

// writeTreeLine prints l, truncated to width cells when width is positive.
func writeTreeLine(w io.Writer, l ui.Line, width int) {
	if width > 0 {
		plain := l.String()
		if fit := ui.Fit(plain, width); fit != plain {
			fmt.Fprintln(w, fit)
			return
		}
	}
	line := treeLineColor.Sprint(l.Prefix) + treeMarkColor.Sprint(l.Marker) + " " + treeNameColor.Sprint(l.Name)
	if l.Kind != "" {
		line += " " + treeKindColor.Sprint("["+l.Kind+"]")
	}
	if l.Span != "" {
		line += " " + treeLineColor.Sprint(l.Span)
	}
	fmt.Fprintln(w, line)
}
