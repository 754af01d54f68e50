package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"jets/internal/loader"
	"jets/internal/stats"
	"jets/internal/trace"
	"jets/internal/ui"
)

type statsOptions struct {
	detail     bool
	plot       bool
	plotWidth  int
	plotHeight int
}

func newStatsCmd(a *app) *cobra.Command {
	var opts statsOptions
	cmd := &cobra.Command{
		Use:   "stats <file>...",
		Short: "Summarize one or more traces",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, a, args, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.detail, "detail", false, "print per-kind counts and duration percentiles")
	cmd.Flags().BoolVar(&opts.plot, "plot", false, "plot record starts over time")
	cmd.Flags().IntVar(&opts.plotWidth, "plot-width", 60, "plot width in columns")
	cmd.Flags().IntVar(&opts.plotHeight, "plot-height", 8, "plot height in rows")
	return cmd
}

func runStats(cmd *cobra.Command, a *app, paths []string, opts statsOptions) error {
	modeStr, _ := cmd.Flags().GetString("ui")
	mode, err := readUIMode(modeStr)
	if err != nil {
		return err
	}
	lopts := a.loaderOptions(cmd)

	done := a.timer.Begin("load")
	var traces []trace.Trace
	if shouldUseTUI(mode) {
		traces, err = loadAllWithUI(cmd.Context(), fmt.Sprintf("loading %d traces", len(paths)), paths, lopts)
	} else {
		traces, err = loader.LoadAll(cmd.Context(), paths, lopts)
	}
	done(fmt.Sprintf("%d traces", len(paths)))
	if err != nil {
		return err
	}

	done = a.timer.Begin("summarize")
	summaries := make([]*stats.Summary, len(traces))
	for i, tr := range traces {
		if summaries[i], err = stats.Compute(paths[i], tr); err != nil {
			return err
		}
	}
	done("")

	done = a.timer.Begin("render")
	defer done("")
	out := cmd.OutOrStdout()
	stats.WriteTable(out, summaries)
	for _, s := range summaries {
		if opts.detail {
			fmt.Fprintln(out)
			stats.WriteDetail(out, s)
		}
		if opts.plot && s.Records > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, stats.Plot(s, opts.plotWidth, opts.plotHeight))
		}
	}
	return nil
}

type loadOutcome struct {
	traces []trace.Trace
	err    error
}

// loadAllWithUI runs loader.LoadAll while a progress display follows it.
func loadAllWithUI(ctx context.Context, title string, paths []string, opts loader.Options) ([]trace.Trace, error) {
	events := make(chan loader.Event, 256)
	outcomeCh := make(chan loadOutcome, 1)

	go func() {
		o := opts
		o.Progress = loader.ChannelSink{Ch: events}
		traces, err := loader.LoadAll(ctx, paths, o)
		outcomeCh <- loadOutcome{traces: traces, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, paths, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	for range events {
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.traces, uiErr
	}
	return outcome.traces, outcome.err
}
