package main

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"jets/internal/loader"
	"jets/internal/sorting"
	"jets/internal/ui"
	"jets/internal/visibility"
)

func newViewCmd(a *app) *cobra.Command {
	var noSession bool
	cmd := &cobra.Command{
		Use:   "view <file>",
		Short: "Browse a trace interactively",
		Long: `Browse a trace interactively. <file> is a .jets trace (optionally
.zst, .gz, .br or .sz compressed), "virtual" or "virtual:<seed>" for a
synthetic trace.

Keys: arrows move, enter/space toggles, s cycles the sort key, S reverses
it, f toggles the time filter, e/c expand/collapse everything, r reloads,
q quits. The view is remembered per file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, a, args[0], noSession)
		},
	}
	cmd.Flags().String("sort", "", "initial sort (description|start|duration[:asc|desc], or none)")
	cmd.Flags().Int("depth", 0, "expand levels above this depth on first open")
	cmd.Flags().Int64("from", 0, "filter window start clock")
	cmd.Flags().Int64("to", 0, "filter window end clock")
	cmd.Flags().BoolVar(&noSession, "no-session", false, "neither restore nor save the view")
	return cmd
}

func runView(cmd *cobra.Command, a *app, path string, noSession bool) error {
	modeStr, _ := cmd.Flags().GetString("ui")
	mode, err := readUIMode(modeStr)
	if err != nil {
		return err
	}
	spec, err := sortSpec(flagOr(cmd, "sort", a.cfg.View.DefaultSort))
	if err != nil {
		return err
	}
	rng, err := viewportFlags(cmd)
	if err != nil {
		return err
	}
	depth := intFlagOr(cmd, "depth", a.cfg.View.ExpandDepth)

	if !shouldUseTUI(mode) {
		slog.Info("stdout is not a terminal; printing the tree instead", "path", path)
		return printTree(cmd, a, path, treeOptions{sort: spec, depth: depth, viewport: rng})
	}

	var sessions *ui.SessionStore
	if !noSession {
		dir, err := a.cfg.SessionDir()
		if err != nil {
			slog.Warn("sessions disabled", "err", err)
		} else {
			sessions = ui.NewSessionStore(dir)
		}
	}

	ctx := cmd.Context()
	l := loader.New(a.loaderOptions(cmd))
	v := ui.NewViewer(ui.ViewerOptions{
		Path:        path,
		Start:       func() <-chan loader.Result { return l.Start(ctx, path) },
		Current:     l.Current,
		Sessions:    sessions,
		Sort:        spec,
		ExpandDepth: depth,
		Range:       rng,
	})
	program := tea.NewProgram(v, tea.WithAltScreen(), tea.WithOutput(cmd.OutOrStdout()))
	if _, err := program.Run(); err != nil {
		return err
	}
	if err := v.SaveErr(); err != nil {
		slog.Warn("session not saved", "path", path, "err", err)
	}
	return v.Err()
}

// sortSpec parses s; "" and "none" mean storage order.
func sortSpec(s string) (*sorting.Spec, error) {
	if s == "" || s == "none" {
		return nil, nil
	}
	spec, err := sorting.ParseSpec(s)
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

// viewportFlags returns the --from/--to window, or nil when neither is set.
func viewportFlags(cmd *cobra.Command) (*visibility.Viewport, error) {
	fs := cmd.Flags()
	if !fs.Changed("from") && !fs.Changed("to") {
		return nil, nil
	}
	from, _ := fs.GetInt64("from")
	to, _ := fs.GetInt64("to")
	if !fs.Changed("to") {
		to = 1<<63 - 1
	}
	if to < from {
		return nil, errors.Newf("--to (%d) is before --from (%d)", to, from)
	}
	return &visibility.Viewport{Start: from, End: to}, nil
}
