package main

import (
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"jets/internal/config"
	"jets/internal/loader"
	"jets/internal/observ"
	"jets/internal/tracer"
)

// app is the state shared by every command of one invocation.
type app struct {
	cfg      config.Config
	cfgPath  string
	metrics  *loader.Metrics
	timer    *observ.Timer
	span     *tracer.Span
	cleanups []func()
}

func (a *app) setup(cmd *cobra.Command) error {
	explicit, _ := cmd.Flags().GetString("config")
	f, err := config.Resolve(explicit, ".")
	if err != nil {
		return err
	}
	a.cfg, a.cfgPath = f.Config, f.Path

	if err := a.setupLogging(cmd); err != nil {
		return err
	}
	for _, k := range f.Unknown {
		slog.Warn("unknown config key", "file", f.Path, "key", k)
	}
	if f.Path != "" {
		slog.Debug("loaded config", "file", f.Path)
	}

	color.NoColor = !useColor(flagOr(cmd, "color", a.cfg.Color))

	stopProf, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	a.cleanups = append(a.cleanups, stopProf)

	stopTrace, err := setupTracing(cmd, a.cfg.Trace)
	if err != nil {
		return err
	}
	a.cleanups = append(a.cleanups, stopTrace)

	ctx, span := tracer.Start(cmd.Context(), tracer.ScopeCommand, "jets "+cmd.Name())
	cmd.SetContext(ctx)
	a.span = span

	if on, _ := cmd.Flags().GetBool("timings"); on {
		a.timer = observ.NewTimer()
		errOut := cmd.ErrOrStderr()
		a.cleanups = append(a.cleanups, func() { a.timer.WriteSummary(errOut) })
	}

	if out, _ := cmd.Flags().GetString("metrics-out"); out != "" {
		a.metrics = loader.NewMetrics()
		a.cleanups = append(a.cleanups, func() {
			if err := a.metrics.WriteTextfile(out); err != nil {
				slog.Error("write metrics", "path", out, "err", err)
			}
		})
	}
	return nil
}

func (a *app) setupLogging(cmd *cobra.Command) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(flagOr(cmd, "log-level", a.cfg.LogLevel))); err != nil {
		return errors.Wrap(err, "log level")
	}
	h := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
	return nil
}

// close ends the command span and runs cleanups in reverse order. It is
// safe to call when setup never ran or failed halfway.
func (a *app) close() {
	if a.span != nil {
		a.span.End("")
		a.span = nil
	}
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
}

// loaderOptions returns the load options for cmd.
func (a *app) loaderOptions(cmd *cobra.Command) loader.Options {
	opts := loader.DefaultOptions()
	opts.Metrics = a.metrics
	opts.Heartbeat, _ = cmd.Flags().GetDuration("trace-heartbeat")
	return opts
}

// flagOr returns the flag's value when it was set on the command line,
// otherwise fallback when non-empty, otherwise the flag default.
func flagOr(cmd *cobra.Command, name, fallback string) string {
	f := cmd.Flags().Lookup(name)
	if f == nil {
		return fallback
	}
	if f.Changed || strings.TrimSpace(fallback) == "" {
		return f.Value.String()
	}
	return fallback
}

// intFlagOr is flagOr for int flags.
func intFlagOr(cmd *cobra.Command, name string, fallback int) int {
	v, _ := cmd.Flags().GetInt(name)
	if cmd.Flags().Changed(name) || fallback == 0 {
		return v
	}
	return fallback
}
