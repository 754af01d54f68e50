package main

import (
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"jets/internal/config"
	"jets/internal/jets"
	"jets/internal/tracer"
)

// setupTracing builds the self-tracer from the persistent flags, falling
// back to the [trace] section of the config, and attaches it to the
// command's context. Without an output path tracing stays off.
func setupTracing(cmd *cobra.Command, defaults config.Trace) (func(), error) {
	output := flagOr(cmd, "trace", defaults.Path)
	levelStr := flagOr(cmd, "trace-level", defaults.Level)
	modeStr := flagOr(cmd, "trace-mode", defaults.Mode)
	ringSize, _ := cmd.Flags().GetInt("trace-ring-size")

	level, err := tracer.ParseLevel(levelStr)
	if err != nil {
		return nil, errors.Wrap(err, "invalid trace level")
	}
	if level == tracer.LevelOff || output == "" {
		cmd.SetContext(tracer.WithTracer(cmd.Context(), tracer.Nop))
		return func() {}, nil
	}
	mode, err := tracer.ParseMode(modeStr)
	if err != nil {
		return nil, errors.Wrap(err, "invalid trace mode")
	}

	t, err := tracer.New(tracer.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: output,
		RingSize:   ringSize,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create tracer")
	}
	cmd.SetContext(tracer.WithTracer(cmd.Context(), t))

	return func() {
		if ring, ok := t.(*tracer.RingTracer); ok {
			if err := dumpRing(ring, output); err != nil {
				slog.Error("trace: dump ring", "err", err)
			}
		}
		if err := t.Flush(); err != nil {
			slog.Error("trace: flush", "err", err)
		}
		if err := t.Close(); err != nil {
			slog.Error("trace: close", "err", err)
		}
	}, nil
}

// dumpRing writes the ring's events to path in the format the path selects.
func dumpRing(ring *tracer.RingTracer, path string) error {
	if tracer.DetectFormat(path) == tracer.FormatJETS {
		w, err := jets.Create(path)
		if err != nil {
			return err
		}
		if err := ring.DumpJETS(w); err != nil {
			_ = w.Close()
			return err
		}
		return w.Close()
	}
	if path == "-" {
		return ring.Dump(os.Stderr)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create trace dump")
	}
	if err := ring.Dump(f); err != nil {
		_ = f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close trace dump")
}
