package main

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"jets/internal/prof"
)

// setupProfiling enables the profilers requested by the persistent flags.
// The returned cleanup is safe to call more than once.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	cpuProfile, _ := cmd.Flags().GetString("cpuprofile")
	memProfile, _ := cmd.Flags().GetString("memprofile")

	stopCPU := func() {}
	writeMem := func() {}

	if cpuProfile != "" {
		if err := prof.StartCPU(cpuProfile); err != nil {
			return nil, errors.Wrap(err, "cpu profile")
		}
		stopCPU = func() {
			if err := prof.StopCPU(); err != nil {
				slog.Error("stop cpu profile", "err", err)
			}
		}
	}
	if memProfile != "" {
		writeMem = func() {
			if err := prof.WriteMem(memProfile); err != nil {
				slog.Error("write heap profile", "err", err)
			}
		}
	}

	cleaned := false
	return func() {
		if cleaned {
			return
		}
		cleaned = true
		stopCPU()
		writeMem()
	}, nil
}
