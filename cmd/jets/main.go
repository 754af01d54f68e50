package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"jets/internal/version"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "jets",
		Short: "JETS trace viewer and tools",
		Long: `jets browses hierarchical execution traces stored as JSON lines
(.jets, optionally compressed), generates synthetic RISC-V pipeline traces
and summarizes trace files.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "path to jets.toml (default: search upwards from the working directory)")
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.String("ui", "auto", "interactive UI (auto|on|off)")
	pf.String("log-level", "warn", "log level (debug|info|warn|error)")
	pf.String("trace", "", "write a self-trace to this path (.jets[.zst|.gz|.br|.sz] for JETS, '-' for stderr)")
	pf.String("trace-level", "phase", "self-trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "self-trace storage (stream|ring|both)")
	pf.Int("trace-ring-size", 4096, "self-trace ring capacity")
	pf.Duration("trace-heartbeat", 0, "self-trace heartbeat interval while loading (0 disables)")
	pf.Bool("timings", false, "print phase timings to stderr on exit")
	pf.String("metrics-out", "", "write Prometheus metrics to this file on exit")
	pf.String("cpuprofile", "", "write a CPU profile to this file")
	pf.String("memprofile", "", "write a heap profile to this file on exit")

	root.AddCommand(
		newViewCmd(a),
		newTreeCmd(a),
		newStatsCmd(a),
		newGenCmd(a),
		newVersionCmd(),
	)
	return root
}

func main() {
	a := &app{}
	err := newRootCmd(a).Execute()
	a.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// terminalWidth is the width of stdout, or 0 when it is not a terminal.
func terminalWidth() int {
	if !isTerminal(os.Stdout) {
		return 0
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}
