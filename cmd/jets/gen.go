package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"jets/internal/tracegen"
	"jets/internal/tracer"
)

func newGenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a synthetic RISC-V pipeline trace",
		Long: `Generate a synthetic RISC-V pipeline trace: clusters of cores running
threads of instructions, each instruction with its pipeline stage events.
The output is compressed according to its extension (.zst, .gz, .br, .sz).
The same sizes always produce the same trace.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGen(cmd, a)
		},
	}
	cmd.Flags().Int("clusters", 0, "number of clusters")
	cmd.Flags().Int("cores", 0, "cores per cluster")
	cmd.Flags().Int("threads", 0, "threads per core")
	cmd.Flags().String("instr", "", "instructions per thread, N or N:M")
	cmd.Flags().StringP("out", "o", "", "output path")
	return cmd
}

func runGen(cmd *cobra.Command, a *app) error {
	d := a.cfg.Gen
	cfg := tracegen.Config{
		Clusters: intFlagOr(cmd, "clusters", d.Clusters),
		Cores:    intFlagOr(cmd, "cores", d.Cores),
		Threads:  intFlagOr(cmd, "threads", d.Threads),
	}
	var err error
	if cfg.InstrMin, cfg.InstrMax, err = tracegen.ParseInstrRange(flagOr(cmd, "instr", d.Instr)); err != nil {
		return err
	}
	out := flagOr(cmd, "out", d.Out)

	_, span := tracer.Start(cmd.Context(), tracer.ScopePhase, "generate")
	done := a.timer.Begin("generate")
	st, err := tracegen.WriteFile(out, cfg)
	done(out)
	span.End(out)
	if err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	fmt.Fprint(cmd.OutOrStdout(), p.Sprintf("wrote %s: %d records, %d events, %d instructions, end clk %d\n",
		out, st.Records, st.Events, st.Instructions, st.EndClk))
	return nil
}
