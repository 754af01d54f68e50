package tracegen

import (
	"bytes"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"jets/internal/jets"
	"jets/internal/testkit"
	"jets/internal/trace"
)

func generate(t *testing.T, cfg Config) ([]byte, Stats) {
	t.Helper()
	var buf bytes.Buffer
	w := jets.NewWriter(&buf)
	st, err := Generate(w, cfg)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes(), st
}

func TestSeed(t *testing.T) {
	cfg := Config{Clusters: 2, Cores: 3, Threads: 4, InstrMin: 5, InstrMax: 9}
	require.Equal(t, uint64(2345), cfg.Seed())
}

func TestGenerateIsDeterministic(t *testing.T) {
	cfg := Config{Clusters: 1, Cores: 2, Threads: 2, InstrMin: 5, InstrMax: 20}
	a, _ := generate(t, cfg)
	b, _ := generate(t, cfg)
	require.Equal(t, a, b)

	cfg.InstrMin = 6
	c, _ := generate(t, cfg)
	require.NotEqual(t, a, c)
}

func TestGenerateShape(t *testing.T) {
	cfg := Config{Clusters: 2, Cores: 2, Threads: 3, InstrMin: 10, InstrMax: 10}
	data, st := generate(t, cfg)
	require.Equal(t, 2*2*3*10, st.Instructions)

	tr, err := jets.ParseBytes(data)
	require.NoError(t, err)
	require.NoError(t, testkit.CheckTraceInvariants(tr))

	meta := tr.Metadata()
	require.Equal(t, Version, meta.Version)
	require.Contains(t, meta.Header.String(), `"hardware_model":"RISC-V SoC"`)
	require.Contains(t, meta.Header.String(), `"num_threads":3`)
	end, ok := meta.CaptureEndClk()
	require.True(t, ok)
	require.Equal(t, st.EndClk, end)

	require.Len(t, tr.RootIDs(), 2)
	require.Equal(t, 2+4+12+120, tr.Len())
	require.EqualValues(t, tr.Len(), st.Records)

	instrs, events := 0, 0
	for cluster := range trace.Roots(tr) {
		require.Equal(t, "Cluster", cluster.Kind())
		cend, ok := cluster.End()
		require.True(t, ok)
		require.Equal(t, st.EndClk, cend)
		for core := range trace.Children(cluster) {
			require.Equal(t, "Core", core.Kind())
			for thread := range trace.Children(core) {
				require.Equal(t, "Thread", thread.Kind())
				require.Zero(t, thread.Start())
				tend, _ := thread.End()
				for in := range trace.Children(thread) {
					instrs++
					require.Equal(t, "Instruction", in.Kind())
					require.True(t, strings.HasPrefix(in.Name(), "0xFFFFFFFF"))
					opcode, ok := in.Attrs().Get("opcode")
					require.True(t, ok)
					require.True(t, strings.HasSuffix(in.Name(), "-"+opcode.Text()))

					stages := stageNames(in)
					want := []string{"F1", "F2", "D", "RN", "DS", "IS", "RR", "EX"}
					if op := opcode.Text(); op == "LW" || op == "SW" {
						want = append(want, "M")
					}
					want = append(want, "WB", "C")
					require.Equal(t, want, stages)
					events += len(stages)

					last, _ := in.EventAt(in.NumEvents() - 1)
					iend, ok := in.End()
					require.True(t, ok)
					require.Equal(t, last.Clk, iend)
					require.Less(t, iend, tend)
				}
			}
		}
	}
	require.Equal(t, st.Instructions, instrs)
	require.EqualValues(t, events, st.Events)
}

func stageNames(r trace.Record) []string {
	var out []string
	for ev := range trace.Events(r) {
		out = append(out, ev.Name)
	}
	return out
}

func TestThreadLinesAreClockOrdered(t *testing.T) {
	data, _ := generate(t, Config{Clusters: 1, Cores: 1, Threads: 1, InstrMin: 30, InstrMax: 30})
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	// Skip the header and the cluster and core records, stop before the
	// core and cluster ends and the footer.
	prev := int64(-1)
	for _, line := range lines[3 : len(lines)-3] {
		clk := clkOf(t, line)
		require.GreaterOrEqual(t, clk, prev, line)
		prev = clk
	}
}

func clkOf(t *testing.T, line string) int64 {
	t.Helper()
	i := strings.Index(line, `"clk":`)
	require.GreaterOrEqual(t, i, 0, line)
	rest := line[i+len(`"clk":`):]
	j := strings.IndexAny(rest, ",}")
	n, err := strconv.ParseInt(rest[:j], 10, 64)
	require.NoError(t, err)
	return n
}

func TestWriteFileCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "soc.jets.br")
	st, err := WriteFile(path, Config{Clusters: 1, Cores: 1, Threads: 2, InstrMin: 3, InstrMax: 8})
	require.NoError(t, err)

	tr, err := jets.ParseFile(path)
	require.NoError(t, err)
	require.EqualValues(t, st.Records, tr.Len())
}

func TestConfigValidation(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	require.Error(t, Config{Clusters: 0, Cores: 1, Threads: 1}.Validate())
	require.Error(t, Config{Clusters: 1, Cores: 1, Threads: 1, InstrMin: 5, InstrMax: 4}.Validate())

	_, err := Generate(jets.NewWriter(&bytes.Buffer{}), Config{})
	require.Error(t, err)
}

func TestParseInstrRange(t *testing.T) {
	for _, tt := range []struct {
		in     string
		lo, hi int
		ok     bool
	}{
		{"100", 100, 100, true},
		{"10:20", 10, 20, true},
		{" 5 : 5 ", 5, 5, true},
		{"20:10", 0, 0, false},
		{"x", 0, 0, false},
		{"-1", 0, 0, false},
	} {
		lo, hi, err := ParseInstrRange(tt.in)
		if !tt.ok {
			require.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.lo, lo)
		require.Equal(t, tt.hi, hi)
	}
}
