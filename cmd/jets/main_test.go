package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jets/internal/jets"
	"jets/internal/version"
)

// run executes one jets invocation with an empty config file so the
// working directory cannot leak settings into the test.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runFull(t, args...)
	return out, err
}

func runFull(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "jets.toml")
	if err := os.WriteFile(cfg, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	a := &app{}
	root := newRootCmd(a)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", cfg, "--ui", "off", "--color", "off"}, args...))
	err := root.Execute()
	a.close()
	return out.String(), errOut.String(), err
}

func genTrace(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	out, err := run(t, "gen", "--clusters", "1", "--cores", "2", "--threads", "1", "--instr", "3", "-o", path)
	if err != nil {
		t.Fatalf("gen: %v", err)
	}
	if !strings.HasPrefix(out, "wrote "+path) {
		t.Fatalf("gen output = %q", out)
	}
	return path
}

func TestVersionFormats(t *testing.T) {
	out, err := run(t, "version", "--format", "short")
	if err != nil {
		t.Fatal(err)
	}
	if out != version.Version+"\n" {
		t.Fatalf("short = %q", out)
	}

	out, err = run(t, "version", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"tool": "jets"`) {
		t.Fatalf("json = %q", out)
	}

	out, err = run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "commit: ") {
		t.Fatalf("full = %q", out)
	}

	if _, err := run(t, "version", "--format", "xml"); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}

func TestGenThenTree(t *testing.T) {
	path := genTrace(t, "soc.jets.zst")

	out, err := run(t, "tree", path, "--depth", "0")
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "▸ ") {
		t.Fatalf("collapsed tree = %q", out)
	}

	out, err = run(t, "tree", path, "--expand-all", "--limit", "4", "--stats")
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if !strings.Contains(out, "├─ ") && !strings.Contains(out, "└─ ") {
		t.Fatalf("expanded tree has no connectors:\n%s", out)
	}
	if !strings.Contains(out, "more rows") {
		t.Fatalf("limit not applied:\n%s", out)
	}
	if !strings.Contains(strings.ToUpper(out), "UNFILTERED") {
		t.Fatalf("stats table missing:\n%s", out)
	}
}

func TestTreeFilterAndSortFlags(t *testing.T) {
	if _, err := run(t, "tree", "virtual:1", "--sort", "bogus"); err == nil {
		t.Fatal("expected a sort error")
	}
	if _, err := run(t, "tree", "virtual:1", "--from", "10", "--to", "5"); err == nil {
		t.Fatal("expected a window error")
	}
	all, err := run(t, "tree", "virtual:1", "--expand-all")
	if err != nil {
		t.Fatal(err)
	}
	filtered, err := run(t, "tree", "virtual:1", "--expand-all", "--from", "0", "--to", "100", "--sort", "duration:desc")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(filtered, "\n") >= strings.Count(all, "\n") {
		t.Fatalf("filter did not drop rows: %d vs %d", strings.Count(filtered, "\n"), strings.Count(all, "\n"))
	}
}

func TestViewWithoutTerminalPrintsTree(t *testing.T) {
	out, err := run(t, "view", "virtual:2", "--depth", "0")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "▸ ") {
		t.Fatalf("view fallback = %q", out)
	}
}

func TestStatsMetricsAndSelfTrace(t *testing.T) {
	path := genTrace(t, "soc.jets")
	dir := t.TempDir()
	metrics := filepath.Join(dir, "jets.prom")
	self := filepath.Join(dir, "self.jets")

	out, err := run(t, "stats", path, "virtual:4", "--detail", "--plot",
		"--metrics-out", metrics, "--trace", self, "--trace-level", "debug")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	for _, want := range []string{path, "virtual:4", "record starts"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stats output lacks %q:\n%s", want, out)
		}
	}

	body, err := os.ReadFile(metrics)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "jets_trace_loads_total") {
		t.Fatalf("metrics = %s", body)
	}

	tr, err := jets.ParseFile(self)
	if err != nil {
		t.Fatalf("self trace: %v", err)
	}
	// session, the command span and one load span per path at least
	if tr.Len() < 4 {
		t.Fatalf("self trace has %d records", tr.Len())
	}
}

func TestStatsMissingFile(t *testing.T) {
	_, err := run(t, "stats", filepath.Join(t.TempDir(), "missing.jets"))
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestBadGlobalFlags(t *testing.T) {
	if _, err := run(t, "--log-level", "loud", "version"); err == nil {
		t.Fatal("expected a log level error")
	}
	if _, err := run(t, "--trace", "-", "--trace-mode", "sideways", "version"); err == nil {
		t.Fatal("expected a trace mode error")
	}
}

func TestTimingsGoToStderr(t *testing.T) {
	out, errOut, err := runFull(t, "--timings", "tree", "virtual:5")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "layout") {
		t.Fatalf("timings leaked into stdout:\n%s", out)
	}
	for _, phase := range []string{"load", "layout", "render"} {
		if !strings.Contains(errOut, phase) {
			t.Fatalf("stderr lacks phase %q:\n%s", phase, errOut)
		}
	}
}
