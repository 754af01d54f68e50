package prof

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCPUProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpu.pprof")
	if err := StartCPU(path); err != nil {
		t.Fatalf("StartCPU: %v", err)
	}
	if err := StopCPU(); err != nil {
		t.Fatalf("StopCPU: %v", err)
	}
	if err := StopCPU(); err != nil {
		t.Fatalf("second StopCPU: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
}

func TestWriteMem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mem.pprof")
	if err := WriteMem(path); err != nil {
		t.Fatalf("WriteMem: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Fatal("heap profile is empty")
	}
	if err := WriteMem(filepath.Join(t.TempDir(), "missing", "mem.pprof")); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}
