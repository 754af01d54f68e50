// Package prof writes pprof profiles of a CLI run.
package prof

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/cockroachdb/errors"
)

var cpuFile *os.File

// StartCPU enables CPU profiling and writes samples to path.
func StartCPU(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create cpu profile")
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "start cpu profile")
	}
	cpuFile = f
	return nil
}

// StopCPU stops an active CPU profile and closes its file.
func StopCPU() error {
	if cpuFile == nil {
		return nil
	}
	pprof.StopCPUProfile()
	err := cpuFile.Close()
	cpuFile = nil
	return errors.Wrap(err, "close cpu profile")
}

// WriteMem captures a heap profile after a GC.
func WriteMem(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create heap profile")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "close heap profile")
		}
	}()
	runtime.GC()
	return errors.Wrap(pprof.WriteHeapProfile(f), "write heap profile")
}
