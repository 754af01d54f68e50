package tracer

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"jets/internal/jets"
)

// Tracer receives events. Implementations are goroutine-safe.
type Tracer interface {
	// Emit records ev. Tracers may stamp ev.Seq.
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	// Enabled is Level() > LevelOff.
	Enabled() bool
}

// StorageMode determines how events are stored.
type StorageMode uint8

const (
	ModeStream StorageMode = iota + 1 // write as events happen
	ModeRing                          // circular buffer
	ModeBoth                          // stream + ring
)

func (m StorageMode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModeRing:
		return "ring"
	case ModeBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseMode converts stream|ring|both.
func ParseMode(s string) (StorageMode, error) {
	switch strings.ToLower(s) {
	case "stream":
		return ModeStream, nil
	case "ring":
		return ModeRing, nil
	case "both":
		return ModeBoth, nil
	default:
		return ModeRing, errors.Newf("invalid storage mode: %q (expected: stream|ring|both)", s)
	}
}

// Config holds tracer configuration.
type Config struct {
	Level      Level
	Mode       StorageMode
	Format     Format        // FormatAuto picks by OutputPath
	Output     io.Writer     // text output; overrides OutputPath
	OutputPath string        // "-" or "" for stderr
	RingSize   int           // default 4096
	Heartbeat  time.Duration // 0 disables heartbeats
}

// New creates a Tracer for cfg.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	if cfg.RingSize <= 0 {
		cfg.RingSize = 4096
	}

	switch cfg.Mode {
	case ModeStream:
		return openStream(cfg)
	case ModeRing:
		return NewRingTracer(cfg.RingSize, cfg.Level), nil
	case ModeBoth:
		stream, err := openStream(cfg)
		if err != nil {
			return nil, err
		}
		return NewMultiTracer(cfg.Level, stream, NewRingTracer(cfg.RingSize, cfg.Level)), nil
	default:
		return nil, errors.Newf("unknown storage mode: %v", cfg.Mode)
	}
}

func openStream(cfg Config) (Tracer, error) {
	format := cfg.Format
	if format == FormatAuto {
		format = DetectFormat(cfg.OutputPath)
		if cfg.Output != nil {
			format = FormatText
		}
	}

	if format == FormatJETS {
		var w *jets.Writer
		switch {
		case cfg.Output != nil:
			w = jets.NewWriter(cfg.Output)
		case cfg.OutputPath == "" || cfg.OutputPath == "-":
			w = jets.NewWriter(os.Stderr)
		default:
			var err error
			if w, err = jets.Create(cfg.OutputPath); err != nil {
				return nil, errors.Wrap(err, "open trace output")
			}
		}
		return NewJETSTracer(w, cfg.Level), nil
	}

	w, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}
	return NewStreamTracer(w, cfg.Level), nil
}

// stderr keeps Close from closing the process's stderr.
type stderr struct{ io.Writer }

func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return stderr{os.Stderr}, nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, errors.Wrap(err, "open trace output")
	}
	return f, nil
}
