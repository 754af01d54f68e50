// Package loader turns paths into traces. Parsing runs on a worker
// goroutine; the finished trace is handed to the caller exactly once and
// is immutable from then on.
package loader

import (
	"context"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"jets/internal/jets"
	"jets/internal/pipetrace"
	"jets/internal/trace"
	"jets/internal/tracer"
	"jets/internal/virtual"
)

// VirtualPrefix selects the synthetic backend: "virtual" uses the default
// options and "virtual:N" uses seed N.
const VirtualPrefix = "virtual"

// Options configure loads.
type Options struct {
	Virtual virtual.Options
	// Metrics may be nil.
	Metrics *Metrics
	// Heartbeat emits tracer heartbeats while a load runs; 0 disables them.
	Heartbeat time.Duration
	// Progress receives per-path events from LoadAll. It may be nil.
	Progress ProgressSink
}

func DefaultOptions() Options {
	return Options{Virtual: virtual.DefaultOptions()}
}

// Detect reports which backend path selects.
func Detect(path string) trace.Format {
	switch {
	case isVirtual(path):
		return trace.FormatVirtual
	case pipetrace.Match(path):
		return trace.FormatPipetrace
	default:
		return trace.FormatJETS
	}
}

func isVirtual(path string) bool {
	return path == VirtualPrefix || strings.HasPrefix(path, VirtualPrefix+":")
}

func virtualOptions(path string, base virtual.Options) (virtual.Options, error) {
	_, seed, ok := strings.Cut(path, ":")
	if !ok || seed == "" {
		return base, nil
	}
	n, err := strconv.ParseUint(seed, 10, 64)
	if err != nil {
		return base, errors.Wrapf(err, "virtual seed in %q", path)
	}
	base.Seed = n
	return base, nil
}

// Load parses path synchronously.
func Load(ctx context.Context, path string, opts Options) (trace.Trace, error) {
	format := Detect(path)
	ctx, span := tracer.Start(ctx, tracer.ScopeFile, "load:"+path)
	hb := tracer.StartHeartbeat(tracer.FromContext(ctx), opts.Heartbeat, span.ID())
	start := time.Now()

	tr, err := load(ctx, path, format, opts)

	hb.Stop()
	records := 0
	if err == nil {
		records = tr.Len()
		span.WithExtra("records", strconv.Itoa(records))
	}
	span.WithExtra("format", format.String())
	span.End(errDetail(err))
	opts.Metrics.observe(format.String(), time.Since(start).Seconds(), records, err)
	return tr, err
}

func load(ctx context.Context, path string, format trace.Format, opts Options) (trace.Trace, error) {
	switch format {
	case trace.FormatVirtual:
		vo, err := virtualOptions(path, opts.Virtual)
		if err != nil {
			return nil, err
		}
		_, span := tracer.Start(ctx, tracer.ScopeDetail, "generate")
		defer span.End("")
		return virtual.Generate(vo), nil
	case trace.FormatPipetrace:
		return pipetrace.Read(path), nil
	default:
		_, span := tracer.Start(ctx, tracer.ScopeDetail, "parse")
		tr, err := jets.ParseFile(path)
		span.End(errDetail(err))
		if err != nil {
			return nil, errors.Wrapf(err, "load %s", path)
		}
		return tr, nil
	}
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Result is the outcome of one Start call.
type Result struct {
	Trace   trace.Trace
	Err     error
	Path    string
	Request uint64
	Elapsed time.Duration
}

// Loader issues numbered background loads. A consumer that started a newer
// load can recognise and drop a late result with Current.
type Loader struct {
	opts Options
	seq  atomic.Uint64
}

func New(opts Options) *Loader {
	return &Loader{opts: opts}
}

// Start parses path on a new goroutine. The returned channel receives
// exactly one Result and is then closed. Cancelling ctx does not stop a
// parse in progress.
func (l *Loader) Start(ctx context.Context, path string) <-chan Result {
	req := l.seq.Add(1)
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		start := time.Now()
		tr, err := Load(ctx, path, l.opts)
		out <- Result{Trace: tr, Err: err, Path: path, Request: req, Elapsed: time.Since(start)}
	}()
	return out
}

// Current reports whether r answers the most recent Start.
func (l *Loader) Current(r Result) bool {
	return r.Request == l.seq.Load()
}

// LoadAll loads paths concurrently, at most GOMAXPROCS at a time. Traces
// come back in the order of paths; the first failure cancels the rest.
func LoadAll(ctx context.Context, paths []string, opts Options) ([]trace.Trace, error) {
	out := make([]trace.Trace, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, path := range paths {
		opts.report(Event{Path: path, Status: StatusQueued})
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			opts.report(Event{Path: path, Status: StatusLoading})
			start := time.Now()
			tr, err := Load(ctx, path, opts)
			if err != nil {
				opts.report(Event{Path: path, Status: StatusError, Err: err, Elapsed: time.Since(start)})
				return err
			}
			opts.report(Event{Path: path, Status: StatusDone, Records: tr.Len(), Elapsed: time.Since(start)})
			out[i] = tr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
