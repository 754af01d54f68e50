// Package tracer records what the jets tool itself does: loads, parses,
// traversals and renders. It is how slow traces and hung loads are
// diagnosed.
//
// # Usage
//
//	jets view --trace=- --trace-level=phase big.jets.zst
//	jets stats --trace=self.jets --trace-level=detail a.jets b.jets
//
// A trace path ending in .jets (optionally compressed, e.g. .jets.zst)
// is written in the JETS line format, so a run can be opened with
// jets view. Anything else gets one human-readable line per event.
//
// # Tracers
//
//   - Nop: disabled tracing
//   - StreamTracer: writes text lines as events happen
//   - JETSTracer: writes spans as JETS records and points as events
//   - RingTracer: keeps the last N events in memory
//   - MultiTracer: fans out to several tracers
//
// # Levels and scopes
//
// Every event has a Scope: ScopeCommand for a whole CLI command,
// ScopePhase for load/parse/index/render, ScopeFile for per-file work
// and ScopeDetail for fine-grained steps. LevelPhase emits the first two,
// LevelDetail adds ScopeFile and LevelDebug emits everything.
//
// # Context propagation
//
//	ctx = tracer.WithTracer(ctx, t)
//	span := tracer.Begin(tracer.FromContext(ctx), tracer.ScopePhase, "parse", 0)
//	defer span.End("")
package tracer
