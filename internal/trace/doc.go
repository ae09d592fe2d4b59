// Package trace provides structured event tracing for ace sessions.
//
// Every subsystem reports through a Tracer obtained from the context:
// the workspace opens a session span, the merger a merge span with one point
// event per aliasing or rename decision, and the pass pipeline one span per
// pass.
//
// # Usage
//
//	ace merge --trace=- --trace-level=detail a.irf b.irf -o out.irf
//
// # Architecture
//
//   - nopTracer: zero-overhead tracer when disabled (Nop)
//   - StreamTracer: immediate write to a file or stderr
//   - RingTracer: circular buffer for post-mortem dumps
//   - MultiTracer: fan-out to several tracers
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only crash dumps
//   - LevelPhase: session, merge and pipeline boundaries
//   - LevelDetail: single passes and merge decisions
//   - LevelDebug: per-definition events
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeMerge, "merge", parentID)
//	defer span.End("")
package trace
