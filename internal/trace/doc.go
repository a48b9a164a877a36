// Package trace records what the ember compiler is doing while it runs.
//
// The build pipeline opens one span per pass (install, resolve, lower,
// validate, emit-c, emit-llvm) and, from the detail level on, one point
// event per lowered function. Spans are cheap when tracing is off: Begin
// returns an empty span.
//
// Enable tracing via command-line flags:
//
//	ember build --trace=- --trace-level=phase prog.json
//	ember build --trace=out.json --trace-mode=stream prog.json   # chrome://tracing
//
// Tracers:
//
//   - Nop: zero-overhead tracer used when disabled
//   - StreamTracer: writes each event immediately (text, NDJSON or Chrome)
//   - RingTracer: keeps the last N events for dumping after a crash
//   - MultiTracer: fans events out to several tracers
//
// Levels are off, error, phase, detail and debug. Phase admits build and
// pass events, detail adds functions, debug admits everything. Error records
// like detail but streams nothing: with --trace-mode=ring the buffer is
// dumped only after an internal compiler error.
//
// Tracers travel through the pipeline in a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "lower", 0)
//	defer span.End("")
package trace
