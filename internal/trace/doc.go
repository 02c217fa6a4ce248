// Package trace records what the generator did and when.
//
// Every pipeline stage and transformation pass opens a span; the engine adds
// point events for removed and fanned-out declarations at debug level.
//
//	imbind generate --trace=- --trace-level=pass
//
// Tracers: Nop (disabled), StreamTracer (write immediately, text or NDJSON),
// RingTracer (keep the last N events for a dump after a crash), MultiTracer
// (fan out). The active tracer travels in a context.Context:
//
//	ctx = trace.WithTracer(ctx, t)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "enum-normalize", 0)
//	defer span.End("")
package trace
