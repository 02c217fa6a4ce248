package pipeline

import (
	"context"

	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/transform"
)

// DefaultMaxIterations caps Converge when no limit is configured.
const DefaultMaxIterations = 16

// Counter is a pass that reports how much its last run did.
type Counter interface {
	transform.Pass
	Changes() int
}

// Converge reruns p until a run reports no changes. Hitting max leaves a
// Fatal diagnostic on the library. It returns the number of runs.
func Converge(ctx context.Context, lib *ir.Library, p Counter, max int) (*ir.Library, int) {
	if max <= 0 {
		max = DefaultMaxIterations
	}
	for i := 1; i <= max; i++ {
		lib = transform.Apply(ctx, lib, p)
		if p.Changes() == 0 {
			return lib, i
		}
	}
	return lib.WithDiagnostics(diag.Newf(diag.SevFatal, diag.PipConvergenceLimit,
		"%s still changed the library after %d runs", p.Name(), max)), max
}
