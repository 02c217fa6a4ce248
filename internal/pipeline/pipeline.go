// Package pipeline runs the ordered steps that turn a translated library
// into an emitted binding.
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/observ"
	"imbind/internal/trace"
	"imbind/internal/transform"
)

// State is what steps read and update.
type State struct {
	Library *ir.Library
	// Artifacts are native libraries produced by the native step.
	Artifacts []string
	// Skipped names steps that decided not to run.
	Skipped []string
	// Iterations records how many runs each converging step took.
	Iterations map[string]int
	Timings    Timings

	skipLink bool
}

// Step is one entry of the pipeline.
type Step struct {
	Name  string
	Stage Stage
	Run   func(ctx context.Context, st *State) error
}

// PassStep runs p once.
func PassStep(stage Stage, p transform.Pass) Step {
	return Step{Name: p.Name(), Stage: stage, Run: func(ctx context.Context, st *State) error {
		st.Library = transform.Apply(ctx, st.Library, p)
		return nil
	}}
}

// ConvergeStep reruns p until it stops changing the library.
func ConvergeStep(stage Stage, p Counter, max int) Step {
	return Step{Name: p.Name(), Stage: stage, Run: func(ctx context.Context, st *State) error {
		var n int
		st.Library, n = Converge(ctx, st.Library, p, max)
		if st.Iterations == nil {
			st.Iterations = make(map[string]int)
		}
		st.Iterations[p.Name()] = n
		return nil
	}}
}

// Options configures Run.
type Options struct {
	Progress ProgressSink
	Timer    *observ.Timer
}

// Run executes steps in order. A step error aborts the run; problems with
// the bound library are diagnostics and never abort.
func Run(ctx context.Context, lib *ir.Library, steps []Step, opts Options) (*State, error) {
	st := &State{Library: lib}
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "pipeline")
	defer func() {
		span.WithExtra("steps", strconv.Itoa(len(steps))).End("")
	}()

	for _, s := range steps {
		emit(opts.Progress, Event{Step: s.Name, Stage: s.Stage, Status: StatusQueued})
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		emit(opts.Progress, Event{Step: s.Name, Stage: s.Stage, Status: StatusWorking})

		idx := -1
		if opts.Timer != nil {
			idx = opts.Timer.Begin(s.Name)
		}
		start := time.Now()
		sctx, sspan := trace.Start(ctx, trace.ScopeStage, s.Name)
		skipped := len(st.Skipped)
		err := s.Run(sctx, st)
		elapsed := time.Since(start)
		sspan.End("")
		if opts.Timer != nil {
			opts.Timer.End(idx, note(st, s.Name))
		}
		st.Timings.Set(s.Name, elapsed)

		if err != nil {
			emit(opts.Progress, Event{Step: s.Name, Stage: s.Stage, Status: StatusError, Err: err, Elapsed: elapsed})
			return st, fmt.Errorf("%s: %w", s.Name, err)
		}
		status := StatusDone
		if len(st.Skipped) > skipped {
			status = StatusSkipped
		}
		emit(opts.Progress, Event{Step: s.Name, Stage: s.Stage, Status: status, Elapsed: elapsed})
	}
	emit(opts.Progress, Event{Status: StatusDone, Elapsed: st.Timings.Total()})
	return st, nil
}

// Skip records that step did not run and why.
func (st *State) Skip(step, reason string) {
	st.Skipped = append(st.Skipped, step)
	st.Library = st.Library.WithDiagnostics(diag.Newf(diag.SevNote, diag.PipStageSkipped, "%s skipped: %s", step, reason))
}

func note(st *State, step string) string {
	if n, ok := st.Iterations[step]; ok {
		return fmt.Sprintf("%d iterations", n)
	}
	return ""
}

func emit(sink ProgressSink, ev Event) {
	if sink != nil {
		sink.OnEvent(ev)
	}
}
