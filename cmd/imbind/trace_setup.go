package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"imbind/internal/trace"
)

// tracing is the tracer attached to a command's context.
type tracing struct {
	tracer    trace.Tracer
	heartbeat *trace.Heartbeat
}

// setupTracing reads the trace flags and attaches a tracer to the context
// of cmd.
func setupTracing(cmd *cobra.Command) (*tracing, error) {
	flags := cmd.Root().PersistentFlags()
	output, err := flags.GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	formatStr, err := flags.GetString("trace-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	interval, err := flags.GetDuration("trace-heartbeat")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, usageError(err)
	}
	// A trace file without a level records stage boundaries.
	if level == trace.LevelOff && output != "" {
		level = trace.LevelStage
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return &tracing{tracer: trace.Nop}, nil
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, usageError(err)
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, usageError(err)
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: output,
		RingSize:   ringSize,
		Heartbeat:  interval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	t := &tracing{tracer: tracer}
	if interval > 0 {
		t.heartbeat = trace.StartHeartbeat(tracer, interval)
	}
	return t, nil
}

// close flushes the tracer. When the run failed, events held in a ring
// are dumped to stderr first.
func (t *tracing) close(cmd *cobra.Command, failed bool) {
	if t == nil {
		return
	}
	if t.heartbeat != nil {
		t.heartbeat.Stop()
	}
	if failed {
		if ring := ringOf(t.tracer); ring != nil {
			if err := ring.Dump(cmd.ErrOrStderr(), trace.FormatText); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
			}
		}
	}
	if err := t.tracer.Flush(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
	}
	if err := t.tracer.Close(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
	}
}

func ringOf(t trace.Tracer) *trace.RingTracer {
	switch x := t.(type) {
	case *trace.RingTracer:
		return x
	case *trace.MultiTracer:
		if r, ok := x.Ring(); ok {
			return r
		}
	}
	return nil
}
