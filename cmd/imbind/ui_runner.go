package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"imbind/internal/ir"
	"imbind/internal/pipeline"
	"imbind/internal/ui"
)

type runOutcome struct {
	state *pipeline.State
	err   error
}

// runWithUI runs the pipeline in the background and renders its progress
// until the event channel closes.
func runWithUI(ctx context.Context, title string, lib *ir.Library, steps []pipeline.Step, opts pipeline.Options) (*pipeline.State, error) {
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		opts.Progress = pipeline.ChannelSink{Ch: events}
		st, err := pipeline.Run(ctx, lib, steps, opts)
		outcomeCh <- runOutcome{state: st, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout), tea.WithContext(ctx))
	_, uiErr := program.Run()
	if uiErr != nil {
		// Keep the pipeline from blocking on a full channel.
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.state, uiErr
	}
	return outcome.state, outcome.err
}
