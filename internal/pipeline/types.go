package pipeline

import "time"

// Stage groups pipeline steps for progress reporting.
type Stage string

const (
	StageTranslate Stage = "translate"
	StagePasses    Stage = "passes"
	StageNative    Stage = "native"
	StageLink      Stage = "link"
	StageVerify    Stage = "verify"
	StageEmit      Stage = "emit"
)

// Status captures progress state within a step.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// Event reports progress for a step, or for the whole run when Step is
// empty.
type Event struct {
	Step    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// Timings holds step durations in execution order.
type Timings struct {
	order []string
	steps map[string]time.Duration
}

// Set stores a duration for the given step.
func (t *Timings) Set(step string, dur time.Duration) {
	if t == nil {
		return
	}
	if t.steps == nil {
		t.steps = make(map[string]time.Duration)
	}
	if _, ok := t.steps[step]; !ok {
		t.order = append(t.order, step)
	}
	t.steps[step] += dur
}

// Duration returns the recorded duration for step.
func (t Timings) Duration(step string) time.Duration {
	return t.steps[step]
}

// Steps lists the recorded steps in the order they first ran.
func (t Timings) Steps() []string {
	return append([]string(nil), t.order...)
}

// Total returns the sum of all step durations.
func (t Timings) Total() time.Duration {
	var total time.Duration
	for _, d := range t.steps {
		total += d
	}
	return total
}
