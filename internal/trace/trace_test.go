package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestLevelFiltersScopes(t *testing.T) {
	ring := NewRingTracer(16, LevelPass)
	Begin(ring, ScopeStage, "passes", 0).End("")
	Begin(ring, ScopePass, "enum-normalize", 0).End("")
	Point(ring, ScopeDecl, "removed", "ImGuiKey", 0)

	events := ring.Snapshot()
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	for _, ev := range events {
		if ev.Scope == ScopeDecl {
			t.Fatalf("decl event recorded at pass level")
		}
	}
}

func TestRingWrapsOldestFirst(t *testing.T) {
	ring := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d"} {
		Point(ring, ScopeDecl, name, "", 0)
	}
	var names []string
	for _, ev := range ring.Snapshot() {
		names = append(names, ev.Name)
	}
	if got := strings.Join(names, ","); got != "b,c,d" {
		t.Fatalf("snapshot order = %s", got)
	}
}

func TestStartNestsSpans(t *testing.T) {
	ring := NewRingTracer(8, LevelDebug)
	ctx := WithTracer(context.Background(), ring)
	ctx, outer := Start(ctx, ScopeStage, "passes")
	_, inner := Start(ctx, ScopePass, "dedupe")
	inner.End("")
	outer.End("")

	events := ring.Snapshot()
	if events[1].ParentID != events[0].SpanID {
		t.Fatalf("inner parent = %d, want %d", events[1].ParentID, events[0].SpanID)
	}
}

func TestStreamTextFormat(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelDebug, FormatText)
	Begin(st, ScopePass, "string-wrappers", 0).WithExtra("created", "3").End("ok")
	out := buf.String()
	if !strings.Contains(out, "→ string-wrappers") || !strings.Contains(out, "(ok) {created=3}") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestDisabledSpanForwardsParent(t *testing.T) {
	s := Begin(Nop, ScopePass, "x", 7)
	if s.ID() != 7 {
		t.Fatalf("disabled span ID = %d, want parent 7", s.ID())
	}
}
