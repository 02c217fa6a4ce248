package pipeline

import (
	"context"
	"errors"
	"slices"
	"testing"

	"imbind/internal/config"
	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/observ"
	"imbind/internal/testkit"
	"imbind/internal/transform"
)

// countdown rewrites the first record until remaining reaches zero.
type countdown struct {
	remaining int
	changes   int
}

func (*countdown) Name() string   { return "countdown" }
func (p *countdown) Changes() int { return p.changes }

func (p *countdown) Begin() transform.Hooks {
	p.changes = 0
	return &countdownHooks{pass: p}
}

type countdownHooks struct {
	transform.Base
	pass *countdown
}

func (h *countdownHooks) TransformRecord(_ *transform.Context, r *ir.Record) transform.Result {
	if h.pass.remaining == 0 {
		return transform.Keep()
	}
	h.pass.remaining--
	h.pass.changes++
	c := r.Clone()
	c.Size++
	return transform.Replace(c)
}

func smallLibrary() *ir.Library {
	return ir.NewLibrary(ir.LibraryParts{Declarations: []ir.Decl{ir.NewRecord("ImGuiStyle")}})
}

func TestConvergeStopsWhenQuiet(t *testing.T) {
	lib, n := Converge(context.Background(), smallLibrary(), &countdown{remaining: 3}, 16)
	if n != 4 {
		t.Fatalf("iterations = %d, want 4", n)
	}
	if got := lib.Declarations()[0].(*ir.Record).Size; got != 3 {
		t.Fatalf("size = %d", got)
	}
	if len(lib.Diagnostics()) != 0 {
		t.Fatalf("diagnostics = %v", lib.Diagnostics())
	}
}

func TestConvergeCap(t *testing.T) {
	lib, n := Converge(context.Background(), smallLibrary(), &countdown{remaining: 100}, 5)
	if n != 5 {
		t.Fatalf("iterations = %d, want 5", n)
	}
	ds := lib.Diagnostics()
	if len(ds) != 1 || ds[0].Code != diag.PipConvergenceLimit || ds[0].Severity != diag.SevFatal {
		t.Fatalf("diagnostics = %v", ds)
	}
}

type recordingSink struct{ events []Event }

func (s *recordingSink) OnEvent(ev Event) { s.events = append(s.events, ev) }

func TestRunReportsProgressAndTimings(t *testing.T) {
	sink := &recordingSink{}
	timer := observ.NewTimer()
	steps := []Step{
		ConvergeStep(StagePasses, &countdown{remaining: 2}, 0),
		{Name: "skipper", Stage: StageLink, Run: func(_ context.Context, st *State) error {
			st.Skip("skipper", "nothing to do")
			return nil
		}},
	}
	st, err := Run(context.Background(), smallLibrary(), steps, Options{Progress: sink, Timer: timer})
	if err != nil {
		t.Fatal(err)
	}
	if st.Iterations["countdown"] != 3 {
		t.Fatalf("iterations = %v", st.Iterations)
	}
	if !slices.Equal(st.Timings.Steps(), []string{"countdown", "skipper"}) {
		t.Fatalf("timed steps = %v", st.Timings.Steps())
	}
	var statuses []Status
	for _, ev := range sink.events {
		statuses = append(statuses, ev.Status)
	}
	want := []Status{StatusQueued, StatusQueued, StatusWorking, StatusDone, StatusWorking, StatusSkipped, StatusDone}
	if !slices.Equal(statuses, want) {
		t.Fatalf("statuses = %v, want %v", statuses, want)
	}
	if got := timer.Report().Phases[0].Note; got != "3 iterations" {
		t.Fatalf("timer note = %q", got)
	}
	if ds := st.Library.Diagnostics(); len(ds) != 1 || ds[0].Code != diag.PipStageSkipped {
		t.Fatalf("diagnostics = %v", ds)
	}
}

func TestRunAbortsOnStepError(t *testing.T) {
	boom := errors.New("boom")
	ran := false
	steps := []Step{
		{Name: "fail", Stage: StageEmit, Run: func(context.Context, *State) error { return boom }},
		{Name: "after", Stage: StageEmit, Run: func(context.Context, *State) error { ran = true; return nil }},
	}
	_, err := Run(context.Background(), smallLibrary(), steps, Options{})
	if !errors.Is(err, boom) || ran {
		t.Fatalf("err = %v, later step ran = %v", err, ran)
	}
}

func stepNames(steps []Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Name
	}
	return out
}

func TestStandardOrder(t *testing.T) {
	cfg := config.Default()
	noop := Collaborators{
		Native: func(_ context.Context, lib *ir.Library) (*ir.Library, []string, error) { return lib, nil, nil },
		Link:   func(_ context.Context, lib *ir.Library, _ []string) (*ir.Library, error) { return lib, nil },
		Emit:   func(context.Context, *ir.Library) ([]diag.Diagnostic, error) { return nil, nil },
	}
	steps, _ := Standard(&cfg, noop)
	want := []string{
		"remove-unneeded", "enum-normalize", "key-enum-workaround", "broken-extractor",
		"remove-explicit-bit-field-padding", "const-overload-rename",
		"make-everything-public", "vector-erasure", "type-reduction", "misc-fixes",
		"lift-anonymous-record-fields", "internal-fixup", "fixup-function-pointer-returns", "namespaces",
		"remove-illegal-vector-references", "move-loose-declarations", "auto-name-parameters",
		"create-trampolines", "string-wrappers", "strip-unreferenced-lazy-declarations", "deduplicate-names", "organize-output-files",
		"version-constants", "vector-types", "native-build", "link-imports", "verify",
		"final-broken-extractor", "emit",
	}
	if got := stepNames(steps); !slices.Equal(got, want) {
		t.Fatalf("steps = %v", got)
	}

	bare, _ := Standard(&cfg, Collaborators{})
	if got := stepNames(bare); slices.Contains(got, "native-build") || slices.Contains(got, "emit") {
		t.Fatalf("steps without collaborators = %v", got)
	}
}

func TestNativeFailureSkipsLink(t *testing.T) {
	cfg := config.Default()
	linked := false
	var emitted *ir.Library
	steps, _ := Standard(&cfg, Collaborators{
		Native: func(context.Context, *ir.Library) (*ir.Library, []string, error) {
			return nil, nil, errors.New("cc: not found")
		},
		Link: func(_ context.Context, lib *ir.Library, _ []string) (*ir.Library, error) {
			linked = true
			return lib, nil
		},
		Emit: func(_ context.Context, lib *ir.Library) ([]diag.Diagnostic, error) {
			emitted = lib
			return []diag.Diagnostic{diag.NewWarning(diag.EmtInfo, "emitted")}, nil
		},
	})
	st, err := Run(context.Background(), smallLibrary(), steps, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if linked {
		t.Fatalf("linker ran after a failed native build")
	}
	if emitted == nil {
		t.Fatalf("emission did not run")
	}
	got := codesOf(st.Library.Diagnostics())
	want := []diag.Code{diag.NatBuildFailed, diag.PipStageSkipped, diag.EmtInfo}
	if !slices.Equal(got, want) {
		t.Fatalf("diagnostics = %v", st.Library.Diagnostics())
	}
	if !slices.Equal(st.Skipped, []string{"link-imports"}) {
		t.Fatalf("skipped = %v", st.Skipped)
	}
	if err := testkit.CheckLibrary(st.Library); err != nil {
		t.Fatal(err)
	}
}

func codesOf(ds []diag.Diagnostic) []diag.Code {
	out := make([]diag.Code, len(ds))
	for i, d := range ds {
		out[i] = d.Code
	}
	return out
}

func TestTypedefOverrides(t *testing.T) {
	got := TypedefOverrides(map[string]string{"A": "char16", "B": "rune", "C": "unsafe.Pointer", "D": "void"})
	if got["A"] != ir.Builtin(ir.BuiltinChar16) {
		t.Fatalf("A = %s", ir.Describe(got["A"]))
	}
	if got["B"] != (ir.ExternalType{Name: "rune"}) {
		t.Fatalf("B = %s", ir.Describe(got["B"]))
	}
	if got["C"] != (ir.ExternalType{Namespace: "unsafe", Name: "Pointer"}) {
		t.Fatalf("C = %s", ir.Describe(got["C"]))
	}
	if got["D"] != (ir.VoidType{}) {
		t.Fatalf("D = %s", ir.Describe(got["D"]))
	}
}
