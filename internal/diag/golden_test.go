package diag

import (
	"testing"
)

func TestFormatGoldenDiagnostics(t *testing.T) {
	diags := []Diagnostic{
		{
			Severity: SevWarning,
			Code:     TrnFieldRemoved,
			Message:  "another",
			Location: Location{File: "imgui_internal.h", Line: 20},
		},
		{
			Severity: SevError,
			Code:     TrnTemplateArity,
			Message:  "first line\nsecond",
			Location: Location{File: "imgui.h", Line: 3},
		},
		{
			Severity: SevIgnored,
			Code:     TrnInfo,
			Message:  "hidden",
		},
		{
			Severity: SevFatal,
			Code:     NatBuildFailed,
			Message:  "build script exited with status 2",
		},
	}

	expected := "fatal NAT4001 build script exited with status 2\n" +
		"error TRN2001 imgui.h:3 first line second\n" +
		"warning TRN2004 imgui_internal.h:20 another"

	if got := FormatGoldenDiagnostics(diags); got != expected {
		t.Fatalf("unexpected golden diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestSeverityLattice(t *testing.T) {
	order := []Severity{SevIgnored, SevNote, SevWarning, SevError, SevFatal}
	for i := 1; i < len(order); i++ {
		if order[i-1] >= order[i] {
			t.Fatalf("severity %s must be lower than %s", order[i-1], order[i])
		}
	}
	if SevWarning.IsError() || !SevError.IsError() || !SevFatal.IsError() {
		t.Fatalf("IsError must hold exactly for Error and Fatal")
	}
}

func TestBagLimitAndDedup(t *testing.T) {
	bag := NewBag(3)
	d := NewWarning(LnkAmbiguousSymbol, "two candidates")
	for i := 0; i < 5; i++ {
		bag.Add(d)
	}
	if bag.Len() != 3 {
		t.Fatalf("bag must honour its limit, got %d", bag.Len())
	}
	bag.Dedup()
	if bag.Len() != 1 {
		t.Fatalf("dedup left %d entries", bag.Len())
	}
	if bag.HasErrors() || !bag.HasWarnings() {
		t.Fatalf("unexpected severity summary")
	}
}

func TestDedupReporter(t *testing.T) {
	var got []Diagnostic
	r := NewDedupReporter(SliceReporter{Items: &got})
	r.Report(NewError(LnkMissingSymbol, "ImGui::Begin"))
	r.Report(NewError(LnkMissingSymbol, "ImGui::Begin"))
	r.Report(NewError(LnkMissingSymbol, "ImGui::End"))
	if len(got) != 2 {
		t.Fatalf("expected 2 forwarded diagnostics, got %d", len(got))
	}
}
