package nativebuild

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"imbind/internal/diag"
	"imbind/internal/frontend"
	"imbind/internal/ir"
	"imbind/internal/passes"
	"imbind/internal/transform"
)

// reducedLibrary translates a small header and reduces its types, so the
// inline functions carry front-end originals.
func reducedLibrary(t *testing.T) *ir.Library {
	t.Helper()
	snap := &frontend.Snapshot{
		Schema: frontend.SchemaVersion,
		Files:  []frontend.SnapshotFile{{Path: "include/imgui.h", InScope: true}},
		Types: []frontend.SnapshotType{
			{Handle: 1, Class: "builtin", Spelling: "float", Builtin: "float32"},
			{Handle: 2, Class: "record", Spelling: "ImVec2", Decl: 10},
			{Handle: 3, Class: "pointer", Spelling: "const char *", Pointee: 4, PointeeIsConst: true},
			{Handle: 4, Class: "builtin", Spelling: "char", Builtin: "char"},
			{Handle: 5, Class: "builtin", Spelling: "void", Builtin: "void"},
		},
		Decls: []frontend.SnapshotDecl{
			{Key: 10, Kind: "Record", Name: "ImVec2", Size: 8, File: 0, Children: []frontend.SnapshotDecl{
				{Key: 11, Kind: "Field", Name: "x", Type: 1, File: 0},
				{Key: 12, Kind: "Field", Name: "y", Type: 1, Offset: 4, File: 0},
				{Key: 13, Kind: "Function", Name: "Length", Type: 1, Inline: true, Instance: true, File: 0},
			}},
			{Key: 20, Kind: "Function", Name: "GetCursorPos", Namespace: "ImGui", Type: 2, Inline: true, File: 0},
			{Key: 21, Kind: "Function", Name: "Text", Namespace: "ImGui", Type: 5, Inline: true, File: 0, Children: []frontend.SnapshotDecl{
				{Key: 22, Kind: "Parameter", Name: "", Type: 3, File: 0},
				{Key: 23, Kind: "Parameter", Name: "scale", Type: 1, File: 0},
			}},
			{Key: 30, Kind: "Function", Name: "Begin", Namespace: "ImGui", Type: 5, Mangled: "_ZN5ImGui5BeginEv", File: 0},
		},
	}
	lib, err := frontend.Translate(context.Background(), snap)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	return transform.Apply(context.Background(), lib, passes.TypeReduction{})
}

func TestGenerateExports(t *testing.T) {
	lib, helper := GenerateExports(context.Background(), reducedLibrary(t))
	if len(helper.Wrappers) != 2 {
		t.Fatalf("expected 2 wrappers, got %d", len(helper.Wrappers))
	}
	if len(helper.Includes) != 1 || helper.Includes[0] != "imgui.h" {
		t.Fatalf("unexpected includes %v", helper.Includes)
	}

	src := helper.Source()
	for _, want := range []string{
		`#include "imbind_export.h"`,
		`extern "C" IMBIND_EXPORT ImVec2 imbind_ImGui_GetCursorPos()`,
		"return ImGui::GetCursorPos();",
		`extern "C" IMBIND_EXPORT void imbind_ImGui_Text(const char *a0, float scale)`,
		"    ImGui::Text(a0, scale);",
	} {
		if !strings.Contains(src, want) {
			t.Fatalf("helper source lacks %q:\n%s", want, src)
		}
	}

	cursor := lib.Declarations()[1].(*ir.Function)
	if cursor.SymbolName != "imbind_ImGui_GetCursorPos" {
		t.Fatalf("symbol not assigned: %q", cursor.SymbolName)
	}
	begin := lib.Declarations()[3].(*ir.Function)
	if begin.SymbolName != "" {
		t.Fatalf("exported functions keep their own symbol, got %q", begin.SymbolName)
	}
	method := lib.Declarations()[0].(*ir.Record).Members[2]
	if ds := method.Common().Diagnostics; len(ds) != 1 || ds[0].Severity != diag.SevWarning {
		t.Fatalf("inline method should warn, got %v", ds)
	}

	again, second := GenerateExports(context.Background(), lib)
	if !second.Empty() {
		t.Fatalf("second run should find nothing to export, got %d", len(second.Wrappers))
	}
	if again.Declarations()[1] != lib.Declarations()[1] {
		t.Fatalf("exported function was rewritten again")
	}
}

func TestSymbolsAreUnique(t *testing.T) {
	a := ir.NewFunction("Value", ir.VoidType{})
	a.IsInline = true
	a.Namespace = "ImGui"
	b := ir.NewFunction("Value", ir.Builtin(ir.BuiltinInt32))
	b.IsInline = true
	b.Namespace = "ImGui"
	lib := ir.NewLibrary(ir.LibraryParts{Declarations: []ir.Decl{a, b}})
	out, helper := GenerateExports(context.Background(), lib)
	x := out.Declarations()[0].(*ir.Function).SymbolName
	y := out.Declarations()[1].(*ir.Function).SymbolName
	if x == y || y != "imbind_ImGui_Value2" {
		t.Fatalf("symbols collide: %q %q", x, y)
	}
	if !strings.Contains(helper.Source(), "int imbind_ImGui_Value2()") {
		t.Fatalf("unexpected source:\n%s", helper.Source())
	}
}

func TestDeclarator(t *testing.T) {
	cases := map[[2]string]string{
		{"int", "x"}:                   "int x",
		{"const char *", "s"}:          "const char *s",
		{"ImVec2&", "v"}:               "ImVec2&v",
		{"void (*)(int, float)", "cb"}: "void (*cb)(int, float)",
	}
	for in, want := range cases {
		if got := declarator(in[0], in[1]); got != want {
			t.Fatalf("declarator(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestBuildRunsCommand(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	output := filepath.Join(dir, "libhelpers.syms")
	out, artifacts, err := Build(context.Background(), reducedLibrary(t), Options{
		// Stands in for a compiler: lists the exported symbols.
		Command: []string{"sh", "-c", `test -f {include}/imbind_export.h && grep -o 'imbind_[A-Za-z_0-9]*(' {source} | tr -d '(' > {output}`},
		Workdir: dir,
		Output:  output,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(artifacts) != 1 || artifacts[0] != output {
		t.Fatalf("unexpected artifacts %v", artifacts)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if !strings.Contains(string(data), "imbind_ImGui_Text") {
		t.Fatalf("command did not see the helper source: %q", data)
	}
	if out.Declarations()[2].(*ir.Function).SymbolName != "imbind_ImGui_Text" {
		t.Fatalf("library not updated")
	}
}

func TestBuildFailures(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	output := filepath.Join(dir, "lib.so")

	_, _, err := Build(context.Background(), reducedLibrary(t), Options{
		Command: []string{"sh", "-c", "echo 'helper.cpp:1: error' >&2; exit 1"},
		Workdir: dir,
		Output:  output,
	})
	if err == nil || !strings.Contains(err.Error(), "helper.cpp:1: error") {
		t.Fatalf("expected the command's stderr, got %v", err)
	}

	_, _, err = Build(context.Background(), reducedLibrary(t), Options{
		Command: []string{"sh", "-c", "true"},
		Workdir: dir,
		Output:  output,
	})
	if !errors.Is(err, ErrArtifactMissing) {
		t.Fatalf("expected ErrArtifactMissing, got %v", err)
	}

	_, _, err = Build(context.Background(), reducedLibrary(t), Options{
		Command: []string{"sh", "-c", "exec sleep 5"},
		Workdir: dir,
		Output:  output,
		Timeout: 50 * time.Millisecond,
	})
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected a timeout, got %v", err)
	}
}

func TestBuildWithoutInlineFunctions(t *testing.T) {
	f := ir.NewFunction("Begin", ir.VoidType{})
	lib := ir.NewLibrary(ir.LibraryParts{Declarations: []ir.Decl{f}})
	out, artifacts, err := Build(context.Background(), lib, Options{Command: []string{"false"}, Output: "never"})
	if err != nil || artifacts != nil || out != lib {
		t.Fatalf("nothing should run: %v %v", artifacts, err)
	}
}
