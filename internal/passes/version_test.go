package passes

import (
	"slices"
	"testing"

	"imbind/internal/diag"
	"imbind/internal/ir"
)

func versionFixture(macros ...*ir.Macro) *ir.Library {
	container := ir.NewRecord("ImGui")
	container.Namespace = "imgui"
	container.Members = []ir.Decl{
		ir.NewFunction("CreateContext", ir.VoidType{}),
		ir.NewFunction("DebugCheckVersionAndDataLayout", ir.Builtin(ir.BuiltinBool)),
		ir.NewFunction("DestroyContext", ir.VoidType{}),
	}
	return ir.NewLibrary(ir.LibraryParts{
		Declarations: []ir.Decl{container},
		Macros:       macros,
		Evaluator: testEvaluator{
			"IMGUI_VERSION":     ir.StringValue("1.88"),
			"IMGUI_VERSION_NUM": ir.IntValue(18800),
		},
	})
}

func TestVersionConstantsFollowAnchor(t *testing.T) {
	lib := versionFixture(ir.NewMacro("IMGUI_VERSION", `"1.88"`), ir.NewMacro("IMGUI_VERSION_NUM", "18800"))
	out := run(lib, DefaultVersionConstants())

	members := out.Declarations()[0].Children()
	want := []string{"CreateContext", "DebugCheckVersionAndDataLayout", "IMGUI_VERSION", "IMGUI_VERSION_NUM", "DestroyContext"}
	if got := namesOf(members); !slices.Equal(got, want) {
		t.Fatalf("members = %v", got)
	}
	version := members[2].(*ir.Constant)
	if version.Value.GoLiteral() != `"1.88"` || version.Namespace != "imgui" {
		t.Fatalf("IMGUI_VERSION = %s in %q", version.Value.GoLiteral(), version.Namespace)
	}
	if num := members[3].(*ir.Constant); !ir.Equal(num.Type, ir.Builtin(ir.BuiltinInt32)) {
		t.Fatalf("IMGUI_VERSION_NUM type = %s", ir.Describe(num.Type))
	}
	if again := run(out, DefaultVersionConstants()); again != out {
		t.Fatalf("second run added constants")
	}
}

func TestVersionConstantsMissingMacro(t *testing.T) {
	lib := versionFixture(ir.NewMacro("IMGUI_VERSION", `"1.88"`), ir.NewMacro("IMGUI_BROKEN", "("))
	out := run(lib, VersionConstants{
		Anchor: "DebugCheckVersionAndDataLayout",
		Macros: []string{"IMGUI_VERSION", "IMGUI_VERSION_NUM", "IMGUI_BROKEN"},
	})

	if got := namesOf(out.Declarations()[0].Children()); len(got) != 4 {
		t.Fatalf("members = %v", got)
	}
	want := []diag.Code{diag.TrnMissingMacro, diag.TrnConstantEvaluation}
	if got := codes(out.Diagnostics()); !slices.Equal(got, want) {
		t.Fatalf("diagnostics = %v", out.Diagnostics())
	}
}
