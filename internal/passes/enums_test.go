package passes

import (
	"testing"

	"imbind/internal/ir"
)

func enumFixture() (*ir.Library, *ir.Typedef) {
	td := ir.NewTypedef("ImGuiWindowFlags", ir.Builtin(ir.BuiltinInt32))
	e := ir.NewEnum("ImGuiWindowFlags_")
	e.Values = []*ir.EnumConstant{
		ir.NewEnumConstant("ImGuiWindowFlags_None", 0),
		ir.NewEnumConstant("ImGuiWindowFlags_NoTitleBar", 1),
		ir.NewEnumConstant("ImGuiWindowFlags_", 2),
	}
	cond := ir.NewEnum("ImGuiCond_")
	cond.Values = []*ir.EnumConstant{ir.NewEnumConstant("ImGuiCond_Always", 1)}
	condTD := ir.NewTypedef("ImGuiCond", ir.Builtin(ir.BuiltinInt32))
	begin := ir.NewFunction("Begin", ir.Builtin(ir.BuiltinBool),
		ir.NewParameter("flags", ir.RefTo(td)),
	)
	lib := ir.NewLibrary(ir.LibraryParts{Declarations: []ir.Decl{td, e, condTD, cond, begin}})
	return lib, td
}

func TestEnumNormalizeMergesTypedef(t *testing.T) {
	lib, td := enumFixture()
	out := run(lib, EnumNormalize{})

	if got := len(out.Declarations()); got != 3 {
		t.Fatalf("roots = %v", namesOf(out.Declarations()))
	}
	e := findDecl[*ir.Enum](t, out, "ImGuiWindowFlags")
	if !e.IsFlags {
		t.Fatalf("flags enum not detected")
	}
	if !ir.Equal(e.UnderlyingType, ir.Builtin(ir.BuiltinInt32)) {
		t.Fatalf("underlying = %s", ir.Describe(e.UnderlyingType))
	}
	want := []string{"None", "NoTitleBar", "ImGuiWindowFlags_"}
	for i, v := range e.Values {
		if v.Name != want[i] {
			t.Fatalf("value %d = %s, want %s", i, v.Name, want[i])
		}
	}
	if cond := findDecl[*ir.Enum](t, out, "ImGuiCond"); cond.IsFlags {
		t.Fatalf("ImGuiCond marked as flags")
	}

	begin := findDecl[*ir.Function](t, out, "Begin")
	ref := begin.Parameters[0].Type.(ir.DeclRef)
	if ref.ID != td.ID() {
		t.Fatalf("reference was rewritten")
	}
	target, ok := ref.TryResolve(out)
	if !ok || target.Common().ID() != e.ID() {
		t.Fatalf("typedef reference resolves to %v, %v", target, ok)
	}
}

func TestEnumNormalizeIsIdempotent(t *testing.T) {
	lib, _ := enumFixture()
	once := run(lib, EnumNormalize{})
	if twice := run(once, EnumNormalize{}); twice != once {
		t.Fatalf("second run changed the library:\n%s", ir.Dump(twice))
	}
}

func TestEnumNormalizeLeavesUnpairedEnums(t *testing.T) {
	e := ir.NewEnum("ImDrawFlags_")
	e.Values = []*ir.EnumConstant{ir.NewEnumConstant("ImDrawFlags_None", 0)}
	lib := ir.NewLibrary(ir.LibraryParts{Declarations: []ir.Decl{e}})
	if out := run(lib, EnumNormalize{}); out != lib {
		t.Fatalf("enum without typedef was rewritten")
	}
}
