package passes

import (
	"testing"

	"imbind/internal/ir"
)

func TestLegalizeIdentifier(t *testing.T) {
	cases := []struct {
		in    string
		spell bool
		want  string
	}{
		{"Tab", true, "Tab"},
		{"0", false, "_0"},
		{"0", true, "Zero"},
		{"9", true, "Nine"},
		{"21", true, "TwentyOne"},
		{"1Shift", true, "OneShift"},
		{"", true, ""},
	}
	for _, c := range cases {
		if got := LegalizeIdentifier(c.in, c.spell); got != c.want {
			t.Errorf("LegalizeIdentifier(%q, %v) = %q, want %q", c.in, c.spell, got, c.want)
		}
	}
}

func TestKeyEnumWorkaround(t *testing.T) {
	forward := ir.NewEnum("ImGuiKey")
	key := ir.NewEnum("ImGuiKey")
	key.Values = []*ir.EnumConstant{
		ir.NewEnumConstant("ImGuiKey_None", 0),
		ir.NewEnumConstant("ImGuiKey_Tab", 512),
		ir.NewEnumConstant("ImGuiKey_0", 536),
		ir.NewEnumConstant("ImGuiKey_", 537),
	}
	other := ir.NewEnum("ImGuiDir")
	other.Values = []*ir.EnumConstant{ir.NewEnumConstant("ImGuiKey_Left", 0)}
	lib := ir.NewLibrary(ir.LibraryParts{Declarations: []ir.Decl{forward, key, other}})

	out := run(lib, KeyEnumWorkaround{SpellDigits: true})
	roots := out.Declarations()
	if len(roots) != 2 {
		t.Fatalf("roots = %v", namesOf(roots))
	}
	got := roots[0].(*ir.Enum)
	want := []string{"None", "Tab", "Zero", "ImGuiKey_"}
	for i, v := range got.Values {
		if v.Name != want[i] {
			t.Fatalf("value %d = %s, want %s", i, v.Name, want[i])
		}
	}
	if roots[1] != other {
		t.Fatalf("unrelated enum was rewritten")
	}
	if again := run(out, KeyEnumWorkaround{SpellDigits: true}); again != out {
		t.Fatalf("second run changed the library")
	}
}
