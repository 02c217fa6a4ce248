package passes

import (
	"slices"
	"testing"

	"imbind/internal/ir"
)

func anonymous(kind ir.RecordKind, members ...ir.Decl) *ir.Record {
	r := ir.NewRecord("")
	r.RecordKind, r.IsAnonymous = kind, true
	r.Members = members
	return r
}

func fieldsOf(r *ir.Record) []*ir.Field {
	var out []*ir.Field
	for _, m := range r.Members {
		if f, ok := m.(*ir.Field); ok {
			out = append(out, f)
		}
	}
	return out
}

func TestLiftAnonymousRecordFields(t *testing.T) {
	val := anonymous(ir.RecordUnion,
		ir.NewField("ValI", ir.Builtin(ir.BuiltinInt32), 0),
		ir.NewField("ValF", ir.Builtin(ir.BuiltinFloat32), 0),
		ir.NewField("ValP", ir.PointerTo(ir.VoidType{}), 0))
	pair := ir.NewRecord("ImGuiStoragePair")
	pair.Members = []ir.Decl{
		ir.NewField("Key", ir.Builtin(ir.BuiltinUint32), 0),
		val,
		ir.NewField("", ir.RefTo(val), 8),
	}

	inner := anonymous(ir.RecordUnion,
		ir.NewField("A", ir.Builtin(ir.BuiltinInt32), 0),
		ir.NewField("B", ir.Builtin(ir.BuiltinFloat32), 0))
	outer := anonymous(ir.RecordStruct,
		ir.NewField("X", ir.Builtin(ir.BuiltinInt32), 0),
		inner,
		ir.NewField("", ir.RefTo(inner), 4))
	nested := ir.NewRecord("Nested")
	nested.Members = []ir.Decl{
		ir.NewField("Flags", ir.Builtin(ir.BuiltinInt32), 0),
		outer,
		ir.NewField("", ir.RefTo(outer), 8),
	}

	lib := ir.NewLibrary(ir.LibraryParts{Declarations: []ir.Decl{pair, nested}})
	out := run(lib, LiftAnonymousRecordFields{})

	got := findDecl[*ir.Record](t, out, "ImGuiStoragePair")
	if names := namesOf(got.Members); !slices.Equal(names, []string{"Key", "ValI", "ValF", "ValP"}) {
		t.Fatalf("ImGuiStoragePair members = %v", names)
	}
	for i, f := range fieldsOf(got)[1:] {
		if f.Offset != 8 {
			t.Fatalf("%s offset = %d, want 8", f.Name, f.Offset)
		}
		if IsOverlay(f) != (i > 0) {
			t.Fatalf("%s overlay = %v", f.Name, IsOverlay(f))
		}
	}

	got = findDecl[*ir.Record](t, out, "Nested")
	fields := fieldsOf(got)
	if names := namesOf(got.Members); !slices.Equal(names, []string{"Flags", "X", "A", "B"}) {
		t.Fatalf("Nested members = %v", names)
	}
	offsets := []int{0, 8, 12, 12}
	for i, f := range fields {
		if f.Offset != offsets[i] {
			t.Fatalf("%s offset = %d, want %d", f.Name, f.Offset, offsets[i])
		}
	}
	if IsOverlay(fields[2]) || !IsOverlay(fields[3]) {
		t.Fatalf("only B overlays A")
	}
	if _, ok := out.Resolve(inner.ID()); ok {
		t.Fatalf("lifted anonymous record is still in the library")
	}

	if again := run(out, LiftAnonymousRecordFields{}); again != out {
		t.Fatalf("second run changed the library")
	}
}

func TestLiftKeepsNamedRecordMembers(t *testing.T) {
	node := ir.NewRecord("Node")
	owner := ir.NewRecord("Owner")
	owner.Members = []ir.Decl{node, ir.NewField("", ir.RefTo(node), 0)}
	lib := ir.NewLibrary(ir.LibraryParts{Declarations: []ir.Decl{owner}})
	if out := run(lib, LiftAnonymousRecordFields{}); out != lib {
		t.Fatalf("a named member record was lifted")
	}
}

func TestRemoveExplicitBitFieldPaddingFields(t *testing.T) {
	bits := func(name string, width int) *ir.Field {
		f := ir.NewField(name, ir.Builtin(ir.BuiltinUint32), 0)
		f.BitWidth = width
		return f
	}
	val := anonymous(ir.RecordUnion, ir.NewField("I", ir.Builtin(ir.BuiltinInt32), 0))
	col := ir.NewRecord("ImGuiTableColumn")
	col.Members = []ir.Decl{
		bits("IsEnabled", 1),
		bits("", 7),
		bits("SortOrder", 2),
		val,
		ir.NewField("", ir.RefTo(val), 4),
	}
	out := run(ir.NewLibrary(ir.LibraryParts{Declarations: []ir.Decl{col}}), RemoveExplicitBitFieldPaddingFields{})

	got := findDecl[*ir.Record](t, out, "ImGuiTableColumn")
	if names := namesOf(got.Members); !slices.Equal(names, []string{"IsEnabled", "SortOrder", "", ""}) {
		t.Fatalf("members = %v", names)
	}
}

func TestConstOverloadRename(t *testing.T) {
	method := func(name string, isConst bool, params ...*ir.Parameter) *ir.Function {
		f := ir.NewFunction(name, ir.VoidType{}, params...)
		f.IsInstanceMethod, f.IsConst = true, isConst
		return f
	}
	idx := func() *ir.Parameter { return ir.NewParameter("i", ir.Builtin(ir.BuiltinInt32)) }
	storage := ir.NewRecord("ImGuiStorage")
	storage.Members = []ir.Decl{
		method("GetInt", false, idx()),
		method("GetInt", true, idx()),
		method("Size", true),
		method("Begin", false),
		method("Begin", true, idx()),
	}
	lib := ir.NewLibrary(ir.LibraryParts{Declarations: []ir.Decl{storage}})
	out := run(lib, ConstOverloadRename{})

	got := findDecl[*ir.Record](t, out, "ImGuiStorage")
	want := []string{"GetInt", "GetIntConst", "Size", "Begin", "Begin"}
	if names := namesOf(got.Members); !slices.Equal(names, want) {
		t.Fatalf("members = %v, want %v", names, want)
	}
	if again := run(out, ConstOverloadRename{}); again != out {
		t.Fatalf("second run renamed again")
	}
}
