package ir

import (
	"testing"

	"imbind/internal/diag"
)

func sampleLibrary() (*Library, *Record, *Field, *Typedef) {
	rec := NewRecord("ImDrawCmd")
	field := NewField("ElemCount", Builtin(BuiltinUint32), 0)
	rec.Members = []Decl{field}
	td := NewTypedef("ImDrawIdx", Builtin(BuiltinUint16))
	lib := NewLibrary(LibraryParts{Declarations: []Decl{rec, td}})
	return lib, rec, field, td
}

func TestResolveAndParent(t *testing.T) {
	lib, rec, field, _ := sampleLibrary()
	got, ok := lib.Resolve(field.ID())
	if !ok || got != Decl(field) {
		t.Fatalf("Resolve(field) = %v, %v", got, ok)
	}
	if p := lib.ParentOf(field.ID()); p != Decl(rec) {
		t.Fatalf("ParentOf(field) = %v, want record", p)
	}
	if p := lib.ParentOf(rec.ID()); p != nil {
		t.Fatalf("root has parent %v", p)
	}
	if n := len(lib.FindByName("ImDrawIdx")); n != 1 {
		t.Fatalf("FindByName returned %d results", n)
	}
}

func TestDanglingReferenceIsNotFound(t *testing.T) {
	lib, _, _, td := sampleLibrary()
	ref := RefTo(td)
	next := lib.WithDeclarations(lib.Declarations()[:1])
	if _, ok := ref.TryResolve(next); ok {
		t.Fatalf("removed typedef still resolves")
	}
	if _, ok := ref.TryResolve(lib); !ok {
		t.Fatalf("typedef does not resolve in its own snapshot")
	}
	if _, ok := (DeclRef{}).TryResolve(lib); ok {
		t.Fatalf("zero reference resolved")
	}
}

func TestReplacedDeclarationsResolveToReplacement(t *testing.T) {
	lib, rec, _, td := sampleLibrary()
	enum := NewEnum("ImDrawFlags")
	enum.Replaces = []DeclID{td.ID()}
	next := lib.WithDeclarations([]Decl{rec, enum})
	got, ok := next.Resolve(td.ID())
	if !ok || got != Decl(enum) {
		t.Fatalf("Resolve(replaced) = %v, %v; want enum", got, ok)
	}
}

func TestOriginalFollowsLineage(t *testing.T) {
	lib, rec, _, td := sampleLibrary()
	renamed := rec.Clone()
	renamed.Name = "DrawCmd"
	renamed.Original = OriginalRef{Snapshot: lib.Snapshot(), ID: rec.ID()}
	next := lib.WithDeclarations([]Decl{renamed, td})

	orig, ok := next.Original(renamed)
	if !ok {
		t.Fatalf("original not found")
	}
	if orig.Common().Name != "ImDrawCmd" {
		t.Fatalf("original name = %q", orig.Common().Name)
	}
	if renamed.ID() != rec.ID() {
		t.Fatalf("clone changed identity")
	}
	if _, ok := next.Original(td); ok {
		t.Fatalf("untouched declaration reports an original")
	}
	if next.Lineage() != lib.Lineage() || lib.Lineage().Len() != 2 {
		t.Fatalf("lineage not shared")
	}
}

func TestDuplicateIdentityPanics(t *testing.T) {
	lib, rec, _, _ := sampleLibrary()
	next := lib.WithDeclarations([]Decl{rec, rec.Clone()})
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for duplicated identity")
		}
	}()
	next.Resolve(rec.ID())
}

func TestWithDiagnosticsLeavesInputUntouched(t *testing.T) {
	file := &File{Path: "imgui.h", InScope: true}
	fn := NewFunction("Begin", Builtin(BuiltinBool))
	fn.File = file
	fn.Line = 42
	got := WithDiagnostics(fn, diag.NewWarning(diag.TrnInfo, "note"))
	if len(fn.Diagnostics) != 0 {
		t.Fatalf("input mutated")
	}
	if len(got.Diagnostics) != 1 || got.Diagnostics[0].Location.String() != "imgui.h:42" {
		t.Fatalf("unexpected diagnostics %v", got.Diagnostics)
	}
	if WithDiagnostics(fn) != fn {
		t.Fatalf("no-op append must return the receiver")
	}
}

func TestMetadataCopyOnWrite(t *testing.T) {
	var m Metadata
	m2 := MetadataSet(m, OutputFileName{Path: "Internal/ImGuiInternal"})
	if _, ok := MetadataGet[OutputFileName](m); ok {
		t.Fatalf("set mutated original table")
	}
	v, ok := MetadataGet[OutputFileName](m2)
	if !ok || v.Path != "Internal/ImGuiInternal" {
		t.Fatalf("get = %v, %v", v, ok)
	}
	m3 := MetadataDelete[OutputFileName](m2)
	if m3.Len() != 0 || m2.Len() != 1 {
		t.Fatalf("delete lens = %d, %d", m3.Len(), m2.Len())
	}
}

func TestTransformTypeChildrenKeepsIdentity(t *testing.T) {
	ptr := &PointerType{Inner: Builtin(BuiltinChar), InnerIsConst: true}
	same, _ := TransformTypeChildren(ptr, func(t TypeRef) (TypeRef, []diag.Diagnostic) { return t, nil })
	if same != TypeRef(ptr) {
		t.Fatalf("identity visit rebuilt pointer")
	}
	swapped, _ := TransformTypeChildren(ptr, func(t TypeRef) (TypeRef, []diag.Diagnostic) {
		return Builtin(BuiltinByte), nil
	})
	p, ok := swapped.(*PointerType)
	if !ok || p == ptr || !p.InnerIsConst || p.Inner != TypeRef(Builtin(BuiltinByte)) {
		t.Fatalf("unexpected rewrite %#v", swapped)
	}
	if ptr.Inner != TypeRef(Builtin(BuiltinChar)) {
		t.Fatalf("input pointer mutated")
	}
	if !Equal(ptr, &PointerType{Inner: Builtin(BuiltinChar), InnerIsConst: true}) {
		t.Fatalf("structural equality failed")
	}
}

func TestConstantLiterals(t *testing.T) {
	cases := []struct {
		v    ConstantValue
		want string
	}{
		{IntValue(-3), "-3"},
		{FloatValue(1), "1.0"},
		{FloatValue(0.5), "0.5"},
		{StringValue("1.89"), `"1.89"`},
		{NullValue(), "nil"},
	}
	for _, tc := range cases {
		if got := tc.v.GoLiteral(); got != tc.want {
			t.Fatalf("GoLiteral(%#v) = %q, want %q", tc.v, got, tc.want)
		}
	}
}
