package passes

import (
	"testing"

	"imbind/internal/diag"
	"imbind/internal/ir"
)

func vectorOracle() *testOracle {
	return newOracle(
		ir.RawTypeInfo{Handle: 1, Class: ir.RawTemplateSpecialization, Spelling: "ImVector<float>", TemplateName: "ImVector", TemplateArgs: []ir.RawHandle{2}},
		ir.RawTypeInfo{Handle: 2, Class: ir.RawBuiltin, Spelling: "float", Builtin: ir.BuiltinFloat32},
		ir.RawTypeInfo{Handle: 3, Class: ir.RawTemplateSpecialization, Spelling: "ImVector<float, float>", TemplateName: "ImVector", TemplateArgs: []ir.RawHandle{2, 2}},
		ir.RawTypeInfo{Handle: 4, Class: ir.RawTemplateSpecialization, Spelling: "ImVector<ImVector<float>>", TemplateName: "ImVector", TemplateArgs: []ir.RawHandle{1}},
		ir.RawTypeInfo{Handle: 5, Class: ir.RawPointer, Spelling: "ImVector<float> *", Pointee: 1},
		ir.RawTypeInfo{Handle: 6, Class: ir.RawPointer, Spelling: "ImVector<float, float> *", Pointee: 3},
		ir.RawTypeInfo{Handle: 7, Class: ir.RawPointer, Spelling: "float *", Pointee: 2},
		ir.RawTypeInfo{Handle: 8, Class: ir.RawReference, Spelling: "const ImVector<float> *&", Pointee: 9},
		ir.RawTypeInfo{Handle: 9, Class: ir.RawPointer, Spelling: "const ImVector<float> *", Pointee: 1, PointeeIsConst: true},
	)
}

// eraseVectors reruns erasure until it stops creating vectors, the way the
// pipeline does.
func eraseVectors(t *testing.T, lib *ir.Library) (*ir.Library, int) {
	t.Helper()
	erasure := &VectorErasure{}
	for runs := 1; runs <= 8; runs++ {
		lib = run(lib, erasure)
		if erasure.Changes() == 0 {
			return lib, runs
		}
	}
	t.Fatalf("vector erasure did not settle")
	return nil, 0
}

func TestVectorErasure(t *testing.T) {
	rec := ir.NewRecord("ImDrawList")
	rec.Members = []ir.Decl{
		ir.NewField("Data", ir.RawType{Handle: 1}, 0),
		ir.NewField("Nested", ir.RawType{Handle: 4}, 16),
		ir.NewField("Count", ir.Builtin(ir.BuiltinInt32), 32),
	}
	lib := ir.NewLibrary(ir.LibraryParts{Declarations: []ir.Decl{rec}, Oracle: vectorOracle()})

	erasure := &VectorErasure{}
	out := run(lib, erasure)
	if erasure.Changes() != 3 {
		t.Fatalf("created = %d, want 3", erasure.Changes())
	}
	data := findDecl[*ir.Field](t, out, "Data")
	v, ok := data.Type.(*GenericVector)
	if !ok {
		t.Fatalf("Data type = %s", ir.Describe(data.Type))
	}
	if v.Element != (ir.RawType{Handle: 2}) {
		t.Fatalf("element = %s", ir.Describe(v.Element))
	}
	nested := findDecl[*ir.Field](t, out, "Nested").Type.(*GenericVector)
	if _, ok := nested.Element.(*GenericVector); !ok {
		t.Fatalf("nested element = %s", ir.Describe(nested.Element))
	}

	if again := run(out, erasure); again != out || erasure.Changes() != 0 {
		t.Fatalf("second run created %d vectors", erasure.Changes())
	}
}

func TestVectorErasureArity(t *testing.T) {
	rec := ir.NewRecord("Broken")
	rec.Members = []ir.Decl{ir.NewField("Pair", ir.RawType{Handle: 3}, 0)}
	lib := ir.NewLibrary(ir.LibraryParts{Declarations: []ir.Decl{rec}, Oracle: vectorOracle()})

	out := run(lib, &VectorErasure{})
	f := findDecl[*ir.Field](t, out, "Pair")
	if f.Type != (ir.RawType{Handle: 3}) {
		t.Fatalf("type was rewritten to %s", ir.Describe(f.Type))
	}
	if len(f.Diagnostics) != 1 || f.Diagnostics[0].Code != diag.TrnTemplateArity || f.Diagnostics[0].Severity != diag.SevError {
		t.Fatalf("diagnostics = %v", f.Diagnostics)
	}
}

func TestGenericVectorRender(t *testing.T) {
	r := goRenderer{}
	cases := []struct {
		elem ir.TypeRef
		want string
	}{
		{ir.Builtin(ir.BuiltinFloat32), "imrt.Vector[float32]"},
		{ir.PointerTo(ir.VoidType{}), "imrt.Vector[uintptr]"},
		{ir.PointerTo(ir.PointerTo(ir.VoidType{})), "imrt.Vector[imrt.Pointer[uintptr]]"},
		{ir.PointerTo(ir.DeclRef{Name: "ImFont"}), "imrt.Vector[imrt.Pointer[ImFont]]"},
	}
	for _, c := range cases {
		if got := (&GenericVector{Element: c.elem}).RenderType(r); got != c.want {
			t.Errorf("render %s = %s, want %s", ir.Describe(c.elem), got, c.want)
		}
	}
}

func TestRemoveIllegalVectorReferences(t *testing.T) {
	undefined := ir.NewRecord("ImGuiDockRequest")
	undefined.IsUndefined = true
	font := ir.NewRecord("ImFont")
	ctx := ir.NewRecord("ImGuiContext")
	ctx.Members = []ir.Decl{
		ir.NewField("DockRequests", &GenericVector{Element: ir.RefTo(undefined)}, 0),
		ir.NewField("Fonts", &GenericVector{Element: ir.RefTo(font)}, 16),
	}
	lib := ir.NewLibrary(ir.LibraryParts{Declarations: []ir.Decl{undefined, font, ctx}})

	out := run(lib, RemoveIllegalVectorReferences{})
	got := findDecl[*ir.Record](t, out, "ImGuiContext")
	if len(got.Members) != 1 || got.Members[0].Common().Name != "Fonts" {
		t.Fatalf("members = %v", namesOf(got.Members))
	}
}

func TestVectorErasureBehindPointers(t *testing.T) {
	f := ir.NewFunction("BuildRanges", ir.VoidType{},
		ir.NewParameter("out_ranges", ir.RawType{Handle: 5}),
		ir.NewParameter("scale", ir.RawType{Handle: 7}),
		ir.NewParameter("ranges", ir.RawType{Handle: 8}),
	)
	lib := ir.NewLibrary(ir.LibraryParts{Declarations: []ir.Decl{f}, Oracle: vectorOracle()})

	erased, _ := eraseVectors(t, lib)
	if p := findDecl[*ir.Parameter](t, erased, "scale"); p.Type != (ir.RawType{Handle: 7}) {
		t.Fatalf("plain pointer was rewritten to %s", ir.Describe(p.Type))
	}

	out := run(erased, TypeReduction{}, Verify{})
	got := findDecl[*ir.Function](t, out, "BuildRanges")
	if len(got.Diagnostics) != 0 {
		t.Fatalf("function diagnostics = %v", got.Diagnostics)
	}
	ranges := findDecl[*ir.Parameter](t, out, "out_ranges")
	ptr, ok := ranges.Type.(*ir.PointerType)
	if !ok {
		t.Fatalf("out_ranges = %s", ir.Describe(ranges.Type))
	}
	v, ok := ptr.Inner.(*GenericVector)
	if !ok || v.Element != ir.Builtin(ir.BuiltinFloat32) {
		t.Fatalf("out_ranges pointee = %s", ir.Describe(ptr.Inner))
	}
	if len(ranges.Diagnostics) != 0 {
		t.Fatalf("out_ranges diagnostics = %v", ranges.Diagnostics)
	}

	ref := findDecl[*ir.Parameter](t, out, "ranges").Type.(*ir.PointerType)
	inner, ok := ref.Inner.(*ir.PointerType)
	if !ok || !inner.InnerIsConst {
		t.Fatalf("ranges = %s", ir.Describe(ref))
	}
	if _, ok := inner.Inner.(*GenericVector); !ok {
		t.Fatalf("ranges pointee = %s", ir.Describe(inner.Inner))
	}
	if s := findDecl[*ir.Parameter](t, out, "scale").Type; ir.Describe(s) != ir.Describe(ir.PointerTo(ir.Builtin(ir.BuiltinFloat32))) {
		t.Fatalf("scale = %s", ir.Describe(s))
	}
}

func TestVectorErasureArityReportedOnce(t *testing.T) {
	rec := ir.NewRecord("Broken")
	rec.Members = []ir.Decl{
		ir.NewField("Pair", ir.RawType{Handle: 3}, 0),
		ir.NewField("Data", ir.RawType{Handle: 1}, 16),
		ir.NewField("PairPtr", ir.RawType{Handle: 6}, 32),
	}
	lib := ir.NewLibrary(ir.LibraryParts{Declarations: []ir.Decl{rec}, Oracle: vectorOracle()})

	out, runs := eraseVectors(t, lib)
	if runs < 2 {
		t.Fatalf("runs = %d, erasure should need a quiet run", runs)
	}
	for _, name := range []string{"Pair", "PairPtr"} {
		f := findDecl[*ir.Field](t, out, name)
		if len(f.Diagnostics) != 1 || f.Diagnostics[0].Code != diag.TrnTemplateArity {
			t.Fatalf("%s diagnostics = %v", name, f.Diagnostics)
		}
	}
	if again := run(out, &VectorErasure{}); again != out {
		t.Fatalf("a settled library was rewritten")
	}
}
