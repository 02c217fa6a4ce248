package frontend

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/passes"
	"imbind/internal/transform"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		Schema: SchemaVersion,
		Files: []SnapshotFile{
			{Path: "imgui.h", InScope: true},
			{Path: "imgui_internal.h", InScope: true},
		},
		Types: []SnapshotType{
			{Handle: 1, Class: "builtin", Spelling: "float", Builtin: "float32"},
			{Handle: 2, Class: "record", Spelling: "ImVec2", Decl: 100},
			{Handle: 3, Class: "typedef", Spelling: "ImVec2_t", Decl: 100, Canonical: 2},
			{Handle: 4, Class: "builtin", Spelling: "void", Builtin: "void"},
			{Handle: 5, Class: "pointer", Spelling: "const char *", Pointee: 6, PointeeIsConst: true},
			{Handle: 6, Class: "builtin", Spelling: "char", Builtin: "char"},
			{Handle: 7, Class: "builtin", Spelling: "int", Builtin: "int32"},
			{Handle: 8, Class: "record", Spelling: "ImGuiStorage", Decl: 999, ByReference: true},
		},
		Decls: []SnapshotDecl{
			{
				Key: 100, Kind: "Record", Name: "ImVec2", File: 0, Line: 10, Size: 8, Alignment: 4,
				Children: []SnapshotDecl{
					{Key: 101, Kind: "Field", Name: "x", Type: 1, File: 0, Line: 11},
					{Key: 102, Kind: "Field", Name: "y", Type: 1, Offset: 4, File: 0, Line: 12},
				},
			},
			{
				Key: 200, Kind: "Enum", Name: "ImGuiDir_", Type: 7, File: 0, Line: 20,
				Children: []SnapshotDecl{
					{Key: 201, Kind: "EnumConstant", Name: "ImGuiDir_None", Value: -1, HasValue: true, File: 0},
					{Key: 202, Kind: "EnumConstant", Name: "ImGuiDir_Left", Value: 0, File: 0},
				},
			},
			{
				Key: 300, Kind: "Function", Name: "Text", Namespace: "ImGui", Mangled: "_ZN5ImGui4TextEPKcz", File: 0, Line: 30,
				Children: []SnapshotDecl{
					{Key: 301, Kind: "Parameter", Name: "fmt", Type: 5, File: 0},
				},
			},
			{
				Key: 400, Kind: "Function", Name: "SetCursorPos", Namespace: "ImGui", Type: 0, Inline: true, File: 0,
				Children: []SnapshotDecl{
					{Key: 401, Kind: "Parameter", Name: "pos", Type: 2, File: 0},
					{Key: 402, Kind: "Parameter", Name: "flags", Type: 7, Default: &SnapshotConstant{Kind: "int", Int: 3}, File: 0},
				},
			},
			{Key: 500, Kind: "ClassTemplate", Name: "ImVector", File: 0},
			{Key: 501, Kind: "Concept", Name: "Sortable", File: 1, Line: 7},
		},
		Macros: []SnapshotMacro{
			{Name: "IMGUI_VERSION", Body: `"1.91.0"`, File: 0, Line: 1},
			{Name: "IM_ARRAYSIZE", Body: "(sizeof(_ARR) / sizeof(*(_ARR)))", Parameters: []string{"_ARR"}, FunctionLike: true, File: 0},
		},
		Diagnostics: []SnapshotDiagnostic{
			{Severity: "warning", Message: "unknown pragma", File: "imgui.h", Line: 3},
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sampleSnapshot()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Decls) != 6 || len(got.Decls[0].Children) != 2 {
		t.Fatalf("declarations lost: %+v", got.Decls)
	}
	if got.Decls[3].Children[1].Default == nil || got.Decls[3].Children[1].Default.Int != 3 {
		t.Fatalf("default value lost: %+v", got.Decls[3].Children[1])
	}
}

func TestSnapshotFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "imgui.snapshot")
	if err := Write(path, sampleSnapshot()); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(s.Types) != 8 {
		t.Fatalf("expected 8 types, got %d", len(s.Types))
	}
	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "snapshot-*"))
	if len(matches) != 0 {
		t.Fatalf("temporary files left behind: %v", matches)
	}
}

func TestDecodeRejectsOtherSchema(t *testing.T) {
	raw, err := msgpack.Marshal(&Snapshot{Schema: SchemaVersion + 1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := Decode(bytes.NewReader(raw)); !errors.Is(err, ErrSchema) {
		t.Fatalf("expected ErrSchema from Decode, got %v", err)
	}
	s := sampleSnapshot()
	s.Schema = SchemaVersion + 1
	if _, err := Translate(context.Background(), s); !errors.Is(err, ErrSchema) {
		t.Fatalf("expected ErrSchema from Translate, got %v", err)
	}
}

func TestTranslate(t *testing.T) {
	lib, err := Translate(context.Background(), sampleSnapshot())
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	decls := lib.Declarations()
	if len(decls) != 6 {
		t.Fatalf("expected 6 roots, got %d", len(decls))
	}
	vec, ok := decls[0].(*ir.Record)
	if !ok || vec.Size != 8 || len(vec.Members) != 2 {
		t.Fatalf("unexpected record: %#v", decls[0])
	}
	if vec.File == nil || vec.File.Path != "imgui.h" || vec.Line != 10 {
		t.Fatalf("provenance lost: %v", vec.Location())
	}
	if f := vec.Members[1].(*ir.Field); f.Offset != 4 || !ir.Equal(f.Type, ir.RawType{Handle: 1}) {
		t.Fatalf("unexpected field: %#v", f)
	}

	enum := decls[1].(*ir.Enum)
	if len(enum.Values) != 2 || enum.Values[0].Value != -1 || !enum.Values[0].HasExplicitValue {
		t.Fatalf("unexpected enum: %#v", enum)
	}

	text := decls[2].(*ir.Function)
	if text.Namespace != "ImGui" || text.MangledName == "" {
		t.Fatalf("unexpected function: %#v", text)
	}
	if _, ok := text.ReturnType.(ir.VoidType); !ok {
		t.Fatalf("missing return type should be void, got %#v", text.ReturnType)
	}
	setPos := decls[3].(*ir.Function)
	if !setPos.IsInline || setPos.Parameters[1].DefaultValue == nil || setPos.Parameters[1].DefaultValue.Int != 3 {
		t.Fatalf("unexpected inline function: %#v", setPos)
	}

	if u := decls[4].(*ir.Unsupported); u.FrontendKind != "ClassTemplate" || len(u.Diagnostics) != 0 {
		t.Fatalf("known template kind should pass through silently: %#v", u)
	}
	concept := decls[5].(*ir.Unsupported)
	if len(concept.Diagnostics) != 1 || concept.Diagnostics[0].Code != diag.FrnUnknownDeclKind {
		t.Fatalf("unknown kind should warn: %v", concept.Diagnostics)
	}
	if loc := concept.Diagnostics[0].Location; loc.File != "imgui_internal.h" || loc.Line != 7 {
		t.Fatalf("warning not located: %v", loc)
	}

	if len(lib.Diagnostics()) != 1 || lib.Diagnostics()[0].Severity != diag.SevWarning {
		t.Fatalf("parse diagnostics lost: %v", lib.Diagnostics())
	}
	if m, ok := lib.FindMacro("IM_ARRAYSIZE"); !ok || !m.IsFunctionLike {
		t.Fatalf("macro lost: %#v", m)
	}
}

func TestTranslateAnonymousRecord(t *testing.T) {
	snap := sampleSnapshot()
	snap.Decls = []SnapshotDecl{{
		Key: 600, Kind: "Record", Name: "ImGuiStoragePair", File: 0, Size: 16, Alignment: 8,
		Children: []SnapshotDecl{
			{Key: 601, Kind: "Field", Name: "key", Type: 7, File: 0},
			{
				Key: 602, Kind: "Record", RecordKind: "union", Anonymous: true, File: 0, Size: 8, Alignment: 8,
				Children: []SnapshotDecl{{Key: 603, Kind: "Field", Name: "val_i", Type: 7, File: 0}},
			},
		},
	}}
	lib, err := Translate(context.Background(), snap)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	pair := lib.Declarations()[0].(*ir.Record)
	if pair.IsAnonymous {
		t.Fatalf("named record marked anonymous")
	}
	if u := pair.Members[1].(*ir.Record); !u.IsAnonymous || u.RecordKind != ir.RecordUnion {
		t.Fatalf("unexpected member record: %#v", u)
	}
}

func TestTranslateOracle(t *testing.T) {
	lib, err := Translate(context.Background(), sampleSnapshot())
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	o := lib.Oracle()
	vec := lib.Declarations()[0]

	info, ok := o.ResolveType(2)
	if !ok || info.Decl != vec.Common().ID() {
		t.Fatalf("record type should point at ImVec2, got %+v", info)
	}
	if o.Canonical(3) != 2 {
		t.Fatalf("typedef sugar not stripped")
	}
	if p, isConst, ok := o.Pointee(5); !ok || p != 6 || !isConst {
		t.Fatalf("unexpected pointee %d %v %v", p, isConst, ok)
	}
	if !o.MustPassByReference(8) || o.MustPassByReference(2) {
		t.Fatalf("by-reference flags wrong")
	}
	if info, _ := o.ResolveType(8); info.Decl != ir.NoDeclID {
		t.Fatalf("undeclared key should not resolve, got %v", info.Decl)
	}
	if info, _ := o.ResolveType(4); info.Builtin != ir.BuiltinInvalid {
		t.Fatalf("void should map to the invalid builtin, got %v", info.Builtin)
	}
}

func TestTranslatedTypesReduce(t *testing.T) {
	lib, err := Translate(context.Background(), sampleSnapshot())
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	out := transform.Apply(context.Background(), lib, passes.TypeReduction{})
	setPos := out.Declarations()[3].(*ir.Function)
	ref, ok := setPos.Parameters[0].Type.(ir.DeclRef)
	if !ok {
		t.Fatalf("expected a declaration reference, got %#v", setPos.Parameters[0].Type)
	}
	if d, ok := ref.TryResolve(out); !ok || d.Common().Name != "ImVec2" {
		t.Fatalf("reference does not resolve to ImVec2")
	}
	text := out.Declarations()[2].(*ir.Function)
	ptr, ok := text.Parameters[0].Type.(*ir.PointerType)
	if !ok || !ptr.InnerIsConst || !ir.Equal(ptr.Inner, ir.Builtin(ir.BuiltinChar)) {
		t.Fatalf("unexpected reduced type %s", ir.Describe(text.Parameters[0].Type))
	}
}

func TestTranslateErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"duplicate key", func(s *Snapshot) { s.Decls[1].Key = 100 }},
		{"bad file index", func(s *Snapshot) { s.Decls[0].File = 9 }},
		{"enum member kind", func(s *Snapshot) { s.Decls[1].Children[0].Kind = "Field"; s.Decls[1].Children[0].Type = 7 }},
		{"untyped field", func(s *Snapshot) { s.Decls[0].Children[0].Type = 0 }},
		{"unknown type class", func(s *Snapshot) { s.Types[0].Class = "matrix" }},
		{"unknown builtin", func(s *Snapshot) { s.Types[0].Builtin = "float128" }},
		{"bad severity", func(s *Snapshot) { s.Diagnostics[0].Severity = "loud" }},
		{"bad access", func(s *Snapshot) { s.Decls[0].Access = "friendly" }},
		{"duplicate handle", func(s *Snapshot) { s.Types[1].Handle = 1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := sampleSnapshot()
			tc.mutate(s)
			if _, err := Translate(context.Background(), s); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}
