package passes

import (
	"strconv"

	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/transform"
)

// ExternalTypeDecl stands in for a record whose binding is a type defined
// outside the generated package. It keeps the record's identity so existing
// references still resolve, and renders as an alias.
type ExternalTypeDecl struct {
	ir.Base
	Target ir.TypeRef
	Size   int
}

func (*ExternalTypeDecl) Kind() ir.DeclKind { return ir.DeclCustom }

func (d *ExternalTypeDecl) CloneDecl() ir.Decl {
	c := *d
	return &c
}

func (*ExternalTypeDecl) Children() []ir.Decl { return nil }

func (d *ExternalTypeDecl) TransformTypes(visit ir.TypeVisitor) (ir.Decl, []diag.Diagnostic) {
	t, diags := visit(d.Target)
	if ir.SameType(t, d.Target) {
		return d, diags
	}
	c := *d
	c.Target = t
	return &c, diags
}

func (d *ExternalTypeDecl) RenderDecl(w ir.CodeWriter, r ir.TypeRenderer) {
	w.Linef("type %s = %s", r.Ident(d.Name), r.RenderType(d.Target))
}

// VectorMapping binds a record to an external type of the expected size.
type VectorMapping struct {
	Target ir.TypeRef
	Size   int
}

// VectorTypes replaces ImGui's math records with the runtime's vector types
// and turns small float arrays into vectors.
type VectorTypes struct {
	Records map[string]VectorMapping
}

func runtimeType(name string) ir.ExternalType {
	return ir.ExternalType{Namespace: RuntimePackage, Name: name}
}

// DefaultVectorTypes returns the ImGui mappings.
func DefaultVectorTypes() VectorTypes {
	return VectorTypes{Records: map[string]VectorMapping{
		"ImVec4":   {Target: runtimeType("Vec4"), Size: 16},
		"ImColor":  {Target: runtimeType("Vec4"), Size: 16},
		"ImVec2":   {Target: runtimeType("Vec2"), Size: 8},
		"ImVec1":   {Target: ir.Builtin(ir.BuiltinFloat32), Size: 4},
		"ImVec2ih": {Target: &FixedArray{Element: ir.Builtin(ir.BuiltinInt16), Length: 2}, Size: 4},
	}}
}

func (VectorTypes) Name() string { return "vector-types" }

func (p VectorTypes) Begin() transform.Hooks { return &vectorTypeHooks{records: p.Records} }

type vectorTypeHooks struct {
	transform.Base
	records map[string]VectorMapping
}

func (h *vectorTypeHooks) TransformRecord(_ *transform.Context, r *ir.Record) transform.Result {
	m, ok := h.records[r.Name]
	if !ok {
		return transform.Keep()
	}
	if r.Size != m.Size {
		return transform.Keep().WithDiagnostics(diag.Newf(diag.SevError, diag.TrnSizeMismatch,
			"%s is %d bytes, expected %d for %s", r.Name, r.Size, m.Size, ir.Describe(m.Target)))
	}
	d := &ExternalTypeDecl{Base: r.Base, Target: m.Target, Size: r.Size}
	return transform.Replace(d)
}

func (*vectorTypeHooks) TransformCustomType(_ *transform.Context, t ir.CustomType) (ir.TypeRef, []diag.Diagnostic) {
	a, ok := t.(*FixedArray)
	if !ok || a.Length < 2 || a.Length > 4 {
		return t, nil
	}
	if b, ok := a.Element.(ir.BuiltinType); ok && b.Kind == ir.BuiltinFloat32 {
		return runtimeType("Vec" + strconv.Itoa(a.Length)), nil
	}
	return t, nil
}
