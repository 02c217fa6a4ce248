package passes

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/transform"
)

// testOracle serves raw type information from a table.
type testOracle struct {
	types  map[ir.RawHandle]ir.RawTypeInfo
	byRef  map[ir.RawHandle]bool
	sugars map[ir.RawHandle]ir.RawHandle
}

func newOracle(infos ...ir.RawTypeInfo) *testOracle {
	o := &testOracle{
		types:  make(map[ir.RawHandle]ir.RawTypeInfo),
		byRef:  make(map[ir.RawHandle]bool),
		sugars: make(map[ir.RawHandle]ir.RawHandle),
	}
	for _, info := range infos {
		o.types[info.Handle] = info
	}
	return o
}

func (o *testOracle) ResolveType(h ir.RawHandle) (ir.RawTypeInfo, bool) {
	info, ok := o.types[h]
	return info, ok
}

func (o *testOracle) Canonical(h ir.RawHandle) ir.RawHandle {
	if c, ok := o.sugars[h]; ok {
		return c
	}
	return h
}

func (o *testOracle) Pointee(h ir.RawHandle) (ir.RawHandle, bool, bool) {
	info, ok := o.types[h]
	if !ok || (info.Class != ir.RawPointer && info.Class != ir.RawReference) {
		return 0, false, false
	}
	return info.Pointee, info.PointeeIsConst, true
}

func (o *testOracle) Specialization(h ir.RawHandle) (string, []ir.RawHandle, bool) {
	info, ok := o.types[h]
	if !ok || info.Class != ir.RawTemplateSpecialization {
		return "", nil, false
	}
	return info.TemplateName, info.TemplateArgs, true
}

func (o *testOracle) MustPassByReference(h ir.RawHandle) bool {
	return o.byRef[o.Canonical(h)]
}

type testEvaluator map[string]ir.ConstantValue

func (e testEvaluator) EvaluateMacro(_ *ir.Library, m *ir.Macro) (ir.ConstantValue, error) {
	v, ok := e[m.Name]
	if !ok {
		return ir.ConstantValue{}, fmt.Errorf("cannot evaluate %q", m.Body)
	}
	return v, nil
}

func run(lib *ir.Library, ps ...transform.Pass) *ir.Library {
	for _, p := range ps {
		lib = transform.Apply(context.Background(), lib, p)
	}
	return lib
}

func constChar() ir.TypeRef {
	return &ir.PointerType{Inner: ir.Builtin(ir.BuiltinChar), InnerIsConst: true}
}

func findDecl[D ir.Decl](t *testing.T, lib *ir.Library, name string) D {
	t.Helper()
	for _, d := range lib.FindByName(name) {
		if x, ok := d.(D); ok {
			return x
		}
	}
	var zero D
	t.Fatalf("no %T named %s", zero, name)
	return zero
}

func codes(ds []diag.Diagnostic) []diag.Code {
	out := make([]diag.Code, len(ds))
	for i, d := range ds {
		out[i] = d.Code
	}
	return out
}

// goRenderer spells types the way generated code does, minus identifier
// sanitizing.
type goRenderer struct{ lib *ir.Library }

func (r goRenderer) Library() *ir.Library  { return r.lib }
func (r goRenderer) Ident(s string) string { return s }
func (r goRenderer) RenderType(t ir.TypeRef) string {
	switch x := t.(type) {
	case ir.VoidType:
		return "unsafe.Pointer"
	case ir.BuiltinType:
		return x.Kind.String()
	case ir.ExternalType:
		return x.Qualified()
	case ir.DeclRef:
		return x.Name
	case *ir.PointerType:
		return "*" + r.RenderType(x.Inner)
	case ir.CustomType:
		return x.RenderType(r)
	}
	return ir.Describe(t)
}

type lineWriter struct {
	lines []string
	depth int
}

func (w *lineWriter) Linef(format string, args ...any) {
	w.lines = append(w.lines, strings.Repeat("\t", w.depth)+fmt.Sprintf(format, args...))
}
func (w *lineWriter) Indent() { w.depth++ }
func (w *lineWriter) Dedent() { w.depth-- }
