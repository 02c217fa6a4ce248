package transform

import (
	"imbind/internal/diag"
	"imbind/internal/ir"
)

// Pass is a named transformation.
type Pass interface {
	Name() string
	// Begin returns hooks for exactly one run.
	Begin() Hooks
}

// Hooks is the per-run set of callbacks. Implementations embed Base and are
// used through pointers.
type Hooks interface {
	PreTransformLibrary(ctx *Context)
	// PostTransformLibrary may return a different snapshot.
	PostTransformLibrary(ctx *Context, lib *ir.Library) *ir.Library

	// TransformDeclaration runs before the kind-specific hook; anything other
	// than Keep skips the latter.
	TransformDeclaration(ctx *Context, d ir.Decl) Result
	TransformRecord(ctx *Context, d *ir.Record) Result
	TransformEnum(ctx *Context, d *ir.Enum) Result
	TransformEnumConstant(ctx *Context, d *ir.EnumConstant) Result
	TransformFunction(ctx *Context, d *ir.Function) Result
	TransformParameter(ctx *Context, d *ir.Parameter) Result
	TransformField(ctx *Context, d *ir.Field) Result
	TransformTypedef(ctx *Context, d *ir.Typedef) Result
	TransformConstant(ctx *Context, d *ir.Constant) Result
	TransformMacro(ctx *Context, d *ir.Macro) Result
	TransformUnsupported(ctx *Context, d *ir.Unsupported) Result
	TransformCustom(ctx *Context, d ir.CustomDecl) Result

	// TransformType runs after the children of t were visited; returning t
	// unchanged hands it to the variant hook.
	TransformType(ctx *Context, t ir.TypeRef) (ir.TypeRef, []diag.Diagnostic)
	TransformRawType(ctx *Context, t ir.RawType) (ir.TypeRef, []diag.Diagnostic)
	TransformPointerType(ctx *Context, t *ir.PointerType) (ir.TypeRef, []diag.Diagnostic)
	TransformDeclRefType(ctx *Context, t ir.DeclRef) (ir.TypeRef, []diag.Diagnostic)
	TransformFunctionPointerType(ctx *Context, t *ir.FunctionPointerType) (ir.TypeRef, []diag.Diagnostic)
	TransformCustomType(ctx *Context, t ir.CustomType) (ir.TypeRef, []diag.Diagnostic)

	claim() bool
}

// Base implements every hook as the identity.
type Base struct {
	claimed bool
}

func (b *Base) claim() bool {
	if b.claimed {
		return false
	}
	b.claimed = true
	return true
}

func (*Base) PreTransformLibrary(*Context) {}

func (*Base) PostTransformLibrary(_ *Context, lib *ir.Library) *ir.Library { return lib }

func (*Base) TransformDeclaration(*Context, ir.Decl) Result           { return Keep() }
func (*Base) TransformRecord(*Context, *ir.Record) Result             { return Keep() }
func (*Base) TransformEnum(*Context, *ir.Enum) Result                 { return Keep() }
func (*Base) TransformEnumConstant(*Context, *ir.EnumConstant) Result { return Keep() }
func (*Base) TransformFunction(*Context, *ir.Function) Result         { return Keep() }
func (*Base) TransformParameter(*Context, *ir.Parameter) Result       { return Keep() }
func (*Base) TransformField(*Context, *ir.Field) Result               { return Keep() }
func (*Base) TransformTypedef(*Context, *ir.Typedef) Result           { return Keep() }
func (*Base) TransformConstant(*Context, *ir.Constant) Result         { return Keep() }
func (*Base) TransformMacro(*Context, *ir.Macro) Result               { return Keep() }
func (*Base) TransformUnsupported(*Context, *ir.Unsupported) Result   { return Keep() }
func (*Base) TransformCustom(*Context, ir.CustomDecl) Result          { return Keep() }

func (*Base) TransformType(_ *Context, t ir.TypeRef) (ir.TypeRef, []diag.Diagnostic) {
	return t, nil
}

func (*Base) TransformRawType(_ *Context, t ir.RawType) (ir.TypeRef, []diag.Diagnostic) {
	return t, nil
}

func (*Base) TransformPointerType(_ *Context, t *ir.PointerType) (ir.TypeRef, []diag.Diagnostic) {
	return t, nil
}

func (*Base) TransformDeclRefType(_ *Context, t ir.DeclRef) (ir.TypeRef, []diag.Diagnostic) {
	return t, nil
}

func (*Base) TransformFunctionPointerType(_ *Context, t *ir.FunctionPointerType) (ir.TypeRef, []diag.Diagnostic) {
	return t, nil
}

func (*Base) TransformCustomType(_ *Context, t ir.CustomType) (ir.TypeRef, []diag.Diagnostic) {
	return t, nil
}

// Func adapts a name and a hooks constructor into a Pass.
type Func struct {
	PassName string
	New      func() Hooks
}

func (f Func) Name() string { return f.PassName }
func (f Func) Begin() Hooks { return f.New() }
