package transform

import (
	"slices"

	"imbind/internal/diag"
	"imbind/internal/ir"
)

// transformType visits children first, then the generic hook, then the
// variant hook.
func (r *run) transformType(ctx *Context, t ir.TypeRef) (ir.TypeRef, []diag.Diagnostic) {
	visit := func(child ir.TypeRef) (ir.TypeRef, []diag.Diagnostic) {
		return r.transformType(ctx, child)
	}
	t, diags := ir.TransformTypeChildren(t, visit)

	nt, d := r.hooks.TransformType(ctx, t)
	diags = append(diags, d...)
	if !ir.SameType(nt, t) {
		return nt, diags
	}

	switch x := t.(type) {
	case ir.RawType:
		nt, d = r.hooks.TransformRawType(ctx, x)
	case *ir.PointerType:
		nt, d = r.hooks.TransformPointerType(ctx, x)
	case ir.DeclRef:
		nt, d = r.hooks.TransformDeclRefType(ctx, x)
	case *ir.FunctionPointerType:
		nt, d = r.hooks.TransformFunctionPointerType(ctx, x)
	case ir.CustomType:
		nt, d = r.hooks.TransformCustomType(ctx, x)
	default:
		return t, diags
	}
	return nt, append(diags, d...)
}

// slot rewrites one type slot; nil slots stay nil.
func (r *run) slot(ctx *Context, t ir.TypeRef, diags *[]diag.Diagnostic) (ir.TypeRef, bool) {
	if t == nil {
		return nil, false
	}
	nt, d := r.transformType(ctx, t)
	*diags = append(*diags, d...)
	return nt, !ir.SameType(nt, t)
}

func (r *run) transformTypeSlots(ctx *Context, d ir.Decl) (ir.Decl, []diag.Diagnostic) {
	var diags []diag.Diagnostic
	switch x := d.(type) {
	case *ir.Field:
		if t, ok := r.slot(ctx, x.Type, &diags); ok {
			c := x.Clone()
			c.Type = t
			return c, diags
		}
	case *ir.Typedef:
		if t, ok := r.slot(ctx, x.UnderlyingType, &diags); ok {
			c := x.Clone()
			c.UnderlyingType = t
			return c, diags
		}
	case *ir.Enum:
		if t, ok := r.slot(ctx, x.UnderlyingType, &diags); ok {
			c := x.Clone()
			c.UnderlyingType = t
			return c, diags
		}
	case *ir.Parameter:
		if t, ok := r.slot(ctx, x.Type, &diags); ok {
			c := x.Clone()
			c.Type = t
			return c, diags
		}
	case *ir.Constant:
		if t, ok := r.slot(ctx, x.Type, &diags); ok {
			c := x.Clone()
			c.Type = t
			return c, diags
		}
	case *ir.Function:
		if t, ok := r.slot(ctx, x.ReturnType, &diags); ok {
			c := x.Clone()
			c.ReturnType = t
			return c, diags
		}
	case ir.CustomDecl:
		nd, ds := x.TransformTypes(func(t ir.TypeRef) (ir.TypeRef, []diag.Diagnostic) {
			return r.transformType(ctx, t)
		})
		return nd, slices.Clip(ds)
	}
	return d, diags
}
