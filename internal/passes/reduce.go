package passes

import (
	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/transform"
)

// TypeReduction resolves raw front-end types into IR type references.
// Types the oracle cannot classify stay raw for Verify to report.
type TypeReduction struct{}

func (TypeReduction) Name() string { return "type-reduction" }

func (TypeReduction) Begin() transform.Hooks { return &reduceHooks{} }

type reduceHooks struct{ transform.Base }

func (h *reduceHooks) TransformRawType(ctx *transform.Context, t ir.RawType) (ir.TypeRef, []diag.Diagnostic) {
	oracle := ctx.Library.Oracle()
	if oracle == nil {
		return t, nil
	}
	info, ok := oracle.ResolveType(t.Handle)
	if !ok {
		return t, []diag.Diagnostic{diag.Newf(diag.SevError, diag.FrnUnknownHandle, "unknown type handle %d", t.Handle)}
	}
	switch info.Class {
	case ir.RawBuiltin:
		if info.Builtin == ir.BuiltinInvalid {
			return ir.VoidType{}, nil
		}
		return ir.Builtin(info.Builtin), nil

	case ir.RawPointer, ir.RawReference:
		if fp, ok := h.functionPointer(ctx, info.Pointee); ok {
			return fp, nil
		}
		inner, diags := ctx.TransformType(ir.RawType{Handle: info.Pointee})
		return &ir.PointerType{Inner: inner, InnerIsConst: info.PointeeIsConst}, diags

	case ir.RawTypedef, ir.RawRecord, ir.RawEnum:
		if info.Decl == ir.NoDeclID {
			return t, nil
		}
		return ir.DeclRef{ID: info.Decl, Name: info.Spelling}, nil

	case ir.RawFunctionProto:
		if fp, ok := h.functionPointer(ctx, t.Handle); ok {
			return fp, nil
		}

	case ir.RawArray:
		elem, diags := ctx.TransformType(ir.RawType{Handle: info.Pointee})
		return &FixedArray{Element: elem, Length: info.ArrayLength}, diags
	}
	return t, nil
}

func (h *reduceHooks) functionPointer(ctx *transform.Context, handle ir.RawHandle) (*ir.FunctionPointerType, bool) {
	oracle := ctx.Library.Oracle()
	info, ok := oracle.ResolveType(oracle.Canonical(handle))
	if !ok || info.Class != ir.RawFunctionProto {
		return nil, false
	}
	ret, _ := ctx.TransformType(ir.RawType{Handle: info.Return})
	fp := &ir.FunctionPointerType{Return: ret, CallConv: info.CallConv}
	for _, p := range info.Params {
		pt, _ := ctx.TransformType(ir.RawType{Handle: p})
		fp.Params = append(fp.Params, pt)
	}
	return fp, true
}
