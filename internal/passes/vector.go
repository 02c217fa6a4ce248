package passes

import (
	"strconv"
	"strings"

	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/transform"
)

// GenericVector is the erased form of a vector template instantiation.
type GenericVector struct {
	ir.CustomTypeBase
	Element ir.TypeRef
}

func (v *GenericVector) TransformChildren(visit ir.TypeVisitor) (ir.TypeRef, []diag.Diagnostic) {
	elem, diags := visit(v.Element)
	if ir.SameType(elem, v.Element) {
		return v, diags
	}
	return &GenericVector{Element: elem}, diags
}

// RenderType spells the vector as imrt.Vector[T]. Pointer levels of the
// element are boxed one by one in imrt.Pointer; a void pointer becomes
// uintptr.
func (v *GenericVector) RenderType(r ir.TypeRenderer) string {
	levels := 0
	elem := v.Element
	for {
		p, ok := elem.(*ir.PointerType)
		if !ok {
			break
		}
		levels++
		elem = p.Inner
	}
	var s string
	if _, isVoid := elem.(ir.VoidType); isVoid && levels > 0 {
		s = "uintptr"
		levels--
	} else {
		s = r.RenderType(elem)
	}
	for range levels {
		s = RuntimePackage + ".Pointer[" + s + "]"
	}
	return RuntimePackage + ".Vector[" + s + "]"
}

func (v *GenericVector) Key() string {
	return "vector<" + ir.TypeKey(v.Element) + ">"
}

// VectorErasure rewrites raw instantiations of the vector template into
// GenericVector.
type VectorErasure struct {
	// Template is the template name; "ImVector" when empty.
	Template string

	created int
}

func (p *VectorErasure) Name() string { return "vector-erasure" }

// Changes reports how many vectors the last run created. The convergence
// loop stops once it reaches zero.
func (p *VectorErasure) Changes() int { return p.created }

func (p *VectorErasure) Begin() transform.Hooks {
	p.created = 0
	name := p.Template
	if name == "" {
		name = "ImVector"
	}
	return &vectorErasureHooks{pass: p, template: name}
}

type vectorErasureHooks struct {
	transform.Base
	pass     *VectorErasure
	template string
}

func (h *vectorErasureHooks) TransformRawType(ctx *transform.Context, t ir.RawType) (ir.TypeRef, []diag.Diagnostic) {
	oracle := ctx.Library.Oracle()
	if oracle == nil {
		return t, nil
	}
	canon := oracle.Canonical(t.Handle)
	if pointee, isConst, ok := oracle.Pointee(canon); ok {
		args, found := h.vectorBehind(oracle, pointee)
		switch {
		case !found:
			return t, nil
		case args != 1:
			return t, []diag.Diagnostic{h.arity(args)}
		}
		inner, diags := ctx.TransformType(ir.RawType{Handle: pointee})
		return &ir.PointerType{Inner: inner, InnerIsConst: isConst}, diags
	}
	name, args, ok := oracle.Specialization(canon)
	if !ok || name != h.template {
		return t, nil
	}
	if len(args) != 1 {
		return t, []diag.Diagnostic{h.arity(len(args))}
	}
	elem, diags := ctx.TransformType(ir.RawType{Handle: args[0]})
	h.pass.created++
	return &GenericVector{Element: elem}, diags
}

// maxPointerDepth bounds pointer chains read from the front end.
const maxPointerDepth = 64

// vectorBehind follows pointers and references from handle and reports
// whether they end at an instantiation of the template, with its argument
// count. Other pointers are left raw for TypeReduction.
func (h *vectorErasureHooks) vectorBehind(oracle ir.Oracle, handle ir.RawHandle) (int, bool) {
	for range maxPointerDepth {
		canon := oracle.Canonical(handle)
		if next, _, ok := oracle.Pointee(canon); ok {
			handle = next
			continue
		}
		name, args, ok := oracle.Specialization(canon)
		if !ok || name != h.template {
			return 0, false
		}
		return len(args), true
	}
	return 0, false
}

func (h *vectorErasureHooks) arity(n int) diag.Diagnostic {
	return diag.Newf(diag.SevError, diag.TrnTemplateArity,
		"%s should have exactly one template argument, got %d", h.template, n)
}

// RemoveIllegalVectorReferences drops vector fields whose element type is a
// record that was only forward declared.
type RemoveIllegalVectorReferences struct{}

func (RemoveIllegalVectorReferences) Name() string { return "remove-illegal-vector-references" }

func (RemoveIllegalVectorReferences) Begin() transform.Hooks {
	return &illegalVectorHooks{}
}

type illegalVectorHooks struct{ transform.Base }

func (*illegalVectorHooks) TransformField(ctx *transform.Context, f *ir.Field) transform.Result {
	v, ok := f.Type.(*GenericVector)
	if !ok {
		return transform.Keep()
	}
	ref, ok := v.Element.(ir.DeclRef)
	if !ok {
		return transform.Keep()
	}
	if rec, ok := ref.TryResolve(ctx.Library); ok {
		if r, isRecord := rec.(*ir.Record); isRecord && r.IsUndefined {
			return transform.Remove()
		}
	}
	return transform.Keep()
}

// FixedArray is a constant-length array type.
type FixedArray struct {
	ir.CustomTypeBase
	Element ir.TypeRef
	Length  int
}

func (a *FixedArray) TransformChildren(visit ir.TypeVisitor) (ir.TypeRef, []diag.Diagnostic) {
	elem, diags := visit(a.Element)
	if ir.SameType(elem, a.Element) {
		return a, diags
	}
	return &FixedArray{Element: elem, Length: a.Length}, diags
}

func (a *FixedArray) RenderType(r ir.TypeRenderer) string {
	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(strconv.Itoa(a.Length))
	sb.WriteByte(']')
	sb.WriteString(r.RenderType(a.Element))
	return sb.String()
}

func (a *FixedArray) Key() string {
	return "[" + strconv.Itoa(a.Length) + "]" + ir.TypeKey(a.Element)
}
