package passes

import (
	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/transform"
)

// StripUnreferencedLazyDeclarations removes type declarations that the front
// end only translated because a header outside the scope declared them, once
// nothing in scope refers to them any more. References are followed through
// kept declarations, so a lazy record used by a kept lazy typedef stays.
type StripUnreferencedLazyDeclarations struct{}

func (StripUnreferencedLazyDeclarations) Name() string { return "strip-unreferenced-lazy-declarations" }

func (StripUnreferencedLazyDeclarations) Begin() transform.Hooks { return &lazyHooks{} }

type lazyHooks struct {
	transform.Base
	keep map[ir.DeclID]bool
}

// isLazy reports whether a root declaration is a type that came from a
// header outside the scope.
func isLazy(d ir.Decl) bool {
	switch d.(type) {
	case *ir.Record, *ir.Enum, *ir.Typedef:
	default:
		return false
	}
	b := d.Common()
	return b.File != nil && !b.File.InScope && !IsContainer(d)
}

func (h *lazyHooks) PreTransformLibrary(ctx *transform.Context) {
	lib := ctx.Library
	h.keep = make(map[ir.DeclID]bool)
	var work []ir.Decl
	for _, d := range lib.Declarations() {
		if !isLazy(d) {
			work = append(work, d)
		}
	}
	for len(work) > 0 {
		d := work[len(work)-1]
		work = work[:len(work)-1]
		forEachReference(d, func(ref ir.DeclRef) {
			target, ok := ref.TryResolve(lib)
			if !ok {
				return
			}
			root := rootOf(lib, target)
			id := root.Common().ID()
			if isLazy(root) && !h.keep[id] {
				h.keep[id] = true
				work = append(work, root)
			}
		})
	}
}

func (h *lazyHooks) TransformDeclaration(ctx *transform.Context, d ir.Decl) transform.Result {
	if ctx.IsRoot() && isLazy(d) && !h.keep[d.Common().ID()] {
		return transform.Remove()
	}
	return transform.Keep()
}

func rootOf(lib *ir.Library, d ir.Decl) ir.Decl {
	for {
		parent := lib.ParentOf(d.Common().ID())
		if parent == nil {
			return d
		}
		d = parent
	}
}

// forEachReference calls fn for every declaration reference in the type
// slots of d and its descendants.
func forEachReference(d ir.Decl, fn func(ir.DeclRef)) {
	var visit ir.TypeVisitor
	visit = func(t ir.TypeRef) (ir.TypeRef, []diag.Diagnostic) {
		if ref, ok := t.(ir.DeclRef); ok {
			fn(ref)
			return t, nil
		}
		if t != nil {
			ir.TransformTypeChildren(t, visit)
		}
		return t, nil
	}
	switch x := d.(type) {
	case *ir.Field:
		visit(x.Type)
	case *ir.Typedef:
		visit(x.UnderlyingType)
	case *ir.Enum:
		visit(x.UnderlyingType)
	case *ir.Parameter:
		visit(x.Type)
	case *ir.Constant:
		visit(x.Type)
	case *ir.Function:
		visit(x.ReturnType)
	case ir.CustomDecl:
		x.TransformTypes(visit)
	}
	for _, c := range d.Children() {
		forEachReference(c, fn)
	}
}
