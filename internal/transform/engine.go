package transform

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/trace"
)

type run struct {
	name     string
	hooks    Hooks
	lib      *ir.Library
	libDiags []diag.Diagnostic
	tracer   trace.Tracer
	span     uint64

	changed int
	removed int
}

// Apply runs p once over lib and returns the resulting snapshot. When the
// pass changed nothing the input library is returned.
func Apply(ctx context.Context, lib *ir.Library, p Pass) *ir.Library {
	return ApplyHooks(ctx, lib, p.Name(), p.Begin())
}

// ApplyHooks runs a single hooks value. Hooks may be used for one run only.
func ApplyHooks(ctx context.Context, lib *ir.Library, name string, h Hooks) *ir.Library {
	if !h.claim() {
		panic(fmt.Sprintf("transform: hooks for pass %q reused across runs", name))
	}
	ctx, span := trace.Start(ctx, trace.ScopePass, name)
	r := &run{
		name:   name,
		hooks:  h,
		lib:    lib,
		tracer: trace.FromContext(ctx),
		span:   span.ID(),
	}
	root := &Context{Library: lib, run: r}

	h.PreTransformLibrary(root)
	roots, changed := r.transformList(root, lib.Declarations())

	out := lib
	if changed || len(r.libDiags) > 0 {
		diags := lib.Diagnostics()
		if len(r.libDiags) > 0 {
			diags = append(append([]diag.Diagnostic(nil), diags...), r.libDiags...)
		}
		out = lib.Derive(roots, diags)
	}
	r.libDiags = nil
	post := h.PostTransformLibrary(&Context{Library: out, run: r}, out)
	if len(r.libDiags) > 0 {
		post = post.WithDiagnostics(r.libDiags...)
	}

	span.WithExtra("changed", strconv.Itoa(r.changed)).
		WithExtra("removed", strconv.Itoa(r.removed)).
		End("")
	return post
}

// transformList rewrites a sibling list. changed is false when every element
// came back as the same instance.
func (r *run) transformList(ctx *Context, decls []ir.Decl) ([]ir.Decl, bool) {
	changed := false
	out := make([]ir.Decl, 0, len(decls))
	for _, d := range decls {
		res := r.transformDecl(ctx, d)
		if len(res) != 1 || res[0] != d {
			changed = true
		}
		out = append(out, res...)
	}
	if !changed {
		return decls, false
	}
	return out, true
}

func (r *run) transformDecl(ctx *Context, d ir.Decl) []ir.Decl {
	typed, typeDiags := r.transformTypeSlots(ctx, d)
	if typeDiags = unseen(d, typeDiags); len(typeDiags) > 0 {
		typed = ir.WithDiagnostics(typed, typeDiags...)
	}

	res := r.hooks.TransformDeclaration(ctx, typed)
	if res.isKeep() {
		kind := r.dispatch(ctx, typed)
		kind.diags = append(res.diags, kind.diags...)
		res = kind
	}
	results := res.resolve(typed)

	if len(results) == 0 {
		r.removed++
		for _, x := range res.diags {
			if x.Location.IsZero() {
				x.Location = d.Common().Location()
			}
			ctx.Report(x)
		}
		trace.Point(r.tracer, trace.ScopeDecl, "removed", d.Common().QualifiedName(), r.span)
		return nil
	}
	if len(results) > 1 {
		trace.Point(r.tracer, trace.ScopeDecl, "fanout",
			fmt.Sprintf("%s -> %d", d.Common().QualifiedName(), len(results)), r.span)
	}

	out := make([]ir.Decl, len(results))
	for i, x := range results {
		if x == nil {
			panic(fmt.Sprintf("transform: pass %q returned a nil declaration for %s", r.name, d.Common().Name))
		}
		x = ir.WithDiagnostics(x, res.diags...)
		x = r.transformChildren(ctx, x)
		if x != d {
			r.changed++
			x = r.markOriginal(d, x)
		}
		out[i] = x
	}
	return out
}

func (r *run) dispatch(ctx *Context, d ir.Decl) Result {
	switch x := d.(type) {
	case *ir.Record:
		return r.hooks.TransformRecord(ctx, x)
	case *ir.Enum:
		return r.hooks.TransformEnum(ctx, x)
	case *ir.EnumConstant:
		return r.hooks.TransformEnumConstant(ctx, x)
	case *ir.Function:
		return r.hooks.TransformFunction(ctx, x)
	case *ir.Parameter:
		return r.hooks.TransformParameter(ctx, x)
	case *ir.Field:
		return r.hooks.TransformField(ctx, x)
	case *ir.Typedef:
		return r.hooks.TransformTypedef(ctx, x)
	case *ir.Constant:
		return r.hooks.TransformConstant(ctx, x)
	case *ir.Macro:
		return r.hooks.TransformMacro(ctx, x)
	case *ir.Unsupported:
		return r.hooks.TransformUnsupported(ctx, x)
	case ir.CustomDecl:
		return r.hooks.TransformCustom(ctx, x)
	default:
		panic(fmt.Sprintf("transform: unknown declaration type %T", d))
	}
}

// unseen drops type diagnostics that d already carries. A type slot that
// keeps its problem reports it again on every run of the pass.
func unseen(d ir.Decl, ds []diag.Diagnostic) []diag.Diagnostic {
	b := d.Common()
	if len(ds) == 0 || len(b.Diagnostics) == 0 {
		return ds
	}
	loc := b.Location()
	var out []diag.Diagnostic
	for _, x := range ds {
		located := x
		if located.Location.IsZero() {
			located.Location = loc
		}
		if !slices.Contains(b.Diagnostics, located) {
			out = append(out, x)
		}
	}
	return out
}

// markOriginal records where a rewritten declaration came from. Only
// declarations that kept the identity of the input get an Original.
func (r *run) markOriginal(in, out ir.Decl) ir.Decl {
	ob := out.Common()
	if ob.ID() != in.Common().ID() || !ob.Original.IsZero() {
		return out
	}
	c := out.CloneDecl()
	c.Common().Original = ir.OriginalRef{Snapshot: r.lib.Snapshot(), ID: in.Common().ID()}
	return c
}

func (r *run) transformChildren(ctx *Context, d ir.Decl) ir.Decl {
	switch x := d.(type) {
	case *ir.Record:
		members, changed := r.transformList(ctx.Child(x), x.Members)
		if !changed {
			return x
		}
		c := x.Clone()
		c.Members = members
		return c
	case *ir.Enum:
		values, changed := r.transformList(ctx.Child(x), x.Children())
		if !changed {
			return x
		}
		c := x.Clone()
		c.Values = make([]*ir.EnumConstant, len(values))
		for i, v := range values {
			ec, ok := v.(*ir.EnumConstant)
			if !ok {
				panic(fmt.Sprintf("transform: pass %q put %T into enum %s", r.name, v, x.Name))
			}
			c.Values[i] = ec
		}
		return c
	case *ir.Function:
		params, changed := r.transformList(ctx.Child(x), x.Children())
		if !changed {
			return x
		}
		c := x.Clone()
		c.Parameters = make([]*ir.Parameter, len(params))
		for i, p := range params {
			pp, ok := p.(*ir.Parameter)
			if !ok {
				panic(fmt.Sprintf("transform: pass %q put %T into function %s", r.name, p, x.Name))
			}
			c.Parameters[i] = pp
		}
		return c
	default:
		return d
	}
}
