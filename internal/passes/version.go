package passes

import (
	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/transform"
)

// VersionConstants evaluates version macros and places the resulting
// constants right after the anchor function, which is typically the
// version check the bindings call at start-up.
type VersionConstants struct {
	Anchor string
	Macros []string
}

// DefaultVersionConstants returns the ImGui configuration.
func DefaultVersionConstants() VersionConstants {
	return VersionConstants{
		Anchor: "DebugCheckVersionAndDataLayout",
		Macros: []string{"IMGUI_VERSION", "IMGUI_VERSION_NUM"},
	}
}

func (VersionConstants) Name() string { return "version-constants" }

func (p VersionConstants) Begin() transform.Hooks { return &versionHooks{cfg: p} }

type versionHooks struct {
	transform.Base
	cfg  VersionConstants
	done bool
}

func (h *versionHooks) TransformFunction(ctx *transform.Context, f *ir.Function) transform.Result {
	if h.done || f.Name != h.cfg.Anchor {
		return transform.Keep()
	}
	h.done = true

	out := []ir.Decl{f}
	var diags []diag.Diagnostic
	for _, name := range h.cfg.Macros {
		if hasConstant(ctx, name) {
			continue
		}
		c, d := evaluateMacro(ctx.Library, name)
		if d != nil {
			diags = append(diags, d.WithLocation(f.Location()))
			continue
		}
		c.Namespace = f.Namespace
		c.File = f.File
		c.Line = f.Line
		out = append(out, c)
	}
	for _, d := range diags {
		ctx.Report(d)
	}
	if len(out) == 1 {
		return transform.Keep()
	}
	return transform.Fanout(out...)
}

// hasConstant reports whether a sibling constant with the name already
// exists, which keeps the pass idempotent.
func hasConstant(ctx *transform.Context, name string) bool {
	var siblings []ir.Decl
	if p := ctx.Parent(); p != nil {
		siblings = p.Children()
	} else {
		siblings = ctx.Library.Declarations()
	}
	for _, s := range siblings {
		if c, ok := s.(*ir.Constant); ok && c.Name == name {
			return true
		}
	}
	return false
}

func evaluateMacro(lib *ir.Library, name string) (*ir.Constant, *diag.Diagnostic) {
	m, ok := lib.FindMacro(name)
	if !ok {
		d := diag.Newf(diag.SevWarning, diag.TrnMissingMacro, "could not find macro '%s'", name)
		return nil, &d
	}
	ev := lib.ConstantEvaluator()
	if ev == nil {
		d := diag.Newf(diag.SevWarning, diag.TrnConstantEvaluation, "no constant evaluator to expand '%s'", name)
		return nil, &d
	}
	v, err := ev.EvaluateMacro(lib, m)
	if err != nil {
		d := diag.Newf(diag.SevWarning, diag.TrnConstantEvaluation, "could not evaluate '%s': %v", name, err)
		return nil, &d
	}
	return ir.NewConstant(name, constantType(v), v), nil
}

func constantType(v ir.ConstantValue) ir.TypeRef {
	switch v.Kind {
	case ir.ConstString:
		return ir.ExternalType{Name: "string"}
	case ir.ConstFloat:
		return ir.Builtin(ir.BuiltinFloat64)
	case ir.ConstUint:
		return ir.Builtin(ir.BuiltinUint64)
	case ir.ConstBool:
		return ir.Builtin(ir.BuiltinBool)
	default:
		return ir.Builtin(ir.BuiltinInt32)
	}
}
