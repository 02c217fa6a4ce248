package passes

import (
	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/transform"
)

// Verify flags what no later stage can handle: raw types that survived
// reduction and references to declarations that no longer exist. Offending
// declarations keep their place and carry an Error, so the broken extractor
// that follows can quarantine them.
type Verify struct{}

func (Verify) Name() string { return "verify" }

func (Verify) Begin() transform.Hooks { return &verifyHooks{} }

type verifyHooks struct{ transform.Base }

func (*verifyHooks) TransformRawType(ctx *transform.Context, t ir.RawType) (ir.TypeRef, []diag.Diagnostic) {
	return t, []diag.Diagnostic{diag.Newf(diag.SevError, diag.TrnUntranslatedType,
		"type '%s' was never translated", spell(ctx.Library, t))}
}

func (*verifyHooks) TransformDeclRefType(ctx *transform.Context, t ir.DeclRef) (ir.TypeRef, []diag.Diagnostic) {
	if _, ok := t.TryResolve(ctx.Library); ok {
		return t, nil
	}
	return t, []diag.Diagnostic{diag.Newf(diag.SevError, diag.TrnUnresolvedReference,
		"reference to '%s' does not resolve to a live declaration", ir.Describe(t))}
}

func (*verifyHooks) TransformFunction(_ *transform.Context, f *ir.Function) transform.Result {
	var diags []diag.Diagnostic
	for _, t := range f.Trampolines() {
		if len(t.Adapters) > 0 && len(t.Adapters) < len(f.Parameters) {
			diags = append(diags, diag.Newf(diag.SevError, diag.TrnInvalidStringWrapper,
				"wrapper %s covers %d of %d parameters", t.NameFor(f), len(t.Adapters), len(f.Parameters)))
		}
	}
	return transform.Keep().WithDiagnostics(diags...)
}
