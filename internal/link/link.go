package link

import (
	"context"
	"fmt"

	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/trace"
	"imbind/internal/transform"
)

// Imports is the pass that resolves every function against a symbol table.
// Resolved functions get SymbolName and LibraryName; unresolved or
// ambiguous ones get a diagnostic at the configured severity.
type Imports struct {
	Symbols     *SymbolTable
	OnMissing   diag.Severity
	OnAmbiguous diag.Severity
}

func (Imports) Name() string { return "link-imports" }

func (p Imports) Begin() transform.Hooks { return &importHooks{pass: p} }

type importHooks struct {
	transform.Base
	pass Imports
}

// candidates lists the names a function may be exported under, most
// specific first.
func candidates(f *ir.Function) []string {
	var out []string
	for _, n := range []string{f.SymbolName, f.MangledName, f.Name} {
		if n != "" && (len(out) == 0 || out[len(out)-1] != n) {
			out = append(out, n)
		}
	}
	return out
}

func (h *importHooks) TransformFunction(_ *transform.Context, f *ir.Function) transform.Result {
	if f.LibraryName != "" || f.IsVirtual || reported(f) {
		return transform.Keep()
	}
	names := candidates(f)
	if len(names) == 0 {
		return transform.Keep()
	}
	for _, name := range names {
		libs := h.pass.Symbols.Lookup(name)
		if len(libs) == 0 {
			continue
		}
		c := f.Clone()
		c.SymbolName = name
		c.LibraryName = libs[0]
		if len(libs) > 1 {
			return transform.Replace(c).WithDiagnostics(diag.Newf(h.pass.OnAmbiguous, diag.LnkAmbiguousSymbol,
				"symbol '%s' is exported by %d libraries, using %s", name, len(libs), libs[0]))
		}
		return transform.Replace(c)
	}
	return transform.Keep().WithDiagnostics(diag.Newf(h.pass.OnMissing, diag.LnkMissingSymbol,
		"no loaded library exports '%s'", names[0]))
}

func reported(f *ir.Function) bool {
	for _, d := range f.Diagnostics {
		if d.Code == diag.LnkMissingSymbol {
			return true
		}
	}
	return false
}

// Options configures Link.
type Options struct {
	// Sources are always loaded in addition to the artifacts passed to Link.
	Sources     []string
	OnMissing   diag.Severity
	OnAmbiguous diag.Severity
}

// Link loads the symbol sources and applies Imports. A source that cannot
// be read is reported on the library rather than failing the run.
func Link(ctx context.Context, lib *ir.Library, artifacts []string, opts Options) (*ir.Library, error) {
	ctx, span := trace.Start(ctx, trace.ScopeStage, "link")
	paths := append(append([]string(nil), opts.Sources...), artifacts...)
	table, err := LoadSymbols(ctx, paths)
	if err != nil {
		if ctx.Err() != nil {
			span.End("canceled")
			return lib, ctx.Err()
		}
		span.End("load failed")
		return lib.WithDiagnostics(diag.Newf(diag.SevFatal, diag.LnkLoadFailed, "%v", err)), nil
	}
	out := transform.Apply(ctx, lib, Imports{
		Symbols:     table,
		OnMissing:   opts.OnMissing,
		OnAmbiguous: opts.OnAmbiguous,
	})
	span.End(fmt.Sprintf("%d symbols from %d libraries", table.Len(), len(table.Libraries())))
	return out, nil
}
