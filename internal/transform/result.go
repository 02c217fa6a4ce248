package transform

import (
	"imbind/internal/diag"
	"imbind/internal/ir"
)

type resultKind uint8

const (
	resultKeep resultKind = iota
	resultReplace
	resultRemove
	resultFanout
)

// Result is what a declaration hook returns.
type Result struct {
	kind  resultKind
	decls []ir.Decl
	diags []diag.Diagnostic
}

// Keep leaves the declaration unchanged.
func Keep() Result { return Result{kind: resultKeep} }

// Replace substitutes d for the declaration.
func Replace(d ir.Decl) Result {
	if d == nil {
		panic("transform: Replace(nil); use Remove")
	}
	return Result{kind: resultReplace, decls: []ir.Decl{d}}
}

// Remove drops the declaration and its children.
func Remove() Result { return Result{kind: resultRemove} }

// Fanout replaces the declaration with ds in order. An empty fan-out is a
// removal.
func Fanout(ds ...ir.Decl) Result {
	return Result{kind: resultFanout, decls: ds}
}

// WithDiagnostics attaches ds to every resulting declaration. Diagnostics on
// a removal go to the library.
func (r Result) WithDiagnostics(ds ...diag.Diagnostic) Result {
	r.diags = append(append([]diag.Diagnostic(nil), r.diags...), ds...)
	return r
}

func (r Result) isKeep() bool { return r.kind == resultKeep }

// resolve turns r into the list of declarations that take d's place.
func (r Result) resolve(d ir.Decl) []ir.Decl {
	switch r.kind {
	case resultKeep:
		return []ir.Decl{d}
	case resultRemove:
		return nil
	default:
		return r.decls
	}
}
