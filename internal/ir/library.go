package ir

import (
	"iter"
	"slices"
	"sync"

	"imbind/internal/diag"
)

// Library is one immutable snapshot of the declaration graph.
type Library struct {
	snapshot     SnapshotID
	lineage      *Lineage
	files        []*File
	declarations []Decl
	diagnostics  []diag.Diagnostic
	macros       []*Macro
	oracle       Oracle
	evaluator    ConstantEvaluator

	indexOnce sync.Once
	idx       *index
}

// LibraryParts seeds a new lineage.
type LibraryParts struct {
	Files        []*File
	Declarations []Decl
	Diagnostics  []diag.Diagnostic
	Macros       []*Macro
	Oracle       Oracle
	Evaluator    ConstantEvaluator
}

// NewLibrary creates the first snapshot of a new lineage.
func NewLibrary(p LibraryParts) *Library {
	l := &Library{
		snapshot:     newSnapshotID(),
		lineage:      newLineage(),
		files:        p.Files,
		declarations: p.Declarations,
		diagnostics:  p.Diagnostics,
		macros:       p.Macros,
		oracle:       p.Oracle,
		evaluator:    p.Evaluator,
	}
	l.lineage.register(l)
	return l
}

// Derive returns a new snapshot in the same lineage with the given roots and
// library diagnostics. The receiver is unchanged.
func (l *Library) Derive(decls []Decl, diags []diag.Diagnostic) *Library {
	n := &Library{
		snapshot:     newSnapshotID(),
		lineage:      l.lineage,
		files:        l.files,
		declarations: decls,
		diagnostics:  diags,
		macros:       l.macros,
		oracle:       l.oracle,
		evaluator:    l.evaluator,
	}
	l.lineage.register(n)
	return n
}

// WithDeclarations is Derive keeping the library diagnostics.
func (l *Library) WithDeclarations(decls []Decl) *Library {
	return l.Derive(decls, l.diagnostics)
}

// WithDiagnostics returns a snapshot with ds appended to the library
// diagnostics.
func (l *Library) WithDiagnostics(ds ...diag.Diagnostic) *Library {
	if len(ds) == 0 {
		return l
	}
	return l.Derive(l.declarations, slices.Concat(l.diagnostics, ds))
}

func (l *Library) Snapshot() SnapshotID                 { return l.snapshot }
func (l *Library) Lineage() *Lineage                    { return l.lineage }
func (l *Library) Files() []*File                       { return l.files }
func (l *Library) Declarations() []Decl                 { return l.declarations }
func (l *Library) Diagnostics() []diag.Diagnostic       { return l.diagnostics }
func (l *Library) Macros() []*Macro                     { return l.macros }
func (l *Library) Oracle() Oracle                       { return l.oracle }
func (l *Library) ConstantEvaluator() ConstantEvaluator { return l.evaluator }

// FindMacro looks a macro up by name.
func (l *Library) FindMacro(name string) (*Macro, bool) {
	for _, m := range l.macros {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Resolve returns the live declaration with the given identity. References
// to declarations another declaration replaced resolve to the replacement.
func (l *Library) Resolve(id DeclID) (Decl, bool) {
	idx := l.index()
	for hops := 0; hops <= len(idx.replaced); hops++ {
		if e, ok := idx.byID[id]; ok {
			return e.decl, true
		}
		next, ok := idx.replaced[id]
		if !ok {
			return nil, false
		}
		id = next
	}
	return nil, false
}

// ParentOf returns the owner of the declaration, or nil for roots.
func (l *Library) ParentOf(id DeclID) Decl {
	return l.index().byID[id].parent
}

// FindByName returns every live declaration with the given simple name in
// walk order.
func (l *Library) FindByName(name string) []Decl {
	idx := l.index()
	ids := idx.byName[name]
	out := make([]Decl, 0, len(ids))
	for _, id := range ids {
		out = append(out, idx.byID[id].decl)
	}
	return out
}

// Original returns the earlier version of d, if one was recorded and its
// snapshot is still part of the lineage.
func (l *Library) Original(d Decl) (Decl, bool) {
	ref := d.Common().Original
	if ref.IsZero() {
		return nil, false
	}
	src, ok := l.lineage.Snapshot(ref.Snapshot)
	if !ok {
		return nil, false
	}
	e, ok := src.index().byID[ref.ID]
	if !ok {
		return nil, false
	}
	return e.decl, true
}

// All yields every declaration depth-first in source order.
func (l *Library) All() iter.Seq[Decl] {
	return func(yield func(Decl) bool) {
		l.Walk(func(d Decl, _ []Decl) bool {
			return yield(d)
		})
	}
}

// Walk visits declarations depth-first. fn returns false to stop. parents is
// the ancestor chain, outermost first, and is only valid during the call.
func (l *Library) Walk(fn func(d Decl, parents []Decl) bool) {
	var parents []Decl
	var visit func(d Decl) bool
	visit = func(d Decl) bool {
		if !fn(d, parents) {
			return false
		}
		kids := d.Children()
		if len(kids) == 0 {
			return true
		}
		parents = append(parents, d)
		for _, c := range kids {
			if !visit(c) {
				return false
			}
		}
		parents = parents[:len(parents)-1]
		return true
	}
	for _, d := range l.declarations {
		if !visit(d) {
			return
		}
	}
}

// AllDiagnostics gathers library diagnostics followed by every
// declaration's diagnostics in walk order.
func (l *Library) AllDiagnostics() []diag.Diagnostic {
	out := slices.Clone(l.diagnostics)
	for d := range l.All() {
		out = append(out, d.Common().Diagnostics...)
	}
	return out
}
