package passes

import (
	"slices"
	"sync"

	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/transform"
)

// Quarantined is a declaration removed because it carried an Error or Fatal
// diagnostic.
type Quarantined struct {
	Decl ir.Decl
	// Path is the qualified name of the declaration including its parents.
	Path string
}

// BrokenExtractor removes broken declarations from the tree. The extractor
// owns the cumulative quarantine and may be run any number of times.
type BrokenExtractor struct {
	mu         sync.Mutex
	quarantine []Quarantined
}

func (*BrokenExtractor) Name() string { return "broken-extractor" }

func (e *BrokenExtractor) Begin() transform.Hooks {
	return &brokenHooks{owner: e}
}

// Quarantine returns everything extracted so far, in extraction order.
func (e *BrokenExtractor) Quarantine() []Quarantined {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.quarantine)
}

// Diagnostics returns the diagnostics of every quarantined declaration and
// its descendants.
func (e *BrokenExtractor) Diagnostics() []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, q := range e.Quarantine() {
		var walk func(d ir.Decl)
		walk = func(d ir.Decl) {
			out = append(out, d.Common().Diagnostics...)
			for _, c := range d.Children() {
				walk(c)
			}
		}
		walk(q.Decl)
	}
	return out
}

func (e *BrokenExtractor) add(q Quarantined) {
	e.mu.Lock()
	e.quarantine = append(e.quarantine, q)
	e.mu.Unlock()
}

type brokenHooks struct {
	transform.Base
	owner *BrokenExtractor
}

// isBroken reports whether d must be quarantined. A broken parameter takes
// its whole function with it.
func isBroken(d ir.Decl) bool {
	switch x := d.(type) {
	case *ir.Parameter:
		return false
	case *ir.Function:
		if x.HasErrors() {
			return true
		}
		for _, p := range x.Parameters {
			if p.HasErrors() {
				return true
			}
		}
		return false
	}
	return d.Common().HasErrors()
}

func (h *brokenHooks) TransformDeclaration(ctx *transform.Context, d ir.Decl) transform.Result {
	if !isBroken(d) {
		return transform.Keep()
	}
	path := d.Common().QualifiedName()
	for i := len(ctx.Parents) - 1; i >= 0; i-- {
		path = ctx.Parents[i].Common().Name + "." + path
	}
	h.owner.add(Quarantined{Decl: d, Path: path})
	return transform.Remove()
}
