package passes

import (
	"fmt"
	"slices"

	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/transform"
)

// Deduplicate renames sibling declarations that would be emitted under the
// same name. The first declaration keeps its name; later ones get "_1",
// "_2", and so on. The target has no overloading, so functions that differ
// only in their parameters collide as well.
type Deduplicate struct {
	// FlattenContainers pools container members with the roots, for targets
	// that emit them as package-level declarations.
	FlattenContainers bool
}

func (Deduplicate) Name() string { return "deduplicate-names" }

func (p Deduplicate) Begin() transform.Hooks { return &dedupeHooks{cfg: p} }

type dedupeHooks struct {
	transform.Base
	cfg Deduplicate
}

func (h *dedupeHooks) TransformRecord(_ *transform.Context, r *ir.Record) transform.Result {
	if h.cfg.FlattenContainers && IsContainer(r) {
		return transform.Keep()
	}
	members, changed := dedupeScope(r.Members)
	if !changed {
		return transform.Keep()
	}
	c := r.Clone()
	c.Members = members
	return transform.Replace(c)
}

func (h *dedupeHooks) PostTransformLibrary(_ *transform.Context, lib *ir.Library) *ir.Library {
	roots := lib.Declarations()
	if !h.cfg.FlattenContainers {
		out, changed := dedupeScope(roots)
		if !changed {
			return lib
		}
		return lib.WithDeclarations(out)
	}

	// Flattened scope: roots that are not containers, then container members
	// in order.
	var scope []ir.Decl
	for _, d := range roots {
		if IsContainer(d) {
			scope = append(scope, d.Children()...)
		} else {
			scope = append(scope, d)
		}
	}
	renamed, changed := dedupeScope(scope)
	if !changed {
		return lib
	}
	byID := make(map[ir.DeclID]ir.Decl, len(renamed))
	for _, d := range renamed {
		byID[d.Common().ID()] = d
	}
	out := make([]ir.Decl, len(roots))
	for i, d := range roots {
		if !IsContainer(d) {
			out[i] = byID[d.Common().ID()]
			continue
		}
		c := d.(*ir.Record).Clone()
		c.Members = make([]ir.Decl, len(d.Children()))
		for j, m := range d.Children() {
			c.Members[j] = byID[m.Common().ID()]
		}
		out[i] = c
	}
	return lib.WithDeclarations(out)
}

// dedupeScope renames colliding names within one scope.
func dedupeScope(decls []ir.Decl) ([]ir.Decl, bool) {
	used := make(map[string]bool, len(decls))
	for _, d := range decls {
		used[d.Common().Name] = true
	}
	seen := make(map[string]bool, len(decls))
	var out []ir.Decl
	for i, d := range decls {
		name := d.Common().Name
		if name == "" || !seen[name] {
			seen[name] = true
			continue
		}
		if out == nil {
			out = slices.Clone(decls)
		}
		n := 1
		candidate := fmt.Sprintf("%s_%d", name, n)
		for used[candidate] {
			n++
			candidate = fmt.Sprintf("%s_%d", name, n)
		}
		used[candidate] = true
		seen[candidate] = true
		c := d.CloneDecl()
		c.Common().Name = candidate
		out[i] = ir.WithDiagnostics(c, diag.Newf(diag.SevNote, diag.TrnNameCollision, "%s renamed to %s", name, candidate))
	}
	if out == nil {
		return decls, false
	}
	return out, true
}
