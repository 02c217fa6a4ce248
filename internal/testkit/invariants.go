// Package testkit checks structural invariants of libraries in tests.
package testkit

import (
	"fmt"

	"imbind/internal/ir"
)

// CheckLibrary verifies the invariants every snapshot must hold:
//  1. every declaration has an identity
//  2. no identity appears twice in the tree, so no node is shared
//  3. recorded originals point at an earlier snapshot
//  4. no declaration lists itself in Replaces
func CheckLibrary(lib *ir.Library) error {
	if lib == nil {
		return fmt.Errorf("nil library")
	}
	seen := make(map[ir.DeclID]string)
	var err error
	lib.Walk(func(d ir.Decl, parents []ir.Decl) bool {
		b := d.Common()
		where := path(d, parents)
		id := b.ID()
		if id == ir.NoDeclID {
			err = fmt.Errorf("%s has no identity", where)
			return false
		}
		if prev, dup := seen[id]; dup {
			err = fmt.Errorf("%s reuses identity %s of %s", where, id, prev)
			return false
		}
		seen[id] = where
		if !b.Original.IsZero() && b.Original.Snapshot >= lib.Snapshot() {
			err = fmt.Errorf("%s has original in snapshot %d, not before %d", where, b.Original.Snapshot, lib.Snapshot())
			return false
		}
		for _, r := range b.Replaces {
			if r == id {
				err = fmt.Errorf("%s replaces itself", where)
				return false
			}
		}
		return true
	})
	return err
}

// CheckShared verifies structural sharing across a rewrite: every
// declaration present in both snapshots for which changed reports false
// must be the same node.
func CheckShared(before, after *ir.Library, changed func(ir.DeclID) bool) error {
	prev := make(map[ir.DeclID]ir.Decl)
	for d := range before.All() {
		prev[d.Common().ID()] = d
	}
	for d := range after.All() {
		id := d.Common().ID()
		old, ok := prev[id]
		if !ok || changed(id) {
			continue
		}
		if old != d {
			return fmt.Errorf("%s (%s) was copied although nothing changed", id, d.Common().Name)
		}
	}
	return nil
}

func path(d ir.Decl, parents []ir.Decl) string {
	s := ""
	for _, p := range parents {
		s += p.Common().Name + "."
	}
	return s + d.Common().Name
}
