package passes

import (
	"imbind/internal/ir"
	"imbind/internal/transform"
)

// Overlay marks a field that shares its storage with an earlier field, such
// as the second member of an anonymous union. Emitters expose it through an
// accessor instead of a struct field.
type Overlay struct{}

// IsOverlay reports whether f was lifted out of a union behind another field.
func IsOverlay(f *ir.Field) bool {
	_, ok := ir.MetadataGet[Overlay](f.Metadata)
	return ok
}

// LiftAnonymousRecordFields moves the fields of anonymous records into the
// record that owns them. The unnamed field and the anonymous record go away;
// lifted fields keep their identity with offsets relative to the owner.
type LiftAnonymousRecordFields struct{}

func (LiftAnonymousRecordFields) Name() string { return "lift-anonymous-record-fields" }

func (LiftAnonymousRecordFields) Begin() transform.Hooks { return &liftHooks{} }

type liftHooks struct{ transform.Base }

func (*liftHooks) TransformRecord(_ *transform.Context, r *ir.Record) transform.Result {
	members, changed := liftMembers(r)
	if !changed {
		return transform.Keep()
	}
	c := r.Clone()
	c.Members = members
	return transform.Replace(c)
}

// anonymousTarget returns the member record an unnamed field stores.
func anonymousTarget(r *ir.Record, f *ir.Field) (*ir.Record, bool) {
	if f.Name != "" {
		return nil, false
	}
	ref, ok := f.Type.(ir.DeclRef)
	if !ok {
		return nil, false
	}
	for _, m := range r.Members {
		if rec, ok := m.(*ir.Record); ok && rec.IsAnonymous && rec.ID() == ref.ID {
			return rec, true
		}
	}
	return nil, false
}

func liftMembers(r *ir.Record) ([]ir.Decl, bool) {
	lifted := make(map[ir.DeclID]bool)
	var out []ir.Decl
	for _, m := range r.Members {
		f, ok := m.(*ir.Field)
		if !ok {
			out = append(out, m)
			continue
		}
		anon, ok := anonymousTarget(r, f)
		if !ok {
			out = append(out, m)
			continue
		}
		lifted[anon.ID()] = true
		inner, _ := liftMembers(anon)
		first := true
		for _, im := range inner {
			fld, ok := im.(*ir.Field)
			if !ok {
				continue
			}
			c := fld.Clone()
			c.Offset += f.Offset
			if anon.RecordKind == ir.RecordUnion && !first {
				c.Metadata = ir.MetadataSet(c.Metadata, Overlay{})
			}
			first = false
			out = append(out, c)
		}
	}
	if len(lifted) == 0 {
		return r.Members, false
	}
	kept := out[:0]
	for _, m := range out {
		if !lifted[m.Common().ID()] {
			kept = append(kept, m)
		}
	}
	return kept, true
}

// RemoveExplicitBitFieldPaddingFields drops unnamed bit-fields, which only
// exist to pad the following bit-field in C++.
type RemoveExplicitBitFieldPaddingFields struct{}

func (RemoveExplicitBitFieldPaddingFields) Name() string {
	return "remove-explicit-bit-field-padding"
}

func (RemoveExplicitBitFieldPaddingFields) Begin() transform.Hooks { return &bitPaddingHooks{} }

type bitPaddingHooks struct{ transform.Base }

func (*bitPaddingHooks) TransformField(_ *transform.Context, f *ir.Field) transform.Result {
	if f.Name == "" && f.BitWidth > 0 {
		return transform.Remove()
	}
	return transform.Keep()
}

// ConstOverloadRename gives const methods that overload a non-const method
// of the same name and arity a "Const" suffix, which reads better than the
// numeric suffix deduplication would pick.
type ConstOverloadRename struct{}

func (ConstOverloadRename) Name() string { return "const-overload-rename" }

func (ConstOverloadRename) Begin() transform.Hooks { return &constOverloadHooks{} }

type constOverloadHooks struct{ transform.Base }

type overloadKey struct {
	name  string
	arity int
}

func (*constOverloadHooks) TransformRecord(_ *transform.Context, r *ir.Record) transform.Result {
	mutable := make(map[overloadKey]bool)
	for _, m := range r.Members {
		if f, ok := m.(*ir.Function); ok && !f.IsConst {
			mutable[overloadKey{f.Name, len(f.Parameters)}] = true
		}
	}
	var members []ir.Decl
	for i, m := range r.Members {
		f, ok := m.(*ir.Function)
		if !ok || !f.IsConst || !mutable[overloadKey{f.Name, len(f.Parameters)}] {
			continue
		}
		if members == nil {
			members = append([]ir.Decl(nil), r.Members...)
		}
		c := f.Clone()
		c.Name += "Const"
		members[i] = c
	}
	if members == nil {
		return transform.Keep()
	}
	c := r.Clone()
	c.Members = members
	return transform.Replace(c)
}
