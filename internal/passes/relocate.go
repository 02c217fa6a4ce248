package passes

import (
	"imbind/internal/ir"
	"imbind/internal/transform"
)

// Container marks a record synthesized to hold loose declarations. It has no
// layout of its own; emitters hoist its members.
type Container struct{}

// IsContainer reports whether d is a synthesized container record.
func IsContainer(d ir.Decl) bool {
	r, ok := d.(*ir.Record)
	if !ok {
		return false
	}
	_, ok = ir.MetadataGet[Container](r.Metadata)
	return ok
}

// ContainerFunc chooses the container for a loose declaration. An empty
// result selects the default bucket.
type ContainerFunc func(ctx *transform.Context, d ir.Decl) string

// ByNamespace maps namespaces to container names.
func ByNamespace(m map[string]string) ContainerFunc {
	return func(_ *transform.Context, d ir.Decl) string {
		return m[d.Common().Namespace]
	}
}

// MoveLooseDeclarations moves root functions and constants into container
// records, one per (namespace, container name).
type MoveLooseDeclarations struct {
	Container ContainerFunc
	Default   string // "Globals" when empty
}

func (MoveLooseDeclarations) Name() string { return "move-loose-declarations" }

func (p MoveLooseDeclarations) Begin() transform.Hooks {
	if p.Default == "" {
		p.Default = "Globals"
	}
	return &relocateHooks{cfg: p}
}

type bucketKey struct {
	namespace string
	name      string
}

type relocateHooks struct {
	transform.Base
	cfg     MoveLooseDeclarations
	order   []bucketKey
	buckets map[bucketKey][]ir.Decl
}

func isLoose(d ir.Decl) bool {
	switch d.(type) {
	case *ir.Function, *ir.Constant:
		return true
	}
	return false
}

func (h *relocateHooks) TransformDeclaration(ctx *transform.Context, d ir.Decl) transform.Result {
	if !ctx.IsRoot() || !isLoose(d) {
		return transform.Keep()
	}
	name := ""
	if h.cfg.Container != nil {
		name = h.cfg.Container(ctx, d)
	}
	if name == "" {
		name = h.cfg.Default
	}
	key := bucketKey{namespace: d.Common().Namespace, name: name}
	if h.buckets == nil {
		h.buckets = make(map[bucketKey][]ir.Decl)
	}
	if _, seen := h.buckets[key]; !seen {
		h.order = append(h.order, key)
	}
	h.buckets[key] = append(h.buckets[key], d)
	return transform.Remove()
}

func (h *relocateHooks) PostTransformLibrary(_ *transform.Context, lib *ir.Library) *ir.Library {
	if len(h.order) == 0 {
		return lib
	}
	roots := append([]ir.Decl(nil), lib.Declarations()...)
	for _, key := range h.order {
		members := h.buckets[key]
		if i := findRecord(roots, key); i >= 0 {
			c := roots[i].(*ir.Record).Clone()
			c.Members = append(append([]ir.Decl(nil), c.Members...), members...)
			roots[i] = c
			continue
		}
		rec := ir.NewRecord(key.name)
		rec.Namespace = key.namespace
		rec.File = members[0].Common().File
		rec.Metadata = ir.MetadataSet(rec.Metadata, Container{})
		rec.Members = members
		roots = append(roots, rec)
	}
	return lib.WithDeclarations(roots)
}

// findRecord returns the container already holding the bucket. Real records
// that share the bucket's name are not containers and never receive members.
func findRecord(roots []ir.Decl, key bucketKey) int {
	for i, d := range roots {
		if !IsContainer(d) {
			continue
		}
		if r := d.(*ir.Record); r.Name == key.name && r.Namespace == key.namespace {
			return i
		}
	}
	return -1
}
