package passes

import (
	"strings"

	"imbind/internal/ir"
	"imbind/internal/transform"
)

// EnumNormalize merges the enum/typedef pairs of the ImGui headers. An enum
// named with the trailing Marker ("ImGuiWindowFlags_") paired with a typedef
// named without it ("ImGuiWindowFlags") becomes a single enum named like the
// typedef, carrying the typedef's underlying type, with the enum name
// stripped from its constants. The typedef is removed and its references
// resolve to the enum.
type EnumNormalize struct {
	Marker      string // "_" when empty
	FlagsSuffix string // "Flags_" when empty
}

func (EnumNormalize) Name() string { return "enum-normalize" }

func (p EnumNormalize) Begin() transform.Hooks {
	h := &enumHooks{marker: p.Marker, flagsSuffix: p.FlagsSuffix}
	if h.marker == "" {
		h.marker = "_"
	}
	if h.flagsSuffix == "" {
		h.flagsSuffix = "Flags_"
	}
	return h
}

type enumHooks struct {
	transform.Base
	marker      string
	flagsSuffix string

	enums    map[ir.DeclID]*ir.Typedef
	typedefs map[ir.DeclID]ir.DeclID
}

func (h *enumHooks) PreTransformLibrary(ctx *transform.Context) {
	if h.enums != nil {
		panic("enum-normalize: association state is not empty at the start of a run")
	}
	h.enums = make(map[ir.DeclID]*ir.Typedef)
	h.typedefs = make(map[ir.DeclID]ir.DeclID)

	var candidates []*ir.Enum
	typedefs := make(map[string]*ir.Typedef)
	for d := range ctx.Library.All() {
		switch x := d.(type) {
		case *ir.Typedef:
			if _, seen := typedefs[x.Name]; !seen {
				typedefs[x.Name] = x
			}
		case *ir.Enum:
			if strings.HasSuffix(x.Name, h.marker) {
				candidates = append(candidates, x)
			}
		}
	}
	for _, e := range candidates {
		td, ok := typedefs[strings.TrimSuffix(e.Name, h.marker)]
		if !ok {
			continue
		}
		h.enums[e.ID()] = td
		h.typedefs[td.ID()] = e.ID()
	}
}

func (h *enumHooks) PostTransformLibrary(_ *transform.Context, lib *ir.Library) *ir.Library {
	h.enums = nil
	h.typedefs = nil
	return lib
}

func (h *enumHooks) TransformEnum(_ *transform.Context, e *ir.Enum) transform.Result {
	td, ok := h.enums[e.ID()]
	if !ok {
		return transform.Keep()
	}
	prefix := e.Name
	c := e.Clone()
	c.Name = strings.TrimSuffix(e.Name, h.marker)
	c.IsFlags = strings.HasSuffix(e.Name, h.flagsSuffix)
	c.UnderlyingType = td.UnderlyingType
	c.Replaces = append(append([]ir.DeclID(nil), e.Replaces...), td.ID())
	c.Values = make([]*ir.EnumConstant, len(e.Values))
	for i, v := range e.Values {
		if len(v.Name) > len(prefix) && strings.HasPrefix(v.Name, prefix) {
			nv := v.Clone()
			nv.Name = strings.TrimPrefix(v.Name, prefix)
			c.Values[i] = nv
			continue
		}
		c.Values[i] = v
	}
	return transform.Replace(c)
}

func (h *enumHooks) TransformTypedef(_ *transform.Context, td *ir.Typedef) transform.Result {
	if _, ok := h.typedefs[td.ID()]; ok {
		return transform.Remove()
	}
	return transform.Keep()
}
