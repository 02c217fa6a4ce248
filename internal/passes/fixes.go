package passes

import (
	"path"
	"slices"

	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/transform"
)

// MiscFixes overrides the underlying type of selected typedefs.
type MiscFixes struct {
	Typedefs map[string]ir.TypeRef
}

// DefaultTypedefOverrides maps ImGui's wide character typedefs onto Go's
// character types.
func DefaultTypedefOverrides() map[string]ir.TypeRef {
	return map[string]ir.TypeRef{
		"ImWchar16": ir.Builtin(ir.BuiltinChar16),
		"ImWchar32": ir.ExternalType{Name: "rune"},
	}
}

func (MiscFixes) Name() string { return "misc-fixes" }

func (p MiscFixes) Begin() transform.Hooks { return &miscHooks{overrides: p.Typedefs} }

type miscHooks struct {
	transform.Base
	overrides map[string]ir.TypeRef
}

func (h *miscHooks) TransformTypedef(_ *transform.Context, td *ir.Typedef) transform.Result {
	t, ok := h.overrides[td.Name]
	if !ok || ir.Equal(t, td.UnderlyingType) {
		return transform.Keep()
	}
	c := td.Clone()
	c.UnderlyingType = t
	return transform.Replace(c)
}

// InternalFixup prunes what the internal header exposes but a binding cannot
// express: FILE handles, fields of untranslatable types and template
// helpers. Warnings go to the library diagnostics.
type InternalFixup struct {
	File               string // "imgui_internal.h" when empty
	FileHandleTypedef  string // "ImFileHandle" when empty
	TemplateFunctions  []string
	TemplateClasses    []string
	AlwaysRemoveFields []string // "Record.Field"
}

// DefaultInternalFixup returns the tables for Dear ImGui 1.8x.
func DefaultInternalFixup() InternalFixup {
	return InternalFixup{
		TemplateFunctions: []string{
			"ImMin", "ImMax", "ImClamp", "ImLerp", "ImSwap",
			"ImAddClampOverflow", "ImSubClampOverflow",
			"ScaleRatioFromValueT", "ScaleValueFromRatioT",
			"DragBehaviorT", "SliderBehaviorT", "RoundScalarWithFormatT", "CheckboxFlagsT",
		},
		TemplateClasses: []string{
			"ImSpanAllocator", "ImBitArray", "ImChunkStream", "ImPool", "ImSpan",
		},
		// Declared through a typedef the generic check does not see through.
		AlwaysRemoveFields: []string{"ImGuiContext.ActiveIdUsingKeyInputMask"},
	}
}

func (InternalFixup) Name() string { return "internal-fixup" }

func (p InternalFixup) Begin() transform.Hooks {
	if p.File == "" {
		p.File = "imgui_internal.h"
	}
	if p.FileHandleTypedef == "" {
		p.FileHandleTypedef = "ImFileHandle"
	}
	return &internalHooks{cfg: p}
}

type internalHooks struct {
	transform.Base
	cfg  InternalFixup
	file *ir.File
}

func (h *internalHooks) PreTransformLibrary(ctx *transform.Context) {
	for _, f := range ctx.Library.Files() {
		if path.Base(f.Path) == h.cfg.File {
			h.file = f
			return
		}
	}
}

func (h *internalHooks) inScope(d ir.Decl) bool {
	return h.file != nil && d.Common().File == h.file
}

func (h *internalHooks) TransformTypedef(_ *transform.Context, td *ir.Typedef) transform.Result {
	if !h.inScope(td) || td.Name != h.cfg.FileHandleTypedef {
		return transform.Keep()
	}
	c := td.Clone()
	c.UnderlyingType = ir.PointerTo(ir.VoidType{})
	return transform.Replace(c)
}

func (h *internalHooks) TransformField(ctx *transform.Context, f *ir.Field) transform.Result {
	if !h.inScope(f) {
		return transform.Keep()
	}
	var parentName string
	if p := ctx.Parent(); p != nil {
		parentName = p.Common().Name
	}
	if slices.Contains(h.cfg.AlwaysRemoveFields, parentName+"."+f.Name) {
		ctx.Report(h.removedField(ctx, f, f.Type))
		return transform.Remove()
	}

	var raw ir.TypeRef
	switch t := f.Type.(type) {
	case ir.RawType:
		raw = t
	case ir.DeclRef:
		if _, ok := t.TryResolve(ctx.Library); !ok {
			if orig, ok := ctx.Library.Original(f); ok {
				if of, ok := orig.(*ir.Field); ok {
					if r, ok := of.Type.(ir.RawType); ok {
						raw = r
					}
				}
			}
			if raw == nil {
				raw = t
			}
		}
	}
	if raw == nil {
		return transform.Keep()
	}
	ctx.Report(h.removedField(ctx, f, raw))
	return transform.Remove()
}

func (h *internalHooks) removedField(ctx *transform.Context, f *ir.Field, t ir.TypeRef) diag.Diagnostic {
	name := f.Name
	for i := len(ctx.Parents) - 1; i >= 0; i-- {
		p := ctx.Parents[i].Common()
		name = p.Name + "." + name
		if i == 0 && p.Namespace != "" {
			name = p.Namespace + "." + name
		}
	}
	return diag.Newf(diag.SevWarning, diag.TrnFieldRemoved,
		"field '%s' was removed since it references '%s', which is currently unsupported", name, spell(ctx.Library, t)).
		WithLocation(f.Location())
}

// spell names a type for messages, asking the oracle for raw types.
func spell(lib *ir.Library, t ir.TypeRef) string {
	if r, ok := t.(ir.RawType); ok && lib.Oracle() != nil {
		if info, ok := lib.Oracle().ResolveType(r.Handle); ok && info.Spelling != "" {
			return info.Spelling
		}
	}
	return ir.Describe(t)
}

func (h *internalHooks) TransformUnsupported(ctx *transform.Context, d *ir.Unsupported) transform.Result {
	if !h.inScope(d) {
		return transform.Keep()
	}
	var known []string
	var what string
	switch d.FrontendKind {
	case "FunctionTemplate":
		known, what = h.cfg.TemplateFunctions, "function"
	case "ClassTemplate":
		known, what = h.cfg.TemplateClasses, "class"
	default:
		return transform.Keep()
	}
	if !slices.Contains(known, d.Name) {
		ctx.Report(diag.Newf(diag.SevWarning, diag.TrnUnknownTemplate,
			"unrecognized templated %s '%s' was removed; add it to the internal fixup tables", what, d.Name).
			WithLocation(d.Location()))
	}
	return transform.Remove()
}

// FixupFunctionPointerReturns rewrites function pointer fields whose native
// return value travels through a hidden buffer: the return type becomes a
// pointer to the buffer and the buffer is prepended to the parameters. The
// decision needs the raw type the field had before reduction.
type FixupFunctionPointerReturns struct{}

func (FixupFunctionPointerReturns) Name() string { return "fixup-function-pointer-returns" }

func (FixupFunctionPointerReturns) Begin() transform.Hooks { return &fpReturnHooks{} }

type fpReturnHooks struct{ transform.Base }

func (*fpReturnHooks) TransformField(ctx *transform.Context, f *ir.Field) transform.Result {
	fp, ok := f.Type.(*ir.FunctionPointerType)
	oracle := ctx.Library.Oracle()
	if !ok || oracle == nil {
		return transform.Keep()
	}
	orig, ok := ctx.Library.Original(f)
	if !ok {
		return transform.Keep()
	}
	of, ok := orig.(*ir.Field)
	if !ok {
		return transform.Keep()
	}
	raw, ok := of.Type.(ir.RawType)
	if !ok {
		return transform.Keep()
	}
	h := oracle.Canonical(raw.Handle)
	if pointee, _, ok := oracle.Pointee(h); ok {
		h = oracle.Canonical(pointee)
	}
	info, ok := oracle.ResolveType(h)
	if !ok || info.Class != ir.RawFunctionProto || !oracle.MustPassByReference(info.Return) {
		return transform.Keep()
	}
	if _, already := fp.Return.(*ir.PointerType); already && len(fp.Params) > 0 && ir.Equal(fp.Params[0], fp.Return) {
		return transform.Keep()
	}
	buf := ir.PointerTo(fp.Return)
	c := f.Clone()
	c.Type = &ir.FunctionPointerType{
		Return:   buf,
		Params:   append([]ir.TypeRef{buf}, fp.Params...),
		CallConv: fp.CallConv,
	}
	return transform.Replace(c)
}
