package passes

import (
	"fmt"
	"slices"

	"imbind/internal/ir"
	"imbind/internal/transform"
)

// RemoveUnneeded drops unsupported declarations by name.
type RemoveUnneeded struct {
	Names []string
}

// DefaultUnneeded lists IM_DELETE, which only pairs with IM_NEW, and the
// vector template, which is erased instead.
func DefaultUnneeded() []string {
	return []string{"IM_DELETE", "ImVector"}
}

func (RemoveUnneeded) Name() string { return "remove-unneeded" }

func (p RemoveUnneeded) Begin() transform.Hooks { return &unneededHooks{names: p.Names} }

type unneededHooks struct {
	transform.Base
	names []string
}

func (h *unneededHooks) TransformUnsupported(_ *transform.Context, d *ir.Unsupported) transform.Result {
	if slices.Contains(h.names, d.Name) {
		return transform.Remove()
	}
	return transform.Keep()
}

// MakeEverythingPublic sets every declaration's accessibility to public.
type MakeEverythingPublic struct{}

func (MakeEverythingPublic) Name() string { return "make-everything-public" }

func (MakeEverythingPublic) Begin() transform.Hooks { return &publicHooks{} }

type publicHooks struct{ transform.Base }

func (*publicHooks) TransformDeclaration(_ *transform.Context, d ir.Decl) transform.Result {
	if d.Common().Accessibility == ir.AccessPublic {
		return transform.Keep()
	}
	c := d.CloneDecl()
	c.Common().Accessibility = ir.AccessPublic
	return transform.Replace(c)
}

// AutoNameParameters names unnamed parameters arg0, arg1, ... by position.
type AutoNameParameters struct{}

func (AutoNameParameters) Name() string { return "auto-name-parameters" }

func (AutoNameParameters) Begin() transform.Hooks { return &autoNameHooks{} }

type autoNameHooks struct{ transform.Base }

func (*autoNameHooks) TransformFunction(_ *transform.Context, f *ir.Function) transform.Result {
	var c *ir.Function
	for i, p := range f.Parameters {
		if p.Name != "" {
			continue
		}
		if c == nil {
			c = f.Clone()
			c.Parameters = slices.Clone(f.Parameters)
		}
		np := p.Clone()
		np.Name = fmt.Sprintf("arg%d", i)
		c.Parameters[i] = np
	}
	if c == nil {
		return transform.Keep()
	}
	return transform.Replace(c)
}

// CreateTrampolines gives every function its primary call shape. Functions
// that already have one are left alone.
type CreateTrampolines struct{}

func (CreateTrampolines) Name() string { return "create-trampolines" }

func (CreateTrampolines) Begin() transform.Hooks { return &trampolineHooks{} }

type trampolineHooks struct{ transform.Base }

func (*trampolineHooks) TransformFunction(_ *transform.Context, f *ir.Function) transform.Result {
	if f.Primary != nil {
		return transform.Keep()
	}
	c := f.Clone()
	c.Primary = ir.PrimaryTrampoline(f)
	return transform.Replace(c)
}
