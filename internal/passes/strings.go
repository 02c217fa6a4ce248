package passes

import (
	"fmt"
	"strings"

	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/transform"
)

// OptOut excludes a function from string wrapper synthesis. Arity limits the
// rule to overloads with that many parameters; zero matches all.
type OptOut struct {
	Function string
	Arity    int
}

// DefaultOptOuts lists the ImGui functions whose char pointers are not
// human-readable text or that already have a better overload.
func DefaultOptOuts() []OptOut {
	return []OptOut{
		{Function: "PushID", Arity: 1},
		{Function: "GetID", Arity: 1},
		{Function: "AddFontFromMemoryCompressedBase85TTF"},
		{Function: "AddInputCharactersUTF8"},
		{Function: "CalcWordWrapPositionA"},
	}
}

// StringWrappers adds a secondary call shape taking Go strings to every
// function with const char* parameters. A parameter named with EndSuffix
// directly after a string parameter is the end pointer of that string and
// disappears from the wrapper signature.
type StringWrappers struct {
	Suffix    string // wrapper name suffix, "Str" when empty
	EndSuffix string // "_end" when empty
	OptOuts   []OptOut
}

func (StringWrappers) Name() string { return "string-wrappers" }

func (p StringWrappers) Begin() transform.Hooks {
	if p.Suffix == "" {
		p.Suffix = "Str"
	}
	if p.EndSuffix == "" {
		p.EndSuffix = "_end"
	}
	return &stringHooks{cfg: p}
}

type stringHooks struct {
	transform.Base
	cfg StringWrappers
}

func (h *stringHooks) optedOut(f *ir.Function) bool {
	for _, o := range h.cfg.OptOuts {
		if o.Function == f.Name && (o.Arity == 0 || o.Arity == len(f.Parameters)) {
			return true
		}
	}
	return false
}

// IsStringType reports whether t is const char*.
func IsStringType(t ir.TypeRef) bool {
	p, ok := t.(*ir.PointerType)
	if !ok || !p.InnerIsConst {
		return false
	}
	b, ok := p.Inner.(ir.BuiltinType)
	return ok && b.Kind == ir.BuiltinChar
}

func (h *stringHooks) TransformFunction(_ *transform.Context, f *ir.Function) transform.Result {
	if f.Primary == nil || h.optedOut(f) {
		return transform.Keep()
	}
	for _, t := range f.Secondary {
		if t.Suffix == h.cfg.Suffix {
			return transform.Keep()
		}
	}

	var (
		adapters   []ir.Adapter
		last       *StringAdapter
		seenString bool
		adapted    bool
	)
	for _, a := range f.Primary.Adapters {
		if !a.AcceptsInput() {
			adapters = append(adapters, a)
			continue
		}
		if IsStringType(a.InputType()) {
			if last != nil && strings.HasSuffix(a.Name(), h.cfg.EndSuffix) {
				adapters = append(adapters, &StringEndAdapter{Sibling: last, Param: a.Name(), Index: a.TargetIndex()})
				last = nil
				continue
			}
			last = &StringAdapter{Param: a.Name(), Index: a.TargetIndex()}
			adapters = append(adapters, last)
			seenString = true
			adapted = true
			continue
		}
		last = nil
		if seenString && a.DefaultValue() != nil {
			adapters = append(adapters, &ir.PassthroughAdapter{Param: a.Name(), Index: a.TargetIndex(), Type: a.InputType()})
			continue
		}
		adapters = append(adapters, a)
	}
	if !adapted {
		return transform.Keep()
	}

	t := &ir.Trampoline{
		Suffix:      h.cfg.Suffix,
		Adapters:    adapters,
		Description: fmt.Sprintf("%s%s is %s taking Go strings.", f.Name, h.cfg.Suffix, f.Name),
	}
	if err := validateWrapper(f, t); err != nil {
		return transform.Keep().WithDiagnostics(diag.NewError(diag.TrnInvalidStringWrapper, err.Error()))
	}
	return transform.Replace(f.WithSecondary(t))
}

// validateWrapper checks that every native parameter is fed exactly once.
func validateWrapper(f *ir.Function, t *ir.Trampoline) error {
	fed := make([]int, len(f.Parameters))
	for _, a := range t.Adapters {
		i := a.TargetIndex()
		if i < 0 || i >= len(fed) {
			return fmt.Errorf("%s: adapter %s targets parameter %d of %d", f.Name, a.Name(), i, len(fed))
		}
		fed[i]++
	}
	for i, n := range fed {
		if n != 1 {
			return fmt.Errorf("%s: parameter %d is fed %d times", f.Name, i, n)
		}
	}
	return nil
}

// StringAdapter encodes a Go string into a pinned, null-terminated buffer
// owned by the wrapper's runtime frame.
type StringAdapter struct {
	Param string
	Index int
}

func (a *StringAdapter) Name() string                    { return a.Param }
func (a *StringAdapter) TargetIndex() int                { return a.Index }
func (a *StringAdapter) AcceptsInput() bool              { return true }
func (a *StringAdapter) InputType() ir.TypeRef           { return ir.ExternalType{Name: "string"} }
func (a *StringAdapter) DefaultValue() *ir.ConstantValue { return nil }
func (a *StringAdapter) NeedsFrame() bool                { return true }

func (a *StringAdapter) buffer(r ir.TypeRenderer) string {
	return r.Ident(a.Param) + "Buf"
}

func (a *StringAdapter) WritePrologue(w ir.CodeWriter, r ir.TypeRenderer) {
	w.Linef("%s := %s.String(%s)", a.buffer(r), ir.FrameIdent, r.Ident(a.Param))
}

func (a *StringAdapter) Argument(r ir.TypeRenderer) string {
	return a.buffer(r) + ".Ptr()"
}

func (a *StringAdapter) WriteEpilogue(ir.CodeWriter, ir.TypeRenderer) {}

// StringEndAdapter feeds the end pointer of its sibling's buffer to the
// paired "_end" parameter. It takes no input of its own.
type StringEndAdapter struct {
	Sibling *StringAdapter
	Param   string
	Index   int
}

func (a *StringEndAdapter) Name() string                    { return a.Param }
func (a *StringEndAdapter) TargetIndex() int                { return a.Index }
func (a *StringEndAdapter) AcceptsInput() bool              { return false }
func (a *StringEndAdapter) InputType() ir.TypeRef           { return nil }
func (a *StringEndAdapter) DefaultValue() *ir.ConstantValue { return nil }
func (a *StringEndAdapter) NeedsFrame() bool                { return true }

func (a *StringEndAdapter) WritePrologue(ir.CodeWriter, ir.TypeRenderer) {}

func (a *StringEndAdapter) Argument(r ir.TypeRenderer) string {
	return a.Sibling.buffer(r) + ".End()"
}

func (a *StringEndAdapter) WriteEpilogue(ir.CodeWriter, ir.TypeRenderer) {}
