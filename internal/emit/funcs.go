package emit

import (
	"fmt"
	"strings"

	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/passes"
)

func (f *fileRenderer) receiver(fn *ir.Function) (string, bool) {
	if !fn.IsInstanceMethod && fn.Special != ir.SpecialConstructor && fn.Special != ir.SpecialDestructor {
		return "", false
	}
	rec, ok := f.lib.ParentOf(fn.ID()).(*ir.Record)
	if !ok || passes.IsContainer(rec) {
		return "", false
	}
	return f.declName(rec), true
}

func (f *fileRenderer) function(fn *ir.Function) {
	switch {
	case fn.Special == ir.SpecialOperator || fn.Special == ir.SpecialConversion:
		f.report(diag.SevNote, diag.EmtInfo, "operator '%s' has no Go spelling and was not emitted", fn.Name)
		return
	case fn.IsVirtual:
		f.report(diag.SevNote, diag.EmtInfo, "virtual function '%s' was not emitted", fn.Name)
		return
	}
	tramps := fn.Trampolines()
	if len(tramps) == 0 {
		tramps = []*ir.Trampoline{ir.PrimaryTrampoline(fn)}
	}

	symVar := "sym" + f.declName(fn)
	name := fn.SymbolName
	if name == "" {
		name = fn.MangledName
	}
	if name == "" {
		name = fn.Name
	}
	library := fn.LibraryName
	if library == "" {
		library = f.library
	}
	f.w.Blank()
	f.w.Linef("var %s = %s.Symbol{Library: %q, Name: %q}", symVar, passes.RuntimePackage, library, name)
	for _, t := range tramps {
		f.trampoline(fn, t, symVar)
	}
}

func (f *fileRenderer) wrapperName(fn *ir.Function, t *ir.Trampoline) string {
	if _, method := f.receiver(fn); method {
		base := exported(fn.Name)
		switch fn.Special {
		case ir.SpecialConstructor:
			base = "Construct"
		case ir.SpecialDestructor:
			base = "Destruct"
		}
		return base + t.Suffix
	}
	return f.declName(fn) + t.Suffix
}

// arguments orders the adapters' native arguments by target parameter.
func (f *fileRenderer) arguments(fn *ir.Function, t *ir.Trampoline) ([]string, error) {
	args := make([]string, len(fn.Parameters))
	for _, a := range t.Adapters {
		i := a.TargetIndex()
		if i < 0 || i >= len(args) {
			return nil, fmt.Errorf("adapter %s targets parameter %d of %d", a.Name(), i, len(args))
		}
		if args[i] != "" {
			return nil, fmt.Errorf("parameter %d is fed twice", i)
		}
		arg := a.Argument(f)
		if _, plain := a.(*ir.PassthroughAdapter); plain && fn.Parameters[i].ImplicitlyPassedByReference {
			arg = "&" + arg
		}
		args[i] = arg
	}
	for i, a := range args {
		if a == "" {
			return nil, fmt.Errorf("parameter %d is not fed", i)
		}
	}
	return args, nil
}

func needsFrame(t *ir.Trampoline) bool {
	for _, a := range t.Adapters {
		if fa, ok := a.(ir.FrameAdapter); ok && fa.NeedsFrame() {
			return true
		}
	}
	return false
}

func (f *fileRenderer) trampoline(fn *ir.Function, t *ir.Trampoline, symVar string) {
	args, err := f.arguments(fn, t)
	if err != nil {
		f.report(diag.SevError, diag.EmtUnresolvedWrapper, "%s: %v", t.NameFor(fn), err)
		return
	}
	recv, method := f.receiver(fn)
	if method {
		args = append([]string{"self"}, args...)
	}

	var params, defaults []string
	for _, a := range t.Inputs() {
		typ := f.RenderType(a.InputType())
		if typ == "" {
			typ = "unsafe.Pointer"
		}
		params = append(params, ident(a.Name())+" "+typ)
		if dv := a.DefaultValue(); dv != nil && dv.IsValid() {
			defaults = append(defaults, a.Name()+" = "+dv.GoLiteral())
		}
	}
	ret := f.RenderType(fn.ReturnType)

	f.w.Blank()
	name := f.wrapperName(fn, t)
	if t.Description != "" {
		f.w.Comment(t.Description)
	}
	if len(defaults) > 0 {
		if t.Description != "" {
			f.w.Linef("//")
		}
		f.w.Linef("// Native defaults: %s.", strings.Join(defaults, ", "))
	}
	head := "func "
	if method {
		head += "(self *" + recv + ") "
	}
	head += name + "(" + strings.Join(params, ", ") + ")"
	if ret != "" {
		head += " " + ret
	}
	f.w.Linef("%s {", head)
	f.w.Indent()
	if needsFrame(t) {
		f.w.Linef("%s := %s.NewFrame()", ir.FrameIdent, passes.RuntimePackage)
		f.w.Linef("defer %s.Release()", ir.FrameIdent)
	}
	for _, a := range t.Adapters {
		a.WritePrologue(&f.w, f)
	}

	epilogue := codeWriter{indent: f.w.indent}
	for _, a := range t.Adapters {
		a.WriteEpilogue(&epilogue, f)
	}
	callArgs := strings.Join(append([]string{symVar}, args...), ", ")
	switch {
	case ret == "":
		f.w.Linef("%s.CallVoid(%s)", passes.RuntimePackage, callArgs)
		f.w.sb.WriteString(epilogue.String())
	case epilogue.String() == "":
		f.w.Linef("return %s.Call[%s](%s)", passes.RuntimePackage, ret, callArgs)
	default:
		f.w.Linef("ret := %s.Call[%s](%s)", passes.RuntimePackage, ret, callArgs)
		f.w.sb.WriteString(epilogue.String())
		f.w.Linef("return ret")
	}
	f.w.Dedent()
	f.w.Linef("}")
}
