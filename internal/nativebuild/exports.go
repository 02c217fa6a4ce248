// Package nativebuild produces the native helper library: a C++ source that
// gives inline functions an exported symbol, compiled by an external
// command.
package nativebuild

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/transform"
	imrt "imbind/runtime"
)

// SymbolPrefix starts every exported helper symbol.
const SymbolPrefix = "imbind_"

// ExportHelper is a generated translation unit.
type ExportHelper struct {
	Includes []string
	Wrappers []Wrapper
}

// Wrapper is one exported forwarding function.
type Wrapper struct {
	Symbol string
	Source string
}

// Empty reports whether there is nothing to compile.
func (h *ExportHelper) Empty() bool {
	return h == nil || len(h.Wrappers) == 0
}

// Source renders the complete C++ file.
func (h *ExportHelper) Source() string {
	var sb strings.Builder
	sb.WriteString("// Code generated by imbind. DO NOT EDIT.\n\n")
	fmt.Fprintf(&sb, "#include %q\n", imrt.ExportHeader)
	for _, inc := range h.Includes {
		fmt.Fprintf(&sb, "#include %q\n", inc)
	}
	for _, w := range h.Wrappers {
		sb.WriteString("\n")
		sb.WriteString(w.Source)
	}
	return sb.String()
}

// InlineExports gives every inline free function an exported forwarding
// wrapper and points its SymbolName at it. Inline instance methods cannot
// be forwarded this way and get a warning instead.
type InlineExports struct {
	helper *ExportHelper
}

func (*InlineExports) Name() string { return "inline-exports" }

func (p *InlineExports) Begin() transform.Hooks {
	p.helper = &ExportHelper{}
	return &exportHooks{helper: p.helper, used: make(map[string]bool)}
}

// Helper returns the source produced by the last run.
func (p *InlineExports) Helper() *ExportHelper {
	return p.helper
}

// GenerateExports runs InlineExports over lib.
func GenerateExports(ctx context.Context, lib *ir.Library) (*ir.Library, *ExportHelper) {
	p := &InlineExports{}
	out := transform.Apply(ctx, lib, p)
	return out, p.Helper()
}

type exportHooks struct {
	transform.Base
	helper *ExportHelper
	used   map[string]bool
}

func (h *exportHooks) PreTransformLibrary(ctx *transform.Context) {
	for _, f := range ctx.Library.Files() {
		if f.InScope {
			h.helper.Includes = append(h.helper.Includes, path.Base(f.Path))
		}
	}
}

func (h *exportHooks) TransformFunction(ctx *transform.Context, f *ir.Function) transform.Result {
	if !f.IsInline || strings.HasPrefix(f.SymbolName, SymbolPrefix) || f.HasErrors() {
		return transform.Keep()
	}
	if f.IsInstanceMethod || f.Special != ir.SpecialNone {
		return transform.Keep().WithDiagnostics(diag.Newf(diag.SevWarning, diag.NatInfo,
			"inline member '%s' has no exported symbol", f.Name))
	}

	orig := f
	if o, ok := ctx.Library.Original(f); ok {
		if of, ok := o.(*ir.Function); ok {
			orig = of
		}
	}
	symbol := h.symbolFor(ctx, f)
	h.helper.Wrappers = append(h.helper.Wrappers, Wrapper{
		Symbol: symbol,
		Source: h.render(ctx.Library, orig, symbol),
	})
	c := f.Clone()
	c.SymbolName = symbol
	return transform.Replace(c)
}

func (h *exportHooks) symbolFor(ctx *transform.Context, f *ir.Function) string {
	container := f.Namespace
	if parent := ctx.Parent(); parent != nil {
		container = parent.Common().Name
	}
	base := SymbolPrefix
	if container != "" {
		base += sanitize(container) + "_"
	}
	base += sanitize(f.Name)
	symbol := base
	for i := 2; h.used[symbol]; i++ {
		symbol = base + strconv.Itoa(i)
	}
	h.used[symbol] = true
	return symbol
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, s)
}

// render writes the wrapper for the front-end version of a function.
func (h *exportHooks) render(lib *ir.Library, f *ir.Function, symbol string) string {
	var params, args []string
	for i, p := range f.Parameters {
		name := p.Name
		if name == "" {
			name = "a" + strconv.Itoa(i)
		}
		params = append(params, declarator(cppType(lib, p.Type), name))
		args = append(args, name)
	}
	ret := cppType(lib, f.ReturnType)
	callee := f.Name
	if f.Namespace != "" {
		callee = strings.ReplaceAll(f.Namespace, ".", "::") + "::" + f.Name
	}
	call := fmt.Sprintf("%s(%s)", callee, strings.Join(args, ", "))
	body := "return " + call + ";"
	if ret == "void" {
		body = call + ";"
	}
	return fmt.Sprintf("extern \"C\" IMBIND_EXPORT %s(%s)\n{\n    %s\n}\n",
		declarator(ret, symbol), strings.Join(params, ", "), body)
}

// declarator places name inside a type spelling, which matters for
// function pointer types.
func declarator(typ, name string) string {
	if i := strings.Index(typ, "(*)"); i >= 0 {
		return typ[:i] + "(*" + name + ")" + typ[i+3:]
	}
	if strings.HasSuffix(typ, "*") || strings.HasSuffix(typ, "&") {
		return typ + name
	}
	return typ + " " + name
}

// cppType spells t in C++. Raw types use the front end's spelling; types
// synthesized by passes are rebuilt from the IR.
func cppType(lib *ir.Library, t ir.TypeRef) string {
	switch x := t.(type) {
	case nil, ir.VoidType:
		return "void"
	case ir.RawType:
		if o := lib.Oracle(); o != nil {
			if info, ok := o.ResolveType(x.Handle); ok && info.Spelling != "" {
				return info.Spelling
			}
		}
		return "void"
	case ir.BuiltinType:
		return cppBuiltin(x.Kind)
	case ir.DeclRef:
		if d, ok := x.TryResolve(lib); ok {
			if orig, ok := lib.Original(d); ok {
				return orig.Common().Name
			}
			return d.Common().Name
		}
		return x.Name
	case *ir.PointerType:
		inner := cppType(lib, x.Inner)
		if x.InnerIsConst {
			inner = "const " + inner
		}
		return inner + "*"
	case *ir.FunctionPointerType:
		var ps []string
		for _, p := range x.Params {
			ps = append(ps, cppType(lib, p))
		}
		return fmt.Sprintf("%s (*)(%s)", cppType(lib, x.Return), strings.Join(ps, ", "))
	}
	return "void"
}

func cppBuiltin(k ir.BuiltinKind) string {
	switch k {
	case ir.BuiltinBool:
		return "bool"
	case ir.BuiltinChar:
		return "char"
	case ir.BuiltinByte:
		return "unsigned char"
	case ir.BuiltinSByte:
		return "signed char"
	case ir.BuiltinInt16:
		return "short"
	case ir.BuiltinUint16:
		return "unsigned short"
	case ir.BuiltinInt32:
		return "int"
	case ir.BuiltinUint32:
		return "unsigned int"
	case ir.BuiltinInt64:
		return "long long"
	case ir.BuiltinUint64:
		return "unsigned long long"
	case ir.BuiltinFloat32:
		return "float"
	case ir.BuiltinFloat64:
		return "double"
	case ir.BuiltinChar16:
		return "char16_t"
	case ir.BuiltinChar32:
		return "char32_t"
	case ir.BuiltinIntptr:
		return "intptr_t"
	case ir.BuiltinUintptr:
		return "uintptr_t"
	}
	return "void"
}
