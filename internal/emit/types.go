package emit

import (
	"go/token"
	"strings"
	"unicode"

	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/passes"
)

// reserved names that generated code uses for its own variables.
var reserved = map[string]bool{
	ir.FrameIdent:         true,
	passes.RuntimePackage: true,
	"unsafe":              true,
	"self":                true,
	"ret":                 true,
}

// renderer is the ir.TypeRenderer for Go. It is used by one goroutine and
// reports the problems it meets to out.
type renderer struct {
	lib     *ir.Library
	current ir.Decl
	out     diag.Reporter
}

func newRenderer(lib *ir.Library, out diag.Reporter) *renderer {
	return &renderer{lib: lib, out: out}
}

func (r *renderer) Library() *ir.Library { return r.lib }

func (r *renderer) report(sev diag.Severity, code diag.Code, format string, args ...any) {
	d := diag.Newf(sev, code, format, args...)
	if r.current != nil {
		d.Location = r.current.Common().Location()
	}
	r.out.Report(d)
}

// Ident turns name into a legal, non-keyword Go identifier.
func (r *renderer) Ident(name string) string {
	return ident(name)
}

func ident(name string) string {
	s := sanitize(name)
	if token.IsKeyword(s) || reserved[s] {
		s += "_"
	}
	return s
}

func sanitize(name string) string {
	if name == "" {
		return "_"
	}
	var sb strings.Builder
	for i, c := range name {
		switch {
		case c == '_' || unicode.IsLetter(c):
			sb.WriteRune(c)
		case unicode.IsDigit(c):
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(c)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// exported is the sanitized name with an upper-case first letter.
func exported(name string) string {
	s := sanitize(name)
	if s[0] == '_' {
		return "X" + s
	}
	rs := []rune(s)
	rs[0] = unicode.ToUpper(rs[0])
	return string(rs)
}

// declName is the package-level Go name of d. Declarations nested in a
// record are prefixed with the record's name; members of synthesized
// containers are hoisted as they are.
func (r *renderer) declName(d ir.Decl) string {
	name := exported(d.Common().Name)
	parent := r.lib.ParentOf(d.Common().ID())
	if rec, ok := parent.(*ir.Record); ok && !passes.IsContainer(rec) {
		return r.declName(rec) + "_" + name
	}
	return name
}

func (r *renderer) RenderType(t ir.TypeRef) string {
	switch x := t.(type) {
	case nil, ir.VoidType:
		return ""
	case ir.BuiltinType:
		return goBuiltin(x.Kind)
	case ir.DeclRef:
		if d, ok := x.TryResolve(r.lib); ok {
			return r.declName(d)
		}
		r.report(diag.SevError, diag.EmtUnknownType, "reference to '%s' does not resolve", x.Name)
		return "uintptr"
	case ir.ExternalType:
		return x.Qualified()
	case *ir.PointerType:
		if _, void := x.Inner.(ir.VoidType); void || x.Inner == nil {
			return "unsafe.Pointer"
		}
		return "*" + r.RenderType(x.Inner)
	case *ir.FunctionPointerType:
		return "uintptr"
	case ir.RawType:
		r.report(diag.SevError, diag.EmtUnknownType, "untranslated type %s", ir.Describe(x))
		return "uintptr"
	case ir.CustomType:
		return x.RenderType(r)
	}
	r.report(diag.SevError, diag.EmtUnknownType, "no Go spelling for %T", t)
	return "uintptr"
}

func goBuiltin(k ir.BuiltinKind) string {
	switch k {
	case ir.BuiltinBool:
		return "bool"
	case ir.BuiltinChar, ir.BuiltinByte:
		return "byte"
	case ir.BuiltinSByte:
		return "int8"
	case ir.BuiltinInt16:
		return "int16"
	case ir.BuiltinUint16, ir.BuiltinChar16:
		return "uint16"
	case ir.BuiltinInt32:
		return "int32"
	case ir.BuiltinUint32:
		return "uint32"
	case ir.BuiltinInt64:
		return "int64"
	case ir.BuiltinUint64:
		return "uint64"
	case ir.BuiltinFloat32:
		return "float32"
	case ir.BuiltinFloat64:
		return "float64"
	case ir.BuiltinChar32:
		return "rune"
	case ir.BuiltinIntptr:
		return "int"
	case ir.BuiltinUintptr:
		return "uintptr"
	}
	return "uintptr"
}

var runtimeSizes = map[string][2]int{
	"Vec2": {8, 4},
	"Vec3": {12, 4},
	"Vec4": {16, 4},
}

// layout returns the size and alignment of t in bytes on 64-bit targets.
func (r *renderer) layout(t ir.TypeRef) (size, align int, ok bool) {
	switch x := t.(type) {
	case ir.BuiltinType:
		s := x.Kind.Size()
		return s, s, s > 0
	case *ir.PointerType, *ir.FunctionPointerType:
		return 8, 8, true
	case ir.ExternalType:
		if x.Namespace == passes.RuntimePackage {
			if l, found := runtimeSizes[x.Name]; found {
				return l[0], l[1], true
			}
		}
	case ir.DeclRef:
		d, found := x.TryResolve(r.lib)
		if !found {
			return 0, 0, false
		}
		switch d := d.(type) {
		case *ir.Record:
			if d.IsUndefined || d.Size <= 0 {
				return 0, 0, false
			}
			align := d.Alignment
			if align <= 0 {
				align = 1
			}
			return d.Size, align, true
		case *ir.Enum:
			if d.UnderlyingType == nil {
				return 4, 4, true
			}
			return r.layout(d.UnderlyingType)
		case *ir.Typedef:
			return r.layout(d.UnderlyingType)
		case *passes.ExternalTypeDecl:
			size, align, ok := r.layout(d.Target)
			if !ok {
				return d.Size, 1, d.Size > 0
			}
			return size, align, true
		}
	case *passes.FixedArray:
		s, a, ok := r.layout(x.Element)
		return s * x.Length, a, ok
	case *passes.GenericVector:
		return 16, 8, true
	}
	return 0, 0, false
}
