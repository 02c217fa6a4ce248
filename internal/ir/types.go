package ir

import (
	"fmt"
	"strings"

	"imbind/internal/diag"
)

// TypeRef is a reference to a type. Leaf variants are comparable values;
// composite variants are pointers so rewrites can be detected by identity.
type TypeRef interface {
	typeRef()
}

// TypeVisitor rewrites one type reference. Returning the argument unchanged
// means "no change".
type TypeVisitor func(TypeRef) (TypeRef, []diag.Diagnostic)

type VoidType struct{}

func (VoidType) typeRef() {}

type BuiltinType struct {
	Kind BuiltinKind
}

func (BuiltinType) typeRef() {}

// RawType is an untranslated front-end type. It is resolved on demand through
// the library's Oracle.
type RawType struct {
	Handle RawHandle
}

func (RawType) typeRef() {}

// DeclRef points at another declaration by identity. Name is the target name
// at the time the reference was made and is used only for diagnostics.
type DeclRef struct {
	ID   DeclID
	Name string
}

func (DeclRef) typeRef() {}

// TryResolve finds the live target in lib.
func (r DeclRef) TryResolve(lib *Library) (Decl, bool) {
	if lib == nil || r.ID == NoDeclID {
		return nil, false
	}
	return lib.Resolve(r.ID)
}

// RefTo builds a reference to d.
func RefTo(d Decl) DeclRef {
	b := d.Common()
	return DeclRef{ID: b.ID(), Name: b.Name}
}

// ExternalType names a type that is defined outside of the generated code.
type ExternalType struct {
	Namespace string
	Name      string
}

func (ExternalType) typeRef() {}

func (t ExternalType) Qualified() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

type PointerType struct {
	Inner        TypeRef
	InnerIsConst bool
}

func (*PointerType) typeRef() {}

// PointerTo is shorthand for a non-const pointer.
func PointerTo(inner TypeRef) *PointerType {
	return &PointerType{Inner: inner}
}

type FunctionPointerType struct {
	Return   TypeRef
	Params   []TypeRef
	CallConv CallConv
}

func (*FunctionPointerType) typeRef() {}

// CustomType is the extension point for pass-defined type references.
// Implementations embed CustomTypeBase and are used through pointers.
type CustomType interface {
	TypeRef
	// TransformChildren applies visit to every nested type reference and
	// returns the receiver itself when nothing changed.
	TransformChildren(visit TypeVisitor) (TypeRef, []diag.Diagnostic)
	// RenderType produces the target-language spelling.
	RenderType(r TypeRenderer) string
	// Key is a stable structural key used for equality and map lookups.
	Key() string
}

// CustomTypeBase marks a struct as a TypeRef.
type CustomTypeBase struct{}

func (CustomTypeBase) typeRef() {}

// TransformTypeChildren applies visit to the direct children of t and
// rebuilds t only when a child changed.
func TransformTypeChildren(t TypeRef, visit TypeVisitor) (TypeRef, []diag.Diagnostic) {
	switch x := t.(type) {
	case *PointerType:
		inner, diags := visit(x.Inner)
		if SameType(inner, x.Inner) {
			return x, diags
		}
		return &PointerType{Inner: inner, InnerIsConst: x.InnerIsConst}, diags
	case *FunctionPointerType:
		var diags []diag.Diagnostic
		ret, d := visit(x.Return)
		diags = append(diags, d...)
		changed := !SameType(ret, x.Return)
		params := make([]TypeRef, len(x.Params))
		for i, p := range x.Params {
			np, d := visit(p)
			diags = append(diags, d...)
			if !SameType(np, p) {
				changed = true
			}
			params[i] = np
		}
		if !changed {
			return x, diags
		}
		return &FunctionPointerType{Return: ret, Params: params, CallConv: x.CallConv}, diags
	case CustomType:
		return x.TransformChildren(visit)
	default:
		return t, nil
	}
}

// SameType reports reference identity: equal leaf values or the same
// composite pointer.
func SameType(a, b TypeRef) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b
}

// Equal reports structural equality.
func Equal(a, b TypeRef) bool {
	return TypeKey(a) == TypeKey(b)
}

// TypeKey renders a structural key suitable for map lookups.
func TypeKey(t TypeRef) string {
	var sb strings.Builder
	writeKey(&sb, t)
	return sb.String()
}

func writeKey(sb *strings.Builder, t TypeRef) {
	switch x := t.(type) {
	case nil:
		sb.WriteString("<nil>")
	case VoidType:
		sb.WriteString("void")
	case BuiltinType:
		sb.WriteString(x.Kind.String())
	case RawType:
		fmt.Fprintf(sb, "raw(%d)", x.Handle)
	case DeclRef:
		fmt.Fprintf(sb, "ref(%d)", x.ID)
	case ExternalType:
		sb.WriteString("ext(" + x.Qualified() + ")")
	case *PointerType:
		if x.InnerIsConst {
			sb.WriteString("const ")
		}
		writeKey(sb, x.Inner)
		sb.WriteByte('*')
	case *FunctionPointerType:
		fmt.Fprintf(sb, "fn[%s](", x.CallConv)
		for i, p := range x.Params {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeKey(sb, p)
		}
		sb.WriteString(")")
		writeKey(sb, x.Return)
	case CustomType:
		sb.WriteString(x.Key())
	default:
		fmt.Fprintf(sb, "%T", t)
	}
}

// Describe renders t for diagnostics and dumps.
func Describe(t TypeRef) string {
	switch x := t.(type) {
	case DeclRef:
		if x.Name != "" {
			return x.Name
		}
		return x.ID.String()
	case *PointerType:
		s := Describe(x.Inner) + "*"
		if x.InnerIsConst {
			return "const " + s
		}
		return s
	default:
		return TypeKey(t)
	}
}
