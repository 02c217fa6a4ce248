package ir

import (
	"fmt"
	"io"
	"strings"
)

// Dump renders the declaration tree in a stable text form. Identities are
// omitted so that dumps of independently built libraries compare equal.
func Dump(lib *Library) string {
	var sb strings.Builder
	WriteDump(&sb, lib)
	return sb.String()
}

// WriteDump writes the Dump form of lib to w.
func WriteDump(w io.Writer, lib *Library) {
	lib.Walk(func(d Decl, parents []Decl) bool {
		indent := strings.Repeat("  ", len(parents))
		fmt.Fprintf(w, "%s%s\n", indent, describeDecl(lib, d))
		for _, x := range d.Common().Diagnostics {
			fmt.Fprintf(w, "%s  ! %s %s %s\n", indent, x.Severity, x.Code.ID(), x.Message)
		}
		return true
	})
	for _, x := range lib.Diagnostics() {
		fmt.Fprintf(w, "! %s %s %s\n", x.Severity, x.Code.ID(), x.Message)
	}
}

func describeDecl(lib *Library, d Decl) string {
	b := d.Common()
	name := b.Name
	if b.Namespace != "" {
		name = b.Namespace + "." + name
	}
	var extra string
	switch x := d.(type) {
	case *Record:
		extra = fmt.Sprintf(" size=%d", x.Size)
		if x.IsUndefined {
			extra += " undefined"
		}
	case *Enum:
		extra = " : " + describeType(lib, x.UnderlyingType)
		if x.IsFlags {
			extra += " flags"
		}
	case *EnumConstant:
		extra = fmt.Sprintf(" = %d", x.Value)
	case *Function:
		extra = " -> " + describeType(lib, x.ReturnType)
		for _, t := range x.Trampolines() {
			extra += " [" + t.NameFor(x) + "]"
		}
	case *Parameter:
		extra = " " + describeType(lib, x.Type)
		if x.DefaultValue != nil {
			extra += " = " + x.DefaultValue.GoLiteral()
		}
	case *Field:
		extra = fmt.Sprintf(" %s @%d", describeType(lib, x.Type), x.Offset)
	case *Typedef:
		extra = " = " + describeType(lib, x.UnderlyingType)
	case *Constant:
		extra = " " + describeType(lib, x.Type) + " = " + x.Value.GoLiteral()
	case *Macro:
		extra = " " + x.Body
	case *Unsupported:
		extra = " " + x.FrontendKind
	}
	return fmt.Sprintf("%s %s%s", d.Kind(), name, extra)
}

func describeType(lib *Library, t TypeRef) string {
	switch x := t.(type) {
	case nil:
		return "?"
	case DeclRef:
		if d, ok := x.TryResolve(lib); ok {
			return d.Common().Name
		}
		return "dangling(" + x.Name + ")"
	case *PointerType:
		s := describeType(lib, x.Inner) + "*"
		if x.InnerIsConst {
			s = "const " + s
		}
		return s
	default:
		return TypeKey(t)
	}
}
