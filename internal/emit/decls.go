package emit

import (
	"strconv"
	"strings"

	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/passes"
)

// fileRenderer renders the declarations that share one output file.
type fileRenderer struct {
	*renderer
	w       codeWriter
	library string
}

func (f *fileRenderer) decl(d ir.Decl) {
	if d.Common().HasErrors() {
		return
	}
	prev := f.current
	f.current = d
	defer func() { f.current = prev }()

	switch x := d.(type) {
	case *ir.Record:
		if passes.IsContainer(x) {
			for _, m := range x.Members {
				f.decl(m)
			}
			return
		}
		f.record(x)
	case *ir.Enum:
		f.enum(x)
	case *ir.Typedef:
		f.typedef(x)
	case *ir.Constant:
		f.constant(x)
	case *ir.Function:
		f.function(x)
	case ir.CustomDecl:
		f.w.Blank()
		x.RenderDecl(&f.w, f.renderer)
	case *ir.Unsupported, *ir.Macro, *ir.Field, *ir.Parameter, *ir.EnumConstant:
	default:
		f.report(diag.SevWarning, diag.EmtUnknownType, "%s declarations are not emitted", d.Kind())
	}
}

func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

// bitGroup is the storage unit shared by adjacent bit-fields.
type bitGroup struct {
	storage string
	fields  []*ir.Field
}

func unsignedOfSize(size int) string {
	switch size {
	case 1:
		return "uint8"
	case 2:
		return "uint16"
	case 8:
		return "uint64"
	}
	return "uint32"
}

func (f *fileRenderer) record(x *ir.Record) {
	name := f.declName(x)
	f.w.Blank()
	switch {
	case x.IsUndefined:
		f.w.Linef("// %s is opaque and only used through pointers.", name)
		f.w.Linef("type %s struct{}", name)
	case x.RecordKind == ir.RecordUnion:
		f.union(name, x)
	default:
		f.structure(name, x)
	}
	for _, m := range x.Members {
		if _, isField := m.(*ir.Field); !isField {
			f.decl(m)
		}
	}
}

func (f *fileRenderer) union(name string, x *ir.Record) {
	var members []string
	for _, m := range x.Members {
		if fld, ok := m.(*ir.Field); ok {
			members = append(members, fld.Name)
		}
	}
	if len(members) > 0 {
		f.w.Linef("// %s overlays %s.", name, strings.Join(members, ", "))
	}
	f.w.Linef("type %s struct {", name)
	f.w.Indent()
	if x.Alignment > 1 {
		f.w.Linef("_ [0]%s", unsignedOfSize(x.Alignment))
	}
	f.w.Linef("Raw [%d]byte", max(x.Size, 0))
	f.w.Dedent()
	f.w.Linef("}")
}

func (f *fileRenderer) structure(name string, x *ir.Record) {
	var groups []*bitGroup
	var overlays []*ir.Field
	byOffset := make(map[int]*bitGroup)

	f.w.Linef("type %s struct {", name)
	f.w.Indent()
	cur, tracking := 0, x.Size > 0
	place := func(offset, size, align int, ok bool) {
		if !tracking {
			return
		}
		if !ok {
			tracking = false
			return
		}
		switch at := alignUp(cur, align); {
		case offset > at:
			f.w.Linef("_ [%d]byte", offset-cur)
		case offset < at:
			f.report(diag.SevWarning, diag.EmtUnknownType, "%s: member at offset %d overlaps the previous one", name, offset)
			tracking = false
			return
		}
		cur = offset + size
	}
	for _, m := range x.Members {
		fld, ok := m.(*ir.Field)
		if !ok || fld.HasErrors() {
			continue
		}
		if passes.IsOverlay(fld) {
			overlays = append(overlays, fld)
			continue
		}
		if fld.BitWidth > 0 {
			if g, seen := byOffset[fld.Offset]; seen {
				g.fields = append(g.fields, fld)
				continue
			}
			size, _, ok := f.layout(fld.Type)
			if !ok {
				size = 4
			}
			g := &bitGroup{storage: unsignedOfSize(size), fields: []*ir.Field{fld}}
			byOffset[fld.Offset] = g
			groups = append(groups, g)
			place(fld.Offset, size, size, true)
			f.w.Linef("bits%d %s", fld.Offset, g.storage)
			continue
		}
		size, align, ok := f.layout(fld.Type)
		place(fld.Offset, size, align, ok)
		f.w.Linef("%s %s", exported(fld.Name), f.RenderType(fld.Type))
	}
	if tracking && x.Size > cur {
		f.w.Linef("_ [%d]byte", x.Size-cur)
	}
	f.w.Dedent()
	f.w.Linef("}")

	for _, g := range groups {
		f.bitAccessors(name, g)
	}
	for _, fld := range overlays {
		typ := f.RenderType(fld.Type)
		f.w.Blank()
		f.w.Linef("func (self *%s) %s() *%s {", name, exported(fld.Name), typ)
		f.w.Indent()
		f.w.Linef("return (*%s)(unsafe.Add(unsafe.Pointer(self), %d))", typ, fld.Offset)
		f.w.Dedent()
		f.w.Linef("}")
	}
}

func (f *fileRenderer) bitAccessors(recv string, g *bitGroup) {
	for _, fld := range g.fields {
		storage := "bits" + strconv.Itoa(fld.Offset)
		mask := "0x" + strconv.FormatUint(1<<uint(fld.BitWidth)-1, 16)
		getter := exported(fld.Name)
		f.w.Blank()
		f.w.Linef("func (self *%s) %s() %s {", recv, getter, g.storage)
		f.w.Indent()
		f.w.Linef("return self.%s >> %d & %s", storage, fld.BitOffset, mask)
		f.w.Dedent()
		f.w.Linef("}")
		f.w.Blank()
		f.w.Linef("func (self *%s) Set%s(v %s) {", recv, getter, g.storage)
		f.w.Indent()
		f.w.Linef("self.%s = self.%s&^(%s<<%d) | (v&%s)<<%d", storage, storage, mask, fld.BitOffset, mask, fld.BitOffset)
		f.w.Dedent()
		f.w.Linef("}")
	}
}

func isUnsigned(t ir.TypeRef) (bool, int) {
	b, ok := t.(ir.BuiltinType)
	if !ok {
		return false, 0
	}
	switch b.Kind {
	case ir.BuiltinByte, ir.BuiltinUint16, ir.BuiltinUint32, ir.BuiltinUint64, ir.BuiltinChar16, ir.BuiltinUintptr:
		return true, b.Kind.Size()
	}
	return false, 0
}

func (f *fileRenderer) enum(x *ir.Enum) {
	name := f.declName(x)
	under := "int32"
	if x.UnderlyingType != nil {
		if s := f.RenderType(x.UnderlyingType); s != "" {
			under = s
		}
	}
	unsigned, size := isUnsigned(x.UnderlyingType)

	f.w.Blank()
	if x.IsFlags {
		f.w.Linef("// %s is a set of bit flags.", name)
	}
	f.w.Linef("type %s %s", name, under)
	if len(x.Values) == 0 {
		return
	}
	f.w.Blank()
	f.w.Linef("const (")
	f.w.Indent()
	for _, v := range x.Values {
		if v.HasErrors() {
			continue
		}
		lit := strconv.FormatInt(v.Value, 10)
		if unsigned && v.Value < 0 {
			u := uint64(v.Value)
			if size < 8 {
				u &= 1<<(uint(size)*8) - 1
			}
			lit = strconv.FormatUint(u, 10)
		}
		f.w.Linef("%s %s = %s", enumConstName(name, v.Name), name, lit)
	}
	f.w.Dedent()
	f.w.Linef(")")
}

func enumConstName(enum, name string) string {
	n := ident(name)
	if strings.HasPrefix(n, enum) {
		return n
	}
	return enum + strings.TrimSuffix(n, "_")
}

func (f *fileRenderer) typedef(x *ir.Typedef) {
	name := f.declName(x)
	target := f.RenderType(x.UnderlyingType)
	if target == "" || target == name {
		return
	}
	f.w.Blank()
	f.w.Linef("type %s = %s", name, target)
}

var basicTypes = map[string]ir.ConstKind{
	"bool":    ir.ConstBool,
	"string":  ir.ConstString,
	"float32": ir.ConstFloat,
	"float64": ir.ConstFloat,
}

func constMatches(typ string, v ir.ConstantValue) bool {
	if want, ok := basicTypes[typ]; ok {
		return want == v.Kind
	}
	switch typ {
	case "int8", "int16", "int32", "int64", "int", "rune":
		return v.Kind == ir.ConstInt
	case "byte", "uint8", "uint16", "uint32", "uint64", "uintptr":
		return v.Kind == ir.ConstUint || v.Kind == ir.ConstInt && v.Int >= 0
	}
	return false
}

func (f *fileRenderer) constant(x *ir.Constant) {
	if !x.Value.IsValid() || x.Value.Kind == ir.ConstNull {
		return
	}
	name := f.declName(x)
	f.w.Blank()
	if typ := f.RenderType(x.Type); constMatches(typ, x.Value) {
		f.w.Linef("const %s %s = %s", name, typ, x.Value.GoLiteral())
		return
	}
	f.w.Linef("const %s = %s", name, x.Value.GoLiteral())
}
