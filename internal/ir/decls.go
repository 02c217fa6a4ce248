package ir

// RecordKind distinguishes struct, class and union records.
type RecordKind uint8

const (
	RecordStruct RecordKind = iota
	RecordClass
	RecordUnion
)

// Record is a struct, class or union. Members own fields, methods and nested
// declarations in source order.
type Record struct {
	Base
	RecordKind RecordKind
	Size       int
	Alignment  int
	Members    []Decl
	// IsUndefined marks a record that was only forward declared.
	IsUndefined bool
	// IsAnonymous marks a record declared without a name inside another
	// record, such as an anonymous union.
	IsAnonymous bool
}

func NewRecord(name string) *Record {
	return &Record{Base: NewBase(name)}
}

func (*Record) Kind() DeclKind { return DeclRecord }

func (r *Record) Clone() *Record {
	c := *r
	return &c
}

func (r *Record) CloneDecl() Decl { return r.Clone() }

func (r *Record) Children() []Decl { return r.Members }

// Enum owns its constants. UnderlyingType is nil when the front end did not
// report one.
type Enum struct {
	Base
	UnderlyingType TypeRef
	Values         []*EnumConstant
	IsFlags        bool
}

func NewEnum(name string) *Enum {
	return &Enum{Base: NewBase(name)}
}

func (*Enum) Kind() DeclKind { return DeclEnum }

func (e *Enum) Clone() *Enum {
	c := *e
	return &c
}

func (e *Enum) CloneDecl() Decl { return e.Clone() }

func (e *Enum) Children() []Decl {
	out := make([]Decl, len(e.Values))
	for i, v := range e.Values {
		out[i] = v
	}
	return out
}

type EnumConstant struct {
	Base
	Value            int64
	HasExplicitValue bool
}

func NewEnumConstant(name string, value int64) *EnumConstant {
	return &EnumConstant{Base: NewBase(name), Value: value}
}

func (*EnumConstant) Kind() DeclKind { return DeclEnumConstant }

func (c *EnumConstant) Clone() *EnumConstant {
	x := *c
	return &x
}

func (c *EnumConstant) CloneDecl() Decl { return c.Clone() }

func (*EnumConstant) Children() []Decl { return nil }

// Field is a data member of a record.
type Field struct {
	Base
	Type   TypeRef
	Offset int
	// BitWidth is zero for ordinary fields.
	BitWidth  int
	BitOffset int
}

func NewField(name string, typ TypeRef, offset int) *Field {
	return &Field{Base: NewBase(name), Type: typ, Offset: offset}
}

func (*Field) Kind() DeclKind { return DeclField }

func (f *Field) Clone() *Field {
	c := *f
	return &c
}

func (f *Field) CloneDecl() Decl { return f.Clone() }

func (*Field) Children() []Decl { return nil }

type Typedef struct {
	Base
	UnderlyingType TypeRef
}

func NewTypedef(name string, underlying TypeRef) *Typedef {
	return &Typedef{Base: NewBase(name), UnderlyingType: underlying}
}

func (*Typedef) Kind() DeclKind { return DeclTypedef }

func (t *Typedef) Clone() *Typedef {
	c := *t
	return &c
}

func (t *Typedef) CloneDecl() Decl { return t.Clone() }

func (*Typedef) Children() []Decl { return nil }

// Unsupported passes through anything the front end produced that the IR
// does not model. FrontendKind is the front end's own classification, for
// example "FunctionTemplate" or "ClassTemplate".
type Unsupported struct {
	Base
	FrontendKind string
	Reason       string
}

func NewUnsupported(name, frontendKind, reason string) *Unsupported {
	return &Unsupported{Base: NewBase(name), FrontendKind: frontendKind, Reason: reason}
}

func (*Unsupported) Kind() DeclKind { return DeclUnsupported }

func (u *Unsupported) Clone() *Unsupported {
	c := *u
	return &c
}

func (u *Unsupported) CloneDecl() Decl { return u.Clone() }

func (*Unsupported) Children() []Decl { return nil }
