package ir

// SpecialFunction classifies constructors, destructors and operators.
type SpecialFunction uint8

const (
	SpecialNone SpecialFunction = iota
	SpecialConstructor
	SpecialDestructor
	SpecialOperator
	SpecialConversion
)

// Function is a free function or a method. Parameters are owned children.
type Function struct {
	Base
	ReturnType       TypeRef
	Parameters       []*Parameter
	Special          SpecialFunction
	IsInstanceMethod bool
	IsVirtual        bool
	IsConst          bool
	IsInline         bool
	CallConv         CallConv
	// MangledName is the native symbol as reported by the front end.
	MangledName string
	// SymbolName and LibraryName are filled in by the linker.
	SymbolName  string
	LibraryName string
	// Primary is the default call shape; nil until trampolines are created.
	Primary   *Trampoline
	Secondary []*Trampoline
}

func NewFunction(name string, ret TypeRef, params ...*Parameter) *Function {
	return &Function{Base: NewBase(name), ReturnType: ret, Parameters: params}
}

func (*Function) Kind() DeclKind { return DeclFunction }

func (f *Function) Clone() *Function {
	c := *f
	return &c
}

func (f *Function) CloneDecl() Decl { return f.Clone() }

func (f *Function) Children() []Decl {
	out := make([]Decl, len(f.Parameters))
	for i, p := range f.Parameters {
		out[i] = p
	}
	return out
}

// Trampolines lists the primary call shape followed by secondary ones.
func (f *Function) Trampolines() []*Trampoline {
	if f.Primary == nil {
		return f.Secondary
	}
	return append([]*Trampoline{f.Primary}, f.Secondary...)
}

// WithSecondary returns a clone of f with t appended to its secondary call
// shapes.
func (f *Function) WithSecondary(t *Trampoline) *Function {
	c := f.Clone()
	c.Secondary = append(append([]*Trampoline(nil), f.Secondary...), t)
	return c
}

type Parameter struct {
	Base
	Type         TypeRef
	DefaultValue *ConstantValue
	// ImplicitlyPassedByReference marks by-value records the ABI passes
	// through a hidden pointer.
	ImplicitlyPassedByReference bool
}

func NewParameter(name string, typ TypeRef) *Parameter {
	return &Parameter{Base: NewBase(name), Type: typ}
}

func (*Parameter) Kind() DeclKind { return DeclParameter }

func (p *Parameter) Clone() *Parameter {
	c := *p
	return &c
}

func (p *Parameter) CloneDecl() Decl { return p.Clone() }

func (*Parameter) Children() []Decl { return nil }

// Trampoline is one call shape of a function: a list of adapters mapping
// the caller-visible parameters onto the native parameters.
type Trampoline struct {
	// Suffix is appended to the function name to form the wrapper name.
	// The primary trampoline has none.
	Suffix    string
	IsPrimary bool
	Adapters  []Adapter
	// Description is rendered as the wrapper's doc comment.
	Description string
}

// NameFor returns the emitted name of t on f.
func (t *Trampoline) NameFor(f *Function) string {
	return f.Name + t.Suffix
}

// Inputs returns the adapters that appear in the caller-visible signature.
func (t *Trampoline) Inputs() []Adapter {
	var out []Adapter
	for _, a := range t.Adapters {
		if a.AcceptsInput() {
			out = append(out, a)
		}
	}
	return out
}

// Adapter converts one caller-visible argument into the value passed to the
// native parameter at TargetIndex.
type Adapter interface {
	Name() string
	TargetIndex() int
	AcceptsInput() bool
	// InputType is the caller-visible type; meaningful only when
	// AcceptsInput is true.
	InputType() TypeRef
	DefaultValue() *ConstantValue
	WritePrologue(w CodeWriter, r TypeRenderer)
	Argument(r TypeRenderer) string
	WriteEpilogue(w CodeWriter, r TypeRenderer)
}

// FrameAdapter is implemented by adapters that need a runtime frame around
// the native call.
type FrameAdapter interface {
	Adapter
	NeedsFrame() bool
}

// PassthroughAdapter forwards an argument unchanged.
type PassthroughAdapter struct {
	Param   string
	Index   int
	Type    TypeRef
	Default *ConstantValue
}

// Passthrough builds an adapter for parameter i of f.
func Passthrough(i int, p *Parameter) *PassthroughAdapter {
	return &PassthroughAdapter{Param: p.Name, Index: i, Type: p.Type, Default: p.DefaultValue}
}

func (a *PassthroughAdapter) Name() string                 { return a.Param }
func (a *PassthroughAdapter) TargetIndex() int             { return a.Index }
func (a *PassthroughAdapter) AcceptsInput() bool           { return true }
func (a *PassthroughAdapter) InputType() TypeRef           { return a.Type }
func (a *PassthroughAdapter) DefaultValue() *ConstantValue { return a.Default }

func (a *PassthroughAdapter) WritePrologue(CodeWriter, TypeRenderer) {}

func (a *PassthroughAdapter) Argument(r TypeRenderer) string { return r.Ident(a.Param) }

func (a *PassthroughAdapter) WriteEpilogue(CodeWriter, TypeRenderer) {}

// PrimaryTrampoline builds the default call shape for f.
func PrimaryTrampoline(f *Function) *Trampoline {
	t := &Trampoline{IsPrimary: true}
	for i, p := range f.Parameters {
		t.Adapters = append(t.Adapters, Passthrough(i, p))
	}
	return t
}
