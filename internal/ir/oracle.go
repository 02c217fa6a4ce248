package ir

// RawHandle is an opaque front-end type handle.
type RawHandle uint64

// RawClass is the front end's classification of a raw type.
type RawClass uint8

const (
	RawUnknown RawClass = iota
	RawBuiltin
	RawPointer
	RawReference
	RawTypedef
	RawRecord
	RawEnum
	RawFunctionProto
	RawTemplateSpecialization
	RawArray
	RawTemplateParameter
)

func (c RawClass) String() string {
	switch c {
	case RawBuiltin:
		return "builtin"
	case RawPointer:
		return "pointer"
	case RawReference:
		return "reference"
	case RawTypedef:
		return "typedef"
	case RawRecord:
		return "record"
	case RawEnum:
		return "enum"
	case RawFunctionProto:
		return "function"
	case RawTemplateSpecialization:
		return "specialization"
	case RawArray:
		return "array"
	case RawTemplateParameter:
		return "template parameter"
	default:
		return "unknown"
	}
}

// RawTypeInfo is what the oracle knows about a handle. Only the fields that
// apply to Class are set.
type RawTypeInfo struct {
	Handle   RawHandle
	Class    RawClass
	Spelling string

	Builtin BuiltinKind

	// Pointer, reference and array element.
	Pointee        RawHandle
	PointeeIsConst bool
	ArrayLength    int

	// Typedef, record and enum targets.
	Decl DeclID

	TemplateName string
	TemplateArgs []RawHandle

	Return   RawHandle
	Params   []RawHandle
	CallConv CallConv
}

// Oracle answers questions about raw front-end types.
type Oracle interface {
	ResolveType(h RawHandle) (RawTypeInfo, bool)
	// Canonical strips sugar such as elaborated names.
	Canonical(h RawHandle) RawHandle
	Pointee(h RawHandle) (pointee RawHandle, isConst bool, ok bool)
	Specialization(h RawHandle) (name string, args []RawHandle, ok bool)
	MustPassByReference(h RawHandle) bool
}
