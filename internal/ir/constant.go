package ir

import (
	"strconv"
	"strings"
)

// ConstKind classifies ConstantValue.
type ConstKind uint8

const (
	ConstNone ConstKind = iota
	ConstInt
	ConstUint
	ConstFloat
	ConstString
	ConstBool
	ConstNull
)

// ConstantValue is an evaluated constant or default argument.
type ConstantValue struct {
	Kind  ConstKind
	Int   int64
	Uint  uint64
	Float float64
	Str   string
	Bool  bool
}

func IntValue(v int64) ConstantValue     { return ConstantValue{Kind: ConstInt, Int: v} }
func UintValue(v uint64) ConstantValue   { return ConstantValue{Kind: ConstUint, Uint: v} }
func FloatValue(v float64) ConstantValue { return ConstantValue{Kind: ConstFloat, Float: v} }
func StringValue(v string) ConstantValue { return ConstantValue{Kind: ConstString, Str: v} }
func BoolValue(v bool) ConstantValue     { return ConstantValue{Kind: ConstBool, Bool: v} }
func NullValue() ConstantValue           { return ConstantValue{Kind: ConstNull} }
func (v ConstantValue) IsValid() bool    { return v.Kind != ConstNone }

// GoLiteral renders the value as a Go literal.
func (v ConstantValue) GoLiteral() string {
	switch v.Kind {
	case ConstInt:
		return strconv.FormatInt(v.Int, 10)
	case ConstUint:
		return strconv.FormatUint(v.Uint, 10)
	case ConstFloat:
		s := strconv.FormatFloat(v.Float, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		return s
	case ConstString:
		return strconv.Quote(v.Str)
	case ConstBool:
		return strconv.FormatBool(v.Bool)
	case ConstNull:
		return "nil"
	}
	return "<invalid>"
}

func (v ConstantValue) String() string {
	return v.GoLiteral()
}

// Constant is a named compile-time value, typically synthesized from a macro.
type Constant struct {
	Base
	Type  TypeRef
	Value ConstantValue
}

func NewConstant(name string, typ TypeRef, value ConstantValue) *Constant {
	return &Constant{Base: NewBase(name), Type: typ, Value: value}
}

func (*Constant) Kind() DeclKind { return DeclConstant }

func (c *Constant) Clone() *Constant {
	x := *c
	return &x
}

func (c *Constant) CloneDecl() Decl { return c.Clone() }

func (*Constant) Children() []Decl { return nil }

// Macro is a preprocessor definition. Body is the unexpanded replacement
// list.
type Macro struct {
	Base
	Parameters     []string
	IsFunctionLike bool
	Body           string
}

func NewMacro(name, body string) *Macro {
	return &Macro{Base: NewBase(name), Body: body}
}

func (*Macro) Kind() DeclKind { return DeclMacro }

func (m *Macro) Clone() *Macro {
	x := *m
	return &x
}

func (m *Macro) CloneDecl() Decl { return m.Clone() }

func (*Macro) Children() []Decl { return nil }

// ConstantEvaluator evaluates macros to constants. The front end supplies
// the implementation.
type ConstantEvaluator interface {
	EvaluateMacro(lib *Library, m *Macro) (ConstantValue, error)
}
