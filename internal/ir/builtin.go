package ir

import "fmt"

// BuiltinKind enumerates primitive types.
type BuiltinKind uint8

const (
	BuiltinInvalid BuiltinKind = iota
	BuiltinBool
	BuiltinChar // C char; signedness is platform dependent
	BuiltinByte
	BuiltinSByte
	BuiltinInt16
	BuiltinUint16
	BuiltinInt32
	BuiltinUint32
	BuiltinInt64
	BuiltinUint64
	BuiltinFloat32
	BuiltinFloat64
	BuiltinChar16
	BuiltinChar32
	BuiltinIntptr
	BuiltinUintptr
)

var builtinNames = [...]string{
	BuiltinInvalid: "invalid",
	BuiltinBool:    "bool",
	BuiltinChar:    "char",
	BuiltinByte:    "byte",
	BuiltinSByte:   "sbyte",
	BuiltinInt16:   "int16",
	BuiltinUint16:  "uint16",
	BuiltinInt32:   "int32",
	BuiltinUint32:  "uint32",
	BuiltinInt64:   "int64",
	BuiltinUint64:  "uint64",
	BuiltinFloat32: "float32",
	BuiltinFloat64: "float64",
	BuiltinChar16:  "char16",
	BuiltinChar32:  "char32",
	BuiltinIntptr:  "intptr",
	BuiltinUintptr: "uintptr",
}

func (k BuiltinKind) String() string {
	if int(k) < len(builtinNames) {
		return builtinNames[k]
	}
	return fmt.Sprintf("BuiltinKind(%d)", k)
}

// ParseBuiltinKind maps a name produced by String back to its kind.
func ParseBuiltinKind(s string) (BuiltinKind, bool) {
	for k, name := range builtinNames {
		if name == s && k != int(BuiltinInvalid) {
			return BuiltinKind(k), true
		}
	}
	return BuiltinInvalid, false
}

// Size returns the size in bytes on the supported 64-bit targets.
func (k BuiltinKind) Size() int {
	switch k {
	case BuiltinBool, BuiltinChar, BuiltinByte, BuiltinSByte:
		return 1
	case BuiltinInt16, BuiltinUint16, BuiltinChar16:
		return 2
	case BuiltinInt32, BuiltinUint32, BuiltinFloat32, BuiltinChar32:
		return 4
	case BuiltinInt64, BuiltinUint64, BuiltinFloat64, BuiltinIntptr, BuiltinUintptr:
		return 8
	}
	return 0
}

// Builtin is shorthand for BuiltinType{Kind: k}.
func Builtin(k BuiltinKind) BuiltinType {
	return BuiltinType{Kind: k}
}

// CallConv is a native calling convention.
type CallConv uint8

const (
	CallConvCdecl CallConv = iota
	CallConvStdcall
	CallConvThiscall
	CallConvFastcall
	CallConvVectorcall
)

func (c CallConv) String() string {
	switch c {
	case CallConvCdecl:
		return "cdecl"
	case CallConvStdcall:
		return "stdcall"
	case CallConvThiscall:
		return "thiscall"
	case CallConvFastcall:
		return "fastcall"
	case CallConvVectorcall:
		return "vectorcall"
	default:
		return fmt.Sprintf("CallConv(%d)", c)
	}
}
