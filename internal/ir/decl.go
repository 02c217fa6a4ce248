package ir

import (
	"fmt"
	"slices"

	"imbind/internal/diag"
)

// DeclKind enumerates the concrete declaration variants.
type DeclKind uint8

const (
	DeclInvalid DeclKind = iota
	DeclRecord
	DeclEnum
	DeclEnumConstant
	DeclFunction
	DeclParameter
	DeclField
	DeclTypedef
	DeclConstant
	DeclMacro
	DeclUnsupported
	DeclCustom
)

func (k DeclKind) String() string {
	switch k {
	case DeclRecord:
		return "record"
	case DeclEnum:
		return "enum"
	case DeclEnumConstant:
		return "enum constant"
	case DeclFunction:
		return "function"
	case DeclParameter:
		return "parameter"
	case DeclField:
		return "field"
	case DeclTypedef:
		return "typedef"
	case DeclConstant:
		return "constant"
	case DeclMacro:
		return "macro"
	case DeclUnsupported:
		return "unsupported"
	case DeclCustom:
		return "custom"
	default:
		return fmt.Sprintf("DeclKind(%d)", k)
	}
}

// Decl is implemented by every declaration variant. Concrete types embed Base.
type Decl interface {
	// Common exposes the shared attributes. Only mutate the result on a
	// value you just cloned.
	Common() *Base
	Kind() DeclKind
	// CloneDecl returns a shallow copy with the same identity.
	CloneDecl() Decl
	// Children lists structurally owned children in order.
	Children() []Decl
}

// Base holds the attributes shared by all declarations.
type Base struct {
	id            DeclID
	Name          string
	Namespace     string
	Accessibility Accessibility
	File          *File
	Line          int
	Diagnostics   []diag.Diagnostic
	Original      OriginalRef
	Metadata      Metadata
	// Replaces lists declarations subsumed by this one; references to them
	// resolve here once they are gone from the tree.
	Replaces []DeclID
}

// NewBase returns a Base with a freshly allocated identity.
func NewBase(name string) Base {
	return Base{id: NewDeclID(), Name: name}
}

// ID returns the stable identity.
func (b *Base) ID() DeclID { return b.id }

func (b *Base) Common() *Base { return b }

// Location returns the source position of the declaration, if known.
func (b *Base) Location() diag.Location {
	if b.File == nil {
		return diag.Location{Line: b.Line}
	}
	return diag.Location{File: b.File.Path, Line: b.Line}
}

// QualifiedName joins namespace and name with a dot.
func (b *Base) QualifiedName() string {
	if b.Namespace == "" {
		return b.Name
	}
	return b.Namespace + "." + b.Name
}

// HasErrors reports whether the declaration carries Error or Fatal diagnostics.
func (b *Base) HasErrors() bool {
	return diag.HasErrors(b.Diagnostics)
}

// WithDiagnostics returns a clone of d with ds appended. d is not modified.
func WithDiagnostics[D Decl](d D, ds ...diag.Diagnostic) D {
	if len(ds) == 0 {
		return d
	}
	c := d.CloneDecl().(D)
	b := c.Common()
	loc := b.Location()
	added := make([]diag.Diagnostic, len(ds))
	for i, x := range ds {
		if x.Location.IsZero() {
			x.Location = loc
		}
		added[i] = x
	}
	b.Diagnostics = slices.Concat(b.Diagnostics, added)
	return c
}

// File records where root declarations came from.
type File struct {
	Path string
	// InScope is false for headers that were only included transitively.
	InScope bool
}
