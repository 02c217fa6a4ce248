package ir

import "imbind/internal/diag"

// CodeWriter is the line-oriented sink the emitter hands to render hooks.
type CodeWriter interface {
	Linef(format string, args ...any)
	Indent()
	Dedent()
}

// TypeRenderer spells type references in the target language.
type TypeRenderer interface {
	RenderType(t TypeRef) string
	// Ident turns a declaration name into a legal identifier.
	Ident(name string) string
	Library() *Library
}

// FrameIdent is the name of the runtime frame variable inside wrappers
// whose adapters implement FrameAdapter.
const FrameIdent = "frame"

// CustomDecl is the extension point for pass-defined declarations.
// Implementations embed Base, return DeclCustom from Kind and are used
// through pointers.
type CustomDecl interface {
	Decl
	// TransformTypes applies visit to every type slot of the declaration and
	// returns the receiver itself when nothing changed.
	TransformTypes(visit TypeVisitor) (Decl, []diag.Diagnostic)
	RenderDecl(w CodeWriter, r TypeRenderer)
}
