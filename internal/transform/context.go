package transform

import (
	"imbind/internal/diag"
	"imbind/internal/ir"
)

// Context describes where in the tree a hook is running.
type Context struct {
	// Library is the snapshot being transformed. Hooks resolve references
	// through it.
	Library *ir.Library
	// Parents is the ancestor chain, outermost first.
	Parents []ir.Decl

	run *run
}

// Parent returns the immediate owner, or nil at the root.
func (c *Context) Parent() ir.Decl {
	if len(c.Parents) == 0 {
		return nil
	}
	return c.Parents[len(c.Parents)-1]
}

// IsRoot reports whether the current declaration is a root declaration.
func (c *Context) IsRoot() bool {
	return len(c.Parents) == 0
}

// Child returns the context for the children of d.
func (c *Context) Child(d ir.Decl) *Context {
	parents := make([]ir.Decl, len(c.Parents)+1)
	copy(parents, c.Parents)
	parents[len(c.Parents)] = d
	return &Context{Library: c.Library, Parents: parents, run: c.run}
}

// Reroot builds a context for a different traversal root.
func (c *Context) Reroot(parents ...ir.Decl) *Context {
	return &Context{Library: c.Library, Parents: append([]ir.Decl(nil), parents...), run: c.run}
}

// Report records a library-wide diagnostic.
func (c *Context) Report(d diag.Diagnostic) {
	if c.run != nil {
		c.run.libDiags = append(c.run.libDiags, d)
	}
}

// TransformType runs the type walk of the current pass on t. Hooks use it to
// recurse into types the engine cannot see, such as template arguments of a
// raw type.
func (c *Context) TransformType(t ir.TypeRef) (ir.TypeRef, []diag.Diagnostic) {
	if c.run == nil || t == nil {
		return t, nil
	}
	return c.run.transformType(c, t)
}
