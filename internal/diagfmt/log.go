// Package diagfmt collects the diagnostics of a run into categories and
// writes them as a log for people or as JSON for tools.
package diagfmt

import (
	"strings"

	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/passes"
)

// Category names used by the generator.
const (
	CategoryParsing      = "Parsing Diagnostics"
	CategoryPipeline     = "Pipeline Diagnostics"
	CategoryDeclarations = "Translated Library Diagnostics"
	CategoryQuarantine   = "Broken Declarations"
	CategoryGeneration   = "Generation Diagnostics"
)

// Entry is a diagnostic with the declaration it was found on.
type Entry struct {
	Diagnostic diag.Diagnostic
	// Context is the dotted path of the declaration, empty for library-level
	// diagnostics.
	Context string
}

type Category struct {
	Name string
	// Empty is printed instead of entries when there are none.
	Empty   string
	Entries []Entry
}

// Log is an ordered list of categories.
type Log struct {
	categories []*Category
}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) category(name, empty string) *Category {
	for _, c := range l.categories {
		if c.Name == name {
			return c
		}
	}
	c := &Category{Name: name, Empty: empty}
	l.categories = append(l.categories, c)
	return c
}

func (c *Category) add(ctx string, ds ...diag.Diagnostic) {
	for _, d := range ds {
		if d.Severity == diag.SevIgnored {
			continue
		}
		c.Entries = append(c.Entries, Entry{Diagnostic: d, Context: ctx})
	}
}

// AddCategory appends ds under name. Categories keep the order in which
// they were first added.
func (l *Log) AddCategory(name string, ds []diag.Diagnostic, empty string) {
	l.category(name, empty).add("", ds...)
}

// AddLibrary records the library-level diagnostics, split into front-end
// and pipeline ones, and every diagnostic still attached to a declaration.
func (l *Log) AddLibrary(lib *ir.Library) {
	parsing := l.category(CategoryParsing, "No parsing problems")
	pipeline := l.category(CategoryPipeline, "")
	for _, d := range lib.Diagnostics() {
		if strings.HasPrefix(d.Code.ID(), "FRN") {
			parsing.add("", d)
			continue
		}
		pipeline.add("", d)
	}

	decls := l.category(CategoryDeclarations, "No problems in the translated library")
	lib.Walk(func(d ir.Decl, parents []ir.Decl) bool {
		if ds := d.Common().Diagnostics; len(ds) > 0 {
			decls.add(declPath(d, parents), ds...)
		}
		return true
	})
}

// AddQuarantine records the diagnostics of every quarantined declaration
// and its descendants.
func (l *Log) AddQuarantine(q []passes.Quarantined) {
	c := l.category(CategoryQuarantine, "No declarations were quarantined")
	for _, entry := range q {
		var walk func(d ir.Decl, path string)
		walk = func(d ir.Decl, path string) {
			c.add(path, d.Common().Diagnostics...)
			for _, child := range d.Children() {
				walk(child, path+"."+child.Common().Name)
			}
		}
		walk(entry.Decl, entry.Path)
	}
}

func declPath(d ir.Decl, parents []ir.Decl) string {
	parts := make([]string, 0, len(parents)+1)
	for _, p := range parents {
		parts = append(parts, p.Common().Name)
	}
	parts = append(parts, d.Common().Name)
	return strings.Join(parts, ".")
}

// Categories returns the categories in order.
func (l *Log) Categories() []*Category {
	return l.categories
}

// Diagnostics flattens the log.
func (l *Log) Diagnostics() []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, c := range l.categories {
		for _, e := range c.Entries {
			out = append(out, e.Diagnostic)
		}
	}
	return out
}

// Count returns the number of entries with severity s.
func (l *Log) Count(s diag.Severity) int {
	n := 0
	for _, d := range l.Diagnostics() {
		if d.Severity == s {
			n++
		}
	}
	return n
}

func (l *Log) HasErrors() bool {
	return diag.HasErrors(l.Diagnostics())
}
