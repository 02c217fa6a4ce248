package passes

import (
	"path"
	"strings"

	"imbind/internal/ir"
	"imbind/internal/transform"
)

// Namespaces assigns root declarations a namespace by the base name of their
// source file.
type Namespaces struct {
	ByFile  map[string]string
	Default string
}

func (Namespaces) Name() string { return "namespaces" }

func (p Namespaces) Begin() transform.Hooks { return &namespaceHooks{cfg: p} }

type namespaceHooks struct {
	transform.Base
	cfg Namespaces
}

func (h *namespaceHooks) TransformDeclaration(ctx *transform.Context, d ir.Decl) transform.Result {
	if !ctx.IsRoot() {
		return transform.Keep()
	}
	b := d.Common()
	ns := h.cfg.Default
	if b.File != nil {
		if mapped, ok := h.cfg.ByFile[path.Base(b.File.Path)]; ok {
			ns = mapped
		}
	}
	if b.Namespace == ns {
		return transform.Keep()
	}
	c := d.CloneDecl()
	c.Common().Namespace = ns
	return transform.Replace(c)
}

// OrganizeOutputFiles records the output file of each namespaced root
// declaration: namespace segments below Root become directories and the
// declaration name (or an existing file name) the file.
type OrganizeOutputFiles struct {
	Root string
}

func (OrganizeOutputFiles) Name() string { return "organize-output-files" }

func (p OrganizeOutputFiles) Begin() transform.Hooks { return &organizeHooks{root: p.Root} }

type organizeHooks struct {
	transform.Base
	root string
}

func (h *organizeHooks) TransformDeclaration(ctx *transform.Context, d ir.Decl) transform.Result {
	b := d.Common()
	if !ctx.IsRoot() || b.Namespace == "" || b.Namespace == h.root {
		return transform.Keep()
	}
	ns := strings.TrimPrefix(b.Namespace, h.root+".")
	var parts []string
	for _, seg := range strings.Split(ns, ".") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	file := b.Name
	if existing, ok := ir.MetadataGet[ir.OutputFileName](b.Metadata); ok {
		file = path.Base(existing.Path)
	}
	want := strings.Join(append(parts, file), "/")
	if existing, ok := ir.MetadataGet[ir.OutputFileName](b.Metadata); ok && existing.Path == want {
		return transform.Keep()
	}
	c := d.CloneDecl()
	c.Common().Metadata = ir.MetadataSet(b.Metadata, ir.OutputFileName{Path: want})
	return transform.Replace(c)
}
