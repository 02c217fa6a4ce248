// Package emit writes a library as Go source. Every root declaration goes
// to the file named by its ir.OutputFileName, or to one named after it;
// members of synthesized containers are hoisted to package level.
package emit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"

	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/passes"
	"imbind/internal/trace"
)

// GeneratedSuffix ends every file the emitter owns.
const GeneratedSuffix = ".gen.go"

const header = "// Code generated by imbind. DO NOT EDIT.\n\n"

type Options struct {
	Dir     string
	Package string
	// Library is the native library of functions the linker did not
	// assign one.
	Library string
	// RuntimeImport overrides the import path of the support package.
	RuntimeImport string
	// Clean removes generated files from Dir that this run did not write.
	Clean bool
}

// File is one rendered output file.
type File struct {
	Name   string
	Source []byte
}

// Render produces the files of lib without touching the disk.
func Render(lib *ir.Library, opts Options) ([]File, []diag.Diagnostic) {
	if opts.RuntimeImport == "" {
		opts.RuntimeImport = passes.RuntimeImport
	}
	// The same unresolved type is usually met once per use.
	bag := diag.NewBag(0)
	out := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	groups := partition(lib, out)
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	files := make([]File, 0, len(names))
	for _, name := range names {
		fr := &fileRenderer{renderer: newRenderer(lib, out), library: opts.Library}
		for _, d := range groups[name] {
			fr.decl(d)
		}
		body := fr.w.String()
		if strings.TrimSpace(body) == "" {
			continue
		}
		src, err := format(name, preamble(opts, body)+body)
		if err != nil {
			out.Report(diag.Newf(diag.SevError, diag.EmtWriteFailed, "%s does not format: %v", name, err))
		}
		files = append(files, File{Name: name, Source: src})
	}
	return files, bag.Items()
}

func preamble(opts Options, body string) string {
	var sb strings.Builder
	sb.WriteString(header)
	fmt.Fprintf(&sb, "package %s\n\n", opts.Package)
	var imps []string
	if strings.Contains(body, "unsafe.") {
		imps = append(imps, `"unsafe"`)
	}
	if strings.Contains(body, passes.RuntimePackage+".") {
		imps = append(imps, fmt.Sprintf("%s %q", passes.RuntimePackage, opts.RuntimeImport))
	}
	switch len(imps) {
	case 0:
	case 1:
		sb.WriteString("import " + imps[0] + "\n\n")
	default:
		sb.WriteString("import (\n")
		for _, imp := range imps {
			sb.WriteString("\t" + imp + "\n")
		}
		sb.WriteString(")\n\n")
	}
	return sb.String()
}

// format runs the source through goimports' formatter. On failure the
// unformatted source is returned with the error.
func format(name, src string) ([]byte, error) {
	out, err := imports.Process(name, []byte(src), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return []byte(src), err
	}
	return out, nil
}

// fileName flattens an output path into a file name of the package
// directory.
func fileName(path string) string {
	path = strings.ToLower(strings.Trim(path, "/"))
	var sb strings.Builder
	for _, c := range path {
		switch {
		case c == '/':
			sb.WriteByte('_')
		case c == '_' || c == '-' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9':
			sb.WriteRune(c)
		}
	}
	if sb.Len() == 0 {
		sb.WriteString("decls")
	}
	return sb.String() + GeneratedSuffix
}

// partition groups root declarations by output file in source order.
func partition(lib *ir.Library, out diag.Reporter) map[string][]ir.Decl {
	groups := make(map[string][]ir.Decl)
	owner := make(map[string]string)
	for _, d := range lib.Declarations() {
		switch d.(type) {
		case *ir.Unsupported, *ir.Macro:
			continue
		}
		b := d.Common()
		path := b.Name
		if out, ok := ir.MetadataGet[ir.OutputFileName](b.Metadata); ok {
			path = out.Path
		}
		name := fileName(path)
		if prev, seen := owner[name]; seen && prev != path {
			out.Report(diag.Newf(diag.SevWarning, diag.EmtFileConflict,
				"'%s' and '%s' both map to %s; merged", prev, path, name).WithLocation(b.Location()))
		} else if !seen {
			owner[name] = path
		}
		groups[name] = append(groups[name], d)
	}
	return groups
}

// Generate renders lib and writes it to opts.Dir. Problems with individual
// declarations are returned as diagnostics; the error reports IO failures.
func Generate(ctx context.Context, lib *ir.Library, opts Options) ([]diag.Diagnostic, error) {
	ctx, span := trace.Start(ctx, trace.ScopeStage, "emit")
	files, diags := Render(lib, opts)
	if err := os.MkdirAll(opts.Dir, 0o750); err != nil {
		span.End("mkdir failed")
		return diags, fmt.Errorf("failed to create output dir: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(opts.Dir, file.Name)
			if err := os.WriteFile(path, file.Source, 0o600); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.End("write failed")
		return diags, err
	}
	if opts.Clean {
		if err := clean(opts.Dir, files); err != nil {
			span.End("clean failed")
			return diags, err
		}
	}
	span.End(fmt.Sprintf("%d files", len(files)))
	return diags, nil
}

func clean(dir string, keep []File) error {
	written := make(map[string]bool, len(keep))
	for _, f := range keep {
		written[f.Name] = true
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), GeneratedSuffix) || written[e.Name()] {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
