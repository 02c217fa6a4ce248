package diagfmt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"imbind/internal/diag"
)

type palette struct {
	heading, fatal, err, warning, note, context *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		heading: color.New(color.Bold),
		fatal:   color.New(color.FgMagenta, color.Bold),
		err:     color.New(color.FgRed, color.Bold),
		warning: color.New(color.FgYellow, color.Bold),
		note:    color.New(color.FgCyan),
		context: color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.heading, p.fatal, p.err, p.warning, p.note, p.context} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevFatal:
		return p.fatal
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warning
	}
	return p.note
}

// FormatPath renders path according to mode.
func FormatPath(path string, mode PathMode, baseDir string) string {
	if path == "" {
		return ""
	}
	switch mode {
	case PathModeBasename:
		return filepath.Base(path)
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	case PathModeRelative, PathModeAuto:
		if baseDir == "" {
			return path
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return path
		}
		rel, err := filepath.Rel(baseDir, abs)
		if err != nil || (mode == PathModeAuto && strings.HasPrefix(rel, "..")) {
			return path
		}
		return rel
	}
	return path
}

func location(d diag.Diagnostic, mode PathMode, baseDir string) string {
	loc := d.Location
	loc.File = FormatPath(loc.File, mode, baseDir)
	return loc.String()
}

// Write renders the log for a terminal or a log file:
//
//	<category>
//	  <path>:<line>: <SEV> <CODE>: <message> (in <declaration>)
func (l *Log) Write(w io.Writer, opts PrettyOpts) error {
	bw := bufio.NewWriter(w)
	p := newPalette(opts.Color)
	first := true
	for _, c := range l.categories {
		if len(c.Entries) == 0 && (opts.HideEmpty || c.Empty == "") {
			continue
		}
		if !first {
			bw.WriteByte('\n')
		}
		first = false
		p.heading.Fprintln(bw, c.Name)
		if len(c.Entries) == 0 {
			fmt.Fprintf(bw, "  %s\n", c.Empty)
			continue
		}
		shown := c.Entries
		if opts.Max > 0 && len(shown) > opts.Max {
			shown = shown[:opts.Max]
		}
		for _, e := range shown {
			d := e.Diagnostic
			bw.WriteString("  ")
			if loc := location(d, opts.PathMode, opts.BaseDir); loc != "" {
				bw.WriteString(loc + ": ")
			}
			p.severity(d.Severity).Fprint(bw, d.Severity.String())
			fmt.Fprintf(bw, " %s: %s", d.Code.ID(), d.Message)
			if e.Context != "" {
				p.context.Fprintf(bw, " (in %s)", e.Context)
			}
			bw.WriteByte('\n')
		}
		if hidden := len(c.Entries) - len(shown); hidden > 0 {
			fmt.Fprintf(bw, "  ... and %d more\n", hidden)
		}
	}
	return bw.Flush()
}

// Summary is a one-line count of the log, for example
// "2 errors, 1 warning".
func (l *Log) Summary() string {
	var parts []string
	for _, s := range []diag.Severity{diag.SevFatal, diag.SevError, diag.SevWarning, diag.SevNote} {
		n := l.Count(s)
		if n == 0 {
			continue
		}
		word := strings.ToLower(s.String())
		if s == diag.SevFatal {
			word = "fatal error"
		}
		if n != 1 {
			word += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", n, word))
	}
	if len(parts) == 0 {
		return "no diagnostics"
	}
	return strings.Join(parts, ", ")
}

// WriteFile writes the uncolored log to path, replacing it atomically.
func (l *Log) WriteFile(path string, opts PrettyOpts) error {
	opts.Color = false
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".diagnostics-*")
	if err != nil {
		return fmt.Errorf("failed to create diagnostics log: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := l.Write(tmp, opts); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write diagnostics log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write diagnostics log: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
