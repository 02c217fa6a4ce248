package emit

import (
	"fmt"
	"strings"
)

// codeWriter is the ir.CodeWriter handed to render hooks. It indents with
// tabs and never emits trailing whitespace.
type codeWriter struct {
	sb     strings.Builder
	indent int
}

func (w *codeWriter) Linef(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if strings.TrimSpace(line) == "" {
		w.sb.WriteByte('\n')
		return
	}
	w.sb.WriteString(strings.Repeat("\t", w.indent))
	w.sb.WriteString(line)
	w.sb.WriteByte('\n')
}

func (w *codeWriter) Indent() { w.indent++ }

func (w *codeWriter) Dedent() {
	if w.indent == 0 {
		panic("emit: unbalanced Dedent")
	}
	w.indent--
}

// Blank separates declarations with a single empty line.
func (w *codeWriter) Blank() {
	s := w.sb.String()
	if s == "" || strings.HasSuffix(s, "\n\n") {
		return
	}
	w.sb.WriteByte('\n')
}

// Comment writes text as // lines, one per input line.
func (w *codeWriter) Comment(text string) {
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		w.Linef("// %s", strings.TrimSpace(line))
	}
}

func (w *codeWriter) String() string { return w.sb.String() }
