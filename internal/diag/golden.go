package diag

import (
	"fmt"
	"sort"
	"strings"
)

// FormatGoldenDiagnostics renders diagnostics into a stable, single-line-per-entry
// representation suitable for golden comparisons. Ignored entries are dropped.
func FormatGoldenDiagnostics(diags []Diagnostic) string {
	rendered := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		if d.Severity == SevIgnored {
			continue
		}
		d.Message = sanitizeMessage(d.Message)
		rendered = append(rendered, d)
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Location.File != dj.Location.File {
			return di.Location.File < dj.Location.File
		}
		if di.Location.Line != dj.Location.Line {
			return di.Location.Line < dj.Location.Line
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})

	var b strings.Builder
	for i, d := range rendered {
		fmt.Fprintf(&b, "%s %s", strings.ToLower(d.Severity.String()), d.Code.ID())
		if !d.Location.IsZero() {
			fmt.Fprintf(&b, " %s", d.Location)
		}
		fmt.Fprintf(&b, " %s", d.Message)
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
