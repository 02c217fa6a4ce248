package diagfmt

import (
	"encoding/json"
	"io"
)

type DiagnosticJSON struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Context  string `json:"context,omitempty"`
}

type CategoryJSON struct {
	Name        string           `json:"name"`
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
}

type DiagnosticsOutput struct {
	Categories []CategoryJSON `json:"categories"`
	Count      int            `json:"count"`
}

// BuildDiagnosticsOutput forms the JSON structure without serializing it.
func (l *Log) BuildDiagnosticsOutput(opts JSONOpts) DiagnosticsOutput {
	out := DiagnosticsOutput{Categories: make([]CategoryJSON, 0, len(l.categories))}
	for _, c := range l.categories {
		entries := c.Entries
		if opts.Max > 0 && len(entries) > opts.Max {
			entries = entries[:opts.Max]
		}
		cj := CategoryJSON{Name: c.Name, Diagnostics: make([]DiagnosticJSON, 0, len(entries))}
		for _, e := range entries {
			d := e.Diagnostic
			cj.Diagnostics = append(cj.Diagnostics, DiagnosticJSON{
				Severity: d.Severity.String(),
				Code:     d.Code.ID(),
				Message:  d.Message,
				File:     FormatPath(d.Location.File, opts.PathMode, opts.BaseDir),
				Line:     d.Location.Line,
				Context:  e.Context,
			})
		}
		out.Count += len(cj.Diagnostics)
		out.Categories = append(out.Categories, cj)
	}
	return out
}

// JSON writes the log as indented JSON.
func (l *Log) JSON(w io.Writer, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(l.BuildDiagnosticsOutput(opts))
}
