package diag

import (
	"fmt"
	"strconv"
)

// Location points at a line of a source file. The zero value means "unknown".
type Location struct {
	File string
	Line int
}

// IsZero reports whether the location carries no information.
func (l Location) IsZero() bool {
	return l.File == "" && l.Line == 0
}

func (l Location) String() string {
	if l.IsZero() {
		return ""
	}
	if l.Line <= 0 {
		return l.File
	}
	return l.File + ":" + strconv.Itoa(l.Line)
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Location Location
}

func (d Diagnostic) String() string {
	if d.Location.IsZero() {
		return fmt.Sprintf("%s %s: %s", d.Severity, d.Code.ID(), d.Message)
	}
	return fmt.Sprintf("%s: %s %s: %s", d.Location, d.Severity, d.Code.ID(), d.Message)
}

// WithLocation returns a copy of d located at loc.
func (d Diagnostic) WithLocation(loc Location) Diagnostic {
	d.Location = loc
	return d
}

// HasErrors reports whether any entry is at least SevError.
func HasErrors(diags []Diagnostic) bool {
	for i := range diags {
		if diags[i].Severity.IsError() {
			return true
		}
	}
	return false
}

// MaxSeverity returns the highest severity in diags (SevIgnored when empty).
func MaxSeverity(diags []Diagnostic) Severity {
	max := SevIgnored
	for i := range diags {
		if diags[i].Severity > max {
			max = diags[i].Severity
		}
	}
	return max
}
