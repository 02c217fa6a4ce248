package diag

import (
	"fmt"
	"strings"
)

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevIgnored is recorded but never shown.
	SevIgnored Severity = iota
	// SevNote is for informational diagnostics.
	SevNote
	// SevWarning is for warning diagnostics.
	SevWarning
	SevError
	SevFatal
)

func (s Severity) String() string {
	switch s {
	case SevIgnored:
		return "IGNORED"
	case SevNote:
		return "NOTE"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	case SevFatal:
		return "FATAL"
	}
	return "UNKNOWN"
}

// IsError reports whether the severity marks a declaration as broken.
func (s Severity) IsError() bool {
	return s >= SevError
}

// ParseSeverity converts a case-insensitive name into a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ignored":
		return SevIgnored, nil
	case "note", "info":
		return SevNote, nil
	case "warning", "warn":
		return SevWarning, nil
	case "error":
		return SevError, nil
	case "fatal":
		return SevFatal, nil
	}
	return SevIgnored, fmt.Errorf("invalid severity %q (expected ignored|note|warning|error|fatal)", s)
}
