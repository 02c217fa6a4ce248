package diag

import "fmt"

func New(sev Severity, code Code, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  msg,
	}
}

func Newf(sev Severity, code Code, format string, args ...any) Diagnostic {
	return New(sev, code, fmt.Sprintf(format, args...))
}

func NewError(code Code, msg string) Diagnostic {
	return New(SevError, code, msg)
}

func NewWarning(code Code, msg string) Diagnostic {
	return New(SevWarning, code, msg)
}
