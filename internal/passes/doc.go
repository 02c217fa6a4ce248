// Package passes holds the transformations that turn a translated ImGui
// header into a bindable library. Each pass is a plain value carrying its
// configuration; Begin hands the engine a fresh hooks value per run.
package passes

import "imbind/internal/ir"

// RuntimeImport is the import path of the support package generated code
// depends on, and RuntimePackage the name it is referred to by.
const (
	RuntimeImport  = "imbind/runtime"
	RuntimePackage = "imrt"
)

func namesOf(ds []ir.Decl) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Common().Name
	}
	return out
}
