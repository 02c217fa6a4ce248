package imrt

import (
	"embed"
	"io/fs"
)

//go:embed native/*.h
var nativeFS embed.FS

// ExportHeader is the header the generated export helper includes.
const ExportHeader = "imbind_export.h"

// NativeFS exposes the native headers generated helper sources depend on,
// rooted at "native".
func NativeFS() fs.FS {
	return nativeFS
}
