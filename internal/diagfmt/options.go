package diagfmt

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto shows paths relative to BaseDir when they are below it.
	PathModeAuto PathMode = iota
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// ParsePathMode maps a flag value to a PathMode.
func ParsePathMode(s string) (PathMode, bool) {
	switch s {
	case "", "auto":
		return PathModeAuto, true
	case "absolute":
		return PathModeAbsolute, true
	case "relative":
		return PathModeRelative, true
	case "basename":
		return PathModeBasename, true
	}
	return PathModeAuto, false
}

// PrettyOpts configures the text rendering of a Log.
type PrettyOpts struct {
	Color    bool
	PathMode PathMode
	BaseDir  string
	// Max caps the entries shown per category; 0 shows all.
	Max int
	// HideEmpty skips categories without entries.
	HideEmpty bool
}

// JSONOpts configures JSON output of a Log.
type JSONOpts struct {
	PathMode PathMode
	BaseDir  string
	Max      int
}
