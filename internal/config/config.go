// Package config loads imbind.toml.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"imbind/internal/diag"
)

// Policy is the severity the linker uses for a class of symbol problems.
type Policy string

const (
	PolicyError   Policy = "error"
	PolicyWarning Policy = "warning"
	PolicyIgnore  Policy = "ignore"
)

func (p Policy) valid() bool {
	switch p {
	case PolicyError, PolicyWarning, PolicyIgnore:
		return true
	}
	return false
}

// Severity maps the policy onto the diagnostic recorded for a problem.
// Ignored problems are still recorded, at SevIgnored.
func (p Policy) Severity() diag.Severity {
	switch p {
	case PolicyError:
		return diag.SevError
	case PolicyWarning:
		return diag.SevWarning
	}
	return diag.SevIgnored
}

// Config is the decoded manifest. Relative paths are resolved against Dir.
type Config struct {
	// Dir is the directory holding the manifest.
	Dir string `toml:"-"`

	Input       Input       `toml:"input"`
	Output      Output      `toml:"output"`
	Conventions Conventions `toml:"conventions"`
	Strings     Strings     `toml:"strings"`
	Linker      Linker      `toml:"linker"`
	Native      Native      `toml:"native"`
	Namespaces  Namespaces  `toml:"namespaces"`
}

type Input struct {
	Snapshot string `toml:"snapshot"`
	// Symbols lists shared objects or .syms export lists to link against.
	Symbols []string `toml:"symbols"`
}

type Output struct {
	Dir     string `toml:"dir"`
	Package string `toml:"package"`
	// Library is the shared object name generated code loads.
	Library string `toml:"library"`
}

// Conventions holds the naming heuristics of the headers being bound.
type Conventions struct {
	EnumMarker     string            `toml:"enum_marker"`
	FlagsSuffix    string            `toml:"flags_suffix"`
	VectorTemplate string            `toml:"vector_template"`
	KeyEnum        string            `toml:"key_enum"`
	SpellDigits    bool              `toml:"spell_digits"`
	MaxIterations  int               `toml:"max_iterations"`
	Unneeded       []string          `toml:"unneeded"`
	Typedefs       map[string]string `toml:"typedefs"`
	InternalHeader string            `toml:"internal_header"`
	VersionAnchor  string            `toml:"version_anchor"`
	VersionMacros  []string          `toml:"version_macros"`
}

type OptOut struct {
	Function string `toml:"function"`
	Arity    int    `toml:"arity"`
}

type Strings struct {
	Suffix    string   `toml:"suffix"`
	EndSuffix string   `toml:"end_suffix"`
	OptOut    []OptOut `toml:"opt_out"`
}

type Linker struct {
	OnMissing   Policy `toml:"on_missing"`
	OnAmbiguous Policy `toml:"on_ambiguous"`
}

// Native describes the external build of the native helper library.
type Native struct {
	Command []string `toml:"command"`
	Workdir string   `toml:"workdir"`
	// Output is the artifact the command produces; it joins the symbol
	// sources of the linker.
	Output  string `toml:"output"`
	Timeout string `toml:"timeout"`
}

// Namespaces maps header base names to namespaces and namespaces to
// container records.
type Namespaces struct {
	Root             string            `toml:"root"`
	Files            map[string]string `toml:"files"`
	Containers       map[string]string `toml:"containers"`
	DefaultContainer string            `toml:"default_container"`
}

var (
	// ErrInputMissing indicates that [input] is missing from the manifest.
	ErrInputMissing = errors.New("missing [input]")
	// ErrSnapshotMissing indicates that [input].snapshot is missing.
	ErrSnapshotMissing = errors.New("missing [input].snapshot")
)

// Default returns the configuration for Dear ImGui.
func Default() Config {
	return Config{
		Output: Output{Dir: "imgui", Package: "imgui", Library: "cimgui"},
		Conventions: Conventions{
			EnumMarker:     "_",
			FlagsSuffix:    "Flags_",
			VectorTemplate: "ImVector",
			KeyEnum:        "ImGuiKey",
			SpellDigits:    false,
			MaxIterations:  16,
			Unneeded:       []string{"IM_DELETE", "ImVector"},
			Typedefs:       map[string]string{"ImWchar16": "char16", "ImWchar32": "rune"},
			InternalHeader: "imgui_internal.h",
			VersionAnchor:  "DebugCheckVersionAndDataLayout",
			VersionMacros:  []string{"IMGUI_VERSION", "IMGUI_VERSION_NUM"},
		},
		Strings: Strings{
			Suffix:    "Str",
			EndSuffix: "_end",
			OptOut: []OptOut{
				{Function: "PushID", Arity: 1},
				{Function: "GetID", Arity: 1},
				{Function: "AddFontFromMemoryCompressedBase85TTF"},
				{Function: "AddInputCharactersUTF8"},
				{Function: "CalcWordWrapPositionA"},
			},
		},
		Linker: Linker{OnMissing: PolicyError, OnAmbiguous: PolicyWarning},
		Namespaces: Namespaces{
			Root:             "imgui",
			Files:            map[string]string{"imgui.h": "imgui", "imgui_internal.h": "imgui.internal"},
			Containers:       map[string]string{"imgui": "ImGui", "imgui.internal": "ImGuiInternal"},
			DefaultContainer: "Globals",
		},
	}
}

// Load decodes the manifest at path over Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("input") {
		return nil, fmt.Errorf("%s: %w", path, ErrInputMissing)
	}
	if !meta.IsDefined("input", "snapshot") || strings.TrimSpace(cfg.Input.Snapshot) == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrSnapshotMissing)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	cfg.Dir = filepath.Dir(path)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks values that decoding cannot.
func (c *Config) Validate() error {
	if !c.Linker.OnMissing.valid() {
		return fmt.Errorf("invalid [linker].on_missing %q", c.Linker.OnMissing)
	}
	if !c.Linker.OnAmbiguous.valid() {
		return fmt.Errorf("invalid [linker].on_ambiguous %q", c.Linker.OnAmbiguous)
	}
	if c.Conventions.MaxIterations <= 0 {
		return fmt.Errorf("invalid [conventions].max_iterations %d: must be positive", c.Conventions.MaxIterations)
	}
	if c.Output.Package == "" || !isIdent(c.Output.Package) {
		return fmt.Errorf("invalid [output].package %q", c.Output.Package)
	}
	if len(c.Native.Command) > 0 && c.Native.Output == "" {
		return errors.New("[native].command requires [native].output")
	}
	return nil
}

// Path resolves p against the manifest directory.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

func isIdent(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return s != ""
}
