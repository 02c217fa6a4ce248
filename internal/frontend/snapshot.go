package frontend

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// SchemaVersion is the snapshot format this package reads and writes.
// Increment it whenever a field changes meaning.
const SchemaVersion uint16 = 1

// ErrSchema is returned for snapshots written with another SchemaVersion.
var ErrSchema = errors.New("unsupported snapshot schema")

// Snapshot is the front end's dump of one parsed header set: the raw
// declaration tree, the raw type table, macros and parse diagnostics.
// Declarations and types refer to each other by front-end keys.
type Snapshot struct {
	Schema      uint16               `msgpack:"schema"`
	Files       []SnapshotFile       `msgpack:"files"`
	Types       []SnapshotType       `msgpack:"types"`
	Decls       []SnapshotDecl       `msgpack:"decls"`
	Macros      []SnapshotMacro      `msgpack:"macros,omitempty"`
	Diagnostics []SnapshotDiagnostic `msgpack:"diagnostics,omitempty"`
}

type SnapshotFile struct {
	Path    string `msgpack:"path"`
	InScope bool   `msgpack:"in_scope"`
}

// SnapshotType describes one front-end type. Class is one of builtin,
// pointer, reference, typedef, record, enum, function, specialization,
// array or template parameter.
type SnapshotType struct {
	Handle   uint64 `msgpack:"handle"`
	Class    string `msgpack:"class"`
	Spelling string `msgpack:"spelling,omitempty"`
	// Canonical is the handle with sugar stripped; zero means the type is
	// already canonical.
	Canonical uint64 `msgpack:"canonical,omitempty"`
	// Builtin is a builtin kind name such as "int32", or "void".
	Builtin        string   `msgpack:"builtin,omitempty"`
	Pointee        uint64   `msgpack:"pointee,omitempty"`
	PointeeIsConst bool     `msgpack:"pointee_const,omitempty"`
	ArrayLength    int64    `msgpack:"array_length,omitempty"`
	Decl           uint64   `msgpack:"decl,omitempty"`
	TemplateName   string   `msgpack:"template,omitempty"`
	TemplateArgs   []uint64 `msgpack:"template_args,omitempty"`
	Return         uint64   `msgpack:"return,omitempty"`
	Params         []uint64 `msgpack:"params,omitempty"`
	CallConv       string   `msgpack:"callconv,omitempty"`
	// ByReference marks records the ABI passes through a hidden pointer.
	ByReference bool `msgpack:"by_reference,omitempty"`
}

// SnapshotDecl is one declaration. Kind is the front end's own
// classification; see Translate for the kinds that map onto the IR.
type SnapshotDecl struct {
	Key       uint64 `msgpack:"key"`
	Kind      string `msgpack:"kind"`
	Name      string `msgpack:"name"`
	Namespace string `msgpack:"namespace,omitempty"`
	Access    string `msgpack:"access,omitempty"`
	// File indexes Snapshot.Files; negative means unknown.
	File int   `msgpack:"file"`
	Line int64 `msgpack:"line,omitempty"`

	// Type is the field, parameter or underlying type, or the return type
	// of a function.
	Type uint64 `msgpack:"type,omitempty"`

	RecordKind string `msgpack:"record_kind,omitempty"`
	Size       int64  `msgpack:"size,omitempty"`
	Alignment  int64  `msgpack:"alignment,omitempty"`
	Undefined  bool   `msgpack:"undefined,omitempty"`
	Anonymous  bool   `msgpack:"anonymous,omitempty"`

	Offset    int64 `msgpack:"offset,omitempty"`
	BitWidth  int64 `msgpack:"bit_width,omitempty"`
	BitOffset int64 `msgpack:"bit_offset,omitempty"`

	Value    int64 `msgpack:"value,omitempty"`
	HasValue bool  `msgpack:"has_value,omitempty"`

	Default     *SnapshotConstant `msgpack:"default,omitempty"`
	ByReference bool              `msgpack:"by_reference,omitempty"`

	Special  string `msgpack:"special,omitempty"`
	Instance bool   `msgpack:"instance,omitempty"`
	Virtual  bool   `msgpack:"virtual,omitempty"`
	Const    bool   `msgpack:"const,omitempty"`
	Inline   bool   `msgpack:"inline,omitempty"`
	CallConv string `msgpack:"callconv,omitempty"`
	Mangled  string `msgpack:"mangled,omitempty"`

	Reason   string         `msgpack:"reason,omitempty"`
	Children []SnapshotDecl `msgpack:"children,omitempty"`
}

// SnapshotConstant is an evaluated default argument.
type SnapshotConstant struct {
	Kind  string  `msgpack:"kind"`
	Int   int64   `msgpack:"int,omitempty"`
	Uint  uint64  `msgpack:"uint,omitempty"`
	Float float64 `msgpack:"float,omitempty"`
	Str   string  `msgpack:"str,omitempty"`
	Bool  bool    `msgpack:"bool,omitempty"`
}

type SnapshotMacro struct {
	Name         string   `msgpack:"name"`
	Body         string   `msgpack:"body"`
	Parameters   []string `msgpack:"params,omitempty"`
	FunctionLike bool     `msgpack:"function_like,omitempty"`
	File         int      `msgpack:"file"`
	Line         int64    `msgpack:"line,omitempty"`
}

type SnapshotDiagnostic struct {
	Severity string `msgpack:"severity"`
	Message  string `msgpack:"message"`
	File     string `msgpack:"file,omitempty"`
	Line     int64  `msgpack:"line,omitempty"`
}

// Decode reads a snapshot and checks its schema.
func Decode(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Schema != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchema, s.Schema, SchemaVersion)
	}
	return &s, nil
}

// Encode writes s, stamping the current schema version.
func Encode(w io.Writer, s *Snapshot) error {
	s.Schema = SchemaVersion
	return msgpack.NewEncoder(w).Encode(s)
}

// Read loads a snapshot from disk.
func Read(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Write stores s at path, replacing any existing file atomically.
func Write(path string, s *Snapshot) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "snapshot-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if err = Encode(f, s); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
