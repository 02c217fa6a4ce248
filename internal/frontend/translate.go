package frontend

import (
	"context"
	"fmt"
	"strings"

	"fortio.org/safecast"

	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/trace"
)

// Declaration kinds the front end reports but the IR passes through as
// ir.Unsupported without complaint.
var passthroughKinds = map[string]bool{
	"FunctionTemplate":                   true,
	"ClassTemplate":                      true,
	"ClassTemplatePartialSpecialization": true,
	"TypeAliasTemplate":                  true,
	"Using":                              true,
	"UsingDirective":                     true,
	"StaticAssert":                       true,
	"Variable":                           true,
	"Friend":                             true,
}

type translator struct {
	snap  *Snapshot
	files []*ir.File
	keys  map[uint64]ir.DeclID
	diags []diag.Diagnostic
	count int
}

// Translate builds the first library snapshot of a lineage from s. Types
// stay raw; TypeReduction resolves them later through the returned
// library's oracle.
func Translate(ctx context.Context, s *Snapshot) (*ir.Library, error) {
	_, span := trace.Start(ctx, trace.ScopeStage, "translate")
	if s.Schema != SchemaVersion {
		span.End("schema mismatch")
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchema, s.Schema, SchemaVersion)
	}

	t := &translator{snap: s, keys: make(map[uint64]ir.DeclID)}
	for _, f := range s.Files {
		t.files = append(t.files, &ir.File{Path: f.Path, InScope: f.InScope})
	}
	for _, d := range s.Diagnostics {
		x, err := t.diagnostic(d)
		if err != nil {
			span.End(err.Error())
			return nil, err
		}
		t.diags = append(t.diags, x)
	}

	decls := make([]ir.Decl, 0, len(s.Decls))
	for i := range s.Decls {
		d, err := t.decl(&s.Decls[i])
		if err != nil {
			span.End(err.Error())
			return nil, err
		}
		decls = append(decls, d)
	}

	macros := make([]*ir.Macro, 0, len(s.Macros))
	for _, sm := range s.Macros {
		m := ir.NewMacro(sm.Name, sm.Body)
		m.Parameters = sm.Parameters
		m.IsFunctionLike = sm.FunctionLike
		if err := t.locate(&m.Base, sm.File, sm.Line); err != nil {
			span.End(err.Error())
			return nil, fmt.Errorf("macro %s: %w", sm.Name, err)
		}
		macros = append(macros, m)
	}

	oracle, err := newOracle(s.Types, t.keys)
	if err != nil {
		span.End(err.Error())
		return nil, err
	}

	lib := ir.NewLibrary(ir.LibraryParts{
		Files:        t.files,
		Declarations: decls,
		Diagnostics:  t.diags,
		Macros:       macros,
		Oracle:       oracle,
		Evaluator:    NewMacroEvaluator(),
	})
	span.End(fmt.Sprintf("%d declarations, %d types, %d macros", t.count, len(s.Types), len(macros)))
	return lib, nil
}

func (t *translator) diagnostic(d SnapshotDiagnostic) (diag.Diagnostic, error) {
	sev := diag.SevError
	if d.Severity != "" {
		var err error
		if sev, err = diag.ParseSeverity(d.Severity); err != nil {
			return diag.Diagnostic{}, err
		}
	}
	line, err := safecast.Conv[int](d.Line)
	if err != nil {
		return diag.Diagnostic{}, fmt.Errorf("diagnostic line: %w", err)
	}
	x := diag.New(sev, diag.FrnParse, d.Message)
	x.Location = diag.Location{File: d.File, Line: line}
	return x, nil
}

func (t *translator) locate(b *ir.Base, file int, line int64) error {
	n, err := safecast.Conv[int](line)
	if err != nil {
		return fmt.Errorf("line: %w", err)
	}
	b.Line = n
	switch {
	case file < 0:
	case file < len(t.files):
		b.File = t.files[file]
	default:
		return fmt.Errorf("file index %d out of range", file)
	}
	return nil
}

func rawType(h uint64) ir.TypeRef {
	if h == 0 {
		return ir.VoidType{}
	}
	return ir.RawType{Handle: ir.RawHandle(h)}
}

func toInt(what string, v int64) (int, error) {
	n, err := safecast.Conv[int](v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	return n, nil
}

func (t *translator) decl(sd *SnapshotDecl) (ir.Decl, error) {
	d, err := t.build(sd)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", sd.Kind, sd.Name, err)
	}
	b := d.Common()
	b.Namespace = sd.Namespace
	if b.Accessibility, err = parseAccess(sd.Access); err != nil {
		return nil, fmt.Errorf("%s %s: %w", sd.Kind, sd.Name, err)
	}
	if err := t.locate(b, sd.File, sd.Line); err != nil {
		return nil, fmt.Errorf("%s %s: %w", sd.Kind, sd.Name, err)
	}
	if u, ok := d.(*ir.Unsupported); ok && !passthroughKinds[sd.Kind] {
		d = ir.WithDiagnostics(u, diag.Newf(diag.SevWarning, diag.FrnUnknownDeclKind,
			"declaration kind '%s' is not modeled and was passed through", sd.Kind))
		b = d.Common()
	}
	if sd.Key != 0 {
		if _, dup := t.keys[sd.Key]; dup {
			return nil, fmt.Errorf("%s %s: duplicate key %d", sd.Kind, sd.Name, sd.Key)
		}
		t.keys[sd.Key] = b.ID()
	}
	t.count++
	return d, nil
}

func (t *translator) build(sd *SnapshotDecl) (ir.Decl, error) {
	switch sd.Kind {
	case "Record":
		return t.record(sd)
	case "Enum":
		return t.enum(sd)
	case "EnumConstant":
		c := ir.NewEnumConstant(sd.Name, sd.Value)
		c.HasExplicitValue = sd.HasValue
		return c, nil
	case "Function":
		return t.function(sd)
	case "Parameter":
		return t.parameter(sd)
	case "Field":
		return t.field(sd)
	case "Typedef":
		if sd.Type == 0 {
			return nil, fmt.Errorf("typedef without underlying type")
		}
		return ir.NewTypedef(sd.Name, rawType(sd.Type)), nil
	}
	return ir.NewUnsupported(sd.Name, sd.Kind, sd.Reason), nil
}

func (t *translator) record(sd *SnapshotDecl) (*ir.Record, error) {
	r := ir.NewRecord(sd.Name)
	switch strings.ToLower(sd.RecordKind) {
	case "", "struct":
		r.RecordKind = ir.RecordStruct
	case "class":
		r.RecordKind = ir.RecordClass
	case "union":
		r.RecordKind = ir.RecordUnion
	default:
		return nil, fmt.Errorf("unknown record kind %q", sd.RecordKind)
	}
	var err error
	if r.Size, err = toInt("size", sd.Size); err != nil {
		return nil, err
	}
	if r.Alignment, err = toInt("alignment", sd.Alignment); err != nil {
		return nil, err
	}
	r.IsUndefined = sd.Undefined
	r.IsAnonymous = sd.Anonymous
	for i := range sd.Children {
		m, err := t.decl(&sd.Children[i])
		if err != nil {
			return nil, err
		}
		r.Members = append(r.Members, m)
	}
	return r, nil
}

func (t *translator) enum(sd *SnapshotDecl) (*ir.Enum, error) {
	e := ir.NewEnum(sd.Name)
	if sd.Type != 0 {
		e.UnderlyingType = rawType(sd.Type)
	}
	for i := range sd.Children {
		c, err := t.decl(&sd.Children[i])
		if err != nil {
			return nil, err
		}
		v, ok := c.(*ir.EnumConstant)
		if !ok {
			return nil, fmt.Errorf("enum member %s is a %s", c.Common().Name, c.Kind())
		}
		e.Values = append(e.Values, v)
	}
	return e, nil
}

func (t *translator) function(sd *SnapshotDecl) (*ir.Function, error) {
	f := ir.NewFunction(sd.Name, rawType(sd.Type))
	switch sd.Special {
	case "":
	case "constructor":
		f.Special = ir.SpecialConstructor
	case "destructor":
		f.Special = ir.SpecialDestructor
	case "operator":
		f.Special = ir.SpecialOperator
	case "conversion":
		f.Special = ir.SpecialConversion
	default:
		return nil, fmt.Errorf("unknown special function %q", sd.Special)
	}
	f.IsInstanceMethod = sd.Instance
	f.IsVirtual = sd.Virtual
	f.IsConst = sd.Const
	f.IsInline = sd.Inline
	f.MangledName = sd.Mangled
	var err error
	if f.CallConv, err = parseCallConv(sd.CallConv); err != nil {
		return nil, err
	}
	for i := range sd.Children {
		c, err := t.decl(&sd.Children[i])
		if err != nil {
			return nil, err
		}
		p, ok := c.(*ir.Parameter)
		if !ok {
			return nil, fmt.Errorf("function member %s is a %s", c.Common().Name, c.Kind())
		}
		f.Parameters = append(f.Parameters, p)
	}
	return f, nil
}

func (t *translator) parameter(sd *SnapshotDecl) (*ir.Parameter, error) {
	if sd.Type == 0 {
		return nil, fmt.Errorf("parameter without type")
	}
	p := ir.NewParameter(sd.Name, rawType(sd.Type))
	p.ImplicitlyPassedByReference = sd.ByReference
	if sd.Default != nil {
		v, err := constant(sd.Default)
		if err != nil {
			return nil, err
		}
		p.DefaultValue = &v
	}
	return p, nil
}

func (t *translator) field(sd *SnapshotDecl) (*ir.Field, error) {
	if sd.Type == 0 {
		return nil, fmt.Errorf("field without type")
	}
	offset, err := toInt("offset", sd.Offset)
	if err != nil {
		return nil, err
	}
	f := ir.NewField(sd.Name, rawType(sd.Type), offset)
	if f.BitWidth, err = toInt("bit width", sd.BitWidth); err != nil {
		return nil, err
	}
	if f.BitOffset, err = toInt("bit offset", sd.BitOffset); err != nil {
		return nil, err
	}
	return f, nil
}

func constant(c *SnapshotConstant) (ir.ConstantValue, error) {
	switch c.Kind {
	case "int":
		return ir.IntValue(c.Int), nil
	case "uint":
		return ir.UintValue(c.Uint), nil
	case "float":
		return ir.FloatValue(c.Float), nil
	case "string":
		return ir.StringValue(c.Str), nil
	case "bool":
		return ir.BoolValue(c.Bool), nil
	case "null":
		return ir.NullValue(), nil
	}
	return ir.ConstantValue{}, fmt.Errorf("unknown constant kind %q", c.Kind)
}

func parseAccess(s string) (ir.Accessibility, error) {
	switch s {
	case "", "public":
		return ir.AccessPublic, nil
	case "internal":
		return ir.AccessInternal, nil
	case "protected":
		return ir.AccessProtected, nil
	case "private":
		return ir.AccessPrivate, nil
	}
	return ir.AccessPublic, fmt.Errorf("unknown accessibility %q", s)
}
