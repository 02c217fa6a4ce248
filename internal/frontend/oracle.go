package frontend

import (
	"fmt"

	"fortio.org/safecast"

	"imbind/internal/ir"
)

// Oracle answers raw type questions from a translated snapshot. It is
// immutable once built and safe for concurrent use.
type Oracle struct {
	types     map[ir.RawHandle]ir.RawTypeInfo
	canonical map[ir.RawHandle]ir.RawHandle
	byRef     map[ir.RawHandle]bool
}

var _ ir.Oracle = (*Oracle)(nil)

var rawClasses = map[string]ir.RawClass{
	"builtin":            ir.RawBuiltin,
	"pointer":            ir.RawPointer,
	"reference":          ir.RawReference,
	"typedef":            ir.RawTypedef,
	"record":             ir.RawRecord,
	"enum":               ir.RawEnum,
	"function":           ir.RawFunctionProto,
	"specialization":     ir.RawTemplateSpecialization,
	"array":              ir.RawArray,
	"template parameter": ir.RawTemplateParameter,
}

var callConvs = map[string]ir.CallConv{
	"":           ir.CallConvCdecl,
	"cdecl":      ir.CallConvCdecl,
	"stdcall":    ir.CallConvStdcall,
	"thiscall":   ir.CallConvThiscall,
	"fastcall":   ir.CallConvFastcall,
	"vectorcall": ir.CallConvVectorcall,
}

func parseCallConv(s string) (ir.CallConv, error) {
	cc, ok := callConvs[s]
	if !ok {
		return ir.CallConvCdecl, fmt.Errorf("unknown calling convention %q", s)
	}
	return cc, nil
}

// newOracle converts the type table. keys maps front-end declaration keys
// to the identities Translate assigned.
func newOracle(types []SnapshotType, keys map[uint64]ir.DeclID) (*Oracle, error) {
	o := &Oracle{
		types:     make(map[ir.RawHandle]ir.RawTypeInfo, len(types)),
		canonical: make(map[ir.RawHandle]ir.RawHandle),
		byRef:     make(map[ir.RawHandle]bool),
	}
	for i := range types {
		st := &types[i]
		info, err := convertType(st, keys)
		if err != nil {
			return nil, fmt.Errorf("type %d: %w", st.Handle, err)
		}
		if _, dup := o.types[info.Handle]; dup {
			return nil, fmt.Errorf("type %d: duplicate handle", st.Handle)
		}
		o.types[info.Handle] = info
		if st.Canonical != 0 && st.Canonical != st.Handle {
			o.canonical[info.Handle] = ir.RawHandle(st.Canonical)
		}
		if st.ByReference {
			o.byRef[info.Handle] = true
		}
	}
	return o, nil
}

func convertType(st *SnapshotType, keys map[uint64]ir.DeclID) (ir.RawTypeInfo, error) {
	class, ok := rawClasses[st.Class]
	if !ok {
		return ir.RawTypeInfo{}, fmt.Errorf("unknown type class %q", st.Class)
	}
	info := ir.RawTypeInfo{
		Handle:         ir.RawHandle(st.Handle),
		Class:          class,
		Spelling:       st.Spelling,
		Pointee:        ir.RawHandle(st.Pointee),
		PointeeIsConst: st.PointeeIsConst,
		TemplateName:   st.TemplateName,
		Return:         ir.RawHandle(st.Return),
	}
	if class == ir.RawBuiltin && st.Builtin != "void" {
		k, ok := ir.ParseBuiltinKind(st.Builtin)
		if !ok {
			return ir.RawTypeInfo{}, fmt.Errorf("unknown builtin %q", st.Builtin)
		}
		info.Builtin = k
	}
	n, err := safecast.Conv[int](st.ArrayLength)
	if err != nil {
		return ir.RawTypeInfo{}, fmt.Errorf("array length: %w", err)
	}
	info.ArrayLength = n
	if st.Decl != 0 {
		// A key the snapshot never declared stays NoDeclID, which later
		// surfaces as an untranslated type.
		info.Decl = keys[st.Decl]
	}
	for _, a := range st.TemplateArgs {
		info.TemplateArgs = append(info.TemplateArgs, ir.RawHandle(a))
	}
	for _, p := range st.Params {
		info.Params = append(info.Params, ir.RawHandle(p))
	}
	if info.CallConv, err = parseCallConv(st.CallConv); err != nil {
		return ir.RawTypeInfo{}, err
	}
	return info, nil
}

func (o *Oracle) ResolveType(h ir.RawHandle) (ir.RawTypeInfo, bool) {
	info, ok := o.types[h]
	return info, ok
}

// Canonical follows the sugar chain to its end.
func (o *Oracle) Canonical(h ir.RawHandle) ir.RawHandle {
	for hops := 0; hops <= len(o.canonical); hops++ {
		next, ok := o.canonical[h]
		if !ok {
			return h
		}
		h = next
	}
	return h
}

func (o *Oracle) Pointee(h ir.RawHandle) (ir.RawHandle, bool, bool) {
	info, ok := o.types[h]
	if !ok || (info.Class != ir.RawPointer && info.Class != ir.RawReference) {
		return 0, false, false
	}
	return info.Pointee, info.PointeeIsConst, true
}

func (o *Oracle) Specialization(h ir.RawHandle) (string, []ir.RawHandle, bool) {
	info, ok := o.types[o.Canonical(h)]
	if !ok || info.Class != ir.RawTemplateSpecialization {
		info, ok = o.types[h]
		if !ok || info.Class != ir.RawTemplateSpecialization {
			return "", nil, false
		}
	}
	return info.TemplateName, info.TemplateArgs, true
}

func (o *Oracle) MustPassByReference(h ir.RawHandle) bool {
	return o.byRef[h] || o.byRef[o.Canonical(h)]
}

// Spelling returns the front end's spelling of h, or "" when unknown.
func (o *Oracle) Spelling(h ir.RawHandle) string {
	return o.types[h].Spelling
}
