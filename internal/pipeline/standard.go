package pipeline

import (
	"context"
	"strings"

	"imbind/internal/config"
	"imbind/internal/diag"
	"imbind/internal/ir"
	"imbind/internal/passes"
)

// NativeFunc builds the native helper library for lib and returns the
// artifacts to link against. It may return an updated library.
type NativeFunc func(ctx context.Context, lib *ir.Library) (*ir.Library, []string, error)

// LinkFunc attaches symbol names using the given artifacts.
type LinkFunc func(ctx context.Context, lib *ir.Library, artifacts []string) (*ir.Library, error)

// EmitFunc writes the binding and returns generation diagnostics.
type EmitFunc func(ctx context.Context, lib *ir.Library) ([]diag.Diagnostic, error)

// Collaborators are the steps that leave the process. Nil entries are
// skipped.
type Collaborators struct {
	Native NativeFunc
	Link   LinkFunc
	Emit   EmitFunc
}

// Standard returns the ImGui pipeline configured by cfg. The returned
// extractor owns the quarantine of both extraction steps.
func Standard(cfg *config.Config, c Collaborators) ([]Step, *passes.BrokenExtractor) {
	conv := cfg.Conventions
	extractor := &passes.BrokenExtractor{}
	optOuts := make([]passes.OptOut, len(cfg.Strings.OptOut))
	for i, o := range cfg.Strings.OptOut {
		optOuts[i] = passes.OptOut{Function: o.Function, Arity: o.Arity}
	}
	internal := passes.DefaultInternalFixup()
	internal.File = conv.InternalHeader

	steps := []Step{
		PassStep(StagePasses, passes.RemoveUnneeded{Names: conv.Unneeded}),
		PassStep(StagePasses, passes.EnumNormalize{Marker: conv.EnumMarker, FlagsSuffix: conv.FlagsSuffix}),
		PassStep(StagePasses, passes.KeyEnumWorkaround{Enum: conv.KeyEnum, SpellDigits: conv.SpellDigits}),
		PassStep(StagePasses, extractor),
		PassStep(StagePasses, passes.RemoveExplicitBitFieldPaddingFields{}),
		PassStep(StagePasses, passes.ConstOverloadRename{}),
		PassStep(StagePasses, passes.MakeEverythingPublic{}),
		ConvergeStep(StagePasses, &passes.VectorErasure{Template: conv.VectorTemplate}, conv.MaxIterations),
		PassStep(StagePasses, passes.TypeReduction{}),
		PassStep(StagePasses, passes.MiscFixes{Typedefs: TypedefOverrides(conv.Typedefs)}),
		PassStep(StagePasses, passes.LiftAnonymousRecordFields{}),
		PassStep(StagePasses, internal),
		PassStep(StagePasses, passes.FixupFunctionPointerReturns{}),
		PassStep(StagePasses, passes.Namespaces{ByFile: cfg.Namespaces.Files, Default: cfg.Namespaces.Root}),
		PassStep(StagePasses, passes.RemoveIllegalVectorReferences{}),
		PassStep(StagePasses, passes.MoveLooseDeclarations{
			Container: passes.ByNamespace(cfg.Namespaces.Containers),
			Default:   cfg.Namespaces.DefaultContainer,
		}),
		PassStep(StagePasses, passes.AutoNameParameters{}),
		PassStep(StagePasses, passes.CreateTrampolines{}),
		PassStep(StagePasses, passes.StringWrappers{
			Suffix:    cfg.Strings.Suffix,
			EndSuffix: cfg.Strings.EndSuffix,
			OptOuts:   optOuts,
		}),
		PassStep(StagePasses, passes.StripUnreferencedLazyDeclarations{}),
		PassStep(StagePasses, passes.Deduplicate{FlattenContainers: true}),
		PassStep(StagePasses, passes.OrganizeOutputFiles{Root: cfg.Namespaces.Root}),
		PassStep(StagePasses, passes.VersionConstants{Anchor: conv.VersionAnchor, Macros: conv.VersionMacros}),
		PassStep(StagePasses, passes.DefaultVectorTypes()),
	}

	if c.Native != nil {
		steps = append(steps, Step{Name: "native-build", Stage: StageNative, Run: func(ctx context.Context, st *State) error {
			lib, artifacts, err := c.Native(ctx, st.Library)
			if lib != nil {
				st.Library = lib
			}
			if err != nil {
				st.Library = st.Library.WithDiagnostics(diag.Newf(diag.SevFatal, diag.NatBuildFailed, "native build failed: %v", err))
				st.skipLink = true
				return nil
			}
			st.Artifacts = append(st.Artifacts, artifacts...)
			return nil
		}})
	}
	if c.Link != nil {
		steps = append(steps, Step{Name: "link-imports", Stage: StageLink, Run: func(ctx context.Context, st *State) error {
			if st.skipLink {
				st.Skip("link-imports", "the native build failed")
				return nil
			}
			lib, err := c.Link(ctx, st.Library, st.Artifacts)
			if err != nil {
				return err
			}
			st.Library = lib
			return nil
		}})
	}
	steps = append(steps,
		PassStep(StageVerify, passes.Verify{}),
		Step{Name: "final-broken-extractor", Stage: StageVerify, Run: PassStep(StageVerify, extractor).Run},
	)
	if c.Emit != nil {
		steps = append(steps, Step{Name: "emit", Stage: StageEmit, Run: func(ctx context.Context, st *State) error {
			diags, err := c.Emit(ctx, st.Library)
			st.Library = st.Library.WithDiagnostics(diags...)
			return err
		}})
	}
	return steps, extractor
}

// TypedefOverrides parses typedef override spellings: a builtin kind name
// such as "char16", or a Go type such as "rune" or "unsafe.Pointer".
func TypedefOverrides(spellings map[string]string) map[string]ir.TypeRef {
	out := make(map[string]ir.TypeRef, len(spellings))
	for name, s := range spellings {
		out[name] = parseTypeSpelling(s)
	}
	return out
}

func parseTypeSpelling(s string) ir.TypeRef {
	s = strings.TrimSpace(s)
	if s == "void" {
		return ir.VoidType{}
	}
	if k, ok := ir.ParseBuiltinKind(s); ok {
		return ir.Builtin(k)
	}
	if i := strings.LastIndexByte(s, '.'); i > 0 {
		return ir.ExternalType{Namespace: s[:i], Name: s[i+1:]}
	}
	return ir.ExternalType{Name: s}
}
