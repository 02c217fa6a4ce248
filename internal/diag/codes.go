package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Front end (1000-1999)
	FrnInfo            Code = 1000
	FrnParse           Code = 1001
	FrnUnknownHandle   Code = 1002
	FrnSnapshotVersion Code = 1003
	FrnUnknownDeclKind Code = 1004
	FrnMissingInput    Code = 1005

	// Translation passes (2000-2999)
	TrnInfo                 Code = 2000
	TrnTemplateArity        Code = 2001
	TrnUnsupportedType      Code = 2002
	TrnUnresolvedReference  Code = 2003
	TrnFieldRemoved         Code = 2004
	TrnUnknownTemplate      Code = 2005
	TrnUntranslatedType     Code = 2006
	TrnMissingMacro         Code = 2007
	TrnConstantEvaluation   Code = 2008
	TrnSizeMismatch         Code = 2009
	TrnNameCollision        Code = 2010
	TrnInvalidStringWrapper Code = 2011

	// Linking (3000-3999)
	LnkInfo            Code = 3000
	LnkMissingSymbol   Code = 3001
	LnkAmbiguousSymbol Code = 3002
	LnkLoadFailed      Code = 3003

	// Native build (4000-4999)
	NatInfo            Code = 4000
	NatBuildFailed     Code = 4001
	NatArtifactMissing Code = 4002

	// Emission (5000-5999)
	EmtInfo              Code = 5000
	EmtUnresolvedWrapper Code = 5001
	EmtWriteFailed       Code = 5002
	EmtUnknownType       Code = 5003
	EmtFileConflict      Code = 5004

	// Pipeline (6000-6999)
	PipInfo             Code = 6000
	PipConvergenceLimit Code = 6001
	PipStageSkipped     Code = 6002
)

var codeDescription = map[Code]string{
	UnknownCode:             "Unknown error",
	FrnInfo:                 "Front-end information",
	FrnParse:                "Header parsing problem",
	FrnUnknownHandle:        "Unknown front-end type handle",
	FrnSnapshotVersion:      "Unsupported snapshot schema",
	FrnUnknownDeclKind:      "Unknown declaration kind",
	FrnMissingInput:         "Missing input file",
	TrnInfo:                 "Translation information",
	TrnTemplateArity:        "Unexpected template arity",
	TrnUnsupportedType:      "Unsupported type",
	TrnUnresolvedReference:  "Unresolved declaration reference",
	TrnFieldRemoved:         "Field removed",
	TrnUnknownTemplate:      "Unrecognized template removed",
	TrnUntranslatedType:     "Type was not translated",
	TrnMissingMacro:         "Macro not found",
	TrnConstantEvaluation:   "Constant evaluation failed",
	TrnSizeMismatch:         "Unexpected record size",
	TrnNameCollision:        "Name collision resolved by renaming",
	TrnInvalidStringWrapper: "Invalid string wrapper",
	LnkInfo:                 "Linker information",
	LnkMissingSymbol:        "Missing symbol",
	LnkAmbiguousSymbol:      "Ambiguous symbol",
	LnkLoadFailed:           "Failed to load native library",
	NatInfo:                 "Native build information",
	NatBuildFailed:          "Native build failed",
	NatArtifactMissing:      "Native artifact missing",
	EmtInfo:                 "Emission information",
	EmtUnresolvedWrapper:    "Wrapped function could not be resolved",
	EmtWriteFailed:          "Failed to write output",
	EmtUnknownType:          "Type cannot be rendered",
	EmtFileConflict:         "Output file name conflict",
	PipInfo:                 "Pipeline information",
	PipConvergenceLimit:     "Pass did not converge",
	PipStageSkipped:         "Pipeline stage skipped",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("FRN%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("TRN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("LNK%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("NAT%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("EMT%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("PIP%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
