// Package errors provides the structured diagnostic type shared by every
// compilation phase, plus the error-code taxonomy of the error handling
// design.
package errors

// Error code constants organized by phase. Each constant is a specific,
// stable condition a caller can match on without parsing the message.
const (
	// Parser errors (PAR###) — lex/parse failures, file-local.
	ParUnexpectedToken = "PAR001"
	ParUnclosedDelim   = "PAR002"
	ParBadModuleHeader = "PAR003"
	ParBadImport       = "PAR004"
	ParBadDecl         = "PAR005"
	ParBadStringLit    = "PAR006"
	ParBadNumberLit    = "PAR007"

	// Module errors (MOD###) — duplicate/invalid names, module-local.
	ModDuplicateName   = "MOD001"
	ModUnresolvedName  = "MOD002"
	ModUnexportedItem  = "MOD003"
	ModUnknownExport   = "MOD004"
	ModDuplicateImport = "MOD005"
	ModUnusedImport    = "MOD006"
	ModUnusedBinding   = "MOD007"

	// Type checking errors (TYP###) — expression-local.
	TypMismatch          = "TYP001"
	TypInfiniteType      = "TYP002"
	TypArityMismatch     = "TYP003"
	TypKindMismatch      = "TYP004"
	TypRedundantAnnotation = "TYP005"

	// Codegen errors (GEN###) — internal invariant violations.
	GenUnresolvedSurvived = "GEN001"
	GenFreeTypeVar        = "GEN002"

	// Build-graph errors (BLD###).
	BldMissingInterface = "BLD001"
	BldUnknownModule    = "BLD002"
	BldCycle            = "BLD003"
	BldIOError          = "BLD004"
	BldBadFormatVersion = "BLD005"
)

// Phase names used in Report.Phase.
const (
	PhaseParse   = "parse"
	PhaseLower   = "lower"
	PhaseCheck   = "typecheck"
	PhaseCodegen = "codegen"
	PhaseBuild   = "build"
)
