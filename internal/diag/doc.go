// Package diag defines the diagnostic model shared by every stage of the
// binding generator.
//
// # Purpose
//
//   - Provide deterministic, serialisable records for findings produced by
//     the front-end adapter, the transformation passes, the linker and the
//     emitter.
//   - Offer light-weight utilities (Reporter, Bag) so producers can emit
//     diagnostics without coupling to storage or formatting.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – five-level lattice Ignored < Note < Warning < Error < Fatal.
//   - Code – compact numeric identifier (see codes.go) with a stable string form.
//   - Message – short, actionable text.
//   - Location – optional (file, line) pair reported by the front end.
//
// Diagnostics never abort a pass. They are attached to declarations, type
// references or the library as data and consumed once the pipeline ends.
//
// # Consumers
//
//   - internal/transform merges hook diagnostics into declarations.
//   - internal/passes quarantines declarations carrying Error or Fatal entries.
//   - internal/diagfmt renders the final log.
package diag
