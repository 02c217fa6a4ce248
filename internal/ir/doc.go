// Package ir defines the persistent declaration graph that every pass of the
// generator consumes and produces.
//
// # Shape
//
// A Library is an immutable snapshot: ordered Files, ordered root
// declarations, library-wide diagnostics, the macro table and handles to the
// front-end oracle and constant evaluator. Declarations form a tree by
// containment (Record members, Enum values, Function parameters). Cross
// references are weak: a DeclRef names its target by DeclID and is resolved
// through the index of whatever snapshot is current. Resolution may fail and
// callers must treat "not found" as an ordinary outcome.
//
// # Copy on write
//
// Nothing in this package mutates a published node. Passes call Clone on the
// concrete type, change the copy and return it; untouched subtrees are shared
// between snapshots and compared by pointer identity.
//
// # Extension points
//
// CustomType and CustomDecl let a pass introduce constructs the closed core
// set cannot express. They carry their own child transformation and their own
// rendering, so the engine and the emitter never need to know about them.
package ir
