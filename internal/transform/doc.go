// Package transform applies passes to an ir.Library.
//
// A Pass is a factory: Begin returns a fresh Hooks value for one run, so
// state kept on the hooks cannot leak into the next invocation. Hooks embed
// Base, which supplies identity defaults for every hook.
//
// For each declaration the engine first rewrites its type slots through the
// type hooks, then calls TransformDeclaration and, when that keeps the node,
// the kind-specific hook, and finally recurses into the children of every
// resulting declaration. A parent is rebuilt only when one of its children
// changed.
package transform
