// Package imrt is the support package generated bindings import.
//
// Generated wrappers that take Go strings open a Frame, encode each string
// into a pinned, null-terminated buffer taken from a Pool, call the native
// symbol through the registered Invoker and release the frame in a defer,
// so buffers return to the pool exactly once whether the call returns or
// panics.
package imrt
