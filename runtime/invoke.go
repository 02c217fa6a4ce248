package imrt

import (
	"errors"
	"fmt"
	"sync"
)

// Symbol names an exported native function.
type Symbol struct {
	Library string
	Name    string
}

func (s Symbol) String() string {
	if s.Library == "" {
		return s.Name
	}
	return s.Library + "!" + s.Name
}

// Invoker performs a native call. result is nil for void functions,
// otherwise a pointer the return value is written through.
type Invoker interface {
	Invoke(sym Symbol, result any, args ...any) error
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(sym Symbol, result any, args ...any) error

func (f InvokerFunc) Invoke(sym Symbol, result any, args ...any) error {
	return f(sym, result, args...)
}

// ErrNoInvoker is returned before platform glue calls SetInvoker.
var ErrNoInvoker = errors.New("imrt: no invoker registered")

var (
	invokerMu sync.RWMutex
	invoker   Invoker
)

// SetInvoker registers the process-wide invoker and returns the previous
// one.
func SetInvoker(inv Invoker) Invoker {
	invokerMu.Lock()
	defer invokerMu.Unlock()
	prev := invoker
	invoker = inv
	return prev
}

func currentInvoker() Invoker {
	invokerMu.RLock()
	defer invokerMu.RUnlock()
	return invoker
}

// Invoke calls sym with the registered invoker.
func Invoke(sym Symbol, result any, args ...any) error {
	inv := currentInvoker()
	if inv == nil {
		return fmt.Errorf("%w: calling %s", ErrNoInvoker, sym)
	}
	if err := inv.Invoke(sym, result, args...); err != nil {
		return fmt.Errorf("imrt: %s: %w", sym, err)
	}
	return nil
}

// MustInvoke is Invoke for generated code: failures panic.
func MustInvoke(sym Symbol, result any, args ...any) {
	if err := Invoke(sym, result, args...); err != nil {
		panic(err)
	}
}

// Call invokes sym and returns its result.
func Call[R any](sym Symbol, args ...any) R {
	var r R
	MustInvoke(sym, &r, args...)
	return r
}

// CallVoid invokes sym and discards the result.
func CallVoid(sym Symbol, args ...any) {
	MustInvoke(sym, nil, args...)
}
