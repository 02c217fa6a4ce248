package imrt

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Encoding builds the transformer a frame runs strings through. Each call
// returns a fresh transformer.
type Encoding func() transform.Transformer

var (
	// Lossy replaces ill-formed UTF-8 with U+FFFD and normalizes to NFC.
	Lossy Encoding = func() transform.Transformer {
		return transform.Chain(unicode.UTF8.NewEncoder(), norm.NFC)
	}
	// Strict rejects ill-formed UTF-8 and normalizes to NFC.
	Strict Encoding = func() transform.Transformer {
		return transform.Chain(encoding.UTF8Validator, norm.NFC)
	}
)

// ConversionError is the panic value of Frame.String when the encoding
// fails.
type ConversionError struct {
	Input string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("imrt: cannot encode %q: %v", e.Input, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

var errReleased = errors.New("imrt: frame used after Release")

// Frame owns the buffers of one native call.
type Frame struct {
	pool     Pool
	encoding Encoding
	buffers  [][]byte
	pinner   runtime.Pinner
	released bool
}

type FrameOption func(*Frame)

func WithPool(p Pool) FrameOption {
	return func(f *Frame) { f.pool = p }
}

func WithEncoding(e Encoding) FrameOption {
	return func(f *Frame) { f.encoding = e }
}

func NewFrame(opts ...FrameOption) *Frame {
	f := &Frame{pool: DefaultPool, encoding: Lossy}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Buffer is an encoded, null-terminated string pinned for the lifetime of
// its frame.
type Buffer struct {
	data []byte
	n    int
}

// Ptr points at the first byte.
func (b Buffer) Ptr() *byte { return &b.data[0] }

// End points at the terminating zero, one past the last encoded byte.
func (b Buffer) End() *byte { return &b.data[b.n] }

// Len is the encoded length without the terminator.
func (b Buffer) Len() int { return b.n }

func (b Buffer) Bytes() []byte { return b.data[:b.n] }

// String encodes s into a buffer owned by f. It panics with
// *ConversionError when the encoding fails; buffers acquired up to that
// point are still released by Release.
func (f *Frame) String(s string) Buffer {
	if f.released {
		panic(errReleased)
	}
	t := f.encoding()
	src := unsafe.Slice(unsafe.StringData(s), len(s))
	size := len(s) + 1
	for {
		buf := f.acquire(size)
		n, _, err := t.Transform(buf[:size-1], src, true)
		switch {
		case err == nil:
			buf[n] = 0
			f.pinner.Pin(&buf[0])
			return Buffer{data: buf, n: n}
		case errors.Is(err, transform.ErrShortDst):
			t.Reset()
			size *= 2
		default:
			panic(&ConversionError{Input: s, Err: err})
		}
	}
}

func (f *Frame) acquire(n int) []byte {
	b := f.pool.Acquire(n)
	f.buffers = append(f.buffers, b)
	if len(b) < n {
		panic(fmt.Sprintf("imrt: pool returned %d bytes, want %d", len(b), n))
	}
	return b
}

// Release unpins and returns every buffer. It is safe to call more than
// once; only the first call has an effect.
func (f *Frame) Release() {
	if f.released {
		return
	}
	f.released = true
	f.pinner.Unpin()
	for _, b := range f.buffers {
		f.pool.Release(b)
	}
	f.buffers = nil
}
