package imrt

import "sync"

// Pool hands out scratch buffers. Acquire returns a slice of length n;
// every acquired slice is passed to Release exactly once.
type Pool interface {
	Acquire(n int) []byte
	Release(b []byte)
}

const (
	minBufferCap = 64
	maxPooledCap = 64 << 10
)

// DefaultPool backs frames created without WithPool.
var DefaultPool Pool = &bytePool{}

type bytePool struct {
	p sync.Pool
}

func (bp *bytePool) Acquire(n int) []byte {
	if v, ok := bp.p.Get().(*[]byte); ok && cap(*v) >= n {
		return (*v)[:n]
	}
	return make([]byte, n, max(n, minBufferCap))
}

func (bp *bytePool) Release(b []byte) {
	if cap(b) > maxPooledCap {
		return
	}
	b = b[:0]
	bp.p.Put(&b)
}
