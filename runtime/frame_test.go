package imrt

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
	"unsafe"

	"golang.org/x/text/unicode/norm"
)

// trackingPool records every buffer handed out and fails on unknown or
// repeated releases.
type trackingPool struct {
	live     map[*byte]bool
	acquired int
	released int
	bad      []string
}

func newTrackingPool() *trackingPool {
	return &trackingPool{live: make(map[*byte]bool)}
}

func (p *trackingPool) Acquire(n int) []byte {
	b := make([]byte, n)
	p.live[&b[0]] = true
	p.acquired++
	return b
}

func (p *trackingPool) Release(b []byte) {
	key := &b[:1][0]
	if !p.live[key] {
		p.bad = append(p.bad, "release of a buffer that is not live")
		return
	}
	delete(p.live, key)
	p.released++
}

func (p *trackingPool) check(t *testing.T) {
	t.Helper()
	if len(p.bad) > 0 {
		t.Fatalf("pool misuse: %v", p.bad)
	}
	if len(p.live) != 0 || p.acquired != p.released {
		t.Fatalf("unbalanced pool: acquired %d released %d live %d", p.acquired, p.released, len(p.live))
	}
}

func cString(p *byte) string {
	var sb strings.Builder
	for ; *p != 0; p = (*byte)(unsafe.Add(unsafe.Pointer(p), 1)) {
		sb.WriteByte(*p)
	}
	return sb.String()
}

func TestFrameString(t *testing.T) {
	pool := newTrackingPool()
	frame := NewFrame(WithPool(pool))
	buf := frame.String("Hello")
	if got := cString(buf.Ptr()); got != "Hello" {
		t.Fatalf("got %q", got)
	}
	if buf.Len() != 5 || *buf.End() != 0 {
		t.Fatalf("End must point at the terminator")
	}
	empty := frame.String("")
	if *empty.Ptr() != 0 || empty.Ptr() != empty.End() {
		t.Fatalf("empty string should be a lone terminator")
	}
	frame.Release()
	frame.Release()
	pool.check(t)
}

func TestFrameNormalizesAndReplaces(t *testing.T) {
	pool := newTrackingPool()
	frame := NewFrame(WithPool(pool))
	defer frame.Release()

	// A decomposed accent composes to a single rune.
	if got := string(frame.String("e\u0301").Bytes()); got != "\u00e9" {
		t.Fatalf("expected NFC output, got %q", got)
	}
	if got := string(frame.String("a\xffb").Bytes()); got != "a\uFFFDb" {
		t.Fatalf("expected replacement, got %q", got)
	}
}

func TestFrameStrictRejectsInvalid(t *testing.T) {
	pool := newTrackingPool()
	func() {
		frame := NewFrame(WithPool(pool), WithEncoding(Strict))
		defer frame.Release()
		defer func() {
			r := recover()
			var ce *ConversionError
			if err, ok := r.(error); !ok || !errors.As(err, &ce) {
				t.Fatalf("expected *ConversionError, got %v", r)
			}
		}()
		frame.String("ok")
		frame.String("bad\xff")
	}()
	pool.check(t)
}

func TestFrameAfterRelease(t *testing.T) {
	frame := NewFrame(WithPool(newTrackingPool()))
	frame.Release()
	defer func() {
		if recover() == nil {
			t.Fatalf("String after Release should panic")
		}
	}()
	frame.String("x")
}

// wrapper has the shape of a generated string wrapper.
func wrapper(pool Pool, enc Encoding, label, hint string, callee func(a, b, end *byte)) {
	frame := NewFrame(WithPool(pool), WithEncoding(enc))
	defer frame.Release()
	labelBuf := frame.String(label)
	hintBuf := frame.String(hint)
	callee(labelBuf.Ptr(), hintBuf.Ptr(), hintBuf.End())
}

func TestWrapperReleasesOnEveryPath(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pool := newTrackingPool()
	alphabet := []string{"a", "Z", "0", " ", "\u00e9", "e\u0301", "\u4e16", "\U0001F600"}
	word := func() string {
		var sb strings.Builder
		for n := rng.Intn(12); n > 0; n-- {
			sb.WriteString(alphabet[rng.Intn(len(alphabet))])
		}
		return sb.String()
	}

	var conversions, panics, ok int
	for i := range 100 {
		label, hint := word(), word()
		// Every 10th call fails converting its second string, every 7th
		// panics inside the callee.
		if i%10 == 3 {
			hint += "\xfe"
		}
		calleePanics := i%7 == 5
		func() {
			defer func() {
				switch r := recover().(type) {
				case nil:
					ok++
				case *ConversionError:
					conversions++
				case string:
					panics++
				default:
					t.Fatalf("call %d: unexpected panic %v", i, r)
				}
			}()
			wrapper(pool, Strict, label, hint, func(a, b, end *byte) {
				if got := cString(a); got != norm.NFC.String(label) {
					t.Errorf("call %d: label %q arrived as %q", i, label, got)
				}
				if *end != 0 {
					t.Errorf("call %d: end is not the terminator", i)
				}
				if calleePanics {
					panic("callee failed")
				}
			})
		}()
		pool.check(t)
	}
	if conversions == 0 || panics == 0 || ok == 0 {
		t.Fatalf("expected every path to run: ok %d conversion %d panic %d", ok, conversions, panics)
	}
}

func TestFrameGrowsDestination(t *testing.T) {
	pool := newTrackingPool()
	frame := NewFrame(WithPool(pool))
	in := strings.Repeat("\xff", 16)
	out := frame.String(in)
	if out.Len() != 16*3 {
		t.Fatalf("expected 48 bytes of replacement runes, got %d", out.Len())
	}
	if pool.acquired < 2 {
		t.Fatalf("expected the buffer to grow")
	}
	frame.Release()
	pool.check(t)
}

func TestDefaultPoolReuse(t *testing.T) {
	b := DefaultPool.Acquire(10)
	if len(b) != 10 {
		t.Fatalf("len %d", len(b))
	}
	DefaultPool.Release(b)
	c := DefaultPool.Acquire(20)
	if len(c) != 20 {
		t.Fatalf("len %d", len(c))
	}
	DefaultPool.Release(c)
}
