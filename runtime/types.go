package imrt

import "unsafe"

// Vec2 matches ImVec2.
type Vec2 struct {
	X, Y float32
}

type Vec3 struct {
	X, Y, Z float32
}

// Vec4 matches ImVec4.
type Vec4 struct {
	X, Y, Z, W float32
}

// Vector has the layout of ImVector<T>. The memory belongs to the native
// side.
type Vector[T any] struct {
	Size     int32
	Capacity int32
	Data     *T
}

func (v *Vector[T]) Len() int {
	if v == nil || v.Data == nil {
		return 0
	}
	return int(v.Size)
}

// At returns a pointer to element i. It panics when i is out of range.
func (v *Vector[T]) At(i int) *T {
	if i < 0 || i >= v.Len() {
		panic("imrt: vector index out of range")
	}
	return (*T)(unsafe.Add(unsafe.Pointer(v.Data), uintptr(i)*unsafe.Sizeof(*v.Data)))
}

// Slice views the elements without copying. The slice is valid until the
// native side reallocates the vector.
func (v *Vector[T]) Slice() []T {
	if v.Len() == 0 {
		return nil
	}
	return unsafe.Slice(v.Data, v.Len())
}

// Pointer is an element of a vector of pointers.
type Pointer[T any] struct {
	P *T
}

func (p Pointer[T]) Get() *T { return p.P }

func (p Pointer[T]) IsNil() bool { return p.P == nil }
