// Package cast is the only place that turns an erased unsafe.Pointer back into
// a typed pointer. Every caller must have proven the type identity first.
package cast

import (
	"math"
	"reflect"
	"unsafe"
)

// To reinterprets ptr as a *T.
func To[T any](ptr unsafe.Pointer) *T {
	return (*T)(ptr)
}

// TypePointer returns the address of the runtime type descriptor of t.
// Two reflect.Type values describe the same type iff their pointers are equal.
func TypePointer(t reflect.Type) unsafe.Pointer {
	type eface struct {
		typ, val unsafe.Pointer
	}

	// a reflect.Type is backed by an *rType. The rType contains a abi.Type as
	// its first value. This means, that a *rType can be re-interpreted as *abi.Type
	return (*eface)(unsafe.Pointer(&t)).val
}

type buf *[math.MaxInt32]byte

// Copy copies size raw bytes. Only valid for values without Go pointers.
func Copy(to, from unsafe.Pointer, size uintptr) {
	if size == 0 {
		return
	}

	dst := (*buf(to))[:size]
	src := (*buf(from))[:size]
	copy(dst, src)
}

// Offset returns the distance of member from base in bytes.
func Offset[O, F any](base *O, member *F) uintptr {
	return uintptr(unsafe.Pointer(member)) - uintptr(unsafe.Pointer(base))
}
