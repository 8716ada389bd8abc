package erased

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/oliverbestmann/neat/internal/assert"
	"github.com/oliverbestmann/neat/internal/cast"
	"github.com/oliverbestmann/neat/typeid"
)

// AnyPtr is a non owning reference to an object together with the id of its type.
// Two AnyPtr values are equal if they reference the same address with the same type.
type AnyPtr struct {
	Ptr  unsafe.Pointer
	Type typeid.Id
}

// PtrOf erases ptr.
func PtrOf[T any](ptr *T) AnyPtr {
	return AnyPtr{Ptr: unsafe.Pointer(ptr), Type: typeid.Of[T]()}
}

// Cast returns the referenced object as a *T. It panics if ptr does not
// reference a T.
func Cast[T any](ptr AnyPtr) *T {
	assert.SameType(typeid.Of[T](), ptr.Type, "erased pointer")
	return cast.To[T](ptr.Ptr)
}

// TryCast returns the referenced object as a *T, or nil if ptr does not
// reference a T.
func TryCast[T any](ptr AnyPtr) *T {
	if ptr.Type != typeid.Of[T]() {
		return nil
	}

	return cast.To[T](ptr.Ptr)
}

func (p AnyPtr) IsNil() bool {
	return p.Ptr == nil
}

// Reflect returns an addressable reflect.Value of the referenced object.
func (p AnyPtr) Reflect() reflect.Value {
	if p.IsNil() {
		return reflect.Value{}
	}

	return reflect.NewAt(valueTypeOfId(p.Type).Type, p.Ptr).Elem()
}

// Interface returns the reference as a typed pointer wrapped in an interface.
func (p AnyPtr) Interface() any {
	if p.IsNil() {
		return nil
	}

	return p.Reflect().Addr().Interface()
}

// Offset returns a reference to a member of type fieldType at offset bytes
// into the referenced object.
func (p AnyPtr) Offset(offset uintptr, fieldType typeid.Id) AnyPtr {
	return AnyPtr{Ptr: unsafe.Add(p.Ptr, offset), Type: fieldType}
}

func (p AnyPtr) String() string {
	if p.IsNil() {
		return fmt.Sprintf("AnyPtr(nil, %s)", p.Type)
	}

	return fmt.Sprintf("AnyPtr(%p, %s)", p.Ptr, p.Type)
}
