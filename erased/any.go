// Package erased holds values and references of arbitrary types behind a
// uniform interface, tagged with their typeid.Id.
package erased

import (
	"fmt"
	"reflect"
	"sync/atomic"
	"unsafe"

	"github.com/oliverbestmann/neat/internal/assert"
	"github.com/oliverbestmann/neat/internal/cast"
	"github.com/oliverbestmann/neat/typeid"
)

const inlineWords = 3

// InlineSize is the maximum size in bytes of a value stored inside an Any.
const InlineSize = inlineWords * unsafe.Sizeof(uint64(0))

type inlineBuffer [inlineWords]uint64

var inlineAlign = unsafe.Alignof(inlineBuffer{})

// Mode is the storage mode of an Any.
type Mode uint8

const (
	ModeEmpty Mode = iota
	ModeInline
	ModeBoxed
)

func (m Mode) String() string {
	switch m {
	case ModeEmpty:
		return "empty"
	case ModeInline:
		return "inline"
	case ModeBoxed:
		return "boxed"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Any owns zero or one value of an arbitrary type.
//
// Small pointer free values are stored in a buffer within the Any itself,
// everything else lives in a reference counted box on the heap. Copies made
// with Copy share the box. Assigning an Any with = aliases its storage without
// touching the reference count, use Copy, Take, Assign or MoveFrom instead.
//
// Go runs no code when an Any goes out of scope. Reset must be called to run
// the destructor of a value that implements Destroyer.
type Any struct {
	ty   *valueType
	box  *box
	mode Mode

	// storage for ModeInline. Only pointer free values are ever written here,
	// so the garbage collector never needs to look into it.
	inline inlineBuffer
}

// box is the header of a heap allocated value. The value follows the header
// within the same allocation.
type box struct {
	refs atomic.Int32
	ty   *valueType
	ptr  unsafe.Pointer
}

type boxOf[T any] struct {
	box
	value T
}

// newBoxOf allocates the box and the value in a single allocation.
func newBoxOf[T any](ty *valueType, value T) *box {
	b := &boxOf[T]{value: value}
	b.ty = ty
	b.ptr = unsafe.Pointer(&b.value)
	b.refs.Store(1)
	return &b.box
}

// newReflectBox allocates a box with the layout described by ty.boxType
// and copies value into it.
func newReflectBox(ty *valueType, value reflect.Value) *box {
	ptr := reflect.New(ty.boxType).UnsafePointer()

	b := (*box)(ptr)
	b.ty = ty
	b.ptr = unsafe.Add(ptr, ty.boxValueOffset)
	b.refs.Store(1)

	reflect.NewAt(ty.Type, b.ptr).Elem().Set(value)

	return b
}

func (b *box) retain() {
	b.refs.Add(1)
}

func (b *box) release() {
	refs := b.refs.Add(-1)

	switch {
	case refs == 0:
		if destroy := b.ty.destroy; destroy != nil {
			destroy(b.ptr)
		}

	case refs < 0:
		assert.Fail(assert.ErrInvalid, "box of %s released more often than retained", b.ty.Type)
	}
}

// New creates an Any holding a copy of value.
func New[T any](value T) Any {
	ty := valueTypeOf[T]()

	if ty.Inline {
		a := Any{ty: ty, mode: ModeInline}
		*cast.To[T](unsafe.Pointer(&a.inline)) = value
		return a
	}

	return Any{ty: ty, mode: ModeBoxed, box: newBoxOf(ty, value)}
}

// FromReflect creates an Any holding a copy of value. An invalid
// reflect.Value results in an empty Any.
func FromReflect(value reflect.Value) Any {
	if !value.IsValid() {
		return Any{}
	}

	ty := valueTypeOfReflect(value.Type())

	if ty.Inline {
		a := Any{ty: ty, mode: ModeInline}
		reflect.NewAt(ty.Type, unsafe.Pointer(&a.inline)).Elem().Set(value)
		return a
	}

	return Any{ty: ty, mode: ModeBoxed, box: newReflectBox(ty, value)}
}

// Load creates an Any holding a copy of the object referenced by ptr.
func Load(ptr AnyPtr) Any {
	if ptr.IsNil() {
		return Any{}
	}

	ty := valueTypeOfId(ptr.Type)

	if ty.Inline {
		a := Any{ty: ty, mode: ModeInline}
		cast.Copy(unsafe.Pointer(&a.inline), ptr.Ptr, ty.Size)
		return a
	}

	return Any{ty: ty, mode: ModeBoxed, box: ty.newBox(ptr.Ptr)}
}

// Store copies the value held by value into the object referenced by ptr.
func Store(ptr AnyPtr, value *Any) {
	if !value.HasValue() {
		assert.Fail(assert.ErrEmpty, "store into %s", ptr.Type)
	}

	assert.SameType(ptr.Type, value.TypeId(), "store")

	ty := value.ty
	if ty.Inline {
		cast.Copy(ptr.Ptr, value.pointer(), ty.Size)
		return
	}

	ty.copy(ptr.Ptr, value.pointer())
}

func valueTypeOfId(id typeid.Id) *valueType {
	reflectType, ok := typeid.TypeOf(id)
	if !ok {
		assert.Fail(assert.ErrTypeMismatch, "no go type known for %s", id)
	}

	return valueTypeOfReflect(reflectType)
}

// HasValue reports whether the Any holds a value.
func (a *Any) HasValue() bool {
	return a.mode != ModeEmpty
}

// TypeId returns the id of the held value, or typeid.Empty.
func (a *Any) TypeId() typeid.Id {
	if a.mode == ModeEmpty {
		return typeid.Empty
	}

	return a.ty.Id
}

// Type returns the go type of the held value, or nil.
func (a *Any) Type() reflect.Type {
	if a.mode == ModeEmpty {
		return nil
	}

	return a.ty.Type
}

func (a *Any) Mode() Mode {
	return a.mode
}

func (a *Any) pointer() unsafe.Pointer {
	switch a.mode {
	case ModeInline:
		return unsafe.Pointer(&a.inline)
	case ModeBoxed:
		return a.box.ptr
	default:
		return nil
	}
}

// Ptr returns an erased reference to the held value. For inline values the
// reference points into a itself and is only valid as long as a is not
// moved or reset.
func (a *Any) Ptr() AnyPtr {
	if a.mode == ModeEmpty {
		return AnyPtr{}
	}

	return AnyPtr{Ptr: a.pointer(), Type: a.ty.Id}
}

// Reflect returns an addressable reflect.Value of the held value.
func (a *Any) Reflect() reflect.Value {
	if a.mode == ModeEmpty {
		return reflect.Value{}
	}

	return reflect.NewAt(a.ty.Type, a.pointer()).Elem()
}

// Interface returns a copy of the held value as an ordinary interface value.
func (a *Any) Interface() any {
	if a.mode == ModeEmpty {
		return nil
	}

	return a.Reflect().Interface()
}

// Copy returns a copy in the same storage mode. A boxed value is shared
// between a and the copy.
func (a *Any) Copy() Any {
	c := *a

	if c.mode == ModeBoxed {
		c.box.retain()
	}

	return c
}

// Clone returns an independent copy, boxed values are copied into a new box.
func (a *Any) Clone() Any {
	switch a.mode {
	case ModeBoxed:
		return Any{ty: a.ty, mode: ModeBoxed, box: a.ty.newBox(a.box.ptr)}
	default:
		return *a
	}
}

// Take moves the content out of a. a is left empty.
func (a *Any) Take() Any {
	c := *a
	*a = Any{}
	return c
}

// Assign destroys the content of a and replaces it with a copy of other.
func (a *Any) Assign(other *Any) {
	if a == other {
		return
	}

	// retain before releasing, a and other might share a box
	c := other.Copy()

	a.Reset()
	*a = c
}

// MoveFrom destroys the content of a and moves the content of other into a.
func (a *Any) MoveFrom(other *Any) {
	if a == other {
		return
	}

	a.Reset()
	*a = other.Take()
}

// Reset destroys the content of a. If a held the last reference to a value
// with a destructor, the destructor runs before the storage is dropped.
func (a *Any) Reset() {
	switch a.mode {
	case ModeEmpty:
		return

	case ModeInline:
		// inline values are trivially destructible

	case ModeBoxed:
		a.box.release()
	}

	*a = Any{}
}

func (a *Any) String() string {
	if a.mode == ModeEmpty {
		return "Any(empty)"
	}

	return fmt.Sprintf("Any(%s: %v)", a.ty.Type, a.Interface())
}

func (a *Any) refCount() int {
	if a.mode != ModeBoxed {
		return 0
	}

	return int(a.box.refs.Load())
}

// Set destroys the content of a and replaces it with value.
func Set[T any](a *Any, value T) {
	a.Reset()
	*a = New(value)
}

// Value returns a pointer to the value held by a. It panics if a does not
// hold a T.
func Value[T any](a *Any) *T {
	ptr := ValuePtr[T](a)
	if ptr == nil {
		assert.SameType(typeid.Of[T](), a.TypeId(), "erased value")
	}

	return ptr
}

// ValuePtr returns a pointer to the value held by a, or nil if a does
// not hold a T.
func ValuePtr[T any](a *Any) *T {
	if a.mode == ModeEmpty || a.ty.Id != typeid.Of[T]() {
		return nil
	}

	return cast.To[T](a.pointer())
}
