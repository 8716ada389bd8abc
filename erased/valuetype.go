package erased

import (
	"log/slog"
	"maps"
	"reflect"
	"sync/atomic"
	"unsafe"

	"github.com/oliverbestmann/neat/internal/cast"
	"github.com/oliverbestmann/neat/internal/refl"
	"github.com/oliverbestmann/neat/typeid"
)

// Destroyer is implemented by types with a destructor. The method must be
// declared on the pointer receiver. An Any holding such a value calls Destroy
// exactly once, when the last reference to the value is released.
type Destroyer interface {
	Destroy()
}

var destroyerType = reflect.TypeFor[Destroyer]()

var boxType = reflect.TypeFor[box]()

// valueType holds everything an Any needs to know about the type it holds.
type valueType struct {
	Id   typeid.Id
	Type reflect.Type
	Size uintptr

	// Inline is set if values of this type are stored in the inline buffer
	// of an Any: small enough, loosely aligned, pointer free and without destructor.
	Inline bool

	// copies a value of this type from one location to another
	copy func(to, from unsafe.Pointer)

	// allocates a new box holding a copy of the value at from
	newBox func(from unsafe.Pointer) *box

	// layout of a box holding a value of this type, used when the value
	// is only available as a reflect.Value
	boxType        reflect.Type
	boxValueOffset uintptr

	// runs the destructor of the value at ptr. nil for trivially destructible types.
	destroy func(ptr unsafe.Pointer)
}

var valueTypes atomic.Pointer[map[unsafe.Pointer]*valueType]

func init() {
	valueTypes.Store(&map[unsafe.Pointer]*valueType{})
}

func valueTypeOf[T any]() *valueType {
	reflectType := reflect.TypeFor[T]()
	ptrToType := cast.TypePointer(reflectType)

	if cached, ok := (*valueTypes.Load())[ptrToType]; ok {
		return cached
	}

	return ensureValueType(ptrToType, makeValueType[T])
}

func valueTypeOfReflect(reflectType reflect.Type) *valueType {
	ptrToType := cast.TypePointer(reflectType)

	if cached, ok := (*valueTypes.Load())[ptrToType]; ok {
		return cached
	}

	return ensureValueType(ptrToType, func() *valueType {
		return makeReflectValueType(reflectType)
	})
}

func ensureValueType(ptrToType unsafe.Pointer, makeType func() *valueType) *valueType {
	newType := makeType()

	for {
		previousTypes := valueTypes.Load()
		if cached, ok := (*previousTypes)[ptrToType]; ok {
			return cached
		}

		newTypes := maps.Clone(*previousTypes)
		newTypes[ptrToType] = newType

		if valueTypes.CompareAndSwap(previousTypes, &newTypes) {
			slog.Debug(
				"New erased value type",
				slog.String("type", newType.Type.String()),
				slog.Int("id", int(newType.Id)),
				slog.Bool("inline", newType.Inline),
				slog.Bool("destructor", newType.destroy != nil),
			)

			return newType
		}
	}
}

func fitsInline(t reflect.Type, hasDestructor bool) bool {
	return t.Size() <= InlineSize &&
		uintptr(t.Align()) <= inlineAlign &&
		!refl.HasPointers(t) &&
		!hasDestructor
}

func makeValueType[T any]() *valueType {
	reflectType := reflect.TypeFor[T]()

	ty := &valueType{
		Id:   typeid.Of[T](),
		Type: reflectType,
		Size: reflectType.Size(),
	}

	ty.copy = func(to, from unsafe.Pointer) {
		*cast.To[T](to) = *cast.To[T](from)
	}

	ty.newBox = func(from unsafe.Pointer) *box {
		return newBoxOf(ty, *cast.To[T](from))
	}

	var layout boxOf[T]
	ty.boxType = reflect.TypeFor[boxOf[T]]()
	ty.boxValueOffset = unsafe.Offsetof(layout.value)

	if _, ok := any((*T)(nil)).(Destroyer); ok {
		ty.destroy = func(ptr unsafe.Pointer) {
			any(cast.To[T](ptr)).(Destroyer).Destroy()
		}
	}

	ty.Inline = fitsInline(reflectType, ty.destroy != nil)

	return ty
}

// makeReflectValueType builds a valueType for a type only known at runtime,
// e.g. the return value of a reflectively invoked method.
func makeReflectValueType(reflectType reflect.Type) *valueType {
	ty := &valueType{
		Id:   typeid.OfType(reflectType),
		Type: reflectType,
		Size: reflectType.Size(),
	}

	ty.copy = func(to, from unsafe.Pointer) {
		reflect.NewAt(reflectType, to).Elem().Set(reflect.NewAt(reflectType, from).Elem())
	}

	ty.boxType = reflect.StructOf([]reflect.StructField{
		{Name: "Box", Type: boxType},
		{Name: "Value", Type: reflectType},
	})

	ty.boxValueOffset = ty.boxType.Field(1).Offset

	ty.newBox = func(from unsafe.Pointer) *box {
		return newReflectBox(ty, reflect.NewAt(reflectType, from).Elem())
	}

	if reflect.PointerTo(reflectType).Implements(destroyerType) {
		ty.destroy = func(ptr unsafe.Pointer) {
			reflect.NewAt(reflectType, ptr).Interface().(Destroyer).Destroy()
		}
	}

	ty.Inline = fitsInline(reflectType, ty.destroy != nil)

	return ty
}

// DestructorOf returns an erased destructor for T, or nil if T is
// trivially destructible.
func DestructorOf[T any]() func(AnyPtr) {
	ty := valueTypeOf[T]()
	if ty.destroy == nil {
		return nil
	}

	return func(object AnyPtr) {
		ty.destroy(unsafe.Pointer(Cast[T](object)))
	}
}

// IsInline reports whether values of type T are stored without allocation.
func IsInline[T any]() bool {
	return valueTypeOf[T]().Inline
}
