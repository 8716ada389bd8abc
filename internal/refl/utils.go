package refl

import (
	"iter"
	"reflect"
)

func IterFields(ty reflect.Type) iter.Seq[reflect.StructField] {
	return func(yield func(reflect.StructField) bool) {
		for idx := range ty.NumField() {
			if !yield(ty.Field(idx)) {
				return
			}
		}
	}
}

func IterMethods(ty reflect.Type) iter.Seq[reflect.Method] {
	return func(yield func(reflect.Method) bool) {
		for idx := range ty.NumMethod() {
			if !yield(ty.Method(idx)) {
				return
			}
		}
	}
}

// HasPointers reports whether a value of type ty contains memory the garbage
// collector needs to trace, e.g. a field of type *T, a string, a slice or a map.
// Values without pointers can be copied byte by byte into untyped memory.
func HasPointers(ty reflect.Type) bool {
	switch ty.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false

	case reflect.Array:
		return ty.Len() > 0 && HasPointers(ty.Elem())

	case reflect.Struct:
		for field := range IterFields(ty) {
			if HasPointers(field.Type) {
				return true
			}
		}

		return false

	default:
		// pointers, strings, slices, maps, chans, funcs, interfaces, unsafe.Pointer
		return true
	}
}

// Implements reports whether values of ty or *ty implement If.
func Implements[If any](ty reflect.Type) bool {
	iface := reflect.TypeFor[If]()
	return ty.Implements(iface) || reflect.PointerTo(ty).Implements(iface)
}
