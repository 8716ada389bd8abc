package registry

import (
	"reflect"
	"strings"

	"github.com/oliverbestmann/neat/erased"
	"github.com/oliverbestmann/neat/internal/assert"
	"github.com/oliverbestmann/neat/internal/refl"
	"github.com/oliverbestmann/neat/typeid"
)

// Describe creates the descriptor of the struct type T using reflection.
//
// Every struct field becomes a Field, unexported fields are marked Private.
// Embedded fields additionally become a BaseClass. Attributes are read from
// the neat struct tag, a tag of "-" skips the field:
//
//	type Player struct {
//		Name   string `neat:"editable,serialize"`
//		health int
//		cache  []byte `neat:"-"`
//	}
//
// Every exported method of *T becomes a Method, methods with a value receiver
// are marked Const. The destructor is not reflected as a method.
func Describe[T any](name string, opts ...TypeOption) Type {
	goType := reflect.TypeFor[T]()
	assert.IsStructType(goType)

	objectType := typeid.Of[T]()

	var bases []BaseClass
	var fields []Field

	for field := range refl.IterFields(goType) {
		tag, hasTag := field.Tag.Lookup("neat")
		if tag == "-" {
			continue
		}

		access := Public
		if !field.IsExported() {
			access = Private
		}

		if field.Anonymous {
			baseType := field.Type
			if baseType.Kind() == reflect.Pointer {
				baseType = baseType.Elem()
			}

			bases = append(bases, BaseClass{
				Base:   typeid.OfType(baseType),
				Access: access,
			})
		}

		desc := newStructField(objectType, field, access)
		if hasTag && tag != "" {
			desc.Attributes = strings.Split(tag, ",")
		}

		fields = append(fields, desc)
	}

	hasDestructor := refl.Implements[erased.Destroyer](goType)

	var methods []Method
	for method := range refl.IterMethods(reflect.PointerTo(goType)) {
		if hasDestructor && method.Name == "Destroy" {
			continue
		}

		fn := method.Func

		valueMethod, isConst := goType.MethodByName(method.Name)
		if isConst {
			fn = valueMethod.Func
		}

		methods = append(methods, NewMethodFunc(method.Name, Public, fn.Interface()))
	}

	return Create[T](name, bases, fields, methods, opts...)
}
