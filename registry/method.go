package registry

import (
	"cmp"
	"reflect"
	"slices"

	"github.com/oliverbestmann/neat/erased"
	"github.com/oliverbestmann/neat/internal/assert"
	"github.com/oliverbestmann/neat/internal/cast"
	"github.com/oliverbestmann/neat/internal/typedpool"
	"github.com/oliverbestmann/neat/typeid"
)

// Method describes a method of a type.
type Method struct {
	ObjectType typeid.Id

	// ReturnType is typeid.Empty for methods without a result
	ReturnType typeid.Id

	ArgumentTypes []typeid.Id
	Name          string
	Access        Access
	Attributes    []string

	// Const is set for methods with a value receiver. They can not modify the object.
	Const bool

	// Invoke calls the method on object. The number and types of arguments
	// must match ArgumentTypes. Methods without a result return an empty Any.
	Invoke func(object erased.AnyPtr, arguments []erased.Any) erased.Any
}

type invokeFunc[O any] func(object *O, arguments []erased.Any) erased.Any

func newMethod[O any](name string, access Access, returnType typeid.Id, argumentTypes []typeid.Id, invoke invokeFunc[O]) Method {
	objectType := typeid.Of[O]()
	what := "method " + name

	return Method{
		ObjectType:    objectType,
		ReturnType:    returnType,
		ArgumentTypes: argumentTypes,
		Name:          name,
		Access:        access,

		Invoke: func(object erased.AnyPtr, arguments []erased.Any) erased.Any {
			assert.SameType(objectType, object.Type, what)
			checkArguments(what, argumentTypes, arguments)
			return invoke(cast.To[O](object.Ptr), arguments)
		},
	}
}

func checkArguments(what string, argumentTypes []typeid.Id, arguments []erased.Any) {
	assert.Arity(len(argumentTypes), len(arguments), what)

	for idx := range arguments {
		assert.SameType(argumentTypes[idx], arguments[idx].TypeId(), what)
	}
}

func arg[T any](arguments []erased.Any, idx int) T {
	return *erased.Value[T](&arguments[idx])
}

func NewMethod0[O, R any](name string, access Access, fn func(*O) R) Method {
	return newMethod[O](name, access, typeid.Of[R](), nil,
		func(object *O, arguments []erased.Any) erased.Any {
			return erased.New(fn(object))
		},
	)
}

func NewMethod1[O, A1, R any](name string, access Access, fn func(*O, A1) R) Method {
	argumentTypes := []typeid.Id{typeid.Of[A1]()}

	return newMethod[O](name, access, typeid.Of[R](), argumentTypes,
		func(object *O, arguments []erased.Any) erased.Any {
			return erased.New(fn(object, arg[A1](arguments, 0)))
		},
	)
}

func NewMethod2[O, A1, A2, R any](name string, access Access, fn func(*O, A1, A2) R) Method {
	argumentTypes := []typeid.Id{typeid.Of[A1](), typeid.Of[A2]()}

	return newMethod[O](name, access, typeid.Of[R](), argumentTypes,
		func(object *O, arguments []erased.Any) erased.Any {
			return erased.New(fn(object, arg[A1](arguments, 0), arg[A2](arguments, 1)))
		},
	)
}

func NewMethod3[O, A1, A2, A3, R any](name string, access Access, fn func(*O, A1, A2, A3) R) Method {
	argumentTypes := []typeid.Id{typeid.Of[A1](), typeid.Of[A2](), typeid.Of[A3]()}

	return newMethod[O](name, access, typeid.Of[R](), argumentTypes,
		func(object *O, arguments []erased.Any) erased.Any {
			return erased.New(fn(object, arg[A1](arguments, 0), arg[A2](arguments, 1), arg[A3](arguments, 2)))
		},
	)
}

func NewProc0[O any](name string, access Access, fn func(*O)) Method {
	return newMethod[O](name, access, typeid.Empty, nil,
		func(object *O, arguments []erased.Any) erased.Any {
			fn(object)
			return erased.Any{}
		},
	)
}

func NewProc1[O, A1 any](name string, access Access, fn func(*O, A1)) Method {
	argumentTypes := []typeid.Id{typeid.Of[A1]()}

	return newMethod[O](name, access, typeid.Empty, argumentTypes,
		func(object *O, arguments []erased.Any) erased.Any {
			fn(object, arg[A1](arguments, 0))
			return erased.Any{}
		},
	)
}

func NewProc2[O, A1, A2 any](name string, access Access, fn func(*O, A1, A2)) Method {
	argumentTypes := []typeid.Id{typeid.Of[A1](), typeid.Of[A2]()}

	return newMethod[O](name, access, typeid.Empty, argumentTypes,
		func(object *O, arguments []erased.Any) erased.Any {
			fn(object, arg[A1](arguments, 0), arg[A2](arguments, 1))
			return erased.Any{}
		},
	)
}

func NewProc3[O, A1, A2, A3 any](name string, access Access, fn func(*O, A1, A2, A3)) Method {
	argumentTypes := []typeid.Id{typeid.Of[A1](), typeid.Of[A2](), typeid.Of[A3]()}

	return newMethod[O](name, access, typeid.Empty, argumentTypes,
		func(object *O, arguments []erased.Any) erased.Any {
			fn(object, arg[A1](arguments, 0), arg[A2](arguments, 1), arg[A3](arguments, 2))
			return erased.Any{}
		},
	)
}

var argumentBuffers = typedpool.NewSlices[reflect.Value]()

// NewMethodFunc creates a method from a method expression of any arity,
// e.g. (*Point).Scale or Point.Length. The receiver must be the first
// parameter, either as pointer to the object or as the object itself.
// A value receiver creates a const method.
//
// A variadic function takes its variadic arguments as a single slice argument.
func NewMethodFunc(name string, access Access, fn any) Method {
	if fn == nil {
		assert.Fail(assert.ErrInvalid, "method %q: function is nil", name)
	}

	fnValue := reflect.ValueOf(fn)
	fnType := fnValue.Type()

	if fnType.Kind() != reflect.Func || fnType.NumIn() == 0 {
		assert.Fail(assert.ErrInvalid, "method %q: expected a method expression, got %s", name, fnType)
	}

	if fnType.NumOut() > 1 {
		assert.Fail(assert.ErrInvalid, "method %q: expected at most one result, got %d", name, fnType.NumOut())
	}

	receiverType := fnType.In(0)

	isConst := receiverType.Kind() != reflect.Pointer
	objectType := receiverType
	if !isConst {
		objectType = receiverType.Elem()
	}

	var argumentTypes []typeid.Id
	for idx := 1; idx < fnType.NumIn(); idx++ {
		argumentTypes = append(argumentTypes, typeid.OfType(fnType.In(idx)))
	}

	returnType := typeid.Empty
	if fnType.NumOut() == 1 {
		returnType = typeid.OfType(fnType.Out(0))
	}

	objectTypeId := typeid.OfType(objectType)
	what := "method " + name

	call := fnValue.Call
	if fnType.IsVariadic() {
		call = fnValue.CallSlice
	}

	return Method{
		ObjectType:    objectTypeId,
		ReturnType:    returnType,
		ArgumentTypes: argumentTypes,
		Name:          name,
		Access:        access,
		Const:         isConst,

		Invoke: func(object erased.AnyPtr, arguments []erased.Any) erased.Any {
			assert.SameType(objectTypeId, object.Type, what)
			checkArguments(what, argumentTypes, arguments)

			buf := argumentBuffers.Get(len(arguments) + 1)
			defer argumentBuffers.Put(buf)

			in := *buf

			receiver := reflect.NewAt(objectType, object.Ptr)
			if isConst {
				receiver = receiver.Elem()
			}

			in[0] = receiver

			for idx := range arguments {
				in[idx+1] = arguments[idx].Reflect()
			}

			out := call(in)
			if len(out) == 0 {
				return erased.Any{}
			}

			return erased.FromReflect(out[0])
		},
	}
}

func (m *Method) Equal(other *Method) bool {
	return m.ObjectType == other.ObjectType &&
		m.ReturnType == other.ReturnType &&
		m.Name == other.Name &&
		slices.Equal(m.ArgumentTypes, other.ArgumentTypes)
}

// Compare orders methods by object type, name, return type and finally by
// their argument types.
func (m *Method) Compare(other *Method) int {
	return cmp.Or(
		cmp.Compare(m.ObjectType, other.ObjectType),
		cmp.Compare(m.Name, other.Name),
		cmp.Compare(m.ReturnType, other.ReturnType),
		slices.Compare(m.ArgumentTypes, other.ArgumentTypes),
	)
}

func (m *Method) Hash() uint64 {
	var hash uint64

	for _, argumentType := range m.ArgumentTypes {
		HashCombine(&hash, uint64(argumentType))
	}

	HashCombine(&hash, uint64(m.ObjectType), uint64(m.ReturnType), HashString(m.Name))

	return hash
}
