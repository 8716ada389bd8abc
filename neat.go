package neat

import (
	"github.com/oliverbestmann/neat/erased"
	"github.com/oliverbestmann/neat/registry"
	"github.com/oliverbestmann/neat/typeid"
)

type (
	Id     = typeid.Id
	Any    = erased.Any
	AnyPtr = erased.AnyPtr
	Type   = registry.Type
)

var (
	ErrPrecondition = erased.ErrPrecondition
	ErrTypeMismatch = erased.ErrTypeMismatch
	ErrArity        = erased.ErrArity
)

// AddType registers ty in the process wide registry.
func AddType(ty Type) *Type {
	return registry.Default().AddType(ty)
}

func GetType(name string) (*Type, bool) {
	return registry.Default().TypeByName(name)
}

func GetTypeById(id Id) (*Type, bool) {
	return registry.Default().TypeById(id)
}

func GetTypeFor[T any]() (*Type, bool) {
	return registry.TypeFor[T](registry.Default())
}

// GetTypes returns all types of the process wide registry in registration order.
func GetTypes() []*Type {
	return registry.Default().Types()
}
