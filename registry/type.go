package registry

import (
	"cmp"
	"reflect"

	"github.com/oliverbestmann/neat/erased"
	"github.com/oliverbestmann/neat/typeid"
)

// Type is the descriptor of a registered type.
type Type struct {
	Name string
	Id   typeid.Id

	// GoType is the go type this descriptor was created for
	GoType reflect.Type
	Size   uintptr

	Bases             []BaseClass
	Fields            []Field
	Methods           []Method
	Aliases           []Alias
	TemplateArguments []TemplateArgument

	// Construct returns the zero value of the type.
	Construct func() erased.Any

	// Destructor runs the destructor of the object. It is nil if the type
	// does not implement erased.Destroyer.
	Destructor func(object erased.AnyPtr)
}

type TypeOption func(*Type)

func WithAliases(aliases ...Alias) TypeOption {
	return func(t *Type) {
		t.Aliases = append(t.Aliases, aliases...)
	}
}

func WithTemplateArguments(arguments ...TemplateArgument) TypeOption {
	return func(t *Type) {
		t.TemplateArguments = append(t.TemplateArguments, arguments...)
	}
}

// Create creates the descriptor of T. The identifier is always typeid.Of[T],
// a type that needs a fixed identifier implements typeid.ManualId.
func Create[T any](name string, bases []BaseClass, fields []Field, methods []Method, opts ...TypeOption) Type {
	goType := reflect.TypeFor[T]()

	ty := Type{
		Name:    name,
		Id:      typeid.Of[T](),
		GoType:  goType,
		Size:    goType.Size(),
		Bases:   bases,
		Fields:  fields,
		Methods: methods,

		Construct: func() erased.Any {
			var zero T
			return erased.New(zero)
		},

		Destructor: erased.DestructorOf[T](),
	}

	for _, opt := range opts {
		opt(&ty)
	}

	return ty
}

// FieldByName returns the field with the given name, or nil.
func (t *Type) FieldByName(name string) *Field {
	for idx := range t.Fields {
		if t.Fields[idx].Name == name {
			return &t.Fields[idx]
		}
	}

	return nil
}

// MethodByName returns the first method with the given name, or nil.
func (t *Type) MethodByName(name string) *Method {
	for idx := range t.Methods {
		if t.Methods[idx].Name == name {
			return &t.Methods[idx]
		}
	}

	return nil
}

func (t *Type) AliasByName(name string) *Alias {
	for idx := range t.Aliases {
		if t.Aliases[idx].Name == name {
			return &t.Aliases[idx]
		}
	}

	return nil
}

// HasBase reports whether id is one of the direct bases of t.
func (t *Type) HasBase(id typeid.Id) bool {
	for _, base := range t.Bases {
		if base.Base == id {
			return true
		}
	}

	return false
}

func (t *Type) Equal(other *Type) bool {
	return t.Id == other.Id
}

func (t *Type) Compare(other *Type) int {
	return cmp.Compare(t.Id, other.Id)
}

func (t *Type) Hash() uint64 {
	return uint64(t.Id)
}
