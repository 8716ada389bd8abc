package registry

import (
	"cmp"
	"reflect"
	"unsafe"

	"github.com/oliverbestmann/neat/erased"
	"github.com/oliverbestmann/neat/internal/assert"
	"github.com/oliverbestmann/neat/internal/cast"
	"github.com/oliverbestmann/neat/typeid"
)

// Field describes a data member of a type. The accessor functions are bound
// to the concrete object and field type when the Field is created and check
// the type of every erased argument before touching it.
type Field struct {
	ObjectType typeid.Id
	Type       typeid.Id
	Name       string
	Access     Access
	Attributes []string

	// Offset of the field in bytes from the start of the object
	Offset uintptr

	// GetValue returns a copy of the field's value in object.
	GetValue func(object erased.AnyPtr) erased.Any

	// SetValue copies value into the field of object.
	SetValue func(object erased.AnyPtr, value *erased.Any)

	// GetAddress returns a reference to the field inside object.
	GetAddress func(object erased.AnyPtr) erased.AnyPtr
}

// NewField creates a field of O. The member function must return a pointer
// to a field within the object it is given, e.g.
//
//	NewField("X", Public, func(p *Point) *int { return &p.X })
//
// The member function is called once on a zero O to find the offset of the
// field, so it must not follow pointers inside the object.
func NewField[O, F any](name string, access Access, member func(*O) *F) Field {
	objectType := typeid.Of[O]()
	fieldType := typeid.Of[F]()

	offset := memberOffset(name, member)

	what := "field " + name

	return Field{
		ObjectType: objectType,
		Type:       fieldType,
		Name:       name,
		Access:     access,
		Offset:     offset,

		GetValue: func(object erased.AnyPtr) erased.Any {
			assert.SameType(objectType, object.Type, what)
			return erased.New(*member(cast.To[O](object.Ptr)))
		},

		SetValue: func(object erased.AnyPtr, value *erased.Any) {
			assert.SameType(objectType, object.Type, what)
			assert.SameType(fieldType, value.TypeId(), what)
			*member(cast.To[O](object.Ptr)) = *erased.Value[F](value)
		},

		GetAddress: func(object erased.AnyPtr) erased.AnyPtr {
			assert.SameType(objectType, object.Type, what)
			return erased.PtrOf(member(cast.To[O](object.Ptr)))
		},
	}
}

// memberOffset calls member on a zero O and returns the offset of the
// returned field. It fails if member panics on the zero value, e.g. because it
// follows a nil pointer, or if the field does not lie within the object.
func memberOffset[O, F any](name string, member func(*O) *F) uintptr {
	var probe O

	ptr := func() (ptr *F) {
		defer func() {
			if err := recover(); err != nil {
				assert.Fail(assert.ErrInvalid, "field %q: member of %s failed on zero value: %v", name, reflect.TypeFor[O](), err)
			}
		}()

		return member(&probe)
	}()

	offset := cast.Offset(&probe, ptr)
	size := unsafe.Sizeof(probe)

	if ptr == nil || offset > size || offset+unsafe.Sizeof(*ptr) > size {
		assert.Fail(assert.ErrInvalid, "field %q does not point into %s", name, reflect.TypeFor[O]())
	}

	return offset
}

// newStructField creates a field for a struct field found by reflection.
// Values are accessed through the field offset.
func newStructField(objectType typeid.Id, field reflect.StructField, access Access) Field {
	fieldType := typeid.OfType(field.Type)
	offset := field.Offset

	what := "field " + field.Name

	address := func(object erased.AnyPtr) erased.AnyPtr {
		assert.SameType(objectType, object.Type, what)
		return object.Offset(offset, fieldType)
	}

	return Field{
		ObjectType: objectType,
		Type:       fieldType,
		Name:       field.Name,
		Access:     access,
		Offset:     offset,

		GetValue: func(object erased.AnyPtr) erased.Any {
			return erased.Load(address(object))
		},

		SetValue: func(object erased.AnyPtr, value *erased.Any) {
			erased.Store(address(object), value)
		},

		GetAddress: address,
	}
}

func (f *Field) Equal(other *Field) bool {
	return f.ObjectType == other.ObjectType && f.Name == other.Name
}

// Compare orders fields by object type, then by name.
func (f *Field) Compare(other *Field) int {
	return cmp.Or(
		cmp.Compare(f.ObjectType, other.ObjectType),
		cmp.Compare(f.Name, other.Name),
	)
}

func (f *Field) Hash() uint64 {
	var hash uint64
	HashCombine(&hash, uint64(f.ObjectType), HashString(f.Name))
	return hash
}
