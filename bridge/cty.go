// Package bridge maps objects described in a registry to cty values, the
// value system used by HCL, and back. Only public fields take part in the
// conversion.
package bridge

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/oliverbestmann/neat/erased"
	"github.com/oliverbestmann/neat/internal/set"
	"github.com/oliverbestmann/neat/registry"
	"github.com/oliverbestmann/neat/typeid"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

var (
	ErrUnregisteredType = errors.New("neat(bridge): type is not registered")
	ErrUnsupportedField = errors.New("neat(bridge): unsupported field type")
	ErrCyclicType       = errors.New("neat(bridge): type references itself")
)

// node classifies a type for the conversion.
type node struct {
	// set if the type is registered
	Registered *registry.Type

	// set if the type is a pointer to a registered type
	Pointee *registry.Type

	GoType reflect.Type
}

func nodeOf(reg *registry.Registry, id typeid.Id) (node, error) {
	if ty, ok := reg.TypeById(id); ok && isObject(ty) {
		return node{Registered: ty, GoType: ty.GoType}, nil
	}

	goType, ok := typeid.TypeOf(id)
	if !ok {
		return node{}, fmt.Errorf("%w: %s", ErrUnregisteredType, id)
	}

	if goType.Kind() == reflect.Pointer {
		if ty, ok := reg.TypeByReflect(goType.Elem()); ok && isObject(ty) {
			return node{Pointee: ty, GoType: goType}, nil
		}
	}

	return node{GoType: goType}, nil
}

// isObject reports whether values of ty are converted attribute by attribute.
// Registered primitives like int are converted as they are.
func isObject(ty *registry.Type) bool {
	return ty.GoType == nil || ty.GoType.Kind() == reflect.Struct
}

func (n node) IsLeaf() bool {
	return n.Registered == nil && n.Pointee == nil
}

// ImpliedType returns the cty type of the type registered under id. Registered
// types map to objects with one attribute per public field. Other types are
// mapped the way gocty maps them.
func ImpliedType(reg *registry.Registry, id typeid.Id) (cty.Type, error) {
	return impliedType(reg, id, set.Set[typeid.Id]{}, false)
}

// impliedType marks every object attribute as optional if optional is set.
func impliedType(reg *registry.Registry, id typeid.Id, visiting set.Set[typeid.Id], optional bool) (cty.Type, error) {
	n, err := nodeOf(reg, id)
	if err != nil {
		return cty.NilType, err
	}

	switch {
	case n.Registered != nil:
		return objectType(reg, n.Registered, visiting, optional)

	case n.Pointee != nil:
		return objectType(reg, n.Pointee, visiting, optional)

	default:
		return leafType(n.GoType)
	}
}

func objectType(reg *registry.Registry, ty *registry.Type, visiting set.Set[typeid.Id], optional bool) (cty.Type, error) {
	if !visiting.Insert(ty.Id) {
		return cty.NilType, fmt.Errorf("%w: %s", ErrCyclicType, ty.Name)
	}

	defer visiting.Remove(ty.Id)

	attributes := map[string]cty.Type{}
	var names []string

	for _, field := range publicFields(ty) {
		attrType, err := impliedType(reg, field.Type, visiting, optional)
		if err != nil {
			return cty.NilType, fmt.Errorf("field %s.%s: %w", ty.Name, field.Name, err)
		}

		attributes[field.Name] = attrType
		names = append(names, field.Name)
	}

	if optional {
		return cty.ObjectWithOptionalAttrs(attributes, names), nil
	}

	return cty.Object(attributes), nil
}

func leafType(goType reflect.Type) (cty.Type, error) {
	if containsStruct(goType) {
		return cty.NilType, fmt.Errorf("%w: unregistered struct %s", ErrUnregisteredType, goType)
	}

	ctyType, err := gocty.ImpliedType(reflect.Zero(goType).Interface())
	if err != nil {
		return cty.NilType, fmt.Errorf("%w: %s: %w", ErrUnsupportedField, goType, err)
	}

	return ctyType, nil
}

func containsStruct(goType reflect.Type) bool {
	switch goType.Kind() {
	case reflect.Struct:
		return true
	case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Map:
		return containsStruct(goType.Elem())
	default:
		return false
	}
}

func publicFields(ty *registry.Type) []*registry.Field {
	var fields []*registry.Field

	for idx := range ty.Fields {
		if ty.Fields[idx].Access == registry.Public {
			fields = append(fields, &ty.Fields[idx])
		}
	}

	return fields
}

// ToValue converts the object referenced by object into a cty value.
func ToValue(reg *registry.Registry, object erased.AnyPtr) (cty.Value, error) {
	// rejects cyclic types before walking the object graph
	if _, err := ImpliedType(reg, object.Type); err != nil {
		return cty.NilVal, err
	}

	return toValue(reg, object)
}

func toValue(reg *registry.Registry, object erased.AnyPtr) (cty.Value, error) {
	n, err := nodeOf(reg, object.Type)
	if err != nil {
		return cty.NilVal, err
	}

	switch {
	case n.Registered != nil:
		attributes := map[string]cty.Value{}

		for _, field := range publicFields(n.Registered) {
			value, err := toValue(reg, field.GetAddress(object))
			if err != nil {
				return cty.NilVal, fmt.Errorf("field %s.%s: %w", n.Registered.Name, field.Name, err)
			}

			attributes[field.Name] = value
		}

		return cty.ObjectVal(attributes), nil

	case n.Pointee != nil:
		ptr := object.Reflect()
		if ptr.IsNil() {
			ctyType, err := ImpliedType(reg, object.Type)
			if err != nil {
				return cty.NilVal, err
			}

			return cty.NullVal(ctyType), nil
		}

		return toValue(reg, erased.AnyPtr{Ptr: ptr.UnsafePointer(), Type: n.Pointee.Id})

	default:
		ctyType, err := leafType(n.GoType)
		if err != nil {
			return cty.NilVal, err
		}

		return gocty.ToCtyValue(object.Reflect().Interface(), ctyType)
	}
}

// FromValue writes value into the object referenced by object. The value is
// converted to the implied type of the object first. Null values and missing
// attributes leave the corresponding part of the object unchanged. A nil
// pointer to a registered type is allocated if a value for it is present.
func FromValue(reg *registry.Registry, object erased.AnyPtr, value cty.Value) error {
	ctyType, err := impliedType(reg, object.Type, set.Set[typeid.Id]{}, true)
	if err != nil {
		return err
	}

	converted, err := convert.Convert(value, ctyType)
	if err != nil {
		return fmt.Errorf("convert value to %s: %w", ctyType.FriendlyName(), err)
	}

	return fromValue(reg, object, converted)
}

func fromValue(reg *registry.Registry, object erased.AnyPtr, value cty.Value) error {
	if value.IsNull() {
		return nil
	}

	if !value.IsWhollyKnown() {
		return errors.New("value is not known")
	}

	n, err := nodeOf(reg, object.Type)
	if err != nil {
		return err
	}

	switch {
	case n.Registered != nil:
		return fromObjectValue(reg, n.Registered, object, value)

	case n.Pointee != nil:
		ptr := object.Reflect()
		if ptr.IsNil() {
			ptr.Set(reflect.New(n.GoType.Elem()))
		}

		return fromValue(reg, erased.AnyPtr{Ptr: ptr.UnsafePointer(), Type: n.Pointee.Id}, value)

	default:
		decoded, err := leafValue(n.GoType, value)
		if err != nil {
			return err
		}

		defer decoded.Reset()

		erased.Store(object, &decoded)
		return nil
	}
}

func fromObjectValue(reg *registry.Registry, ty *registry.Type, object erased.AnyPtr, value cty.Value) error {
	for _, field := range publicFields(ty) {
		if !value.Type().HasAttribute(field.Name) {
			continue
		}

		attr := value.GetAttr(field.Name)
		if attr.IsNull() {
			continue
		}

		fieldNode, err := nodeOf(reg, field.Type)
		if err != nil {
			return err
		}

		if !fieldNode.IsLeaf() {
			if err := fromValue(reg, field.GetAddress(object), attr); err != nil {
				return fmt.Errorf("field %s.%s: %w", ty.Name, field.Name, err)
			}

			continue
		}

		decoded, err := leafValue(fieldNode.GoType, attr)
		if err != nil {
			return fmt.Errorf("field %s.%s: %w", ty.Name, field.Name, err)
		}

		field.SetValue(object, &decoded)
		decoded.Reset()
	}

	return nil
}

func leafValue(goType reflect.Type, value cty.Value) (erased.Any, error) {
	target := reflect.New(goType)

	if err := gocty.FromCtyValue(value, target.Interface()); err != nil {
		return erased.Any{}, fmt.Errorf("decode %s: %w", goType, err)
	}

	return erased.FromReflect(target.Elem()), nil
}
