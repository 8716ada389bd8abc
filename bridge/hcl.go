package bridge

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hcldec"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/oliverbestmann/neat/erased"
	"github.com/oliverbestmann/neat/internal/set"
	"github.com/oliverbestmann/neat/registry"
	"github.com/oliverbestmann/neat/typeid"
)

// Spec builds the hcldec specification for the registered type id. Fields of
// a registered struct type, or a pointer to one, are decoded from a nested
// block named like the field. All other fields are attributes.
func Spec(reg *registry.Registry, id typeid.Id) (hcldec.Spec, error) {
	spec, err := objectSpec(reg, id, set.Set[typeid.Id]{})
	if err != nil {
		return nil, err
	}

	return spec, nil
}

func objectSpec(reg *registry.Registry, id typeid.Id, visiting set.Set[typeid.Id]) (hcldec.ObjectSpec, error) {
	n, err := nodeOf(reg, id)
	if err != nil {
		return nil, err
	}

	ty := n.Registered
	if ty == nil {
		ty = n.Pointee
	}

	if ty == nil {
		return nil, fmt.Errorf("%w: %s is not an object type", ErrUnsupportedField, n.GoType)
	}

	if !visiting.Insert(ty.Id) {
		return nil, fmt.Errorf("%w: %s", ErrCyclicType, ty.Name)
	}

	defer visiting.Remove(ty.Id)

	spec := hcldec.ObjectSpec{}

	for _, field := range publicFields(ty) {
		fieldNode, err := nodeOf(reg, field.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", ty.Name, field.Name, err)
		}

		if fieldNode.IsLeaf() {
			attrType, err := leafType(fieldNode.GoType)
			if err != nil {
				return nil, fmt.Errorf("field %s.%s: %w", ty.Name, field.Name, err)
			}

			spec[field.Name] = &hcldec.AttrSpec{Name: field.Name, Type: attrType}
			continue
		}

		nested, err := objectSpec(reg, field.Type, visiting)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", ty.Name, field.Name, err)
		}

		spec[field.Name] = &hcldec.BlockSpec{TypeName: field.Name, Nested: nested}
	}

	return spec, nil
}

// DecodeHCL parses src as HCL native syntax and applies it to the object
// referenced by object.
func DecodeHCL(reg *registry.Registry, object erased.AnyPtr, src []byte, filename string) hcl.Diagnostics {
	file, diags := hclsyntax.ParseConfig(src, filename, hcl.InitialPos)
	if diags.HasErrors() {
		return diags
	}

	return append(diags, DecodeBody(reg, object, file.Body, nil)...)
}

// DecodeBody decodes body and applies it to the object referenced by object.
// Expressions are evaluated in ctx, which may be nil.
func DecodeBody(reg *registry.Registry, object erased.AnyPtr, body hcl.Body, ctx *hcl.EvalContext) hcl.Diagnostics {
	spec, err := Spec(reg, object.Type)
	if err != nil {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported target type",
			Detail:   err.Error(),
		}}
	}

	value, diags := hcldec.Decode(body, spec, ctx)
	if diags.HasErrors() {
		return diags
	}

	if err := FromValue(reg, object, value); err != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Failed to apply configuration",
			Detail:   err.Error(),
			Subject:  body.MissingItemRange().Ptr(),
		})
	}

	return diags
}
