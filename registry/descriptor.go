package registry

import (
	"cmp"
	"fmt"
	"hash/maphash"

	"github.com/oliverbestmann/neat/erased"
	"github.com/oliverbestmann/neat/typeid"
)

// Access is the visibility of a member or base.
type Access uint8

const (
	Public Access = iota
	Protected
	Private
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case Protected:
		return "protected"
	case Private:
		return "private"
	default:
		return fmt.Sprintf("Access(%d)", uint8(a))
	}
}

// BaseClass references a type that is embedded into another type.
type BaseClass struct {
	Base   typeid.Id
	Access Access
}

func (b BaseClass) Compare(other BaseClass) int {
	return cmp.Or(
		cmp.Compare(b.Base, other.Base),
		cmp.Compare(b.Access, other.Access),
	)
}

func (b BaseClass) Hash() uint64 {
	return uint64(b.Base)
}

// Alias is a named type declared as a member of another type.
type Alias struct {
	Name   string
	Type   typeid.Id
	Access Access
}

// TemplateArgument is an argument of a generic instantiation. It holds either
// a type or a constant value.
type TemplateArgument struct {
	Type  typeid.Id
	Value erased.Any
}

func TypeArgument(id typeid.Id) TemplateArgument {
	return TemplateArgument{Type: id}
}

func ValueArgument[T any](value T) TemplateArgument {
	return TemplateArgument{Value: erased.New(value)}
}

func (t *TemplateArgument) IsType() bool {
	return t.Type.IsValid()
}

func (t *TemplateArgument) IsValue() bool {
	return t.Value.HasValue()
}

var hashSeed = maphash.MakeSeed()

// HashCombine mixes each value into seed.
func HashCombine(seed *uint64, values ...uint64) {
	for _, value := range values {
		*seed ^= value + 0x9e3779b9 + (*seed << 6) + (*seed >> 2)
	}
}

// HashString hashes a name for use with HashCombine. The result is stable
// for the lifetime of the process only.
func HashString(value string) uint64 {
	return maphash.String(hashSeed, value)
}
