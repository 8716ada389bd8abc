// Package assert implements the precondition checks of the erased call
// boundary. A failed check is a bug in the caller and panics with a *Violation.
package assert

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/oliverbestmann/neat/typeid"
)

var (
	// ErrPrecondition is wrapped by every Violation.
	ErrPrecondition = errors.New("neat: precondition violated")

	// ErrTypeMismatch reports an erased value or object of the wrong type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrArity reports a method invocation with the wrong number of arguments.
	ErrArity = errors.New("argument count mismatch")

	// ErrEmpty reports an operation that requires a value on an empty Any.
	ErrEmpty = errors.New("empty value")

	// ErrInvalid reports a malformed registration, e.g. a member accessor
	// that does not point into its object.
	ErrInvalid = errors.New("invalid registration")
)

// Violation is the panic value of a failed precondition.
type Violation struct {
	Kind    error
	Message string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrPrecondition, v.Kind, v.Message)
}

func (v *Violation) Unwrap() []error {
	return []error{ErrPrecondition, v.Kind}
}

// Fail panics with a Violation of the given kind.
func Fail(kind error, format string, args ...any) {
	panic(&Violation{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// SameType panics if got is not want.
func SameType(want, got typeid.Id, what string) {
	if want != got {
		Fail(ErrTypeMismatch, "%s: expected %s, got %s", what, describe(want), describe(got))
	}
}

// Arity panics if got arguments were supplied where want are declared.
func Arity(want, got int, what string) {
	if want != got {
		Fail(ErrArity, "%s: expected %d arguments, got %d", what, want, got)
	}
}

func IsStructType(t reflect.Type) {
	if t.Kind() != reflect.Struct {
		Fail(ErrInvalid, "expected struct type, got %s", t)
	}
}

func describe(id typeid.Id) string {
	if t, ok := typeid.TypeOf(id); ok {
		return fmt.Sprintf("%s (%s)", id, t)
	}

	return id.String()
}
