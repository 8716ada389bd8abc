package assert

import (
	"errors"
	"reflect"
	"testing"

	"github.com/oliverbestmann/neat/typeid"
	"github.com/stretchr/testify/require"
)

func recoverViolation(fn func()) (v *Violation) {
	defer func() {
		if r := recover(); r != nil {
			v = r.(*Violation)
		}
	}()

	fn()
	return nil
}

func TestSameType(t *testing.T) {
	require.NotPanics(t, func() { SameType(typeid.Of[int](), typeid.Of[int](), "value") })

	v := recoverViolation(func() { SameType(typeid.Of[int](), typeid.Of[string](), "value") })
	require.NotNil(t, v)
	require.True(t, errors.Is(v, ErrPrecondition))
	require.True(t, errors.Is(v, ErrTypeMismatch))
	require.False(t, errors.Is(v, ErrArity))
	require.Contains(t, v.Error(), "string")
}

func TestArity(t *testing.T) {
	require.NotPanics(t, func() { Arity(2, 2, "call") })

	v := recoverViolation(func() { Arity(2, 1, "call") })
	require.NotNil(t, v)
	require.ErrorIs(t, v, ErrArity)
	require.Contains(t, v.Error(), "expected 2 arguments, got 1")
}

func TestKindChecks(t *testing.T) {
	require.NotPanics(t, func() { IsStructType(reflect.TypeFor[struct{ X int }]()) })

	require.ErrorIs(t, recoverViolation(func() { IsStructType(reflect.TypeFor[int]()) }), ErrInvalid)
}
