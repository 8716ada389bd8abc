package refl

import (
	"fmt"
	"reflect"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

type flat struct {
	X, Y int32
	Z    [4]float64
}

type nested struct {
	flat
	Name string
}

type stringer struct{}

func (*stringer) String() string { return "stringer" }

func (f flat) Sum() int32 { return f.X + f.Y }
func (f *flat) Reset() { *f = flat{} }

func TestHasPointers(t *testing.T) {
	cases := []struct {
		value    any
		expected bool
	}{
		{int64(0), false},
		{flat{}, false},
		{[0]*int{}, false},
		{[2]*int{}, true},
		{nested{}, true},
		{"", true},
		{[]int{}, true},
		{map[int]int{}, true},
		{new(int), true},
		{struct{ F func() }{}, true},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%T", tc.value), func(t *testing.T) {
			require.Equal(t, tc.expected, HasPointers(reflect.TypeOf(tc.value)))
		})
	}
}

func TestIterFields(t *testing.T) {
	var names []string
	for field := range IterFields(reflect.TypeFor[nested]()) {
		names = append(names, field.Name)
	}

	require.Equal(t, []string{"flat", "Name"}, names)
}

func TestIterMethods(t *testing.T) {
	var names []string
	for method := range IterMethods(reflect.TypeFor[*flat]()) {
		names = append(names, method.Name)
	}

	slices.Sort(names)
	require.Equal(t, []string{"Reset", "Sum"}, names)
}

func TestImplements(t *testing.T) {
	require.True(t, Implements[fmt.Stringer](reflect.TypeFor[stringer]()))
	require.False(t, Implements[fmt.Stringer](reflect.TypeFor[flat]()))
}
