// Package typeid assigns process-wide unique integer identifiers to Go types.
//
// Identifiers are handed out lazily from an atomic counter the first time a
// type is asked for and are stable for the lifetime of the process. The value
// Empty is reserved and never assigned. A type can opt out of the counter by
// implementing ManualId, which is useful when identifiers must match across
// binaries.
package typeid

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"sync/atomic"
	"unsafe"

	"github.com/oliverbestmann/neat/internal/cast"
)

// Id identifies a type. Two ids are equal iff they denote the same type.
type Id uint32

// Empty is the id of "no type".
const Empty Id = 0

func (id Id) IsValid() bool {
	return id != Empty
}

func (id Id) String() string {
	if id == Empty {
		return "typeid(empty)"
	}

	return fmt.Sprintf("typeid(%d)", uint32(id))
}

// ManualId is implemented by types that provide a fixed identifier. The method
// must have a value receiver and return a constant. Uniqueness of manual ids is
// not checked.
type ManualId interface {
	ManualTypeId() Id
}

var manualIdType = reflect.TypeFor[ManualId]()

// ErrEmptyManualId is raised as a panic if a ManualId returns Empty.
var ErrEmptyManualId = errors.New("neat(typeid): manual type id must not be empty")

// Of returns the id of T.
func Of[T any]() Id {
	return OfType(reflect.TypeFor[T]())
}

// OfType returns the id of t. A nil type has the Empty id.
func OfType(t reflect.Type) Id {
	if t == nil {
		return Empty
	}

	ptrToType := cast.TypePointer(t)
	if cached, ok := tables.Load().byType[ptrToType]; ok {
		return cached
	}

	return ensureId(t, ptrToType)
}

// TypeOf returns the Go type that was assigned id.
func TypeOf(id Id) (reflect.Type, bool) {
	t, ok := tables.Load().byId[id]
	return t, ok
}

// counter holds the last id handed out. Zero is never returned.
var counter atomic.Uint32

type table struct {
	byType map[unsafe.Pointer]Id
	byId   map[Id]reflect.Type
}

var tables atomic.Pointer[table]

func init() {
	tables.Store(&table{
		byType: map[unsafe.Pointer]Id{},
		byId:   map[Id]reflect.Type{},
	})
}

func ensureId(t reflect.Type, ptrToType unsafe.Pointer) Id {
	id, manual := manualIdOf(t)
	if !manual {
		id = Id(counter.Add(1))
	}

	for {
		previous := tables.Load()
		if cached, ok := previous.byType[ptrToType]; ok {
			// somebody else was faster, the id we took from the counter is dropped
			return cached
		}

		next := &table{
			byType: maps.Clone(previous.byType),
			byId:   maps.Clone(previous.byId),
		}

		next.byType[ptrToType] = id
		next.byId[id] = t

		if tables.CompareAndSwap(previous, next) {
			slog.Debug(
				"New type id assigned",
				slog.String("type", t.String()),
				slog.Int("id", int(id)),
				slog.Bool("manual", manual),
			)

			return id
		}
	}
}

func manualIdOf(t reflect.Type) (Id, bool) {
	// the zero value of pointers and interfaces is nil, we can not call a method on it
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface:
		return Empty, false
	}

	if !t.Implements(manualIdType) {
		return Empty, false
	}

	manual := reflect.Zero(t).Interface().(ManualId)

	id := manual.ManualTypeId()
	if id == Empty {
		panic(fmt.Errorf("%w: %s", ErrEmptyManualId, t))
	}

	return id, true
}
