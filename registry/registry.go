// Package registry holds type descriptors with their fields and methods and
// the catalogue they are registered in.
//
// Types are registered once during start-up, typically from generated code
// or an init function, and are looked up by name or identifier afterwards:
//
//	reg.AddType(registry.Create[Point]("Point", nil,
//		[]registry.Field{
//			registry.NewField("X", registry.Public, func(p *Point) *int { return &p.X }),
//		},
//		nil,
//	))
//
//	ty, _ := reg.TypeByName("Point")
//	x := ty.Fields[0].GetValue(erased.PtrOf(&point))
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/oliverbestmann/neat/typeid"
)

// ErrNameConflict is raised by a registry configured with NameConflictPanic
// when two different types are registered under the same name.
var ErrNameConflict = errors.New("neat(registry): conflicting type name")

// NameConflictPolicy decides what happens if a type is registered under a
// name that is already taken by a different type.
type NameConflictPolicy uint8

const (
	// KeepFirst keeps resolving the name to the type registered first.
	// The second type is still added and can be found by its identifier.
	KeepFirst NameConflictPolicy = iota

	// Replace resolves the name to the type registered last.
	Replace

	// NameConflictPanic panics with ErrNameConflict.
	NameConflictPanic
)

type config struct {
	logger       *slog.Logger
	nameConflict NameConflictPolicy
}

type Option func(*config)

// WithLogger sets the logger used to report registrations. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func WithNameConflict(policy NameConflictPolicy) Option {
	return func(c *config) {
		c.nameConflict = policy
	}
}

// catalogue is an immutable snapshot of the registered types.
type catalogue struct {
	types  []*Type
	byName map[string]*Type
	byId   map[typeid.Id]*Type
}

var emptyCatalogue = &catalogue{
	byName: map[string]*Type{},
	byId:   map[typeid.Id]*Type{},
}

// Registry is a catalogue of type descriptors.
//
// Registration is expected to happen during start-up. Lookups never block
// and may run concurrently with each other and with AddType, they observe
// either the state before or after a registration.
type Registry struct {
	config config

	// serializes writers
	mu sync.Mutex

	current atomic.Pointer[catalogue]
}

func New(opts ...Option) *Registry {
	cfg := config{nameConflict: KeepFirst}

	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Registry{config: cfg}
	r.current.Store(emptyCatalogue)

	return r
}

// AddType stores ty and returns the stored descriptor. If a type with the same
// identifier is already registered, the existing descriptor is returned and
// ty is dropped. The returned pointer stays valid for the lifetime of the registry.
func (r *Registry) AddType(ty Type) *Type {
	if existing, ok := r.TypeById(ty.Id); ok {
		return existing
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.current.Load()

	// check again, somebody might have added the type while we were waiting
	if existing, ok := previous.byId[ty.Id]; ok {
		return existing
	}

	stored := &ty

	next := &catalogue{
		types:  append(previous.types[:len(previous.types):len(previous.types)], stored),
		byName: maps.Clone(previous.byName),
		byId:   maps.Clone(previous.byId),
	}

	next.byId[ty.Id] = stored

	if conflicting, ok := next.byName[ty.Name]; ok {
		r.nameConflict(conflicting, stored, next)
	} else {
		next.byName[ty.Name] = stored
	}

	r.current.Store(next)

	r.logger().Debug(
		"Type registered",
		slog.String("name", ty.Name),
		slog.Int("id", int(ty.Id)),
		slog.Int("fields", len(ty.Fields)),
		slog.Int("methods", len(ty.Methods)),
	)

	return stored
}

func (r *Registry) nameConflict(existing, added *Type, next *catalogue) {
	switch r.config.nameConflict {
	case KeepFirst:
		r.logger().Warn(
			"Type name already registered, keeping first",
			slog.String("name", added.Name),
			slog.Int("first", int(existing.Id)),
			slog.Int("ignored", int(added.Id)),
		)

	case Replace:
		r.logger().Warn(
			"Type name already registered, replacing",
			slog.String("name", added.Name),
			slog.Int("replaced", int(existing.Id)),
			slog.Int("id", int(added.Id)),
		)

		next.byName[added.Name] = added

	case NameConflictPanic:
		panic(fmt.Errorf("%w: %q used by %s and %s", ErrNameConflict, added.Name, existing.Id, added.Id))
	}
}

func (r *Registry) logger() *slog.Logger {
	if r.config.logger != nil {
		return r.config.logger
	}

	return slog.Default()
}

func (r *Registry) TypeByName(name string) (*Type, bool) {
	ty, ok := r.current.Load().byName[name]
	return ty, ok
}

func (r *Registry) TypeById(id typeid.Id) (*Type, bool) {
	ty, ok := r.current.Load().byId[id]
	return ty, ok
}

// TypeByReflect returns the descriptor registered for the go type t.
func (r *Registry) TypeByReflect(t reflect.Type) (*Type, bool) {
	if t == nil {
		return nil, false
	}

	return r.TypeById(typeid.OfType(t))
}

// TypeFor returns the descriptor registered for T.
func TypeFor[T any](r *Registry) (*Type, bool) {
	return r.TypeById(typeid.Of[T]())
}

// Types returns all registered types in registration order. The slice must
// not be modified.
func (r *Registry) Types() []*Type {
	return r.current.Load().types
}

func (r *Registry) Len() int {
	return len(r.current.Load().types)
}

// Reset removes all types. Descriptors returned earlier stay valid but are no
// longer reachable through the registry.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.current.Store(emptyCatalogue)
}

var defaultRegistry = New()

// Default returns the process wide registry.
func Default() *Registry {
	return defaultRegistry
}
