// Package registry implements a name-keyed factory table for polymorphic kinds
// built from declarative configuration.
package registry

import (
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
)

// TypeField is the configuration key that selects the kind to build.
const TypeField = "type"

// BuildFunc turns a configuration value into an instance. It receives the
// registry so it can consult registered kinds recursively.
type BuildFunc[T any] func(config any, r *Registry[T]) (T, error)

// Kind is a constructible entry of a Registry.
type Kind[T any] struct {
	// Name is the identifier used in the "type" field of a configuration.
	Name string

	// New constructs an instance from the remaining configuration fields.
	New func(args Args) (T, error)

	// Args is an optional model of the constructor arguments, used for schema
	// generation only.
	Args any
}

// KindOf creates a Kind whose Name is the declared Go type name of K.
// Type arguments and pointer indirection are stripped, so a constructor
// returning *ListParamStrategy[any] registers as "ListParamStrategy".
// It panics if K is not assignable to T.
func KindOf[T any, K any](construct func(args Args) (K, error)) Kind[T] {
	kt := reflect.TypeFor[K]()
	tt := reflect.TypeFor[T]()
	if !kt.AssignableTo(tt) {
		panic(fmt.Sprintf("registry: %s is not assignable to %s", kt, tt))
	}

	return Kind[T]{
		Name: declaredName(kt),
		New: func(args Args) (T, error) {
			k, err := construct(args)
			if err != nil {
				var zero T
				return zero, err
			}
			return any(k).(T), nil
		},
	}
}

// WithArgs returns a copy of the kind carrying an argument model.
func (k Kind[T]) WithArgs(model any) Kind[T] {
	k.Args = model
	return k
}

func declaredName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if idx := strings.IndexByte(name, '['); idx != -1 {
		name = name[:idx]
	}
	return name
}

// Registry maps kind identifiers to constructors. Registration is permanent:
// there is no way to remove a kind once added.
type Registry[T any] struct {
	kinds     map[string]Kind[T]
	build     BuildFunc[T]
	reflector *jsonschema.Reflector
	logger    *slog.Logger
	name      string
	order     []string
	mu        sync.RWMutex
}

// Option configures the Registry.
type Option[T any] func(*Registry[T])

// WithBuildFunc replaces the default build procedure.
func WithBuildFunc[T any](fn BuildFunc[T]) Option[T] {
	return func(r *Registry[T]) {
		r.build = fn
	}
}

// WithLogger sets the logger used for registration diagnostics.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(r *Registry[T]) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates an empty registry. The name is used in diagnostics only.
func New[T any](name string, opts ...Option[T]) *Registry[T] {
	r := &Registry[T]{
		name:      name,
		kinds:     make(map[string]Kind[T]),
		reflector: new(jsonschema.Reflector),
		logger:    slog.Default(),
	}

	r.reflector.ExpandedStruct = true
	r.reflector.DoNotReference = true

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Name returns the diagnostic name of the registry.
func (r *Registry[T]) Name() string {
	return r.name
}

// Register adds a kind under its Name and returns it unchanged.
func (r *Registry[T]) Register(kind Kind[T]) (Kind[T], error) {
	if kind.Name == "" {
		return kind, fmt.Errorf("registry %s: kind has no name", r.name)
	}
	if kind.New == nil {
		return kind, fmt.Errorf("registry %s: kind %s has no constructor", r.name, kind.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.kinds[kind.Name]; exists {
		return kind, &DuplicateRegistrationError{Registry: r.name, Kind: kind.Name}
	}

	r.logger.Debug("Registering kind.", "registry", r.name, "kind", kind.Name)
	r.kinds[kind.Name] = kind
	r.order = append(r.order, kind.Name)
	return kind, nil
}

// MustRegister is like Register but panics on error.
func (r *Registry[T]) MustRegister(kind Kind[T]) Kind[T] {
	k, err := r.Register(kind)
	if err != nil {
		panic(err.Error())
	}
	return k
}

// Build constructs an instance from config. If the registry has a custom
// build function it is used; otherwise BuildDefault applies.
func (r *Registry[T]) Build(config any) (T, error) {
	if r.build != nil {
		return r.build(config, r)
	}
	return r.BuildDefault(config)
}

// BuildDefault expects config to be a mapping with a "type" field naming the
// kind. The remaining fields are passed to the kind's constructor. The
// caller's mapping is not modified.
func (r *Registry[T]) BuildDefault(config any) (T, error) {
	var zero T

	if !IsMapping(config) {
		return zero, &InvalidConfigError{Registry: r.name, Reason: fmt.Sprintf("expected a mapping, got %T", config)}
	}
	fields, ok := AsMapping(config)
	if !ok {
		return zero, &InvalidConfigError{Registry: r.name, Reason: fmt.Sprintf("mapping keys must be strings, got %T", config)}
	}

	raw, ok := fields[TypeField]
	if !ok {
		return zero, &MissingFieldError{Registry: r.name, Field: TypeField}
	}
	typ, ok := raw.(string)
	if !ok {
		return zero, &InvalidConfigError{Registry: r.name, Reason: fmt.Sprintf("field %q must be a string, got %T", TypeField, raw)}
	}

	args := make(Args, len(fields)-1)
	for k, v := range fields {
		if k != TypeField {
			args[k] = v
		}
	}

	return r.BuildKind(typ, args)
}

// BuildKind looks up the named kind and calls its constructor with args.
// Constructor errors are returned as they are.
func (r *Registry[T]) BuildKind(name string, args Args) (T, error) {
	kind, err := r.Lookup(name)
	if err != nil {
		var zero T
		return zero, err
	}
	return kind.New(args)
}

// Lookup returns the kind registered under name.
func (r *Registry[T]) Lookup(name string) (Kind[T], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kind, ok := r.kinds[name]
	if !ok {
		return Kind[T]{}, &UnknownKindError{Registry: r.name, Kind: name}
	}
	return kind, nil
}

// Len returns the number of registered kinds.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.kinds)
}

// Names returns the registered identifiers in registration order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// All iterates over registered kinds in registration order.
func (r *Registry[T]) All() iter.Seq2[string, Kind[T]] {
	return func(yield func(string, Kind[T]) bool) {
		for _, name := range r.Names() {
			kind, err := r.Lookup(name)
			if err != nil {
				continue
			}
			if !yield(name, kind) {
				return
			}
		}
	}
}

// Schema returns the JSON schema of the named kind's constructor arguments.
// Kinds registered without an argument model get an unconstrained object.
func (r *Registry[T]) Schema(name string) (string, error) {
	kind, err := r.Lookup(name)
	if err != nil {
		return "", err
	}

	if kind.Args == nil {
		return `{"type":"object"}`, nil
	}

	r.mu.Lock()
	s := r.reflector.Reflect(kind.Args)
	r.mu.Unlock()

	s.Title = kind.Name
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema for %s: %w", name, err)
	}
	return string(b), nil
}
