package registry

import "iter"

// Catalog is the read-only view of a Registry.
type Catalog[T any] interface {
	// Lookup returns the kind registered under name.
	Lookup(name string) (Kind[T], error)

	// Len returns the number of registered kinds.
	Len() int

	// Names returns all registered identifiers.
	Names() []string

	// All iterates over identifiers and their kinds.
	All() iter.Seq2[string, Kind[T]]

	// Schema returns the JSON schema for a kind's constructor arguments.
	Schema(name string) (string, error)
}

var _ Catalog[any] = (*Registry[any])(nil)
