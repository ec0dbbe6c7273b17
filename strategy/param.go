package strategy

import (
	"fmt"

	"github.com/reglet-dev/reglet-multiscale/registry"
)

// Param is a parsed parameter configuration. It is either a Literal or a
// Descriptor.
type Param interface {
	isParam()
}

// Literal is any configuration value that is not a Go map. It stands for a
// constant strategy computing exactly that value, lists included.
type Literal struct {
	Value any
}

// Descriptor is a mapping configuration naming a registered strategy kind.
type Descriptor struct {
	// Fields are the constructor arguments, without the type field.
	Fields registry.Args
	Type   string
}

func (Literal) isParam()    {}
func (Descriptor) isParam() {}

// ParseParam resolves a raw configuration value into a Literal or a
// Descriptor. Every Go map is a descriptor: one without a "type" field, or
// with a non-string key, is an error.
func ParseParam(v any) (Param, error) {
	if !registry.IsMapping(v) {
		return Literal{Value: v}, nil
	}
	fields, ok := registry.AsMapping(v)
	if !ok {
		return nil, &registry.InvalidConfigError{Registry: RegistryName, Reason: fmt.Sprintf("mapping keys must be strings, got %T", v)}
	}

	raw, ok := fields[registry.TypeField]
	if !ok {
		return nil, &registry.MissingFieldError{Registry: RegistryName, Field: registry.TypeField}
	}
	typ, ok := raw.(string)
	if !ok {
		return nil, &registry.InvalidConfigError{Registry: RegistryName, Reason: "strategy type must be a string"}
	}

	args := make(registry.Args, len(fields)-1)
	for k, val := range fields {
		if k != registry.TypeField {
			args[k] = val
		}
	}
	return Descriptor{Type: typ, Fields: args}, nil
}
