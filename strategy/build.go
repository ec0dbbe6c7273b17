package strategy

import (
	"fmt"
	"sync"

	"github.com/reglet-dev/reglet-multiscale/registry"
)

// RegistryName is the diagnostic name of the multi-scale strategy registry.
const RegistryName = "multiscale-strategies"

type constantArgs struct {
	Value any `arg:"value" json:"value"`
}

type listArgs struct {
	Values []any `arg:"values" json:"values"`
}

func newConstantKind(args registry.Args) (*ConstantParamStrategy[any], error) {
	var a constantArgs
	if err := args.Decode(&a); err != nil {
		return nil, err
	}
	return NewConstant(a.Value), nil
}

func newListKind(args registry.Args) (*ListParamStrategy[any], error) {
	var a listArgs
	if err := args.Decode(&a); err != nil {
		return nil, err
	}
	return NewList(a.Values), nil
}

// buildStrategy treats any non-mapping value as a constant strategy and
// builds mappings through the registered kinds.
func buildStrategy(config any, r *registry.Registry[Strategy]) (Strategy, error) {
	p, err := ParseParam(config)
	if err != nil {
		return nil, err
	}

	switch p := p.(type) {
	case Literal:
		return NewConstant(p.Value), nil
	case Descriptor:
		return r.BuildKind(p.Type, p.Fields)
	default:
		return nil, fmt.Errorf("unsupported parameter configuration %T", p)
	}
}

// NewRegistry creates a registry holding the built-in strategy kinds:
// ConstantParamStrategy and ListParamStrategy.
func NewRegistry() (*registry.Registry[Strategy], error) {
	r := registry.New[Strategy](RegistryName, registry.WithBuildFunc[Strategy](buildStrategy))

	kinds := []registry.Kind[Strategy]{
		registry.KindOf[Strategy](newConstantKind).WithArgs(constantArgs{}),
		registry.KindOf[Strategy](newListKind).WithArgs(listArgs{}),
	}
	for _, k := range kinds {
		if _, err := r.Register(k); err != nil {
			return nil, err
		}
	}
	return r, nil
}

var defaultRegistry = sync.OnceValue(func() *registry.Registry[Strategy] {
	r, err := NewRegistry()
	if err != nil {
		panic(err.Error())
	}
	return r
})

// Default returns the process-wide strategy registry.
func Default() *registry.Registry[Strategy] {
	return defaultRegistry()
}

// Build builds a single strategy from config using the default registry.
func Build(config any) (Strategy, error) {
	return Default().Build(config)
}
