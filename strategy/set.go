package strategy

import (
	"fmt"
	"maps"
	"slices"

	"github.com/reglet-dev/reglet-multiscale/registry"
)

// Set holds one strategy per parameter name for the duration of a run.
type Set map[string]Strategy

// BuildSet builds a strategy for every parameter using the default registry.
func BuildSet(params map[string]any) (Set, error) {
	return BuildSetWith(Default(), params)
}

// BuildSetWith builds a strategy for every parameter using r. The first
// invalid parameter, in name order, fails the whole build.
func BuildSetWith(r *registry.Registry[Strategy], params map[string]any) (Set, error) {
	set := make(Set, len(params))
	for _, name := range slices.Sorted(maps.Keys(params)) {
		s, err := r.Build(params[name])
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		set[name] = s
	}
	return set, nil
}

// Names returns the parameter names in sorted order.
func (s Set) Names() []string {
	return slices.Sorted(maps.Keys(s))
}

// Compute returns the current value of every strategy. If any strategy
// fails, no snapshot is returned.
func (s Set) Compute() (map[string]any, error) {
	snapshot := make(map[string]any, len(s))
	for _, name := range s.Names() {
		v, err := s[name].Compute()
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		snapshot[name] = v
	}
	return snapshot, nil
}

// Step advances every strategy by one step.
func (s Set) Step() {
	for _, st := range s {
		st.Step()
	}
}
