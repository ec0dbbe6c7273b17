// Package strategy provides multi-scale parameter strategies: stateful value
// producers that compute a parameter value for the current iteration and
// advance one step at a time.
package strategy

import (
	"errors"
	"fmt"
)

// ParamStrategy computes how a parameter value evolves over multiple steps.
// Compute has no side effects; only Step changes state.
type ParamStrategy[V any] interface {
	// Compute returns the value for the current step.
	Compute() (V, error)

	// Step advances the strategy by exactly one step.
	Step()

	// Index returns the current step, starting at 0.
	Index() int
}

// Strategy is the type stored in the multi-scale registry.
type Strategy = ParamStrategy[any]

// ErrIndexOutOfRange is returned when a strategy is driven past its last value.
var ErrIndexOutOfRange = errors.New("index out of range")

// IndexOutOfRangeError reports the step that had no value.
type IndexOutOfRangeError struct {
	Step int
	Len  int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("step %d out of range for %d values", e.Step, e.Len)
}

// Is implements error matching for errors.Is() checks.
func (e *IndexOutOfRangeError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}

// counter is the step state shared by all strategies.
type counter struct {
	step int
}

func (c *counter) Step() { c.step++ }

func (c *counter) Index() int { return c.step }

// ConstantParamStrategy always computes the value it was created with.
type ConstantParamStrategy[V any] struct {
	value V
	counter
}

// NewConstant creates a strategy that always computes value.
func NewConstant[V any](value V) *ConstantParamStrategy[V] {
	return &ConstantParamStrategy[V]{value: value}
}

// Compute returns the constant value.
func (s *ConstantParamStrategy[V]) Compute() (V, error) {
	return s.value, nil
}

// ListParamStrategy computes the element of a fixed sequence at the current
// step. The sequence should have one value per iteration that will be run.
type ListParamStrategy[V any] struct {
	values []V
	counter
}

// NewList creates a strategy stepping through values. The slice is copied.
func NewList[V any](values []V) *ListParamStrategy[V] {
	return &ListParamStrategy[V]{values: append([]V(nil), values...)}
}

// Compute returns the value at the current step.
func (s *ListParamStrategy[V]) Compute() (V, error) {
	if s.step >= len(s.values) {
		var zero V
		return zero, &IndexOutOfRangeError{Step: s.step, Len: len(s.values)}
	}
	return s.values[s.step], nil
}

// Len returns the number of values in the sequence.
func (s *ListParamStrategy[V]) Len() int {
	return len(s.values)
}
