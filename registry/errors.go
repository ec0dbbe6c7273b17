package registry

import (
	"errors"
	"fmt"
)

// Sentinel errors for registry failures.
// These allow both errors.Is() checks and errors.As() for detailed information.
var (
	// ErrDuplicateRegistration is returned when a kind identifier is registered twice.
	ErrDuplicateRegistration = errors.New("duplicate registration")

	// ErrUnknownKind is returned when no kind is registered under an identifier.
	ErrUnknownKind = errors.New("unknown kind")

	// ErrMissingField is returned when a configuration lacks a required field.
	ErrMissingField = errors.New("missing field")

	// ErrInvalidConfig is returned when a configuration has the wrong shape.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// DuplicateRegistrationError indicates an identifier collision at registration time.
type DuplicateRegistrationError struct {
	Registry string
	Kind     string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("registry %s: tried to register kind with same name twice: %s", e.Registry, e.Kind)
}

// Is implements error matching for errors.Is() checks.
func (e *DuplicateRegistrationError) Is(target error) bool {
	return target == ErrDuplicateRegistration
}

// UnknownKindError indicates a lookup of an identifier that was never registered.
type UnknownKindError struct {
	Registry string
	Kind     string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("registry %s: unknown kind %q", e.Registry, e.Kind)
}

// Is implements error matching for errors.Is() checks.
func (e *UnknownKindError) Is(target error) bool {
	return target == ErrUnknownKind
}

// MissingFieldError indicates a configuration mapping without a required field.
type MissingFieldError struct {
	Registry string
	Field    string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("registry %s: configuration is missing field %q", e.Registry, e.Field)
}

// Is implements error matching for errors.Is() checks.
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// InvalidConfigError indicates a configuration the default build path cannot read.
type InvalidConfigError struct {
	Registry string
	Reason   string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("registry %s: %s", e.Registry, e.Reason)
}

// Is implements error matching for errors.Is() checks.
func (e *InvalidConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}
