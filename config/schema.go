package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "run.schema.json"

// Schema returns the JSON schema of a run configuration, reflected from Run.
func Schema() (string, error) {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
		Anonymous:      true,
	}
	s := r.Reflect(&Run{})
	s.Title = "multiscale run configuration"

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal generated schema: %w", err)
	}
	return string(b), nil
}

var compiledSchema = sync.OnceValues(func() (*validator.Schema, error) {
	s, err := Schema()
	if err != nil {
		return nil, err
	}

	c := validator.NewCompiler()
	if err := c.AddResource(schemaURL, strings.NewReader(s)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	return c.Compile(schemaURL)
})

// Validate checks a parsed document against the run configuration schema.
func Validate(doc map[string]any) error {
	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}

	// Round-trip through JSON so the validator only sees JSON types.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("configuration is not JSON-compatible: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("configuration is not JSON-compatible: %w", err)
	}

	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}
