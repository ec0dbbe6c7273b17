// Package config loads and validates the configuration of a multi-scale run.
//
// A configuration names the number of iterations, the initial content and
// style images, and a mapping of transfer parameters. Each parameter is either
// a literal value or a strategy descriptor with a "type" field; see the
// strategy package for how those are built.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/go-viper/mapstructure/v2"
)

// SupportedVersions is the constraint a configuration's version must satisfy.
const SupportedVersions = "^1"

// ErrInvalid is returned when a configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Run holds the configuration of one multi-scale run.
type Run struct {
	// Params maps transfer parameter names to literals or strategy descriptors.
	Params map[string]any `json:"neural_style"`

	Transfer Transfer `json:"transfer,omitempty"`

	// Version is the configuration format version. Empty means current.
	Version string `json:"version,omitempty" jsonschema:"minLength=1"`

	// ContentImage and StyleImage are paths relative to the configuration file.
	ContentImage string `json:"content_image" jsonschema:"minLength=1"`
	StyleImage   string `json:"style_image" jsonschema:"minLength=1"`

	LogLevel  string `json:"log_level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	LogFormat string `json:"log_format,omitempty" jsonschema:"enum=text,enum=json"`

	// Steps is the number of iterations to run.
	Steps int `json:"multiscale_steps" jsonschema:"minimum=1"`
}

// Transfer locates the WebAssembly module implementing the transfer routine.
// At most one of Module and Reference is set.
type Transfer struct {
	// Module is a path to a .wasm file, relative to the configuration file.
	Module string `json:"module,omitempty"`

	// Reference is an OCI reference such as ghcr.io/org/transfer:1.0.0.
	Reference string `json:"reference,omitempty"`

	// Entry is the exported function to call. Defaults to "transfer".
	Entry string `json:"entry,omitempty"`
}

// Load reads, validates and decodes the configuration file at path.
// Relative image and module paths are resolved against the file's directory.
func Load(path string) (*Run, error) {
	parser, err := ParserFor(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration %q: %w", path, err)
	}

	doc, err := parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration %q: %w", path, err)
	}

	run, err := Decode(doc)
	if err != nil {
		return nil, fmt.Errorf("configuration %q: %w", path, err)
	}

	run.resolvePaths(filepath.Dir(path))
	return run, nil
}

// Decode validates a parsed document and converts it into a Run.
func Decode(doc map[string]any) (*Run, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalid)
	}

	if err := Validate(doc); err != nil {
		return nil, err
	}

	var run Run
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &run,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if err := CheckVersion(run.Version); err != nil {
		return nil, err
	}
	if run.Transfer.Module != "" && run.Transfer.Reference != "" {
		return nil, fmt.Errorf("%w: transfer module and reference are mutually exclusive", ErrInvalid)
	}

	run.applyDefaults()
	return &run, nil
}

// CheckVersion verifies that version satisfies SupportedVersions.
// An empty version is accepted as the current one.
func CheckVersion(version string) error {
	if version == "" {
		return nil
	}

	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return fmt.Errorf("invalid version constraint %q: %w", SupportedVersions, err)
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: version %q: %w", ErrInvalid, version, err)
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: version %s does not satisfy %s", ErrInvalid, version, SupportedVersions)
	}
	return nil
}

func (r *Run) applyDefaults() {
	if r.LogLevel == "" {
		r.LogLevel = "info"
	}
	if r.LogFormat == "" {
		r.LogFormat = "text"
	}
	if r.Transfer.Entry == "" {
		r.Transfer.Entry = "transfer"
	}
	if r.Params == nil {
		r.Params = map[string]any{}
	}
}

func (r *Run) resolvePaths(base string) {
	r.ContentImage = resolve(base, r.ContentImage)
	r.StyleImage = resolve(base, r.StyleImage)
	if r.Transfer.Module != "" {
		r.Transfer.Module = resolve(base, r.Transfer.Module)
	}
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
