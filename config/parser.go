package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclparse"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"gopkg.in/yaml.v3"
)

// Parser parses raw configuration bytes into a generic document.
type Parser interface {
	// Parse unmarshals configuration bytes into a string-keyed mapping.
	Parse(data []byte) (map[string]any, error)
}

// ParserFor returns the parser matching the file extension of path.
func ParserFor(path string) (Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return NewYAMLParser(), nil
	case ".json":
		return NewJSONParser(), nil
	case ".hcl":
		return NewHCLParser(filepath.Base(path)), nil
	default:
		return nil, fmt.Errorf("unsupported configuration format %q", ext)
	}
}

// YAMLParser implements Parser for YAML.
type YAMLParser struct{}

// NewYAMLParser creates a new YAMLParser.
func NewYAMLParser() Parser {
	return &YAMLParser{}
}

// Parse unmarshals YAML bytes into a mapping.
func (p *YAMLParser) Parse(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// JSONParser implements Parser for JSON.
type JSONParser struct{}

// NewJSONParser creates a new JSONParser.
func NewJSONParser() Parser {
	return &JSONParser{}
}

// Parse unmarshals JSON bytes into a mapping.
func (p *JSONParser) Parse(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// HCLParser implements Parser for HCL files made of top-level attributes.
// Blocks are not supported; nested settings are written as object values.
type HCLParser struct {
	filename string
}

// NewHCLParser creates a new HCLParser. The filename is used in diagnostics.
func NewHCLParser(filename string) Parser {
	return &HCLParser{filename: filename}
}

// Parse evaluates every top-level attribute without variables or functions.
func (p *HCLParser) Parse(data []byte) (map[string]any, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, p.filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %w", diags)
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to read HCL attributes: %w", diags)
	}

	doc := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate %q: %w", name, diags)
		}

		// cty values go through JSON to land on plain Go types.
		raw, err := ctyjson.Marshal(val, val.Type())
		if err != nil {
			return nil, fmt.Errorf("failed to convert %q: %w", name, err)
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("failed to convert %q: %w", name, err)
		}
		doc[name] = v
	}
	return doc, nil
}
