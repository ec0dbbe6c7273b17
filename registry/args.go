package registry

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

// Args holds the constructor arguments of a kind: the configuration fields
// left after the "type" field is removed.
type Args map[string]any

// ArgsTag is the struct tag read by Args.Decode.
const ArgsTag = "arg"

// Decode copies the arguments into the struct pointed to by into, matching
// fields by their `arg` tag. Unknown arguments and arguments missing from
// the input are both errors.
func (a Args) Decode(into any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     ArgsTag,
		ErrorUnused: true,
		ErrorUnset:  true,
		Result:      into,
	})
	if err != nil {
		return fmt.Errorf("failed to create argument decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(a)); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// IsMapping reports whether v is a Go map, whatever its key and value types.
func IsMapping(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Map
}

// AsMapping converts a map with string keys into a map[string]any. Maps
// keyed by a string type, and maps with interface keys that all hold
// strings, are accepted. It returns false for anything else, including maps
// with a non-string key.
func AsMapping(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Args:
		return map[string]any(m), true
	}

	if !IsMapping(v) {
		return nil, false
	}

	rv := reflect.ValueOf(v)
	keyKind := rv.Type().Key().Kind()
	if keyKind != reflect.String && keyKind != reflect.Interface {
		return nil, false
	}

	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key()
		if k.Kind() == reflect.Interface {
			k = k.Elem()
		}
		if !k.IsValid() || k.Kind() != reflect.String {
			return nil, false
		}
		out[k.String()] = iter.Value().Interface()
	}
	return out, true
}
