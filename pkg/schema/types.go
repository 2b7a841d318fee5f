package schema

import (
	"fmt"
	"slices"
	"strings"
)

// Type validates a single factor value.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "int").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

type basicType struct {
	name     string
	validate func(any) error
}

func (t basicType) Name() string             { return t.name }
func (t basicType) Validate(value any) error { return t.validate(value) }

// String accepts string values.
func String() Type {
	return basicType{name: "string", validate: func(v any) error {
		if _, ok := v.(string); !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		return nil
	}}
}

// Int accepts integers, and floats that are whole numbers (JSON and YAML decoding).
func Int() Type {
	return basicType{name: "int", validate: func(v any) error {
		switch n := v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return nil
		case float64:
			if n == float64(int64(n)) {
				return nil
			}
			return fmt.Errorf("expected int, got float (not a whole number)")
		}
		return fmt.Errorf("expected int, got %T", v)
	}}
}

// Float accepts any numeric value.
func Float() Type {
	return basicType{name: "float", validate: func(v any) error {
		switch v.(type) {
		case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return nil
		}
		return fmt.Errorf("expected float, got %T", v)
	}}
}

// Bool accepts boolean values.
func Bool() Type {
	return basicType{name: "bool", validate: func(v any) error {
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
		return nil
	}}
}

// OneOf accepts only the listed levels, compared by their string form.
func OneOf(levels ...string) Type {
	return basicType{
		name: "oneof(" + strings.Join(levels, "|") + ")",
		validate: func(v any) error {
			if slices.Contains(levels, fmt.Sprint(v)) {
				return nil
			}
			return fmt.Errorf("%v is not one of %v", v, levels)
		},
	}
}

// Custom creates a type from a user-defined validation function.
func Custom(name string, validate func(any) error) Type {
	return basicType{name: name, validate: validate}
}

// ParseType converts a type name from an experiment file to a Type.
// Supported: "string", "int", "float", "bool" and "oneof(a|b|c)".
func ParseType(typeStr string) (Type, error) {
	typeStr = strings.TrimSpace(typeStr)
	if rest, ok := strings.CutPrefix(typeStr, "oneof("); ok && strings.HasSuffix(rest, ")") {
		levels := strings.Split(strings.TrimSuffix(rest, ")"), "|")
		return OneOf(levels...), nil
	}

	switch typeStr {
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	}
	return nil, fmt.Errorf("unsupported type: %s", typeStr)
}

// ParseTypeMap converts a map of factor names to type strings into a Schema.
// Example: {"target": "oneof(left|right)", "distance": "float"}
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema)
	for key, typeStr := range typeMap {
		t, err := ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("factor %s: %w", key, err)
		}
		result[key] = t
	}
	return result, nil
}
