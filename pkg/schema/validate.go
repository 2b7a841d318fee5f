package schema

import (
	"maps"
	"reflect"
	"slices"
)

// Schema maps factor names to their expected value types.
type Schema map[string]Type

// ValidateFactors checks a block's factors against the schema.
// Every declared factor must be present. Array-valued factors are checked element by
// element, scalars as a whole. Factors missing from the schema are not checked.
func ValidateFactors(schema Schema, factors map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	var errs []error
	for _, key := range slices.Sorted(maps.Keys(schema)) {
		typ := schema[key]
		value, exists := factors[key]
		if !exists {
			errs = append(errs, &ValidationError{Key: key, Index: -1, Reason: "required"})
			continue
		}

		rv := reflect.ValueOf(value)
		if value != nil && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
			for i := 0; i < rv.Len(); i++ {
				elem := rv.Index(i).Interface()
				if err := typ.Validate(elem); err != nil {
					errs = append(errs, &ValidationError{Key: key, Index: i, Reason: err.Error(), Value: elem})
				}
			}
			continue
		}

		if err := typ.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: key, Index: -1, Reason: err.Error(), Value: value})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
