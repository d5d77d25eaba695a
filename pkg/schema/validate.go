package schema

import "sort"

// Schema is a map of parameter names to their expected types.
type Schema map[string]Type

// Validate checks that data conforms to the schema. Keys absent from the
// schema are reported as unexpected. All failures are returned together as an
// *AggregateError, ordered by key.
func Validate(schema Schema, data map[string]any) error {
	var errs []error

	keys := make([]string, 0, len(schema))
	for k := range schema {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		t := schema[key]
		value, exists := data[key]
		if !exists || value == nil {
			if !isOptional(t) {
				errs = append(errs, &FieldError{Key: key, Reason: "required"})
			}
			continue
		}
		if err := t.Validate(value); err != nil {
			errs = append(errs, &FieldError{Key: key, Reason: err.Error(), Value: value})
		}
	}

	extra := make([]string, 0)
	for key := range data {
		if _, ok := schema[key]; !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		errs = append(errs, &FieldError{Key: key, Reason: "unexpected parameter"})
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
