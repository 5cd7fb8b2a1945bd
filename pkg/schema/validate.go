package schema

import (
	"sort"

	"github.com/aretw0/tapestry/pkg/domain"
)

// Schema is a map of Variable ids to their expected types.
type Schema map[string]Type

// FromVariables builds the schema of a World's Variables.
// Unknown declared types are reported as validation errors.
func FromVariables(vars []*domain.Variable) (Schema, error) {
	s := make(Schema, len(vars))
	var errs []error
	for _, v := range vars {
		t, err := ForVariable(v.Type)
		if err != nil {
			errs = append(errs, &ValidationError{Key: v.ID, Reason: err.Error(), Value: string(v.Type)})
			continue
		}
		s[v.ID] = t
	}
	if len(errs) > 0 {
		return s, &AggregateError{Errors: errs}
	}
	return s, nil
}

// Validate checks if every value of data conforms to the schema.
// Returns an error with all validation failures found, in key order.
func Validate(schema Schema, data map[string]string) error {
	if len(schema) == 0 {
		// No schema = no validation
		return nil
	}

	keys := make([]string, 0, len(schema))
	for k := range schema {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		value, exists := data[key]
		if !exists {
			errs = append(errs, &ValidationError{Key: key, Reason: "required"})
			continue
		}
		if err := schema[key].Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ValidateState checks a state snapshot against each value's declared type.
func ValidateState(state domain.VariableState) error {
	schema := make(Schema, len(state))
	data := make(map[string]string, len(state))
	var errs []error
	for id, v := range state {
		t, err := ForVariable(v.Type)
		if err != nil {
			errs = append(errs, &ValidationError{Key: id, Reason: err.Error(), Value: string(v.Type)})
			continue
		}
		schema[id] = t
		data[id] = v.Value
	}
	if err := Validate(schema, data); err != nil {
		errs = append(errs, ValidationErrors(err)...)
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
