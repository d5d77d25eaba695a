package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Type defines the contract for parameter validation.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "int").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

type stringType struct{}

func (stringType) Name() string { return "string" }

func (stringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

type intType struct{}

func (intType) Name() string { return "int" }

func (intType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case float64:
		// YAML and JSON decoders may hand whole numbers over as floats.
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got float (not a whole number)")
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
}

type weightType struct{}

func (weightType) Name() string { return "weight" }

func (weightType) Validate(value any) error {
	w, err := ParseWeight(value)
	if err != nil {
		return err
	}
	if w < 0 {
		return fmt.Errorf("weight must not be negative, got %v", value)
	}
	return nil
}

type anyType struct{}

func (anyType) Name() string { return "any" }

func (anyType) Validate(any) error { return nil }

type optionalType struct {
	elem Type
}

func (t optionalType) Name() string { return t.elem.Name() + "?" }

func (t optionalType) Validate(value any) error {
	if value == nil {
		return nil
	}
	return t.elem.Validate(value)
}

// String accepts string values.
func String() Type { return stringType{} }

// Int accepts integers (and whole floats).
func Int() Type { return intType{} }

// Weight accepts non-negative numbers or percentages such as "60%".
func Weight() Type { return weightType{} }

// Any accepts every value.
func Any() Type { return anyType{} }

// Optional marks a parameter that may be omitted (or null).
func Optional(t Type) Type { return optionalType{elem: t} }

func isOptional(t Type) bool {
	_, ok := t.(optionalType)
	return ok
}

// ParseWeight converts a probability ("60%", 60, 0.6) to a float weight.
// Percent strings drop the sign: "60%" and 60 weigh the same.
func ParseWeight(value any) (float64, error) {
	switch v := value.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "%"))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("expected number or percentage, got %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected number or percentage, got %T", value)
	}
}
