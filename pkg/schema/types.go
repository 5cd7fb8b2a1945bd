package schema

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/aretw0/tapestry/pkg/domain"
	"github.com/aretw0/tapestry/pkg/expr"
)

// Type defines the contract for Variable value validation.
// Values are always strings; a Type decides which strings are acceptable and how raw
// player input is normalized before it is stored.
type Type interface {
	// Name returns the declared variable type (e.g., "string", "number").
	Name() domain.VariableType
	// Validate checks if a stored value conforms to this type.
	Validate(value string) error
	// Coerce normalizes raw input into a stored value.
	Coerce(raw string) (string, error)
}

// --- Built-in Type Implementations ---

// StringType accepts any value.
type StringType struct{}

func (t *StringType) Name() domain.VariableType { return domain.VariableString }

func (t *StringType) Validate(value string) error { return nil }

func (t *StringType) Coerce(raw string) (string, error) {
	return strings.TrimSpace(raw), nil
}

// NumberType accepts decimal numbers.
type NumberType struct{}

func (t *NumberType) Name() domain.VariableType { return domain.VariableNumber }

func (t *NumberType) Validate(value string) error {
	if _, ok := expr.ParseNumber(value); !ok {
		return fmt.Errorf("expected number, got %q", value)
	}
	return nil
}

func (t *NumberType) Coerce(raw string) (string, error) {
	f, ok := expr.ParseNumber(raw)
	if !ok {
		return "", fmt.Errorf("expected number, got %q", raw)
	}
	return expr.FormatNumber(f), nil
}

// BooleanType accepts "true" and "false".
// Coerce also understands y/yes/n/no/1/0/on/off.
type BooleanType struct{}

func (t *BooleanType) Name() domain.VariableType { return domain.VariableBoolean }

func (t *BooleanType) Validate(value string) error {
	if value != "true" && value != "false" {
		return fmt.Errorf("expected true or false, got %q", value)
	}
	return nil
}

func (t *BooleanType) Coerce(raw string) (string, error) {
	clean := strings.ToLower(strings.TrimSpace(raw))
	switch clean {
	case "y", "yes", "true", "1", "on":
		return "true", nil
	case "n", "no", "false", "0", "off":
		return "false", nil
	}
	return "", fmt.Errorf("invalid boolean input: %q (expected y/n/yes/no)", raw)
}

// URLType accepts absolute URLs. Image variables use it too: they hold asset URLs.
type URLType struct {
	kind domain.VariableType
}

func (t *URLType) Name() domain.VariableType { return t.kind }

func (t *URLType) Validate(value string) error {
	if value == "" {
		return nil
	}
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("expected url: %w", err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("expected absolute url, got %q", value)
	}
	return nil
}

func (t *URLType) Coerce(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if err := t.Validate(value); err != nil {
		return "", err
	}
	return value, nil
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Number creates a number type validator.
func Number() Type { return &NumberType{} }

// Boolean creates a boolean type validator.
func Boolean() Type { return &BooleanType{} }

// URL creates a url type validator.
func URL() Type { return &URLType{kind: domain.VariableURL} }

// Image creates an image type validator.
func Image() Type { return &URLType{kind: domain.VariableImage} }

// ForVariable returns the Type of a declared variable type.
func ForVariable(typ domain.VariableType) (Type, error) {
	switch typ {
	case domain.VariableString, "":
		return String(), nil
	case domain.VariableNumber:
		return Number(), nil
	case domain.VariableBoolean:
		return Boolean(), nil
	case domain.VariableURL:
		return URL(), nil
	case domain.VariableImage:
		return Image(), nil
	default:
		return nil, fmt.Errorf("unsupported variable type: %s", typ)
	}
}
