package schema

import (
	"testing"

	"github.com/aretw0/tapestry/pkg/domain"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		typ     domain.VariableType
		raw     string
		want    string
		wantErr bool
	}{
		{domain.VariableString, "  Ada  ", "Ada", false},
		{domain.VariableNumber, " 5.50 ", "5.5", false},
		{domain.VariableNumber, "five", "", true},
		{domain.VariableBoolean, "Yes", "true", false},
		{domain.VariableBoolean, "0", "false", false},
		{domain.VariableBoolean, "maybe", "", true},
		{domain.VariableURL, "https://example.com/a", "https://example.com/a", false},
		{domain.VariableURL, "not a url", "", true},
		{domain.VariableImage, "", "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ)+"/"+tt.raw, func(t *testing.T) {
			typ, err := ForVariable(tt.typ)
			if err != nil {
				t.Fatalf("ForVariable(%s) error = %v", tt.typ, err)
			}
			got, err := typ.Coerce(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Coerce(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Coerce(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestForVariable_Unknown(t *testing.T) {
	if _, err := ForVariable("matrix"); err == nil {
		t.Error("ForVariable() should reject unknown types")
	}
}

func TestValidate_AggregatesFailures(t *testing.T) {
	vars := []*domain.Variable{
		{ID: "score", Type: domain.VariableNumber},
		{ID: "flag", Type: domain.VariableBoolean},
		{ID: "name", Type: domain.VariableString},
	}
	s, err := FromVariables(vars)
	if err != nil {
		t.Fatalf("FromVariables() error = %v", err)
	}

	err = Validate(s, map[string]string{
		"score": "ten",
		"flag":  "true",
	})
	if err == nil {
		t.Fatal("Validate() should fail")
	}

	errs := ValidationErrors(err)
	if len(errs) != 2 {
		t.Fatalf("Validate() = %d errors, want 2", len(errs))
	}
	// Keys are reported in sorted order.
	if ve := errs[0].(*ValidationError); ve.Key != "name" || ve.Reason != "required" {
		t.Errorf("first error = %v, want name required", ve)
	}
	if ve := errs[1].(*ValidationError); ve.Key != "score" {
		t.Errorf("second error key = %q, want score", ve.Key)
	}
}

func TestValidateState(t *testing.T) {
	ok := domain.VariableState{
		"v1": {Title: "score", Type: domain.VariableNumber, Value: "0"},
		"v2": {Title: "flag", Type: domain.VariableBoolean, Value: "false"},
	}
	if err := ValidateState(ok); err != nil {
		t.Errorf("ValidateState() error = %v", err)
	}

	bad := domain.VariableState{
		"v1": {Title: "flag", Type: domain.VariableBoolean, Value: "yes"},
		"v2": {Title: "odd", Type: "matrix", Value: ""},
	}
	if errs := ValidationErrors(ValidateState(bad)); len(errs) != 2 {
		t.Errorf("ValidateState() = %d errors, want 2", len(errs))
	}
}
