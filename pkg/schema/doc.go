// Package schema validates and coerces Variable values.
//
// Variable values are always stored as strings. Each declared variable type
// (string, number, boolean, image, url) has a Type that validates stored values
// and normalizes raw player input:
//
//	t, _ := schema.ForVariable(domain.VariableBoolean)
//	v, err := t.Coerce("Yes") // "true"
//
// Schemas map Variable ids to types and report every failure at once:
//
//	s, _ := schema.FromVariables(vars)
//	if err := schema.Validate(s, values); err != nil {
//	    for _, e := range schema.ValidationErrors(err) { ... }
//	}
package schema
