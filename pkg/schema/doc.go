// Package schema validates the parameter mappings of recipe generators.
//
// A Schema maps parameter names to Types. Validate reports every missing,
// mistyped, or unexpected parameter at once as an *AggregateError, so a recipe
// author sees all problems of a generator spec in a single pass.
//
//	params := schema.Schema{
//	    "min":  schema.Int(),
//	    "max":  schema.Int(),
//	    "step": schema.Optional(schema.Int()),
//	}
//	if err := schema.Validate(params, raw); err != nil {
//	    // err lists every offending key
//	}
package schema
