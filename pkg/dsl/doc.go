/*
Package dsl provides a Go DSL for constructing seedbed recipes in code.

It is the programmatic twin of the YAML recipe format, useful for tests,
generated fixtures, and IDE-checked recipes. Blocks and fields keep the order
they are added in, which is the order the engine executes them.

Example usage:

	b := dsl.New("bluth.go")
	b.Object("Account").Nickname("bluth_co").JustOnce().
		Set("Name", "The Bluth Company")
	b.Object("Contact").Nickname("Michael").JustOnce().
		Set("FirstName", "Michael").
		Ref("AccountId", "bluth_co")

	recipe, err := b.Build()
	// ... pass recipe to (*seedbed.Engine).GenerateRecipe
*/
package dsl
