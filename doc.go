/*
Package seedbed generates internally consistent batches of synthetic records
from declarative YAML recipes.

A recipe is an ordered list of object blocks. Each block creates one or more
records of an object type, filling fields with literals, templates, fake data,
random numbers, dates, weighted choices, and references to records created
earlier in the same recipe.

# Concept

Seedbed executes recipes strictly in document order. A reference may only
target a block that appears above it, so the order you read a recipe is the
order records exist. Blocks marked just_once run at most once per session:
running the recipe again skips them but still lets later blocks reference the
records they created.

The engine is the core; hosts (the CLI, the HTTP server, the MCP server) only
feed it recipe text and a session name and write the result somewhere.

# Usage

	eng, err := seedbed.New(seedbed.WithSeed(42))
	if err != nil {
		log.Fatal(err)
	}

	res, err := eng.Generate(ctx, "demo", recipeYAML)
	if err != nil {
		log.Fatal(err)
	}
	for _, rec := range res.Records {
		fmt.Println(rec.ObjectType, rec.ID, rec.Map())
	}

# Determinism

Every run draws from a single seeded random stream. The stream for a session
run is seeded with the base seed plus the session run index, so repeated
batches differ from each other yet replay identically for the same seed.

# Sessions

Session state (satisfied just_once blocks, their record handles, and per-type
id sequences) lives in a ports.SessionStore: in memory by default, or the file
and Redis adapters for durable sessions. See WithJustOnceScope for the
session, process and batch scopes.
*/
package seedbed
