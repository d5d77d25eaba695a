/*
Package runner repeats a recipe in one session until a stopping criterion is met.

A single run of a recipe produces one batch. With a target (WithTarget) the
runner keeps generating batches in the same session until the target object
type has at least the requested number of records. Because batches share the
session, just_once blocks are created in the first batch and referenced by the
rest, and id sequences keep counting.

# Usage

	r := runner.New(engine,
		runner.WithSessionID("load-1"),
		runner.WithTarget("Opportunity", 1000),
		runner.WithOnBatch(func(ctx context.Context, n int, res *domain.Result) error {
			return writer.Write(ctx, res.Records)
		}),
	)

	summary, err := r.Run(ctx, recipe)
*/
package runner
