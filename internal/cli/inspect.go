package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/seedbed"
	"github.com/aretw0/seedbed/internal/adapters/file"
	"github.com/aretw0/seedbed/internal/presentation/graph"
	"github.com/aretw0/seedbed/internal/presentation/tui"
	"github.com/aretw0/seedbed/pkg/domain"
)

// ErrInvalidRecipe is returned by RunValidate when the lint finds errors.
var ErrInvalidRecipe = errors.New("recipe has errors")

// RunValidate lints a recipe file and prints every issue. Warnings alone do
// not fail the check.
func RunValidate(path string, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read recipe: %w", err)
	}
	engine, err := seedbed.New()
	if err != nil {
		return err
	}
	report, err := engine.Validate(data)
	if err != nil {
		return err
	}
	for _, issue := range report.Issues {
		fmt.Fprintln(w, issue.String())
	}
	if !report.OK() {
		fmt.Fprintln(w, tui.Status(false, "Recipe is invalid"))
		return ErrInvalidRecipe
	}
	fmt.Fprintln(w, tui.Status(true, "Recipe is valid!"))
	return nil
}

// GraphOptions holds the flags of the graph command.
type GraphOptions struct {
	// Overlay runs the recipe once, without persisting anything, and marks
	// produced counts and skipped blocks on the diagram.
	Overlay bool
	// ContinuationFile supplies session state for the overlay run.
	ContinuationFile string
	Seed             int64
}

// RunGraph prints the Mermaid diagram of a recipe file.
func RunGraph(ctx context.Context, path string, opts GraphOptions, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read recipe: %w", err)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = 1
	}
	engine, err := seedbed.New(seedbed.WithSeed(seed))
	if err != nil {
		return err
	}
	recipe, err := engine.Parse(data)
	if err != nil {
		return err
	}

	var overlay *graph.GraphOverlay
	if opts.Overlay || opts.ContinuationFile != "" {
		var state *domain.Session
		if opts.ContinuationFile != "" {
			state, err = file.ReadSession(opts.ContinuationFile)
			if err != nil {
				return fmt.Errorf("read continuation file: %w", err)
			}
		}
		res, _, err := engine.Continue(ctx, state, recipe)
		if err != nil {
			return fmt.Errorf("overlay run: %w", err)
		}
		overlay = &graph.GraphOverlay{Skipped: res.Skipped, Counts: make(map[string]int)}
		for _, rec := range res.Records {
			overlay.Counts[rec.ObjectType]++
		}
	}

	_, err = fmt.Fprint(w, graph.GenerateMermaid(recipe, overlay))
	return err
}
