package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/seedbed"
	"github.com/aretw0/seedbed/internal/logging"
	"github.com/aretw0/seedbed/pkg/domain"
)

var (
	// ErrNoProgress is returned when a batch completes without producing the
	// target object type, so repeating it would never reach the target.
	ErrNoProgress = errors.New("batch produced no records of the target object")
	// ErrMaxBatches is returned when the batch ceiling is hit before the target.
	ErrMaxBatches = errors.New("maximum number of batches reached")
)

// Generator is the part of the engine the runner drives.
type Generator interface {
	GenerateRecipe(ctx context.Context, sessionID string, recipe *domain.Recipe, opts ...seedbed.RunOption) (*domain.Result, error)
}

// Runner repeats a recipe within one session until a stopping criterion is
// met. just_once blocks run in the first batch only; later batches reference
// their records.
type Runner struct {
	engine     Generator
	logger     *slog.Logger
	sessionID  string
	target     string
	want       int
	maxBatches int
	onBatch    BatchFunc
	vars       map[string]any
	signals    bool
}

// Summary describes a finished (or stopped) run.
type Summary struct {
	Batches int
	// Counts is the number of records per object type across batches.
	Counts map[string]int
	// Records holds every batch's records in order, unless streaming.
	Records []domain.GeneratedRecord
	// Last is the result of the final batch attempted.
	Last *domain.Result
}

// New creates a runner over engine.
func New(engine Generator, opts ...Option) *Runner {
	r := &Runner{
		engine:     engine,
		maxBatches: DefaultMaxBatches,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	return r
}

// Run executes the recipe once, or, with a target, until the target count is
// reached. The Summary is non-nil even when an error is returned.
func (r *Runner) Run(ctx context.Context, recipe *domain.Recipe) (*Summary, error) {
	sum := &Summary{Counts: make(map[string]int)}

	if r.target != "" {
		if r.want < 0 {
			return sum, fmt.Errorf("target count must not be negative, got %d", r.want)
		}
		if !produces(recipe, r.target) {
			return sum, fmt.Errorf("%w: recipe has no %q block", ErrNoProgress, r.target)
		}
	}

	if r.signals {
		sm := NewSignalManager(ctx)
		defer sm.Stop()
		ctx = sm.Context()
	}

	for {
		if r.target != "" && sum.Counts[r.target] >= r.want && sum.Batches > 0 {
			return sum, nil
		}
		if sum.Batches >= r.maxBatches {
			return sum, fmt.Errorf("%w: %d (have %d of %d %s)", ErrMaxBatches, r.maxBatches, sum.Counts[r.target], r.want, r.target)
		}
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		res, err := r.engine.GenerateRecipe(ctx, r.sessionID, recipe, seedbed.WithRunVars(r.vars))
		sum.Last = res
		if err != nil {
			return sum, fmt.Errorf("batch %d: %w", sum.Batches+1, err)
		}
		sum.Batches++
		for _, rec := range res.Records {
			sum.Counts[rec.ObjectType]++
		}

		r.logger.Info("batch completed", "batch", sum.Batches, "records", len(res.Records), "run_id", res.RunID)

		if r.onBatch != nil {
			if err := r.onBatch(ctx, sum.Batches, res); err != nil {
				return sum, err
			}
		} else {
			sum.Records = append(sum.Records, res.Records...)
		}

		if r.target == "" {
			return sum, nil
		}
		if res.Count(r.target) == 0 && sum.Counts[r.target] < r.want {
			return sum, fmt.Errorf("%w: %q", ErrNoProgress, r.target)
		}
	}
}

func produces(recipe *domain.Recipe, objectType string) bool {
	for _, b := range recipe.Blocks {
		if b.Object == objectType {
			return true
		}
	}
	return false
}
