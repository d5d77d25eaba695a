package runner

import (
	"context"
	"log/slog"

	"github.com/aretw0/seedbed/pkg/domain"
)

// DefaultMaxBatches caps the batches a target run may take.
const DefaultMaxBatches = 1000

// BatchFunc is called after every completed batch. Returning an error stops the run.
type BatchFunc func(ctx context.Context, batch int, res *domain.Result) error

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithSessionID sets the session the batches run in.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.sessionID = id
	}
}

// WithTarget keeps running batches until objectType has at least n records.
// The last batch may overshoot.
func WithTarget(objectType string, n int) Option {
	return func(r *Runner) {
		r.target = objectType
		r.want = n
	}
}

// WithMaxBatches sets the batch ceiling for target runs.
func WithMaxBatches(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxBatches = n
		}
	}
}

// WithOnBatch streams each batch to fn. Streaming runs do not retain records
// in the Summary.
func WithOnBatch(fn BatchFunc) Option {
	return func(r *Runner) {
		r.onBatch = fn
	}
}

// WithVars sets option overrides for every batch.
func WithVars(vars map[string]any) Option {
	return func(r *Runner) {
		r.vars = vars
	}
}

// WithSignals stops the run between batches on SIGINT or SIGTERM.
func WithSignals() Option {
	return func(r *Runner) {
		r.signals = true
	}
}
