package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/seedbed"
	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/aretw0/seedbed/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bluth(t *testing.T) *domain.Recipe {
	t.Helper()
	b := dsl.New("bluth")
	b.Object("Account").Nickname("bluth_co").JustOnce().Set("Name", "The Bluth Company")
	b.Object("Opportunity").Count(3).Ref("AccountId", "bluth_co")
	recipe, err := b.Build()
	require.NoError(t, err)
	return recipe
}

func newEngine(t *testing.T) *seedbed.Engine {
	t.Helper()
	eng, err := seedbed.New(seedbed.WithSeed(3))
	require.NoError(t, err)
	return eng
}

func TestRunner_SingleBatch(t *testing.T) {
	sum, err := New(newEngine(t)).Run(context.Background(), bluth(t))
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Batches)
	assert.Equal(t, map[string]int{"Account": 1, "Opportunity": 3}, sum.Counts)
	assert.Len(t, sum.Records, 4)
}

func TestRunner_Target(t *testing.T) {
	r := New(newEngine(t), WithSessionID("load"), WithTarget("Opportunity", 10))

	sum, err := r.Run(context.Background(), bluth(t))
	require.NoError(t, err)

	assert.Equal(t, 4, sum.Batches)
	assert.Equal(t, 12, sum.Counts["Opportunity"], "the last batch may overshoot")
	assert.Equal(t, 1, sum.Counts["Account"], "just_once blocks run in the first batch only")

	last := sum.Records[len(sum.Records)-1]
	assert.Equal(t, 12, last.ID)
	v, _ := last.Field("AccountId")
	assert.Equal(t, domain.RecordRef{ObjectType: "Account", ID: 1}, v)
}

func TestRunner_OnBatchStreams(t *testing.T) {
	var seen []int
	r := New(newEngine(t),
		WithTarget("Opportunity", 6),
		WithOnBatch(func(ctx context.Context, batch int, res *domain.Result) error {
			seen = append(seen, len(res.Records))
			return nil
		}),
	)

	sum, err := r.Run(context.Background(), bluth(t))
	require.NoError(t, err)
	assert.Equal(t, []int{4, 3}, seen)
	assert.Empty(t, sum.Records)

	stop := errors.New("disk full")
	r = New(newEngine(t), WithTarget("Opportunity", 6), WithOnBatch(func(context.Context, int, *domain.Result) error {
		return stop
	}))
	_, err = r.Run(context.Background(), bluth(t))
	assert.ErrorIs(t, err, stop)
}

func TestRunner_NoProgress(t *testing.T) {
	eng := newEngine(t)

	_, err := New(eng, WithTarget("Lead", 5)).Run(context.Background(), bluth(t))
	assert.ErrorIs(t, err, ErrNoProgress, "target missing from the recipe")

	// Account is just_once: after the first batch it is never produced again.
	sum, err := New(eng, WithSessionID("acc"), WithTarget("Account", 2)).Run(context.Background(), bluth(t))
	assert.ErrorIs(t, err, ErrNoProgress)
	assert.Equal(t, 2, sum.Batches)
}

func TestRunner_MaxBatches(t *testing.T) {
	r := New(newEngine(t), WithTarget("Opportunity", 100), WithMaxBatches(2))

	sum, err := r.Run(context.Background(), bluth(t))
	assert.ErrorIs(t, err, ErrMaxBatches)
	assert.Equal(t, 2, sum.Batches)
}

func TestRunner_BatchFailure(t *testing.T) {
	b := dsl.New("broken")
	b.Object("Contact").Ref("AccountId", "Account")
	b.Object("Account")
	recipe, err := b.Build()
	require.NoError(t, err)

	sum, err := New(newEngine(t)).Run(context.Background(), recipe)
	var unresolved *domain.UnresolvedReferenceError
	assert.True(t, errors.As(err, &unresolved))
	assert.Equal(t, 0, sum.Batches)
	require.NotNil(t, sum.Last)
	assert.Equal(t, domain.StatusFailed, sum.Last.Status)
}

func TestRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(newEngine(t), WithSignals()).Run(ctx, bluth(t))
	assert.ErrorIs(t, err, context.Canceled)
}
