package runtime_test

import (
	"testing"

	"github.com/aretw0/seedbed/internal/runtime"
	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/aretw0/seedbed/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanner_PreservesOrder(t *testing.T) {
	recipe := &domain.Recipe{Blocks: []domain.ObjectBlock{
		{Object: "Contact", Fields: []domain.Field{{Name: "AccountId", Spec: domain.Reference("Account")}}},
		{Object: "Account", JustOnce: true},
		{Object: "Opportunity", Count: domain.FixedCount(3)},
	}}

	units, err := runtime.NewPlanner(ports.FixedClock(testNow)).Plan(recipe)
	require.NoError(t, err)
	require.Len(t, units, 3)
	assert.Equal(t, "Contact", units[0].Block.Object, "no reordering to satisfy references")
	assert.True(t, units[1].JustOnce)
	assert.Equal(t, domain.FixedCount(1), units[0].Count)
	assert.Equal(t, domain.FixedCount(3), units[2].Count)
	for i, u := range units {
		assert.Equal(t, i, u.Index)
	}
}

func TestPlanner_Validation(t *testing.T) {
	cases := map[string][]domain.ObjectBlock{
		"duplicate nickname": {
			{Object: "Account", Nickname: "bluth_co"},
			{Object: "Contact", Nickname: "bluth_co"},
		},
		"shared just_once alias": {
			{Object: "Account", JustOnce: true},
			{Object: "Account", JustOnce: true},
		},
		"reversed range": {
			{Object: "Account", Fields: []domain.Field{{Name: "N", Spec: domain.RandomNumber(9, 1)}}},
		},
		"reversed dates": {
			{Object: "Account", Fields: []domain.Field{{Name: "D", Spec: domain.DateBetween("2024-02-01", "2024-01-01")}}},
		},
		"unparseable date": {
			{Object: "Account", Fields: []domain.Field{{Name: "D", Spec: domain.DateBetween("soon", "today")}}},
		},
		"negative count": {
			{Object: "Account", Count: domain.FixedCount(-2)},
		},
		"reversed count range": {
			{Object: "Account", Count: domain.CountSpec{Kind: domain.CountRandom, Range: &domain.NumberRange{Min: 5, Max: 3}}},
		},
		"nested bad pick": {
			{Object: "Account", Fields: []domain.Field{{Name: "N", Spec: domain.RandomChoice(
				domain.Choice{Probability: 1, Pick: domain.RandomNumber(3, 1)},
			)}}},
		},
		"missing object": {
			{Nickname: "ghost"},
		},
	}
	planner := runtime.NewPlanner(ports.FixedClock(testNow))
	for name, blocks := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := planner.Plan(&domain.Recipe{Blocks: blocks})
			var ve *domain.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestPlanner_RangeErrorIsReachable(t *testing.T) {
	_, err := runtime.NewPlanner(nil).Plan(&domain.Recipe{Blocks: []domain.ObjectBlock{
		{Object: "Account", Fields: []domain.Field{{Name: "N", Spec: domain.RandomNumber(9, 1)}}},
	}})
	var re *domain.RangeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 9, re.Min)
}

func TestPlanner_DistinctJustOnceAliases(t *testing.T) {
	_, err := runtime.NewPlanner(nil).Plan(&domain.Recipe{Blocks: []domain.ObjectBlock{
		{Object: "Account", Nickname: "bluth_co", JustOnce: true},
		{Object: "Account", Nickname: "sitwell", JustOnce: true},
	}})
	assert.NoError(t, err)
}

func TestResolveOptions(t *testing.T) {
	recipe := &domain.Recipe{Options: []domain.Option{{Name: "num_accounts", Default: 2}, {Name: "region", Default: "OC"}}}

	opts, err := runtime.ResolveOptions(recipe, map[string]any{"num_accounts": "5"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"num_accounts": "5", "region": "OC"}, opts)

	_, err = runtime.ResolveOptions(recipe, map[string]any{"banana": 1})
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}
