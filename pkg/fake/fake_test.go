package fake_test

import (
	"context"
	"math"
	"regexp"
	"testing"

	"github.com/aretw0/seedbed/pkg/fake"
	"github.com/aretw0/seedbed/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Reproducible(t *testing.T) {
	reg := fake.NewRegistry()
	ctx := context.Background()

	for _, name := range reg.Names() {
		a, errA := reg.Call(ctx, name, ports.NewSeededSource(7), nil)
		b, errB := reg.Call(ctx, name, ports.NewSeededSource(7), nil)
		require.NoError(t, errA, name)
		require.NoError(t, errB, name)
		assert.Equal(t, a, b, "provider %s should be deterministic for a seed", name)
	}
}

func TestCatalog_Shapes(t *testing.T) {
	reg := fake.NewRegistry()
	ctx := context.Background()
	rnd := ports.NewSeededSource(1)

	v, err := reg.Call(ctx, "uuid", rnd, nil)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`), v)

	v, err = reg.Call(ctx, "email", rnd, map[string]any{"domain": "bluth.com"})
	require.NoError(t, err)
	assert.Regexp(t, `@bluth\.com$`, v)

	v, err = reg.Call(ctx, "pyint", rnd, map[string]any{"min_value": 5, "max_value": 5})
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	_, err = reg.Call(ctx, "pyint", rnd, map[string]any{"min_value": 9, "max_value": 1})
	assert.Error(t, err)

	for i := 0; i < 200; i++ {
		v, err = reg.Call(ctx, "pyint", rnd, map[string]any{"min_value": 0, "max_value": math.MaxInt})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v.(int), 0)

		_, err = reg.Call(ctx, "pyint", rnd, map[string]any{"min_value": math.MinInt, "max_value": math.MaxInt})
		require.NoError(t, err)
	}

	v, err = reg.Call(ctx, "sentence", rnd, map[string]any{"nb_words": "3"})
	require.NoError(t, err)
	assert.Regexp(t, `^[A-Z]\S* \S+ \S+\.$`, v)

	v, err = reg.Call(ctx, "boolean", rnd, map[string]any{"chance_of_getting_true": 100})
	require.NoError(t, err)
	assert.Equal(t, true, v)
}
