package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/aretw0/seedbed"
	"github.com/aretw0/seedbed/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recipe = `
- object: Account
  nickname: bluth_co
  just_once: true
- object: Contact
  count: 2
  fields:
    AccountId:
      reference: bluth_co
`

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	eng, err := seedbed.New(seedbed.WithSeed(1), seedbed.WithLifecycleHooks(m.Hooks()))
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := eng.Generate(ctx, "metrics", []byte(recipe))
		require.NoError(t, err)
	}
	_, err = eng.Generate(ctx, "metrics", []byte("- object: Contact\n  fields:\n    AccountId:\n      reference: Lead\n"))
	require.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Runs.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Records.WithLabelValues("Account")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Records.WithLabelValues("Contact")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BlocksSkipped.WithLabelValues("Account")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.RunDuration))

	_, err = observability.NewMetrics(reg)
	assert.Error(t, err, "collectors register once per registry")
}

func TestAuditHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	eng, err := seedbed.New(seedbed.WithSeed(1), seedbed.WithLifecycleHooks(observability.AuditHooks(logger)))
	require.NoError(t, err)

	_, err = eng.Generate(context.Background(), "", []byte(recipe))
	require.NoError(t, err)

	out := buf.String()
	for _, want := range []string{"Run Start", "Block Start", "Record", "Run Finish"} {
		assert.True(t, strings.Contains(out, want), want)
	}
}
