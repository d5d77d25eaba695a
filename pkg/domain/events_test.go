package domain_test

import (
	"context"
	"testing"

	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestMergeHooks_CallsInOrder(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{
		OnRecord: func(context.Context, *domain.RecordEvent) { calls = append(calls, "a") },
	}
	b := domain.LifecycleHooks{
		OnRecord:    func(context.Context, *domain.RecordEvent) { calls = append(calls, "b") },
		OnRunFinish: func(context.Context, *domain.RunEvent) { calls = append(calls, "finish") },
	}

	merged := domain.MergeHooks(a, domain.LifecycleHooks{}, b)
	merged.OnRecord(context.Background(), &domain.RecordEvent{})
	merged.OnRunFinish(context.Background(), &domain.RunEvent{})

	assert.Equal(t, []string{"a", "b", "finish"}, calls)
	assert.Nil(t, merged.OnBlockSkip)
}
