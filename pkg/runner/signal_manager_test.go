package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalManager_Lifecycle(t *testing.T) {
	sm := NewSignalManager(context.Background())

	ctx := sm.Context()
	assert.NotNil(t, ctx)
	assert.NoError(t, ctx.Err())
	assert.False(t, sm.Interrupted())

	sm.Stop()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.True(t, sm.Interrupted())
}

func TestSignalManager_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	sm := NewSignalManager(parent)
	defer sm.Stop()

	cancel()
	<-sm.Context().Done()
	assert.True(t, sm.Interrupted())
}
