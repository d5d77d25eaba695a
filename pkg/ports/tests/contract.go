package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/aretw0/seedbed/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract verifies that a SessionStore implementation adheres
// to the interface contract. Every adapter runs it from its own tests.
func RunSessionStoreContract(t *testing.T, store ports.SessionStore) {
	t.Helper()
	ctx := context.Background()
	sessionID := "contract-" + time.Now().Format("20060102150405.000000000")

	t.Run("Save and Load", func(t *testing.T) {
		sess := domain.NewSession(sessionID)
		sess.Satisfied["bluth_co"] = true
		sess.Sequences["Account"] = 3
		sess.Carried = []domain.RecordHandle{{ObjectType: "Account", Nickname: "bluth_co", ID: 1}}
		sess.Runs = 2

		require.NoError(t, store.Save(ctx, sess))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, sessionID, loaded.ID)
		assert.True(t, loaded.Satisfied["bluth_co"])
		assert.Equal(t, 3, loaded.Sequences["Account"])
		assert.Equal(t, sess.Carried, loaded.Carried)
		assert.Equal(t, 2, loaded.Runs)
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Satisfied["mutated"] = true

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.False(t, again.Satisfied["mutated"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.NewSession(sessionID)))
		require.NoError(t, store.Delete(ctx, sessionID))

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, domain.NewSession(id1)))
		require.NoError(t, store.Save(ctx, domain.NewSession(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
