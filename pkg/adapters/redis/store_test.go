package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/seedbed/pkg/adapters/redis"
	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/aretw0/seedbed/pkg/ports/tests"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr, backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	tests.RunSessionStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	sess := domain.NewSession("session-ttl")
	sess.Satisfied["bluth_co"] = true
	require.NoError(t, store.Save(ctx, sess))

	sessions, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, sessions, "session-ttl")

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "session-ttl")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// The index is pruned against the wall clock.
	time.Sleep(1200 * time.Millisecond)

	sessions, err = store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewSession("my-session")))

	assert.True(t, mr.Exists("custom:app:my-session"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	list, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, list, "my-session")
}
