package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/seedbed/internal/config"
	"github.com/aretw0/seedbed/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchRecipe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r.yml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := watchRecipe(ctx, path, 10*time.Millisecond, logging.NewNop())
	require.NoError(t, err)

	// Writes to a neighbouring file are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yml"), []byte("x"), 0644))
	select {
	case got := <-changes:
		t.Fatalf("unexpected change for %s", got)
	case <-time.After(150 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(path, []byte("b"), 0644))
	select {
	case got := <-changes:
		abs, _ := filepath.Abs(path)
		assert.Equal(t, abs, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case _, ok := <-changes:
		for ok {
			_, ok = <-changes
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestWatchRecipe_MissingDirectory(t *testing.T) {
	_, err := watchRecipe(context.Background(), filepath.Join(t.TempDir(), "gone", "r.yml"), WatchDebounce, logging.NewNop())
	assert.Error(t, err)
}

func TestRunWatch_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stdio, _, errOut := testIO()
	recipe := writeRecipe(t)

	done := make(chan error, 1)
	go func() {
		done <- RunWatch(ctx, config.Config{}, GenerateOptions{RecipePath: recipe, Seed: 1}, stdio)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("RunWatch did not return after cancel")
	}
	assert.Contains(t, errOut.String(), "Waiting for changes")
}
