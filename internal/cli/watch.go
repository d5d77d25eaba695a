package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/seedbed/internal/config"
	"github.com/aretw0/seedbed/internal/presentation/tui"
	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/fsnotify/fsnotify"
)

// WatchDebounce collapses the burst of events an editor emits for one save.
const WatchDebounce = 100 * time.Millisecond

// RunWatch regenerates every time the recipe file changes, until ctx is done.
// Each run is a fresh batch so edits to just_once blocks show up immediately.
func RunWatch(ctx context.Context, cfg config.Config, opts GenerateOptions, stdio IO) error {
	opts.Scope = string(domain.ScopeBatch)
	opts.ContinuationFile = ""
	opts.GenerateContinuationFile = ""
	opts.WorkingDirectory = ""

	logger := createLogger(opts.Debug, cfg.LogLevel)
	changes, err := watchRecipe(ctx, opts.RecipePath, WatchDebounce, logger)
	if err != nil {
		return err
	}

	if !opts.Quiet {
		tui.PrintBanner(stdio.Err)
		printSystemMessage(stdio.Err, "Watching '%s'.", opts.RecipePath)
	}

	for {
		if err := RunGenerate(ctx, cfg, opts, stdio); err != nil {
			printSystemMessage(stdio.Err, "%v", err)
		}
		if !opts.Quiet {
			printSystemMessage(stdio.Err, "Waiting for changes...")
		}

		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Info("Watcher restarting", "path", opts.RecipePath)
			if !opts.Quiet {
				printSystemMessage(stdio.Err, "Change detected in '%s'.", opts.RecipePath)
			}
		}
	}
}

// watchRecipe reports writes to path on the returned channel. The parent
// directory is watched rather than the file so editors that save by rename
// keep being seen. At most one change is buffered; the channel closes when
// ctx is done.
func watchRecipe(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger) (<-chan string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	out := make(chan string, 1)
	go func() {
		defer close(out)
		defer w.Close()

		timer := time.NewTimer(debounce)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != abs || (!evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create)) {
					continue
				}
				timer.Reset(debounce)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("file watcher error", "path", abs, "err", err)
			case <-timer.C:
				select {
				case out <- abs:
				default:
				}
			}
		}
	}()
	return out, nil
}
