package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/seedbed/internal/config"
	"github.com/goccy/go-json"
)

// ListSessions prints the stored session IDs, one per line.
func ListSessions(ctx context.Context, cfg config.Config, w io.Writer) error {
	storage, err := OpenStorage(cfg)
	if err != nil {
		return err
	}
	defer storage.Close()

	ids, err := storage.Store.List(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		printSystemMessage(w, "No sessions in %s storage.", storage.Kind)
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
	return nil
}

// ShowSession prints a session as indented JSON.
func ShowSession(ctx context.Context, cfg config.Config, id string, w io.Writer) error {
	storage, err := OpenStorage(cfg)
	if err != nil {
		return err
	}
	defer storage.Close()

	s, err := storage.Store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("session %q: %w", id, err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// DeleteSession removes a session so its just_once blocks run again.
func DeleteSession(ctx context.Context, cfg config.Config, id string, w io.Writer) error {
	storage, err := OpenStorage(cfg)
	if err != nil {
		return err
	}
	defer storage.Close()

	if err := storage.Store.Delete(ctx, id); err != nil {
		return err
	}
	printSystemMessage(w, "Session '%s' deleted.", id)
	return nil
}
