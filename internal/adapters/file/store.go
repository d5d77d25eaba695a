package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/goccy/go-json"
)

const ext = ".json"

// Store implements ports.SessionStore using the local filesystem.
// It stores sessions as JSON files in a configured directory.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".seedbed/sessions".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".seedbed", "sessions")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("sessionID cannot be empty")
	}
	if strings.ContainsAny(sessionID, `/\`) || sessionID == "." || sessionID == ".." {
		return "", fmt.Errorf("invalid session id %q", sessionID)
	}
	return filepath.Join(s.BasePath, sessionID+ext), nil
}

// Save persists the session to a JSON file atomically.
func (s *Store) Save(ctx context.Context, session *domain.Session) error {
	path, err := s.path(session.ID)
	if err != nil {
		return err
	}
	return WriteSession(path, session)
}

// Load retrieves the session from its JSON file.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	path, err := s.path(sessionID)
	if err != nil {
		return nil, err
	}
	return ReadSession(path)
}

// Delete removes the session file.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	path, err := s.path(sessionID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List returns all stored session IDs, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var sessions []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, "tmp-") {
			continue
		}
		sessions = append(sessions, strings.TrimSuffix(name, ext))
	}
	sort.Strings(sessions)
	return sessions, nil
}

// ReadSession loads a session from a JSON file, such as a continuation file
// written by an earlier process.
func ReadSession(path string) (*domain.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	session.Normalize()
	return &session, nil
}

// WriteSession writes a session to path atomically: a temp file in the same
// directory is synced and then renamed over the destination.
func WriteSession(path string, session *domain.Session) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "tmp-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Windows rename fails when the destination exists.
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove existing session file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to session file: %w", err)
	}
	return nil
}
