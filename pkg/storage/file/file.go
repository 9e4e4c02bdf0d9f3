// Package file persists storage entries to a single JSON document on disk, the
// closest analogue of a browser's local storage for a desktop process.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/gearstore/pkg/logger"
	"github.com/angelmondragon/gearstore/pkg/storage"
)

const filePerm = 0o600

// syncFile flushes the temp document to stable storage before the rename.
var syncFile = func(f *os.File) error { return f.Sync() }

// Store holds the decoded document in memory and rewrites it on every change.
type Store struct {
	mu      sync.Mutex
	path    string
	entries map[string]string
}

// Open loads the document at path, creating parent directories as needed.
// A missing file starts an empty store. A document that cannot be decoded is
// renamed aside and the store starts empty.
func Open(ctx context.Context, path string, logg *logger.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("storage file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	s := &Store{path: path, entries: map[string]string{}}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading storage file: %w", err)
	}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.entries); err != nil {
		aside := fmt.Sprintf("%s.corrupt-%s", path, time.Now().UTC().Format("20060102T150405.000000000Z"))
		if renameErr := os.Rename(path, aside); renameErr != nil {
			return nil, multierr.Append(fmt.Errorf("decoding storage file %s: %w", path, err), renameErr)
		}
		if logg == nil {
			logg = logger.Nop()
		}
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"path":  path,
			"moved": aside,
			"error": err.Error(),
		}), "storage file unreadable; starting empty")
		s.entries = map[string]string{}
	}
	return s, nil
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.entries[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyEntries()
	next[key] = value
	if err := s.flush(next); err != nil {
		return err
	}
	s.entries = next
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return nil
	}
	next := s.copyEntries()
	delete(next, key)
	if err := s.flush(next); err != nil {
		return err
	}
	s.entries = next
	return nil
}

// Ping verifies the storage directory is still writable.
func (s *Store) Ping(context.Context) error {
	info, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return fmt.Errorf("stat storage directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage directory %s is not a directory", filepath.Dir(s.path))
	}
	return nil
}

func (s *Store) copyEntries() map[string]string {
	next := make(map[string]string, len(s.entries)+1)
	for k, v := range s.entries {
		next[k] = v
	}
	return next
}

// flush writes to a temp file in the same directory and renames it over the
// document, so readers never observe a partial write.
func (s *Store) flush(entries map[string]string) (err error) {
	payload, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding storage file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".storage-*.json")
	if err != nil {
		return fmt.Errorf("creating temp storage file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			err = multierr.Append(err, ignoreMissing(os.Remove(tmpName)))
		}
	}()

	if _, err = tmp.Write(payload); err != nil {
		return multierr.Append(fmt.Errorf("writing temp storage file: %w", err), tmp.Close())
	}
	if err = tmp.Chmod(filePerm); err != nil {
		return multierr.Append(fmt.Errorf("chmod temp storage file: %w", err), tmp.Close())
	}
	if err = syncFile(tmp); err != nil {
		return multierr.Append(fmt.Errorf("syncing temp storage file: %w", err), tmp.Close())
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp storage file: %w", err)
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing storage file: %w", err)
	}
	return nil
}

func ignoreMissing(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
