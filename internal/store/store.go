package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// entryFileExtension is the file extension used for stored entries.
const entryFileExtension = ".json"

// Common store errors.
var (
	ErrNotFound   = errors.New("settings entry not found")
	ErrCorrupted  = errors.New("settings entry corrupted")
	ErrInvalidKey = errors.New("settings key cannot be empty")
)

// FileStore persists entries as JSON files in a directory.
// Safe for concurrent use within one process.
type FileStore struct {
	directory string
	mu        sync.RWMutex
}

// NewFileStore creates a store rooted at directory, creating it if needed.
func NewFileStore(directory string) (*FileStore, error) {
	if directory == "" {
		return nil, errors.New("settings directory cannot be empty")
	}

	if err := os.MkdirAll(directory, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	return &FileStore{directory: directory}, nil
}

// Dir returns the settings directory.
func (s *FileStore) Dir() string {
	return s.directory
}

// Get returns the entry for key.
// Returns ErrNotFound when absent and ErrCorrupted when unreadable or written
// by a newer schema.
func (s *FileStore) Get(key string) (*Entry, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.keyToFilePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var entry Entry
	if unmarshalErr := json.Unmarshal(data, &entry); unmarshalErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, unmarshalErr)
	}

	if entry.Version < 1 || entry.Version > SchemaVersion {
		return nil, fmt.Errorf("%w: unsupported version %d (expected %d)", ErrCorrupted, entry.Version, SchemaVersion)
	}

	return &entry, nil
}

// Set stores data under key, replacing any existing entry.
func (s *FileStore) Set(key string, data json.RawMessage) error {
	if key == "" {
		return ErrInvalidKey
	}

	entryData, err := json.MarshalIndent(NewEntry(key, data), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return writeAtomic(s.keyToFilePath(key), entryData)
}

// Delete removes the entry for key. Deleting a missing key is not an error.
func (s *FileStore) Delete(key string) error {
	if key == "" {
		return ErrInvalidKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.keyToFilePath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete settings file: %w", err)
	}
	return nil
}

// Keys returns the keys of all readable entries, sorted.
func (s *FileStore) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dirEntries, err := os.ReadDir(s.directory)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings directory: %w", err)
	}

	var keys []string
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() || filepath.Ext(dirEntry.Name()) != entryFileExtension {
			continue
		}

		data, readErr := os.ReadFile(filepath.Join(s.directory, dirEntry.Name()))
		if readErr != nil {
			continue
		}

		var entry Entry
		if json.Unmarshal(data, &entry) != nil || entry.Key == "" {
			continue
		}
		keys = append(keys, entry.Key)
	}

	sort.Strings(keys)
	return keys, nil
}

// keyToFilePath converts a key to a file path safe for every platform.
func (s *FileStore) keyToFilePath(key string) string {
	safeKey := strings.ReplaceAll(key, "/", "_")
	safeKey = strings.ReplaceAll(safeKey, "\\", "_")
	safeKey = strings.ReplaceAll(safeKey, ":", "_")
	return filepath.Join(s.directory, safeKey+entryFileExtension)
}

// writeAtomic writes data to a temporary file and renames it into place.
func writeAtomic(path string, data []byte) error {
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename settings file: %w", err)
	}
	return nil
}
