// Package localstore is the durable fallback store used when the remote
// API is unreachable. It keeps the same logical schema as the remote
// store (a collections blob with nested products, history arrays, and a
// page-view counter) in a single JSON file, one value per key.
package localstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// Store keys. They mirror the browser-local store of the original site.
const (
	KeyCollections   = "collections"
	KeyClickHistory  = "click_history"
	KeyViews         = "collection_views"
	KeyPageViews     = "page_views"
	KeyPreferences   = "preferences"
	KeyNotifications = "notifications"
)

// Store is a file-backed key-value store. Every Put persists the whole
// file; the data set is small (one admin's catalog) so this is fine.
type Store struct {
	mu   sync.Mutex
	path string
	data map[string]json.RawMessage
}

// Open loads the store file at path, creating an empty store if the file
// does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path, data: make(map[string]json.RawMessage)}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Get unmarshals the value stored under key into v. The second return is
// false when the key is absent.
func (s *Store) Get(key string, v interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

// Put stores v under key and persists the file.
func (s *Store) Put(key string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.data[key] = raw
	return s.flush()
}

// Delete removes a key and persists the file.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return s.flush()
}

// flush writes the file atomically: temp file in the same directory, then
// rename. Callers hold the mutex.
func (s *Store) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".shelfy-store-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
