package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"leboncoin-watcher/utils"
)

// SeenSet holds the ids of listings that were already notified. It only grows.
type SeenSet map[string]struct{}

func NewSeenSet(ids ...string) SeenSet {
	s := make(SeenSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s SeenSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s SeenSet) Add(id string) {
	s[id] = struct{}{}
}

// IDs returns the ids in sorted order.
func (s SeenSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SeenStore persists a SeenSet as a JSON array of strings in a flat file.
type SeenStore struct {
	path string
}

func NewSeenStore(path string) *SeenStore {
	return &SeenStore{path: path}
}

// Load never fails: a missing or unreadable file gives an empty set.
func (s *SeenStore) Load() SeenSet {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			utils.Warn("Could not read %s, starting with an empty seen set: %v", s.path, err)
		}
		return NewSeenSet()
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		utils.Warn("Seen file %s is corrupted, starting with an empty seen set: %v", s.path, err)
		return NewSeenSet()
	}

	return NewSeenSet(ids...)
}

// Save overwrites the file with the whole set. The write goes through a
// temporary file in the same directory so a crash never leaves half a file.
func (s *SeenStore) Save(set SeenSet) error {
	data, err := json.Marshal(set.IDs())
	if err != nil {
		return fmt.Errorf("serialize seen set: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp seen file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	// CreateTemp makes 0600 files; keep the state file world-readable.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod seen file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write seen file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close seen file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace seen file: %w", err)
	}

	return nil
}
