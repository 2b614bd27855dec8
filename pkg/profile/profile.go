// Package profile persists user choices between sessions in a TOML file.
package profile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"quadview/internal/models"
)

type profileFile struct {
	Settings map[string]bool `toml:"settings"`
}

// Store is a set of boolean settings backed by a file.
// It is safe for concurrent use.
type Store struct {
	path string

	mu       sync.Mutex
	settings map[string]bool
}

// Load reads the profile at path. A missing file yields an empty store that
// will be created on Save.
func Load(path string) (*Store, error) {
	s := &Store{path: path, settings: make(map[string]bool)}
	if path == "" {
		return s, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s, nil
	}

	var pf profileFile
	if _, err := toml.DecodeFile(path, &pf); err != nil {
		return nil, fmt.Errorf("error parsing profile %s: %w", path, err)
	}
	for k, v := range pf.Settings {
		s.settings[k] = v
	}
	return s, nil
}

// Path returns the file the store saves to
func (s *Store) Path() string {
	return s.path
}

// Bool returns the stored value for key, or def if it was never set
func (s *Store) Bool(key string, def bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.settings[key]; ok {
		return v
	}
	return def
}

// Lookup returns the stored value for key and whether it was set
func (s *Store) Lookup(key string) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.settings[key]
	return v, ok
}

// PutBool records a value; it is written on the next Save
func (s *Store) PutBool(key string, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = v
}

// Save writes the profile to its file
func (s *Store) Save() error {
	if s.path == "" {
		return fmt.Errorf("profile has no file path")
	}

	s.mu.Lock()
	pf := profileFile{Settings: make(map[string]bool, len(s.settings))}
	for k, v := range s.settings {
		pf.Settings[k] = v
	}
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(pf); err != nil {
		return fmt.Errorf("error encoding profile: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("error creating profile directory: %w", err)
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("error writing profile: %w", err)
	}
	return nil
}

// Selection returns the quadrant selection stored in the profile.
// Quadrants that were never set default to kept.
func (s *Store) Selection() models.QuadSelection {
	sel := models.NoQuadrants
	for _, spec := range models.Quadrants {
		if s.Bool(spec.Key, true) {
			sel = sel.With(spec.Quadrant)
		}
	}
	return sel
}

// PutSelection records one flag per quadrant
func (s *Store) PutSelection(sel models.QuadSelection) {
	for _, spec := range models.Quadrants {
		s.PutBool(spec.Key, sel.Has(spec.Quadrant))
	}
}
