// Package prefs persists small client preferences such as the feed's
// personalization toggle.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/zfogg/sidechain/reels/pkg/config"
	"github.com/zfogg/sidechain/reels/pkg/logger"
	"github.com/zfogg/sidechain/reels/pkg/reels"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store is a JSON file of key/value pairs. A missing file is an empty
// store; it is created on the first write.
type Store struct {
	path   string
	mu     sync.Mutex
	values map[string]interface{}
}

var (
	_ reels.PreferenceStore = (*Store)(nil)
	_ reels.PreferenceStore = (*Memory)(nil)
)

// Open loads the store at path.
func Open(path string) (*Store, error) {
	s := &Store{path: path, values: map[string]interface{}{}}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		// overwritten on the next write
		logger.Warn("Ignoring unreadable preferences file", "path", path, "error", err)
		s.values = map[string]interface{}{}
	}
	return s, nil
}

// Default opens the store named by prefs.file.
func Default() (*Store, error) {
	return Open(config.GetString("prefs.file"))
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// GetBool returns the stored value and whether it was present.
func (s *Store) GetBool(key string) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key].(bool)
	return v, ok
}

// SetBool stores value and flushes the file.
func (s *Store) SetBool(key string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.values[key]
	s.values[key] = value
	if err := s.flush(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	logger.Debug("Preference saved", "key", key, "value", value)
	return nil
}

// flush writes to a temp file and renames it over the store.
func (s *Store) flush() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".prefs-*")
	if err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}

// Memory is a store that forgets everything on exit.
type Memory struct {
	mu     sync.Mutex
	values map[string]bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: map[string]bool{}}
}

func (m *Memory) GetBool(key string) (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) SetBool(key string, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
