package shell

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// ModeStore persists the selected conversation mode across restarts.
type ModeStore interface {
	Load() (string, error)
	Save(mode string) error
}

// MemoryModeStore keeps the selection in memory only. Used as the
// default and in tests.
type MemoryModeStore struct {
	mu   sync.Mutex
	mode string
}

func (s *MemoryModeStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode, nil
}

func (s *MemoryModeStore) Save(mode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	return nil
}

// FileModeStore persists the selection as a small JSON file.
type FileModeStore struct {
	Path string

	mu sync.Mutex
}

type storedMode struct {
	Mode string `json:"mode"`
}

func (s *FileModeStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read mode file: %w", err)
	}

	var stored storedMode
	if err := json.Unmarshal(raw, &stored); err != nil {
		return "", fmt.Errorf("failed to parse mode file: %w", err)
	}
	return stored.Mode, nil
}

func (s *FileModeStore) Save(mode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(storedMode{Mode: mode}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode mode file: %w", err)
	}
	if err := os.WriteFile(s.Path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write mode file: %w", err)
	}
	return nil
}
