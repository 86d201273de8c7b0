package session

import (
	"encoding/json"
	"fmt"
	"os"
)

// Store is the JSON-serializable session document: module results collected
// during a console session, keyed by module ID. The structure is opaque to
// the core — it is parsed on import and serialized verbatim on export, with
// no embedded schema or version marker.
type Store struct {
	data map[string]any
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{data: make(map[string]any)}
}

// Record stores a module's outputs under its ID, replacing any prior entry.
func (s *Store) Record(moduleID string, outputs any) {
	s.data[moduleID] = outputs
}

// Data returns the underlying document.
func (s *Store) Data() map[string]any {
	return s.data
}

// Len returns the number of recorded entries.
func (s *Store) Len() int {
	return len(s.data)
}

// LoadFile reads a UTF-8 JSON session file and replaces the store contents.
func (s *Store) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading session file: %w", err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("parsing session file: %w", err)
	}

	s.data = data
	return nil
}

// SaveFile serializes the store to a JSON file.
func (s *Store) SaveFile(path string) error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing session: %w", err)
	}

	if err := os.WriteFile(path, raw, 0600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}
