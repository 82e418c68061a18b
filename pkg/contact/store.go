package contact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/teslashibe/naveye-assist/internal/config"
)

// Store persists accepted inquiries.
type Store interface {
	// Save appends an inquiry.
	Save(inq *Inquiry) error

	// List returns all inquiries, newest first.
	List() ([]*Inquiry, error)

	// Count returns the number of stored inquiries.
	Count() int
}

// JSONStore implements Store using a JSON file for persistence.
type JSONStore struct {
	path      string
	inquiries []*Inquiry
	mu        sync.RWMutex
}

type storeData struct {
	Version   int        `json:"version"`
	UpdatedAt string     `json:"updated_at"`
	Inquiries []*Inquiry `json:"inquiries"`
}

const currentVersion = 1

// NewJSONStore creates a store at path. The file is created on first save.
func NewJSONStore(path string) (*JSONStore, error) {
	store := &JSONStore{path: path}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := store.load(); err != nil {
			return nil, fmt.Errorf("failed to load store: %w", err)
		}
	}

	return store, nil
}

// NewDefaultStore creates a store at ~/.naveye/inquiries.json.
func NewDefaultStore() (*JSONStore, error) {
	return NewJSONStore(config.Path("inquiries.json"))
}

func (s *JSONStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var stored storeData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	s.inquiries = stored.Inquiries
	return nil
}

// save writes the store to disk. Caller holds s.mu.
func (s *JSONStore) save() error {
	stored := storeData{
		Version:   currentVersion,
		UpdatedAt: time.Now().Format(time.RFC3339),
		Inquiries: s.inquiries,
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	// Write to temp file first, then rename (atomic write)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Save appends inq and writes the file.
func (s *JSONStore) Save(inq *Inquiry) error {
	if inq == nil || inq.ID == "" {
		return fmt.Errorf("inquiry ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.inquiries = append(s.inquiries, inq)
	if err := s.save(); err != nil {
		s.inquiries = s.inquiries[:len(s.inquiries)-1]
		return err
	}
	return nil
}

// List returns all inquiries, newest first.
func (s *JSONStore) List() ([]*Inquiry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Inquiry, len(s.inquiries))
	copy(out, s.inquiries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out, nil
}

// Count returns the number of stored inquiries.
func (s *JSONStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.inquiries)
}

var _ Store = (*JSONStore)(nil)
