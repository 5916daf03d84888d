// Package store provides the document store used by actions to persist
// design, requirement, and summary artifacts. Documents live as plain files
// under a root directory; inter-document dependencies are tracked in a
// sidecar manifest so downstream tooling can rebuild affected artifacts.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const manifestName = ".dependencies.json"

// Document is a stored artifact together with its recorded dependencies.
type Document struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	Content      string    `json:"content"`
	Dependencies []string  `json:"dependencies,omitempty"`
	SavedAt      time.Time `json:"saved_at"`
}

// DocumentStore persists documents under a root directory.
type DocumentStore struct {
	root string
	mu   sync.Mutex
}

// NewDocumentStore creates a store rooted at the given directory, creating
// it if necessary.
func NewDocumentStore(root string) (*DocumentStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create document root %s: %w", root, err)
	}
	return &DocumentStore{root: root}, nil
}

// Root returns the store's root directory.
func (s *DocumentStore) Root() string {
	return s.root
}

// Save writes content under filename (relative to the root) and records its
// dependencies in the manifest. Parent directories are created as needed.
func (s *DocumentStore) Save(filename, content string, dependencies ...string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.root, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", filename, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write document %s: %w", filename, err)
	}

	doc := &Document{
		ID:           uuid.NewString(),
		Filename:     filename,
		Content:      content,
		Dependencies: dependencies,
		SavedAt:      time.Now(),
	}

	if len(dependencies) > 0 {
		if err := s.recordDependencies(filename, dependencies); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// Get reads a previously saved document, including its recorded dependencies.
func (s *DocumentStore) Get(filename string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.root, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", filename, err)
	}

	deps, err := s.loadManifest()
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat document %s: %w", filename, err)
	}

	return &Document{
		Filename:     filename,
		Content:      string(data),
		Dependencies: deps[filename],
		SavedAt:      info.ModTime(),
	}, nil
}

// List returns the filenames of all stored documents, relative to the root.
func (s *DocumentStore) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var files []string
	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Base(path) == manifestName {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return files, nil
}

func (s *DocumentStore) recordDependencies(filename string, dependencies []string) error {
	deps, err := s.loadManifest()
	if err != nil {
		return err
	}
	deps[filename] = dependencies

	data, err := json.MarshalIndent(deps, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode dependency manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.root, manifestName), data, 0o644); err != nil {
		return fmt.Errorf("failed to write dependency manifest: %w", err)
	}
	return nil
}

func (s *DocumentStore) loadManifest() (map[string][]string, error) {
	deps := make(map[string][]string)
	data, err := os.ReadFile(filepath.Join(s.root, manifestName))
	if os.IsNotExist(err) {
		return deps, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read dependency manifest: %w", err)
	}
	if err := json.Unmarshal(data, &deps); err != nil {
		return nil, fmt.Errorf("failed to decode dependency manifest: %w", err)
	}
	return deps, nil
}
