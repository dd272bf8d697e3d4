// Package memory implements the versioned aggregate stores in process
// memory. Used by tests and by dev mode (STORAGE=memory). Semantics mirror
// the postgres implementation exactly: documents round-trip through JSON so
// every Load returns an independent snapshot, and saves commit only against
// the current version.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"lexged/internal/domain"
	models "lexged/internal/domain/models/ged"
	gedRepo "lexged/internal/domain/repositories/ged"
)

type entry struct {
	version int64
	doc     []byte
}

// Store holds all aggregates behind one mutex.
type Store struct {
	mu   sync.Mutex
	docs map[string]entry
}

// NewStore returns an empty in-memory aggregate store.
func NewStore() *Store {
	return &Store{docs: make(map[string]entry)}
}

// Stores returns the three aggregate stores backed by this Store.
func (s *Store) Stores() gedRepo.Stores {
	return gedRepo.Stores{
		Tree:      &TreeStore{s: s},
		Files:     &FileStore{s: s},
		Templates: &TemplateStore{s: s},
	}
}

func (s *Store) load(key string, dest any) (int64, error) {
	s.mu.Lock()
	e, ok := s.docs[key]
	s.mu.Unlock()
	if !ok {
		return 0, nil
	}
	if err := json.Unmarshal(e.doc, dest); err != nil {
		return 0, fmt.Errorf("decode aggregate %q: %w", key, err)
	}
	return e.version, nil
}

func (s *Store) save(key string, expected int64, doc any) (int64, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("encode aggregate %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.docs[key].version
	if current != expected {
		return 0, fmt.Errorf("save aggregate %q at version %d (current %d): %w",
			key, expected, current, domain.ErrConflictRetry)
	}
	s.docs[key] = entry{version: expected + 1, doc: payload}
	return expected + 1, nil
}

// TreeStore persists the folder forest in memory.
type TreeStore struct {
	s *Store
}

func (t *TreeStore) Load(_ context.Context) (*models.Tree, error) {
	tree := models.NewTree()
	version, err := t.s.load(gedRepo.KeyTree, tree)
	if err != nil {
		return nil, err
	}
	tree.Version = version
	return tree, nil
}

func (t *TreeStore) Save(_ context.Context, tree *models.Tree) error {
	version, err := t.s.save(gedRepo.KeyTree, tree.Version, tree)
	if err != nil {
		return err
	}
	tree.Version = version
	return nil
}

// FileStore persists the file registry in memory.
type FileStore struct {
	s *Store
}

func (f *FileStore) Load(_ context.Context) (*models.FileSet, error) {
	files := models.NewFileSet()
	version, err := f.s.load(gedRepo.KeyFiles, files)
	if err != nil {
		return nil, err
	}
	files.Version = version
	return files, nil
}

func (f *FileStore) Save(_ context.Context, files *models.FileSet) error {
	version, err := f.s.save(gedRepo.KeyFiles, files.Version, files)
	if err != nil {
		return err
	}
	files.Version = version
	return nil
}

// TemplateStore persists custom templates in memory, append-only.
type TemplateStore struct {
	s *Store
}

func (t *TemplateStore) Load(_ context.Context) (*models.TemplateSet, error) {
	set := &models.TemplateSet{}
	version, err := t.s.load(gedRepo.KeyTemplates, set)
	if err != nil {
		return nil, err
	}
	set.Version = version
	return set, nil
}

func (t *TemplateStore) Append(ctx context.Context, tmpl *models.FolderTemplate) error {
	for {
		set, err := t.Load(ctx)
		if err != nil {
			return err
		}
		set.Templates = append(set.Templates, tmpl)

		_, err = t.s.save(gedRepo.KeyTemplates, set.Version, set)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConflictRetry) {
			return err
		}
	}
}
