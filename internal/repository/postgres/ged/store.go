// Package ged implements the versioned aggregate stores over PostgreSQL.
// Each collection (tree, files, templates) lives in one row of the
// aggregates table as a JSONB document plus a version counter; saves commit
// with a conditional UPDATE so concurrent writers cannot lose updates.
package ged

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"lexged/internal/domain"
	models "lexged/internal/domain/models/ged"
	gedRepo "lexged/internal/domain/repositories/ged"
	"lexged/internal/repository/postgres"
)

// aggregateStore reads and writes one whole JSONB document per key with
// optimistic concurrency on the version column.
type aggregateStore struct {
	cfg *postgres.RepositoryConfig
}

// load unmarshals the document under key into dest and returns its version.
// A missing row yields version zero and leaves dest untouched.
func (s *aggregateStore) load(ctx context.Context, key string, dest any) (int64, error) {
	query := fmt.Sprintf(`
		SELECT version, doc
		FROM %s
		WHERE key = $1
	`, s.cfg.Tables.Aggregates)

	var version int64
	var doc []byte
	err := s.cfg.Pool.QueryRow(ctx, query, key).Scan(&version, &doc)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("load aggregate %q: %w", key, err)
	}

	if err := json.Unmarshal(doc, dest); err != nil {
		return 0, fmt.Errorf("decode aggregate %q: %w", key, err)
	}
	return version, nil
}

// save commits the document only if the stored version still equals
// expected. Returns the new version, or domain.ErrConflictRetry when
// another writer got there first.
func (s *aggregateStore) save(ctx context.Context, key string, expected int64, doc any) (int64, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("encode aggregate %q: %w", key, err)
	}

	if expected == 0 {
		// First write for this key. A duplicate-key failure means a
		// concurrent writer inserted version 1 before us.
		query := fmt.Sprintf(`
			INSERT INTO %s (key, version, doc, updated_at)
			VALUES ($1, 1, $2, now())
		`, s.cfg.Tables.Aggregates)
		if _, err := s.cfg.Pool.Exec(ctx, query, key, payload); err != nil {
			if postgres.IsPgDuplicateError(err) {
				return 0, fmt.Errorf("insert aggregate %q: %w", key, domain.ErrConflictRetry)
			}
			return 0, fmt.Errorf("insert aggregate %q: %w", key, err)
		}
		return 1, nil
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET version = version + 1, doc = $3, updated_at = now()
		WHERE key = $1 AND version = $2
	`, s.cfg.Tables.Aggregates)
	tag, err := s.cfg.Pool.Exec(ctx, query, key, expected, payload)
	if err != nil {
		return 0, fmt.Errorf("update aggregate %q: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, fmt.Errorf("update aggregate %q at version %d: %w", key, expected, domain.ErrConflictRetry)
	}
	return expected + 1, nil
}

// EnsureSchema creates the aggregates table if it does not exist. Called by
// the seeder, not at server startup.
func EnsureSchema(ctx context.Context, cfg *postgres.RepositoryConfig) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			version    BIGINT NOT NULL,
			doc        JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`, cfg.Tables.Aggregates)
	if _, err := cfg.Pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create aggregates table: %w", err)
	}
	return nil
}

// DropSchema removes the aggregates table. Seeder-only, guarded against
// production use by the caller.
func DropSchema(ctx context.Context, cfg *postgres.RepositoryConfig) error {
	query := fmt.Sprintf(`DROP TABLE IF EXISTS %s`, cfg.Tables.Aggregates)
	if _, err := cfg.Pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("drop aggregates table: %w", err)
	}
	return nil
}

// TreeStore persists the folder forest.
type TreeStore struct {
	store  aggregateStore
	logger *slog.Logger
}

// NewTreeStore creates a postgres-backed tree store.
func NewTreeStore(cfg *postgres.RepositoryConfig) gedRepo.TreeStore {
	return &TreeStore{store: aggregateStore{cfg: cfg}, logger: cfg.Logger}
}

func (s *TreeStore) Load(ctx context.Context) (*models.Tree, error) {
	tree := models.NewTree()
	version, err := s.store.load(ctx, gedRepo.KeyTree, tree)
	if err != nil {
		return nil, err
	}
	tree.Version = version
	return tree, nil
}

func (s *TreeStore) Save(ctx context.Context, tree *models.Tree) error {
	version, err := s.store.save(ctx, gedRepo.KeyTree, tree.Version, tree)
	if err != nil {
		return err
	}
	tree.Version = version
	return nil
}

// FileStore persists the file registry.
type FileStore struct {
	store  aggregateStore
	logger *slog.Logger
}

// NewFileStore creates a postgres-backed file store.
func NewFileStore(cfg *postgres.RepositoryConfig) gedRepo.FileStore {
	return &FileStore{store: aggregateStore{cfg: cfg}, logger: cfg.Logger}
}

func (s *FileStore) Load(ctx context.Context) (*models.FileSet, error) {
	files := models.NewFileSet()
	version, err := s.store.load(ctx, gedRepo.KeyFiles, files)
	if err != nil {
		return nil, err
	}
	files.Version = version
	return files, nil
}

func (s *FileStore) Save(ctx context.Context, files *models.FileSet) error {
	version, err := s.store.save(ctx, gedRepo.KeyFiles, files.Version, files)
	if err != nil {
		return err
	}
	files.Version = version
	return nil
}

// templateAppendAttempts bounds the internal retry loop for appends.
const templateAppendAttempts = 5

// TemplateStore persists custom templates, append-only.
type TemplateStore struct {
	store  aggregateStore
	logger *slog.Logger
}

// NewTemplateStore creates a postgres-backed template store.
func NewTemplateStore(cfg *postgres.RepositoryConfig) gedRepo.TemplateStore {
	return &TemplateStore{store: aggregateStore{cfg: cfg}, logger: cfg.Logger}
}

func (s *TemplateStore) Load(ctx context.Context) (*models.TemplateSet, error) {
	set := &models.TemplateSet{}
	version, err := s.store.load(ctx, gedRepo.KeyTemplates, set)
	if err != nil {
		return nil, err
	}
	set.Version = version
	return set, nil
}

// Append adds one template. Appends commute, so version conflicts are
// retried here instead of surfacing to the caller.
func (s *TemplateStore) Append(ctx context.Context, tmpl *models.FolderTemplate) error {
	var lastErr error
	for attempt := 0; attempt < templateAppendAttempts; attempt++ {
		set, err := s.Load(ctx)
		if err != nil {
			return err
		}
		set.Templates = append(set.Templates, tmpl)

		_, err = s.store.save(ctx, gedRepo.KeyTemplates, set.Version, set)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConflictRetry) {
			return err
		}
		lastErr = err
		s.logger.Debug("template append conflicted, retrying", "attempt", attempt+1)
	}
	return lastErr
}
