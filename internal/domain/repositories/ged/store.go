package ged

import (
	"context"

	models "lexged/internal/domain/models/ged"
)

// Well-known aggregate keys. Each collection is persisted as one whole
// document: the store reads everything, the engine mutates in memory, the
// store writes everything back. Callers (validation, export) rely on being
// able to snapshot a full collection cheaply, so implementations must not
// silently switch to per-node storage.
const (
	KeyTree      = "ged-tree"
	KeyFiles     = "ged-files"
	KeyTemplates = "ged-templates"
)

// TreeStore persists the folder forest as a versioned aggregate.
type TreeStore interface {
	// Load returns a fresh snapshot of the forest. A missing aggregate
	// yields an empty tree at version zero, never an error.
	Load(ctx context.Context) (*models.Tree, error)

	// Save commits the tree only if its Version is still current, then
	// bumps the version on the passed tree. Returns
	// domain.ErrConflictRetry on a stale version; callers reload and
	// re-apply.
	Save(ctx context.Context, tree *models.Tree) error
}

// FileStore persists the flat file registry with the same versioned
// whole-aggregate contract as TreeStore.
type FileStore interface {
	Load(ctx context.Context) (*models.FileSet, error)
	Save(ctx context.Context, files *models.FileSet) error
}

// TemplateStore persists user-saved custom templates. Append-only: entries
// are never edited or deleted once saved.
type TemplateStore interface {
	Load(ctx context.Context) (*models.TemplateSet, error)

	// Append adds one template, retrying internally on version conflicts
	// (safe because appends commute).
	Append(ctx context.Context, tmpl *models.FolderTemplate) error
}

// Stores bundles the three aggregate stores for wiring.
type Stores struct {
	Tree      TreeStore
	Files     FileStore
	Templates TemplateStore
}
