package ged

import (
	"context"

	models "lexged/internal/domain/models/ged"
)

// TemplateCatalog is the read-only catalog of built-in templates plus
// append-only custom-template registration. Built-ins are loaded once at
// construction and never mutated, so concurrent readers need no locking;
// custom templates go through the append-only store.
type TemplateCatalog interface {
	// Resolve returns the template with the given id, built-in or custom.
	// Misses return domain.ErrTemplateNotFound.
	Resolve(ctx context.Context, templateID string) (*models.FolderTemplate, error)

	// List returns every template, built-ins first.
	List(ctx context.Context) ([]*models.FolderTemplate, error)

	// Materialize builds the template's folder specs into concrete nodes
	// attached under root. Child ids are derived "{rootId}_{slug(name)}"
	// (one further level for declared subfolders) so repeated
	// materializations under different roots stay stable and
	// collision-free.
	Materialize(ctx context.Context, templateID string, root *models.FolderNode) error

	// CaptureAsTemplate walks the node's children one level (plus their
	// direct subfolders) and freezes the structure into a new catalog
	// entry. A childless node fails with domain.ErrEmptyFolder.
	CaptureAsTemplate(ctx context.Context, node *models.FolderNode, templateName string) (*models.FolderTemplate, error)
}
