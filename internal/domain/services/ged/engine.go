package ged

import (
	"context"

	models "lexged/internal/domain/models/ged"
)

// DeleteAction selects what happens to an entity's folder subtree when the
// entity is retired.
type DeleteAction string

const (
	// ActionArchive re-parents the subtree under the archived category
	// root. Entity status is the CRM's business; this is storage-side only.
	ActionArchive DeleteAction = "archive"
	// ActionTransfer is not a single atomic step: it directs the caller
	// to TransferDocuments with an explicit destination. See the
	// two-phase contract on TransferDocuments.
	ActionTransfer DeleteAction = "transfer"
	// ActionDelete removes the subtree permanently. File associations are
	// not retroactively cleared; run TransferDocuments or explicit
	// cleanup first if they must survive.
	ActionDelete DeleteAction = "delete"
)

// Valid reports whether a is a known delete action.
func (a DeleteAction) Valid() bool {
	switch a {
	case ActionArchive, ActionTransfer, ActionDelete:
		return true
	}
	return false
}

// SyncResult reports per-kind record counts after a CRM sync.
type SyncResult struct {
	Clients   int `json:"clients"`
	Processes int `json:"processes"`
	Contracts int `json:"contracts"`
}

// TransferResult reports what a document transfer moved.
type TransferResult struct {
	FilesMoved    int    `json:"files_moved"`
	FolderMoved   bool   `json:"folder_moved"`
	SourceFolder  string `json:"source_folder,omitempty"`
	DestinationID string `json:"destination_folder"`
}

// ValidationReport carries the issues found by a validation pass and
// whether the pass covered the whole forest or was cancelled part-way
// (partial results are valid to report).
type ValidationReport struct {
	Issues  []*models.Issue `json:"issues"`
	Partial bool            `json:"partial,omitempty"`
}

// RegisterFileRequest describes a document being added to the registry.
type RegisterFileRequest struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
	EntityID    string `json:"entity_id,omitempty"` // optional immediate link
}

// IntegrationEngine orchestrates tree mutations, entity-folder linkage and
// consistency validation over the three data stores. Every mutating
// operation is one optimistic transaction: load current aggregate version,
// mutate in memory, commit only if unchanged, else fail with
// domain.ErrConflictRetry for the caller to re-apply.
type IntegrationEngine interface {
	// CreateEntityFolder materializes the entity-root folder under the
	// matching category root (created on first use), optionally stamped
	// from a template. A create, not an upsert: a second call for the
	// same entity fails with domain.ErrDuplicateEntityFolder and leaves
	// the tree unchanged.
	CreateEntityFolder(ctx context.Context, entity *models.EntityRecord, templateID string) (*models.FolderNode, error)

	// CreateFolderFromTemplate resolves the entity in the registry and
	// delegates to CreateEntityFolder.
	CreateFolderFromTemplate(ctx context.Context, templateID, entityID string) (*models.FolderNode, error)

	// DeleteEntityFolder retires an entity's subtree per the action.
	DeleteEntityFolder(ctx context.Context, entityID string, action DeleteAction) error

	// RegisterFile records an uploaded document in the file registry,
	// optionally linked to an entity right away. Records with no
	// association stay "unlinked" until LinkDocumentToEntity runs.
	RegisterFile(ctx context.Context, req *RegisterFileRequest) (*models.FileRecord, error)

	// LinkDocumentToEntity stamps the file's association after resolving
	// entityID against the union of the three registries. Pure data
	// association, no tree mutation.
	LinkDocumentToEntity(ctx context.Context, fileID, entityID string) (*models.FileRecord, error)

	// TransferDocuments re-points every file associated with the source
	// entity at the destination and re-parents the source subtree under
	// the destination's root. Files move first, then the folder; the two
	// aggregates commit separately, so a conflict between the commits is
	// recovered by retrying the same call (already-moved files are a
	// no-op on re-run). Unresolved entity ids fail loudly with
	// domain.ErrEntityNotFound.
	TransferDocuments(ctx context.Context, fromEntityID, toEntityID string) (*TransferResult, error)

	// SaveFolderAsTemplate freezes a folder's immediate children (plus
	// their direct subfolders) into a new custom template.
	SaveFolderAsTemplate(ctx context.Context, folderID, templateName string) (*models.FolderTemplate, error)

	// SyncEntities refreshes the entity registry from the CRM source. It
	// does not reconcile the folder tree; that is ValidateFolderStructure's
	// job, run separately.
	SyncEntities(ctx context.Context) (*SyncResult, error)

	// ValidateFolderStructure reports structural drift: orphaned
	// entity-root folders (warning, one issue each) and unlinked files
	// (one aggregate info issue). Diagnostic only, no auto-remediation.
	// Interruptible between category subtrees; on cancellation the report
	// is marked partial.
	ValidateFolderStructure(ctx context.Context) (*ValidationReport, error)

	// Tree returns a snapshot of the current forest for walk-derived views.
	Tree(ctx context.Context) (*models.Tree, error)
}
