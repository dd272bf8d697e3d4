package ged

import (
	"time"
)

// IssueSeverity grades validation findings. Issues are data, not errors:
// validation reports them for the caller to render or act on, it never
// auto-remediates.
type IssueSeverity string

const (
	SeverityInfo    IssueSeverity = "info"
	SeverityWarning IssueSeverity = "warning"
)

// IssueKind identifies the structural drift a validation issue describes.
type IssueKind string

const (
	// IssueOrphanedFolder: an entity-root folder whose referenced entity
	// no longer exists in the registry. One issue per folder.
	IssueOrphanedFolder IssueKind = "orphaned_folder"
	// IssueUnlinkedFiles: documents with no entity association. Reported
	// once in aggregate, carrying the full id list.
	IssueUnlinkedFiles IssueKind = "unlinked_files"
)

// Issue is one finding from a folder-structure validation pass.
type Issue struct {
	ID       string        `json:"id"`
	Kind     IssueKind     `json:"kind"`
	Severity IssueSeverity `json:"severity"`
	Message  string        `json:"message"`

	FolderID string   `json:"folder_id,omitempty"`
	EntityID string   `json:"entity_id,omitempty"`
	FileIDs  []string `json:"file_ids,omitempty"`

	DetectedAt time.Time `json:"detected_at"`
}
