package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface lets handlers stay agnostic of the
// concrete error type.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is().
//
// Structural errors (ErrParentNotFound, ErrNodeNotFound) indicate a bug in
// calling code: the engine resolved an id it just synthesized or was handed
// an id that never existed in the tree. They map to 500 and are logged, never
// silently swallowed. Lookup-miss errors (ErrEntityNotFound, ErrFolderNotFound,
// ErrTemplateNotFound) are expected, recoverable conditions surfaced to the
// caller as 404.
var (
	ErrParentNotFound   = errors.New("parent folder not found")
	ErrNodeNotFound     = errors.New("folder node not found")
	ErrFolderNotFound   = errors.New("folder not found")
	ErrEntityNotFound   = errors.New("entity not found")
	ErrFileNotFound     = errors.New("file not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrEmptyFolder      = errors.New("folder has no subfolders to capture")
	ErrValidation       = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")

	// ErrConflictRetry indicates an aggregate was modified between load and
	// save (optimistic concurrency). Always recoverable: reload and re-apply.
	ErrConflictRetry = errors.New("aggregate version conflict")

	// ErrDuplicateEntityFolder indicates a create for an entity that already
	// owns a root folder. createEntityFolder is a create, not an upsert.
	ErrDuplicateEntityFolder = errors.New("entity folder already exists")
)

// ConflictError carries details about the existing resource that caused a
// duplicate-create to fail.
type ConflictError struct {
	Message      string
	ResourceType string // "entity_folder", "template"
	ResourceID   string // id of the existing resource
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) StatusCode() int { return http.StatusConflict }

// Is allows errors.Is() to match against ErrDuplicateEntityFolder
func (e *ConflictError) Is(target error) bool {
	return target == ErrDuplicateEntityFolder
}

// NotFoundError wraps a lookup-miss sentinel with the id that missed.
type NotFoundError struct {
	Message  string
	Sentinel error // one of the *NotFound sentinels above
}

func (e *NotFoundError) Error() string { return e.Message }

func (e *NotFoundError) StatusCode() int { return http.StatusNotFound }

func (e *NotFoundError) Unwrap() error { return e.Sentinel }
