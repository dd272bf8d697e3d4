package ged

import (
	"time"
)

// TemplateFolderSpec is one top-level folder declared by a template, plus
// the names of its direct subfolders. Icon is a display hint for the file
// browser; the engine never interprets it.
type TemplateFolderSpec struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Icon        string   `json:"icon,omitempty" yaml:"icon,omitempty"`
	Subfolders  []string `json:"subfolders,omitempty" yaml:"subfolders,omitempty"`
}

// FolderTemplate is a reusable folder-structure blueprint. Built-in
// templates are seeded at process start and never mutated; custom templates
// are appended once saved, never edited or deleted. Materialization copies
// the specs into concrete nodes - later catalog changes never retroactively
// alter existing folders.
type FolderTemplate struct {
	ID          string               `json:"id" yaml:"id"`
	Name        string               `json:"name" yaml:"name"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	// EntityKind restricts which entities the template applies to.
	// Empty means any kind (custom templates captured from arbitrary
	// folders carry no restriction unless the source was an entity root).
	EntityKind EntityKind           `json:"entity_kind,omitempty" yaml:"entity_kind,omitempty"`
	Folders    []TemplateFolderSpec `json:"folders" yaml:"folders"`

	BuiltIn   bool      `json:"built_in,omitempty" yaml:"-"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"-"`
}

// Clone returns a deep copy so catalog state never aliases materialized or
// captured structures.
func (t *FolderTemplate) Clone() *FolderTemplate {
	c := *t
	c.Folders = make([]TemplateFolderSpec, len(t.Folders))
	for i, spec := range t.Folders {
		s := spec
		s.Subfolders = append([]string(nil), spec.Subfolders...)
		c.Folders[i] = s
	}
	return &c
}

// TemplateSet is the persisted collection of custom templates. Append-only:
// Version still guards concurrent appends.
type TemplateSet struct {
	Templates []*FolderTemplate `json:"templates"`

	Version int64 `json:"-"`
}
