package ged

import (
	"time"
)

// EntityRef associates a file with the entity (and therefore indirectly the
// folder subtree) it belongs to.
type EntityRef struct {
	EntityID   string     `json:"entity_id"`
	EntityKind EntityKind `json:"entity_kind"`
	EntityName string     `json:"entity_name,omitempty"`
}

// FileRecord is one document in the flat file registry. A record with nil
// AssociatedWith is "unlinked". A record whose AssociatedWith.EntityID no
// longer resolves in the registry is "stale".
type FileRecord struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Size           int64      `json:"size"`
	ContentType    string     `json:"content_type,omitempty"`
	UploadedAt     time.Time  `json:"uploaded_at"`
	AssociatedWith *EntityRef `json:"associated_with,omitempty"`
}

// FileSet is the file-registry aggregate. Like Tree, its Version is the
// optimistic-concurrency token managed by the store.
type FileSet struct {
	Files []*FileRecord `json:"files"`

	Version int64 `json:"-"`
}

// NewFileSet returns an empty registry.
func NewFileSet() *FileSet {
	return &FileSet{}
}

// FindByID returns the record with the given id, or nil.
func (s *FileSet) FindByID(id string) *FileRecord {
	for _, f := range s.Files {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// Add appends a record to the registry.
func (s *FileSet) Add(f *FileRecord) {
	s.Files = append(s.Files, f)
}

// Unlinked returns every record with no entity association.
func (s *FileSet) Unlinked() []*FileRecord {
	var out []*FileRecord
	for _, f := range s.Files {
		if f.AssociatedWith == nil {
			out = append(out, f)
		}
	}
	return out
}

// AssociatedWithEntity returns every record linked to the given entity id.
func (s *FileSet) AssociatedWithEntity(entityID string) []*FileRecord {
	var out []*FileRecord
	for _, f := range s.Files {
		if f.AssociatedWith != nil && f.AssociatedWith.EntityID == entityID {
			out = append(out, f)
		}
	}
	return out
}

// RetargetAll re-points every record linked to fromID at the destination
// entity and returns how many records moved.
func (s *FileSet) RetargetAll(fromID string, to *EntityRecord) int {
	moved := 0
	for _, f := range s.Files {
		if f.AssociatedWith != nil && f.AssociatedWith.EntityID == fromID {
			f.AssociatedWith = &EntityRef{
				EntityID:   to.ID,
				EntityKind: to.Kind,
				EntityName: to.Name,
			}
			moved++
		}
	}
	return moved
}
