// Package registry holds the in-memory snapshot of canonical CRM entity
// records. Read-mostly: the only writer is the sync operation, which swaps
// the whole snapshot at once.
package registry

import (
	"sync"

	models "lexged/internal/domain/models/ged"
)

// EntityRegistry indexes the current entity snapshot by id and by kind.
// Safe for concurrent use: readers take the read lock, Replace swaps the
// maps wholesale under the write lock.
type EntityRegistry struct {
	mu     sync.RWMutex
	byID   map[string]*models.EntityRecord
	byKind map[models.EntityKind][]*models.EntityRecord
}

// New returns an empty registry.
func New() *EntityRegistry {
	return &EntityRegistry{
		byID:   make(map[string]*models.EntityRecord),
		byKind: make(map[models.EntityKind][]*models.EntityRecord),
	}
}

// Replace swaps the whole snapshot. Records with duplicate ids keep the
// last occurrence; callers are expected to hand over CRM output verbatim.
func (r *EntityRegistry) Replace(records []*models.EntityRecord) {
	byID := make(map[string]*models.EntityRecord, len(records))
	byKind := make(map[models.EntityKind][]*models.EntityRecord)
	for _, rec := range records {
		byID[rec.ID] = rec
		byKind[rec.Kind] = append(byKind[rec.Kind], rec)
	}

	r.mu.Lock()
	r.byID = byID
	r.byKind = byKind
	r.mu.Unlock()
}

// Lookup resolves an entity id against the union of all three kinds.
func (r *EntityRegistry) Lookup(id string) (*models.EntityRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	return rec, ok
}

// ByKind returns a copy of the records of one kind.
func (r *EntityRegistry) ByKind(kind models.EntityKind) []*models.EntityRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*models.EntityRecord(nil), r.byKind[kind]...)
}

// IDs returns the set of known entity ids. Validation materializes this
// once per pass instead of locking per node.
func (r *EntityRegistry) IDs() map[string]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make(map[string]struct{}, len(r.byID))
	for id := range r.byID {
		ids[id] = struct{}{}
	}
	return ids
}

// Len returns the number of records in the snapshot.
func (r *EntityRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
