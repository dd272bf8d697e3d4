package ged

import (
	"time"
)

// FolderKind classifies a node's role in the tree. Closed enumeration
// checked at attach time; there is no free-form kind string.
type FolderKind string

const (
	// KindCategory is a top-level root: clients, processes, contracts
	// or archived. Category roots have no parent.
	KindCategory FolderKind = "category"
	// KindEntityRoot is the folder representing one entity's document
	// space. Id is derived as "{entityKind}_{entityId}".
	KindEntityRoot FolderKind = "entity-root"
	// KindTemplateFolder is a folder stamped from a template at
	// materialization time.
	KindTemplateFolder FolderKind = "template-folder"
	// KindSubfolder is a second-level folder declared by a template
	// spec, or any manually created child.
	KindSubfolder FolderKind = "subfolder"
)

// Valid reports whether k is a known folder kind.
func (k FolderKind) Valid() bool {
	switch k {
	case KindCategory, KindEntityRoot, KindTemplateFolder, KindSubfolder:
		return true
	}
	return false
}

// EntityMetadata is the back-reference from an entity-root folder to the
// CRM record it mirrors. Present only on entity-root nodes.
type EntityMetadata struct {
	EntityID       string     `json:"entity_id"`
	EntityKind     EntityKind `json:"entity_kind"`
	ProcessNumber  string     `json:"process_number,omitempty"`
	ContractNumber string     `json:"contract_number,omitempty"`
}

// FolderNode is one node of the folder forest. Ownership of children is
// exclusive: a node belongs to exactly one parent. Nodes are immutable in
// place; all structural change is re-parenting or removal of whole subtrees
// through the Tree methods.
type FolderNode struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Kind     FolderKind      `json:"kind"`
	ParentID string          `json:"parent_id,omitempty"` // empty only for category roots
	Entity   *EntityMetadata `json:"entity,omitempty"`
	Children []*FolderNode   `json:"children,omitempty"`

	// FileCount is the number of registered files associated with the
	// node's entity. Stamped on entity roots from the file registry when
	// a tree snapshot is served; never persisted or used for invariant
	// enforcement.
	FileCount int `json:"file_count,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewEntityRoot builds the entity-root node for a CRM record. The node is
// not attached to any tree yet.
func NewEntityRoot(entity *EntityRecord, now time.Time) *FolderNode {
	meta := &EntityMetadata{
		EntityID:   entity.ID,
		EntityKind: entity.Kind,
	}
	switch entity.Kind {
	case EntityProcess:
		meta.ProcessNumber = entity.Number
	case EntityContract:
		meta.ContractNumber = entity.Number
	}

	return &FolderNode{
		ID:        entity.RootFolderID(),
		Name:      entity.Name,
		Kind:      KindEntityRoot,
		Entity:    meta,
		CreatedAt: now,
	}
}

// Clone returns a deep copy of the node and its subtree.
func (n *FolderNode) Clone() *FolderNode {
	if n == nil {
		return nil
	}
	c := *n
	if n.Entity != nil {
		meta := *n.Entity
		c.Entity = &meta
	}
	if n.Children != nil {
		c.Children = make([]*FolderNode, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}
