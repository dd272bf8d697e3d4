package ged

// EntityKind identifies the three CRM-managed business objects that own
// document folders. Closed enumeration: free-form kind strings from the CRM
// are rejected at sync time.
type EntityKind string

const (
	EntityClient   EntityKind = "client"
	EntityProcess  EntityKind = "process"
	EntityContract EntityKind = "contract"
)

// Kinds lists all entity kinds in category-root order.
func Kinds() []EntityKind {
	return []EntityKind{EntityClient, EntityProcess, EntityContract}
}

// Valid reports whether k is a known entity kind.
func (k EntityKind) Valid() bool {
	switch k {
	case EntityClient, EntityProcess, EntityContract:
		return true
	}
	return false
}

// CategoryRootID returns the well-known id of the category root that holds
// entity folders of this kind.
func (k EntityKind) CategoryRootID() string {
	switch k {
	case EntityClient:
		return "clients"
	case EntityProcess:
		return "processes"
	case EntityContract:
		return "contracts"
	}
	return ""
}

// CategoryRootName returns the display label for the kind's category root.
func (k EntityKind) CategoryRootName() string {
	switch k {
	case EntityClient:
		return "Clientes"
	case EntityProcess:
		return "Processos"
	case EntityContract:
		return "Contratos"
	}
	return ""
}

// EntityStatus is the lifecycle status of a CRM record. The integration
// engine never changes it; status transitions belong to the CRM.
type EntityStatus string

const (
	StatusActive   EntityStatus = "active"
	StatusInactive EntityStatus = "inactive"
	StatusArchived EntityStatus = "archived"
)

// EntityRecord is a canonical CRM record. Created by CRM sync only; the
// integration engine reads, never originates one.
type EntityRecord struct {
	ID     string       `json:"id"`
	Kind   EntityKind   `json:"kind"`
	Name   string       `json:"name"`
	Number string       `json:"number,omitempty"` // CPF/CNPJ, process number or contract number
	Status EntityStatus `json:"status"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// RootFolderID returns the deterministic id of the entity's root folder,
// "{kind}_{id}". At most one root folder per entity follows from id
// uniqueness in the tree.
func (e *EntityRecord) RootFolderID() string {
	return EntityRootID(e.Kind, e.ID)
}

// EntityRootID derives the entity-root folder id for a kind/id pair.
func EntityRootID(kind EntityKind, entityID string) string {
	return string(kind) + "_" + entityID
}
