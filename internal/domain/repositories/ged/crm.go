package ged

import (
	"context"

	models "lexged/internal/domain/models/ged"
)

// EntitySource supplies canonical entity records from the external CRM.
// The engine calls it only during sync and treats the data as read-only
// input; it never pushes changes back.
type EntitySource interface {
	// FetchEntities returns all records of one kind. The only engine
	// operation that legitimately suspends on I/O.
	FetchEntities(ctx context.Context, kind models.EntityKind) ([]*models.EntityRecord, error)
}
