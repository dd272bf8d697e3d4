package crm

import (
	"context"

	models "lexged/internal/domain/models/ged"
)

// StaticSource serves a fixed entity list. Used by the seeder and by dev
// mode when no CRM base URL is configured.
type StaticSource struct {
	records []*models.EntityRecord
}

// NewStaticSource creates a source over the given records.
func NewStaticSource(records []*models.EntityRecord) *StaticSource {
	return &StaticSource{records: records}
}

// NewDemoSource returns a source with a small demo dataset covering all
// three entity kinds.
func NewDemoSource() *StaticSource {
	return NewStaticSource([]*models.EntityRecord{
		{
			ID:     "cli_0001",
			Kind:   models.EntityClient,
			Name:   "Maria Oliveira Santos",
			Number: "123.456.789-09",
			Status: models.StatusActive,
		},
		{
			ID:     "cli_0002",
			Kind:   models.EntityClient,
			Name:   "Construtora Horizonte Ltda",
			Number: "12.345.678/0001-95",
			Status: models.StatusActive,
		},
		{
			ID:     "proc_0001",
			Kind:   models.EntityProcess,
			Name:   "Oliveira vs. Construtora Horizonte",
			Number: "0001234-56.2024.8.26.0100",
			Status: models.StatusActive,
			Metadata: map[string]string{
				"court": "TJSP",
				"area":  "civil",
			},
		},
		{
			ID:     "ctr_0001",
			Kind:   models.EntityContract,
			Name:   "Prestação de Serviços Advocatícios",
			Number: "CT-2024-0042",
			Status: models.StatusActive,
		},
	})
}

// FetchEntities returns the records of one kind.
func (s *StaticSource) FetchEntities(_ context.Context, kind models.EntityKind) ([]*models.EntityRecord, error) {
	var out []*models.EntityRecord
	for _, rec := range s.records {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out, nil
}
