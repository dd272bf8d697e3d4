package ged

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"lexged/internal/domain"
	models "lexged/internal/domain/models/ged"
	gedSvc "lexged/internal/domain/services/ged"
	"lexged/internal/repository/memory"
)

func newTestCatalog(t *testing.T) gedSvc.TemplateCatalog {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog, err := NewTemplateCatalog(memory.NewStore().Stores().Templates, logger)
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}
	return catalog
}

func TestTemplateCatalog_Builtins(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	tmpl, err := catalog.Resolve(ctx, "template_client_standard")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !tmpl.BuiltIn {
		t.Error("expected built-in flag")
	}
	if tmpl.EntityKind != models.EntityClient {
		t.Errorf("expected client kind, got %q", tmpl.EntityKind)
	}
	if len(tmpl.Folders) != 5 {
		t.Errorf("expected 5 folders in the standard client template, got %d", len(tmpl.Folders))
	}
}

func TestTemplateCatalog_ResolveMiss(t *testing.T) {
	catalog := newTestCatalog(t)

	_, err := catalog.Resolve(context.Background(), "template_ghost")
	if !errors.Is(err, domain.ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestTemplateCatalog_ResolveReturnsCopy(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	first, err := catalog.Resolve(ctx, "template_client_standard")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	first.Folders[0].Name = "mutated"

	second, err := catalog.Resolve(ctx, "template_client_standard")
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if second.Folders[0].Name == "mutated" {
		t.Error("resolved template shares state with previous caller")
	}
}

func TestTemplateCatalog_Materialize(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	root := &models.FolderNode{
		ID:        "client_cli_0001",
		Name:      "Maria Oliveira Santos",
		Kind:      models.KindEntityRoot,
		CreatedAt: time.Now(),
	}
	if err := catalog.Materialize(ctx, "template_client_standard", root); err != nil {
		t.Fatalf("materialize failed: %v", err)
	}

	if len(root.Children) != 5 {
		t.Fatalf("expected 5 children, got %d", len(root.Children))
	}

	byName := make(map[string]*models.FolderNode)
	for _, child := range root.Children {
		byName[child.Name] = child
		if child.Kind != models.KindTemplateFolder {
			t.Errorf("child %q: expected template-folder kind, got %q", child.Name, child.Kind)
		}
		if child.ParentID != root.ID {
			t.Errorf("child %q: expected parent %q, got %q", child.Name, root.ID, child.ParentID)
		}
	}

	docs := byName["Documentos Pessoais"]
	if docs == nil {
		t.Fatal("missing 'Documentos Pessoais' folder")
	}
	if docs.ID != "client_cli_0001_documentos_pessoais" {
		t.Errorf("unexpected child id %q", docs.ID)
	}
	if len(docs.Children) != 2 {
		t.Fatalf("expected 2 subfolders, got %d", len(docs.Children))
	}
	if docs.Children[0].Kind != models.KindSubfolder {
		t.Errorf("expected subfolder kind, got %q", docs.Children[0].Kind)
	}
	if docs.Children[0].ID != "client_cli_0001_documentos_pessoais_rg_e_cpf" {
		t.Errorf("unexpected subfolder id %q", docs.Children[0].ID)
	}
}

func TestTemplateCatalog_MaterializeIsDeterministic(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	ids := func() []string {
		root := &models.FolderNode{ID: "client_cli_0001", Kind: models.KindEntityRoot}
		if err := catalog.Materialize(ctx, "template_client_standard", root); err != nil {
			t.Fatalf("materialize failed: %v", err)
		}
		var out []string
		for _, child := range root.Children {
			out = append(out, child.ID)
			for _, sub := range child.Children {
				out = append(out, sub.ID)
			}
		}
		return out
	}

	first := ids()
	second := ids()
	if len(first) != len(second) {
		t.Fatalf("id count changed between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("id %d changed between runs: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestTemplateCatalog_CaptureAsTemplate(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	t.Run("round-trips through materialize", func(t *testing.T) {
		source := &models.FolderNode{
			ID:   "client_cli_0001",
			Kind: models.KindEntityRoot,
			Entity: &models.EntityMetadata{
				EntityID:   "cli_0001",
				EntityKind: models.EntityClient,
			},
			Children: []*models.FolderNode{
				{
					ID: "a", Name: "Atas", Kind: models.KindTemplateFolder,
					Children: []*models.FolderNode{
						{ID: "a1", Name: "Assembleias", Kind: models.KindSubfolder},
					},
				},
				{ID: "b", Name: "Procurações", Kind: models.KindTemplateFolder},
			},
		}

		tmpl, err := catalog.CaptureAsTemplate(ctx, source, "Societário")
		if err != nil {
			t.Fatalf("capture failed: %v", err)
		}
		if tmpl.BuiltIn {
			t.Error("captured template must not be built-in")
		}
		if tmpl.EntityKind != models.EntityClient {
			t.Errorf("expected client kind, got %q", tmpl.EntityKind)
		}
		if len(tmpl.Folders) != 2 {
			t.Fatalf("expected 2 folder specs, got %d", len(tmpl.Folders))
		}
		if len(tmpl.Folders[0].Subfolders) != 1 || tmpl.Folders[0].Subfolders[0] != "Assembleias" {
			t.Errorf("unexpected subfolders: %v", tmpl.Folders[0].Subfolders)
		}

		// The new template is resolvable and stampable straight away.
		root := &models.FolderNode{ID: "client_cli_0002", Kind: models.KindEntityRoot}
		if err := catalog.Materialize(ctx, tmpl.ID, root); err != nil {
			t.Fatalf("materialize of captured template failed: %v", err)
		}
		if len(root.Children) != 2 {
			t.Errorf("expected 2 stamped children, got %d", len(root.Children))
		}
	})

	t.Run("refuses empty folders", func(t *testing.T) {
		empty := &models.FolderNode{ID: "client_cli_0009", Kind: models.KindEntityRoot}

		_, err := catalog.CaptureAsTemplate(ctx, empty, "Vazio")
		if !errors.Is(err, domain.ErrEmptyFolder) {
			t.Errorf("expected ErrEmptyFolder, got %v", err)
		}
	})

	t.Run("refuses blank name", func(t *testing.T) {
		source := &models.FolderNode{
			ID:       "client_cli_0010",
			Kind:     models.KindEntityRoot,
			Children: []*models.FolderNode{{ID: "c", Name: "C", Kind: models.KindSubfolder}},
		}

		_, err := catalog.CaptureAsTemplate(ctx, source, "")
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestTemplateCatalog_List(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	templates, err := catalog.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(templates) != 3 {
		t.Fatalf("expected the 3 built-ins, got %d", len(templates))
	}
	for _, tmpl := range templates {
		if !tmpl.BuiltIn {
			t.Errorf("template %q: expected built-in", tmpl.ID)
		}
	}

	source := &models.FolderNode{
		ID:       "client_cli_0001",
		Kind:     models.KindEntityRoot,
		Children: []*models.FolderNode{{ID: "x", Name: "X", Kind: models.KindSubfolder}},
	}
	if _, err := catalog.CaptureAsTemplate(ctx, source, "Custom"); err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	templates, err = catalog.List(ctx)
	if err != nil {
		t.Fatalf("second list failed: %v", err)
	}
	if len(templates) != 4 {
		t.Fatalf("expected 4 templates after capture, got %d", len(templates))
	}
	if templates[3].BuiltIn {
		t.Error("custom template listed as built-in")
	}
}
