package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"lexged/internal/domain"
	models "lexged/internal/domain/models/ged"
)

func TestTreeStore_SaveAndLoad(t *testing.T) {
	stores := NewStore().Stores()
	ctx := context.Background()

	tree, err := stores.Tree.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if tree.Version != 0 {
		t.Errorf("expected version 0 for fresh store, got %d", tree.Version)
	}

	tree.FindOrCreateCategoryRoot("clients", "Clientes")
	if err := stores.Tree.Save(ctx, tree); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if tree.Version != 1 {
		t.Errorf("expected version 1 after save, got %d", tree.Version)
	}

	reloaded, err := stores.Tree.Load(ctx)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Version != 1 {
		t.Errorf("expected version 1 on reload, got %d", reloaded.Version)
	}
	if reloaded.FindByID("clients") == nil {
		t.Error("saved root missing after reload")
	}
}

func TestTreeStore_VersionConflict(t *testing.T) {
	stores := NewStore().Stores()
	ctx := context.Background()

	first, err := stores.Tree.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	second, err := stores.Tree.Load(ctx)
	if err != nil {
		t.Fatalf("second load failed: %v", err)
	}

	first.FindOrCreateCategoryRoot("clients", "Clientes")
	if err := stores.Tree.Save(ctx, first); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	second.FindOrCreateCategoryRoot("processes", "Processos")
	err = stores.Tree.Save(ctx, second)
	if !errors.Is(err, domain.ErrConflictRetry) {
		t.Fatalf("expected ErrConflictRetry, got %v", err)
	}

	// The losing writer's changes must not be visible.
	current, err := stores.Tree.Load(ctx)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if current.FindByID("processes") != nil {
		t.Error("conflicted save leaked into the store")
	}
}

func TestTreeStore_LoadReturnsSnapshot(t *testing.T) {
	stores := NewStore().Stores()
	ctx := context.Background()

	tree, _ := stores.Tree.Load(ctx)
	tree.FindOrCreateCategoryRoot("clients", "Clientes")
	if err := stores.Tree.Save(ctx, tree); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	a, _ := stores.Tree.Load(ctx)
	b, _ := stores.Tree.Load(ctx)
	a.FindByID("clients").Name = "mutated"

	if b.FindByID("clients").Name == "mutated" {
		t.Error("two loads share state")
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	stores := NewStore().Stores()
	ctx := context.Background()

	files, err := stores.Files.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	files.Add(&models.FileRecord{ID: "f1", Name: "a.pdf", Size: 10, UploadedAt: time.Now()})
	if err := stores.Files.Save(ctx, files); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reloaded, err := stores.Files.Load(ctx)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.FindByID("f1") == nil {
		t.Error("saved record missing after reload")
	}
}

func TestTemplateStore_AppendSurvivesConflicts(t *testing.T) {
	stores := NewStore().Stores()
	ctx := context.Background()

	for i, name := range []string{"A", "B", "C"} {
		tmpl := &models.FolderTemplate{
			ID:      "template_custom_" + name,
			Name:    name,
			Folders: []models.TemplateFolderSpec{{Name: "Pasta"}},
		}
		if err := stores.Templates.Append(ctx, tmpl); err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
	}

	set, err := stores.Templates.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(set.Templates) != 3 {
		t.Errorf("expected 3 templates, got %d", len(set.Templates))
	}
	if set.Version != 3 {
		t.Errorf("expected version 3, got %d", set.Version)
	}
}
