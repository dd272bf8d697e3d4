package registry

import (
	"testing"

	models "lexged/internal/domain/models/ged"
)

func demoRecords() []*models.EntityRecord {
	return []*models.EntityRecord{
		{ID: "cli_1", Kind: models.EntityClient, Name: "A"},
		{ID: "cli_2", Kind: models.EntityClient, Name: "B"},
		{ID: "proc_1", Kind: models.EntityProcess, Name: "C"},
	}
}

func TestEntityRegistry_ReplaceAndLookup(t *testing.T) {
	reg := New()

	if _, ok := reg.Lookup("cli_1"); ok {
		t.Error("empty registry resolved an id")
	}

	reg.Replace(demoRecords())

	rec, ok := reg.Lookup("cli_1")
	if !ok {
		t.Fatal("expected cli_1 to resolve")
	}
	if rec.Name != "A" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if reg.Len() != 3 {
		t.Errorf("expected 3 records, got %d", reg.Len())
	}

	// Replace swaps the whole snapshot.
	reg.Replace(demoRecords()[:1])
	if _, ok := reg.Lookup("proc_1"); ok {
		t.Error("stale record survived Replace")
	}
	if reg.Len() != 1 {
		t.Errorf("expected 1 record after replace, got %d", reg.Len())
	}
}

func TestEntityRegistry_ByKind(t *testing.T) {
	reg := New()
	reg.Replace(demoRecords())

	clients := reg.ByKind(models.EntityClient)
	if len(clients) != 2 {
		t.Errorf("expected 2 clients, got %d", len(clients))
	}
	if len(reg.ByKind(models.EntityContract)) != 0 {
		t.Error("expected no contracts")
	}
}

func TestEntityRegistry_IDs(t *testing.T) {
	reg := New()
	reg.Replace(demoRecords())

	ids := reg.IDs()
	if len(ids) != 3 {
		t.Fatalf("expected 3 ids, got %d", len(ids))
	}
	if _, ok := ids["proc_1"]; !ok {
		t.Error("missing proc_1")
	}
}
