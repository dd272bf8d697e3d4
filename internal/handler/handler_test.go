package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"lexged/internal/crm"
	"lexged/internal/domain"
	"lexged/internal/registry"
	"lexged/internal/repository/memory"
	serviceGed "lexged/internal/service/ged"
)

// newTestServer wires the full route table over in-memory storage and the
// demo CRM dataset, the way the server binary does minus auth and CORS.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stores := memory.NewStore().Stores()

	catalog, err := serviceGed.NewTemplateCatalog(stores.Templates, logger)
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}
	engine := serviceGed.NewIntegrationEngine(stores, catalog, registry.New(), crm.NewDemoSource(), logger)
	if _, err := engine.SyncEntities(context.Background()); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	treeHandler := NewTreeHandler(engine, logger)
	folderHandler := NewFolderHandler(engine, logger)
	fileHandler := NewFileHandler(engine, logger)
	templateHandler := NewTemplateHandler(engine, catalog, logger)
	syncHandler := NewSyncHandler(engine, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", treeHandler.HealthCheck)
	mux.HandleFunc("GET /api/tree", treeHandler.GetTree)
	mux.HandleFunc("GET /api/tree/validate", treeHandler.Validate)
	mux.HandleFunc("POST /api/entities/{id}/folder", folderHandler.CreateEntityFolder)
	mux.HandleFunc("DELETE /api/entities/{id}/folder", folderHandler.DeleteEntityFolder)
	mux.HandleFunc("POST /api/entities/{id}/transfer", folderHandler.TransferDocuments)
	mux.HandleFunc("POST /api/files", fileHandler.RegisterFile)
	mux.HandleFunc("POST /api/files/{id}/link", fileHandler.LinkDocument)
	mux.HandleFunc("GET /api/templates", templateHandler.ListTemplates)
	mux.HandleFunc("POST /api/templates", templateHandler.CaptureTemplate)
	mux.HandleFunc("POST /api/sync", syncHandler.Sync)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode response %q: %v", raw, err)
		}
	}
	return resp, decoded
}

func TestFolderRoutes(t *testing.T) {
	server := newTestServer(t)

	t.Run("create with template", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, server.URL+"/api/entities/cli_0001/folder",
			map[string]string{"template_id": "template_client_standard"})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, body)
		}
		if body["id"] != "client_cli_0001" {
			t.Errorf("unexpected folder id %v", body["id"])
		}
		children, _ := body["children"].([]interface{})
		if len(children) != 5 {
			t.Errorf("expected 5 children, got %d", len(children))
		}
	})

	t.Run("create with chunked body honors the template", func(t *testing.T) {
		// Wrapping the reader hides its length, so the client sends
		// chunked encoding and ContentLength stays unset server-side.
		payload := []byte(`{"template_id":"template_process_standard"}`)
		req, err := http.NewRequest(http.MethodPost, server.URL+"/api/entities/proc_0001/folder",
			struct{ io.Reader }{bytes.NewReader(payload)})
		if err != nil {
			t.Fatalf("build request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		var body map[string]interface{}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, body)
		}
		children, _ := body["children"].([]interface{})
		if len(children) == 0 {
			t.Error("template was not applied to the chunked-body create")
		}
	})

	t.Run("duplicate create is a 409 with resource details", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, server.URL+"/api/entities/cli_0001/folder", nil)
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("expected 409, got %d", resp.StatusCode)
		}
		if body["resource_type"] != "entity_folder" {
			t.Errorf("expected resource_type 'entity_folder', got %v", body["resource_type"])
		}
		if body["resource_id"] != "client_cli_0001" {
			t.Errorf("expected resource_id 'client_cli_0001', got %v", body["resource_id"])
		}
	})

	t.Run("unknown entity is a 404", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/entities/cli_9999/folder", nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("archive defaults when no action given", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, server.URL+"/api/entities/cli_0001/folder", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("expected 204, got %d", resp.StatusCode)
		}
	})

	t.Run("transfer action is rejected on delete route", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, server.URL+"/api/entities/cli_0002/folder?action=transfer", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestTransferRoute(t *testing.T) {
	server := newTestServer(t)

	if resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/entities/cli_0001/folder", nil); resp.StatusCode != http.StatusCreated {
		t.Fatalf("setup create failed: %d", resp.StatusCode)
	}
	if resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/files",
		map[string]interface{}{"name": "procuracao.pdf", "size": 100, "entity_id": "cli_0001"}); resp.StatusCode != http.StatusCreated {
		t.Fatalf("setup register failed: %d", resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/entities/cli_0001/transfer",
		map[string]string{"to_entity_id": "cli_0002"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", resp.StatusCode, body)
	}
	if body["files_moved"] != float64(1) {
		t.Errorf("expected 1 file moved, got %v", body["files_moved"])
	}
	if body["folder_moved"] != true {
		t.Errorf("expected folder move, got %v", body["folder_moved"])
	}

	t.Run("missing destination is a 400", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/entities/cli_0002/transfer", map[string]string{})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestFileRoutes(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/files",
		map[string]interface{}{"name": "contrato.pdf", "size": 2048, "content_type": "application/pdf"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, body)
	}
	fileID, _ := body["id"].(string)
	if fileID == "" {
		t.Fatal("missing file id in response")
	}

	resp, body = doJSON(t, http.MethodPost, server.URL+"/api/files/"+fileID+"/link",
		map[string]string{"entity_id": "ctr_0001"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", resp.StatusCode, body)
	}
	assoc, _ := body["associated_with"].(map[string]interface{})
	if assoc == nil || assoc["entity_id"] != "ctr_0001" {
		t.Errorf("association not stamped: %v", body)
	}

	t.Run("unknown fields are rejected", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/files",
			map[string]interface{}{"name": "x.pdf", "sizee": 1})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestTemplateRoutes(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/templates", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	templates, _ := body["templates"].([]interface{})
	if len(templates) != 3 {
		t.Errorf("expected the 3 built-ins, got %d", len(templates))
	}

	if resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/entities/cli_0001/folder",
		map[string]string{"template_id": "template_client_standard"}); resp.StatusCode != http.StatusCreated {
		t.Fatalf("setup create failed: %d", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodPost, server.URL+"/api/templates",
		map[string]string{"folder_id": "client_cli_0001", "name": "Cliente Completo"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, body)
	}
	if body["built_in"] == true {
		t.Error("captured template flagged as built-in")
	}
}

func TestSyncAndValidateRoutes(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/sync", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["clients"] != float64(2) {
		t.Errorf("expected 2 clients, got %v", body["clients"])
	}

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/tree/validate", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from health check, got %d", resp.StatusCode)
	}
}

func TestWithConflictRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("retries conflict then succeeds", func(t *testing.T) {
		calls := 0
		out, err := withConflictRetry(ctx, func() (int, error) {
			calls++
			if calls < 3 {
				return 0, domain.ErrConflictRetry
			}
			return 42, nil
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if out != 42 || calls != 3 {
			t.Errorf("out=%d calls=%d", out, calls)
		}
	})

	t.Run("gives up after the attempt budget", func(t *testing.T) {
		calls := 0
		_, err := withConflictRetry(ctx, func() (int, error) {
			calls++
			return 0, domain.ErrConflictRetry
		})
		if !errors.Is(err, domain.ErrConflictRetry) {
			t.Fatalf("expected ErrConflictRetry, got %v", err)
		}
		if calls != conflictRetryAttempts {
			t.Errorf("expected %d attempts, got %d", conflictRetryAttempts, calls)
		}
	})

	t.Run("other errors pass through untouched", func(t *testing.T) {
		calls := 0
		_, err := withConflictRetry(ctx, func() (int, error) {
			calls++
			return 0, domain.ErrValidation
		})
		if !errors.Is(err, domain.ErrValidation) || calls != 1 {
			t.Errorf("err=%v calls=%d", err, calls)
		}
	})
}
