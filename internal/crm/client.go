// Package crm implements the external CRM entity source. The engine only
// reads from it during sync; entity lifecycle stays the CRM's business.
package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	models "lexged/internal/domain/models/ged"
)

const (
	// DefaultTimeout is the HTTP timeout for CRM requests.
	DefaultTimeout = 30 * time.Second
)

// kindPaths maps entity kinds to their collection path segments on the
// CRM's API.
var kindPaths = map[models.EntityKind]string{
	models.EntityClient:   "clients",
	models.EntityProcess:  "processes",
	models.EntityContract: "contracts",
}

// Client fetches entity records from the CRM's REST API.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

// NewClient creates a CRM client against the given base URL. The token is
// sent as a bearer credential on every request.
func NewClient(baseURL, apiToken string) *Client {
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// NewClientWithHTTP creates a CRM client with a custom http.Client
// (used by tests with httptest servers).
func NewClientWithHTTP(baseURL, apiToken string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    baseURL,
		apiToken:   apiToken,
		httpClient: httpClient,
	}
}

// listResponse is the CRM's envelope for entity collections.
type listResponse struct {
	Items []*models.EntityRecord `json:"items"`
}

// FetchEntities returns all records of one kind from the CRM.
func (c *Client) FetchEntities(ctx context.Context, kind models.EntityKind) ([]*models.EntityRecord, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}

	url := fmt.Sprintf("%s/api/v1/%s", c.baseURL, kindPaths[kind])
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s entities: %w", kind, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("CRM error (status %d): %s", resp.StatusCode, string(body))
	}

	var payload listResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode %s entities: %w", kind, err)
	}

	// The CRM omits the kind field on kind-scoped endpoints; stamp it so
	// downstream code never sees a blank kind. A JSON null element decodes
	// to a nil record and is dropped here before anything derefs it.
	records := make([]*models.EntityRecord, 0, len(payload.Items))
	for _, rec := range payload.Items {
		if rec == nil {
			slog.Warn("skipping null CRM record", "kind", kind)
			continue
		}
		if rec.Kind == "" {
			rec.Kind = kind
		}
		records = append(records, rec)
	}

	return records, nil
}
