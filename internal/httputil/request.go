package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// maxBodySize bounds request bodies; metadata-only payloads never
// legitimately approach this.
const maxBodySize = 1 << 20

// ParseJSON decodes JSON from the request body into dest, limiting the body
// size and rejecting unknown fields so typos surface as 400s instead of
// silently dropped settings.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
