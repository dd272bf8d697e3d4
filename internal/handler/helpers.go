package handler

import (
	"context"
	"errors"
	"net/http"

	"lexged/internal/domain"
	"lexged/internal/httputil"
)

// conflictRetryAttempts bounds how often a handler re-applies an engine
// operation that lost an optimistic-concurrency race. Engine operations
// load fresh state on every call, so re-applying is safe.
const conflictRetryAttempts = 3

// handleError converts domain errors to HTTP responses.
func handleError(w http.ResponseWriter, err error) {
	var conflictErr *domain.ConflictError
	var notFoundErr *domain.NotFoundError

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFoundErr):
		httputil.RespondError(w, http.StatusNotFound, notFoundErr.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &conflictErr):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), map[string]interface{}{
			"resource_type": conflictErr.ResourceType,
			"resource_id":   conflictErr.ResourceID,
		})
	case errors.Is(err, domain.ErrConflictRetry):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, "concurrent modification, retry with fresh state", map[string]interface{}{
			"retry": true,
		})
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// withConflictRetry re-applies fn when it fails with ErrConflictRetry,
// up to conflictRetryAttempts times, respecting cancellation.
func withConflictRetry[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var out T
	var err error
	for attempt := 0; attempt < conflictRetryAttempts; attempt++ {
		out, err = fn()
		if err == nil || !errors.Is(err, domain.ErrConflictRetry) {
			return out, err
		}
		if ctx.Err() != nil {
			break
		}
	}
	return out, err
}
