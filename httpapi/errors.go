package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/threadkit/threadcache/comment"
	"github.com/threadkit/threadcache/resilience"
	"github.com/threadkit/threadcache/retrieval"
	"github.com/threadkit/threadcache/search"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:     msg,
		RequestID: RequestIDFromContext(r.Context()),
	})
}

// statusFor maps a facade error to a status and a public message. Causes
// stay in the logs.
func statusFor(err error, generic string) (int, string) {
	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		return http.StatusBadRequest, "empty query"
	case errors.Is(err, retrieval.ErrMissingEntity):
		return http.StatusBadRequest, "entity id is required"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, resilience.ErrTimeout):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, comment.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store unavailable"
	default:
		return http.StatusInternalServerError, generic
	}
}
