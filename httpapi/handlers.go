package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/threadkit/threadcache/auth"
	"github.com/threadkit/threadcache/cache"
	"github.com/threadkit/threadcache/comment"
	"github.com/threadkit/threadcache/observe"
	"github.com/threadkit/threadcache/query"
	"github.com/threadkit/threadcache/retrieval"
	"github.com/threadkit/threadcache/search"
)

// Service is the part of *retrieval.Facade the handlers use.
type Service interface {
	GetPaginated(ctx context.Context, req retrieval.PageRequest) (retrieval.PaginatedResult, error)
	Search(ctx context.Context, req retrieval.SearchRequest) (search.Result, error)
	Stats() cache.Stats
	CleanupExpired(ctx context.Context) int
	FlushCache(ctx context.Context) int
}

var _ Service = (*retrieval.Facade)(nil)

var errBadParam = errors.New("httpapi: bad parameter")

// Handlers serve the retrieval routes.
type Handlers struct {
	svc    Service
	logger observe.Logger
}

// RemovedResponse reports how many cache entries an admin call removed.
type RemovedResponse struct {
	Removed int `json:"removed"`
}

// GetComments handles GET /entities/{entityID}/comments.
func (h *Handlers) GetComments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	statuses, err := parseStatuses(q["status"])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid status")
		return
	}

	req := retrieval.PageRequest{
		EntityID:   chi.URLParam(r, "entityID"),
		EntityType: q.Get("entity_type"),
		Statuses:   statuses,
		Options:    parseOptions(q),
		ViewerID:   auth.ViewerID(r.Context()),
	}

	res, err := h.svc.GetPaginated(r.Context(), req)
	if err != nil {
		h.fail(w, r, err, "retrieval failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SearchComments handles GET /comments/search.
func (h *Handlers) SearchComments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	text := strings.TrimSpace(q.Get("q"))
	if text == "" {
		writeError(w, r, http.StatusBadRequest, "empty query")
		return
	}

	statuses, err := parseStatuses(q["status"])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid status")
		return
	}
	from, err := parseDate(q.Get("date_from"), false)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid date_from")
		return
	}
	to, err := parseDate(q.Get("date_to"), true)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid date_to")
		return
	}

	req := retrieval.SearchRequest{
		Query: text,
		Filters: search.Filters{
			EntityID:   q.Get("entity_id"),
			EntityType: q.Get("entity_type"),
			Statuses:   statuses,
			AuthorIDs:  splitList(q["author_id"]),
			DateFrom:   from,
			DateTo:     to,
		},
		Options: parseOptions(q),
	}

	res, err := h.svc.Search(r.Context(), req)
	if err != nil {
		h.fail(w, r, err, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CacheStats handles GET /admin/cache/stats.
func (h *Handlers) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Stats())
}

// CacheCleanup handles POST /admin/cache/cleanup.
func (h *Handlers) CacheCleanup(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RemovedResponse{Removed: h.svc.CleanupExpired(r.Context())})
}

// CacheFlush handles DELETE /admin/cache.
func (h *Handlers) CacheFlush(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RemovedResponse{Removed: h.svc.FlushCache(r.Context())})
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error, generic string) {
	status, msg := statusFor(err, generic)
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed",
			observe.F("path", r.URL.Path),
			observe.F("status", status),
			observe.F("request_id", RequestIDFromContext(r.Context())),
			observe.Err(err),
		)
	}
	writeError(w, r, status, msg)
}

// parseOptions reads paging and threading parameters. Malformed numbers and
// booleans are dropped so the planner applies its defaults.
func parseOptions(q map[string][]string) query.RawOptions {
	get := func(name string) string {
		if v := q[name]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}
	return query.RawOptions{
		Page:           parseInt(get("page")),
		Limit:          parseInt(get("limit")),
		SortBy:         get("sort_by"),
		SortOrder:      get("sort_order"),
		IncludeReplies: parseBool(get("include_replies")),
		MaxDepth:       parseInt(get("max_depth")),
	}
}

func parseInt(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func parseBool(s string) *bool {
	if s == "" {
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &b
}

// splitList accepts repeated and comma-separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseStatuses(values []string) ([]comment.Status, error) {
	var out []comment.Status
	for _, v := range splitList(values) {
		st, ok := comment.ParseStatus(strings.ToLower(v))
		if !ok {
			return nil, errBadParam
		}
		out = append(out, st)
	}
	return out, nil
}

// parseDate accepts RFC 3339 or YYYY-MM-DD. A bare date used as an upper
// bound covers the whole day.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, errBadParam
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Millisecond)
	}
	return t, nil
}
