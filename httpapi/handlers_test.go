package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadkit/threadcache/auth"
	"github.com/threadkit/threadcache/cache"
	"github.com/threadkit/threadcache/comment"
	"github.com/threadkit/threadcache/health"
	"github.com/threadkit/threadcache/observe"
	"github.com/threadkit/threadcache/resilience"
	"github.com/threadkit/threadcache/retrieval"
	"github.com/threadkit/threadcache/store/memstore"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func row(id, parent, author, content string, minute int) comment.Row {
	return comment.Row{
		ID:        id,
		ParentID:  parent,
		AuthorID:  author,
		EntityID:  "post-1",
		Content:   content,
		Status:    comment.StatusApproved,
		CreatedAt: base.Add(time.Duration(minute) * time.Minute),
		UpdatedAt: base.Add(time.Duration(minute) * time.Minute),
	}
}

func seed() []comment.Row {
	return []comment.Row{
		row("A", "", "alice", "Go generics are great", 0),
		row("B", "A", "bob", "I prefer interfaces", 1),
		row("C", "", "carol", "Channels everywhere", 2),
		row("D", "", "dave", "GO modules rule", 3),
	}
}

type brokenStore struct{ err error }

func (s brokenStore) FetchRows(context.Context, comment.Filter, comment.Sort, int, int) ([]comment.Row, error) {
	return nil, s.err
}

func (s brokenStore) FetchTotalCount(context.Context, comment.Filter) (int, error) {
	return 0, s.err
}

type server struct {
	handler http.Handler
	cache   *cache.MemoryCache
	logs    *bytes.Buffer
}

func newServer(t *testing.T, store comment.Store, opts Options) *server {
	t.Helper()

	logs := &bytes.Buffer{}
	logger := observe.NewLoggerWithWriter("debug", logs)
	mc := cache.NewMemoryCache(cache.DefaultPolicy())

	f, err := retrieval.NewFacade(store, mc, retrieval.Config{})
	require.NoError(t, err)

	opts.Logger = logger
	return &server{handler: NewRouter(f, opts), cache: mc, logs: logs}
}

func (s *server) do(t *testing.T, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestGetComments(t *testing.T) {
	s := newServer(t, memstore.New(seed()...), Options{})

	rec := s.do(t, http.MethodGet, "/entities/post-1/comments?sort_order=asc&limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	res := decode[retrieval.PaginatedResult](t, rec)
	require.Len(t, res.Items, 1, "roots and replies share the page window")
	assert.Equal(t, "A", res.Items[0].ID)
	require.Len(t, res.Items[0].Replies, 1)
	assert.Equal(t, "B", res.Items[0].Replies[0].ID)
	assert.Equal(t, 4, res.Pagination.Total)
	assert.Equal(t, 2, res.Pagination.TotalPages)
	assert.True(t, res.Pagination.HasNext)
	assert.False(t, res.Metadata.CacheHit)

	again := decode[retrieval.PaginatedResult](t, s.do(t, http.MethodGet, "/entities/post-1/comments?sort_order=asc&limit=2", nil))
	assert.True(t, again.Metadata.CacheHit)
	assert.Equal(t, res.Metadata.CacheKey, again.Metadata.CacheKey)
}

func TestGetComments_RootsOnly(t *testing.T) {
	s := newServer(t, memstore.New(seed()...), Options{})

	rec := s.do(t, http.MethodGet, "/entities/post-1/comments?include_replies=false&sort_order=asc", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[retrieval.PaginatedResult](t, rec)
	ids := make([]string, len(res.Items))
	for i, n := range res.Items {
		ids[i] = n.ID
		assert.Empty(t, n.Replies)
	}
	assert.Equal(t, []string{"A", "C", "D"}, ids)
	assert.Equal(t, 3, res.Pagination.Total)
}

func TestGetComments_MalformedNumbersUseDefaults(t *testing.T) {
	s := newServer(t, memstore.New(seed()...), Options{})

	rec := s.do(t, http.MethodGet, "/entities/post-1/comments?page=abc&limit=-&max_depth=x&include_replies=maybe", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[retrieval.PaginatedResult](t, rec)
	assert.Equal(t, 1, res.Pagination.Page)
	assert.Equal(t, 20, res.Pagination.Limit)
}

func TestGetComments_InvalidStatus(t *testing.T) {
	s := newServer(t, memstore.New(seed()...), Options{})

	rec := s.do(t, http.MethodGet, "/entities/post-1/comments?status=approved,bogus", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid status", decode[ErrorResponse](t, rec).Error)
}

func TestGetComments_StoreFailureHidesCause(t *testing.T) {
	s := newServer(t, brokenStore{err: errors.New("dial tcp 10.0.0.7:27017: refused")}, Options{})

	rec := s.do(t, http.MethodGet, "/entities/post-1/comments", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, "retrieval failed", body.Error)
	assert.NotEmpty(t, body.RequestID)
	assert.NotContains(t, rec.Body.String(), "10.0.0.7")
	assert.Contains(t, s.logs.String(), "10.0.0.7")
}

func TestGetComments_StoreUnavailable(t *testing.T) {
	s := newServer(t, brokenStore{err: comment.ErrStoreUnavailable}, Options{})

	rec := s.do(t, http.MethodGet, "/entities/post-1/comments", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "store unavailable", decode[ErrorResponse](t, rec).Error)
}

func TestGetComments_Viewer(t *testing.T) {
	secret := []byte("handler-secret")
	a, err := auth.NewJWTAuthenticator(auth.JWTConfig{Secret: secret})
	require.NoError(t, err)
	s := newServer(t, memstore.New(seed()...), Options{Authenticator: a})

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	res := decode[retrieval.PaginatedResult](t, s.do(t, http.MethodGet, "/entities/post-1/comments?sort_order=asc", header))
	require.NotEmpty(t, res.Items)
	assert.True(t, res.Items[0].CanEdit, "alice owns A")
	assert.Contains(t, res.Metadata.CacheKey, "viewerId:alice")

	header.Set("Authorization", "Bearer garbage")
	rec := s.do(t, http.MethodGet, "/entities/post-1/comments?sort_order=asc", header)
	require.Equal(t, http.StatusOK, rec.Code, "bad credentials fall back to anonymous")
	anon := decode[retrieval.PaginatedResult](t, rec)
	assert.False(t, anon.Items[0].CanEdit)
	assert.True(t, strings.HasSuffix(anon.Metadata.CacheKey, "viewerId:"))
	assert.Contains(t, s.logs.String(), "viewer credentials ignored")
}

func TestSearchComments(t *testing.T) {
	s := newServer(t, memstore.New(seed()...), Options{})

	rec := s.do(t, http.MethodGet, "/comments/search?q=go&entity_id=post-1&sort_order=asc", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	type result struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
		Highlights map[string][]string `json:"highlights"`
		Total      int                 `json:"total"`
	}
	res := decode[result](t, rec)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "A", res.Items[0].ID)
	assert.Equal(t, "D", res.Items[1].ID)
	assert.Equal(t, 2, res.Total)
	assert.Empty(t, res.Highlights, "terms shorter than three runes are not highlighted")

	res = decode[result](t, s.do(t, http.MethodGet, "/comments/search?q=generics", nil))
	require.Len(t, res.Items, 1)
	require.Contains(t, res.Highlights, "A")
	assert.Contains(t, res.Highlights["A"][0], "generics")
}

func TestSearchComments_BadInput(t *testing.T) {
	s := newServer(t, memstore.New(seed()...), Options{})

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"missing query", "/comments/search", "empty query"},
		{"blank query", "/comments/search?q=%20%20", "empty query"},
		{"bad date_from", "/comments/search?q=go&date_from=yesterday", "invalid date_from"},
		{"bad date_to", "/comments/search?q=go&date_to=2025-13-01", "invalid date_to"},
		{"bad status", "/comments/search?q=go&status=hidden", "invalid status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, tt.target, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decode[ErrorResponse](t, rec).Error)
		})
	}
}

func TestSearchComments_DateRange(t *testing.T) {
	s := newServer(t, memstore.New(seed()...), Options{})

	rec := s.do(t, http.MethodGet, "/comments/search?q=e&date_from=2025-03-01T12:02:00Z&date_to=2025-03-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2, res.Total, "C and D are inside the whole-day upper bound")
}

func TestSearchComments_StoreFailure(t *testing.T) {
	s := newServer(t, brokenStore{err: errors.New("boom")}, Options{})

	rec := s.do(t, http.MethodGet, "/comments/search?q=go", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "search failed", decode[ErrorResponse](t, rec).Error)
}

var adminSecret = []byte("admin-secret")

func bearerFor(t *testing.T, sub string, roles ...string) http.Header {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if len(roles) > 0 {
		claims["roles"] = roles
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(adminSecret)
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	return header
}

func newAdminServer(t *testing.T) *server {
	t.Helper()
	a, err := auth.NewJWTAuthenticator(auth.JWTConfig{Secret: adminSecret})
	require.NoError(t, err)
	return newServer(t, memstore.New(seed()...), Options{Authenticator: a})
}

func TestCacheAdmin(t *testing.T) {
	s := newAdminServer(t)
	admin := bearerFor(t, "root", auth.DefaultAdminRole)

	s.do(t, http.MethodGet, "/entities/post-1/comments", nil)
	s.do(t, http.MethodGet, "/comments/search?q=go", nil)

	stats := decode[cache.Stats](t, s.do(t, http.MethodGet, "/admin/cache/stats", admin))
	assert.Equal(t, 2, stats.Entries)
	assert.Positive(t, stats.TotalSizeBytes)

	cleaned := decode[RemovedResponse](t, s.do(t, http.MethodPost, "/admin/cache/cleanup", admin))
	assert.Zero(t, cleaned.Removed)

	flushed := decode[RemovedResponse](t, s.do(t, http.MethodDelete, "/admin/cache", admin))
	assert.Equal(t, 2, flushed.Removed)
	assert.Zero(t, s.cache.Stats().Entries)
}

func TestCacheAdmin_RequiresAdminRole(t *testing.T) {
	s := newAdminServer(t)
	s.do(t, http.MethodGet, "/entities/post-1/comments", nil)

	tests := []struct {
		name       string
		header     http.Header
		wantStatus int
		wantMsg    string
	}{
		{"anonymous", nil, http.StatusUnauthorized, "unauthenticated"},
		{"invalid token", http.Header{"Authorization": {"Bearer garbage"}}, http.StatusUnauthorized, "unauthenticated"},
		{"viewer without roles", bearerFor(t, "alice"), http.StatusForbidden, "forbidden"},
		{"viewer with other role", bearerFor(t, "bob", "moderator"), http.StatusForbidden, "forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, req := range []struct{ method, path string }{
				{http.MethodGet, "/admin/cache/stats"},
				{http.MethodPost, "/admin/cache/cleanup"},
				{http.MethodDelete, "/admin/cache"},
			} {
				rec := s.do(t, req.method, req.path, tt.header)
				require.Equal(t, tt.wantStatus, rec.Code, "%s %s", req.method, req.path)
				assert.Equal(t, tt.wantMsg, decode[ErrorResponse](t, rec).Error)
				if tt.wantStatus == http.StatusUnauthorized {
					assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
				}
			}
		})
	}

	assert.Equal(t, 1, s.cache.Stats().Entries, "denied flush must not touch the cache")
	assert.Contains(t, s.logs.String(), "request denied")
}

func TestCacheAdmin_NoAuthenticatorLocksAdmin(t *testing.T) {
	s := newServer(t, memstore.New(seed()...), Options{})

	rec := s.do(t, http.MethodDelete, "/admin/cache", bearerFor(t, "root", auth.DefaultAdminRole))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCacheAdmin_CustomAuthorizer(t *testing.T) {
	s := newServer(t, memstore.New(seed()...), Options{Authorizer: auth.AllowAllAuthorizer{}})

	rec := s.do(t, http.MethodGet, "/admin/cache/stats", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	agg := health.NewAggregator(health.AggregatorConfig{})
	agg.Register(health.NewCheckFunc("store", func(context.Context) health.Result {
		return health.Healthy("ok")
	}))
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
	s := newServer(t, memstore.New(), Options{Health: agg, Metrics: metrics})

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/livez", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/readyz", nil).Code)

	rec := s.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "# metrics"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"generic", errors.New("boom"), http.StatusInternalServerError, "retrieval failed"},
		{"store unavailable", fmt.Errorf("%w: %w", retrieval.ErrRetrievalFailed, comment.ErrStoreUnavailable), http.StatusServiceUnavailable, "store unavailable"},
		{"request deadline", fmt.Errorf("%w: %w", retrieval.ErrRetrievalFailed, context.DeadlineExceeded), http.StatusGatewayTimeout, "timeout"},
		{"store timeout", fmt.Errorf("%w: %w", retrieval.ErrRetrievalFailed, resilience.ErrTimeout), http.StatusGatewayTimeout, "timeout"},
		{"missing entity", retrieval.ErrMissingEntity, http.StatusBadRequest, "entity id is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := statusFor(tt.err, "retrieval failed")
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}
