package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/threadkit/threadcache/comment"
	"github.com/threadkit/threadcache/query"
)

var (
	// ErrSearchFailed is returned when the store cannot serve a search. The
	// underlying cause is wrapped for logging.
	ErrSearchFailed = errors.New("search: search failed")

	// ErrEmptyQuery is returned when the query has no non-space characters.
	ErrEmptyQuery = errors.New("search: empty query")
)

// Config tunes highlight extraction and default filters.
type Config struct {
	// MinTermLength is the shortest query term highlighted, in characters.
	// Default: 3
	MinTermLength int

	// SnippetRadius is the number of characters kept on each side of a match.
	// Default: 30
	SnippetRadius int

	// DefaultStatuses apply when a request names no statuses.
	// Default: approved only
	DefaultStatuses []comment.Status

	// Limits bound the page a search may return.
	// Default: query.DefaultLimits()
	Limits query.Limits
}

// DefaultConfig returns the standard search configuration.
func DefaultConfig() Config {
	return Config{
		MinTermLength:   3,
		SnippetRadius:   30,
		DefaultStatuses: []comment.Status{comment.StatusApproved},
		Limits:          query.DefaultLimits(),
	}
}

// Filters narrow a search. Conditions combine with AND; zero values mean no
// condition.
type Filters struct {
	EntityID   string           `json:"entityId,omitempty"`
	EntityType string           `json:"entityType,omitempty"`
	Statuses   []comment.Status `json:"statuses,omitempty"`
	AuthorIDs  []string         `json:"authorIds,omitempty"`
	DateFrom   time.Time        `json:"dateFrom"`
	DateTo     time.Time        `json:"dateTo"`
}

// Request is a search over comment content.
type Request struct {
	Query   string        `json:"query"`
	Filters Filters       `json:"filters"`
	Options query.Options `json:"options"`
}

// Result is one page of matching comments.
//
// Highlights has an entry only for comments where at least one term matched.
type Result struct {
	Items        []*comment.Node     `json:"items"`
	Highlights   map[string][]string `json:"highlights"`
	Total        int                 `json:"total"`
	SearchTimeMs int64               `json:"searchTimeMs"`
}

// Engine executes searches against a comment store.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: store failures are returned wrapped in ErrSearchFailed; there
// are no partial results.
type Engine struct {
	store   comment.Store
	config  Config
	planner *query.Planner
	now     func() time.Time
}

// NewEngine creates a search engine over store.
func NewEngine(store comment.Store, config Config) *Engine {
	def := DefaultConfig()
	if config.MinTermLength <= 0 {
		config.MinTermLength = def.MinTermLength
	}
	if config.SnippetRadius <= 0 {
		config.SnippetRadius = def.SnippetRadius
	}
	if len(config.DefaultStatuses) == 0 {
		config.DefaultStatuses = def.DefaultStatuses
	}
	if config.Limits == (query.Limits{}) {
		config.Limits = def.Limits
	}
	return &Engine{
		store:   store,
		config:  config,
		planner: query.NewPlanner(config.Limits),
		now:     time.Now,
	}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Filter returns the store filter for req.
func (e *Engine) Filter(req Request) comment.Filter {
	statuses := req.Filters.Statuses
	if len(statuses) == 0 {
		statuses = e.config.DefaultStatuses
	}
	return comment.Filter{
		EntityID:   req.Filters.EntityID,
		EntityType: req.Filters.EntityType,
		Statuses:   statuses,
		AuthorIDs:  req.Filters.AuthorIDs,
		DateFrom:   req.Filters.DateFrom,
		DateTo:     req.Filters.DateTo,
		Contains:   strings.TrimSpace(req.Query),
	}
}

// Search returns the page of comments whose content contains req.Query,
// case-insensitively, along with highlight snippets.
//
// Items are flat nodes at depth 0 with no replies attached.
func (e *Engine) Search(ctx context.Context, req Request) (Result, error) {
	start := e.now()

	q := strings.TrimSpace(req.Query)
	if q == "" {
		return Result{}, ErrEmptyQuery
	}

	filter := e.Filter(req)
	opts := e.planner.Normalize(req.Options)

	rows, err := e.store.FetchRows(ctx, filter, opts.Sort(), opts.Limit, opts.Offset())
	if err != nil {
		return Result{}, fmt.Errorf("%w: fetch rows: %w", ErrSearchFailed, err)
	}
	total, err := e.store.FetchTotalCount(ctx, filter)
	if err != nil {
		return Result{}, fmt.Errorf("%w: count rows: %w", ErrSearchFailed, err)
	}

	items := make([]*comment.Node, len(rows))
	for i, row := range rows {
		items[i] = comment.NewNode(row)
	}

	return Result{
		Items:        items,
		Highlights:   e.Highlights(items, q),
		Total:        total,
		SearchTimeMs: e.now().Sub(start).Milliseconds(),
	}, nil
}

// Highlights maps each node id to its snippets for q. Nodes without any
// matching term are absent from the map.
func (e *Engine) Highlights(nodes []*comment.Node, q string) map[string][]string {
	terms := Terms(q, e.config.MinTermLength)
	out := make(map[string][]string)
	if len(terms) == 0 {
		return out
	}
	for _, n := range nodes {
		if snippets := snippetsFor(n.Content, terms, e.config.SnippetRadius); len(snippets) > 0 {
			out[n.ID] = snippets
		}
	}
	return out
}
