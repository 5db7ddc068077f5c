package query

import (
	"strings"

	"github.com/threadkit/threadcache/comment"
)

// Limits are the static bounds a Planner clamps against.
type Limits struct {
	// DefaultLimit is used when the caller gives no page size.
	DefaultLimit int

	// MaxLimit is the largest page size ever returned.
	MaxLimit int

	// MaxDepth is the deepest reply level a thread may carry.
	MaxDepth int
}

// DefaultLimits returns 20 items per page, at most 100, and five reply levels.
func DefaultLimits() Limits {
	return Limits{DefaultLimit: 20, MaxLimit: 100, MaxDepth: 5}
}

// normalized repairs nonsensical limits so Plan stays total.
func (l Limits) normalized() Limits {
	if l.MaxLimit < 1 {
		l.MaxLimit = 1
	}
	if l.DefaultLimit < 1 {
		l.DefaultLimit = 1
	}
	if l.DefaultLimit > l.MaxLimit {
		l.DefaultLimit = l.MaxLimit
	}
	if l.MaxDepth < 1 {
		l.MaxDepth = 1
	}
	return l
}

// RawOptions are unvalidated request options. Nil pointers mean "not given".
type RawOptions struct {
	Page           *int
	Limit          *int
	SortBy         string
	SortOrder      string
	IncludeReplies *bool
	MaxDepth       *int
}

// Options is a validated query shape.
//
// Page >= 1, 1 <= Limit <= Limits.MaxLimit and 1 <= MaxDepth <= Limits.MaxDepth.
type Options struct {
	Page           int               `json:"page"`
	Limit          int               `json:"limit"`
	SortBy         comment.SortField `json:"sortBy"`
	SortOrder      comment.SortOrder `json:"sortOrder"`
	IncludeReplies bool              `json:"includeReplies"`
	MaxDepth       int               `json:"maxDepth"`
}

// Offset is the number of rows preceding the page.
func (o Options) Offset() int {
	return (o.Page - 1) * o.Limit
}

// Sort returns the store ordering for the options.
func (o Options) Sort() comment.Sort {
	return comment.Sort{Field: o.SortBy, Order: o.SortOrder}
}

// Planner validates and clamps RawOptions.
//
// Contract:
// - Totality: Plan never fails and never panics.
// - Purity: output depends only on input and Limits.
// - Concurrency: safe for concurrent use.
type Planner struct {
	limits Limits
}

// NewPlanner creates a Planner bound to limits.
func NewPlanner(limits Limits) *Planner {
	return &Planner{limits: limits.normalized()}
}

// Limits returns the bounds the planner clamps against.
func (p *Planner) Limits() Limits {
	return p.limits
}

// Plan returns a valid, clamped Options for raw.
//
// Unknown sort fields fall back to createdAt and unknown directions to desc.
// IncludeReplies defaults to true.
func (p *Planner) Plan(raw RawOptions) Options {
	opts := Options{
		Page:           max(1, deref(raw.Page, 1)),
		Limit:          min(p.limits.MaxLimit, max(1, deref(raw.Limit, p.limits.DefaultLimit))),
		SortBy:         ParseSortField(raw.SortBy),
		SortOrder:      ParseSortOrder(raw.SortOrder),
		IncludeReplies: deref(raw.IncludeReplies, true),
		MaxDepth:       max(1, min(p.limits.MaxDepth, deref(raw.MaxDepth, p.limits.MaxDepth))),
	}

	// Guard the offset against overflow for absurd page numbers.
	if maxPage := maxInt / opts.Limit; opts.Page > maxPage {
		opts.Page = maxPage
	}
	return opts
}

// Normalize re-plans o, treating zero and out-of-range fields as not given.
// Options returned by Plan come back unchanged.
func (p *Planner) Normalize(o Options) Options {
	positive := func(v int) *int {
		if v < 1 {
			return nil
		}
		return &v
	}
	return p.Plan(RawOptions{
		Page:           positive(o.Page),
		Limit:          positive(o.Limit),
		SortBy:         string(o.SortBy),
		SortOrder:      string(o.SortOrder),
		IncludeReplies: Bool(o.IncludeReplies),
		MaxDepth:       positive(o.MaxDepth),
	})
}

// ParseSortField maps s to a sort field, falling back to createdAt.
func ParseSortField(s string) comment.SortField {
	switch comment.SortField(strings.TrimSpace(s)) {
	case comment.SortByUpdatedAt:
		return comment.SortByUpdatedAt
	default:
		return comment.SortByCreatedAt
	}
}

// ParseSortOrder maps s to a direction, falling back to desc.
func ParseSortOrder(s string) comment.SortOrder {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(comment.SortAsc):
		return comment.SortAsc
	default:
		return comment.SortDesc
	}
}

// Int returns a pointer to v, for building RawOptions.
func Int(v int) *int { return &v }

// Bool returns a pointer to v, for building RawOptions.
func Bool(v bool) *bool { return &v }

const maxInt = int(^uint(0) >> 1)

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
