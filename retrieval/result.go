package retrieval

import (
	"github.com/threadkit/threadcache/comment"
)

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// NewPagination derives page counts from page, limit and total.
// limit must be positive.
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// Metadata describes how a result was produced.
type Metadata struct {
	QueryTimeMs int64  `json:"queryTimeMs"`
	CacheHit    bool   `json:"cacheHit"`
	CacheKey    string `json:"cacheKey"`
}

// PaginatedResult is one page of root comments with their reply trees.
type PaginatedResult struct {
	Items      []*comment.Node `json:"items"`
	Pagination Pagination      `json:"pagination"`
	Metadata   Metadata        `json:"metadata"`
}
