package query

import (
	"math"
	"testing"

	"github.com/threadkit/threadcache/comment"
)

func TestPlanner_Defaults(t *testing.T) {
	p := NewPlanner(DefaultLimits())
	got := p.Plan(RawOptions{})

	want := Options{
		Page:           1,
		Limit:          20,
		SortBy:         comment.SortByCreatedAt,
		SortOrder:      comment.SortDesc,
		IncludeReplies: true,
		MaxDepth:       5,
	}
	if got != want {
		t.Errorf("Plan() = %+v, want %+v", got, want)
	}
}

func TestPlanner_LimitClamp(t *testing.T) {
	p := NewPlanner(DefaultLimits())

	tests := []struct {
		name  string
		limit *int
		want  int
	}{
		{"absent", nil, 20},
		{"negative", Int(-5), 1},
		{"zero", Int(0), 1},
		{"one", Int(1), 1},
		{"in range", Int(50), 50},
		{"max", Int(100), 100},
		{"huge", Int(1_000_000), 100},
		{"min int", Int(math.MinInt), 1},
		{"max int", Int(math.MaxInt), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Plan(RawOptions{Limit: tt.limit}).Limit
			if got != tt.want {
				t.Errorf("Limit = %d, want %d", got, tt.want)
			}
			if got < 1 || got > 100 {
				t.Errorf("Limit = %d outside [1, 100]", got)
			}
		})
	}
}

func TestPlanner_PageClamp(t *testing.T) {
	p := NewPlanner(DefaultLimits())

	tests := []struct {
		name string
		page *int
		want int
	}{
		{"absent", nil, 1},
		{"negative", Int(-3), 1},
		{"zero", Int(0), 1},
		{"third", Int(3), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Plan(RawOptions{Page: tt.page}).Page; got != tt.want {
				t.Errorf("Page = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPlanner_HugePageDoesNotOverflowOffset(t *testing.T) {
	p := NewPlanner(DefaultLimits())
	opts := p.Plan(RawOptions{Page: Int(math.MaxInt), Limit: Int(100)})

	if off := opts.Offset(); off < 0 {
		t.Errorf("Offset() = %d, want non-negative", off)
	}
}

func TestPlanner_MaxDepth(t *testing.T) {
	p := NewPlanner(Limits{DefaultLimit: 10, MaxLimit: 50, MaxDepth: 3})

	tests := []struct {
		name  string
		depth *int
		want  int
	}{
		{"absent uses configured", nil, 3},
		{"smaller kept", Int(1), 1},
		{"larger clamped", Int(10), 3},
		{"zero raised", Int(0), 1},
		{"negative raised", Int(-2), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Plan(RawOptions{MaxDepth: tt.depth}).MaxDepth; got != tt.want {
				t.Errorf("MaxDepth = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPlanner_SortFallback(t *testing.T) {
	p := NewPlanner(DefaultLimits())

	tests := []struct {
		sortBy    string
		sortOrder string
		wantBy    comment.SortField
		wantOrder comment.SortOrder
	}{
		{"", "", comment.SortByCreatedAt, comment.SortDesc},
		{"createdAt", "asc", comment.SortByCreatedAt, comment.SortAsc},
		{"updatedAt", "DESC", comment.SortByUpdatedAt, comment.SortDesc},
		{"likes", "sideways", comment.SortByCreatedAt, comment.SortDesc},
		{"content; drop", "ASC", comment.SortByCreatedAt, comment.SortAsc},
	}

	for _, tt := range tests {
		t.Run(tt.sortBy+"/"+tt.sortOrder, func(t *testing.T) {
			opts := p.Plan(RawOptions{SortBy: tt.sortBy, SortOrder: tt.sortOrder})
			if opts.SortBy != tt.wantBy {
				t.Errorf("SortBy = %q, want %q", opts.SortBy, tt.wantBy)
			}
			if opts.SortOrder != tt.wantOrder {
				t.Errorf("SortOrder = %q, want %q", opts.SortOrder, tt.wantOrder)
			}
		})
	}
}

func TestPlanner_IncludeReplies(t *testing.T) {
	p := NewPlanner(DefaultLimits())

	if !p.Plan(RawOptions{}).IncludeReplies {
		t.Error("IncludeReplies should default to true")
	}
	if p.Plan(RawOptions{IncludeReplies: Bool(false)}).IncludeReplies {
		t.Error("IncludeReplies = true, want false when explicitly disabled")
	}
}

func TestPlanner_NormalizesLimits(t *testing.T) {
	p := NewPlanner(Limits{DefaultLimit: 500, MaxLimit: 0, MaxDepth: -1})
	got := p.Limits()

	if got.MaxLimit != 1 || got.DefaultLimit != 1 || got.MaxDepth != 1 {
		t.Errorf("Limits() = %+v, want all clamped to 1", got)
	}

	opts := p.Plan(RawOptions{})
	if opts.Limit != 1 || opts.MaxDepth != 1 {
		t.Errorf("Plan() = %+v, want limit 1 depth 1", opts)
	}
}

func TestOptions_Offset(t *testing.T) {
	tests := []struct {
		page, limit, want int
	}{
		{1, 20, 0},
		{2, 20, 20},
		{5, 10, 40},
	}

	for _, tt := range tests {
		opts := Options{Page: tt.page, Limit: tt.limit}
		if got := opts.Offset(); got != tt.want {
			t.Errorf("Offset(page=%d, limit=%d) = %d, want %d", tt.page, tt.limit, got, tt.want)
		}
	}
}

func TestOptions_Sort(t *testing.T) {
	opts := Options{SortBy: comment.SortByUpdatedAt, SortOrder: comment.SortAsc}
	want := comment.Sort{Field: comment.SortByUpdatedAt, Order: comment.SortAsc}
	if got := opts.Sort(); got != want {
		t.Errorf("Sort() = %+v, want %+v", got, want)
	}
}

func BenchmarkPlanner_Plan(b *testing.B) {
	p := NewPlanner(DefaultLimits())
	raw := RawOptions{Page: Int(3), Limit: Int(250), SortBy: "updatedAt", SortOrder: "asc", MaxDepth: Int(9)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = p.Plan(raw)
	}
}

func TestPlanner_Normalize(t *testing.T) {
	p := NewPlanner(DefaultLimits())

	planned := p.Plan(RawOptions{Page: Int(3), Limit: Int(7), SortBy: "updatedAt", SortOrder: "asc", MaxDepth: Int(2)})
	if got := p.Normalize(planned); got != planned {
		t.Errorf("Normalize(planned) = %+v, want %+v", got, planned)
	}

	got := p.Normalize(Options{})
	if got.Page != 1 || got.Limit != 20 || got.MaxDepth != 5 {
		t.Errorf("Normalize(zero) = %+v, want page 1, limit 20, depth 5", got)
	}
	if got.SortBy != comment.SortByCreatedAt || got.SortOrder != comment.SortDesc {
		t.Errorf("Normalize(zero) sort = %s %s", got.SortBy, got.SortOrder)
	}

	if got := p.Normalize(Options{Page: -4, Limit: 5000}); got.Page != 1 || got.Limit != 100 {
		t.Errorf("Normalize(out of range) = %+v, want page 1, limit 100", got)
	}
}
