package search

import (
	"slices"
	"strings"
	"testing"
)

func TestGenerateHighlights_FreeOffer(t *testing.T) {
	content := "please click here for a free offer"

	got := GenerateHighlights(content, "free offer")

	if len(got) == 0 {
		t.Fatal("expected at least one snippet")
	}
	found := false
	for _, s := range got {
		if !strings.HasPrefix(s, Ellipsis) || !strings.HasSuffix(s, Ellipsis) {
			t.Errorf("snippet %q is not ellipsis-wrapped", s)
		}
		if strings.Contains(s, "free offer") {
			found = true
		}
	}
	if !found {
		t.Errorf("no snippet contains %q: %v", "free offer", got)
	}
}

func TestGenerateHighlights_Window(t *testing.T) {
	prefix := strings.Repeat("a", 40)
	suffix := strings.Repeat("z", 40)
	content := prefix + "needle" + suffix

	got := GenerateHighlights(content, "needle")

	want := Ellipsis + strings.Repeat("a", 30) + "needle" + strings.Repeat("z", 30) + Ellipsis
	if !slices.Equal(got, []string{want}) {
		t.Errorf("GenerateHighlights() = %q, want %q", got, want)
	}
}

func TestGenerateHighlights_Cases(t *testing.T) {
	tests := []struct {
		name    string
		content string
		query   string
		want    []string
	}{
		{
			name:    "no match produces nil",
			content: "nothing to see",
			query:   "absent",
			want:    nil,
		},
		{
			name:    "short terms ignored",
			content: "a to be or",
			query:   "to be",
			want:    nil,
		},
		{
			name:    "case-insensitive keeps original casing",
			content: "Big NEWS today",
			query:   "news",
			want:    []string{"...Big NEWS today..."},
		},
		{
			name:    "first occurrence only",
			content: "cat cat cat",
			query:   "cat",
			want:    []string{"...cat cat cat..."},
		},
		{
			name:    "repeated term counted once",
			content: "hello world",
			query:   "hello HELLO",
			want:    []string{"...hello world..."},
		},
		{
			name:    "multibyte context counted in characters",
			content: "ééééé match ñññññ",
			query:   "match",
			want:    []string{"...ééééé match ñññññ..."},
		},
		{
			name:    "empty content",
			content: "",
			query:   "anything",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateHighlights(tt.content, tt.query)
			if !slices.Equal(got, tt.want) {
				t.Errorf("GenerateHighlights(%q, %q) = %q, want %q", tt.content, tt.query, got, tt.want)
			}
		})
	}
}

func TestGenerateHighlights_SeparateSnippetsPerTerm(t *testing.T) {
	content := "alpha " + strings.Repeat("x", 80) + " omega"

	got := GenerateHighlights(content, "alpha omega")

	if len(got) != 2 {
		t.Fatalf("got %d snippets, want 2: %q", len(got), got)
	}
	if !strings.Contains(got[0], "alpha") || !strings.Contains(got[1], "omega") {
		t.Errorf("snippets out of term order: %q", got)
	}
}

func TestTerms(t *testing.T) {
	tests := []struct {
		q    string
		want []string
	}{
		{"free offer", []string{"free", "offer"}},
		{"  a  an  the ", []string{"the"}},
		{"Go go GO golang", []string{"golang"}},
		{"", []string{}},
		{"Über über", []string{"Über"}},
	}

	for _, tt := range tests {
		got := Terms(tt.q, 3)
		if !slices.Equal(got, tt.want) {
			t.Errorf("Terms(%q) = %q, want %q", tt.q, got, tt.want)
		}
	}
}

func BenchmarkGenerateHighlights(b *testing.B) {
	content := strings.Repeat("lorem ipsum dolor sit amet ", 40) + "free offer"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = GenerateHighlights(content, "free offer amet")
	}
}
