package search

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Ellipsis wraps every snippet.
const Ellipsis = "..."

// Terms splits q on whitespace and keeps distinct terms of at least minLen
// characters, compared case-insensitively, in query order.
func Terms(q string, minLen int) []string {
	fields := strings.Fields(q)
	terms := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < minLen {
			continue
		}
		key := lowerRunes(f)
		if seen[string(key)] {
			continue
		}
		seen[string(key)] = true
		terms = append(terms, f)
	}
	return terms
}

// GenerateHighlights returns one snippet per query term found in content,
// using the default term length and radius.
//
// A snippet is the first case-insensitive occurrence of the term with up to
// 30 characters of context on each side, wrapped in ellipses. It returns nil
// when nothing matches.
func GenerateHighlights(content, q string) []string {
	def := DefaultConfig()
	return snippetsFor(content, Terms(q, def.MinTermLength), def.SnippetRadius)
}

func snippetsFor(content string, terms []string, radius int) []string {
	if content == "" || len(terms) == 0 {
		return nil
	}

	text := []rune(content)
	lowered := lowerRunes(content)

	var snippets []string
	seen := make(map[string]bool)
	for _, term := range terms {
		at := indexRunes(lowered, lowerRunes(term))
		if at < 0 {
			continue
		}
		start := max(0, at-radius)
		end := min(len(text), at+utf8.RuneCountInString(term)+radius)

		snippet := Ellipsis + string(text[start:end]) + Ellipsis
		if seen[snippet] {
			continue
		}
		seen[snippet] = true
		snippets = append(snippets, snippet)
	}
	return snippets
}

// lowerRunes lowercases rune by rune so indexes line up with the original.
func lowerRunes(s string) []rune {
	r := []rune(s)
	for i, c := range r {
		r[i] = unicode.ToLower(c)
	}
	return r
}

func indexRunes(s, sub []rune) int {
	if len(sub) == 0 || len(sub) > len(s) {
		return -1
	}
outer:
	for i := 0; i+len(sub) <= len(s); i++ {
		for j := range sub {
			if s[i+j] != sub[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}
