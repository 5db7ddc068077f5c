// Package search runs substring searches over comments and extracts
// highlight snippets around the matched terms.
//
// Matching is delegated to the store's case-insensitive substring predicate.
// There is no tokenization, stemming or ranking: results come back in the
// requested sort order. Highlights are computed afterwards, per comment, for
// each query term long enough to be meaningful.
package search
