// Package thread rebuilds reply hierarchies from flat comment rows and
// decorates them with viewer-relative flags.
//
// Build is linear in the number of rows and never recurses, so deep or cyclic
// parent chains cannot overflow the stack or loop forever. Rows are attached in
// the order given; the builder never re-sorts.
//
// Replies deeper than the requested maximum depth are truncated. Replies whose
// parent is missing from the row set, or whose parent chain is cyclic, are
// dropped from the output and reported in Tree.Orphans.
package thread
