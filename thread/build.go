package thread

import (
	"github.com/threadkit/threadcache/comment"
)

// Options controls tree construction.
type Options struct {
	// IncludeReplies attaches replies under their parents. When false only
	// roots are returned.
	IncludeReplies bool

	// MaxDepth is the deepest level attached. Roots are depth 0. Values below
	// 1 are treated as 1.
	MaxDepth int
}

// Tree is the result of Build.
type Tree struct {
	// Roots are the root nodes in row order.
	Roots []*comment.Node

	// Nodes indexes every node present in the output by id.
	Nodes map[string]*comment.Node

	// Orphans lists, in row order, replies dropped because their parent is
	// absent from the row set or their parent chain loops.
	Orphans []string

	// Truncated counts replies dropped for exceeding MaxDepth.
	Truncated int
}

// Depth states during resolution.
const (
	depthUnknown  = -1
	depthVisiting = -2
	depthOrphan   = -3
)

// Build reconstructs the reply hierarchy of rows.
//
// Every attached node satisfies node.Depth == parent.Depth+1 and
// node.ParentID == parent.ID, and appears under exactly one parent. Rows with
// a duplicate id are ignored after the first occurrence.
func Build(rows []comment.Row, opts Options) *Tree {
	maxDepth := max(1, opts.MaxDepth)

	all := make(map[string]*comment.Node, len(rows))
	order := make([]*comment.Node, 0, len(rows))
	tree := &Tree{
		Roots: []*comment.Node{},
		Nodes: make(map[string]*comment.Node, len(rows)),
	}

	for _, row := range rows {
		if _, dup := all[row.ID]; dup {
			continue
		}
		node := comment.NewNode(row)
		all[row.ID] = node
		order = append(order, node)
		if row.IsRoot() {
			tree.Roots = append(tree.Roots, node)
			tree.Nodes[row.ID] = node
		}
	}

	if !opts.IncludeReplies {
		return tree
	}

	depths := resolveDepths(all, order)

	for _, node := range order {
		if node.IsRoot() {
			continue
		}
		d := depths[node.ID]
		switch {
		case d == depthOrphan:
			tree.Orphans = append(tree.Orphans, node.ID)
		case d > maxDepth:
			tree.Truncated++
		default:
			parent := all[node.ParentID]
			node.Depth = d
			parent.Replies = append(parent.Replies, node)
			tree.Nodes[node.ID] = node
		}
	}

	return tree
}

// resolveDepths computes each node's distance from its root by walking parent
// chains iteratively, memoizing results. Chains ending at a missing parent or
// looping back on themselves resolve to depthOrphan.
func resolveDepths(all map[string]*comment.Node, order []*comment.Node) map[string]int {
	depths := make(map[string]int, len(order))
	for _, node := range order {
		if node.IsRoot() {
			depths[node.ID] = 0
		}
	}

	var path []string
	for _, node := range order {
		if _, ok := depths[node.ID]; ok {
			continue
		}

		path = path[:0]
		base := depthUnknown
		cur := node.ID
		for {
			if d, ok := depths[cur]; ok {
				if d == depthVisiting {
					base = depthOrphan
				} else {
					base = d
				}
				break
			}
			depths[cur] = depthVisiting
			path = append(path, cur)

			parent, ok := all[all[cur].ParentID]
			if !ok {
				base = depthOrphan
				break
			}
			cur = parent.ID
		}

		for i := len(path) - 1; i >= 0; i-- {
			if base == depthOrphan {
				depths[path[i]] = depthOrphan
				continue
			}
			base++
			depths[path[i]] = base
		}
	}

	return depths
}
