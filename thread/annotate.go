package thread

import (
	"github.com/threadkit/threadcache/comment"
)

// Annotate sets viewer-relative flags on every node in nodes.
//
// CanEdit and CanDelete are true only when the viewer authored the comment.
// An empty viewerID is anonymous and never matches. Reactions missing from
// reactions leave IsLiked and IsDisliked false.
//
// The flags are advisory. Annotate only mutates the given nodes.
func Annotate(nodes map[string]*comment.Node, viewerID string, reactions map[string]comment.Reaction) {
	for id, node := range nodes {
		own := viewerID != "" && node.AuthorID == viewerID
		node.CanEdit = own
		node.CanDelete = own

		r := reactions[id]
		node.IsLiked = r == comment.ReactionLike
		node.IsDisliked = r == comment.ReactionDislike
	}
}

// IDs returns the ids of nodes in no particular order.
func IDs(nodes map[string]*comment.Node) []string {
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	return ids
}
