package comment

import "context"

// Reaction is a viewer's reaction to one comment.
type Reaction int

const (
	// ReactionUnknown means no reaction is recorded or the lookup is unavailable.
	ReactionUnknown Reaction = iota
	ReactionLike
	ReactionDislike
)

// ReactionSource looks up a viewer's reactions for a set of comments.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Results: ids missing from the returned map are ReactionUnknown.
type ReactionSource interface {
	Reactions(ctx context.Context, viewerID string, commentIDs []string) (map[string]Reaction, error)
}

// NoReactions is a ReactionSource with no data. Every comment is unknown.
type NoReactions struct{}

// Reactions returns an empty map.
func (NoReactions) Reactions(context.Context, string, []string) (map[string]Reaction, error) {
	return map[string]Reaction{}, nil
}

var _ ReactionSource = NoReactions{}
