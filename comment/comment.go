package comment

import "time"

// Status is the moderation state of a comment.
type Status string

const (
	StatusApproved Status = "approved"
	StatusPending  Status = "pending"
	StatusRejected Status = "rejected"
	StatusSpam     Status = "spam"
)

// ParseStatus returns the status for s and whether it is a known value.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusApproved, StatusPending, StatusRejected, StatusSpam:
		return st, true
	default:
		return "", false
	}
}

// Row is a comment as stored durably. It is read-only input.
type Row struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	EntityID   string         `json:"entityId"`
	EntityType string         `json:"entityType,omitempty"`
	AuthorID   string         `json:"authorId"`
	ParentID   string         `json:"parentId,omitempty"` // empty for root comments
	Status     Status         `json:"status"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// IsRoot reports whether the row has no parent.
func (r Row) IsRoot() bool {
	return r.ParentID == ""
}

// Node is a Row placed in a thread, decorated with viewer-relative flags.
//
// The flags are advisory annotations for clients. They are not authorization
// decisions.
type Node struct {
	Row

	Replies    []*Node `json:"replies"`
	Depth      int     `json:"depth"`
	IsLiked    bool    `json:"isLiked"`
	IsDisliked bool    `json:"isDisliked"`
	CanEdit    bool    `json:"canEdit"`
	CanDelete  bool    `json:"canDelete"`
}

// NewNode wraps a row into a detached node at depth 0.
func NewNode(r Row) *Node {
	return &Node{Row: r, Replies: []*Node{}}
}

// Walk visits n and every node reachable through Replies, depth-first.
// It stops early when fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur) {
			return false
		}
		for i := len(cur.Replies) - 1; i >= 0; i-- {
			stack = append(stack, cur.Replies[i])
		}
	}
	return true
}
