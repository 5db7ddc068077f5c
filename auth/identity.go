package auth

import (
	"slices"
	"time"
)

// Method indicates how a viewer was identified.
type Method string

const (
	MethodAnonymous Method = "anonymous"
	MethodJWT       Method = "jwt"
)

// Viewer is the caller a response is rendered for.
type Viewer struct {
	// ID is the stable user id. Empty for anonymous viewers.
	ID string

	// Roles are the role names granted by the credential.
	Roles []string

	Method    Method
	ExpiresAt time.Time
}

// Anonymous returns the viewer used when no credential is usable.
func Anonymous() Viewer {
	return Viewer{Method: MethodAnonymous}
}

// IsAnonymous reports whether v has no user id.
func (v Viewer) IsAnonymous() bool {
	return v.ID == ""
}

// HasRole reports whether v was granted role.
func (v Viewer) HasRole(role string) bool {
	return slices.Contains(v.Roles, role)
}
