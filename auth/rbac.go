package auth

import (
	"context"
	"strings"
)

// Cache administration resource and actions.
const (
	ResourceCache = "cache"

	ActionRead    = "read"
	ActionCleanup = "cleanup"
	ActionFlush   = "flush"
)

// DefaultAdminRole is the role granted cache administration by AdminRBACConfig.
const DefaultAdminRole = "admin"

// RBACConfig configures the RBAC authorizer.
type RBACConfig struct {
	// Roles defines role configurations.
	Roles map[string]RoleConfig

	// DefaultRole is assigned to known viewers without explicit roles.
	// The anonymous viewer never receives it.
	DefaultRole string
}

// RoleConfig defines permissions for a role.
type RoleConfig struct {
	// Permissions are "<resource>:<action>" or "<action>" patterns.
	// "*" matches anything and a trailing "*" matches a prefix.
	Permissions []string

	// Denied uses the Permissions syntax and wins over any grant.
	Denied []string

	// Inherits lists roles this role inherits from.
	Inherits []string
}

// AdminRBACConfig grants every cache action to role, or to
// DefaultAdminRole when role is empty.
func AdminRBACConfig(role string) RBACConfig {
	if role == "" {
		role = DefaultAdminRole
	}
	return RBACConfig{
		Roles: map[string]RoleConfig{
			role: {Permissions: []string{ResourceCache + ":*"}},
		},
	}
}

// RBACAuthorizer grants requests by the subject's roles.
type RBACAuthorizer struct {
	config RBACConfig
}

// NewRBACAuthorizer creates an RBAC authorizer.
func NewRBACAuthorizer(config RBACConfig) *RBACAuthorizer {
	return &RBACAuthorizer{config: config}
}

// Name returns "rbac".
func (a *RBACAuthorizer) Name() string {
	return "rbac"
}

// Authorize checks whether any of the subject's roles permits req.
func (a *RBACAuthorizer) Authorize(_ context.Context, req *AuthzRequest) error {
	if req.Subject.IsAnonymous() {
		return &AuthzError{
			Resource: req.Resource,
			Action:   req.Action,
			Reason:   "no viewer identity",
			Cause:    ErrUnauthenticated,
		}
	}

	for _, name := range a.collectRoles(req.Subject) {
		role, ok := a.config.Roles[name]
		if !ok {
			continue
		}
		if rolePermits(role, req) {
			return nil
		}
	}

	return &AuthzError{
		Subject:  req.Subject.ID,
		Resource: req.Resource,
		Action:   req.Action,
		Reason:   "no role permits this action",
	}
}

func (a *RBACAuthorizer) collectRoles(subject Viewer) []string {
	seen := make(map[string]bool)
	var result []string

	pending := append([]string{}, subject.Roles...)
	if len(pending) == 0 && a.config.DefaultRole != "" {
		pending = append(pending, a.config.DefaultRole)
	}

	for len(pending) > 0 {
		current := pending[0]
		pending = pending[1:]
		if seen[current] {
			continue
		}
		seen[current] = true
		result = append(result, current)

		if role, ok := a.config.Roles[current]; ok {
			for _, inherited := range role.Inherits {
				if !seen[inherited] {
					pending = append(pending, inherited)
				}
			}
		}
	}
	return result
}

func rolePermits(role RoleConfig, req *AuthzRequest) bool {
	for _, perm := range role.Denied {
		if matchPermission(perm, req) {
			return false
		}
	}
	for _, perm := range role.Permissions {
		if matchPermission(perm, req) {
			return true
		}
	}
	return false
}

// matchPattern matches value against pattern, where "*" matches anything
// and a trailing "*" matches a prefix.
func matchPattern(pattern, value string) bool {
	if pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(value, prefix)
	}
	return pattern == value
}

// matchPermission matches "<action>" or "<resource>:<action>".
func matchPermission(perm string, req *AuthzRequest) bool {
	resource, action, scoped := strings.Cut(perm, ":")
	if !scoped {
		return matchPattern(resource, req.Action)
	}
	return matchPattern(resource, req.Resource) && matchPattern(action, req.Action)
}

var _ Authorizer = (*RBACAuthorizer)(nil)
