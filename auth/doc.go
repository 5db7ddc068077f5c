// Package auth derives the viewer identity for a request and decides what
// that viewer may do.
//
// For reads the viewer is advisory. It only sets viewer-relative flags such
// as canEdit, so a missing or invalid credential is not an error: Resolve
// falls back to the anonymous viewer.
//
// Operator actions go through an Authorizer. The RBAC authorizer grants
// permissions by the role names carried in the viewer's token.
package auth
