package auth

import (
	"context"
	"fmt"
)

// Authorizer decides whether a viewer may perform an action.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: a denial is an *AuthzError matching ErrForbidden. A denial for
// the anonymous viewer also matches ErrUnauthenticated.
type Authorizer interface {
	// Authorize returns nil when req is permitted.
	Authorize(ctx context.Context, req *AuthzRequest) error

	// Name identifies the authorizer in logs.
	Name() string
}

// AuthzRequest is one authorization question.
type AuthzRequest struct {
	// Subject is the viewer making the request.
	Subject Viewer

	// Resource is the target (e.g. "cache").
	Resource string

	// Action is the requested action (e.g. "read", "flush").
	Action string
}

// AuthzError represents an authorization failure.
type AuthzError struct {
	Subject  string
	Resource string
	Action   string
	Reason   string

	// Cause is ErrUnauthenticated when the subject was anonymous.
	Cause error
}

// Error returns the error message.
func (e *AuthzError) Error() string {
	return fmt.Sprintf("authorization denied: subject=%q resource=%q action=%q reason=%q",
		e.Subject, e.Resource, e.Action, e.Reason)
}

// Unwrap returns the cause error for errors.Is/As support.
func (e *AuthzError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target.
func (e *AuthzError) Is(target error) bool {
	return target == ErrForbidden
}

// AllowAllAuthorizer permits all requests.
type AllowAllAuthorizer struct{}

// Authorize always returns nil.
func (AllowAllAuthorizer) Authorize(context.Context, *AuthzRequest) error {
	return nil
}

// Name returns "allow_all".
func (AllowAllAuthorizer) Name() string {
	return "allow_all"
}

// AuthorizerFunc adapts an ordinary function to Authorizer.
type AuthorizerFunc func(ctx context.Context, req *AuthzRequest) error

// Authorize calls f.
func (f AuthorizerFunc) Authorize(ctx context.Context, req *AuthzRequest) error {
	return f(ctx, req)
}

// Name returns "func".
func (f AuthorizerFunc) Name() string {
	return "func"
}

var (
	_ Authorizer = AllowAllAuthorizer{}
	_ Authorizer = AuthorizerFunc(nil)
)
