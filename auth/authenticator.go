package auth

import (
	"context"
	"errors"
	"net/http"
)

// Authenticator identifies the viewer from request headers.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: ErrMissingCredentials when no credential is present; another
//     sentinel from this package when one is present but unusable.
type Authenticator interface {
	Authenticate(ctx context.Context, header http.Header) (Viewer, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, header http.Header) (Viewer, error)

// Authenticate implements Authenticator.
func (f AuthenticatorFunc) Authenticate(ctx context.Context, header http.Header) (Viewer, error) {
	return f(ctx, header)
}

// Resolve authenticates header with a and falls back to the anonymous viewer
// on any failure. The error explains the fallback and is nil for success and
// for requests without credentials. A nil a treats everyone as anonymous.
func Resolve(ctx context.Context, a Authenticator, header http.Header) (Viewer, error) {
	if a == nil {
		return Anonymous(), nil
	}
	v, err := a.Authenticate(ctx, header)
	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, ErrMissingCredentials):
		return Anonymous(), nil
	default:
		return Anonymous(), err
	}
}
