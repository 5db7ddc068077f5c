package auth

import "errors"

// Sentinel errors for authentication.
var (
	ErrMissingCredentials = errors.New("auth: missing credentials")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrTokenExpired       = errors.New("auth: token expired")
	ErrTokenMalformed     = errors.New("auth: token malformed")
	ErrEmptySecret        = errors.New("auth: empty signing secret")
)

// Sentinel errors for authorization.
var (
	// ErrUnauthenticated is returned when an operation needs a known viewer
	// and the request carried none.
	ErrUnauthenticated = errors.New("auth: unauthenticated")

	// ErrForbidden is returned when a known viewer lacks permission.
	ErrForbidden = errors.New("auth: forbidden")
)
