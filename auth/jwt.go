package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures the JWT authenticator.
type JWTConfig struct {
	// Secret is the HMAC signing key. Required.
	Secret []byte

	// Issuer is the expected iss claim. Empty skips the check.
	Issuer string

	// Audience is the expected aud claim. Empty skips the check.
	Audience string

	// HeaderName carries the token.
	// Default: "Authorization"
	HeaderName string

	// ViewerClaim names the claim holding the user id.
	// Default: "sub"
	ViewerClaim string

	// RolesClaim names the claim holding role names, either a list of
	// strings or one string.
	// Default: "roles"
	RolesClaim string
}

// JWTAuthenticator reads the viewer from an HMAC-signed bearer token.
type JWTAuthenticator struct {
	config JWTConfig
	parser *jwt.Parser
}

// NewJWTAuthenticator creates a JWT authenticator.
func NewJWTAuthenticator(config JWTConfig) (*JWTAuthenticator, error) {
	if len(config.Secret) == 0 {
		return nil, ErrEmptySecret
	}
	if config.HeaderName == "" {
		config.HeaderName = "Authorization"
	}
	if config.ViewerClaim == "" {
		config.ViewerClaim = "sub"
	}
	if config.RolesClaim == "" {
		config.RolesClaim = "roles"
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}

	return &JWTAuthenticator{config: config, parser: jwt.NewParser(opts...)}, nil
}

// Authenticate implements Authenticator.
func (a *JWTAuthenticator) Authenticate(_ context.Context, header http.Header) (Viewer, error) {
	raw := header.Get(a.config.HeaderName)
	if raw == "" {
		return Viewer{}, ErrMissingCredentials
	}
	scheme, tokenString, ok := strings.Cut(raw, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenString) == "" {
		return Viewer{}, ErrTokenMalformed
	}

	claims := jwt.MapClaims{}
	_, err := a.parser.ParseWithClaims(strings.TrimSpace(tokenString), claims, func(*jwt.Token) (any, error) {
		return a.config.Secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Viewer{}, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return Viewer{}, ErrTokenMalformed
	case err != nil:
		return Viewer{}, ErrInvalidCredentials
	}

	id, _ := claims[a.config.ViewerClaim].(string)
	if id == "" {
		return Viewer{}, ErrInvalidCredentials
	}

	v := Viewer{ID: id, Roles: rolesFrom(claims[a.config.RolesClaim]), Method: MethodJWT}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		v.ExpiresAt = exp.Time
	}
	return v, nil
}

func rolesFrom(claim any) []string {
	switch c := claim.(type) {
	case string:
		if c == "" {
			return nil
		}
		return []string{c}
	case []any:
		roles := make([]string, 0, len(c))
		for _, r := range c {
			if s, ok := r.(string); ok && s != "" {
				roles = append(roles, s)
			}
		}
		return roles
	}
	return nil
}

var _ Authenticator = (*JWTAuthenticator)(nil)
