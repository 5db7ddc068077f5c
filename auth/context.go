package auth

import "context"

type contextKey struct{}

// WithViewer returns a context carrying v.
func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, contextKey{}, v)
}

// ViewerFromContext returns the viewer in ctx, or the anonymous viewer.
func ViewerFromContext(ctx context.Context) Viewer {
	if v, ok := ctx.Value(contextKey{}).(Viewer); ok {
		return v
	}
	return Anonymous()
}

// ViewerID returns the id of the viewer in ctx; empty when anonymous.
func ViewerID(ctx context.Context) string {
	return ViewerFromContext(ctx).ID
}
