package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/threadkit/threadcache/auth"
	"github.com/threadkit/threadcache/observe"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-Id"

// Middleware is a standard net/http middleware.
type Middleware func(http.Handler) http.Handler

type requestIDKey struct{}

// RequestIDFromContext returns the id set by RequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestID keeps an incoming X-Request-Id or generates a UUID, echoes it on
// the response and stores it in the request context.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(HeaderRequestID, id)

			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Logging writes one info line per request.
func Logging(logger observe.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(sw, r)

			logger.Info(r.Context(), "http request",
				observe.F("method", r.Method),
				observe.F("path", r.URL.Path),
				observe.F("status", sw.statusCode()),
				observe.F("duration_ms", float64(time.Since(start).Microseconds())/1000),
				observe.F("bytes", sw.count),
				observe.F("request_id", RequestIDFromContext(r.Context())),
			)
		})
	}
}

// Recover turns a panic into a 500 without leaking its details.
func Recover(logger observe.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error(r.Context(), "panic",
						observe.F("path", r.URL.Path),
						observe.F("reason", rec),
					)
					writeError(w, r, http.StatusInternalServerError, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Timeout sets a deadline on requests that have none. d <= 0 disables it.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Deadline(); ok {
				next.ServeHTTP(w, r)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Viewer resolves the advisory viewer and stores it in the request context.
// Unusable credentials fall back to anonymous and are logged at debug.
func Viewer(a auth.Authenticator, logger observe.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v, err := auth.Resolve(r.Context(), a, r.Header)
			if err != nil {
				logger.Debug(r.Context(), "viewer credentials ignored",
					observe.Err(err),
					observe.F("request_id", RequestIDFromContext(r.Context())),
				)
			}
			next.ServeHTTP(w, r.WithContext(auth.WithViewer(r.Context(), v)))
		})
	}
}

// Authorize lets a request through only when authz permits the viewer in its
// context to perform action on resource. The anonymous viewer gets 401 and a
// known viewer without permission gets 403.
func Authorize(authz auth.Authorizer, resource, action string, logger observe.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer := auth.ViewerFromContext(r.Context())
			err := authz.Authorize(r.Context(), &auth.AuthzRequest{
				Subject:  viewer,
				Resource: resource,
				Action:   action,
			})
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}

			logger.Warn(r.Context(), "request denied",
				observe.Err(err),
				observe.F("authorizer", authz.Name()),
				observe.F("viewer", viewer.ID),
				observe.F("request_id", RequestIDFromContext(r.Context())),
			)
			if errors.Is(err, auth.ErrUnauthenticated) {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, r, http.StatusUnauthorized, "unauthenticated")
				return
			}
			writeError(w, r, http.StatusForbidden, "forbidden")
		})
	}
}

// statusWriter records the status code and body size.
type statusWriter struct {
	http.ResponseWriter
	status int
	count  int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.count += n
	return n, err
}

func (w *statusWriter) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}
