package observe

import "errors"

var (
	ErrMissingServiceName     = errors.New("observe: service name is required")
	ErrInvalidSamplePct       = errors.New("observe: sample pct outside [0, 1]")
	ErrInvalidTracingExporter = errors.New("observe: unknown tracing exporter")
	ErrInvalidMetricsExporter = errors.New("observe: unknown metrics exporter")
	ErrInvalidLogLevel        = errors.New("observe: unknown log level")

	// ErrMissingOperationName is returned for an Operation without a Name.
	ErrMissingOperationName = errors.New("observe: operation name is required")

	// ErrNilObserver is returned by MiddlewareFromObserver(nil).
	ErrNilObserver = errors.New("observe: observer is nil")
)
