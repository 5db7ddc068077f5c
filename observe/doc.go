// Package observe provides structured logging, tracing and metrics for
// retrieval operations.
//
// An Observer owns the OpenTelemetry providers. A Middleware built from it
// wraps each operation (paginated fetch, search, cache administration) with a
// span, a set of counters and one log line. Exporters are selected by name in
// the exporters subpackage.
package observe
