package observe

import (
	"fmt"

	promclient "github.com/prometheus/client_golang/prometheus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config selects which telemetry the service emits and where it goes.
// Subsystems that are not Enabled are not validated.
type Config struct {
	ServiceName string
	Version     string

	Tracing TracingConfig
	Metrics MetricsConfig
	Logging LoggingConfig
}

// TracingConfig configures spans for retrieval operations.
type TracingConfig struct {
	Enabled bool

	// Exporter is one of otlp, jaeger, stdout or none.
	Exporter string

	// SamplePct is the fraction of root spans kept, in [0, 1].
	SamplePct float64
}

// MetricsConfig configures operation counters and cache gauges.
type MetricsConfig struct {
	Enabled bool

	// Exporter is one of otlp, prometheus, stdout or none.
	Exporter string

	// Registerer receives the Prometheus collector when Exporter is
	// prometheus. Default: the global Prometheus registry.
	Registerer promclient.Registerer
}

// LoggingConfig configures the JSON line logger.
type LoggingConfig struct {
	Enabled bool

	// Level is debug, info, warn or error. Empty means info.
	Level string
}

var (
	tracingExporters = set("otlp", "jaeger", "stdout", "none", "")
	metricsExporters = set("otlp", "prometheus", "stdout", "none", "")
	logLevels        = set("debug", "info", "warn", "error", "")
)

func set(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return ErrMissingServiceName
	}

	if t := c.Tracing; t.Enabled {
		if !tracingExporters[t.Exporter] {
			return fmt.Errorf("%w: %q", ErrInvalidTracingExporter, t.Exporter)
		}
		if t.SamplePct < 0 || t.SamplePct > 1 {
			return fmt.Errorf("%w: %v", ErrInvalidSamplePct, t.SamplePct)
		}
	}

	if m := c.Metrics; m.Enabled && !metricsExporters[m.Exporter] {
		return fmt.Errorf("%w: %q", ErrInvalidMetricsExporter, m.Exporter)
	}

	if l := c.Logging; l.Enabled && !logLevels[l.Level] {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
	}
	return nil
}

// sampler keeps SamplePct of new traces and follows the parent otherwise.
func (t TracingConfig) sampler() sdktrace.Sampler {
	var root sdktrace.Sampler
	switch {
	case t.SamplePct >= 1:
		root = sdktrace.AlwaysSample()
	case t.SamplePct <= 0:
		root = sdktrace.NeverSample()
	default:
		root = sdktrace.TraceIDRatioBased(t.SamplePct)
	}
	return sdktrace.ParentBased(root)
}
