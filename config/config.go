// Package config loads threadcache configuration from YAML and environment
// variables with a predictable priority:
//  1. the path passed to Load;
//  2. the CONFIG_PATH variable;
//  3. ./local.yaml in the working directory;
//  4. environment variables only.
//
// When a file is read, environment variables are overlaid on it.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/threadkit/threadcache/cache"
	"github.com/threadkit/threadcache/comment"
	"github.com/threadkit/threadcache/observe"
	"github.com/threadkit/threadcache/query"
	"github.com/threadkit/threadcache/search"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverMongo  = "mongo"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the root configuration.
type Config struct {
	Env        string           `yaml:"env" env:"ENV" env-default:"local"`
	HTTP       HTTPConfig       `yaml:"http"`
	Store      StoreConfig      `yaml:"store"`
	Cache      CacheConfig      `yaml:"cache"`
	Limits     LimitsConfig     `yaml:"limits"`
	Search     SearchConfig     `yaml:"search"`
	Auth       AuthConfig       `yaml:"auth"`
	Observe    ObserveConfig    `yaml:"observe"`
	Resilience ResilienceConfig `yaml:"resilience"`
	Timeouts   TimeoutConfig    `yaml:"timeouts"`
}

// HTTPConfig is the listen address of the API server.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

// Addr returns host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// StoreConfig selects the durable comment store.
type StoreConfig struct {
	Driver string `yaml:"driver" env:"STORE_DRIVER" env-default:"memory"`
	URL    string `yaml:"url" env:"DATABASE_URL"`

	// SeedFile is a JSON array of comment rows loaded into the memory store.
	SeedFile string `yaml:"seed_file" env:"STORE_SEED_FILE"`
}

// CacheConfig bounds the result cache.
type CacheConfig struct {
	TTL           time.Duration `yaml:"ttl" env:"CACHE_TTL" env-default:"5m"`
	MaxTTL        time.Duration `yaml:"max_ttl" env:"CACHE_MAX_TTL" env-default:"1h"`
	MaxBytes      int64         `yaml:"max_bytes" env:"CACHE_MAX_BYTES" env-default:"67108864"`
	EvictFraction float64       `yaml:"evict_fraction" env:"CACHE_EVICT_FRACTION" env-default:"0.3"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"CACHE_SWEEP_INTERVAL" env-default:"1m"`
	SingleFlight  bool          `yaml:"single_flight" env:"CACHE_SINGLE_FLIGHT" env-default:"false"`
}

// LimitsConfig bounds page size and reply depth.
type LimitsConfig struct {
	Default  int `yaml:"default" env:"DEFAULT_LIMIT" env-default:"20"`
	Max      int `yaml:"max" env:"MAX_LIMIT" env-default:"100"`
	MaxDepth int `yaml:"max_depth" env:"MAX_DEPTH" env-default:"5"`
}

// SearchConfig tunes highlighting.
type SearchConfig struct {
	MinTermLength   int      `yaml:"min_term_length" env:"SEARCH_MIN_TERM_LENGTH" env-default:"3"`
	SnippetRadius   int      `yaml:"snippet_radius" env:"SEARCH_SNIPPET_RADIUS" env-default:"30"`
	DefaultStatuses []string `yaml:"default_statuses" env:"SEARCH_DEFAULT_STATUSES" env-separator:"," env-default:"approved"`
}

// AuthConfig verifies viewer tokens. An empty secret makes every viewer
// anonymous, which also locks /admin/cache.
type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret" env:"JWT_SECRET"`
	Issuer     string `yaml:"issuer" env:"JWT_ISSUER"`
	Audience   string `yaml:"audience" env:"JWT_AUDIENCE"`
	RolesClaim string `yaml:"roles_claim" env:"JWT_ROLES_CLAIM" env-default:"roles"`
	AdminRole  string `yaml:"admin_role" env:"ADMIN_ROLE" env-default:"admin"`
}

// ObserveConfig configures logging, tracing and metrics.
type ObserveConfig struct {
	ServiceName     string  `yaml:"service_name" env:"SERVICE_NAME" env-default:"threadcache"`
	LogLevel        string  `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	TracingExporter string  `yaml:"tracing_exporter" env:"TRACING_EXPORTER" env-default:"none"`
	MetricsExporter string  `yaml:"metrics_exporter" env:"METRICS_EXPORTER" env-default:"prometheus"`
	SamplePct       float64 `yaml:"sample_pct" env:"TRACING_SAMPLE_PCT" env-default:"0.1"`
}

// ResilienceConfig guards store calls.
type ResilienceConfig struct {
	Enabled         bool          `yaml:"enabled" env:"RESILIENCE_ENABLED" env-default:"true"`
	MaxAttempts     int           `yaml:"max_attempts" env:"RESILIENCE_MAX_ATTEMPTS" env-default:"3"`
	Timeout         time.Duration `yaml:"timeout" env:"RESILIENCE_TIMEOUT" env-default:"3s"`
	BreakerFailures int           `yaml:"breaker_failures" env:"RESILIENCE_BREAKER_FAILURES" env-default:"5"`
	BreakerReset    time.Duration `yaml:"breaker_reset" env:"RESILIENCE_BREAKER_RESET" env-default:"30s"`
}

// TimeoutConfig holds server deadlines.
type TimeoutConfig struct {
	Request  time.Duration `yaml:"request" env:"REQUEST_TIMEOUT" env-default:"5s"`
	Shutdown time.Duration `yaml:"shutdown" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// MustLoad is Load that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the configuration by priority and validates it.
func Load(path string) (*Config, error) {
	var cfg Config

	switch {
	case path != "":
		if err := readFile(path, &cfg); err != nil {
			return nil, err
		}
	case os.Getenv("CONFIG_PATH") != "":
		if err := readFile(os.Getenv("CONFIG_PATH"), &cfg); err != nil {
			return nil, err
		}
	case fileExists("local.yaml"):
		if err := readFile("local.yaml", &cfg); err != nil {
			return nil, err
		}
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config: file %q: %w", path, err)
	}
	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("config: overlay env: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverMongo:
		if c.Store.URL == "" {
			return invalid("store.url is required for the mongo driver")
		}
	default:
		return invalid("store.driver %q is not memory or mongo", c.Store.Driver)
	}

	if c.Limits.Default <= 0 {
		return invalid("limits.default must be > 0")
	}
	if c.Limits.Max <= 0 {
		return invalid("limits.max must be > 0")
	}
	if c.Limits.Default > c.Limits.Max {
		return invalid("limits.default must be <= limits.max")
	}
	if c.Limits.MaxDepth <= 0 || c.Limits.MaxDepth > 32 {
		return invalid("limits.max_depth must be in [1, 32]")
	}

	if c.Cache.TTL <= 0 {
		return invalid("cache.ttl must be > 0")
	}
	if c.Cache.MaxBytes <= 0 {
		return invalid("cache.max_bytes must be > 0")
	}
	if c.Cache.EvictFraction <= 0 || c.Cache.EvictFraction > 1 {
		return invalid("cache.evict_fraction must be in (0, 1]")
	}

	for _, s := range c.Search.DefaultStatuses {
		if _, ok := comment.ParseStatus(s); !ok {
			return invalid("search.default_statuses: unknown status %q", s)
		}
	}

	oc := c.ObserveConfig()
	if err := oc.Validate(); err != nil {
		return fmt.Errorf("%w: observe: %w", ErrInvalid, err)
	}
	return nil
}

// CachePolicy returns the result-cache policy.
func (c *Config) CachePolicy() cache.Policy {
	return cache.Policy{
		DefaultTTL:    c.Cache.TTL,
		MaxTTL:        c.Cache.MaxTTL,
		MaxBytes:      c.Cache.MaxBytes,
		EvictFraction: c.Cache.EvictFraction,
	}
}

// QueryLimits returns the planner bounds.
func (c *Config) QueryLimits() query.Limits {
	return query.Limits{
		DefaultLimit: c.Limits.Default,
		MaxLimit:     c.Limits.Max,
		MaxDepth:     c.Limits.MaxDepth,
	}
}

// SearchEngineConfig returns the search engine configuration.
func (c *Config) SearchEngineConfig() search.Config {
	statuses := make([]comment.Status, 0, len(c.Search.DefaultStatuses))
	for _, s := range c.Search.DefaultStatuses {
		if st, ok := comment.ParseStatus(s); ok {
			statuses = append(statuses, st)
		}
	}
	return search.Config{
		MinTermLength:   c.Search.MinTermLength,
		SnippetRadius:   c.Search.SnippetRadius,
		DefaultStatuses: statuses,
	}
}

// ObserveConfig returns the observer configuration. Exporters named "none"
// or left empty disable their subsystem.
func (c *Config) ObserveConfig() observe.Config {
	enabled := func(exporter string) bool { return exporter != "" && exporter != "none" }
	return observe.Config{
		ServiceName: c.Observe.ServiceName,
		Tracing: observe.TracingConfig{
			Enabled:   enabled(c.Observe.TracingExporter),
			Exporter:  c.Observe.TracingExporter,
			SamplePct: c.Observe.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  enabled(c.Observe.MetricsExporter),
			Exporter: c.Observe.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.Observe.LogLevel,
		},
	}
}
