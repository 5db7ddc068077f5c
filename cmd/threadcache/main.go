// Command threadcache serves paginated comment threads and comment search
// over HTTP through a bounded result cache.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/threadkit/threadcache/auth"
	"github.com/threadkit/threadcache/cache"
	"github.com/threadkit/threadcache/comment"
	"github.com/threadkit/threadcache/config"
	"github.com/threadkit/threadcache/health"
	"github.com/threadkit/threadcache/httpapi"
	"github.com/threadkit/threadcache/observe"
	"github.com/threadkit/threadcache/resilience"
	"github.com/threadkit/threadcache/retrieval"
	"github.com/threadkit/threadcache/store/memstore"
	"github.com/threadkit/threadcache/store/mongo"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintln(os.Stderr, "threadcache:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	oc := cfg.ObserveConfig()
	oc.Version = version
	oc.Metrics.Registerer = registry

	obs, err := observe.NewObserver(ctx, oc)
	if err != nil {
		return fmt.Errorf("observer: %w", err)
	}
	logger := obs.Logger()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.Shutdown)
		defer cancel()
		if err := obs.Shutdown(sctx); err != nil {
			logger.Error(sctx, "observer shutdown", observe.Err(err))
		}
	}()

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return fmt.Errorf("middleware: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	logger.Info(ctx, "store ready", observe.F("driver", cfg.Store.Driver))

	var breaker *resilience.CircuitBreaker
	if cfg.Resilience.Enabled {
		breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			MaxFailures:  cfg.Resilience.BreakerFailures,
			ResetTimeout: cfg.Resilience.BreakerReset,
			OnStateChange: func(from, to resilience.State) {
				logger.Warn(context.Background(), "store circuit changed",
					observe.F("from", from.String()),
					observe.F("to", to.String()),
				)
			},
		})
		retry := resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts: cfg.Resilience.MaxAttempts,
			Jitter:      true,
		})
		exec := resilience.NewExecutor(
			resilience.WithCircuitBreaker(breaker),
			resilience.WithRetry(retry),
			resilience.WithTimeout(cfg.Resilience.Timeout),
		)
		store = resilience.NewStore(store, exec)
	}

	mc := cache.NewMemoryCache(cfg.CachePolicy())
	mc.StartJanitor(ctx, cfg.Cache.SweepInterval, func(removed int) {
		if removed > 0 {
			logger.Debug(ctx, "cache sweep", observe.F("removed", removed))
		}
	})
	if err := observe.RegisterCacheGauges(obs.Meter(), func() (int, int64, int64) {
		s := mc.Stats()
		return s.Entries, s.TotalSizeBytes, s.MaxSizeBytes
	}); err != nil {
		return fmt.Errorf("cache gauges: %w", err)
	}

	var authenticator auth.Authenticator
	if cfg.Auth.JWTSecret != "" {
		a, err := auth.NewJWTAuthenticator(auth.JWTConfig{
			Secret:     []byte(cfg.Auth.JWTSecret),
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
			RolesClaim: cfg.Auth.RolesClaim,
		})
		if err != nil {
			return fmt.Errorf("auth: %w", err)
		}
		authenticator = a
	}

	facade, err := retrieval.NewFacade(store, mc, retrieval.Config{
		Limits:       cfg.QueryLimits(),
		Search:       cfg.SearchEngineConfig(),
		TTL:          cfg.Cache.TTL,
		SingleFlight: cfg.Cache.SingleFlight,
	}, retrieval.WithMiddleware(mw))
	if err != nil {
		return fmt.Errorf("facade: %w", err)
	}

	agg := health.NewAggregator(health.AggregatorConfig{})
	agg.Register(health.NewCacheChecker(mc.Stats, 0))
	if pinger, ok := store.(comment.Pinger); ok {
		agg.Register(health.NewStoreChecker(pinger, breaker))
	}

	srv := &http.Server{
		Addr: cfg.HTTP.Addr(),
		Handler: httpapi.NewRouter(facade, httpapi.Options{
			Logger:        logger,
			Timeout:       cfg.Timeouts.Request,
			Authenticator: authenticator,
			Authorizer:    auth.NewRBACAuthorizer(auth.AdminRBACConfig(cfg.Auth.AdminRole)),
			Health:        agg,
			Metrics:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "http server listening", observe.F("addr", srv.Addr), observe.F("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.Shutdown)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// openStore returns the configured comment store and its release function.
func openStore(ctx context.Context, cfg *config.Config) (comment.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		s, err := mongo.New(ctx, mongo.Config{URL: cfg.Store.URL})
		if err != nil {
			return nil, nil, fmt.Errorf("mongo: %w", err)
		}
		return s, func() {
			cctx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.Shutdown)
			defer cancel()
			_ = s.Close(cctx)
		}, nil
	default:
		if cfg.Store.SeedFile == "" {
			return memstore.New(), func() {}, nil
		}
		s, err := memstore.LoadFile(cfg.Store.SeedFile)
		if err != nil {
			return nil, nil, fmt.Errorf("seed: %w", err)
		}
		return s, func() {}, nil
	}
}
