package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"seqguard/internal/analysis"
	analysisHandler "seqguard/internal/analysis/handler"
	analysisMetrics "seqguard/internal/analysis/metrics"
	"seqguard/internal/compliance"
	"seqguard/internal/platform/config"
	"seqguard/internal/platform/httpserver"
	"seqguard/internal/platform/logger"
	httpMetrics "seqguard/internal/platform/metrics"
	"seqguard/internal/platform/postgres"
	"seqguard/internal/platform/redis"
	"seqguard/internal/platform/tracing"
	"seqguard/internal/ratelimit"
	rlmiddleware "seqguard/internal/ratelimit/middleware"
	"seqguard/internal/ratelimit/store/bucket"
	"seqguard/internal/registry"
	"seqguard/internal/search"
	"seqguard/internal/search/cache"
	searchMetrics "seqguard/internal/search/metrics"
	httptransport "seqguard/internal/transport/http"
	audit "seqguard/pkg/platform/audit"
	"seqguard/pkg/platform/audit/publisher"
	"seqguard/pkg/platform/audit/store/kafka"
	"seqguard/pkg/platform/audit/store/logstore"
	"seqguard/pkg/platform/audit/store/memory"
	"seqguard/pkg/platform/circuit"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("seqguard stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, "seqguard", version)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	reg, err := loadRegistry(cfg.Data)
	if err != nil {
		return err
	}
	rules, err := loadRules(cfg.Data)
	if err != nil {
		return err
	}
	log.Info("reference data loaded",
		"registry_version", reg.Version,
		"registry_entries", reg.Len(),
		"rulebook_version", rules.Version(),
	)

	health := map[string]httptransport.HealthCheck{}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = redis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		health["redis"] = redisClient.Health
	}

	var db *sql.DB
	if cfg.Postgres.URL != "" {
		db, err = postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer db.Close()
		health["postgres"] = db.PingContext
	}

	recent := memory.NewInMemoryStore(memory.WithCapacity(cfg.Audit.RecentCapacity))
	sinks := audit.Fanout{recent, logstore.New(log.With("component", "audit"))}
	if len(cfg.Audit.KafkaBrokers) > 0 {
		kc, err := kafka.NewClient(cfg.Audit.KafkaBrokers, cfg.Audit.Topic)
		if err != nil {
			return err
		}
		defer kc.Close()
		sinks = append(sinks, kafka.New(kc, cfg.Audit.Topic))
	}
	auditor := publisher.NewPublisher(sinks,
		publisher.WithAsyncBuffer(cfg.Audit.BufferSize),
		publisher.WithLogger(log),
	)
	defer auditor.Close()

	var (
		aMetrics *analysisMetrics.Metrics
		sMetrics *searchMetrics.Metrics
		hMetrics *httpMetrics.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.Metrics {
		aMetrics = analysisMetrics.New()
		sMetrics = searchMetrics.New()
		hMetrics = httpMetrics.New()
		gatherer = prometheus.DefaultGatherer
	}

	scanner := registry.NewScanner(reg,
		registry.WithLogger(log),
		registry.WithAuditor(auditor),
	)

	client := search.NewClient(cfg.Search.BaseURL,
		search.WithHTTPClient(&http.Client{Timeout: cfg.Search.HTTPTimeout}),
		search.WithPollInterval(cfg.Search.PollInterval),
		search.WithMaxPollAttempts(cfg.Search.MaxPollAttempts),
		search.WithRetry(cfg.Search.RetryAttempts, cfg.Search.RetryBackoff),
		search.WithBreaker(circuit.New("blast")),
		search.WithLogger(log),
		search.WithMetrics(sMetrics),
	)
	searcher, err := withCache(ctx, cfg.Cache, client, redisClient, db, log, sMetrics)
	if err != nil {
		return err
	}

	service := analysis.NewService(scanner, rules, searcher,
		analysis.WithLogger(log),
		analysis.WithMetrics(aMetrics),
		analysis.WithAuditor(auditor),
		analysis.WithTimeout(cfg.Analysis.Timeout),
		analysis.WithDefaultJurisdiction(cfg.Analysis.DefaultJurisdiction),
	)

	var limiterStore ratelimit.Store
	if redisClient != nil {
		limiterStore = bucket.NewRedisStore(redisClient.Client)
	} else {
		buckets := bucket.New()
		go sweepBuckets(ctx, buckets, cfg.Limits.Window)
		limiterStore = buckets
	}
	limitOpts := []rlmiddleware.Option{rlmiddleware.WithDisabled(!cfg.Limits.Enabled)}
	if hMetrics != nil {
		limitOpts = append(limitOpts, rlmiddleware.WithRejectedCounter(hMetrics.RateLimited))
	}
	limiter := rlmiddleware.New(limiterStore, cfg.Limits.Analyses, cfg.Limits.Window, log, limitOpts...)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:          log,
		Metrics:         hMetrics,
		Gatherer:        gatherer,
		RegistryVersion: reg.Version,
		Modules: []httptransport.Registrar{
			analysisHandler.New(service, log,
				analysisHandler.WithAnalyzeMiddleware(limiter.PerClient("analysis")),
				analysisHandler.WithLocalMiddleware(limiter.PerClient("local")),
			),
		},
		Audit:          auditor,
		AdminToken:     cfg.Server.AdminToken,
		HealthChecks:   health,
		TrustedProxies: cfg.Server.TrustedProxies,
	})

	// A full analysis can run for the whole analysis timeout before the
	// response is written.
	srv := httpserver.New(cfg.Server.Addr, router, cfg.Analysis.Timeout+30*time.Second)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting seqguard", "addr", cfg.Server.Addr, "version", version, "cache", cfg.Cache.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// sweepBuckets drops idle rate limit buckets once per window.
func sweepBuckets(ctx context.Context, buckets *bucket.InMemoryBucketStore, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			buckets.Sweep()
		}
	}
}

func loadRegistry(cfg config.Data) (*registry.Registry, error) {
	if cfg.RegistryPath != "" {
		return registry.LoadFile(cfg.RegistryPath)
	}
	return registry.Default()
}

func loadRules(cfg config.Data) (*compliance.RuleBook, error) {
	if cfg.JurisdictionsPath != "" {
		return compliance.LoadFile(cfg.JurisdictionsPath)
	}
	return compliance.Default()
}

func withCache(
	ctx context.Context,
	cfg config.Cache,
	next search.Searcher,
	redisClient *redis.Client,
	db *sql.DB,
	log *slog.Logger,
	m *searchMetrics.Metrics,
) (search.Searcher, error) {
	var store search.ResultCache
	switch cfg.Backend {
	case config.CacheNone:
		return next, nil
	case config.CacheRedis:
		store = cache.NewRedisCache(redisClient.Client, cfg.TTL)
	case config.CachePostgres:
		pg := cache.NewPostgresCache(db)
		if err := pg.Migrate(ctx); err != nil {
			return nil, err
		}
		store = pg
	default:
		store = cache.NewInMemoryCache()
	}
	return search.NewCachedSearcher(next, store, log, m), nil
}
