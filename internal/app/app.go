package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/auth"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/config"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/event"
	handler "github.com/OmSonawane4/Roxiler-Assignment/internal/handler/http"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/repository/postgres"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/service"
	"github.com/OmSonawane4/Roxiler-Assignment/migrations"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/database"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/health"
	pkgkafka "github.com/OmSonawane4/Roxiler-Assignment/pkg/kafka"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/middleware"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/tracing"
)

const (
	serviceVersion   = "0.1.0"
	reindexBatchSize = 500
)

// App wires together all dependencies and runs the store rating service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	cache          *Cache
	events         *Events
	consumers      []*pkgkafka.Consumer
	dlq            *pkgkafka.DLQProducer
	limiter        *middleware.RateLimiter
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
	sentryEnabled  bool
}

// OpenDatabase connects to PostgreSQL and applies slow query logging.
func OpenDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	if threshold := cfg.SlowQueryThreshold(); threshold > 0 {
		database.SetSlowQueryLogging(threshold, logger)
	}
	return pool, nil
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.closeBackends()
		}
	}()

	// Initialize error reporting. Without a DSN sentry stays a no-op.
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          config.ServiceName + "@" + serviceVersion,
			AttachStacktrace: true,
		}); err != nil {
			return nil, fmt.Errorf("init sentry: %w", err)
		}
		a.sentryEnabled = true
		logger.Info("sentry error reporting enabled")
	}

	// Initialize OpenTelemetry tracing.
	tracerCfg := cfg.Tracing()
	tracerCfg.ServiceVersion = serviceVersion
	tracerShutdown, err := tracing.InitTracer(ctx, tracerCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// PostgreSQL and schema.
	pool, err := OpenDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.pool = pool
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")
	if err := database.RegisterPoolMetrics(reg, pool, config.ServiceName); err != nil {
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}

	// Backends.
	a.cache, err = NewCache(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	photos, err := NewPhotoStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	searchEngine, err := NewSearchEngine(ctx, cfg, reg, logger)
	if err != nil {
		return nil, err
	}
	classifier, err := NewClassifier(cfg)
	if err != nil {
		return nil, err
	}
	kafkaMetrics := pkgkafka.NewMetrics(reg)
	a.events = NewEvents(cfg, kafkaMetrics, logger)

	// Build the dependency graph.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessExpiry)
	userRepo := postgres.NewUserRepository(pool)
	storeRepo := postgres.NewStoreRepository(pool)
	ratingRepo := postgres.NewRatingRepository(pool)
	helpfulRepo := postgres.NewHelpfulRepository(pool)
	dashboardRepo := postgres.NewDashboardRepository(pool)
	eventProducer := event.NewProducer(a.events.Publisher, logger)

	dashboards := a.cache.Cache
	userService := service.NewUserService(userRepo, jwtManager, eventProducer, dashboards, logger)
	storeService := service.NewStoreService(storeRepo, userRepo, searchEngine.Engine, eventProducer, dashboards, logger)
	ratingService := service.NewRatingService(ratingRepo, helpfulRepo, classifier, eventProducer, dashboards, service.NewMetrics(reg), logger)
	dashboardService := service.NewDashboardService(dashboardRepo, dashboards, cfg.DashboardCacheTTL, logger)
	photoService := service.NewPhotoService(photos.Storage, logger)

	// Keep the search index in step with store events.
	indexer := event.NewIndexer(searchEngine.Engine, storeRepo, logger)
	switch {
	case a.events.Local != nil:
		a.events.Local.Subscribe(indexer.Handle, indexer.Topics()...)
	case cfg.SearchIndexerEnabled:
		a.dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
		h := pkgkafka.IdempotentHandler(newIdempotencyStore(a.cache.Client), indexer.Handle, logger)
		a.consumers = append(a.consumers, pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.IndexerGroupID,
			Topics:   indexer.Topics(),
			MinBytes: 1,
			MaxBytes: 10e6, // 10 MB
			Metrics:  kafkaMetrics,
			DLQ:      a.dlq,
		}, h, logger))
		logger.Info("search indexer consumer initialized", slog.String("group_id", cfg.IndexerGroupID))
	default:
		logger.Warn("search indexer disabled, the index is only refreshed by ratingctl reindex")
	}
	if searchEngine.InProcess {
		if _, err := storeService.Reindex(ctx, reindexBatchSize); err != nil {
			return nil, fmt.Errorf("build search index: %w", err)
		}
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if a.cache.Client != nil {
		client := a.cache.Client
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}
	if a.events.Producer != nil {
		healthHandler.RegisterNonCritical("kafka", a.events.Producer.Ping)
	}
	if searchEngine.Ping != nil {
		healthHandler.RegisterNonCritical("elasticsearch", searchEngine.Ping)
	}
	if photos.Ping != nil {
		healthHandler.RegisterNonCritical("minio", photos.Ping)
	}

	// HTTP router.
	a.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	a.limiter.TrustProxies(cfg.TrustedProxyCIDRs...)
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins

	router := handler.NewRouter(handler.Services{
		Users:      userService,
		Stores:     storeService,
		Ratings:    ratingService,
		Dashboards: dashboardService,
		Photos:     photoService,
	}, jwtManager.Validator(), healthHandler, handler.RouterConfig{
		ServiceName:  config.ServiceName,
		CORS:         corsCfg,
		PprofCIDRs:   cfg.PprofCIDRs,
		Metrics:      middleware.NewHTTPMetrics(reg, config.ServiceName),
		Gatherer:     reg,
		WriteLimiter: a.limiter,
		PhotoFiles:   photos.Files,
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ok = true
	return a, nil
}

// Run starts the HTTP server and Kafka consumers, blocking until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	for _, c := range a.consumers {
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Kafka consumers
// 3. Tracer and error reporter
// 4. Kafka producers, cache and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.sentryEnabled {
		sentry.Flush(2 * time.Second)
	}

	errs = append(errs, a.closeBackends()...)

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeBackends releases everything NewApp opened after the tracer. It is
// safe on a partially built App.
func (a *App) closeBackends() []error {
	var errs []error
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("kafka dlq producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errs
}
