package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/cache"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/config"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/event"
	handler "github.com/OmSonawane4/Roxiler-Assignment/internal/handler/http"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/search"
	esengine "github.com/OmSonawane4/Roxiler-Assignment/internal/search/elasticsearch"
	searchmemory "github.com/OmSonawane4/Roxiler-Assignment/internal/search/memory"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/sentiment"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/storage"
	storagememory "github.com/OmSonawane4/Roxiler-Assignment/internal/storage/memory"
	storageminio "github.com/OmSonawane4/Roxiler-Assignment/internal/storage/minio"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/database"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/health"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/httpclient"
	pkgkafka "github.com/OmSonawane4/Roxiler-Assignment/pkg/kafka"
)

const cachePrefix = "store-rating:"

// Cache holds the dashboard cache and, for the Redis backend, its client.
type Cache struct {
	Cache  cache.Cache
	Client *redis.Client
}

// Close releases the Redis connection, if any.
func (c *Cache) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// NewCache builds the dashboard cache selected by CACHE_BACKEND.
func NewCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Cache, error) {
	if cfg.CacheBackend != config.BackendRedis {
		logger.Info("in-memory dashboard cache initialized", slog.Duration("ttl", cfg.DashboardCacheTTL))
		return &Cache{Cache: cache.NewMemoryCache(cfg.DashboardCacheTTL, 2*cfg.DashboardCacheTTL)}, nil
	}

	client, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))
	return &Cache{Cache: cache.NewRedisCache(client, cachePrefix), Client: client}, nil
}

// PhotoStorage is the photo object store plus what the router and health
// checks need from it.
type PhotoStorage struct {
	Storage storage.Storage
	// Files serves objects from process memory. Nil for MinIO.
	Files handler.ObjectReader
	// Ping checks the backing bucket. Nil for in-memory storage.
	Ping health.Checker
}

// NewPhotoStorage builds the photo store selected by STORAGE_BACKEND.
func NewPhotoStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*PhotoStorage, error) {
	if cfg.StorageBackend != config.BackendMinio {
		mem := storagememory.New(cfg.PhotoBaseURL())
		logger.Info("in-memory photo storage initialized", slog.String("base_url", cfg.PhotoBaseURL()))
		return &PhotoStorage{Storage: mem, Files: mem}, nil
	}

	store, err := storageminio.New(storageminio.Config{
		Endpoint:      cfg.MinioEndpoint,
		AccessKey:     cfg.MinioAccessKey,
		SecretKey:     cfg.MinioSecretKey,
		Bucket:        cfg.MinioBucket,
		UseSSL:        cfg.MinioUseSSL,
		PublicBaseURL: cfg.PhotoBaseURL(),
	})
	if err != nil {
		return nil, fmt.Errorf("init minio storage: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure minio bucket: %w", err)
	}
	logger.Info("minio photo storage initialized",
		slog.String("endpoint", cfg.MinioEndpoint),
		slog.String("bucket", cfg.MinioBucket),
	)
	return &PhotoStorage{Storage: store, Ping: store.Ping}, nil
}

// SearchEngine is the store search engine and its optional health check.
type SearchEngine struct {
	Engine search.Engine
	// Ping is nil for the in-process engine.
	Ping health.Checker
	// InProcess is true when the index lives in memory and must be rebuilt
	// from the database on start.
	InProcess bool
}

// NewSearchEngine builds the Elasticsearch engine when ELASTICSEARCH_URL is
// set, and the in-process engine otherwise. Cluster calls go through a
// circuit breaker.
func NewSearchEngine(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) (*SearchEngine, error) {
	if cfg.ElasticsearchURL == "" {
		logger.Info("in-memory search engine initialized")
		return &SearchEngine{Engine: searchmemory.New(), InProcess: true}, nil
	}

	transport := httpclient.NewBreakerTransport(
		httpclient.NewTransport(httpclient.DefaultConfig()),
		httpclient.DefaultBreakerConfig("elasticsearch"),
		httpclient.NewBreakerMetrics(reg),
		logger,
	)
	eng, err := esengine.New(esengine.Config{
		URL:       cfg.ElasticsearchURL,
		Index:     cfg.ElasticsearchIndex,
		Transport: transport,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init elasticsearch engine: %w", err)
	}
	if err := eng.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("ensure elasticsearch index: %w", err)
	}
	logger.Info("elasticsearch search engine initialized",
		slog.String("url", cfg.ElasticsearchURL),
		slog.String("index", cfg.ElasticsearchIndex),
	)
	return &SearchEngine{Engine: eng, Ping: eng.Ping}, nil
}

// Events is the domain event publisher. Producer is set when events go to
// Kafka, Local when they are delivered in process.
type Events struct {
	Publisher event.Publisher
	Producer  *pkgkafka.Producer
	Local     *event.LocalPublisher
}

// Close closes the Kafka producer, if any.
func (e *Events) Close() error {
	if e.Producer == nil {
		return nil
	}
	return e.Producer.Close()
}

// NewEvents builds the Kafka producer when KAFKA_ENABLED is set, and an
// in-process publisher otherwise.
func NewEvents(cfg *config.Config, metrics *pkgkafka.Metrics, logger *slog.Logger) *Events {
	if !cfg.KafkaEnabled {
		local := event.NewLocalPublisher(logger)
		logger.Info("kafka disabled, delivering events in process")
		return &Events{Publisher: local, Local: local}
	}

	producerCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producerCfg.Metrics = metrics
	producer := pkgkafka.NewProducer(producerCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	return &Events{Publisher: producer, Producer: producer}
}

// NewClassifier loads the sentiment lexicon from SENTIMENT_LEXICON_PATH, or
// the built-in one.
func NewClassifier(cfg *config.Config) (*sentiment.Classifier, error) {
	lex, err := sentiment.LoadLexicon(cfg.SentimentLexiconPath)
	if err != nil {
		return nil, fmt.Errorf("load sentiment lexicon: %w", err)
	}
	return sentiment.NewClassifier(lex), nil
}

// idempotencyTTL bounds how long a consumed event ID is remembered.
const idempotencyTTL = 24 * time.Hour

func newIdempotencyStore(client *redis.Client) pkgkafka.IdempotencyStore {
	if client != nil {
		return pkgkafka.NewRedisIdempotencyStore(client, cachePrefix+"indexer:", idempotencyTTL)
	}
	return pkgkafka.NewMemoryIdempotencyStore(idempotencyTTL)
}
