package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/OmSonawane4/Roxiler-Assignment/pkg/config"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/database"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/tracing"
)

const (
	ServiceName      = "store-rating"
	EnvDevelopment   = "development"
	defaultJWTSecret = "change-this-to-a-secure-secret"
)

// Cache and storage backends.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendMinio  = "minio"
)

// Config holds all configuration for the store rating service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storerating"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storerating_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"storerating"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	DBMaxConns           int32         `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns           int32         `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime    time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime    time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	SlowQueryThresholdMS int           `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// Kafka
	KafkaEnabled         bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers         []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	SearchIndexerEnabled bool     `env:"SEARCH_INDEXER_ENABLED" envDefault:"false"`
	IndexerGroupID       string   `env:"SEARCH_INDEXER_GROUP_ID" envDefault:"store-rating-search-indexer"`

	// JWT
	JWTSecret       string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTAccessExpiry time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"24h"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Dashboard cache
	CacheBackend      string        `env:"CACHE_BACKEND" envDefault:"memory"`
	DashboardCacheTTL time.Duration `env:"DASHBOARD_CACHE_TTL" envDefault:"1m"`

	// Search. An empty URL selects the in-process engine.
	ElasticsearchURL   string `env:"ELASTICSEARCH_URL"`
	ElasticsearchIndex string `env:"ELASTICSEARCH_INDEX" envDefault:"stores"`

	// Photo storage
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"`
	MinioEndpoint  string `env:"MINIO_ENDPOINT" envDefault:"localhost:9000"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY" envDefault:"minioadmin"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY" envDefault:"minioadmin"`
	MinioBucket    string `env:"MINIO_BUCKET" envDefault:"rating-photos"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
	PublicBaseURL  string `env:"PHOTO_PUBLIC_BASE_URL"`

	// Sentiment
	SentimentLexiconPath string `env:"SENTIMENT_LEXICON_PATH"`

	// Rate limiting for auth and rating writes
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`
	// Peers whose X-Forwarded-For is honored. Empty trusts no one.
	TrustedProxyCIDRs []string `env:"TRUSTED_PROXY_CIDRS" envSeparator:","`

	// Observability
	OTelEnabled    bool     `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint   string   `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTelSampleRate float64  `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
	SentryDSN      string   `env:"SENTRY_DSN"`
	PprofCIDRs     []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load(opts ...pkgconfig.Option) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, opts...); err != nil {
		return nil, fmt.Errorf("load store rating config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}
	switch cfg.CacheBackend {
	case BackendRedis, BackendMemory:
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q: want redis or memory", cfg.CacheBackend)
	}
	switch cfg.StorageBackend {
	case BackendMinio, BackendMemory:
	default:
		return nil, fmt.Errorf("invalid STORAGE_BACKEND %q: want minio or memory", cfg.StorageBackend)
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst < 1 {
		return nil, fmt.Errorf("rate limit must be positive (rps=%v, burst=%d)", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	// Outside development, require an explicitly set, strong JWT secret.
	if cfg.Environment != EnvDevelopment {
		if cfg.JWTSecret == defaultJWTSecret {
			return nil, fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", cfg.Environment)
		}
		if len(cfg.JWTSecret) < 32 {
			return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(cfg.JWTSecret))
		}
	}

	return cfg, nil
}

// Postgres returns the connection settings for database.NewPostgresPool.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: c.DBMaxConnLifetime,
		MaxConnIdleTime: c.DBMaxConnIdleTime,
	}
}

// Redis returns the connection settings for database.NewRedisClient.
func (c *Config) Redis() database.RedisConfig {
	rc := database.DefaultRedisConfig()
	rc.Host = c.RedisHost
	rc.Port = c.RedisPort
	rc.Password = c.RedisPassword
	rc.DB = c.RedisDB
	return rc
}

// Tracing returns the OpenTelemetry settings.
func (c *Config) Tracing() tracing.Config {
	tc := tracing.DefaultConfig(ServiceName)
	tc.Environment = c.Environment
	tc.OTLPEndpoint = c.OTelEndpoint
	tc.SampleRate = c.OTelSampleRate
	tc.Enabled = c.OTelEnabled
	return tc
}

// SlowQueryThreshold is the duration above which queries are logged.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryThresholdMS) * time.Millisecond
}

// PhotoBaseURL is the public URL prefix of uploaded photos. In-memory storage
// is served by this process under /photos.
func (c *Config) PhotoBaseURL() string {
	if c.PublicBaseURL != "" || c.StorageBackend == BackendMinio {
		return c.PublicBaseURL
	}
	return fmt.Sprintf("http://localhost:%d/photos", c.HTTPPort)
}
