// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Postgres, Kafka, Redis, Engine, Corpora, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig            `yaml:"server"`
	Postgres  PostgresConfig          `yaml:"postgres"`
	Kafka     KafkaConfig             `yaml:"kafka"`
	Redis     RedisConfig             `yaml:"redis"`
	Engine    EngineConfig            `yaml:"engine"`
	Corpora   map[string]CorpusConfig `yaml:"corpora"`
	Analytics AnalyticsConfig         `yaml:"analytics"`
	RateLimit RateLimitConfig         `yaml:"rateLimit"`
	Logging   LoggingConfig           `yaml:"logging"`
	Tracing   TracingConfig           `yaml:"tracing"`
	Metrics   MetricsConfig           `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	CORSOrigins     []string      `yaml:"corsOrigins"`
	// AdminKeyHashes are hex SHA-256 digests of keys allowed to call the
	// reload and cache invalidation routes.
	AdminKeyHashes []string `yaml:"adminKeyHashes"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	QueryEvents   string `yaml:"queryEvents"`
	CorpusUpdates string `yaml:"corpusUpdates"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// EngineConfig holds the tunable thresholds of the answer engine. The
// numbers are hand-tuned and kept configurable rather than re-derived.
type EngineConfig struct {
	MinScore        int           `yaml:"minScore"`
	DirectScore     int           `yaml:"directScore"`
	SuccessScore    int           `yaml:"successScore"`
	MaxConfidence   int           `yaml:"maxConfidence"`
	MinQueryLength  int           `yaml:"minQueryLength"`
	MaxQueryLength  int           `yaml:"maxQueryLength"`
	PreviewLength   int           `yaml:"previewLength"`
	MaxSuggestions  int           `yaml:"maxSuggestions"`
	Cache           string        `yaml:"cache"`
	CacheMaxEntries int           `yaml:"cacheMaxEntries"`
	CacheTTL        time.Duration `yaml:"cacheTTL"`
	AskTimeout      time.Duration `yaml:"askTimeout"`
	DefaultLimit    int           `yaml:"defaultLimit"`
	MaxLimit        int           `yaml:"maxLimit"`
}

// CorpusConfig points at the JSON document store of one corpus and the
// vocabulary (stopwords, synonyms, triggers) used to score it.
type CorpusConfig struct {
	Path       string `yaml:"path"`
	Kind       string `yaml:"kind"`
	Vocabulary string `yaml:"vocabulary"`
}

// AnalyticsConfig controls event buffering and stats snapshotting.
type AnalyticsConfig struct {
	BufferSize       int           `yaml:"bufferSize"`
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
}

// RateLimitConfig controls the per-client limiter on query endpoints.
type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig controls span logging of the ask pipeline.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	SampleRate float64 `yaml:"sampleRate"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	e := c.Engine
	if e.MinScore < 0 || e.DirectScore <= 0 || e.SuccessScore < 0 {
		return fmt.Errorf("%w: engine scores must be non-negative", apperrors.ErrInvalidConfig)
	}
	if e.MaxQueryLength <= e.MinQueryLength {
		return fmt.Errorf("%w: maxQueryLength must exceed minQueryLength", apperrors.ErrInvalidConfig)
	}
	switch e.Cache {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("%w: unknown cache kind %q", apperrors.ErrInvalidConfig, e.Cache)
	}
	if c.Postgres.Enabled && c.Analytics.SnapshotInterval <= 0 {
		return fmt.Errorf("%w: analytics.snapshotInterval must be positive", apperrors.ErrInvalidConfig)
	}
	for name, corpus := range c.Corpora {
		if corpus.Path == "" {
			return fmt.Errorf("%w: corpus %q has no path", apperrors.ErrInvalidConfig, name)
		}
		switch corpus.Kind {
		case "faq", "blog":
		default:
			return fmt.Errorf("%w: corpus %q has unknown kind %q", apperrors.ErrInvalidConfig, name, corpus.Kind)
		}
	}
	return nil
}

// DefaultEngineConfig returns the hand-tuned thresholds of the answer engine.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MinScore:       30,
		DirectScore:    200,
		SuccessScore:   60,
		MaxConfidence:  98,
		MinQueryLength: 2,
		MaxQueryLength: 500,
		PreviewLength:  150,
		MaxSuggestions: 3,
		Cache:          "memory",
		AskTimeout:     2 * time.Second,
		DefaultLimit:   5,
		MaxLimit:       20,
	}
}

// defaultConfig returns a Config with defaults suited to local development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "portfolio",
			User:            "portfolio",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "portfolio-assistant",
			Topics: KafkaTopics{
				QueryEvents:   "assistant-query-events",
				CorpusUpdates: "assistant-corpus-updates",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 10 * time.Minute,
		},
		Engine:  DefaultEngineConfig(),
		Corpora: map[string]CorpusConfig{},
		Analytics: AnalyticsConfig{
			BufferSize:       1000,
			SnapshotInterval: time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Requests: 60,
			Window:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			SampleRate: 1,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads PA_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PA_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PA_SERVER_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("PA_SERVER_ADMIN_KEY_HASHES"); v != "" {
		cfg.Server.AdminKeyHashes = strings.Split(v, ",")
	}
	if v := os.Getenv("PA_POSTGRES_ENABLED"); v != "" {
		cfg.Postgres.Enabled = v == "true"
	}
	if v := os.Getenv("PA_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("PA_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("PA_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("PA_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("PA_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("PA_KAFKA_ENABLED"); v != "" {
		cfg.Kafka.Enabled = v == "true"
	}
	if v := os.Getenv("PA_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("PA_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("PA_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("PA_ENGINE_CACHE"); v != "" {
		cfg.Engine.Cache = v
	}
	if v := os.Getenv("PA_ENGINE_MAX_QUERY_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.MaxQueryLength = n
		}
	}
	if v := os.Getenv("PA_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PA_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
