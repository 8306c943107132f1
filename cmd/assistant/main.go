package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/analytics/store"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/assistant"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/corpus/loader"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/corpusfeed"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/internal/vocab"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/ratelimit"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	// A local .env only fills variables the environment does not already set.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg); err != nil {
		slog.Error("assistant stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("assistant stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	instance := instanceID()
	slog.Info("starting portfolio assistant",
		"port", cfg.Server.Port,
		"instance", instance,
		"corpora", len(cfg.Corpora),
		"cache", cfg.Engine.Cache,
	)

	m := metrics.Default()

	var redisClient *pkgredis.Client
	var redisPing func(context.Context) error
	if cfg.Engine.Cache == "redis" {
		client, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, falling back to in-memory cache", "error", err)
		} else {
			defer client.Close()
			redisClient, redisPing = client, client.Ping
		}
	}

	// Kafka: query events flow through the collector to the aggregator
	// consumer; without Kafka the aggregator is fed in-process.
	aggregator := analytics.NewAggregator()
	var events assistant.EventSink = aggregator
	var collector *analytics.Collector
	var feedProducer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents)
		defer producer.Close()
		collector = analytics.NewCollector(producer, analytics.CollectorConfig{BufferSize: cfg.Analytics.BufferSize})
		events = collector
		feedProducer = kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CorpusUpdates)
		defer feedProducer.Close()
	}

	tracer := tracing.New(cfg.Tracing)
	registry := assistant.NewRegistry()
	if err := loadCorpora(cfg, registry, assistant.Options{
		Engine:  cfg.Engine,
		Events:  events,
		Metrics: m,
		Tracer:  tracer,
	}, redisClient); err != nil {
		return err
	}

	var sessions *store.Store
	var postgresPing func(context.Context) error
	if cfg.Postgres.Enabled {
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, session stats will not persist", "error", err)
		} else {
			defer db.Close()
			postgresPing = db.Ping
			sessions = store.New(db)
			if err := sessions.Migrate(ctx); err != nil {
				return fmt.Errorf("migrating session store: %w", err)
			}
			if err := sessions.Restore(ctx, registry.Counters()); err != nil {
				slog.Warn("session stats not restored", "error", err)
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Metrics.Enabled {
		g.Go(func() error { return metrics.Serve(gctx, cfg.Metrics.Port) })
	}

	var feed *corpusfeed.Feed
	if cfg.Kafka.Enabled {
		collector.Start(gctx)
		defer collector.Close()

		aggConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents, cfg.Kafka.ConsumerGroup+"-analytics", analytics.HandleEvent(aggregator))
		g.Go(func() error { return aggConsumer.Start(gctx) })

		feed = corpusfeed.New(feedProducer, registry, instance)
		// Every instance must see every update, so each joins its own group.
		feedConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.CorpusUpdates, cfg.Kafka.ConsumerGroup+"-feed-"+instance, feed.Handle())
		g.Go(func() error { return feedConsumer.Start(gctx) })
		slog.Info("kafka pipelines started",
			"query_topic", cfg.Kafka.Topics.QueryEvents,
			"corpus_topic", cfg.Kafka.Topics.CorpusUpdates,
		)
	}
	if sessions != nil {
		g.Go(func() error {
			store.RunPeriodic(gctx, sessions, registry.Counters(), cfg.Analytics.SnapshotInterval)
			return nil
		})
	}

	checker := health.NewChecker()
	checker.Register("engines", func(ctx context.Context) health.ComponentHealth {
		names := registry.Names()
		if len(names) == 0 {
			return health.ComponentHealth{Status: health.StatusDown, Message: "no corpora loaded"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d corpora: %v", len(names), names)}
	})
	if cfg.Engine.Cache == "redis" {
		checker.Register("redis", health.PingCheck(redisPing, true))
	}
	if cfg.Postgres.Enabled {
		checker.Register("postgres", health.PingCheck(postgresPing, true))
	}

	var announcer handler.Announcer
	if feed != nil {
		announcer = feed
	}
	h := handler.New(registry, handler.Options{
		AskTimeout:   cfg.Engine.AskTimeout,
		DefaultLimit: cfg.Engine.DefaultLimit,
		Announcer:    announcer,
	})

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /api/v1/analytics", analytics.NewHandler(aggregator).Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		defer limiter.Stop()
	}

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.AdminOnly(cfg.Server.AdminKeyHashes)(chain)
	chain = middleware.RateLimit(limiter)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.CORS(cfg.Server.CORSOrigins)(chain)
	chain = middleware.RequestID(chain)
	if len(cfg.Server.AdminKeyHashes) == 0 {
		slog.Warn("no admin keys configured, reload and cache routes are unauthenticated")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		slog.Info("assistant listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	return g.Wait()
}

// loadCorpora reads every configured corpus concurrently and registers an
// engine for each. Any corpus failing to load aborts startup.
func loadCorpora(cfg *config.Config, registry *assistant.Registry, base assistant.Options, redisClient *pkgredis.Client) error {
	names := make([]string, 0, len(cfg.Corpora))
	for name := range cfg.Corpora {
		names = append(names, name)
	}
	sort.Strings(names)

	var g errgroup.Group
	for _, name := range names {
		cc := cfg.Corpora[name]
		g.Go(func() error {
			c, err := loader.LoadFile(name, cc.Kind, cc.Path)
			if err != nil {
				return fmt.Errorf("loading corpus %s: %w", name, err)
			}
			table := vocab.Default()
			if cc.Vocabulary != "" {
				if table, err = vocab.LoadFile(cc.Vocabulary); err != nil {
					return fmt.Errorf("loading vocabulary for %s: %w", name, err)
				}
			}
			opts := base
			opts.Vocabulary = table
			opts.Cache = newCache(cfg, name, base.Metrics, redisClient)
			e, err := assistant.New(c, opts)
			if err != nil {
				return fmt.Errorf("indexing corpus %s: %w", name, err)
			}
			registry.Add(e, assistant.Source{Kind: cc.Kind, Path: cc.Path})
			idx, _ := e.Index()
			slog.Info("corpus loaded", "corpus", name, "kind", cc.Kind, "documents", idx.Len(), "skipped", idx.Skipped)
			return nil
		})
	}
	return g.Wait()
}

func newCache(cfg *config.Config, corpus string, m *metrics.Metrics, redisClient *pkgredis.Client) cache.ResultCache {
	switch cfg.Engine.Cache {
	case "none":
		return &cache.Disabled{}
	case "redis":
		if redisClient != nil {
			breaker := resilience.NewCircuitBreaker("redis-cache-"+corpus, resilience.CircuitBreakerConfig{
				OnStateChange: func(name string, _, to resilience.State) {
					m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				},
			})
			ttl := cfg.Engine.CacheTTL
			if ttl <= 0 {
				ttl = cfg.Redis.CacheTTL
			}
			return cache.NewRedis(redisClient, cache.RedisOptions{
				Corpus:  corpus,
				TTL:     ttl,
				Breaker: breaker,
				Metrics: m,
			})
		}
	}
	return cache.NewMemory(cache.MemoryOptions{
		Corpus:     corpus,
		MaxEntries: cfg.Engine.CacheMaxEntries,
		TTL:        cfg.Engine.CacheTTL,
		Metrics:    m,
	})
}

func instanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "assistant"
	}
	return host + "-" + uuid.NewString()[:8]
}
