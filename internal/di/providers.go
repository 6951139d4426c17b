package di

import (
	"context"
	"fmt"
	"time"

	domrepo "ForexPulse/internal/domain/repository"
	"ForexPulse/internal/domain/service"
	"ForexPulse/internal/handler/api"
	internalrepo "ForexPulse/internal/repository"
	icache "ForexPulse/internal/service/cache"
	"ForexPulse/internal/service/fetcher"
	imetrics "ForexPulse/internal/service/metrics"
	"ForexPulse/internal/service/normalizer"
	"ForexPulse/internal/service/ratelimit"
	"ForexPulse/internal/service/registry"
	"ForexPulse/internal/services/analytics"
	"ForexPulse/internal/usecase"
	pkgch "ForexPulse/pkg/clickhouse"
	"ForexPulse/pkg/config"
	xhttp "ForexPulse/pkg/http"
	pkgkafka "ForexPulse/pkg/kafka"
	applogger "ForexPulse/pkg/logger"
	"ForexPulse/pkg/metrics"
	"ForexPulse/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

const schemaTimeout = 10 * time.Second

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("service", "forexpulse"), applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates the Prometheus recorder on the default registry.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideStreamMetrics creates connection counters for the push endpoints.
func ProvideStreamMetrics() *imetrics.StreamMetrics {
	return imetrics.NewStreamMetrics(prometheus.DefaultRegisterer)
}

// ProvideRegistry builds the source registry from configuration.
func ProvideRegistry(cfg *config.Config) *registry.Registry {
	return registry.FromConfig(cfg)
}

// ProvideFetcher creates the guarded HTTP fetcher.
func ProvideFetcher(cfg *config.Config, m *metrics.Recorder, log *applogger.Logger) domrepo.Fetcher {
	return fetcher.New(
		fetcher.WithUserAgent(cfg.Fetch.UserAgent),
		fetcher.WithMaxBody(cfg.Fetch.MaxBodyBytes),
		fetcher.WithRateLimit(cfg.Fetch.RatePerMinute, cfg.Fetch.Burst),
		fetcher.WithBreaker(fetcher.BreakerConfig{
			MaxRequests:         1,
			Timeout:             cfg.Fetch.BreakerTimeout,
			ConsecutiveFailures: cfg.Fetch.BreakerTrips,
		}),
		fetcher.WithMetrics(m),
		fetcher.WithLogger(log),
	)
}

// ProvideSlots creates the three snapshot slots.
func ProvideSlots(cfg *config.Config) *usecase.Slots {
	return usecase.NewSlots(cfg.News.Stale, cfg.Calendar.Stale, cfg.Quotes.Stale)
}

// ProvideStrategy selects the configured signal strategy.
func ProvideStrategy(cfg *config.Config) service.SignalStrategy {
	return analytics.NewStrategy(cfg.Signals.Strategy, cfg.Signals.Lookback, analytics.BandConfig{
		EntryPct:    cfg.Signals.EntryPct,
		TargetPct:   cfg.Signals.TargetPct,
		ScoreScale:  cfg.Signals.ScoreScale,
		RangeEpsPct: cfg.Signals.RangeEpsPct,
	})
}

// ProvideSinks builds the optional snapshot sinks. A sink that fails to
// connect is still returned; its publish errors are counted, never fatal.
func ProvideSinks(cfg *config.Config, log *applogger.Logger) ([]domrepo.SnapshotSink, error) {
	var sinks []domrepo.SnapshotSink

	if cfg.Redis.Enabled {
		if cfg.Redis.Addr == "" {
			log.Warn("redis enabled without addr, mirroring in memory")
			sinks = append(sinks, internalrepo.NewSnapshotMirror(icache.NewTTLCache(), "memory", cfg.Redis.Prefix, cfg.Redis.TTL))
		} else {
			rc := icache.NewRedisCache(icache.RedisConfig{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			if err := rc.Ping(ctx); err != nil {
				log.Warn("redis unreachable at startup", applogger.String("addr", cfg.Redis.Addr), applogger.Error(err))
			}
			cancel()
			sinks = append(sinks, internalrepo.NewSnapshotMirror(rc, "redis", cfg.Redis.Prefix, cfg.Redis.TTL))
		}
	}

	if cfg.Kafka.Enabled {
		p, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
			pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
			pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
			pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
			pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
			pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
			pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			closeSinks(sinks)
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		sinks = append(sinks, internalrepo.NewKafkaSnapshotPublisher(p, cfg.Kafka.Topic))
	}

	return sinks, nil
}

func closeSinks(sinks []domrepo.SnapshotSink) {
	for _, s := range sinks {
		_ = s.Close()
	}
}

// ProvideQuoteArchive connects the ClickHouse quote archive when enabled.
func ProvideQuoteArchive(cfg *config.Config) (domrepo.QuoteArchive, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(4, 2),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.QuoteArchiveSchema(cfg.ClickHouse.Database, cfg.ClickHouse.Table)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	table := cfg.ClickHouse.Database + "." + cfg.ClickHouse.Table
	return internalrepo.NewQuoteArchive(client, table, client), nil
}

// ProvideRefresher wires fetch, merge and analytics into one refresh engine.
func ProvideRefresher(
	cfg *config.Config,
	reg *registry.Registry,
	f domrepo.Fetcher,
	slots *usecase.Slots,
	strategy service.SignalStrategy,
	sinks []domrepo.SnapshotSink,
	archive domrepo.QuoteArchive,
	m *metrics.Recorder,
	log *applogger.Logger,
) *usecase.Refresher {
	opts := []usecase.RefresherOption{
		usecase.WithStrategy(strategy),
		usecase.WithNormalizer(normalizer.New()),
		usecase.WithSinks(sinks...),
		usecase.WithRefreshMetrics(m),
		usecase.WithRefreshLogger(log),
		usecase.WithNewsLimit(cfg.News.Limit),
		usecase.WithWindow(cfg.Quotes.Window),
		usecase.WithCycleGrace(cfg.Fetch.CycleGrace),
	}
	if archive != nil {
		opts = append(opts, usecase.WithArchive(archive))
	}
	return usecase.NewRefresher(reg, f, slots, opts...)
}

// ProvideScheduler creates the periodic refresh driver.
func ProvideScheduler(cfg *config.Config, r *usecase.Refresher, log *applogger.Logger) *usecase.Scheduler {
	return usecase.NewScheduler(r, usecase.Intervals{
		News:     cfg.News.Interval,
		Calendar: cfg.Calendar.Interval,
		Quotes:   cfg.Quotes.Interval,
	}, log)
}

// ProvideNotifier creates the news push hub.
func ProvideNotifier(cfg *config.Config, r *usecase.Refresher, m *metrics.Recorder, log *applogger.Logger) *usecase.Notifier {
	return usecase.NewNotifier(r, r.Slots().News,
		usecase.WithTickInterval(cfg.Stream.Interval),
		usecase.WithTopK(cfg.Stream.TopK),
		usecase.WithNotifierMetrics(m),
		usecase.WithNotifierLogger(log),
	)
}

// ProvideQueryService creates the read side over the slots.
func ProvideQueryService(
	cfg *config.Config,
	slots *usecase.Slots,
	sched *usecase.Scheduler,
	n *usecase.Notifier,
	strategy service.SignalStrategy,
	m *metrics.Recorder,
) *usecase.QueryService {
	return usecase.NewQueryService(slots,
		usecase.WithKicker(sched),
		usecase.WithSubscriberCounter(n),
		usecase.WithQueryMetrics(m),
		usecase.WithStrategyName(strategy.Name()),
		usecase.WithDefaultNewsLimit(cfg.News.Limit),
	)
}

// ProvideHandlers collects the HTTP route groups.
func ProvideHandlers(
	cfg *config.Config,
	log *applogger.Logger,
	q *usecase.QueryService,
	n *usecase.Notifier,
	sm *imetrics.StreamMetrics,
) []xhttp.Handler {
	return []xhttp.Handler{
		api.NewMarketHandler(log, q),
		api.NewStreamHandler(log, n, sm, cfg.Stream.Heartbeat),
	}
}

// ProvideRateLimiter creates the per-client request limiter.
func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideHTTPServer assembles the Echo server.
func ProvideHTTPServer(cfg *config.Config, handlers []xhttp.Handler, lim *ratelimit.Limiter, log *applogger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(!cfg.Server.DisableCORS),
		xhttp.WithLogger(log),
		xhttp.WithMiddleware(ratelimit.Middleware(lim, cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillPerSec,
			"/health", cfg.Metrics.Path, "/api/stream", "/api/ws")),
	}
	path := cfg.Metrics.Path
	if cfg.Metrics.Disabled {
		path = ""
	}
	opts = append(opts, xhttp.WithMetrics(path, prometheus.DefaultRegisterer, prometheus.DefaultGatherer))
	return xhttp.NewServer(handlers, opts...)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	sched *usecase.Scheduler,
	n *usecase.Notifier,
	srv *xhttp.Server,
	lim *ratelimit.Limiter,
	sinks []domrepo.SnapshotSink,
	archive domrepo.QuoteArchive,
) *server.App {
	return server.New(cfg, log, sched, n, srv, lim, sinks, archive)
}
