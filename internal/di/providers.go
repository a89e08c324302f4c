package di

import (
	"context"
	"fmt"

	drepo "MacroPulse/internal/domain/repository"
	"MacroPulse/internal/handler/api"
	"MacroPulse/internal/publisher"
	"MacroPulse/internal/scheduler"
	"MacroPulse/internal/service/notice"
	"MacroPulse/internal/service/rss"
	"MacroPulse/internal/service/social"
	"MacroPulse/internal/service/yahoo"
	"MacroPulse/internal/store"
	"MacroPulse/internal/usecase"
	"MacroPulse/pkg/cache"
	"MacroPulse/pkg/config"
	xhttp "MacroPulse/pkg/http"
	pkgkafka "MacroPulse/pkg/kafka"
	xlogger "MacroPulse/pkg/logger"
	"MacroPulse/pkg/metrics"
	"MacroPulse/pkg/server"
)

// ProvideLogCollector creates the bounded in-memory log ring.
func ProvideLogCollector() *xlogger.Collector {
	return xlogger.NewCollector(200)
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config, collector *xlogger.Collector) (*xlogger.Logger, error) {
	l, err := xlogger.New(&xlogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.WithCollector(collector), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideChartCache creates the quote-response cache: memory only by default,
// layered over Redis when configured.
func ProvideChartCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Quotes.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}

	redisCache, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Quotes.Redis.Addr),
		cache.WithRedisPassword(cfg.Quotes.Redis.Password),
		cache.WithRedisDB(cfg.Quotes.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(redisCache), nil
}

// ProvideQuoteSource creates the Yahoo chart client.
func ProvideQuoteSource(cfg *config.Config, chartCache cache.Service) drepo.QuoteSource {
	return yahoo.New(cfg.Quotes.BaseURL, cfg.Quotes.Timeout,
		yahoo.WithCache(chartCache, cfg.Quotes.CacheTTL),
		yahoo.WithRateLimit(cfg.Quotes.RateCapacity, cfg.Quotes.RatePerSec),
	)
}

// ProvideNewsSource creates the RSS feed client.
func ProvideNewsSource(cfg *config.Config) drepo.NewsSource {
	return rss.New(cfg.News.Timeout)
}

// ProvideSocialSource creates the timeline relay client.
func ProvideSocialSource(cfg *config.Config) drepo.SocialSource {
	return social.New(cfg.Social.RelayURL, cfg.Social.Timeout)
}

// ProvideSettings maps configuration into the aggregation plan.
func ProvideSettings(cfg *config.Config) usecase.Settings {
	return usecase.Settings{
		Holdings:        cfg.Portfolio,
		Indicators:      cfg.Indicators,
		Feeds:           cfg.News.Sources,
		Keywords:        cfg.News.Keywords,
		Accounts:        cfg.Social.Accounts,
		RecencyWindow:   cfg.Refresh.RecencyWindow,
		TopNews:         cfg.Refresh.TopNews,
		TopSocial:       cfg.Refresh.TopSocial,
		SparklinePoints: cfg.Refresh.SparklinePoints,
		IndicatorWindow: cfg.Refresh.IndicatorWindow,
	}
}

// ProvideAggregator creates the snapshot aggregator.
func ProvideAggregator(
	quotes drepo.QuoteSource,
	news drepo.NewsSource,
	socialSource drepo.SocialSource,
	m drepo.Metrics,
	l *xlogger.Logger,
	settings usecase.Settings,
) *usecase.Aggregator {
	return usecase.NewAggregator(quotes, news, socialSource, m, l, settings)
}

// ProvideCheckpoints builds the daily refresh schedule.
func ProvideCheckpoints(cfg *config.Config) *scheduler.Checkpoints {
	return scheduler.NewCheckpoints(cfg.Refresh.CheckpointHours, cfg.Refresh.ZoneOffsetHours)
}

// ProvideSnapshotStore creates the snapshot slot with its file mirror.
func ProvideSnapshotStore(cfg *config.Config, l *xlogger.Logger) *store.Store {
	return store.New(cfg.Snapshot.File, l)
}

// ProvideHub creates the WebSocket fan-out hub.
func ProvideHub(snapStore *store.Store, m drepo.Metrics, l *xlogger.Logger) *publisher.Hub {
	return publisher.NewHub(snapStore, m, l)
}

// ProvideNoticePublisher creates the Kafka notice mirror, or nil when Kafka
// is disabled.
func ProvideNoticePublisher(cfg *config.Config) (drepo.NoticePublisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return notice.NewKafka(producer, cfg.Kafka.Topic), nil
}

// ProvideRefresher creates the refresh pipeline.
func ProvideRefresher(
	agg *usecase.Aggregator,
	snapStore *store.Store,
	hub *publisher.Hub,
	notices drepo.NoticePublisher,
	m drepo.Metrics,
	l *xlogger.Logger,
	cp *scheduler.Checkpoints,
	cfg *config.Config,
) *usecase.Refresher {
	return usecase.NewRefresher(agg, snapStore, hub, notices, m, l, cp.Next, cfg.Refresh.RunTimeout)
}

// ProvideTrigger wraps the refresher in the coalescing trigger.
func ProvideTrigger(refresher *usecase.Refresher) *scheduler.Trigger {
	return scheduler.NewTrigger(refresher.Run)
}

// ProvideScheduler registers the trigger on the checkpoint schedule.
func ProvideScheduler(cp *scheduler.Checkpoints, trigger *scheduler.Trigger, l *xlogger.Logger) (*scheduler.Scheduler, error) {
	run := func() {
		if _, err := trigger.Fire(context.Background(), usecase.TriggerScheduled); err != nil {
			l.Error("scheduled refresh failed", xlogger.Error(err))
		}
	}
	return scheduler.New(cp, run, l)
}

// ProvideDashboardHandler creates the HTTP handler.
func ProvideDashboardHandler(
	snapStore *store.Store,
	trigger *scheduler.Trigger,
	hub *publisher.Hub,
	collector *xlogger.Collector,
	l *xlogger.Logger,
) xhttp.Handler {
	return api.NewDashboardHandler(snapStore, trigger, hub, collector, l)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *xlogger.Logger,
	snapStore *store.Store,
	trigger *scheduler.Trigger,
	sched *scheduler.Scheduler,
	notices drepo.NoticePublisher,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, l, snapStore, trigger, sched, notices, handler)
}
