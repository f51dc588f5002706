package bootstrap

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"refdatasync/internal/application/service/pipeline"
	"refdatasync/internal/config"
	"refdatasync/internal/domain/interfaces"
	"refdatasync/internal/infrastructure/broker"
	"refdatasync/internal/infrastructure/exchanges"
	"refdatasync/internal/infrastructure/metrics"
	"refdatasync/internal/infrastructure/refdb"
	"refdatasync/internal/infrastructure/reports"
)

// Runtime is the wired reconciliation service shared by the CLI and the
// HTTP server.
type Runtime struct {
	Registry *exchanges.Registry
	Service  *pipeline.Service
	Reports  interfaces.ReportStore

	closers []func()
}

// New wires adapters, the gateway opener and every configured sink. A sink
// that cannot connect is logged and left out.
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) *Runtime {
	rt := &Runtime{
		Registry: exchanges.NewRegistry(cfg.Exchanges, exchanges.NewFetcher(cfg.HTTPTimeout), log),
	}
	entry := log.WithField("component", "bootstrap")

	var sinks pipeline.Sinks
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			entry.WithError(err).Warn("redis unavailable, reports will not be stored")
			_ = client.Close()
		} else {
			store := reports.NewStore(client, cfg.ReportTTL)
			sinks.Reports = store
			rt.Reports = store
			rt.closers = append(rt.closers, func() { _ = client.Close() })
		}
	}
	if cfg.RabbitMQ.URL != "" {
		publisher, err := broker.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			entry.WithError(err).Warn("rabbitmq unavailable, events will not be published")
		} else {
			sinks.Events = publisher
			rt.closers = append(rt.closers, publisher.Close)
		}
	}
	if cfg.Pushgateway != "" {
		sinks.Metrics = metrics.NewPusher(cfg.Pushgateway)
	}

	opts := refdb.Options{
		Backend: cfg.Database.Backend,
		Dialect: cfg.Database.Dialect,
		DSN:     cfg.Database.DSN,
		Codes:   cfg.States,
	}
	open := func(ctx context.Context) (interfaces.ReferenceDataGateway, error) {
		return refdb.Open(ctx, opts)
	}
	rt.Service = pipeline.NewService(open, rt.Registry, cfg.States, sinks, log)
	return rt
}

func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}
