package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	domain "refdatasync/internal/domain/entity/refdata"
)

const (
	namespace = "refdata"
	jobName   = "refdata_sync"
)

// Pusher exports one gauge set per run to a Prometheus Pushgateway, grouped
// by exchange.
type Pusher struct {
	url string
	job string
}

func NewPusher(url string) *Pusher {
	return &Pusher{url: url, job: jobName}
}

func newGauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
}

// collectors renders the report as gauges on a fresh registry.
func collectors(report *domain.Report) *prometheus.Registry {
	registry := prometheus.NewRegistry()

	set := func(name, help string, value float64) {
		g := newGauge(name, help)
		g.Set(value)
		registry.MustRegister(g)
	}

	set("assets_inserted", "Assets inserted by the last run.", float64(len(report.AssetsInserted)))
	set("symbols_inserted", "Symbols inserted by the last run.", float64(len(report.SymbolsInserted)))
	set("symbols_rejected", "Symbols rejected for unknown assets.", float64(len(report.Rejected)))
	set("state_transitions", "Lifecycle transitions proposed or applied.", float64(len(report.Transitions)))
	set("entity_failures", "Per-entity persistence failures.", float64(report.FailureCount()))
	set("run_duration_seconds", "Wall time of the last run.", report.FinishedAt.Sub(report.StartedAt).Seconds())
	set("last_run_timestamp_seconds", "Unix time the last run finished.", float64(report.FinishedAt.Unix()))
	dryRun := 0.0
	if report.DryRun {
		dryRun = 1
	}
	set("last_run_dry_run", "1 when the last run did not write.", dryRun)
	return registry
}

func (p *Pusher) RecordRun(ctx context.Context, report *domain.Report) error {
	if report == nil {
		return nil
	}
	err := push.New(p.url, p.job).
		Gatherer(collectors(report)).
		Grouping("exchange", report.Exchange).
		Grouping("mode", string(report.Mode)).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
