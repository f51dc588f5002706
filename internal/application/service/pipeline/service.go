package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"refdatasync/internal/application/service/assets"
	"refdatasync/internal/application/service/symbols"
	domain "refdatasync/internal/domain/entity/refdata"
	"refdatasync/internal/domain/interfaces"
)

// ErrAllAssetSourcesFailed is returned when asset download was requested and
// no source could be read.
var ErrAllAssetSourcesFailed = errors.New("every asset source failed")

// GatewayOpener connects to the reference database for one run.
type GatewayOpener func(ctx context.Context) (interfaces.ReferenceDataGateway, error)

// AdapterSet is the ordered set of exchange adapters.
type AdapterSet interface {
	Adapters() []interfaces.ExchangeAdapter
	Lookup(name string) (interfaces.ExchangeAdapter, error)
}

// Sinks receive the outcome of a run. Any of them may be nil.
type Sinks struct {
	Events  interfaces.EventPublisher
	Reports interfaces.ReportStore
	Metrics interfaces.MetricsRecorder
}

type RunOptions struct {
	Exchange       string
	Audit          bool
	DryRun         bool
	DownloadAssets bool
}

type Service struct {
	open       GatewayOpener
	adapters   AdapterSet
	reconciler *symbols.Reconciler
	sinks      Sinks
	log        *logrus.Entry
	out        io.Writer
	now        func() time.Time
}

func NewService(open GatewayOpener, adapters AdapterSet, codes domain.StateCodes, sinks Sinks, log *logrus.Logger) *Service {
	return &Service{
		open:       open,
		adapters:   adapters,
		reconciler: symbols.NewReconciler(log, codes),
		sinks:      sinks,
		log:        log.WithField("component", "pipeline"),
		out:        io.Discard,
		now:        time.Now,
	}
}

// SetDryRunOutput sets where dry runs print the procedure calls they would
// have made.
func (s *Service) SetDryRunOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	s.out = w
}

// fetched is the outcome of the fetch phase.
type fetched struct {
	symbols map[string]*domain.Symbol
	sources []assets.Source
}

// Run reconciles one exchange against the reference database. Per-entity
// failures end up in the report; only phase-level failures return an error.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*domain.Report, error) {
	target, err := s.adapters.Lookup(opts.Exchange)
	if err != nil {
		return nil, err
	}

	report := &domain.Report{
		RunID:     uuid.New(),
		Exchange:  target.Name(),
		Mode:      domain.ModeInsert,
		DryRun:    opts.DryRun,
		StartedAt: s.now().UTC(),
	}
	if opts.Audit {
		report.Mode = domain.ModeAudit
	}
	log := s.log.WithFields(logrus.Fields{
		"run_id":   report.RunID.String(),
		"exchange": report.Exchange,
		"mode":     report.Mode,
		"dry_run":  report.DryRun,
	})
	log.Info("run started")

	gateway, err := s.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open reference database: %w", err)
	}
	defer gateway.Close()

	data, err := s.fetch(ctx, log, target, opts.DownloadAssets, report)
	if err != nil {
		return nil, err
	}
	if err := checkpoint(ctx, "merge-assets"); err != nil {
		return nil, err
	}

	dbSymbols, err := gateway.FetchAllSymbols(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("fetch persisted symbols: %w", err)
	}
	dbAssets, err := gateway.FetchAllAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch persisted assets: %w", err)
	}
	batch := domain.NewBatch(dbSymbols, dbAssets)
	known := batch.AssetCodes()

	if opts.DownloadAssets {
		missing := assets.Sorted(assets.Merge(batch.Assets(), data.sources))
		log.WithField("assets", len(missing)).Info("asset merge finished")

		if err := checkpoint(ctx, "persist-assets"); err != nil {
			return nil, err
		}
		s.persistAssets(ctx, log, gateway, missing, report)

		if opts.DryRun {
			for _, asset := range missing {
				known[asset.Code] = struct{}{}
			}
		} else {
			reread, err := gateway.FetchAllAssets(ctx)
			if err != nil {
				return nil, fmt.Errorf("re-read assets: %w", err)
			}
			batch.ReplaceAssets(reread)
			known = batch.AssetCodes()
		}
	}

	if err := checkpoint(ctx, "reconcile-symbols"); err != nil {
		return nil, err
	}
	existing := batch.ExchangeSymbols(target.Name())

	if opts.Audit {
		transitions := s.reconciler.Audit(existing, data.symbols)
		log.WithField("transitions", len(transitions)).Info("audit finished")
		if err := checkpoint(ctx, "persist-symbols"); err != nil {
			return nil, err
		}
		s.applyTransitions(ctx, log, gateway, transitions, report)
	} else {
		toInsert, rejected := s.reconciler.Reconcile(existing, data.symbols, known)
		report.Rejected = rejected
		log.WithFields(logrus.Fields{
			"symbols":  len(toInsert),
			"rejected": len(rejected),
		}).Info("symbol reconcile finished")
		if err := checkpoint(ctx, "persist-symbols"); err != nil {
			return nil, err
		}
		s.persistSymbols(ctx, log, gateway, toInsert, report)
	}

	report.FinishedAt = s.now().UTC()
	log.WithFields(logrus.Fields{
		"assets_inserted":  len(report.AssetsInserted),
		"symbols_inserted": len(report.SymbolsInserted),
		"rejected":         len(report.Rejected),
		"transitions":      len(report.Transitions),
		"failures":         report.FailureCount(),
	}).Info("run finished")

	s.record(ctx, log, report)
	return report, nil
}

// fetch reads the target listing and, when requested, every source's assets.
// Sources are read concurrently; their order in the result is the registry
// order. The target listing is required; other asset sources may fail as
// long as one succeeds.
func (s *Service) fetch(ctx context.Context, log *logrus.Entry, target interfaces.ExchangeAdapter, downloadAssets bool, report *domain.Report) (*fetched, error) {
	result := &fetched{}

	var adapters []interfaces.ExchangeAdapter
	if downloadAssets {
		adapters = s.adapters.Adapters()
	}
	assetMaps := make([]map[string]*domain.Asset, len(adapters))
	assetErrs := make([]error, len(adapters))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		listing, err := target.FetchSymbols(gctx)
		if err != nil {
			return fmt.Errorf("fetch %s symbols: %w", target.Name(), err)
		}
		result.symbols = listing
		return nil
	})
	for i, adapter := range adapters {
		g.Go(func() error {
			assetMaps[i], assetErrs[i] = adapter.FetchAssets(gctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	report.SourcesRead = append(report.SourcesRead, target.Name())

	if !downloadAssets {
		return result, nil
	}
	var failed []error
	for i, adapter := range adapters {
		if err := assetErrs[i]; err != nil {
			log.WithError(err).WithField("source", adapter.Name()).Warn("asset source skipped")
			failed = append(failed, fmt.Errorf("%s: %w", adapter.Name(), err))
			continue
		}
		result.sources = append(result.sources, assets.Source{Name: adapter.Name(), Assets: assetMaps[i]})
		if adapter.Name() != target.Name() {
			report.SourcesRead = append(report.SourcesRead, adapter.Name())
		}
	}
	if len(adapters) > 0 && len(result.sources) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrAllAssetSourcesFailed, errors.Join(failed...))
	}
	return result, nil
}

func (s *Service) persistAssets(ctx context.Context, log *logrus.Entry, gateway interfaces.ReferenceDataGateway, missing []*domain.Asset, report *domain.Report) {
	for _, asset := range missing {
		entry := domain.InsertedAsset{
			Code:   asset.Code,
			Name:   asset.Name,
			Type:   asset.Type,
			TypeID: asset.TypeID(),
		}
		if report.DryRun {
			fmt.Fprintf(s.out, "sp_asset_insert%s\n", domain.FormatArgs(domain.AssetArgs(asset)))
			report.AssetsInserted = append(report.AssetsInserted, entry)
			continue
		}
		id, err := gateway.InsertAsset(ctx, asset)
		if err != nil {
			log.WithError(err).WithField("asset", asset.Code).Error("asset insert failed")
			report.AssetFailures = append(report.AssetFailures, domain.Failure{Key: asset.Code, Error: err.Error()})
			continue
		}
		entry.AssetID = id
		report.AssetsInserted = append(report.AssetsInserted, entry)
		log.WithFields(logrus.Fields{"asset": asset.Code, "asset_id": id}).Info("asset inserted")
		s.publish(log, func() error {
			return s.sinks.Events.PublishAssetInserted(ctx, report.RunID.String(), entry)
		})
	}
}

func (s *Service) persistSymbols(ctx context.Context, log *logrus.Entry, gateway interfaces.ReferenceDataGateway, toInsert []*domain.Symbol, report *domain.Report) {
	for _, sym := range toInsert {
		entry := domain.InsertedSymbol{
			PairCode: sym.ExchangePairCode,
			Symbol:   sym.Name(),
			Type:     sym.InstrumentType,
		}
		if report.DryRun {
			fmt.Fprintf(s.out, "sp_instrument_insert%s\n", domain.FormatArgs(domain.InstrumentArgs(sym)))
			report.SymbolsInserted = append(report.SymbolsInserted, entry)
			continue
		}
		id, err := gateway.InsertSymbol(ctx, sym)
		if err != nil {
			log.WithError(err).WithField("pair_code", sym.ExchangePairCode).Error("symbol insert failed")
			report.SymbolFailures = append(report.SymbolFailures, domain.Failure{Key: sym.ExchangePairCode, Error: err.Error()})
			continue
		}
		entry.InstrumentID = id
		report.SymbolsInserted = append(report.SymbolsInserted, entry)
		log.WithFields(logrus.Fields{"pair_code": sym.ExchangePairCode, "instrument_id": id}).Info("symbol inserted")
		s.publish(log, func() error {
			return s.sinks.Events.PublishSymbolInserted(ctx, report.RunID.String(), report.Exchange, entry)
		})
	}
}

func (s *Service) applyTransitions(ctx context.Context, log *logrus.Entry, gateway interfaces.ReferenceDataGateway, transitions []domain.Transition, report *domain.Report) {
	for _, tr := range transitions {
		report.Transitions = append(report.Transitions, tr)
		if report.DryRun {
			fmt.Fprintf(s.out, "update instrument %s (%s): %d -> %d %s\n", tr.InstrumentID, tr.PairCode, tr.From, tr.To, tr.Label)
			continue
		}
		if err := gateway.UpdateSymbolState(ctx, tr.InstrumentID, tr.To); err != nil {
			log.WithError(err).WithField("pair_code", tr.PairCode).Error("state update failed")
			report.TransitionFailures = append(report.TransitionFailures, domain.Failure{Key: tr.PairCode, Error: err.Error()})
			continue
		}
		log.WithFields(logrus.Fields{"pair_code": tr.PairCode, "state": tr.Label}).Info("symbol state updated")
		s.publish(log, func() error {
			return s.sinks.Events.PublishSymbolStateChanged(ctx, report.RunID.String(), report.Exchange, tr)
		})
	}
}

func (s *Service) publish(log *logrus.Entry, send func() error) {
	if s.sinks.Events == nil {
		return
	}
	if err := send(); err != nil {
		log.WithError(err).Warn("event publish failed")
	}
}

// record hands a finished, non-dry run to the report store and metrics.
func (s *Service) record(ctx context.Context, log *logrus.Entry, report *domain.Report) {
	if report.DryRun {
		return
	}
	if s.sinks.Reports != nil {
		if err := s.sinks.Reports.SaveReport(ctx, report); err != nil {
			log.WithError(err).Warn("report store failed")
		}
	}
	if s.sinks.Metrics != nil {
		if err := s.sinks.Metrics.RecordRun(ctx, report); err != nil {
			log.WithError(err).Warn("metrics push failed")
		}
	}
}

func checkpoint(ctx context.Context, phase string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run cancelled before %s: %w", phase, err)
	}
	return nil
}
