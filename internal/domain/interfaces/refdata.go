package interfaces

import (
	"context"

	domain "refdatasync/internal/domain/entity/refdata"
)

// ReferenceDataGateway is the reference database as seen by the reconciliation
// run. Inserts and updates operate on a single entity so that one failure never
// affects its neighbours.
type ReferenceDataGateway interface {
	FetchAllSymbols(ctx context.Context, liveOnly bool) ([]domain.Symbol, error)
	FetchAllAssets(ctx context.Context) ([]domain.Asset, error)
	InsertSymbol(ctx context.Context, symbol *domain.Symbol) (string, error)
	InsertAsset(ctx context.Context, asset *domain.Asset) (string, error)
	UpdateSymbolState(ctx context.Context, instrumentID string, state domain.LiveState) error
	Close()
}

// ExchangeAdapter maps one exchange's public listing into symbols and assets.
// Every call performs a fresh read.
type ExchangeAdapter interface {
	Name() string
	FetchSymbols(ctx context.Context) (map[string]*domain.Symbol, error)
	FetchAssets(ctx context.Context) (map[string]*domain.Asset, error)
}

// EventPublisher announces reference data changes to downstream consumers.
type EventPublisher interface {
	PublishAssetInserted(ctx context.Context, runID string, asset domain.InsertedAsset) error
	PublishSymbolInserted(ctx context.Context, runID string, exchange string, symbol domain.InsertedSymbol) error
	PublishSymbolStateChanged(ctx context.Context, runID string, exchange string, transition domain.Transition) error
	Close()
}

// ReportStore keeps the latest run report per exchange.
type ReportStore interface {
	SaveReport(ctx context.Context, report *domain.Report) error
	LatestReport(ctx context.Context, exchange string) (*domain.Report, error)
}

// MetricsRecorder exports run outcomes to the monitoring stack.
type MetricsRecorder interface {
	RecordRun(ctx context.Context, report *domain.Report) error
}
