package exchanges

import (
	"context"

	"github.com/sirupsen/logrus"

	domain "refdatasync/internal/domain/entity/refdata"
)

const (
	NameBinance        = "Binance"
	NameBinanceFutures = "Binance Futures"
	NameBinanceDEX     = "BinanceDEX"
	NameFTX            = "FTX"
	NameKraken         = "Kraken"
)

// Listing is one parsed exchange payload. Skipped holds a DecodeError for
// every entry that could not be mapped.
type Listing struct {
	Symbols map[string]*domain.Symbol
	Assets  map[string]*domain.Asset
	Skipped []error
}

func newListing() *Listing {
	return &Listing{
		Symbols: make(map[string]*domain.Symbol),
		Assets:  make(map[string]*domain.Asset),
	}
}

func (l *Listing) skip(source, entry string, err error) {
	l.Skipped = append(l.Skipped, &domain.DecodeError{Source: source, Entry: entry, Err: err})
}

// merge copies other's entries into l; keys already present are kept.
func (l *Listing) merge(other *Listing) {
	for code, sym := range other.Symbols {
		if _, ok := l.Symbols[code]; !ok {
			l.Symbols[code] = sym
		}
	}
	for code, asset := range other.Assets {
		if _, ok := l.Assets[code]; !ok {
			l.Assets[code] = asset
		}
	}
	l.Skipped = append(l.Skipped, other.Skipped...)
}

func logSkipped(log *logrus.Entry, listing *Listing) {
	for _, err := range listing.Skipped {
		log.WithError(err).Warn("listing entry skipped")
	}
}

type fetchFunc func(ctx context.Context) (*Listing, error)

// adapter turns a fetch-and-parse function into an ExchangeAdapter. Every
// call downloads and parses the listing again.
type adapter struct {
	name  string
	fetch fetchFunc
	log   *logrus.Entry
}

func (a *adapter) Name() string {
	return a.name
}

func (a *adapter) FetchSymbols(ctx context.Context) (map[string]*domain.Symbol, error) {
	listing, err := a.fetch(ctx)
	if err != nil {
		return nil, err
	}
	logSkipped(a.log, listing)
	a.log.WithField("symbols", len(listing.Symbols)).Debug("symbols fetched")
	return listing.Symbols, nil
}

func (a *adapter) FetchAssets(ctx context.Context) (map[string]*domain.Asset, error) {
	listing, err := a.fetch(ctx)
	if err != nil {
		return nil, err
	}
	logSkipped(a.log, listing)
	a.log.WithField("assets", len(listing.Assets)).Debug("assets fetched")
	return listing.Assets, nil
}
