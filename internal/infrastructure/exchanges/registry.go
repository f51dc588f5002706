package exchanges

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	domain "refdatasync/internal/domain/entity/refdata"
	"refdatasync/internal/domain/interfaces"
)

// Settings holds the listing endpoints and reference database exchange ids.
type Settings struct {
	BinanceSpotURL      string
	BinanceFuturesURL   string
	BinanceDEXURL       string
	FTXMarketsURL       string
	FTXFuturesURL       string
	FTXCoinsURL         string
	KrakenAssetPairsURL string

	BinanceID        string
	BinanceFuturesID string
	BinanceDEXID     string
	FTXID            string
	KrakenID         string
}

func DefaultSettings() Settings {
	return Settings{
		BinanceSpotURL:      "https://api.binance.com/api/v3/exchangeInfo",
		BinanceFuturesURL:   "https://fapi.binance.com/fapi/v1/exchangeInfo",
		BinanceDEXURL:       "https://dapi.binance.com/dapi/v1/exchangeInfo",
		FTXMarketsURL:       "https://ftx.com/api/markets",
		FTXFuturesURL:       "https://ftx.com/api/futures",
		FTXCoinsURL:         "https://ftx.com/api/coins",
		KrakenAssetPairsURL: "https://api.kraken.com/0/public/AssetPairs",
		BinanceID:           "16",
		BinanceDEXID:        "17",
		BinanceFuturesID:    "18",
		FTXID:               "53",
	}
}

// SourceInfo describes a configured adapter.
type SourceInfo struct {
	Name       string
	ExchangeID string
	URLs       []string
}

// Registry holds the adapters in asset merge order.
type Registry struct {
	adapters []interfaces.ExchangeAdapter
	sources  []SourceInfo
}

func NewRegistry(settings Settings, fetcher *Fetcher, log *logrus.Logger) *Registry {
	r := &Registry{}

	r.add(SourceInfo{
		Name:       NameFTX,
		ExchangeID: settings.FTXID,
		URLs:       []string{settings.FTXMarketsURL, settings.FTXFuturesURL, settings.FTXCoinsURL},
	}, log, func(ctx context.Context) (*Listing, error) {
		return fetchFTX(ctx, fetcher, settings)
	})

	r.add(SourceInfo{
		Name:       NameKraken,
		ExchangeID: settings.KrakenID,
		URLs:       []string{settings.KrakenAssetPairsURL},
	}, log, func(ctx context.Context) (*Listing, error) {
		payload, err := fetcher.Get(ctx, settings.KrakenAssetPairsURL)
		if err != nil {
			return nil, err
		}
		return ParseKrakenAssetPairs(settings.KrakenID, payload)
	})

	r.add(SourceInfo{
		Name:       NameBinance,
		ExchangeID: settings.BinanceID,
		URLs:       []string{settings.BinanceSpotURL},
	}, log, func(ctx context.Context) (*Listing, error) {
		payload, err := fetcher.Get(ctx, settings.BinanceSpotURL)
		if err != nil {
			return nil, err
		}
		return ParseBinanceSpot(NameBinance, settings.BinanceID, payload)
	})

	r.add(SourceInfo{
		Name:       NameBinanceFutures,
		ExchangeID: settings.BinanceFuturesID,
		URLs:       []string{settings.BinanceFuturesURL},
	}, log, func(ctx context.Context) (*Listing, error) {
		payload, err := fetcher.Get(ctx, settings.BinanceFuturesURL)
		if err != nil {
			return nil, err
		}
		return ParseBinanceDerivatives(NameBinanceFutures, settings.BinanceFuturesID, payload)
	})

	r.add(SourceInfo{
		Name:       NameBinanceDEX,
		ExchangeID: settings.BinanceDEXID,
		URLs:       []string{settings.BinanceDEXURL},
	}, log, func(ctx context.Context) (*Listing, error) {
		payload, err := fetcher.Get(ctx, settings.BinanceDEXURL)
		if err != nil {
			return nil, err
		}
		return ParseBinanceDerivatives(NameBinanceDEX, settings.BinanceDEXID, payload)
	})

	return r
}

func (r *Registry) add(info SourceInfo, log *logrus.Logger, fetch fetchFunc) {
	r.sources = append(r.sources, info)
	r.adapters = append(r.adapters, &adapter{
		name:  info.Name,
		fetch: fetch,
		log: log.WithFields(logrus.Fields{
			"component": "exchange_adapter",
			"exchange":  info.Name,
		}),
	})
}

// Adapters returns every adapter in asset merge order.
func (r *Registry) Adapters() []interfaces.ExchangeAdapter {
	out := make([]interfaces.ExchangeAdapter, len(r.adapters))
	copy(out, r.adapters)
	return out
}

func (r *Registry) Sources() []SourceInfo {
	out := make([]SourceInfo, len(r.sources))
	copy(out, r.sources)
	return out
}

// Lookup resolves an exchange name, ignoring case, spaces, dashes and
// underscores. Unknown names are a fatal config error.
func (r *Registry) Lookup(name string) (interfaces.ExchangeAdapter, error) {
	key := lookupKey(name)
	for _, a := range r.adapters {
		if lookupKey(a.Name()) == key {
			return a, nil
		}
	}
	return nil, domain.ConfigError("unknown exchange %q", name)
}

func lookupKey(name string) string {
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(name)))
}

func fetchFTX(ctx context.Context, fetcher *Fetcher, settings Settings) (*Listing, error) {
	markets, err := fetcher.Get(ctx, settings.FTXMarketsURL)
	if err != nil {
		return nil, err
	}
	marketsListing, err := ParseFTXMarkets(settings.FTXID, markets)
	if err != nil {
		return nil, err
	}

	futures, err := fetcher.Get(ctx, settings.FTXFuturesURL)
	if err != nil {
		return nil, err
	}
	futuresListing, err := ParseFTXFutures(settings.FTXID, futures)
	if err != nil {
		return nil, err
	}

	coins, err := fetcher.Get(ctx, settings.FTXCoinsURL)
	if err != nil {
		return nil, err
	}
	coinsListing, err := ParseFTXCoins(coins)
	if err != nil {
		return nil, err
	}
	return MergeFTX(marketsListing, futuresListing, coinsListing), nil
}
