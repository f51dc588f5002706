package exchanges

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bitly/go-simplejson"

	domain "refdatasync/internal/domain/entity/refdata"
)

// ftxFuturesQuote is the quote asset of every FTX future.
const ftxFuturesQuote = "usd"

func ftxResult(source string, payload []byte) (*simplejson.Json, int, error) {
	js, err := simplejson.NewJson(payload)
	if err != nil {
		return nil, 0, &domain.DecodeError{Source: source, Err: err}
	}
	result, ok := js.CheckGet("result")
	if !ok {
		return nil, 0, &domain.DecodeError{Source: source, Err: errors.New("missing result")}
	}
	entries, err := result.Array()
	if err != nil {
		return nil, 0, &domain.DecodeError{Source: source, Err: err}
	}
	return result, len(entries), nil
}

func ftxEnabled(entry *simplejson.Json) bool {
	v, ok := entry.CheckGet("enabled")
	if !ok {
		return true
	}
	enabled, err := v.Bool()
	return err != nil || enabled
}

// ParseFTXMarkets maps the spot entries of /api/markets.
func ParseFTXMarkets(exchangeID string, payload []byte) (*Listing, error) {
	result, n, err := ftxResult(NameFTX, payload)
	if err != nil {
		return nil, err
	}

	listing := newListing()
	for i := 0; i < n; i++ {
		entry := result.GetIndex(i)
		if entry.Get("type").MustString() != "spot" || !ftxEnabled(entry) {
			continue
		}
		pairCode := entry.Get("name").MustString()
		base := entry.Get("baseCurrency").MustString()
		quote := entry.Get("quoteCurrency").MustString()
		if pairCode == "" || base == "" || quote == "" {
			listing.skip(NameFTX, entryLabel(i, pairCode), errors.New("missing name, baseCurrency or quoteCurrency"))
			continue
		}

		sym := domain.NewSymbol(NameFTX, pairCode, base, quote)
		sym.ExchangeID = exchangeID
		sym.InstrumentType = domain.SpotType
		applyFTXIncrements(sym, entry)
		listing.Symbols[pairCode] = sym
		addFTXAssets(listing.Assets, base, quote)
	}
	return listing, nil
}

// ParseFTXFutures maps dated and perpetual futures of /api/futures.
func ParseFTXFutures(exchangeID string, payload []byte) (*Listing, error) {
	result, n, err := ftxResult(NameFTX, payload)
	if err != nil {
		return nil, err
	}

	listing := newListing()
	for i := 0; i < n; i++ {
		entry := result.GetIndex(i)
		kind := entry.Get("type").MustString()
		if (kind != "future" && kind != "perpetual") || !ftxEnabled(entry) {
			continue
		}
		pairCode := entry.Get("name").MustString()
		underlying := entry.Get("underlying").MustString()
		if pairCode == "" || underlying == "" {
			listing.skip(NameFTX, entryLabel(i, pairCode), errors.New("missing name or underlying"))
			continue
		}

		sym := domain.NewSymbol(NameFTX, pairCode, underlying, ftxFuturesQuote)
		sym.ExchangeID = exchangeID
		sym.InstrumentType = domain.PerpetualFutureType
		if kind == "future" {
			sym.InstrumentType = domain.FutureType
			expiry, err := ftxExpiry(entry)
			if err != nil {
				listing.skip(NameFTX, pairCode, err)
				continue
			}
			sym.Expiry = expiry
		}
		applyFTXIncrements(sym, entry)
		listing.Symbols[pairCode] = sym
		addFTXAssets(listing.Assets, underlying, ftxFuturesQuote)
	}
	return listing, nil
}

// addFTXAssets records market codes as unknown assets. Entries from
// /api/coins replace them in MergeFTX.
func addFTXAssets(assets map[string]*domain.Asset, codes ...string) {
	for _, code := range codes {
		key := domain.NormalizeCode(code)
		if _, ok := assets[key]; ok {
			continue
		}
		assets[key] = domain.NewAsset(key, key, domain.UnknownAsset)
	}
}

// ftxExpiry keeps the date part of the ISO timestamp. A null expiry means the
// contract does not expire.
func ftxExpiry(entry *simplejson.Json) (string, error) {
	raw, err := entry.Get("expiry").String()
	if err != nil || raw == "" {
		return domain.NoExpiry, nil
	}
	date := strings.SplitN(raw, "T", 2)[0]
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return "", fmt.Errorf("invalid expiry %q: %w", raw, err)
	}
	return date, nil
}

func applyFTXIncrements(sym *domain.Symbol, entry *simplejson.Json) {
	if tick := optionalDecimal(entry, "priceIncrement"); tick != nil {
		sym.TickSize = *tick
	}
	if step := optionalDecimal(entry, "sizeIncrement"); step != nil {
		sym.StepSize = *step
	}
	sym.PricePrecision = domain.ResolvePrecision(nil, sym.TickSize)
	sym.QuantityPrecision = domain.ResolvePrecision(nil, sym.StepSize)
}

// FTXCoins is the decoded /api/coins listing plus the codes of leveraged
// tokens, which are never assets.
type FTXCoins struct {
	*Listing
	Leveraged map[string]struct{}
}

// ParseFTXCoins maps /api/coins. Leveraged tokens carry an underlying and are
// not assets. FTX does not classify coins, so every type is unknown.
func ParseFTXCoins(payload []byte) (*FTXCoins, error) {
	result, n, err := ftxResult(NameFTX, payload)
	if err != nil {
		return nil, err
	}

	coins := &FTXCoins{Listing: newListing(), Leveraged: map[string]struct{}{}}
	for i := 0; i < n; i++ {
		entry := result.GetIndex(i)
		code := entry.Get("id").MustString()
		if _, ok := entry.CheckGet("underlying"); ok {
			if code != "" {
				coins.Leveraged[domain.NormalizeCode(code)] = struct{}{}
			}
			continue
		}
		if code == "" {
			coins.skip(NameFTX, entryLabel(i, ""), errors.New("missing id"))
			continue
		}
		asset := domain.NewAsset(code, entry.Get("name").MustString(), domain.UnknownAsset)
		coins.Assets[asset.Code] = asset
	}
	return coins, nil
}

// MergeFTX combines the three FTX endpoints. Coin entries win over codes
// seen only on markets, and leveraged tokens are removed whichever endpoint
// named them.
func MergeFTX(markets, futures *Listing, coins *FTXCoins) *Listing {
	listing := newListing()
	listing.merge(coins.Listing)
	listing.merge(markets)
	listing.merge(futures)
	for code := range coins.Leveraged {
		delete(listing.Assets, code)
	}
	return listing
}
