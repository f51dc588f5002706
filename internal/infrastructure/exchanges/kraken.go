package exchanges

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bitly/go-simplejson"
	"github.com/shopspring/decimal"

	domain "refdatasync/internal/domain/entity/refdata"
)

var krakenInactive = map[string]struct{}{
	"delisted":    {},
	"maintenance": {},
}

// krakenAsset strips Kraken's X/Z class prefixes from four-letter codes.
// Z-prefixed codes are fiat.
func krakenAsset(raw string) (string, domain.AssetType) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	assetType := domain.Cryptocurrency
	if len(code) == 4 && strings.HasPrefix(code, "Z") {
		assetType = domain.Fiat
		code = code[1:]
	}
	if len(code) == 4 && strings.HasPrefix(code, "X") {
		code = code[1:]
	}
	if code == "XBT" {
		code = "BTC"
	}
	return domain.NormalizeCode(code), assetType
}

// ParseKrakenAssetPairs maps /0/public/AssetPairs into spot symbols and their
// assets.
func ParseKrakenAssetPairs(exchangeID string, payload []byte) (*Listing, error) {
	js, err := simplejson.NewJson(payload)
	if err != nil {
		return nil, &domain.DecodeError{Source: NameKraken, Err: err}
	}
	if apiErrors, _ := js.Get("error").StringArray(); len(apiErrors) > 0 {
		return nil, &domain.DecodeError{Source: NameKraken, Err: fmt.Errorf("api error: %s", strings.Join(apiErrors, "; "))}
	}
	result, ok := js.CheckGet("result")
	if !ok {
		return nil, &domain.DecodeError{Source: NameKraken, Err: errors.New("missing result")}
	}
	pairs, err := result.Map()
	if err != nil {
		return nil, &domain.DecodeError{Source: NameKraken, Err: err}
	}

	pairCodes := make([]string, 0, len(pairs))
	for code := range pairs {
		pairCodes = append(pairCodes, code)
	}
	sort.Strings(pairCodes)

	listing := newListing()
	for _, pairCode := range pairCodes {
		entry := result.Get(pairCode)
		if _, inactive := krakenInactive[entry.Get("status").MustString()]; inactive {
			continue
		}
		rawBase := entry.Get("base").MustString()
		rawQuote := entry.Get("quote").MustString()
		if rawBase == "" || rawQuote == "" {
			listing.skip(NameKraken, pairCode, errors.New("missing base or quote"))
			continue
		}
		base, baseType := krakenAsset(rawBase)
		quote, quoteType := krakenAsset(rawQuote)
		addKrakenAsset(listing.Assets, base, baseType)
		addKrakenAsset(listing.Assets, quote, quoteType)

		sym := domain.NewSymbol(NameKraken, pairCode, base, quote)
		sym.ExchangeID = exchangeID
		sym.InstrumentType = domain.SpotType
		pairDecimals := optionalInt(entry, "pair_decimals")
		lotDecimals := optionalInt(entry, "lot_decimals")
		if tick := optionalDecimal(entry, "tick_size"); tick != nil {
			sym.TickSize = *tick
		} else if pairDecimals != nil {
			sym.TickSize = decimal.New(1, -int32(*pairDecimals))
		}
		if lotDecimals != nil {
			sym.StepSize = decimal.New(1, -int32(*lotDecimals))
		}
		sym.PricePrecision = domain.ResolvePrecision(pairDecimals, sym.TickSize)
		sym.QuantityPrecision = domain.ResolvePrecision(lotDecimals, sym.StepSize)
		listing.Symbols[pairCode] = sym
	}
	return listing, nil
}

// addKrakenAsset registers a code once; a fiat classification wins over the
// cryptocurrency default.
func addKrakenAsset(assets map[string]*domain.Asset, code string, assetType domain.AssetType) {
	if current, ok := assets[code]; ok {
		if assetType == domain.Fiat {
			current.Type = domain.Fiat
		}
		return
	}
	assets[code] = domain.NewAsset(code, code, assetType)
}
