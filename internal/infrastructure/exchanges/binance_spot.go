package exchanges

import (
	"encoding/json"
	"errors"

	"github.com/adshao/go-binance/v2"

	domain "refdatasync/internal/domain/entity/refdata"
)

// spotExchangeInfo is the subset of /api/v3/exchangeInfo we read. Symbols is
// a pointer so a missing key can be told apart from an empty listing.
type spotExchangeInfo struct {
	Symbols *[]json.RawMessage `json:"symbols"`
}

// spotEntryLabel reads only the pair code, so an entry that fails the full
// decode can still be named in the skip log.
type spotEntryLabel struct {
	Symbol string `json:"symbol"`
}

// ParseBinanceSpot maps a Binance spot exchangeInfo payload.
func ParseBinanceSpot(exchangeName, exchangeID string, payload []byte) (*Listing, error) {
	var info spotExchangeInfo
	if err := json.Unmarshal(payload, &info); err != nil {
		return nil, &domain.DecodeError{Source: exchangeName, Err: err}
	}
	if info.Symbols == nil {
		return nil, &domain.DecodeError{Source: exchangeName, Err: errors.New("missing symbols")}
	}

	listing := newListing()
	for i, raw := range *info.Symbols {
		var item binance.Symbol
		if err := json.Unmarshal(raw, &item); err != nil {
			var label spotEntryLabel
			_ = json.Unmarshal(raw, &label)
			listing.skip(exchangeName, entryLabel(i, label.Symbol), err)
			continue
		}
		l := binanceListing{
			PairCode:   item.Symbol,
			Status:     item.Status,
			BaseAsset:  item.BaseAsset,
			QuoteAsset: item.QuoteAsset,
			Filters:    item.Filters,
		}
		if err := l.validate(); err != nil {
			listing.skip(exchangeName, entryLabel(i, item.Symbol), err)
			continue
		}
		if !l.active() {
			continue
		}
		listing.Symbols[l.PairCode] = buildBinanceSymbol(exchangeName, exchangeID, l)
		addBinanceAssets(listing.Assets, l)
	}
	return listing, nil
}
